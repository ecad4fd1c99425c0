package config

// Overrides are command line values that take priority over the file.
// Zero values leave the loaded setting untouched.
type Overrides struct {
	LogLevel   string
	LogFile    string
	Listen     string
	ModelsDir  string
	FrameRate  int
	OpenSCAD   string
	LiveReload *bool
}

// ApplyOverrides applies CLI flag overrides to the config.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.LogFile != "" {
		c.Logging.LogFile = o.LogFile
	}
	if o.Listen != "" {
		c.Server.Listen = o.Listen
	}
	if o.ModelsDir != "" {
		c.Server.ModelsDir = o.ModelsDir
	}
	if o.FrameRate > 0 {
		c.Server.FrameRate = o.FrameRate
	}
	if o.OpenSCAD != "" {
		c.Viewer.OpenSCAD = o.OpenSCAD
	}
	if o.LiveReload != nil {
		c.Server.LiveReload = *o.LiveReload
	}
}
