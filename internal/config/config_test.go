package config

import (
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 40.0, cfg.Viewer.Camera.FOV)
	assert.Equal(t, 1.0, cfg.Viewer.Camera.Near)
	assert.Equal(t, 15000.0, cfg.Viewer.Camera.Far)
	assert.Equal(t, 500*time.Millisecond, cfg.Viewer.ReloadDebounce)
	assert.False(t, cfg.Viewer.ShowBoundingBox)
	assert.Equal(t, int64(256<<20), cfg.Viewer.MaxModelSize)

	assert.True(t, cfg.Controls.EnableDamping)
	assert.Equal(t, 0.125, cfg.Controls.DampingFactor)
	assert.True(t, cfg.Controls.AutoRotate)
	assert.Equal(t, 5*time.Second, cfg.Controls.AutoRotateDelay)
	assert.True(t, math.IsInf(cfg.Controls.MaxDistance, 1))

	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, 60, cfg.Server.FrameRate)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.LogFile)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stlwv.yaml")
	content := `
viewer:
  show_bounding_box: true
  max_model_size: 1048576
  camera:
    fov: 55
controls:
  auto_rotate: false
  auto_rotate_delay: 2s
  rotate_speed: 0.5
server:
  listen: "127.0.0.1:9000"
  frame_rate: 30
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Viewer.ShowBoundingBox)
	assert.Equal(t, 55.0, cfg.Viewer.Camera.FOV)
	assert.Equal(t, int64(1048576), cfg.Viewer.MaxModelSize)
	assert.Equal(t, 1.0, cfg.Viewer.Camera.Near, "unset keys keep their default")
	assert.False(t, cfg.Controls.AutoRotate)
	assert.Equal(t, 2*time.Second, cfg.Controls.AutoRotateDelay)
	assert.Equal(t, 0.5, cfg.Controls.RotateSpeed)
	assert.Equal(t, 0.125, cfg.Controls.DampingFactor)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Listen)
	assert.Equal(t, 30, cfg.Server.FrameRate)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[viewer]
show_bounding_box = true

[controls]
damping_factor = 0.2
enable_keys = true

[server]
models_dir = "/srv/models"
allowed_origins = ["https://example.com"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Viewer.ShowBoundingBox)
	assert.Equal(t, 0.2, cfg.Controls.DampingFactor)
	assert.True(t, cfg.Controls.EnableKeys)
	assert.Equal(t, "/srv/models", cfg.Server.ModelsDir)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 40.0, cfg.Viewer.Camera.FOV)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Server.Listen = ":9999"
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.Controls.AutoRotateDelay = 3 * time.Second
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, Default().SaveTo(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[server]")
	assert.Contains(t, string(data), `listen = ":8080"`)
}

func TestConfigDirUsesXDG(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("XDG only applies on unix")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "stlwv"), ConfigDir())
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	off := false

	cfg.ApplyOverrides(Overrides{
		LogLevel:   "warn",
		Listen:     ":7000",
		FrameRate:  24,
		LiveReload: &off,
	})

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, ":7000", cfg.Server.Listen)
	assert.Equal(t, 24, cfg.Server.FrameRate)
	assert.False(t, cfg.Server.LiveReload)
	assert.Equal(t, ".", cfg.Server.ModelsDir, "empty overrides keep the loaded value")
}

func TestSessionConfig(t *testing.T) {
	cfg := Default()
	cfg.Viewer.ShowBoundingBox = true

	session := cfg.Session()
	assert.True(t, session.ShowBoundingBox)
	assert.Equal(t, cfg.Controls, session.Controls)
	assert.Equal(t, cfg.Viewer.Camera, session.Camera)
}

func TestFrameInterval(t *testing.T) {
	cfg := Default()
	assert.Equal(t, time.Second/60, cfg.FrameInterval())

	cfg.Server.FrameRate = 0
	assert.Equal(t, time.Second/60, cfg.FrameInterval())
}
