package viewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/philipparndt/stlwebviewer/pkg/openscad"
)

// DefaultMaxSize is the largest model a Loader reads unless told otherwise
const DefaultMaxSize int64 = 256 << 20

var (
	// ErrSourceNotFound is returned when a model source does not exist
	ErrSourceNotFound = errors.New("model source not found")
	// ErrTooLarge is returned when a model exceeds the loader's size limit
	ErrTooLarge = errors.New("model too large")
)

// Progress reports how many bytes of a model have arrived. Total is -1 until
// the size is known.
type Progress struct {
	Loaded int64 `json:"loaded"`
	Total  int64 `json:"total"`
}

// Percent returns the whole percentage loaded, or -1 for an unknown total
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return -1
	}
	return int(p.Loaded * 100 / p.Total)
}

// Loader reads model bytes from URLs and local files
type Loader struct {
	client     *http.Client
	scadBinary string
	maxSize    int64
	logger     *zap.Logger
}

// NewLoader creates a loader. A nil client uses http.DefaultClient and an
// empty scadBinary looks up openscad in PATH.
func NewLoader(client *http.Client, scadBinary string, logger *zap.Logger) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		client:     client,
		scadBinary: scadBinary,
		maxSize:    DefaultMaxSize,
		logger:     logger,
	}
}

// SetMaxSize limits the bytes read for one model. n <= 0 restores
// DefaultMaxSize.
func (l *Loader) SetMaxSize(n int64) {
	if n <= 0 {
		n = DefaultMaxSize
	}
	l.maxSize = n
}

// MaxSize returns the model size limit in bytes
func (l *Loader) MaxSize() int64 {
	return l.maxSize
}

// LocalPath returns the file behind a local path or file:// source
func LocalPath(source string) (string, bool) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// no scheme, or a Windows drive letter
		return source, true
	}
	if u.Scheme == "file" {
		return filepath.FromSlash(u.Path), true
	}
	return "", false
}

// Load returns the STL bytes of source. progress, if set, receives
// monotonically increasing counts and a final event with Loaded == Total.
func (l *Loader) Load(ctx context.Context, source string, progress func(Progress)) ([]byte, error) {
	if progress == nil {
		progress = func(Progress) {}
	}

	if path, ok := LocalPath(source); ok {
		if openscad.IsSource(path) {
			return l.loadSCAD(ctx, path, progress)
		}
		return l.loadFile(path, progress)
	}

	u, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("invalid model source %q: %w", source, err)
	}
	switch u.Scheme {
	case "http", "https":
		return l.loadHTTP(ctx, u.String(), progress)
	default:
		return nil, fmt.Errorf("unsupported model source scheme %q", u.Scheme)
	}
}

func (l *Loader) loadFile(path string, progress func(Progress)) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrSourceNotFound, err)
		}
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer file.Close()

	total := int64(-1)
	if info, err := file.Stat(); err == nil {
		total = info.Size()
	}

	return l.readAll(file, total, progress)
}

func (l *Loader) loadSCAD(ctx context.Context, path string, progress func(Progress)) ([]byte, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrSourceNotFound, err)
		}
		return nil, err
	}

	l.logger.Info("Rendering OpenSCAD file", zap.String("path", path))
	renderer := openscad.NewRenderer(l.scadBinary, filepath.Dir(path))
	data, err := renderer.Render(ctx, path)
	if err != nil {
		return nil, err
	}

	size := int64(len(data))
	if size > l.maxSize {
		return nil, fmt.Errorf("%w: rendered %d bytes, limit is %d", ErrTooLarge, size, l.maxSize)
	}
	progress(Progress{Loaded: size, Total: size})
	return data, nil
}

func (l *Loader) loadHTTP(ctx context.Context, source string, progress func(Progress)) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", source, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, source)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("failed to fetch %s: %s", source, resp.Status)
	}

	l.logger.Debug("Fetching model",
		zap.String("url", source),
		zap.Int64("contentLength", resp.ContentLength))

	return l.readAll(resp.Body, resp.ContentLength, progress)
}

// progressReader reports the running byte count after every read
type progressReader struct {
	r        io.Reader
	loaded   int64
	total    int64
	progress func(Progress)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		if p.total >= 0 && p.loaded > p.total {
			// the announced size was wrong
			p.total = -1
		}
		p.progress(Progress{Loaded: p.loaded, Total: p.total})
	}
	return n, err
}

// readAll reads at most maxSize bytes. total is the announced size, which
// may be wrong.
func (l *Loader) readAll(r io.Reader, total int64, progress func(Progress)) ([]byte, error) {
	if total > l.maxSize {
		return nil, fmt.Errorf("%w: announced %d bytes, limit is %d", ErrTooLarge, total, l.maxSize)
	}

	pr := &progressReader{r: io.LimitReader(r, l.maxSize+1), total: total, progress: progress}

	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}
	if _, err := io.Copy(&buf, pr); err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	if pr.loaded > l.maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, l.maxSize)
	}

	if pr.total != pr.loaded {
		progress(Progress{Loaded: pr.loaded, Total: pr.loaded})
	}
	return buf.Bytes(), nil
}
