package viewer

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	hstl "github.com/hschendel/stl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/philipparndt/stlwebviewer/pkg/analysis"
	"github.com/philipparndt/stlwebviewer/pkg/geometry"
	"github.com/philipparndt/stlwebviewer/pkg/orbit"
	"github.com/philipparndt/stlwebviewer/pkg/stl"
)

// tetrahedron is the unit corner tetrahedron with outward normals
const tetrahedron = `solid corner
facet normal 0 0 -1
  outer loop
    vertex 0 0 0
    vertex 0 1 0
    vertex 1 0 0
  endloop
endfacet
facet normal 0 -1 0
  outer loop
    vertex 0 0 0
    vertex 1 0 0
    vertex 0 0 1
  endloop
endfacet
facet normal -1 0 0
  outer loop
    vertex 0 0 0
    vertex 0 0 1
    vertex 0 1 0
  endloop
endfacet
facet normal 0.577 0.577 0.577
  outer loop
    vertex 1 0 0
    vertex 0 1 0
    vertex 0 0 1
  endloop
endfacet
endsolid corner
`

func writeModel(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func recordProgress(events *[]Progress) func(Progress) {
	return func(p Progress) { *events = append(*events, p) }
}

func assertMonotonic(t *testing.T, events []Progress) {
	t.Helper()
	require.NotEmpty(t, events)
	for i := 1; i < len(events); i++ {
		assert.GreaterOrEqual(t, events[i].Loaded, events[i-1].Loaded)
	}
	last := events[len(events)-1]
	assert.Equal(t, last.Total, last.Loaded)
}

func TestProgressPercent(t *testing.T) {
	assert.Equal(t, 0, Progress{Loaded: 0, Total: 200}.Percent())
	assert.Equal(t, 49, Progress{Loaded: 99, Total: 200}.Percent())
	assert.Equal(t, 100, Progress{Loaded: 200, Total: 200}.Percent())
	assert.Equal(t, -1, Progress{Loaded: 10, Total: -1}.Percent())
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		source string
		path   string
		local  bool
	}{
		{"models/part.stl", "models/part.stl", true},
		{"/srv/part.stl", "/srv/part.stl", true},
		{"file:///srv/part.stl", filepath.FromSlash("/srv/part.stl"), true},
		{"https://example.com/part.stl", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			path, local := LocalPath(tt.source)
			assert.Equal(t, tt.local, local)
			assert.Equal(t, tt.path, path)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := writeModel(t, "corner.stl", tetrahedron)

	var events []Progress
	data, err := NewLoader(nil, "", nil).Load(context.Background(), path, recordProgress(&events))
	require.NoError(t, err)
	assert.Equal(t, tetrahedron, string(data))

	assertMonotonic(t, events)
	assert.Equal(t, int64(len(tetrahedron)), events[len(events)-1].Total)
}

func TestLoadFileURL(t *testing.T) {
	path := writeModel(t, "corner.stl", tetrahedron)

	data, err := NewLoader(nil, "", nil).Load(context.Background(), "file://"+filepath.ToSlash(path), nil)
	require.NoError(t, err)
	assert.Len(t, data, len(tetrahedron))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(nil, "", nil).Load(context.Background(), filepath.Join(t.TempDir(), "missing.stl"), nil)
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestLoadHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/corner.stl":
			w.Header().Set("Content-Length", fmt.Sprint(len(tetrahedron)))
			_, _ = w.Write([]byte(tetrahedron))
		case "/chunked.stl":
			half := len(tetrahedron) / 2
			_, _ = w.Write([]byte(tetrahedron[:half]))
			w.(http.Flusher).Flush()
			_, _ = w.Write([]byte(tetrahedron[half:]))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	loader := NewLoader(srv.Client(), "", zaptest.NewLogger(t))

	t.Run("known length", func(t *testing.T) {
		var events []Progress
		data, err := loader.Load(context.Background(), srv.URL+"/corner.stl", recordProgress(&events))
		require.NoError(t, err)
		assert.Equal(t, tetrahedron, string(data))

		assertMonotonic(t, events)
		for _, e := range events {
			assert.Equal(t, int64(len(tetrahedron)), e.Total)
		}
	})

	t.Run("unknown length", func(t *testing.T) {
		var events []Progress
		data, err := loader.Load(context.Background(), srv.URL+"/chunked.stl", recordProgress(&events))
		require.NoError(t, err)
		assert.Equal(t, tetrahedron, string(data))

		assertMonotonic(t, events)
		assert.Equal(t, int64(-1), events[0].Total)
		assert.Equal(t, int64(len(tetrahedron)), events[len(events)-1].Total)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := loader.Load(context.Background(), srv.URL+"/missing.stl", nil)
		assert.ErrorIs(t, err, ErrSourceNotFound)
	})
}

func TestLoadUnsupportedScheme(t *testing.T) {
	_, err := NewLoader(nil, "", nil).Load(context.Background(), "ftp://example.com/part.stl", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ftp")
}

// serveRaw answers every request with response verbatim
func serveRaw(t *testing.T, response string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				if _, err := http.ReadRequest(bufio.NewReader(conn)); err != nil {
					return
				}
				_, _ = io.WriteString(conn, response)
			}()
		}
	}()

	return "http://" + ln.Addr().String() + "/huge.stl"
}

func TestLoadHTTPAnnouncedSizeOverLimit(t *testing.T) {
	url := serveRaw(t, "HTTP/1.1 200 OK\r\nContent-Length: 70368744177664\r\n\r\nsolid x\n")

	var events []Progress
	_, err := NewLoader(nil, "", nil).Load(context.Background(), url, recordProgress(&events))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Empty(t, events)
}

func TestLoadHTTPBodyOverLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// no Content-Length, the body itself is too long
		_, _ = w.Write([]byte(tetrahedron[:32]))
		w.(http.Flusher).Flush()
		_, _ = w.Write([]byte(tetrahedron[32:]))
	}))
	t.Cleanup(srv.Close)

	loader := NewLoader(srv.Client(), "", nil)
	loader.SetMaxSize(64)
	assert.Equal(t, int64(64), loader.MaxSize())

	_, err := loader.Load(context.Background(), srv.URL+"/corner.stl", nil)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestLoaderMaxSize(t *testing.T) {
	path := writeModel(t, "corner.stl", tetrahedron)
	loader := NewLoader(nil, "", nil)
	assert.Equal(t, DefaultMaxSize, loader.MaxSize())

	loader.SetMaxSize(int64(len(tetrahedron)))
	data, err := loader.Load(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Len(t, data, len(tetrahedron))

	loader.SetMaxSize(int64(len(tetrahedron)) - 1)
	_, err = loader.Load(context.Background(), path, nil)
	assert.ErrorIs(t, err, ErrTooLarge)

	loader.SetMaxSize(0)
	assert.Equal(t, DefaultMaxSize, loader.MaxSize())
}

func TestSessionLoadTooLarge(t *testing.T) {
	url := serveRaw(t, "HTTP/1.1 200 OK\r\nContent-Length: 70368744177664\r\n\r\nsolid x\n")
	host := NewHost(DefaultConfig(), nil, zaptest.NewLogger(t))

	var reported error
	session := host.NewSession(url, Callbacks{
		OnLoad:  func(*stl.Mesh, analysis.Metrics) { t.Error("unexpected load") },
		OnError: func(err error) { reported = err },
	})

	err := session.Load(context.Background())
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.ErrorIs(t, reported, ErrTooLarge)
	assert.Nil(t, session.Mesh())
}

func TestSessionLoadPlanarBinary(t *testing.T) {
	square := &hstl.Solid{
		Name: "square",
		Triangles: []hstl.Triangle{
			{Normal: hstl.Vec3{0, 0, 1}, Vertices: [3]hstl.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}}},
			{Normal: hstl.Vec3{0, 0, 1}, Vertices: [3]hstl.Vec3{{0, 0, 0}, {1, 1, 0}, {0, 1, 0}}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, square.WriteAll(&buf))
	require.Equal(t, 84+2*50, buf.Len())
	path := writeModel(t, "square.stl", buf.String())

	var (
		loaded  *stl.Mesh
		metrics analysis.Metrics
	)
	session := NewHost(DefaultConfig(), nil, nil).NewSession(path, Callbacks{
		OnLoad: func(mesh *stl.Mesh, m analysis.Metrics) {
			loaded = mesh
			metrics = m
		},
		OnError: func(err error) { t.Errorf("unexpected error: %v", err) },
	})

	require.NoError(t, session.Load(context.Background()))
	require.NotNil(t, loaded)
	assert.Equal(t, stl.FormatBinary, loaded.Format)
	assert.Equal(t, 2, loaded.TriangleCount())
	assert.False(t, loaded.HasColors)
	assert.Equal(t, 0.0, metrics.Volume)
	assert.Equal(t, int64(184), metrics.FileSize)
}

func TestSessionLoad(t *testing.T) {
	path := writeModel(t, "corner.stl", tetrahedron)
	host := NewHost(DefaultConfig(), nil, zaptest.NewLogger(t))

	var (
		loaded  *stl.Mesh
		metrics analysis.Metrics
		events  []Progress
	)
	session := host.NewSession(path, Callbacks{
		OnProgress: recordProgress(&events),
		OnLoad: func(mesh *stl.Mesh, m analysis.Metrics) {
			loaded = mesh
			metrics = m
		},
		OnError: func(err error) { t.Errorf("unexpected error: %v", err) },
	})

	require.NoError(t, session.Load(context.Background()))
	require.NotNil(t, loaded)
	assert.Same(t, loaded, session.Mesh())
	assert.Equal(t, 4, loaded.TriangleCount())

	assert.InDelta(t, 1.0/6, metrics.Volume, 1e-6)
	assert.InDelta(t, 1, metrics.Width, 1e-9)
	assert.InDelta(t, 1, metrics.Height, 1e-9)
	assert.InDelta(t, 1, metrics.Length, 1e-9)
	assert.Equal(t, int64(len(tetrahedron)), metrics.FileSize)
	assertMonotonic(t, events)

	r := math.Sqrt(0.75)
	center := mgl64.Vec3{0.5, 0.5, 0.5}
	assert.True(t, session.Rig().Target().ApproxEqualThreshold(center, 1e-6))
	assert.InDelta(t, 10*r, session.Rig().MaxDistance, 1e-6)

	expected := center.Add(mgl64.Vec3{1.5 * r, 1.5 * r, 1.5 * r})
	assert.True(t, session.Camera().Position.ApproxEqualThreshold(expected, 1e-6),
		"camera at %v, want %v", session.Camera().Position, expected)

	got, ok := session.Metrics()
	assert.True(t, ok)
	assert.Equal(t, metrics, got)
}

func TestSessionLoadMalformed(t *testing.T) {
	path := writeModel(t, "broken.stl", "solid")
	host := NewHost(DefaultConfig(), nil, nil)

	var reported error
	session := host.NewSession(path, Callbacks{
		OnLoad:  func(*stl.Mesh, analysis.Metrics) { t.Error("unexpected load") },
		OnError: func(err error) { reported = err },
	})

	err := session.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, stl.ErrMalformedFile)
	assert.Equal(t, err, reported)
	assert.Nil(t, session.Mesh())

	_, ok := session.Metrics()
	assert.False(t, ok)
}

func TestSessionReloadKeepsPose(t *testing.T) {
	path := writeModel(t, "corner.stl", tetrahedron)
	cfg := DefaultConfig()
	cfg.Controls.AutoRotate = false
	cfg.Controls.EnableDamping = false
	session := NewHost(cfg, nil, nil).NewSession(path, Callbacks{})

	require.NoError(t, session.Load(context.Background()))
	session.SetViewport(200, 100)
	session.Rig().PointerDown(orbit.MouseLeft, orbit.Point{X: 0, Y: 0})
	session.Rig().PointerMove(orbit.Point{X: 40, Y: 10})
	session.Rig().PointerUp()
	require.True(t, session.Frame())
	before := session.Pose()

	bigger := strings.ReplaceAll(tetrahedron, "vertex 1 0 0", "vertex 5 0 0")
	require.NoError(t, os.WriteFile(path, []byte(bigger), 0o644))

	require.NoError(t, session.Reload(context.Background()))
	assert.Equal(t, before, session.Pose())
	assert.InDelta(t, 5, session.Report().Width, 1e-9)
}

func TestSessionFrameAndViewport(t *testing.T) {
	session := NewHost(DefaultConfig(), nil, nil).NewSession("unused.stl", Callbacks{})

	session.SetViewport(800, 400)
	assert.InDelta(t, 2, session.Camera().Aspect, 1e-12)

	assert.True(t, session.Frame())
	pose := session.Pose()
	assert.Equal(t, 40.0, pose.FOV)
	assert.Equal(t, 1.0, pose.Zoom)

	q := session.Camera().Orientation
	assert.InDelta(t, 1, q.Len(), 1e-9)
}

func TestSessionBoundingBox(t *testing.T) {
	path := writeModel(t, "corner.stl", tetrahedron)

	session := NewHost(DefaultConfig(), nil, nil).NewSession(path, Callbacks{})
	require.NoError(t, session.Load(context.Background()))
	_, ok := session.BoundingBox()
	assert.False(t, ok)

	cfg := DefaultConfig()
	cfg.ShowBoundingBox = true
	session = NewHost(cfg, nil, nil).NewSession(path, Callbacks{})
	require.NoError(t, session.Load(context.Background()))
	box, ok := session.BoundingBox()
	require.True(t, ok)
	assert.InDelta(t, 1, box.Max.X, 1e-9)
}

func TestHostSessions(t *testing.T) {
	host := NewHost(DefaultConfig(), nil, nil)

	a := host.NewSession("a.stl", Callbacks{})
	b := host.NewSession("b.stl", Callbacks{})
	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)
	assert.Equal(t, []int{1, 2}, host.Sessions())

	got, ok := host.Session(2)
	require.True(t, ok)
	assert.Same(t, b, got)

	a.Close()
	a.Close()
	_, ok = host.Session(1)
	assert.False(t, ok)
	assert.Equal(t, []int{2}, host.Sessions())

	c := host.NewSession("c.stl", Callbacks{})
	assert.Equal(t, 3, c.ID)
}

func TestFitCameraZeroRadius(t *testing.T) {
	camera := NewCamera(DefaultCamera())
	rig := orbit.NewRig(camera, mgl64.Vec3{}, DefaultControls())

	FitCamera(rig, geometry.BoundingSphere{Center: geometry.NewVector3(2, 3, 4)})

	assert.True(t, rig.Target().ApproxEqual(mgl64.Vec3{2, 3, 4}))
	assert.InDelta(t, 10, rig.MaxDistance, 1e-12)
	assert.True(t, camera.Position.ApproxEqual(mgl64.Vec3{3.5, 4.5, 5.5}))
}

func TestDefaultControls(t *testing.T) {
	options := DefaultControls()
	assert.True(t, options.EnableDamping)
	assert.Equal(t, 0.125, options.DampingFactor)
	assert.Equal(t, 0.15, options.RotateSpeed)
	assert.False(t, options.EnableKeys)
	assert.True(t, options.AutoRotate)
	assert.Equal(t, 0.25, options.AutoRotateSpeed)
	assert.Equal(t, "5s", options.AutoRotateDelay.String())
}
