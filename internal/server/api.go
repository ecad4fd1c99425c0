package server

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/philipparndt/stlwebviewer/pkg/analysis"
	"github.com/philipparndt/stlwebviewer/pkg/openscad"
	"github.com/philipparndt/stlwebviewer/pkg/stl"
)

// MetricsResponse is returned by /api/metrics
type MetricsResponse struct {
	Model   Model            `json:"model"`
	Metrics analysis.Metrics `json:"metrics"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatus(err), map[string]string{"error": err.Error()})
}

// handleModels lists the STL and OpenSCAD files below the model root
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	models := []string{}
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".stl") || openscad.IsSource(path) {
			rel, err := filepath.Rel(s.root, path)
			if err != nil {
				return err
			}
			models = append(models, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to list models", zap.Error(err))
		writeError(w, err)
		return
	}

	sort.Strings(models)
	writeJSON(w, http.StatusOK, models)
}

// handleMetrics decodes a model and returns its measurements
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	name := r.URL.Query().Get("model")
	path, err := s.resolve(name)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := s.loader.Load(r.Context(), path, nil)
	if err != nil {
		writeError(w, err)
		return
	}

	mesh, err := stl.Decode(data)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	report := analysis.AnalyzeModel(mesh, int64(len(data)))
	writeJSON(w, http.StatusOK, MetricsResponse{
		Model:   describe(name, mesh, report, true),
		Metrics: report.Metrics,
	})
}

// describe summarizes a mesh for the widget
func describe(name string, mesh *stl.Mesh, report *analysis.MeasurementResult, withBox bool) Model {
	m := Model{
		Name:      name,
		Format:    mesh.Format.String(),
		Triangles: mesh.TriangleCount(),
		HasColors: mesh.HasColors,
	}
	if withBox && !report.BoundingBox.IsEmpty() {
		box := report.BoundingBox
		m.BoundingBox = &Box{
			Min: [3]float64{box.Min.X, box.Min.Y, box.Min.Z},
			Max: [3]float64{box.Max.X, box.Max.Y, box.Max.Z},
		}
	}
	return m
}
