package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/stlwebviewer/pkg/stl"
)

const tetrahedron = `solid corner
facet normal 0 0 -1
  outer loop
    vertex 0 0 0
    vertex 0 2 0
    vertex 2 0 0
  endloop
endfacet
facet normal 0 -1 0
  outer loop
    vertex 0 0 0
    vertex 2 0 0
    vertex 0 0 2
  endloop
endfacet
facet normal -1 0 0
  outer loop
    vertex 0 0 0
    vertex 0 0 2
    vertex 0 2 0
  endloop
endfacet
facet normal 0.577 0.577 0.577
  outer loop
    vertex 2 0 0
    vertex 0 2 0
    vertex 0 0 2
  endloop
endfacet
endsolid corner
`

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestConvertAndInfo(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	source := filepath.Join(dir, "corner.stl")
	output := filepath.Join(dir, "corner-binary.stl")
	require.NoError(t, os.WriteFile(source, []byte(tetrahedron), 0o644))

	out := execute(t, "convert", source, output, "--log-level", "error")
	assert.Contains(t, out, "Wrote 4 triangles")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Len(t, data, 84+4*50)
	assert.True(t, stl.IsBinary(data))

	out = execute(t, "info", output, "--log-level", "error")
	assert.Contains(t, out, "Format: binary")
	assert.Contains(t, out, "Triangles: 4")
	assert.Contains(t, out, "Volume: 1.333333 cubic units")
	assert.Contains(t, out, "File Size: 284 B")
}

func TestFacetOrdering(t *testing.T) {
	model, err := stl.DecodeString(tetrahedron)
	require.NoError(t, err)

	facets := collectFacets(model)
	require.Len(t, facets, 4)
	assert.InDelta(t, 2, facets[0].Area, 1e-9)
	assert.Nil(t, facets[0].Color)

	sortFacets(facets, true, false)
	assert.Equal(t, 3, facets[0].Index, "the slanted facet is the largest")
	assert.Equal(t, 0, facets[1].Index, "equal areas keep file order")

	sortFacets(facets, false, true)
	assert.Equal(t, 3, facets[3].Index)

	var out bytes.Buffer
	printFacets(&out, facets, 1, false, true)
	assert.Contains(t, out.String(), "Top 1 Smallest Facets")
	assert.Contains(t, out.String(), "Total facets: 4")
}

func TestMeasure(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	source := filepath.Join(t.TempDir(), "corner.stl")
	require.NoError(t, os.WriteFile(source, []byte(tetrahedron), 0o644))

	out := execute(t, "measure", source,
		"--x1", "0", "--y1", "0", "--z1", "0",
		"--x2", "2", "--y2", "0", "--z2", "0.5",
		"--log-level", "error")

	assert.Contains(t, out, "Direct distance: 2.061553 units")
	assert.Contains(t, out, "Nearest vertex: (2.000000, 0.000000, 0.000000) (distance: 0.500000)")
	assert.Contains(t, out, "Distance between nearest vertices: 2.000000 units")
}
