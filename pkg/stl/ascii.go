package stl

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/philipparndt/stlwebviewer/pkg/geometry"
)

var (
	facetPattern  = regexp.MustCompile(`facet([\s\S]*?)endfacet`)
	normalPattern = regexp.MustCompile(`normal\s+(\S+)\s+(\S+)\s+(\S+)`)
	vertexPattern = regexp.MustCompile(`vertex\s+(\S+)\s+(\S+)\s+(\S+)`)
	solidPattern  = regexp.MustCompile(`^\s*solid[ \t]*([^\r\n]*)`)
)

func decodeASCII(text string) (*Mesh, error) {
	mesh := &Mesh{Format: FormatASCII}

	if m := solidPattern.FindStringSubmatch(text); m != nil {
		mesh.Name = strings.TrimSpace(m[1])
	}

	// A block without a normal keeps the one from the previous block
	var normal geometry.Vector3

	blocks := facetPattern.FindAllStringSubmatch(text, -1)
	if len(blocks) == 0 {
		return nil, malformed(FormatASCII, ErrTruncated, "no facet blocks")
	}
	for index, block := range blocks {
		body := block[1]

		for _, m := range normalPattern.FindAllStringSubmatch(body, -1) {
			n, err := parseTriple(m[1:])
			if err != nil {
				return nil, malformed(FormatASCII, err, "facet %d: normal", index)
			}
			normal = n
		}

		vertices := vertexPattern.FindAllStringSubmatch(body, -1)
		if len(vertices) != 3 {
			return nil, malformed(FormatASCII, nil, "facet %d: expected 3 vertices, found %d", index, len(vertices))
		}

		var corners [3]geometry.Vector3
		for i, m := range vertices {
			v, err := parseTriple(m[1:])
			if err != nil {
				return nil, malformed(FormatASCII, err, "facet %d: vertex %d", index, i)
			}
			corners[i] = v
		}

		mesh.addFacet(normal, corners, nil)
	}

	return mesh, nil
}

// parseTriple parses three tokens with single precision so ASCII and binary
// files holding the same numbers decode to the same values
func parseTriple(tokens []string) (geometry.Vector3, error) {
	var out [3]float32
	for i, token := range tokens {
		value, err := strconv.ParseFloat(token, 32)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			return geometry.Vector3{}, ErrInvalidNumber
		}
		out[i] = float32(value)
	}
	return geometry.FromFloat32(out), nil
}
