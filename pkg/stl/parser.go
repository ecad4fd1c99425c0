package stl

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// Binary STL layout
const (
	headerSize     = 80
	countSize      = 4
	dataOffset     = headerSize + countSize
	facetSize      = 12*4 + 2
	attributeStart = 48
)

// Parse reads an STL file and decodes it
func Parse(filename string) (*Mesh, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Decode(data)
}

// Decode decodes an STL buffer. The encoding is detected with IsBinary.
func Decode(data []byte) (*Mesh, error) {
	if len(data) < dataOffset {
		// too short for a binary header, but a single facet fits in ASCII
		if looksLikeASCII(data) {
			return decodeASCII(string(data))
		}
		return nil, malformed(FormatBinary, ErrTruncated,
			"need at least %d bytes for the header, got %d", dataOffset, len(data))
	}

	if IsBinary(data) {
		return decodeBinary(data)
	}
	return decodeASCII(string(data))
}

// DecodeString decodes an STL file held in a string whose characters are the
// file's bytes (U+0000 to U+00FF).
func DecodeString(s string) (*Mesh, error) {
	data, err := StringToBytes(s)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// IsBinary classifies a buffer of at least 84 bytes. A buffer whose length
// matches the facet count in the header is binary. Otherwise any byte above
// 127 marks it as binary, since ASCII STL is plain text.
func IsBinary(data []byte) bool {
	if len(data) < dataOffset {
		return false
	}

	faces := binary.LittleEndian.Uint32(data[headerSize:dataOffset])
	expect := dataOffset + int64(faces)*facetSize
	if expect == int64(len(data)) {
		return true
	}

	for _, b := range data {
		if b > 127 {
			return true
		}
	}
	return false
}

// looksLikeASCII reports whether data opens with an ASCII STL keyword
func looksLikeASCII(data []byte) bool {
	text := bytes.TrimLeft(data, " \t\r\n")
	return bytes.HasPrefix(text, []byte("solid")) || bytes.HasPrefix(text, []byte("facet"))
}
