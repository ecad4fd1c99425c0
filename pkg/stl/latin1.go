package stl

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// BytesToString maps every byte to the character with the same code point
// (ISO 8859-1), so the result round-trips through StringToBytes.
func BytesToString(data []byte) string {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		// every byte value has a latin1 mapping
		panic(err)
	}
	return string(out)
}

// StringToBytes is the inverse of BytesToString. Characters above U+00FF have
// no byte representation and produce an error.
func StringToBytes(s string) ([]byte, error) {
	out, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("string is not latin1 encoded: %w", err)
	}
	return out, nil
}
