package stl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatin1RoundTrip(t *testing.T) {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}

	s := BytesToString(data)
	assert.Equal(t, 256, len([]rune(s)))
	assert.Equal(t, 'é', []rune(s)[0xE9])

	back, err := StringToBytes(s)
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestStringToBytesRejectsWideRunes(t *testing.T) {
	_, err := StringToBytes("price: 5€")
	assert.Error(t, err)
}

func TestDecodeString(t *testing.T) {
	header := colorHeader("legacy", 12, [4]byte{0, 255, 0, 255})
	facets := planarFacets()
	facets[0].attr = 0x8000
	data := buildBinary(t, header, facets)

	fromBytes, err := Decode(data)
	require.NoError(t, err)

	fromString, err := DecodeString(BytesToString(data))
	require.NoError(t, err)

	assert.Equal(t, fromBytes, fromString)
}
