package qr

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestEncodePNG(t *testing.T) {
	png, err := EncodePNG("0b39cf2e-8f6a-4b4e-9a1c-2f55cf2e8f6a", 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestEncodePNGEmpty(t *testing.T) {
	_, err := EncodePNG("", 256)
	assert.Error(t, err)
}
