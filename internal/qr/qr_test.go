package qr

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNG(t *testing.T) {
	data, err := PNG("https://app.gymhub.io/register", DefaultSize)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
}

func TestPNG_EmptyContent(t *testing.T) {
	_, err := PNG("", DefaultSize)
	assert.Error(t, err)
}

func TestNewShareLink(t *testing.T) {
	link, err := NewShareLink("https://app.gymhub.io/gyms/4/join")
	require.NoError(t, err)
	assert.Equal(t, "https://app.gymhub.io/gyms/4/join", link.URL)

	raw, err := base64.StdEncoding.DecodeString(link.QRCode)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("\x89PNG")))
}
