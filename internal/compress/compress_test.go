package compress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGZipRoundTrip(t *testing.T) {
	codec := NewGZip()
	payload := []byte(`{"title":"Hello World","content":"<article/>"}`)

	encoded, err := codec.Encode(payload)
	require.NoError(t, err)
	assert.NotEqual(t, payload, encoded)

	decoded, err := codec.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestGZipDecodeGarbage(t *testing.T) {
	_, err := NewGZip().Decode([]byte("not gzip"))
	assert.Error(t, err)
}

func TestNopRoundTrip(t *testing.T) {
	codec := NewNop()
	payload := []byte("as is")

	encoded, err := codec.Encode(payload)
	require.NoError(t, err)
	assert.Equal(t, payload, encoded)

	decoded, err := codec.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}
