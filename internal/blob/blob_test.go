package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURI(t *testing.T) {
	t.Run("png data URI", func(t *testing.T) {
		data, ext, ok := DecodeDataURI("data:image/png;base64,aGVsbG8=")
		require.True(t, ok)
		assert.Equal(t, []byte("hello"), data)
		assert.Equal(t, "png", ext)
	})

	t.Run("pdf data URI", func(t *testing.T) {
		_, ext, ok := DecodeDataURI("data:application/pdf;base64,aGVsbG8=")
		require.True(t, ok)
		assert.Equal(t, "pdf", ext)
	})

	t.Run("missing subtype falls back to bin", func(t *testing.T) {
		_, ext, ok := DecodeDataURI("data:;base64,aGVsbG8=")
		require.True(t, ok)
		assert.Equal(t, "bin", ext)
	})

	t.Run("rejects non data URIs", func(t *testing.T) {
		for _, s := range []string{
			"https://example.com/proof.png",
			"mem://payments/abc.png",
			"data:image/png,notbase64marker",
			"data:image/png;base64,%%%",
			"",
		} {
			_, _, ok := DecodeDataURI(s)
			assert.False(t, ok, "input %q", s)
		}
	})
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	handle, err := store.Upload(ctx, "payments", []byte("proof"), "png")
	require.NoError(t, err)
	assert.Contains(t, handle, "mem://payments/")
	assert.Contains(t, handle, ".png")
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Delete(ctx, handle))
	assert.Equal(t, 0, store.Len())

	// Deleting an unknown handle is not an error.
	assert.NoError(t, store.Delete(ctx, "mem://payments/ghost.png"))
}
