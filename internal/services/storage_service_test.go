package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKeyFromURL(t *testing.T) {
	const host, bucket = "storage.mamastoria.com", "mamastoria"

	key, err := objectKeyFromURL("https://storage.mamastoria.com/mamastoria/exports/comic-3/book.pdf?X-Amz-Signature=abc", host, bucket)
	require.NoError(t, err)
	assert.Equal(t, "exports/comic-3/book.pdf", key)

	for _, raw := range []string{
		"https://evil.example/mamastoria/a.pdf",
		"https://storage.mamastoria.com/other-bucket/a.pdf",
		"https://storage.mamastoria.com/mamastoria/",
		"https://storage.mamastoria.com/mamastoria/a/../../secret",
		"ftp://storage.mamastoria.com/mamastoria/a.pdf",
		"not a url",
	} {
		_, err := objectKeyFromURL(raw, host, bucket)
		assert.ErrorIs(t, err, ErrObjectURL, raw)
	}
}
