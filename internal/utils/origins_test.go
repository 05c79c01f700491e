package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginMatcher(t *testing.T) {
	assert.Nil(t, OriginMatcher([]string{"https://a.example", "*"}))
	assert.Nil(t, OriginMatcher(nil))
	assert.Nil(t, OriginMatcher([]string{" ", ""}))

	match := OriginMatcher([]string{" https://App.Mamastoria.com/ ", "http://localhost:3000"})
	assert.True(t, match("https://app.mamastoria.com"))
	assert.True(t, match("http://localhost:3000"))
	assert.False(t, match("https://evil.example"))
	assert.False(t, match(""))
}
