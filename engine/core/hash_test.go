package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHash(t *testing.T) {
	t.Run("Should be stable for equal text", func(t *testing.T) {
		assert.Equal(t, ContentHash("office hours"), ContentHash("office hours"))
		assert.Len(t, ContentHash("office hours"), 64)
	})
	t.Run("Should differ when text changes", func(t *testing.T) {
		assert.NotEqual(t, ContentHash("office hours"), ContentHash("office hours "))
	})
}
