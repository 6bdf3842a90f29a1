package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicCount(t *testing.T) {
	h := Heuristic{}
	assert.Equal(t, 0, h.Count(""))
	assert.Equal(t, 1, h.Count("abc"))
	assert.Equal(t, 1, h.Count("abcd"))
	assert.Equal(t, 2, h.Count("abcde"))
	assert.Equal(t, 3, h.Count("twelve bytes"))
}
