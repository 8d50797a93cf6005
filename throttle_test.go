package wps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestGenerateActivePattern_FullAndEmpty(t *testing.T) {
	pattern, total := GenerateActivePattern(100)
	require.Equal(t, 1, total)
	assert.Equal(t, []bool{true}, pattern)

	pattern, total = GenerateActivePattern(0)
	require.Equal(t, 1, total)
	assert.Equal(t, []bool{false}, pattern)
}

func TestGenerateActivePattern_Half(t *testing.T) {
	pattern, total := GenerateActivePattern(50)
	require.Equal(t, 2, total)
	assert.Equal(t, []bool{true, false}, pattern)
}

// TestGenerateActivePattern_FractionProperty checks spec.md §8's throttle
// fraction invariant: the count of active positions in the generated
// pattern, divided by its length, always reduces to the requested ratio.
func TestGenerateActivePattern_FractionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ratio := rapid.IntRange(0, 100).Draw(t, "ratio")
		pattern, total := GenerateActivePattern(ratio)

		require.Len(t, pattern, total)

		active := 0
		for _, on := range pattern {
			if on {
				active++
			}
		}

		assert.Equal(t, ratio*total, active*100, "active/total must reduce to ratio/100")
	})
}
