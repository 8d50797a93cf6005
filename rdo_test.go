package wps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestRDOState_DisabledAlwaysZero(t *testing.T) {
	r := NewRDOState(false, 16)
	for i := 0; i < 10; i++ {
		assert.Equal(t, uint16(0), r.Next())
	}
}

// TestRDOState_StaysWithinRollover checks spec.md C7's bound: every drawn
// offset is within [0, rollover), so it always fits the header field
// sized for it.
func TestRDOState_StaysWithinRollover(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rollover := uint16(rapid.IntRange(1, 65535).Draw(t, "rollover"))
		r := NewRDOState(true, rollover)

		for i := 0; i < 50; i++ {
			v := r.Next()
			assert.Less(t, v, rollover)
			assert.Equal(t, v, r.Current())
		}
	})
}
