package wps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGainLoop_NudgesTowardTarget(t *testing.T) {
	g := NewGainLoop(-10, 10, 50)

	g.Update(0, 80) // above target: reduce gain
	assert.Equal(t, -1, g.Index(0))

	g = NewGainLoop(-10, 10, 50)
	g.Update(0, 20) // below target: raise gain
	assert.Equal(t, 1, g.Index(0))
}

func TestGainLoop_ClampsAtBounds(t *testing.T) {
	g := NewGainLoop(0, 1, 50)
	g.Update(0, 20)
	g.Update(0, 20)
	assert.Equal(t, 1, g.Index(0), "gain index must not exceed maxIndex")

	g = NewGainLoop(0, 1, 50)
	g.Update(0, 80)
	assert.Equal(t, 0, g.Index(0), "gain index must not drop below minIndex")
}

func TestGainLoop_ResetReturnsToMinimum(t *testing.T) {
	g := NewGainLoop(2, 10, 50)
	g.Update(3, 20)
	g.Reset()
	assert.Equal(t, 2, g.Index(3))
}
