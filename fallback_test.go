package wps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testFallbackTable() *FallbackTable {
	return NewFallbackTable([]FallbackEntry{
		{ThresholdBytes: 0, PowerDelta: 0, ChannelDelta: 0},
		{ThresholdBytes: 64, PowerDelta: -3, ChannelDelta: 1},
		{ThresholdBytes: 128, PowerDelta: -6, ChannelDelta: 2},
	})
}

func TestFallbackTable_SelectsHighestMetThreshold(t *testing.T) {
	f := testFallbackTable()

	assert.Equal(t, FallbackProfile{}, f.Select(10))
	assert.Equal(t, FallbackProfile{PowerDelta: -3, ChannelDelta: 1}, f.Select(64))
	assert.Equal(t, FallbackProfile{PowerDelta: -3, ChannelDelta: 1}, f.Select(100))
	assert.Equal(t, FallbackProfile{PowerDelta: -6, ChannelDelta: 2}, f.Select(200))
}

func TestFallbackTable_LinkMarginIsRelativeToBaseline(t *testing.T) {
	f := testFallbackTable()
	assert.Equal(t, 0, f.LinkMargin(10))
	assert.Equal(t, -3, f.LinkMargin(64))
	assert.Equal(t, -6, f.LinkMargin(200))
}

func TestFallbackTable_EmptyTableAlwaysZero(t *testing.T) {
	f := NewFallbackTable(nil)
	assert.Equal(t, FallbackProfile{}, f.Select(1000))
	assert.Equal(t, 0, f.LinkMargin(1000))
}
