package wps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(capacity int) *xlQueue {
	return newXLQueue(make([]XLFrame, capacity))
}

func TestXLQueue_EmptyAndFullTransitions(t *testing.T) {
	q := newTestQueue(2)
	assert.True(t, q.isEmpty())
	assert.False(t, q.isFull())
	assert.Equal(t, 2, q.freeSpace())

	_, ok := q.getFreeSlot()
	require.True(t, ok)
	require.NoError(t, q.enqueue())
	assert.Equal(t, 1, q.length())
	assert.Equal(t, 1, q.freeSpace())

	_, ok = q.getFreeSlot()
	require.True(t, ok)
	require.NoError(t, q.enqueue())
	assert.True(t, q.isFull())
	assert.Equal(t, 0, q.freeSpace())

	_, ok = q.getFreeSlot()
	assert.False(t, ok, "a full queue has no free slot")
}

func TestXLQueue_EnqueueOnFullFails(t *testing.T) {
	q := newTestQueue(1)
	_, ok := q.getFreeSlot()
	require.True(t, ok)
	require.NoError(t, q.enqueue())

	assert.ErrorIs(t, q.enqueue(), ErrQueueFull)
}

func TestXLQueue_DequeueOnEmptyFails(t *testing.T) {
	q := newTestQueue(1)
	assert.ErrorIs(t, q.dequeue(), ErrQueueEmpty)

	_, ok := q.front()
	assert.False(t, ok)
}

func TestXLQueue_FIFOOrderAcrossWraparound(t *testing.T) {
	q := newTestQueue(2)

	for round := 0; round < 3; round++ {
		slot, ok := q.getFreeSlot()
		require.True(t, ok)
		slot.TimeStampQtrMS = QuarterMS(round)
		require.NoError(t, q.enqueue())

		front, ok := q.front()
		require.True(t, ok)
		assert.Equal(t, QuarterMS(round), front.TimeStampQtrMS, "the head must be the oldest published slot, even after head/tail have wrapped past capacity")
		require.NoError(t, q.dequeue())
	}
}

func TestXLQueue_GetFreeSlotDoesNotPublish(t *testing.T) {
	q := newTestQueue(1)
	_, ok := q.getFreeSlot()
	require.True(t, ok)

	assert.True(t, q.isEmpty(), "getFreeSlot must not make the slot visible to the consumer until enqueue is called")
}
