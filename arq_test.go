package wps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestARQState_SeqNumFlipsOnAck(t *testing.T) {
	a := NewARQState(ARQConfig{}, true, false)
	assert.False(t, a.SeqNum())
	a.IncSeqNum()
	assert.True(t, a.SeqNum())
	a.IncSeqNum()
	assert.False(t, a.SeqNum())
}

func TestARQState_DuplicateDetection(t *testing.T) {
	a := NewARQState(ARQConfig{}, true, true)

	a.UpdateRxSeqNum(true) // matches the seeded expectation: a repeat
	assert.True(t, a.IsRxFrameDuplicate())

	a.UpdateRxSeqNum(false) // a new bit: not a repeat
	assert.False(t, a.IsRxFrameDuplicate())
}

func TestARQState_DisabledNeverFlagsDuplicates(t *testing.T) {
	a := NewARQState(ARQConfig{}, false, true)
	a.UpdateRxSeqNum(true)
	assert.False(t, a.IsRxFrameDuplicate(), "duplicate suppression is a no-op when ARQ is disabled")
}

func TestARQState_TimeoutByRetryCount(t *testing.T) {
	a := NewARQState(ARQConfig{RetryCount: 3}, true, false)
	assert.False(t, a.IsFrameTimeout(0, 2, 10))
	assert.True(t, a.IsFrameTimeout(0, 3, 10))
}

func TestARQState_TimeoutByDeadline(t *testing.T) {
	a := NewARQState(ARQConfig{TimeDeadlineQtrMS: 100}, true, false)
	assert.False(t, a.IsFrameTimeout(0, 1, 99))
	assert.True(t, a.IsFrameTimeout(0, 1, 100))
}

func TestARQState_InfiniteRetryCountStillAccumulates(t *testing.T) {
	a := NewARQState(ARQConfig{RetryCount: 0}, true, false)
	assert.False(t, a.IsFrameTimeout(0, 50, 10), "retry count 0 means no limit")
	assert.Equal(t, uint32(1), a.RetryCount(), "the counter keeps incrementing for observability even with no limit")
}
