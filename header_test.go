package wps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newFrame(headerSize, payloadCapacity int) *XLFrame {
	f := &XLFrame{Header: Window{Memory: make([]byte, headerSize+payloadCapacity), Capacity: headerSize + payloadCapacity},
		Payload: Window{}}
	f.Payload.Memory = f.Header.Memory
	f.Payload.Capacity = f.Header.Capacity
	f.Reset(headerSize)
	return f
}

func TestHeaderCodec_MainSlotRoundTrip(t *testing.T) {
	h := NewHeaderCodec(HeaderConfig{RDOEnabled: true, RDOFieldBytes: 2})
	f := newFrame(h.MainSlotSize(), 16)

	ok := h.EncodeMain(f, 0x2a, true, 7, 0x1234, 0, [4]byte{})
	require.True(t, ok)

	d, ok := h.DecodeMain(f)
	require.True(t, ok)
	assert.True(t, d.IsMainSlot)
	assert.Equal(t, uint8(0x2a), d.NextTimeslotID)
	assert.True(t, d.SAW)
	assert.Equal(t, uint8(7), d.HopIndex)
	assert.Equal(t, uint16(0x1234), d.RDO)
	assert.True(t, d.IsBeacon, "no payload bytes were added, so this is a beacon")
}

func TestHeaderCodec_AutoReplyRoundTrip(t *testing.T) {
	h := NewHeaderCodec(HeaderConfig{RDOEnabled: false, RangingCountEnabled: true})
	f := newFrame(h.AutoReplySlotSize(), 16)

	require.True(t, h.EncodeAutoReply(f, 0, 5, [4]byte{}))

	d, ok := h.DecodeAutoReply(f)
	require.True(t, ok)
	assert.False(t, d.IsMainSlot)
	assert.Equal(t, uint8(5), d.RangingPhaseCount)
}

// TestHeaderCodec_RoundTripProperty checks spec.md §8's header round-trip
// invariant across every combination of optional fields and payload
// presence: whatever EncodeMain writes, DecodeMain reads back unchanged.
func TestHeaderCodec_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := HeaderConfig{
			RDOEnabled:          rapid.Bool().Draw(t, "rdo"),
			RangingCountEnabled: rapid.Bool().Draw(t, "rangingCount"),
			RDOFieldBytes:       rapid.IntRange(1, 2).Draw(t, "rdoFieldBytes"),
		}
		h := NewHeaderCodec(cfg)

		payloadLen := rapid.IntRange(0, 32).Draw(t, "payloadLen")
		f := newFrame(h.MainSlotSize(), 64)
		if payloadLen > 0 {
			b, ok := f.Payload.growRight(payloadLen)
			require.True(t, ok)
			for i := range b {
				b[i] = byte(i)
			}
		}

		nextID := uint8(rapid.IntRange(0, 0x7f).Draw(t, "nextID"))
		saw := rapid.Bool().Draw(t, "saw")
		hopIdx := uint8(rapid.IntRange(0, 255).Draw(t, "hopIdx"))
		rdo := uint16(rapid.IntRange(0, 1<<(8*cfg.RDOFieldBytes)-1).Draw(t, "rdo"))

		require.True(t, h.EncodeMain(f, nextID, saw, hopIdx, rdo, 0, [4]byte{}))

		d, ok := h.DecodeMain(f)
		require.True(t, ok)
		assert.Equal(t, nextID, d.NextTimeslotID)
		assert.Equal(t, saw, d.SAW)
		assert.Equal(t, hopIdx, d.HopIndex)
		if cfg.RDOEnabled {
			assert.Equal(t, rdo, d.RDO)
		}
		assert.Equal(t, payloadLen == 0, d.IsBeacon)
	})
}
