package wps

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestChannelHopping_IncrementWraps(t *testing.T) {
	h := NewChannelHopping([]ChannelID{0, 1, 2, 3}, false, 1)
	h.IncrementSequence(3)
	assert.Equal(t, 3, h.SeqIndex())
	h.IncrementSequence(2)
	assert.Equal(t, 1, h.SeqIndex(), "index 3 + 2 wraps past length 4 to 1")
}

func TestChannelHopping_SameNetworkIDProducesSamePermutation(t *testing.T) {
	seq := []ChannelID{5, 9, 2, 7, 9, 5}
	a := NewChannelHopping(seq, true, 42)
	b := NewChannelHopping(seq, true, 42)

	for _, ch := range []ChannelID{5, 9, 2, 7} {
		a.SetSeqIndex(indexOf(seq, ch))
		b.SetSeqIndex(indexOf(seq, ch))
		assert.Equal(t, a.Channel(), b.Channel(), "two nodes with the same network id must derive an identical permutation")
	}
}

func indexOf(seq []ChannelID, ch ChannelID) int {
	for i, c := range seq {
		if c == ch {
			return i
		}
	}
	return 0
}

// TestChannelHopping_PermutationIsABijection checks spec.md §8's bijection
// invariant: the permutation table never maps two distinct input channels
// to the same output channel.
func TestChannelHopping_PermutationIsABijection(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 16).Draw(t, "n")
		networkID := rapid.Uint32().Draw(t, "networkID")

		seq := make([]ChannelID, n)
		for i := range seq {
			seq[i] = ChannelID(i)
		}

		h := NewChannelHopping(seq, true, networkID)

		seen := make(map[ChannelID]bool, n)
		out := make([]int, 0, n)
		for i := 0; i < n; i++ {
			h.SetSeqIndex(i)
			ch := h.Channel()
			assert.False(t, seen[ch], "channel %d produced by more than one input index", ch)
			seen[ch] = true
			out = append(out, int(ch))
		}

		sort.Ints(out)
		for i, v := range out {
			assert.Equal(t, i, v, "permutation of a contiguous 0..n-1 sequence must itself cover 0..n-1")
		}
	})
}
