package wps

import "math/rand"

/*
ChannelHopping maintains the hop sequence index and the permutation table
that maps a nominal channel id to the one actually used on air (spec.md
§4.5), grounded directly on the original link_channel_hopping module: the
set of unique channels named by a ChannelSequence is optionally shuffled
using NetworkID as a seed, and two nodes configured with the same
NetworkID derive an identical permutation independently.
*/
type ChannelHopping struct {
	sequence []ChannelID // the configured, possibly repeating, hop sequence
	lookup   [256]ChannelID
	hopIndex int
}

// NewChannelHopping builds the permutation table for sequence. When
// shuffle is true, the unique channels are permuted using networkID as a
// deterministic seed; otherwise the lookup table is the identity mapping.
func NewChannelHopping(sequence []ChannelID, shuffle bool, networkID uint32) *ChannelHopping {
	h := &ChannelHopping{sequence: sequence}

	unique := uniqueChannels(sequence)

	var permuted []ChannelID
	if shuffle {
		permuted = randomPermutation(unique, networkID)
	} else {
		permuted = append([]ChannelID(nil), unique...)
	}

	for i, ch := range unique {
		h.lookup[ch] = permuted[i]
	}

	return h
}

func uniqueChannels(sequence []ChannelID) []ChannelID {
	seen := make(map[ChannelID]bool)
	var unique []ChannelID
	for _, ch := range sequence {
		if !seen[ch] {
			seen[ch] = true
			unique = append(unique, ch)
		}
	}
	return unique
}

// randomPermutation deterministically shuffles in, seeded by networkID, so
// that any two callers with the same networkID and the same input set
// produce the same output order (the bijection property tested in
// spec.md §8).
func randomPermutation(in []ChannelID, networkID uint32) []ChannelID {
	src := rand.New(rand.NewSource(int64(networkID)))
	remaining := append([]ChannelID(nil), in...)
	out := make([]ChannelID, 0, len(in))

	for len(remaining) > 0 {
		i := src.Intn(len(remaining))
		out = append(out, remaining[i])
		remaining = append(remaining[:i], remaining[i+1:]...)
	}

	return out
}

// IncrementSequence advances the hop index by increment slots, wrapping at
// the sequence length, matching the scheduler's per-call advance count.
func (h *ChannelHopping) IncrementSequence(increment int) {
	n := len(h.sequence)
	if n == 0 {
		return
	}
	h.hopIndex = (h.hopIndex + increment) % n
}

// SetSeqIndex forces the hop index, used when the header codec decodes an
// inbound hop index to resynchronize a receiver.
func (h *ChannelHopping) SetSeqIndex(i int) { h.hopIndex = i % len(h.sequence) }

// SeqIndex returns the current hop sequence index.
func (h *ChannelHopping) SeqIndex() int { return h.hopIndex }

// Channel returns the on-air channel for the current hop index, after
// applying the permutation table.
func (h *ChannelHopping) Channel() ChannelID {
	return h.lookup[h.sequence[h.hopIndex]]
}
