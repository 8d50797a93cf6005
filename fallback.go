package wps

/*
FallbackTable selects an alternate power/channel profile by payload size
(spec.md C6), grounded on swc_api.h's fallback_settings: a threshold in
bytes plus signed deltas applied once the outbound payload reaches that
size. Entries are consulted in order; the last entry whose threshold the
payload size meets or exceeds wins, so a table should be given in
ascending threshold order.
*/
type FallbackTable struct {
	entries []FallbackEntry
}

func NewFallbackTable(entries []FallbackEntry) *FallbackTable {
	return &FallbackTable{entries: entries}
}

// FallbackProfile is the power/channel adjustment selected for a given
// payload size.
type FallbackProfile struct {
	PowerDelta   int
	ChannelDelta int
}

// Select returns the profile for payloadSize, or the zero profile (no
// adjustment) if no entry's threshold is met.
func (f *FallbackTable) Select(payloadSize int) FallbackProfile {
	var chosen FallbackProfile
	for _, e := range f.entries {
		if payloadSize >= e.ThresholdBytes {
			chosen = FallbackProfile{PowerDelta: e.PowerDelta, ChannelDelta: e.ChannelDelta}
		}
	}
	return chosen
}

// LinkMargin reports the headroom, in the same signed-delta units as the
// table, between the profile currently selected for size and its
// shallowest (always-applies) entry — the value surfaced by
// connection_get_fallback_info (spec.md §6.2).
func (f *FallbackTable) LinkMargin(payloadSize int) int {
	if len(f.entries) == 0 {
		return 0
	}
	return f.Select(payloadSize).PowerDelta - f.entries[0].PowerDelta
}
