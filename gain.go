package wps

// MaxChannels bounds the per-channel arrays owned by a Connection (gain
// loop, LQI), mirroring the original's fixed WPS_NB_RF_CHANNEL sizing for
// an embedded target with no dynamic allocation at runtime.
const MaxChannels = 16

// GainLoop is the per-channel RX gain tracker of spec.md C2. The original
// link_gain_loop module was not part of the retained source set; this
// reconstructs its externally observable behavior from wps_def.h's
// `gain_loop_t gain_loop[channel][radio]` field and spec.md's one-line
// description: track a gain index per channel, nudged by observed RSSI.
type GainLoop struct {
	index    [MaxChannels]int
	minIndex int
	maxIndex int
	target   int // desired RSSI, same units as the radio reports
}

// NewGainLoop creates a tracker clamped to [minIndex, maxIndex] nudging
// toward the given target RSSI.
func NewGainLoop(minIndex, maxIndex, targetRSSI int) *GainLoop {
	return &GainLoop{minIndex: minIndex, maxIndex: maxIndex, target: targetRSSI}
}

// Index returns the current gain index for a channel.
func (g *GainLoop) Index(ch ChannelID) int {
	return g.index[ch]
}

// Update adjusts a channel's gain index by one step toward the target RSSI
// after an RX outcome; called from state_link_quality (mac_states.go) once per
// received or missed frame.
func (g *GainLoop) Update(ch ChannelID, rssi int) {
	switch {
	case rssi > g.target && g.index[ch] > g.minIndex:
		g.index[ch]--
	case rssi < g.target && g.index[ch] < g.maxIndex:
		g.index[ch]++
	}
}

// Reset returns every channel's gain index to the minimum, used on
// fast-sync re-acquisition (state_setup_primary_link, mac.go) so the
// receiver starts from maximum sensitivity while hunting for the peer.
func (g *GainLoop) Reset() {
	for i := range g.index {
		g.index[i] = g.minIndex
	}
}
