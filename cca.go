package wps

/*
CCAState drives energy-sense-before-transmit (spec.md C1), grounded on the
link_cca_t fields consumed by link_tdma_sync.c (enable, max_try_count,
retry_time_pll_cycles): try up to TryCount times, waiting RetryTime between
tries, and either abort the slot or transmit anyway once retries are
exhausted, depending on FailAction.
*/
type CCAState struct {
	cfg CCAConfig

	attempt  int
	failures uint32
}

func NewCCAState(cfg CCAConfig) *CCAState {
	return &CCAState{cfg: cfg}
}

// Reset prepares the state for a new slot's CCA attempts.
func (c *CCAState) Reset() { c.attempt = 0 }

// Sense records the outcome of one energy-sense reading. clear reports
// whether the channel was below cfg.ThresholdDB. It returns whether the
// caller should retry (another sense before transmitting), and, once no
// more retries remain, whether transmission should proceed anyway.
func (c *CCAState) Sense(clear bool) (retry bool, proceed bool) {
	if clear {
		return false, true
	}

	c.attempt++
	if c.attempt < c.cfg.TryCount {
		return true, false
	}

	c.failures++
	return false, c.cfg.FailAction == CCAFailTransmitAnyway
}

// FailureCount returns the number of slots where CCA exhausted its retries
// without a clear channel.
func (c *CCAState) FailureCount() uint32 { return c.failures }
