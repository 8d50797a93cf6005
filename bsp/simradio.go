package bsp

import (
	"sync"
	"time"
)

/*
SimRadioPair is an in-memory stand-in for two transceivers facing each
other over the air, used by demo binaries and tests that exercise a full
TDMA exchange without real hardware. It is grounded on heistp-scim's
sim.go, which drives simulated nodes through per-node channels rather than
real sockets; SimRadioPair keeps that channel-handoff shape but drops the
discrete-event clock, since this package's Timer abstraction already gives
callers a virtual or real time source independently.

NewSimRadioPair returns two RadioHAL-shaped ends; a TransferFullDuplex*
call on one end blocks (or resolves asynchronously) until matched by a
call on the other end, modeling a CCA-gated half-duplex link: whichever
side calls first waits for the peer, for up to one second, after which
the call returns no data and no error.
*/
type SimRadioPair struct {
	a, b *SimRadio
}

// NewSimRadioPair builds a connected pair of simulated radios, each
// optionally impaired by a fixed one-way propagation delay.
func NewSimRadioPair(propagationDelay time.Duration) *SimRadioPair {
	toA := make(chan []byte)
	toB := make(chan []byte)
	a := &SimRadio{tx: toB, rx: toA, delay: propagationDelay}
	b := &SimRadio{tx: toA, rx: toB, delay: propagationDelay}
	return &SimRadioPair{a: a, b: b}
}

// Leader returns the pair's first simulated radio (conventionally the
// coordinator side).
func (p *SimRadioPair) Leader() *SimRadio { return p.a }

// Follower returns the pair's second simulated radio.
func (p *SimRadioPair) Follower() *SimRadio { return p.b }

// SimRadio implements RadioHAL over a pair of Go channels standing in for
// a half-duplex SPI-attached transceiver's air interface.
type SimRadio struct {
	tx    chan<- []byte
	rx    <-chan []byte
	delay time.Duration

	mu            sync.Mutex
	shutdown      bool
	resetAsserted bool
	csAsserted    bool
	irqEnabled    bool
	dmaIRQEnabled bool
}

func (r *SimRadio) ResetCS() { r.mu.Lock(); r.csAsserted = false; r.mu.Unlock() }
func (r *SimRadio) SetCS()   { r.mu.Lock(); r.csAsserted = true; r.mu.Unlock() }

// TransferFullDuplexBlocking sends tx to the peer and returns whatever the
// peer most recently sent back, modeling the SPI full-duplex shift
// register: every transfer both emits and receives.
func (r *SimRadio) TransferFullDuplexBlocking(tx []byte) ([]byte, error) {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	select {
	case r.tx <- tx:
	default:
		go func() { r.tx <- tx }()
	}
	select {
	case rx := <-r.rx:
		return rx, nil
	case <-time.After(time.Second):
		return nil, nil
	}
}

func (r *SimRadio) TransferFullDuplexNonBlocking(tx []byte) <-chan RadioResult {
	done := make(chan RadioResult, 1)
	go func() {
		rx, err := r.TransferFullDuplexBlocking(tx)
		done <- RadioResult{RxBytes: rx, Err: err}
	}()
	return done
}

func (r *SimRadio) IsSPIBusy() bool { return false }

func (r *SimRadio) SetResetPin()   { r.mu.Lock(); r.resetAsserted = true; r.mu.Unlock() }
func (r *SimRadio) ResetResetPin() { r.mu.Lock(); r.resetAsserted = false; r.mu.Unlock() }
func (r *SimRadio) SetShutdownPin() {
	r.mu.Lock()
	r.shutdown = true
	r.mu.Unlock()
}
func (r *SimRadio) ResetShutdownPin() {
	r.mu.Lock()
	r.shutdown = false
	r.mu.Unlock()
}

func (r *SimRadio) DelayMS(ms uint32) { time.Sleep(time.Duration(ms) * time.Millisecond) }

func (r *SimRadio) EnableRadioIRQ()     { r.mu.Lock(); r.irqEnabled = true; r.mu.Unlock() }
func (r *SimRadio) DisableRadioIRQ()    { r.mu.Lock(); r.irqEnabled = false; r.mu.Unlock() }
func (r *SimRadio) EnableRadioDMAIRQ()  { r.mu.Lock(); r.dmaIRQEnabled = true; r.mu.Unlock() }
func (r *SimRadio) DisableRadioDMAIRQ() { r.mu.Lock(); r.dmaIRQEnabled = false; r.mu.Unlock() }

// ContextSwitch is synchronous in the simulator: there is no real softirq,
// so callers invoke the callback drain directly after this returns.
func (r *SimRadio) ContextSwitch() {}

// SimClock is a virtual Timer advancing only when Advance is called,
// letting tests drive the sync loop and scheduler deterministically instead
// of racing a wall clock.
type SimClock struct {
	mu   sync.Mutex
	tick uint64
}

// NewSimClock returns a SimClock starting at tick zero.
func NewSimClock() *SimClock { return &SimClock{} }

// Advance adds n quarter-milliseconds to the clock.
func (c *SimClock) Advance(n uint64) {
	c.mu.Lock()
	c.tick += n
	c.mu.Unlock()
}

func (c *SimClock) GetTickQuarterMS() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick
}
