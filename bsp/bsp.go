// Package bsp defines the small board-support capability set the stack
// calls into (spec.md §6.1), and ships a handful of concrete backends:
// a GPIO-driven backend for a bench transceiver (gpio_hal.go), a
// Hamlib-controlled rig backend for bench harnesses (hamlib_hal.go), a
// Linux monotonic clock (clock_linux.go), and an in-memory simulated
// radio pair for tests and demos (simradio.go).
package bsp

// RadioResult is what a non-blocking SPI transfer eventually delivers.
type RadioResult struct {
	RxBytes []byte
	Err     error
}

/*
RadioHAL is the capability set the PHY adapter (phy.go in the root
package) drives one radio through (spec.md §6.1). It deliberately has no
knowledge of TDMA, timeslots, or frames — it is the opaque, per-transceiver
command surface described in spec.md §1's "Explicit non-goals".
*/
type RadioHAL interface {
	ResetCS()
	SetCS()

	TransferFullDuplexBlocking(tx []byte) ([]byte, error)
	TransferFullDuplexNonBlocking(tx []byte) <-chan RadioResult
	IsSPIBusy() bool

	SetResetPin()
	ResetResetPin()
	SetShutdownPin()
	ResetShutdownPin()

	DelayMS(ms uint32)

	EnableRadioIRQ()
	DisableRadioIRQ()
	EnableRadioDMAIRQ()
	DisableRadioDMAIRQ()

	// ContextSwitch triggers the callback-context softirq (spec.md §5).
	ContextSwitch()
}

// Timer is the monotonic tick source backing get_tick_quarter_ms
// (spec.md §6.1). Implementations must be rollover-safe.
type Timer interface {
	GetTickQuarterMS() uint64
}

// PeriodicTimer is the dual-radio-only BSP capability used to resynchronize
// a follower radio's timer to the leader's (spec.md §4.9, §6.1).
type PeriodicTimer interface {
	Start()
	Stop()
	SetPeriod(ns uint64)
}
