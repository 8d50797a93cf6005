package bsp

import (
	"fmt"
	"time"

	"github.com/pkg/term"
)

/*
UARTRadioHAL drives a serial-attached transceiver's full-duplex byte
stream over github.com/pkg/term, grounded on the teacher's
serial_port.go (serial_port_open), which opens the device with
term.Open/term.RawMode and sets speed with fd.SetSpeed. Reset/CS/shutdown
lines have no UART equivalent, so those methods are no-ops here — a
serial radio is expected to self-reset on power-up rather than via GPIO,
unlike GPIORadioHAL's SPI-attached transceiver.
*/
type UARTRadioHAL struct {
	port *term.Term

	irqEnabled    bool
	dmaIRQEnabled bool
}

// UARTRadioHALConfig names the device and line speed.
type UARTRadioHALConfig struct {
	Device string
	BaudRate int // 0 leaves the port's current speed alone
}

// NewUARTRadioHAL opens cfg.Device in raw mode, mirroring serial_port_open.
func NewUARTRadioHAL(cfg UARTRadioHALConfig) (*UARTRadioHAL, error) {
	fd, err := term.Open(cfg.Device, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("bsp: open serial port %s: %w", cfg.Device, err)
	}

	switch cfg.BaudRate {
	case 0:
	case 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200:
		if err := fd.SetSpeed(cfg.BaudRate); err != nil {
			fd.Close()
			return nil, fmt.Errorf("bsp: set serial speed %d: %w", cfg.BaudRate, err)
		}
	default:
		return nil, fmt.Errorf("bsp: unsupported serial speed %d", cfg.BaudRate)
	}

	return &UARTRadioHAL{port: fd}, nil
}

func (h *UARTRadioHAL) ResetCS() {}
func (h *UARTRadioHAL) SetCS()   {}

// TransferFullDuplexBlocking writes tx and reads back len(tx) bytes, the
// UART analogue of a SPI shift register transfer: the PHY adapter always
// knows how many bytes a command response should be.
func (h *UARTRadioHAL) TransferFullDuplexBlocking(tx []byte) ([]byte, error) {
	if _, err := h.port.Write(tx); err != nil {
		return nil, fmt.Errorf("bsp: serial write: %w", err)
	}
	rx := make([]byte, len(tx))
	if _, err := h.port.Read(rx); err != nil {
		return nil, fmt.Errorf("bsp: serial read: %w", err)
	}
	return rx, nil
}

func (h *UARTRadioHAL) TransferFullDuplexNonBlocking(tx []byte) <-chan RadioResult {
	done := make(chan RadioResult, 1)
	go func() {
		rx, err := h.TransferFullDuplexBlocking(tx)
		done <- RadioResult{RxBytes: rx, Err: err}
	}()
	return done
}

func (h *UARTRadioHAL) IsSPIBusy() bool { return false }

func (h *UARTRadioHAL) SetResetPin()     {}
func (h *UARTRadioHAL) ResetResetPin()   {}
func (h *UARTRadioHAL) SetShutdownPin()  {}
func (h *UARTRadioHAL) ResetShutdownPin() {}

func (h *UARTRadioHAL) DelayMS(ms uint32) { time.Sleep(time.Duration(ms) * time.Millisecond) }

func (h *UARTRadioHAL) EnableRadioIRQ()     { h.irqEnabled = true }
func (h *UARTRadioHAL) DisableRadioIRQ()    { h.irqEnabled = false }
func (h *UARTRadioHAL) EnableRadioDMAIRQ()  { h.dmaIRQEnabled = true }
func (h *UARTRadioHAL) DisableRadioDMAIRQ() { h.dmaIRQEnabled = false }

func (h *UARTRadioHAL) ContextSwitch() {}

// Close releases the serial port.
func (h *UARTRadioHAL) Close() error { return h.port.Close() }
