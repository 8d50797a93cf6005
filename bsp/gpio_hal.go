//go:build linux

package bsp

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

/*
GPIORadioHAL drives reset/CS/shutdown lines for a bench transceiver over
Linux's character-device GPIO ABI. The teacher (ptt.go) reaches the same
kind of output line through cgo calls into libgpiod; this backend uses the
pure-Go github.com/warthog618/go-gpiocdev package instead, so a RadioHAL
implementation never needs cgo.
*/
type GPIORadioHAL struct {
	spi SPIDevice

	resetLine    *gpiocdev.Line
	csLine       *gpiocdev.Line
	shutdownLine *gpiocdev.Line

	irqEnabled    bool
	dmaIRQEnabled bool
}

// SPIDevice is the minimal full-duplex transfer capability GPIORadioHAL
// needs from whatever SPI driver the board provides. PeriphSPI
// (spi_periph.go) implements it; callers can plug in any other spidev
// wrapper that does.
type SPIDevice interface {
	Transfer(tx []byte) (rx []byte, err error)
}

// GPIORadioHALConfig names the chip and line offsets to request.
type GPIORadioHALConfig struct {
	Chip             string
	ResetLineOffset  int
	CSLineOffset     int
	ShutdownOffset   int
}

// NewGPIORadioHAL requests the reset/CS/shutdown lines as outputs on cfg.Chip.
func NewGPIORadioHAL(cfg GPIORadioHALConfig, spi SPIDevice) (*GPIORadioHAL, error) {
	reset, err := gpiocdev.RequestLine(cfg.Chip, cfg.ResetLineOffset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("bsp: request reset line: %w", err)
	}

	cs, err := gpiocdev.RequestLine(cfg.Chip, cfg.CSLineOffset, gpiocdev.AsOutput(1))
	if err != nil {
		reset.Close()
		return nil, fmt.Errorf("bsp: request cs line: %w", err)
	}

	shutdown, err := gpiocdev.RequestLine(cfg.Chip, cfg.ShutdownOffset, gpiocdev.AsOutput(0))
	if err != nil {
		reset.Close()
		cs.Close()
		return nil, fmt.Errorf("bsp: request shutdown line: %w", err)
	}

	return &GPIORadioHAL{spi: spi, resetLine: reset, csLine: cs, shutdownLine: shutdown}, nil
}

func (h *GPIORadioHAL) ResetCS() { _ = h.csLine.SetValue(0) }
func (h *GPIORadioHAL) SetCS()   { _ = h.csLine.SetValue(1) }

func (h *GPIORadioHAL) TransferFullDuplexBlocking(tx []byte) ([]byte, error) {
	return h.spi.Transfer(tx)
}

func (h *GPIORadioHAL) TransferFullDuplexNonBlocking(tx []byte) <-chan RadioResult {
	done := make(chan RadioResult, 1)
	go func() {
		rx, err := h.spi.Transfer(tx)
		done <- RadioResult{RxBytes: rx, Err: err}
	}()
	return done
}

func (h *GPIORadioHAL) IsSPIBusy() bool { return false }

func (h *GPIORadioHAL) SetResetPin()      { _ = h.resetLine.SetValue(1) }
func (h *GPIORadioHAL) ResetResetPin()    { _ = h.resetLine.SetValue(0) }
func (h *GPIORadioHAL) SetShutdownPin()   { _ = h.shutdownLine.SetValue(1) }
func (h *GPIORadioHAL) ResetShutdownPin() { _ = h.shutdownLine.SetValue(0) }

func (h *GPIORadioHAL) DelayMS(ms uint32) { time.Sleep(time.Duration(ms) * time.Millisecond) }

func (h *GPIORadioHAL) EnableRadioIRQ()     { h.irqEnabled = true }
func (h *GPIORadioHAL) DisableRadioIRQ()    { h.irqEnabled = false }
func (h *GPIORadioHAL) EnableRadioDMAIRQ()  { h.dmaIRQEnabled = true }
func (h *GPIORadioHAL) DisableRadioDMAIRQ() { h.dmaIRQEnabled = false }

// ContextSwitch has no real softirq to trigger on a Linux userspace bench
// setup; callers instead drain the callback queue cooperatively, so this
// is a deliberate no-op rather than a busy loop.
func (h *GPIORadioHAL) ContextSwitch() {}

// Close releases the GPIO lines.
func (h *GPIORadioHAL) Close() error {
	h.resetLine.Close()
	h.csLine.Close()
	h.shutdownLine.Close()
	return nil
}
