//go:build linux

package bsp

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

/*
PeriphSPI implements GPIORadioHAL's SPIDevice capability over
periph.io/x/conn, grounded on michcald-nrf24's adapter-periph.go — the
same host.Init/spireg.Open/p.Connect sequence that package uses to reach
an nRF24L01 over /dev/spidevN.M, generalized here to whatever transceiver
GPIORadioHAL is driving.
*/
type PeriphSPI struct {
	port spi.PortCloser
	conn spi.Conn
}

// PeriphSPIConfig names the SPI bus device and clock rate.
type PeriphSPIConfig struct {
	BusPath  string // e.g. "/dev/spidev0.0"; empty uses periph's default bus
	ClockHz  int    // defaults to 1 MHz
}

// NewPeriphSPI opens busPath in SPI mode 0 at 8 bits per word, matching
// adapter-periph.go's New.
func NewPeriphSPI(cfg PeriphSPIConfig) (*PeriphSPI, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("bsp: init periph host: %w", err)
	}

	port, err := spireg.Open(cfg.BusPath)
	if err != nil {
		return nil, fmt.Errorf("bsp: open spi port %s: %w", cfg.BusPath, err)
	}

	clockHz := cfg.ClockHz
	if clockHz == 0 {
		clockHz = 1_000_000
	}
	conn, err := port.Connect(physic.Frequency(clockHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("bsp: connect spi: %w", err)
	}

	return &PeriphSPI{port: port, conn: conn}, nil
}

// Transfer implements GPIORadioHAL's SPIDevice interface.
func (s *PeriphSPI) Transfer(tx []byte) ([]byte, error) {
	rx := make([]byte, len(tx))
	if err := s.conn.Tx(tx, rx); err != nil {
		return nil, fmt.Errorf("bsp: spi transfer: %w", err)
	}
	return rx, nil
}

// Close releases the underlying SPI port.
func (s *PeriphSPI) Close() error { return s.port.Close() }
