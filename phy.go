package wps

import (
	"time"

	"github.com/nimbuslace/tdmawps/bsp"
)

// PHY command bytes select an operation on the opaque SPI register
// protocol spec.md §6.1 describes as "radio_hal": a leading command byte,
// followed by a channel or burst payload. RadioHAL itself stays ignorant
// of TDMA; PHYAdapter is what actually speaks this convention to it,
// grounded on the teacher's multi_modem.go, the layer that sits between
// MAC-level framing and a swappable modem backend.
const (
	phyCmdCCASense   byte = 0x01
	phyCmdSetChannel byte = 0x02
	phyCmdSetGain    byte = 0x03
	phyCmdTX         byte = 0x10
	phyCmdRX         byte = 0x11
)

/*
PHYAdapter is the L1 layer a Node's MAC drives through RadioHAL (spec.md
§6.1), translating one timeslot's fully-populated XLFrame into the CCA
sense, TX, and RX register transactions a real transceiver's SPI command
set would expose. cycleDuration is a host-simulation nominal period for one
PLL cycle, used only to turn an XLFrame's PLLCycles timeout into a
wall-clock deadline on platforms (like the bench/sim backends) that have no
real PLL to derive it from.
*/
type PHYAdapter struct {
	hal           bsp.RadioHAL
	timer         bsp.Timer
	cycleDuration time.Duration
}

// NewPHYAdapter attaches a PHYAdapter to a concrete RadioHAL/Timer pair.
func NewPHYAdapter(hal bsp.RadioHAL, timer bsp.Timer, cycleDuration time.Duration) *PHYAdapter {
	return &PHYAdapter{hal: hal, timer: timer, cycleDuration: cycleDuration}
}

// SenseChannel performs one CCA energy-sense transaction for ch, returning
// whether the measured energy is below thresholdDB.
func (p *PHYAdapter) SenseChannel(ch ChannelID, thresholdDB int) bool {
	p.hal.SetCS()
	defer p.hal.ResetCS()

	rx, err := p.hal.TransferFullDuplexBlocking([]byte{phyCmdCCASense, byte(ch)})
	if err != nil || len(rx) < 2 {
		return false
	}
	energyDB := int(rx[1])
	return energyDB < thresholdDB
}

// Transmit runs CCA (when frame.CCA.TryCount > 0) then sends frame's
// header+payload bytes, waiting for an ACK if frame.ExpectAck is set.
func (p *PHYAdapter) Transmit(frame *XLFrame, cca *CCAState) FrameOutcome {
	if cca != nil && frame.CCA.TryCount > 0 {
		cca.Reset()
		for {
			clear := p.SenseChannel(frame.Channel, frame.CCA.ThresholdDB)
			retry, proceed := cca.Sense(clear)
			if retry {
				p.hal.DelayMS(uint32(frame.CCA.RetryTime))
				continue
			}
			if !proceed {
				return OutcomeLost
			}
			break
		}
	}

	p.hal.SetCS()
	defer p.hal.ResetCS()

	burst := make([]byte, 0, 2+frame.Header.Len()+frame.Payload.Len())
	burst = append(burst, phyCmdTX, byte(frame.Channel))
	burst = append(burst, frame.Header.Bytes()...)
	burst = append(burst, frame.Payload.Bytes()...)

	if _, err := p.hal.TransferFullDuplexBlocking(burst); err != nil {
		return OutcomeLost
	}
	if !frame.ExpectAck {
		return OutcomeSentAck
	}

	ackRx, err := p.hal.TransferFullDuplexBlocking([]byte{phyCmdRX, byte(frame.Channel)})
	if err != nil || len(ackRx) == 0 || ackRx[0] == 0 {
		return OutcomeSentAckLost
	}
	return OutcomeSentAck
}

// Receive waits up to frame.RxTimeout PLL cycles for an inbound burst,
// copying whatever arrives into frame's payload window in place. When
// RxTimeout times cycleDuration is zero (as for the cycleDuration of 0 that
// Factory.AddRadio passes), it waits one second instead. The
// returned int32 pair is the RSSI/RNSI the link-quality state reads
// (state_link_quality, mac_states.go); the protocol's first received byte
// doubles as a coarse signal-level reading.
func (p *PHYAdapter) Receive(frame *XLFrame) (outcome FrameOutcome, rssiTenth, rnsiTenth int32) {
	p.hal.SetCS()
	defer p.hal.ResetCS()

	done := p.hal.TransferFullDuplexNonBlocking([]byte{phyCmdRX, byte(frame.Channel)})
	timeout := time.Duration(frame.RxTimeout) * p.cycleDuration
	if timeout <= 0 {
		timeout = time.Second
	}

	select {
	case res := <-done:
		if res.Err != nil || len(res.RxBytes) == 0 {
			return OutcomeLost, 0, 0
		}
		n := copy(frame.Payload.Memory[frame.Payload.Begin:frame.Payload.Capacity], res.RxBytes)
		frame.Payload.End = frame.Payload.Begin + n
		level := int32(res.RxBytes[0])
		return OutcomeReceived, level, level
	case <-time.After(timeout):
		return OutcomeLost, 0, 0
	}
}
