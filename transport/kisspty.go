// Package transport bridges a wps.Connection's decoded payload stream to
// a local pseudo-terminal for host-side debugging tools, the same role
// kiss.go/kissserial.go play in the teacher — exposing a packet-radio
// engine's frames to KISS-speaking client software over a virtual serial
// device. kissserial.go opens a real or pseudo serial port and runs a
// dedicated listener goroutine that feeds bytes into a KISS frame
// decoder and a send_rec_packet callback; PTYBridge follows the same
// shape, substituted onto creack/pty's in-process pty allocation instead
// of a real tty, and onto a Connection's Send/Receive instead of a KISS
// frame parser.
package transport

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"time"

	"github.com/creack/pty"

	wps "github.com/nimbuslace/tdmawps"
)

// pollInterval throttles pumpFromRadio's busy-wait when the connection's
// RX queue is empty; a debug bridge has no IRQ to wake it.
const pollInterval = 5 * time.Millisecond

const (
	kissFEND  = 0xC0
	kissFESC  = 0xDB
	kissTFEND = 0xDC
	kissTFESC = 0xDD
)

// PTYBridge pumps one Connection's payloads through a pty's slave side,
// framed with the standard KISS FEND/FESC escaping (the same framing
// kissserial.go's kiss_rec_byte decodes on the way in).
type PTYBridge struct {
	conn   *wps.Connection
	master *os.File
	slaveName string

	stop chan struct{}
	done chan struct{}
}

// OpenKISSPTY allocates a pty and starts the two pump goroutines: one
// reading encoded frames from the pty master and calling conn.Send for
// each, one calling conn.Receive and writing KISS-encoded frames back to
// the pty master. SlaveName() reports the device path a client (e.g.
// kissutil, direwolf's own client tooling) should open.
func OpenKISSPTY(conn *wps.Connection) (*PTYBridge, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("transport: open pty: %w", err)
	}
	slave.Close() // the client reopens slave.Name(); we only need the path

	b := &PTYBridge{
		conn:      conn,
		master:    master,
		slaveName: slave.Name(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}, 2),
	}
	go b.pumpToRadio()
	go b.pumpFromRadio()
	return b, nil
}

// SlaveName is the pty device path a KISS client should open.
func (b *PTYBridge) SlaveName() string { return b.slaveName }

// Close stops both pump goroutines and releases the pty master.
func (b *PTYBridge) Close() error {
	close(b.stop)
	err := b.master.Close() // unblocks pumpToRadio's pending read
	<-b.done
	<-b.done
	return err
}

// pumpToRadio decodes KISS frames arriving on the pty master and sends
// each payload into the radio connection, mirroring kissserial_get's
// byte-at-a-time read loop feeding kiss_rec_byte.
func (b *PTYBridge) pumpToRadio() {
	defer func() { b.done <- struct{}{} }()

	r := bufio.NewReader(b.master)
	var frame []byte
	inFrame, escaped := false, false

	for {
		select {
		case <-b.stop:
			return
		default:
		}

		by, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return
			}
			continue
		}

		switch {
		case by == kissFEND:
			if inFrame && len(frame) > 1 {
				_ = b.conn.Send(frame[1:]) // frame[0] is the KISS command byte
			}
			frame = nil
			inFrame = true
			escaped = false
		case !inFrame:
			continue
		case escaped:
			switch by {
			case kissTFEND:
				frame = append(frame, kissFEND)
			case kissTFESC:
				frame = append(frame, kissFESC)
			}
			escaped = false
		case by == kissFESC:
			escaped = true
		default:
			frame = append(frame, by)
		}
	}
}

// pumpFromRadio polls the connection for received payloads and writes
// them out KISS-encoded, the send-side counterpart of pumpToRadio.
func (b *PTYBridge) pumpFromRadio() {
	defer func() { b.done <- struct{}{} }()

	for {
		select {
		case <-b.stop:
			return
		default:
		}

		payload, err := b.conn.Receive()
		if err != nil {
			time.Sleep(pollInterval)
			continue
		}
		if err := b.conn.ReceiveComplete(); err != nil {
			continue
		}
		if _, err := b.master.Write(encodeKISS(payload)); err != nil {
			return
		}
	}
}

func encodeKISS(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+4)
	out = append(out, kissFEND, 0x00) // command byte 0 = data frame, port 0
	for _, by := range payload {
		switch by {
		case kissFEND:
			out = append(out, kissFESC, kissTFEND)
		case kissFESC:
			out = append(out, kissFESC, kissTFESC)
		default:
			out = append(out, by)
		}
	}
	out = append(out, kissFEND)
	return out
}
