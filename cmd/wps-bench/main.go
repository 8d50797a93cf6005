// Command wps-bench runs a Coordinator and a Node end to end inside one
// process over bsp.SimRadioPair, with no hardware required, and reports
// TX success/fail and RX received counters — a quick sanity bench for the stack, the same
// role gen_tone and tt2text play in the teacher as standalone exercisers
// of one slice of the engine rather than the full front-end binaries.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	wps "github.com/nimbuslace/tdmawps"
	"github.com/nimbuslace/tdmawps/bsp"
	"github.com/nimbuslace/tdmawps/internal/wpslog"
)

func main() {
	duration := pflag.Duration("duration", 5*time.Second, "how long to run the simulated exchange")
	payloadSize := pflag.Int("payload", 32, "bytes sent per frame by the node")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	pflag.Parse()

	logger := wpslog.New(os.Stderr, "bench", 0)
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	pair := bsp.NewSimRadioPair(0)
	clock := bsp.NewSimClock()

	const panID = 0x1234
	const coordAddr, nodeAddr wps.Address = 1, 2

	timeslots := []wps.TimeslotConfig{
		{DurationPLLCycles: 2000, ConnectionMain: 0, ConnectionAutoReply: -1},
	}

	coordBuf := make([]byte, 1<<16)
	coordFactory := wps.NewFactory(coordBuf, clock)
	coordNode, err := coordFactory.NewNode(wps.RoleCoordinator, panID, coordAddr, coordAddr, wps.SleepIdle, timeslots)
	must(logger, err, "coordinator new node")
	_, err = coordFactory.AddRadio(coordNode, wps.RadioConfig{NetworkID: 1}, pair.Leader())
	must(logger, err, "coordinator add radio")
	coordConn, err := coordFactory.NewConnection(coordNode, wps.ConnectionConfig{
		Source: nodeAddr, Destination: coordAddr,
		MaxPayloadSize: 256, QueueDepth: 4,
		Flags: wps.ConnectionFlags{Ack: true},
	})
	must(logger, err, "coordinator new connection")
	must(logger, coordFactory.AddChannel(coordConn, coordNode, wps.ChannelConfig{ID: 0}), "coordinator add channel")
	must(logger, coordFactory.Setup(coordNode, timeslots), "coordinator setup")

	nodeBuf := make([]byte, 1<<16)
	nodeFactory := wps.NewFactory(nodeBuf, clock)
	node, err := nodeFactory.NewNode(wps.RoleNode, panID, coordAddr, nodeAddr, wps.SleepIdle, timeslots)
	must(logger, err, "node new node")
	_, err = nodeFactory.AddRadio(node, wps.RadioConfig{NetworkID: 1}, pair.Follower())
	must(logger, err, "node add radio")
	nodeConn, err := nodeFactory.NewConnection(node, wps.ConnectionConfig{
		Source: nodeAddr, Destination: coordAddr,
		MaxPayloadSize: 256, QueueDepth: 4,
		Flags: wps.ConnectionFlags{Ack: true},
	})
	must(logger, err, "node new connection")
	must(logger, nodeFactory.AddChannel(nodeConn, node, wps.ChannelConfig{ID: 0}), "node add channel")
	must(logger, nodeFactory.Setup(node, timeslots), "node setup")

	must(logger, coordNode.Connect(), "coordinator connect")
	must(logger, node.Connect(), "node connect")

	stop := make(chan struct{})
	coordTick := make(chan time.Time)
	nodeTick := make(chan time.Time)
	go coordNode.RunSoftwareLoop(stop, coordTick)
	go node.RunSoftwareLoop(stop, nodeTick)

	payload := make([]byte, *payloadSize)
	done := time.After(*duration)
	sendTick := time.NewTicker(20 * time.Millisecond)
	defer sendTick.Stop()
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()

loop:
	for {
		select {
		case <-done:
			break loop
		case now := <-tick.C:
			clock.Advance(1)
			coordTick <- now
			nodeTick <- now
		case <-sendTick.C:
			if err := nodeConn.Send(payload); err != nil {
				logger.Debug("send backpressure", "err", err)
			}
		}
	}
	close(stop)

	logger.Info("bench complete",
		"node_tx_success", nodeConn.Stats.TxSuccess.Load(),
		"node_tx_fail", nodeConn.Stats.TxFail.Load(),
		"coord_rx_received", coordConn.Stats.RxReceived.Load(),
	)
	fmt.Printf("sent ok: %d, failed: %d, received: %d\n",
		nodeConn.Stats.TxSuccess.Load(), nodeConn.Stats.TxFail.Load(), coordConn.Stats.RxReceived.Load())
}

func must(logger *wpslog.Logger, err error, what string) {
	if err != nil {
		logger.Fatal(what, "err", err)
	}
}
