package wps

import (
	"fmt"

	"github.com/nimbuslace/tdmawps/bsp"
)

/*
Factory assembles a Node's entire graph, following the call ordering
spec.md §6.2 fixes: NewNode, one or two AddRadio calls, NewConnection +
AddChannel (repeated per channel) + SetCallbacks per connection, then Setup
last. The Node, Schedule, timeslot array, Radios, Connections, XL frames
and their byte buffers are carved from the same Pool (spec.md §4.1). The
per-connection state objects (ARQ, CCA, fallback, RDO, header codec, gain,
LQI, hopping), the scheduler, tdma_sync, MAC, the Node's request channel
and callback queue, and the Factory's own channel map are ordinary heap
allocations. Grounded on
the teacher's audio_config/new_config construction in config.go, which
builds its whole device graph through a sequence of ordered setter calls
before a final validation pass.
*/
type Factory struct {
	pool  *Pool
	timer bsp.Timer

	channelSeq map[*Connection][]ChannelID
}

// NewFactory wraps buf as the pool every Node/Radio/Connection in the
// graph is allocated from. buf's backing array must outlive every value
// the factory returns.
func NewFactory(buf []byte, timer bsp.Timer) *Factory {
	return &Factory{pool: NewPool(buf), timer: timer, channelSeq: make(map[*Connection][]ChannelID)}
}

// AllocatedBytes reports how much of the pool has been used so far
// (spec.md §6.2 get_allocated_bytes).
func (f *Factory) AllocatedBytes() int { return f.pool.AllocatedBytes() }

// FreeMemory rewinds the pool, invalidating the whole graph (spec.md §6.2
// free_memory). Only safe to call once every Node built from this
// Factory has been disconnected.
func (f *Factory) FreeMemory() { f.pool.Reset() }

// NewNode allocates a Node, its Schedule, and its Scheduler (spec.md §6.2
// node_init). timeslots fixes the superframe's slot count and per-slot
// duration; slot-to-connection wiring happens later, in Setup.
func (f *Factory) NewNode(role Role, panID uint16, coordAddr, localAddr Address, sleepLevel SleepLevel, timeslots []TimeslotConfig) (*Node, error) {
	node, err := poolAlloc[Node](f.pool)
	if err != nil {
		return nil, err
	}

	schedule, err := poolAlloc[Schedule](f.pool)
	if err != nil {
		return nil, err
	}
	slots, err := poolAllocSlice[Timeslot](f.pool, len(timeslots))
	if err != nil {
		return nil, err
	}
	for i, ts := range timeslots {
		slots[i].DurationPLLCycles = ts.DurationPLLCycles
	}
	schedule.Timeslots = slots

	*node = Node{
		Role:             role,
		PanID:            panID,
		LocalAddress:     localAddr,
		CoordAddress:     coordAddr,
		SleepLevel:       sleepLevel,
		Schedule:         schedule,
		pool:             f.pool,
		throttleRequests: make(chan throttleRequest, 8),
		callbacks:        newCallbackQueue(64),
	}
	node.scheduler = NewScheduler(schedule, localAddr)

	return node, nil
}

// AddRadio allocates a Radio bound to hal, and — the first time it is
// called for a Node role — sizes tdma_sync from the radio's timing
// parameters (spec.md §6.2 node_add_radio, §4.6). Call once for a
// single-radio Node, twice for a diversity Node.
func (f *Factory) AddRadio(node *Node, cfg RadioConfig, hal bsp.RadioHAL) (*Radio, error) {
	if len(node.Radios) >= 2 {
		return nil, ErrTooManyRadios
	}

	radio, err := poolAlloc[Radio](f.pool)
	if err != nil {
		return nil, err
	}

	*radio = Radio{ID: len(node.Radios), Config: cfg, PHY: NewPHYAdapter(hal, f.timer, 0)}
	node.Radios = append(node.Radios, radio)

	if node.Role == RoleNode && node.sync == nil {
		node.sync = NewTDMASync(node.SleepLevel, cfg.SetupTimePLL, cfg.FrameLostMax,
			cfg.SyncwordBits, cfg.PreambleBits, cfg.PLLStartupXtal)
	}

	return radio, nil
}

// NewConnection allocates a Connection and its XL frames from the Pool and
// builds every piece of per-connection runtime state cfg enables — queue,
// ARQ, CCA, fallback, RDO, header codec, gain loop, LQI table (spec.md §6.2
// connection_init, §4.1's frame-size formula).
func (f *Factory) NewConnection(node *Node, cfg ConnectionConfig) (*Connection, error) {
	if cfg.Flags.ARQ && !cfg.Flags.Ack {
		return nil, ErrAckDisabled
	}

	conn, err := poolAlloc[Connection](f.pool)
	if err != nil {
		return nil, err
	}

	var rdoRollover uint16
	if len(node.Radios) > 0 {
		rdoRollover = node.Radios[0].Config.RDORollover
	}

	rdoFieldBytes := 1
	if rdoRollover > 256 {
		rdoFieldBytes = 2
	}
	header := NewHeaderCodec(HeaderConfig{RDOEnabled: cfg.Flags.RDO, RDOFieldBytes: rdoFieldBytes})
	headerSize := header.MainSlotSize()
	payloadSize := cfg.MaxPayloadSize
	if cfg.Flags.FixedPayloadSize {
		payloadSize = cfg.FixedPayloadSize
	}
	frameSize := headerSize + payloadSize

	queueDepth := cfg.QueueDepth
	if queueDepth <= 0 {
		queueDepth = 1
	}
	frames, err := poolAllocSlice[XLFrame](f.pool, queueDepth)
	if err != nil {
		return nil, err
	}
	for i := range frames {
		if err := f.attachFrameMemory(&frames[i], frameSize, headerSize); err != nil {
			return nil, err
		}
	}

	emptyFrame, err := poolAlloc[XLFrame](f.pool)
	if err != nil {
		return nil, err
	}
	if err := f.attachFrameMemory(emptyFrame, headerSize, headerSize); err != nil {
		return nil, err
	}

	overrunFrame, err := poolAlloc[XLFrame](f.pool)
	if err != nil {
		return nil, err
	}
	if err := f.attachFrameMemory(overrunFrame, frameSize, headerSize); err != nil {
		return nil, err
	}

	localIsDestination := cfg.Destination == node.LocalAddress

	*conn = Connection{
		ID:           len(node.Connections),
		Config:       cfg,
		isSource:     cfg.Source == node.LocalAddress,
		queue:        newXLQueue(frames),
		frames:       frames,
		headerSize:   headerSize,
		emptyFrame:   emptyFrame,
		overrunFrame: overrunFrame,
		ARQ:          NewARQState(cfg.ARQ, cfg.Flags.ARQ, localIsDestination),
		CCA:          NewCCAState(cfg.CCA),
		Fallback:     NewFallbackTable(cfg.Fallback),
		RDO:          NewRDOState(cfg.Flags.RDO, rdoRollover),
		Header:       header,
		LQI:          &LQI{},
		Gain:         NewGainLoop(0, 0, 0),
	}

	if cfg.Flags.Throttling {
		conn.SetThrottlingActiveRatio(100)
	}

	node.Connections = append(node.Connections, conn)
	return conn, nil
}

func (f *Factory) attachFrameMemory(frame *XLFrame, capacity, headerSize int) error {
	mem, err := poolAllocSlice[byte](f.pool, capacity)
	if err != nil {
		return err
	}
	frame.Header.Memory = mem
	frame.Header.Capacity = capacity
	frame.Payload.Memory = mem
	frame.Payload.Capacity = capacity
	frame.Reset(headerSize)
	return nil
}

// AddChannel appends ch to conn's hop sequence and rebuilds its
// ChannelHopping permutation from the accumulated sequence and the first
// radio's NetworkID (spec.md §6.2 connection_add_channel, §4.5). Call
// once per channel, in sequence order.
func (f *Factory) AddChannel(conn *Connection, node *Node, ch ChannelConfig) error {
	if len(node.Radios) == 0 {
		return ErrNoRadios
	}

	f.channelSeq[conn] = append(f.channelSeq[conn], ch.ID)
	conn.Hopping = NewChannelHopping(f.channelSeq[conn], true, node.Radios[0].Config.NetworkID)
	return nil
}

// SetCallbacks wires conn's user closures (spec.md §6.2
// connection_set_{tx_success|tx_fail|tx_dropped|rx_success}_callback).
func (f *Factory) SetCallbacks(conn *Connection, cb CallbackSet) {
	conn.Callbacks = cb
}

// Setup must be the last factory call for node (spec.md §6.2). It wires
// each configured timeslot to its main/auto-reply Connection, builds the
// Node's phyDriver (a lone PHYAdapter or a MultiRadioArbiter) and its MAC,
// and validates that every connection referenced by slotAssignments was
// actually created through this Factory.
func (f *Factory) Setup(node *Node, slotAssignments []TimeslotConfig) error {
	if len(slotAssignments) != len(node.Schedule.Timeslots) {
		return ErrScheduleMismatch
	}

	for i, ts := range slotAssignments {
		for _, idx := range []int{ts.ConnectionMain, ts.ConnectionAutoReply} {
			if idx < noConnection || idx >= len(node.Connections) {
				return fmt.Errorf("wps: timeslot %d refers to connection %d, which was not created: %w", i, idx, ErrScheduleMismatch)
			}
		}
		if ts.ConnectionMain != noConnection {
			node.Schedule.Timeslots[i].ConnectionMain = node.Connections[ts.ConnectionMain]
		}
		if ts.ConnectionAutoReply != noConnection {
			node.Schedule.Timeslots[i].ConnectionAutoReply = node.Connections[ts.ConnectionAutoReply]
		}
	}

	var phy phyDriver
	switch len(node.Radios) {
	case 0:
		return ErrNoRadios
	case 1:
		phy = node.Radios[0].PHY
	case 2:
		node.arbiter = NewMultiRadioArbiter(node.Radios[0].PHY, node.Radios[1].PHY)
		phy = node.arbiter
	}

	node.mac = NewMAC(node, phy, f.timer)
	return nil
}
