package wps

/*
HeaderCodec assembles and parses the per-slot control header of spec.md
§4.10/§6.4: a connection-specific list of enabled sub-protocols, each
contributing a fixed number of bytes, concatenated in a fixed order.
Encoding prepends into the frame's header window (growing it leftward);
decoding consumes from the front of that window (shrinking it rightward).
Parsing stops once the header window is exhausted, which happens exactly
when the frame carries no payload — an auto-sync beacon.
*/
type HeaderCodec struct {
	cfg HeaderConfig
}

// HeaderConfig selects which sub-protocols a connection's header carries.
// RDOFieldBytes defaults to 1 (sufficient for any Rollover <= 256); set it
// to 2 for a larger rollover.
type HeaderConfig struct {
	RDOEnabled          bool
	RDOFieldBytes       int
	RangingCountEnabled bool // ranging phase-count accumulator (no provider wired in this package; see DESIGN.md)
	RangingPhases       bool // ranging phase samples (no provider wired in this package; see DESIGN.md)
}

func NewHeaderCodec(cfg HeaderConfig) *HeaderCodec {
	if cfg.RDOFieldBytes == 0 {
		cfg.RDOFieldBytes = 1
	}
	return &HeaderCodec{cfg: cfg}
}

// MainSlotSize returns the header size, in bytes, for a main (non
// auto-reply) slot: timeslot-id+SAW and channel-hop are only ever present
// on main slots.
func (h *HeaderCodec) MainSlotSize() int {
	return 1 /* timeslot_id+SAW */ + 1 /* channel_hop */ + h.optionalSize()
}

// AutoReplySlotSize returns the header size for an auto-reply slot, which
// omits the timeslot-id/SAW and channel-hop fields (spec.md §6.4).
func (h *HeaderCodec) AutoReplySlotSize() int {
	return h.optionalSize()
}

func (h *HeaderCodec) optionalSize() int {
	size := 0
	if h.cfg.RDOEnabled {
		size += h.cfg.RDOFieldBytes
	}
	if h.cfg.RangingCountEnabled && !h.cfg.RangingPhases {
		size++
	}
	if h.cfg.RangingPhases {
		size += 1 + 4
	}
	return size
}

// EncodeMain writes a main slot's header into f, prepending fields in
// §6.4's order: timeslot-id+SAW, channel-hop, then the optional fields.
func (h *HeaderCodec) EncodeMain(f *XLFrame, nextTimeslotID uint8, saw bool, hopIndex uint8, rdo uint16, rangingPhaseCount uint8, rangingPhases [4]byte) bool {
	if !h.encodeOptional(f, rdo, rangingPhaseCount, rangingPhases) {
		return false
	}

	b, ok := f.Header.PrependHeader(1)
	if !ok {
		return false
	}
	b[0] = hopIndex

	b, ok = f.Header.PrependHeader(1)
	if !ok {
		return false
	}
	idByte := nextTimeslotID & 0x7f
	if saw {
		idByte |= 0x80
	}
	b[0] = idByte

	return true
}

// EncodeAutoReply writes an auto-reply slot's header, omitting the
// timeslot-id/SAW and channel-hop fields.
func (h *HeaderCodec) EncodeAutoReply(f *XLFrame, rdo uint16, rangingPhaseCount uint8, rangingPhases [4]byte) bool {
	return h.encodeOptional(f, rdo, rangingPhaseCount, rangingPhases)
}

func (h *HeaderCodec) encodeOptional(f *XLFrame, rdo uint16, rangingPhaseCount uint8, rangingPhases [4]byte) bool {
	if h.cfg.RangingPhases {
		b, ok := f.Header.PrependHeader(4)
		if !ok {
			return false
		}
		copy(b, rangingPhases[:])
		b, ok = f.Header.PrependHeader(1)
		if !ok {
			return false
		}
		b[0] = rangingPhaseCount
	}
	if h.cfg.RangingCountEnabled && !h.cfg.RangingPhases {
		b, ok := f.Header.PrependHeader(1)
		if !ok {
			return false
		}
		b[0] = rangingPhaseCount
	}
	if h.cfg.RDOEnabled {
		b, ok := f.Header.PrependHeader(h.cfg.RDOFieldBytes)
		if !ok {
			return false
		}
		putUint(b, rdo)
	}
	return true
}

func putUint(b []byte, v uint16) {
	for i := range b {
		b[i] = byte(v >> (8 * (len(b) - 1 - i)))
	}
}

func getUint(b []byte) uint16 {
	var v uint16
	for _, x := range b {
		v = v<<8 | uint16(x)
	}
	return v
}

// DecodedHeader is the result of parsing an inbound frame's header.
type DecodedHeader struct {
	IsMainSlot        bool
	NextTimeslotID    uint8
	SAW               bool
	HopIndex          uint8
	RDO               uint16
	RangingPhaseCount uint8
	RangingPhases     [4]byte
	IsBeacon          bool // true when there was no payload: an auto-sync beacon
}

// DecodeMain parses a main slot's header, consuming fields rightward in
// the same order they were prepended. Returns false if the frame is
// shorter than the main-slot header size.
func (h *HeaderCodec) DecodeMain(f *XLFrame) (DecodedHeader, bool) {
	var d DecodedHeader
	d.IsMainSlot = true

	b, ok := f.Header.ConsumeHeader(1)
	if !ok {
		return d, false
	}
	d.SAW = b[0]&0x80 != 0
	d.NextTimeslotID = b[0] & 0x7f

	b, ok = f.Header.ConsumeHeader(1)
	if !ok {
		return d, false
	}
	d.HopIndex = b[0]

	if !h.decodeOptional(f, &d) {
		return d, false
	}

	d.IsBeacon = f.Header.Begin == f.Payload.End
	return d, true
}

// DecodeAutoReply parses an auto-reply slot's header.
func (h *HeaderCodec) DecodeAutoReply(f *XLFrame) (DecodedHeader, bool) {
	var d DecodedHeader
	if !h.decodeOptional(f, &d) {
		return d, false
	}
	d.IsBeacon = f.Header.Begin == f.Payload.End
	return d, true
}

func (h *HeaderCodec) decodeOptional(f *XLFrame, d *DecodedHeader) bool {
	if h.cfg.RDOEnabled {
		b, ok := f.Header.ConsumeHeader(h.cfg.RDOFieldBytes)
		if !ok {
			return false
		}
		d.RDO = getUint(b)
	}
	if h.cfg.RangingCountEnabled && !h.cfg.RangingPhases {
		b, ok := f.Header.ConsumeHeader(1)
		if !ok {
			return false
		}
		d.RangingPhaseCount = b[0]
	}
	if h.cfg.RangingPhases {
		b, ok := f.Header.ConsumeHeader(1)
		if !ok {
			return false
		}
		d.RangingPhaseCount = b[0]
		b, ok = f.Header.ConsumeHeader(4)
		if !ok {
			return false
		}
		copy(d.RangingPhases[:], b)
	}
	return true
}
