// Package config parses a YAML description of a Node's radios,
// connections, channels, and superframe into the graph wps.Factory
// builds (spec.md §6.2), the same role the teacher's config.go plays in
// turning a text config file into its audio/channel/digipeater graph —
// reimagined here as a declarative TDMA superframe instead of
// direwolf's serial/audio-device option list.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nimbuslace/tdmawps/bsp"
	wps "github.com/nimbuslace/tdmawps"
)

// StackConfig is the root of the YAML document. Field names are the
// lower_snake_case keys a human editing the file would expect, matching
// the teacher's direwolf.conf keyword style.
type StackConfig struct {
	Role        string           `yaml:"role"`
	PanID       uint16           `yaml:"pan_id"`
	CoordAddr   uint16           `yaml:"coordinator_address"`
	LocalAddr   uint16           `yaml:"local_address"`
	SleepLevel  string           `yaml:"sleep_level"`
	Timeslots   []TimeslotConfig `yaml:"timeslots"`
	Radios      []RadioConfig    `yaml:"radios"`
	Connections []ConnectionConfig `yaml:"connections"`
}

// TimeslotConfig describes one superframe slot. ConnectionMain and
// ConnectionAutoReply are indices into Connections, left nil when a slot
// carries no connection — distinguishing "unset" from "connection 0"
// the yaml document can't do with a bare int.
type TimeslotConfig struct {
	DurationPLLCycles   uint32 `yaml:"duration_pll_cycles"`
	ConnectionMain      *int   `yaml:"connection_main"`
	ConnectionAutoReply *int   `yaml:"connection_auto_reply"`
}

// RadioConfig describes one physical transceiver and which BSP backend
// should drive it.
type RadioConfig struct {
	Backend        string `yaml:"backend"` // "gpio", "hamlib", "uart"
	NetworkID      uint32 `yaml:"network_id"`
	SyncwordBits   int    `yaml:"syncword_bits"`
	PreambleBits   int    `yaml:"preamble_bits"`
	PLLStartupXtal uint32 `yaml:"pll_startup_xtal"`
	SetupTimePLL   uint32 `yaml:"setup_time_pll"`
	FrameLostMax   int    `yaml:"frame_lost_max"`
	FastSync       bool   `yaml:"fast_sync"`
	RDOEnabled     bool   `yaml:"rdo_enabled"`
	RDORollover    uint16 `yaml:"rdo_rollover"`

	GPIOChip        string `yaml:"gpio_chip"`
	GPIOResetLine   int    `yaml:"gpio_reset_line"`
	GPIOCSLine      int    `yaml:"gpio_cs_line"`
	GPIOShutdownLine int   `yaml:"gpio_shutdown_line"`
	SPIBusPath      string `yaml:"spi_bus_path"`
	HamlibRig       int    `yaml:"hamlib_rig_model"`
	HamlibDev       string `yaml:"hamlib_device"`
	UARTDevice      string `yaml:"uart_device"`
	UARTBaudRate    int    `yaml:"uart_baud_rate"`
}

// ConnectionConfig describes one Connection and its channel hop sequence.
type ConnectionConfig struct {
	Source           uint16   `yaml:"source"`
	Destination      uint16   `yaml:"destination"`
	MaxPayloadSize   int      `yaml:"max_payload_size"`
	QueueDepth       int      `yaml:"queue_depth"`
	Modulation       int      `yaml:"modulation"`
	FECLevel         int      `yaml:"fec_level"`
	Ack              bool     `yaml:"ack"`
	ARQ              bool     `yaml:"arq"`
	ARQRetryCount    int      `yaml:"arq_retry_count"`
	ARQDeadlineQtrMS uint64   `yaml:"arq_deadline_quarter_ms"`
	AutoSync         bool     `yaml:"auto_sync"`
	CCA              bool     `yaml:"cca"`
	CCAThresholdDB   int      `yaml:"cca_threshold_db"`
	CCATryCount      int      `yaml:"cca_try_count"`
	RDO              bool     `yaml:"rdo"`
	Throttling       bool     `yaml:"throttling"`
	FixedPayloadSize int      `yaml:"fixed_payload_size"`
	Channels         []uint8  `yaml:"channels"`
}

// Load reads and parses a StackConfig from path.
func Load(path string) (*StackConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg StackConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *StackConfig) role() wps.Role {
	if c.Role == "coordinator" {
		return wps.RoleCoordinator
	}
	return wps.RoleNode
}

func (c *StackConfig) sleepLevel() wps.SleepLevel {
	switch c.SleepLevel {
	case "shallow":
		return wps.SleepShallow
	case "deep":
		return wps.SleepDeep
	default:
		return wps.SleepIdle
	}
}

// RadioHALFactory builds the bsp.RadioHAL a RadioConfig names. Callers
// supply one so config stays independent of any particular backend's
// constructor signature (GPIO chip paths, Hamlib rig models, ...).
type RadioHALFactory func(RadioConfig) (bsp.RadioHAL, error)

// Apply drives a wps.Factory through the call sequence spec.md §6.2 fixes
// — NewNode, AddRadio per radio, NewConnection/AddChannel/SetCallbacks per
// connection, Setup last — from the parsed config. halFor resolves each
// RadioConfig's backend field to a concrete bsp.RadioHAL; timer backs the
// factory's PHY adapters and the MAC's ARQ deadline stamping.
func Apply(c *StackConfig, buf []byte, timer bsp.Timer, halFor RadioHALFactory, callbacks []wps.CallbackSet) (*wps.Node, *wps.Factory, error) {
	f := wps.NewFactory(buf, timer)

	timeslots := make([]wps.TimeslotConfig, len(c.Timeslots))
	for i, ts := range c.Timeslots {
		main, autoReply := -1, -1
		if ts.ConnectionMain != nil {
			main = *ts.ConnectionMain
		}
		if ts.ConnectionAutoReply != nil {
			autoReply = *ts.ConnectionAutoReply
		}
		timeslots[i] = wps.TimeslotConfig{
			DurationPLLCycles:   wps.PLLCycles(ts.DurationPLLCycles),
			ConnectionMain:      main,
			ConnectionAutoReply: autoReply,
		}
	}

	node, err := f.NewNode(c.role(), c.PanID, wps.Address(c.CoordAddr), wps.Address(c.LocalAddr), c.sleepLevel(), timeslots)
	if err != nil {
		return nil, nil, fmt.Errorf("config: new node: %w", err)
	}

	for _, rc := range c.Radios {
		hal, err := halFor(rc)
		if err != nil {
			return nil, nil, fmt.Errorf("config: build radio hal: %w", err)
		}
		_, err = f.AddRadio(node, wps.RadioConfig{
			NetworkID:      rc.NetworkID,
			SyncwordBits:   rc.SyncwordBits,
			PreambleBits:   rc.PreambleBits,
			PLLStartupXtal: wps.PLLCycles(rc.PLLStartupXtal),
			SetupTimePLL:   wps.PLLCycles(rc.SetupTimePLL),
			FrameLostMax:   rc.FrameLostMax,
			FastSync:       rc.FastSync,
			RDOEnabled:     rc.RDOEnabled,
			RDORollover:    rc.RDORollover,
		}, hal)
		if err != nil {
			return nil, nil, fmt.Errorf("config: add radio: %w", err)
		}
	}

	for i, cc := range c.Connections {
		conn, err := f.NewConnection(node, wps.ConnectionConfig{
			Source:         wps.Address(cc.Source),
			Destination:    wps.Address(cc.Destination),
			MaxPayloadSize: cc.MaxPayloadSize,
			QueueDepth:     cc.QueueDepth,
			Modulation:     cc.Modulation,
			FECLevel:       cc.FECLevel,
			Flags: wps.ConnectionFlags{
				Ack:              cc.Ack,
				ARQ:              cc.ARQ,
				AutoSync:         cc.AutoSync,
				CCA:              cc.CCA,
				RDO:              cc.RDO,
				Throttling:       cc.Throttling,
				FixedPayloadSize: cc.FixedPayloadSize > 0,
			},
			ARQ: wps.ARQConfig{
				RetryCount:        cc.ARQRetryCount,
				TimeDeadlineQtrMS: wps.QuarterMS(cc.ARQDeadlineQtrMS),
			},
			CCA: wps.CCAConfig{
				ThresholdDB: cc.CCAThresholdDB,
				TryCount:    cc.CCATryCount,
			},
			FixedPayloadSize: cc.FixedPayloadSize,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("config: new connection %d: %w", i, err)
		}

		for _, ch := range cc.Channels {
			if err := f.AddChannel(conn, node, wps.ChannelConfig{ID: wps.ChannelID(ch)}); err != nil {
				return nil, nil, fmt.Errorf("config: add channel to connection %d: %w", i, err)
			}
		}

		if i < len(callbacks) {
			f.SetCallbacks(conn, callbacks[i])
		}
	}

	if err := f.Setup(node, timeslots); err != nil {
		return nil, nil, fmt.Errorf("config: setup: %w", err)
	}

	return node, f, nil
}
