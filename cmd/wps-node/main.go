// Command wps-node runs a single TDMA Node (Coordinator or Node role) from
// a YAML config file, driving its MAC from a software tick loop since a
// host process has no hardware radio IRQ to wire up. Modeled on the
// teacher's cmd/direwolf front end: parse flags, load a config file,
// build the engine, run until interrupted.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/nimbuslace/tdmawps/bsp"
	"github.com/nimbuslace/tdmawps/config"
	"github.com/nimbuslace/tdmawps/internal/wpslog"
	"github.com/nimbuslace/tdmawps/transport"
)

func main() {
	configPath := pflag.StringP("config", "c", "wps-node.yaml", "path to node config file")
	ptyBridge := pflag.Bool("pty", false, "expose connection 0 as a KISS pseudo-terminal")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	slotTickOverride := pflag.Duration("slot-tick", 0, "override the per-slot wall-clock tick (0 = default of 10ms)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wps-node:", err)
		os.Exit(1)
	}

	logger := wpslog.New(os.Stderr, cfg.Role, cfg.LocalAddr)
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	timer := bsp.NewMonotonicClock()
	buf := make([]byte, 1<<20)

	node, _, err := config.Apply(cfg, buf, timer, radioHALFor, nil)
	if err != nil {
		logger.Fatal("build node", "err", err)
	}

	if err := node.Connect(); err != nil {
		logger.Fatal("connect", "err", err)
	}
	logger.Info("node connected", "role", cfg.Role, "pan_id", cfg.PanID)

	if *ptyBridge && len(node.Connections) > 0 {
		bridge, err := transport.OpenKISSPTY(node.Connections[0])
		if err != nil {
			logger.Error("open pty bridge", "err", err)
		} else {
			logger.Info("kiss pty bridge ready", "device", bridge.SlaveName())
			defer bridge.Close()
		}
	}

	slotTick := *slotTickOverride
	if slotTick == 0 {
		slotTick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(slotTick)
	defer ticker.Stop()

	stop := make(chan struct{})
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		close(stop)
	}()

	node.RunSoftwareLoop(stop, ticker.C)
	logger.Info("node shutting down")
	_ = node.Disconnect()
}

func radioHALFor(rc config.RadioConfig) (bsp.RadioHAL, error) {
	switch rc.Backend {
	case "hamlib":
		return bsp.NewHamlibRadioHAL(bsp.HamlibRadioHALConfig{
			Model: rc.HamlibRig,
			Port:  rc.HamlibDev,
		})
	case "gpio":
		spi, err := bsp.NewPeriphSPI(bsp.PeriphSPIConfig{BusPath: rc.SPIBusPath})
		if err != nil {
			return nil, err
		}
		return bsp.NewGPIORadioHAL(bsp.GPIORadioHALConfig{
			Chip:            rc.GPIOChip,
			ResetLineOffset: rc.GPIOResetLine,
			CSLineOffset:    rc.GPIOCSLine,
			ShutdownOffset:  rc.GPIOShutdownLine,
		}, spi)
	case "uart":
		return bsp.NewUARTRadioHAL(bsp.UARTRadioHALConfig{Device: rc.UARTDevice, BaudRate: rc.UARTBaudRate})
	default:
		return nil, fmt.Errorf("wps-node: unknown radio backend %q (use gpio, hamlib, or uart)", rc.Backend)
	}
}
