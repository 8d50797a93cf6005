// Command wps-coord runs the Coordinator side of a PAN from a YAML config
// file. It is wps-node's sibling, narrowed to the Coordinator role and
// with an optional mDNS announcement of its debug KISS bridge.
package main

import (
	"context"
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
	configPath := pflag.StringP("config", "c", "wps-coord.yaml", "path to coordinator config file")
	ptyBridge := pflag.Bool("pty", true, "expose connection 0 as a KISS pseudo-terminal")
	announce := pflag.Bool("announce", false, "advertise the debug bridge over mDNS/DNS-SD")
	announcePort := pflag.Int("announce-port", 8001, "nominal port advertised alongside the mDNS announcement")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wps-coord:", err)
		os.Exit(1)
	}
	if cfg.Role != "coordinator" {
		fmt.Fprintf(os.Stderr, "wps-coord: config role must be \"coordinator\", got %q\n", cfg.Role)
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
		logger.Fatal("build coordinator", "err", err)
	}

	if err := node.Connect(); err != nil {
		logger.Fatal("connect", "err", err)
	}
	logger.Info("coordinator connected", "pan_id", cfg.PanID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *ptyBridge && len(node.Connections) > 0 {
		bridge, err := transport.OpenKISSPTY(node.Connections[0])
		if err != nil {
			logger.Error("open pty bridge", "err", err)
		} else {
			logger.Info("kiss pty bridge ready", "device", bridge.SlaveName())
			defer bridge.Close()
			if *announce {
				announceKISSBridge(ctx, logger, fmt.Sprintf("wps-coord-%d", cfg.PanID), *announcePort)
			}
		}
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	stop := make(chan struct{})
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		close(stop)
	}()

	node.RunSoftwareLoop(stop, ticker.C)
	logger.Info("coordinator shutting down")
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
		return nil, fmt.Errorf("wps-coord: unknown radio backend %q (use gpio, hamlib, or uart)", rc.Backend)
	}
}
