package main

import (
	"context"

	"github.com/brutella/dnssd"

	"github.com/nimbuslace/tdmawps/internal/wpslog"
)

// kissTNCServiceType names the mDNS/DNS-SD service wps-coord announces for
// its debug KISS bridge, the same announcement dns_sd.go makes for
// direwolf's KISS-over-TCP port, reused here verbatim since any KISS
// client (kissutil, direwolf's own client tooling) discovers it the same
// way regardless of what produces the frames on the other end.
const kissTNCServiceType = "_kiss-tnc._tcp"

// announceKISSBridge advertises name on port over mDNS, mirroring
// dns_sd_announce's NewService/NewResponder/Add/Respond sequence. port is
// nominal here — this stack's debug bridge is a local pty
// (transport.PTYBridge), not a TCP listener — kept so a future TCP KISS
// proxy has a real port to plug into this same announcement.
func announceKISSBridge(ctx context.Context, logger *wpslog.Logger, name string, port int) {
	cfg := dnssd.Config{
		Name: name,
		Type: kissTNCServiceType,
		Port: port,
	}

	sv, err := dnssd.NewService(cfg)
	if err != nil {
		logger.Error("dns-sd: create service", "err", err)
		return
	}

	rp, err := dnssd.NewResponder()
	if err != nil {
		logger.Error("dns-sd: create responder", "err", err)
		return
	}

	if _, err := rp.Add(sv); err != nil {
		logger.Error("dns-sd: add service", "err", err)
		return
	}

	logger.Info("dns-sd: announcing kiss tnc", "port", port, "name", name)

	go func() {
		if err := rp.Respond(ctx); err != nil {
			logger.Error("dns-sd: responder stopped", "err", err)
		}
	}()
}
