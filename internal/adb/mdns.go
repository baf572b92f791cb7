package adb

import (
	"context"
	"fmt"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/droidtriage/internal/logging"
)

const (
	// WirelessServiceType is the mDNS service type Android advertises for
	// wireless debugging connections
	WirelessServiceType = "_adb-tls-connect._tcp"

	// WirelessServiceDomain is the mDNS domain (typically "local.")
	WirelessServiceDomain = "local."

	// DefaultWirelessScanTimeout is the default browse duration
	DefaultWirelessScanTimeout = 5 * time.Second
)

// WirelessEndpoint is an Android wireless-debugging endpoint found via
// mDNS. It is not yet a Device: the ADB server learns about it only after
// Host.Connect succeeds.
type WirelessEndpoint struct {
	// Instance is the advertised instance name (e.g. "adb-R58M12ABCDE-Vxyzzy")
	Instance string

	// IP is the endpoint's IPv4 (preferred) or IPv6 address
	IP string

	// Port is the wireless debugging port
	Port int
}

// Addr returns the "ip:port" form expected by Host.Connect
func (w WirelessEndpoint) Addr() string {
	return fmt.Sprintf("%s:%d", w.IP, w.Port)
}

// DiscoverWireless browses the local network for wireless-debugging
// endpoints for up to timeout. A zero timeout selects the default.
func DiscoverWireless(ctx context.Context, timeout time.Duration) ([]WirelessEndpoint, error) {
	if timeout == 0 {
		timeout = DefaultWirelessScanTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, WirelessServiceType, WirelessServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for wireless debugging services: %w", err)
	}

	// The drain starts only once Browse owns the channel: Browse closes it
	// when ctx expires, which is what ends the drain.
	collected := make(chan []WirelessEndpoint, 1)
	go func() {
		collected <- drainWirelessEntries(entries)
	}()

	<-ctx.Done()
	endpoints := <-collected

	logging.Debug("Wireless debugging browse finished",
		zap.Int("endpoints", len(endpoints)),
	)
	return endpoints, nil
}

// drainWirelessEntries consumes browse results until the channel closes,
// keeping every entry with a usable address
func drainWirelessEntries(entries <-chan *zeroconf.ServiceEntry) []WirelessEndpoint {
	endpoints := make([]WirelessEndpoint, 0)
	for entry := range entries {
		if ep := parseWirelessEntry(entry); ep != nil {
			endpoints = append(endpoints, *ep)
		}
	}
	return endpoints
}

// parseWirelessEntry converts a zeroconf service entry to an endpoint.
// Returns nil for entries with no usable address.
func parseWirelessEntry(entry *zeroconf.ServiceEntry) *WirelessEndpoint {
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" || entry.Port == 0 {
		return nil
	}

	return &WirelessEndpoint{
		Instance: entry.Instance,
		IP:       ip,
		Port:     entry.Port,
	}
}
