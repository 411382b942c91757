package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/riloraspopo/scrcpygui/internal/devices"
	"github.com/riloraspopo/scrcpygui/internal/logging"
)

const (
	// ServiceTLSConnect is advertised by Android 11+ wireless debugging
	ServiceTLSConnect = "_adb-tls-connect._tcp"

	// ServicePlain is advertised by devices running adbd over plain TCP
	ServicePlain = "_adb._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultBrowseTimeout is the default timeout for mDNS browsing
	DefaultBrowseTimeout = 3 * time.Second
)

// Browser discovers Android devices advertising debug bridge services over
// mDNS. This supplements the TCP sweep; the sweep remains authoritative.
type Browser struct {
	// Timeout is the maximum time to wait per service type
	Timeout time.Duration
}

// NewBrowser creates a new mDNS browser with default settings
func NewBrowser() *Browser {
	return &Browser{
		Timeout: DefaultBrowseTimeout,
	}
}

// Browse discovers debug-bridge mDNS services on the local network.
// Returns a list of discovered devices or an error.
func (b *Browser) Browse(ctx context.Context) ([]*devices.Device, error) {
	var found []*devices.Device
	seen := make(map[string]bool)

	for _, service := range []string{ServiceTLSConnect, ServicePlain} {
		devs, err := b.browseService(ctx, service)
		if err != nil {
			// A failed browse for one service type is not fatal; the other
			// type and the TCP sweep can still find devices
			logging.Warn("mDNS browse failed",
				zap.String("service", service),
				zap.Error(err),
			)
			continue
		}
		for _, d := range devs {
			if seen[d.Address] {
				continue
			}
			seen[d.Address] = true
			found = append(found, d)
		}
	}

	return found, nil
}

// browseService browses a single mDNS service type until the timeout elapses.
func (b *Browser) browseService(ctx context.Context, service string) ([]*devices.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	var found []*devices.Device

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// Collect entries in a goroutine; zeroconf closes the channel when the
	// context completes
	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			if device := parseEntry(entry); device != nil {
				found = append(found, device)
			}
		}
	}()

	if err := resolver.Browse(ctx, service, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for %s: %w", service, err)
	}

	<-ctx.Done()
	<-done

	return found, nil
}

// parseEntry converts a zeroconf service entry to a Device.
// Returns nil for entries without a usable IPv4 address.
func parseEntry(entry *zeroconf.ServiceEntry) *devices.Device {
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = 5555
	}

	return &devices.Device{
		Address:      ip,
		Port:         port,
		Status:       devices.StatusUnknown,
		Source:       devices.SourceMDNS,
		DiscoveredAt: time.Now(),
	}
}
