package devices

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Status is the reachability outcome of the most recent probe for a device.
type Status int

const (
	// StatusUnknown means the device has not been probed yet
	StatusUnknown Status = iota
	// StatusReachable means a listener accepted a connection within the timeout
	StatusReachable
	// StatusUnreachable means the probe was refused or timed out
	StatusUnreachable
)

// String returns a human-readable name for the status
func (s Status) String() string {
	switch s {
	case StatusReachable:
		return "reachable"
	case StatusUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Discovery sources. The TCP sweep is authoritative; mDNS entries are a
// supplement from Android wireless-debugging advertisements.
const (
	SourceSweep = "sweep"
	SourceMDNS  = "mdns"
)

// Device represents an Android device discovered on the local network.
type Device struct {
	// Address is the device IPv4 address in dotted-quad form (e.g., "192.168.1.23")
	Address string

	// Port is the debug bridge port the device was discovered on (typically 5555)
	Port int

	// Status is the reachability outcome at last probe
	Status Status

	// Source records how the device was discovered (sweep or mdns)
	Source string

	// DiscoveredAt is when the probe (or mDNS browse) reported the device
	DiscoveredAt time.Time
}

// Endpoint returns the address:port string used by the debug bridge tools
func (d *Device) Endpoint() string {
	return net.JoinHostPort(d.Address, strconv.Itoa(d.Port))
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("Android device at %s (%s)", d.Endpoint(), d.Status)
}
