package subnet

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"
)

// FallbackCIDR is used when no suitable local interface can be found.
// Matches the most common home network layout.
const FallbackCIDR = "192.168.1.0/24"

// ConfigurationError indicates a malformed address/mask pair or one that
// yields no usable host addresses. A scan never starts when this is returned.
type ConfigurationError struct {
	Input  string
	Reason string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid subnet %q: %s", e.Input, e.Reason)
}

// Range is a base network address plus prefix length. It generates the
// ordered sequence of usable host addresses in the block, excluding the
// all-zeros and all-ones host identifiers for prefixes shorter than /31.
// Immutable once computed.
type Range struct {
	prefix netip.Prefix
	first  uint32 // first usable host, inclusive
	last   uint32 // last usable host, inclusive
	count  int
}

// ParseRange builds a Range from CIDR notation (e.g., "192.168.1.0/24").
// The address part may be any address inside the block; it is masked down
// to the network address.
func ParseRange(cidr string) (*Range, error) {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return nil, &ConfigurationError{Input: cidr, Reason: "not valid CIDR notation"}
	}
	return fromPrefix(cidr, prefix)
}

// FromAddr builds a Range from a local interface address and prefix length.
func FromAddr(address string, prefixLen int) (*Range, error) {
	input := fmt.Sprintf("%s/%d", address, prefixLen)
	addr, err := netip.ParseAddr(address)
	if err != nil {
		return nil, &ConfigurationError{Input: input, Reason: "not a valid IP address"}
	}
	if prefixLen < 0 || prefixLen > addr.BitLen() {
		return nil, &ConfigurationError{Input: input, Reason: "prefix length out of range"}
	}
	return fromPrefix(input, netip.PrefixFrom(addr, prefixLen))
}

func fromPrefix(input string, prefix netip.Prefix) (*Range, error) {
	if !prefix.Addr().Is4() {
		return nil, &ConfigurationError{Input: input, Reason: "only IPv4 subnets are supported"}
	}

	masked := prefix.Masked()
	base := addrToUint32(masked.Addr())
	ones := masked.Bits()

	r := &Range{prefix: masked}
	switch {
	case ones >= 32:
		r.first, r.last, r.count = base, base, 1
	case ones == 31:
		r.first, r.last, r.count = base, base+1, 2
	default:
		size := 1 << (32 - ones)
		r.first = base + 1
		r.last = base + uint32(size) - 2
		r.count = size - 2
	}

	if r.count <= 0 {
		return nil, &ConfigurationError{Input: input, Reason: "no usable host addresses"}
	}
	return r, nil
}

// Detect derives a Range from the first non-loopback private IPv4 interface
// address on this machine, using the interface's real mask. Falls back to
// FallbackCIDR when no suitable interface exists.
func Detect() (*Range, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ParseRange(FallbackCIDR)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipnet.IP.To4()
			if ip4 == nil || !ipnet.IP.IsPrivate() {
				continue
			}
			ones, bits := ipnet.Mask.Size()
			if bits != 32 {
				continue
			}
			return FromAddr(ip4.String(), ones)
		}
	}

	return ParseRange(FallbackCIDR)
}

// String returns the range in CIDR notation
func (r *Range) String() string {
	return r.prefix.String()
}

// Count returns the number of usable host addresses in the range.
func (r *Range) Count() int {
	return r.count
}

// Hosts returns a one-shot iterator over the usable host addresses, in
// ascending order. The iterator is not restartable.
func (r *Range) Hosts() *Iterator {
	return &Iterator{next: r.first, last: r.last}
}

// Iterator yields successive host addresses from a Range.
type Iterator struct {
	next uint32
	last uint32
	done bool
}

// Next returns the next host address, or false when the sequence is exhausted.
func (it *Iterator) Next() (string, bool) {
	if it.done {
		return "", false
	}
	addr := uint32ToAddr(it.next)
	if it.next >= it.last {
		it.done = true
	} else {
		it.next++
	}
	return addr.String(), true
}

func addrToUint32(a netip.Addr) uint32 {
	b := a.As4()
	return binary.BigEndian.Uint32(b[:])
}

func uint32ToAddr(v uint32) netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return netip.AddrFrom4(b)
}
