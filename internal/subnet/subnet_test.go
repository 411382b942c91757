package subnet

import (
	"errors"
	"testing"
)

func collect(t *testing.T, r *Range) []string {
	t.Helper()
	var addrs []string
	it := r.Hosts()
	for {
		addr, ok := it.Next()
		if !ok {
			break
		}
		addrs = append(addrs, addr)
	}
	return addrs
}

func TestParseRangeSlash24(t *testing.T) {
	r, err := ParseRange("192.168.1.0/24")
	if err != nil {
		t.Fatalf("ParseRange() error = %v", err)
	}

	if r.Count() != 254 {
		t.Errorf("Count() = %d, want 254", r.Count())
	}

	addrs := collect(t, r)
	if len(addrs) != 254 {
		t.Fatalf("generated %d addresses, want 254", len(addrs))
	}
	if addrs[0] != "192.168.1.1" {
		t.Errorf("first address = %s, want 192.168.1.1 (network excluded)", addrs[0])
	}
	if addrs[len(addrs)-1] != "192.168.1.254" {
		t.Errorf("last address = %s, want 192.168.1.254 (broadcast excluded)", addrs[len(addrs)-1])
	}

	// No duplicates
	seen := make(map[string]bool, len(addrs))
	for _, a := range addrs {
		if seen[a] {
			t.Fatalf("duplicate address generated: %s", a)
		}
		seen[a] = true
	}
}

func TestParseRangeMasksHostBits(t *testing.T) {
	// A host address inside the block masks down to the network address
	r, err := ParseRange("10.1.2.77/16")
	if err != nil {
		t.Fatalf("ParseRange() error = %v", err)
	}
	if r.String() != "10.1.0.0/16" {
		t.Errorf("String() = %s, want 10.1.0.0/16", r.String())
	}
	if r.Count() != 65534 {
		t.Errorf("Count() = %d, want 65534", r.Count())
	}
}

func TestParseRangePrefixLengths(t *testing.T) {
	tests := []struct {
		name  string
		cidr  string
		count int
		first string
		last  string
	}{
		{
			name:  "slash 30 excludes network and broadcast",
			cidr:  "192.168.1.0/30",
			count: 2,
			first: "192.168.1.1",
			last:  "192.168.1.2",
		},
		{
			name:  "slash 31 uses both addresses",
			cidr:  "192.168.1.0/31",
			count: 2,
			first: "192.168.1.0",
			last:  "192.168.1.1",
		},
		{
			name:  "slash 32 is a single host",
			cidr:  "192.168.1.5/32",
			count: 1,
			first: "192.168.1.5",
			last:  "192.168.1.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRange(tt.cidr)
			if err != nil {
				t.Fatalf("ParseRange(%q) error = %v", tt.cidr, err)
			}
			if r.Count() != tt.count {
				t.Errorf("Count() = %d, want %d", r.Count(), tt.count)
			}
			addrs := collect(t, r)
			if len(addrs) != tt.count {
				t.Fatalf("generated %d addresses, want %d", len(addrs), tt.count)
			}
			if addrs[0] != tt.first {
				t.Errorf("first = %s, want %s", addrs[0], tt.first)
			}
			if addrs[len(addrs)-1] != tt.last {
				t.Errorf("last = %s, want %s", addrs[len(addrs)-1], tt.last)
			}
		})
	}
}

func TestParseRangeInvalid(t *testing.T) {
	tests := []struct {
		name string
		cidr string
	}{
		{name: "garbage", cidr: "not-a-subnet"},
		{name: "missing prefix", cidr: "192.168.1.0"},
		{name: "prefix too long", cidr: "192.168.1.0/33"},
		{name: "ipv6", cidr: "fe80::/64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRange(tt.cidr)
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Errorf("ParseRange(%q) error = %v, want ConfigurationError", tt.cidr, err)
			}
		})
	}
}

func TestFromAddr(t *testing.T) {
	r, err := FromAddr("192.168.1.42", 24)
	if err != nil {
		t.Fatalf("FromAddr() error = %v", err)
	}
	if r.String() != "192.168.1.0/24" {
		t.Errorf("String() = %s, want 192.168.1.0/24", r.String())
	}

	if _, err := FromAddr("192.168.1.42", 40); err == nil {
		t.Error("FromAddr() with prefix length 40 should fail")
	}
	if _, err := FromAddr("bogus", 24); err == nil {
		t.Error("FromAddr() with bad address should fail")
	}
}

func TestIteratorNotRestartable(t *testing.T) {
	r, err := ParseRange("192.168.1.0/30")
	if err != nil {
		t.Fatalf("ParseRange() error = %v", err)
	}

	it := r.Hosts()
	for {
		if _, ok := it.Next(); !ok {
			break
		}
	}

	// Exhausted iterator stays exhausted
	if _, ok := it.Next(); ok {
		t.Error("exhausted iterator should keep returning false")
	}
}
