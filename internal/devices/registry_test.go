package devices

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func makeDevices(addrs ...string) []*Device {
	devs := make([]*Device, len(addrs))
	for i, a := range addrs {
		devs[i] = &Device{
			Address:      a,
			Port:         5555,
			Status:       StatusReachable,
			Source:       SourceSweep,
			DiscoveredAt: time.Now(),
		}
	}
	return devs
}

func TestRegistryReplaceDeduplicates(t *testing.T) {
	reg := NewRegistry()
	reg.Replace(makeDevices("192.168.1.23", "192.168.1.47", "192.168.1.23"))

	if reg.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reg.Len())
	}

	list := reg.List()
	if list[0].Address != "192.168.1.23" || list[1].Address != "192.168.1.47" {
		t.Errorf("List() order = [%s %s], want discovery order preserved",
			list[0].Address, list[1].Address)
	}
}

func TestRegistryReplaceClearsSelection(t *testing.T) {
	reg := NewRegistry()
	reg.Replace(makeDevices("192.168.1.23"))

	if _, err := reg.Select("192.168.1.23"); err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	reg.Replace(makeDevices("192.168.1.47"))

	if _, ok := reg.CurrentSelection(); ok {
		t.Error("CurrentSelection() should report none after Replace()")
	}
}

func TestRegistrySelect(t *testing.T) {
	reg := NewRegistry()
	reg.Replace(makeDevices("192.168.1.23", "192.168.1.47"))

	d, err := reg.Select("192.168.1.47")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if d.Address != "192.168.1.47" {
		t.Errorf("Select() returned device %s, want 192.168.1.47", d.Address)
	}

	sel, ok := reg.CurrentSelection()
	if !ok {
		t.Fatal("CurrentSelection() should report a selection")
	}
	if sel.Address != "192.168.1.47" {
		t.Errorf("CurrentSelection() = %s, want 192.168.1.47", sel.Address)
	}
}

func TestRegistrySelectUnknownAddress(t *testing.T) {
	reg := NewRegistry()
	reg.Replace(makeDevices("192.168.1.23"))

	// Establish a valid selection first
	if _, err := reg.Select("192.168.1.23"); err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	_, err := reg.Select("10.0.0.1")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Select() error = %v, want NotFoundError", err)
	}
	if nf.Address != "10.0.0.1" {
		t.Errorf("NotFoundError.Address = %s, want 10.0.0.1", nf.Address)
	}

	// Failed selection must not disturb the existing one
	sel, ok := reg.CurrentSelection()
	if !ok || sel.Address != "192.168.1.23" {
		t.Error("failed Select() should leave the prior selection intact")
	}
}

func TestRegistryReplaceAtomicity(t *testing.T) {
	reg := NewRegistry()

	oldSet := makeDevices("10.0.0.1", "10.0.0.2", "10.0.0.3")
	newSet := makeDevices("172.16.0.1", "172.16.0.2", "172.16.0.3")
	reg.Replace(oldSet)

	inSet := func(list []*Device, prefix string) int {
		n := 0
		for _, d := range list {
			if len(d.Address) >= len(prefix) && d.Address[:len(prefix)] == prefix {
				n++
			}
		}
		return n
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errCh := make(chan error, 1)

	// Reader: every observed list must be entirely old or entirely new
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			list := reg.List()
			old := inSet(list, "10.")
			fresh := inSet(list, "172.")
			if old != 0 && fresh != 0 {
				select {
				case errCh <- fmt.Errorf("torn read: %d old and %d new devices", old, fresh):
				default:
				}
				return
			}
		}
	}()

	// Writer: alternate between the two sets
	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			reg.Replace(newSet)
		} else {
			reg.Replace(oldSet)
		}
	}

	close(stop)
	wg.Wait()

	select {
	case err := <-errCh:
		t.Fatal(err)
	default:
	}
}
