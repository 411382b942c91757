package scan

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/riloraspopo/scrcpygui/internal/devices"
	"github.com/riloraspopo/scrcpygui/internal/logging"
	"github.com/riloraspopo/scrcpygui/internal/subnet"
)

const (
	// DefaultPort is the debug bridge port Android devices listen on
	DefaultPort = 5555

	// DefaultWorkers is the concurrent probe budget
	DefaultWorkers = 100

	// DefaultProbeTimeout bounds each individual connection attempt
	DefaultProbeTimeout = 500 * time.Millisecond
)

// Progress reports completed probes out of the total candidate count.
type Progress struct {
	Completed int
	Total     int
}

// Result is the outcome of one scan run. Devices are ordered by discovery
// (probe completion) time.
type Result struct {
	RunID      uuid.UUID
	Port       int
	Candidates int
	Completed  int
	Devices    []*devices.Device
	StartedAt  time.Time
	FinishedAt time.Time
	Cancelled  bool
}

// probeFunc matches Probe's signature so tests can substitute outcomes
// without touching the network.
type probeFunc func(address string, port int, timeout time.Duration) (bool, error)

// Coordinator runs probes concurrently across a subnet range with a fixed
// worker budget. One Coordinator executes one run at a time; Run owns the
// scan state for its whole duration and hands back a complete Result, never
// incremental device updates.
type Coordinator struct {
	// Port is the target port for every probe (default 5555)
	Port int

	// Timeout bounds each individual probe
	Timeout time.Duration

	// Workers is the concurrency ceiling for in-flight probes
	Workers int

	// OnProgress, when set, is invoked after every completed probe with the
	// running completed/total counts. Called from the collector goroutine;
	// implementations must not block for long.
	OnProgress func(Progress)

	probe probeFunc
}

// NewCoordinator creates a Coordinator with default port, timeout, and
// worker budget.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		Port:    DefaultPort,
		Timeout: DefaultProbeTimeout,
		Workers: DefaultWorkers,
		probe:   Probe,
	}
}

type probeOutcome struct {
	address   string
	reachable bool
}

// Run probes every address in the range and returns the reachable set.
//
// Cancelling the context stops dispatching new probes; in-flight probes
// finish or time out naturally and their results are kept, so the returned
// Result holds the partial live set collected up to that point. Worst-case
// cancellation latency is therefore one probe timeout. Run only returns an
// error before any probe is dispatched (nil range).
func (c *Coordinator) Run(ctx context.Context, r *subnet.Range) (*Result, error) {
	if r == nil {
		return nil, &subnet.ConfigurationError{Input: "", Reason: "no subnet range"}
	}

	workers := c.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	probe := c.probe
	if probe == nil {
		probe = Probe
	}

	result := &Result{
		RunID:      uuid.New(),
		Port:       port,
		Candidates: r.Count(),
		StartedAt:  time.Now(),
	}

	logging.LogScanEvent(result.RunID.String(), "started",
		zap.String("range", r.String()),
		zap.Int("candidates", result.Candidates),
		zap.Int("port", port),
		zap.Int("workers", workers),
	)

	// Unbuffered task channel: once the dispatcher stops, no queued work is
	// left behind for workers to pick up, only the probes already in flight.
	tasks := make(chan string)
	outcomes := make(chan probeOutcome)

	go func() {
		defer close(tasks)
		it := r.Hosts()
		for {
			addr, ok := it.Next()
			if !ok {
				return
			}
			// Check the flag before offering the task so a cancelled run
			// dispatches at most one more probe
			select {
			case <-ctx.Done():
				return
			default:
			}
			select {
			case <-ctx.Done():
				return
			case tasks <- addr:
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for addr := range tasks {
				reachable, err := probe(addr, port, timeout)
				if err != nil {
					// A single bad probe never aborts the run
					logging.Warn("probe failed",
						zap.String("address", addr),
						zap.Error(err),
					)
					reachable = false
				}
				outcomes <- probeOutcome{address: addr, reachable: reachable}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for out := range outcomes {
		result.Completed++
		if out.reachable {
			result.Devices = append(result.Devices, &devices.Device{
				Address:      out.address,
				Port:         port,
				Status:       devices.StatusReachable,
				Source:       devices.SourceSweep,
				DiscoveredAt: time.Now(),
			})
		}
		if c.OnProgress != nil {
			c.OnProgress(Progress{Completed: result.Completed, Total: result.Candidates})
		}
	}

	result.FinishedAt = time.Now()
	result.Cancelled = ctx.Err() != nil

	event := "completed"
	if result.Cancelled {
		event = "cancelled"
	}
	logging.LogScanEvent(result.RunID.String(), event,
		zap.Int("completed", result.Completed),
		zap.Int("live", len(result.Devices)),
		zap.Duration("duration", result.FinishedAt.Sub(result.StartedAt)),
	)

	return result, nil
}
