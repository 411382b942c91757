package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/riloraspopo/scrcpygui/internal/adb"
	"github.com/riloraspopo/scrcpygui/internal/config"
	"github.com/riloraspopo/scrcpygui/internal/devices"
	"github.com/riloraspopo/scrcpygui/internal/discovery"
	"github.com/riloraspopo/scrcpygui/internal/scan"
	"github.com/riloraspopo/scrcpygui/internal/scrcpy"
	"github.com/riloraspopo/scrcpygui/internal/session"
	"github.com/riloraspopo/scrcpygui/internal/subnet"
	"github.com/riloraspopo/scrcpygui/internal/ui"
)

// Persistent flags shared by all commands. Zero values mean "use the
// preference from the config file, or its default".
var (
	flagCIDR    string
	flagPort    int
	flagTimeout time.Duration
	flagWorkers int
	flagAdb     string
	flagScrcpy  string
	flagMDNS    bool
)

// stack bundles the wired-up application components.
type stack struct {
	cfg      *config.Registry
	rng      *subnet.Range
	coord    *scan.Coordinator
	devs     *devices.Registry
	adb      *adb.Client
	launcher *scrcpy.Launcher
	orch     *session.Orchestrator
	browser  *discovery.Browser
	port     int
}

// buildStack loads preferences, applies flag overrides, and wires the
// components together. With requireTools set it fails early when adb or
// scrcpy cannot be found, before any session work starts.
func buildStack(requireTools bool) (*stack, error) {
	cfg, err := config.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	port := cfg.Preferences.Port
	if flagPort > 0 {
		port = flagPort
	}
	timeout := cfg.ProbeTimeout()
	if flagTimeout > 0 {
		timeout = flagTimeout
	}
	workers := cfg.Preferences.Workers
	if flagWorkers > 0 {
		workers = flagWorkers
	}
	adbPath := cfg.Preferences.AdbPath
	if flagAdb != "" {
		adbPath = flagAdb
	}
	scrcpyPath := cfg.Preferences.ScrcpyPath
	if flagScrcpy != "" {
		scrcpyPath = flagScrcpy
	}

	var rng *subnet.Range
	if flagCIDR != "" {
		rng, err = subnet.ParseRange(flagCIDR)
	} else {
		rng, err = subnet.Detect()
	}
	if err != nil {
		return nil, err
	}

	coord := scan.NewCoordinator()
	coord.Port = port
	coord.Timeout = timeout
	coord.Workers = workers

	adbClient := adb.NewClient(adbPath)
	launcher := scrcpy.NewLauncher(scrcpyPath)

	if requireTools {
		if !adbClient.Available() {
			return nil, fmt.Errorf("adb not found (looked for %q); install android platform-tools or pass --adb", adbPath)
		}
		if !launcher.Available() {
			return nil, fmt.Errorf("scrcpy not found (looked for %q); install scrcpy or pass --scrcpy", scrcpyPath)
		}
	}

	devReg := devices.NewRegistry()
	orch := session.NewOrchestrator(
		devReg,
		adbClient,
		session.LauncherFunc(func(ctx context.Context, address string, port int) (session.MirrorHandle, error) {
			return launcher.Launch(ctx, address, port)
		}),
		adbClient,
		port,
	)

	var browser *discovery.Browser
	if flagMDNS || cfg.Preferences.MDNS {
		browser = discovery.NewBrowser()
	}

	return &stack{
		cfg:      cfg,
		rng:      rng,
		coord:    coord,
		devs:     devReg,
		adb:      adbClient,
		launcher: launcher,
		orch:     orch,
		browser:  browser,
		port:     port,
	}, nil
}

// runInteractive is the default command: the full-screen interface.
func runInteractive(cmd *cobra.Command, args []string) error {
	s, err := buildStack(true)
	if err != nil {
		return err
	}

	app := ui.NewApp(ui.Options{
		Range:        s.rng,
		Coordinator:  s.coord,
		Devices:      s.devs,
		Config:       s.cfg,
		Orchestrator: s.orch,
		Browser:      s.browser,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running interface: %w", err)
	}
	return nil
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Sweep the subnet and print devices that answer on the debug port",
	Example: `  # Sweep the autodetected subnet
  scrcpygui scan

  # Sweep a specific subnet on a non-default port
  scrcpygui scan --cidr 10.0.0.0/24 --port 5557`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	s, err := buildStack(false)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Scanning %s (%d hosts) on port %d...\n", s.rng, s.rng.Count(), s.coord.Port)

	result, err := s.coord.Run(ctx, s.rng)
	if err != nil {
		return err
	}

	found := result.Devices
	if s.browser != nil {
		extra, err := s.browser.Browse(ctx)
		if err == nil {
			seen := make(map[string]bool, len(found))
			for _, d := range found {
				seen[d.Address] = true
			}
			for _, d := range extra {
				if !seen[d.Address] {
					found = append(found, d)
				}
			}
		}
	}

	if result.Cancelled {
		fmt.Fprintf(os.Stderr, "Cancelled after %d/%d hosts.\n", result.Completed, result.Candidates)
	}
	if len(found) == 0 {
		fmt.Println("No devices found.")
		return nil
	}

	for _, d := range found {
		nickname := s.cfg.Nickname(d.Address)
		if nickname != "" {
			fmt.Printf("%s\t%s\t%s\n", d.Endpoint(), d.Source, nickname)
		} else {
			fmt.Printf("%s\t%s\n", d.Endpoint(), d.Source)
		}
		s.cfg.UpdateDeviceLastSeen(d.Address)
	}
	if err := s.cfg.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save device history: %v\n", err)
	}
	return nil
}

var connectCmd = &cobra.Command{
	Use:   "connect <address>",
	Short: "Mirror a device at a known address, skipping the scan",
	Example: `  # Mirror a device directly
  scrcpygui connect 192.168.1.23

  # Mirror on a non-default port
  scrcpygui connect 192.168.1.23 --port 5557`,
	Args: cobra.ExactArgs(1),
	RunE: runConnect,
}

func runConnect(cmd *cobra.Command, args []string) error {
	address := args[0]
	if net.ParseIP(address) == nil {
		return fmt.Errorf("invalid IP address: %s", address)
	}

	s, err := buildStack(true)
	if err != nil {
		return err
	}

	s.devs.Replace([]*devices.Device{{
		Address:      address,
		Port:         s.port,
		Status:       devices.StatusUnknown,
		Source:       devices.SourceSweep,
		DiscoveredAt: time.Now(),
	}})
	if _, err := s.devs.Select(address); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap, err := s.orch.Start(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Mirroring %s. Press 'o' + enter to toggle the screen, 'q' + enter to quit.\n", snap.Endpoint)

	input := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			input <- scanner.Text()
		}
		close(input)
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return s.orch.Stop()

		case <-ticker.C:
			if s.orch.State() == session.StateEnded {
				fmt.Println("Mirror closed.")
				return nil
			}

		case line, ok := <-input:
			if !ok {
				return s.orch.Stop()
			}
			switch line {
			case "o", "O":
				on, err := s.orch.ToggleScreen(ctx)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Toggle failed: %v\n", err)
				} else if on {
					fmt.Println("Screen on.")
				} else {
					fmt.Println("Screen off.")
				}
			case "q", "Q":
				return s.orch.Stop()
			}
		}
	}
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <address> on|off",
	Short: "Turn a connected device's screen on or off",
	Long: `Send the screen key event directly to a device already registered with
adb (for example one being mirrored from another terminal). Unlike the
toggle inside the interactive interface this takes an explicit target
state, so it cannot drift.`,
	Example: `  scrcpygui toggle 192.168.1.23 off
  scrcpygui toggle 192.168.1.23 on`,
	Args: cobra.ExactArgs(2),
	RunE: runToggle,
}

func runToggle(cmd *cobra.Command, args []string) error {
	address, state := args[0], args[1]
	if net.ParseIP(address) == nil {
		return fmt.Errorf("invalid IP address: %s", address)
	}
	var turnOn bool
	switch state {
	case "on":
		turnOn = true
	case "off":
		turnOn = false
	default:
		return fmt.Errorf("state must be \"on\" or \"off\", got %q", state)
	}

	s, err := buildStack(false)
	if err != nil {
		return err
	}
	if !s.adb.Available() {
		return fmt.Errorf("adb not found; install android platform-tools or pass --adb")
	}

	endpoint := net.JoinHostPort(address, fmt.Sprintf("%d", s.port))
	if err := s.adb.SendToggle(cmd.Context(), endpoint, turnOn); err != nil {
		return err
	}
	fmt.Printf("Screen %s for %s\n", state, endpoint)
	return nil
}

var nicknameCmd = &cobra.Command{
	Use:   "nickname <address> <name>",
	Short: "Give a device address a name shown in scan results",
	Example: `  scrcpygui nickname 192.168.1.23 pixel-7

  # Clear a nickname
  scrcpygui nickname 192.168.1.23 ""`,
	Args: cobra.ExactArgs(2),
	RunE: runNickname,
}

func runNickname(cmd *cobra.Command, args []string) error {
	address, name := args[0], args[1]
	if net.ParseIP(address) == nil {
		return fmt.Errorf("invalid IP address: %s", address)
	}

	cfg, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.SetDeviceNickname(address, name)
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if name == "" {
		fmt.Printf("Cleared nickname for %s\n", address)
	} else {
		fmt.Printf("%s is now %q\n", address, name)
	}
	return nil
}
