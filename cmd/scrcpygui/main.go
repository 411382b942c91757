// Scrcpygui finds Android devices on the local network and mirrors them.
//
// It sweeps the local subnet for hosts listening on the wireless debugging
// port, presents the results in an interactive terminal interface, and
// drives adb and scrcpy to establish a mirroring session for the device you
// pick. The screen of a mirrored device can be toggled off so it can sit
// dark while you work in the mirror window.
//
// Usage:
//
//	scrcpygui            # interactive: scan, pick, mirror
//	scrcpygui scan       # plain sweep, print devices, exit
//	scrcpygui connect IP # skip the scan, mirror a known address
//
// See 'scrcpygui --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/riloraspopo/scrcpygui/internal/logging"
	"github.com/riloraspopo/scrcpygui/internal/version"
)

func main() {
	logging.InitializeFromEnv()
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scrcpygui",
	Short: "LAN scanner and mirroring frontend for Android devices",
	Long: `Scrcpygui discovers Android devices with wireless debugging enabled on
your local network and mirrors them with scrcpy.

Run without arguments for the interactive interface: it scans your subnet,
lists devices that answer on the debug port, and connects to the one you
select. While a mirror is up, press 'o' to toggle the device screen off and
on without ending the session.

Requires the adb and scrcpy binaries. On Debian/Ubuntu:

  sudo apt install adb scrcpy`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runInteractive,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagCIDR, "cidr", "", "Subnet to sweep in CIDR form (default: autodetect, e.g. 192.168.1.0/24)")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", 0, "TCP port devices listen on (default 5555)")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "Per-host probe timeout (default 500ms)")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "Concurrent probe workers (default 100)")
	rootCmd.PersistentFlags().StringVar(&flagAdb, "adb", "", "Path to the adb binary (default: adb from PATH)")
	rootCmd.PersistentFlags().StringVar(&flagScrcpy, "scrcpy", "", "Path to the scrcpy binary (default: scrcpy from PATH)")
	rootCmd.PersistentFlags().BoolVar(&flagMDNS, "mdns", false, "Also browse mDNS for wireless debugging services")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(nicknameCmd)
}
