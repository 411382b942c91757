package scan

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/riloraspopo/scrcpygui/internal/logging"
)

// Probe attempts a direct TCP connection to address:port within the given
// timeout. Reachable means a listener accepted the connection; the socket is
// closed immediately, reachability is the probe's only purpose.
//
// Refusal and timeout are both ordinary unreachable outcomes, not errors.
// Only malformed input (invalid address syntax) returns an error.
func Probe(address string, port int, timeout time.Duration) (bool, error) {
	if net.ParseIP(address) == nil {
		return false, fmt.Errorf("malformed probe address %q", address)
	}
	if port < 1 || port > 65535 {
		return false, fmt.Errorf("probe port %d out of range", port)
	}

	start := time.Now()
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(address, strconv.Itoa(port)), timeout)
	reachable := err == nil
	if reachable {
		conn.Close()
	}
	logging.LogProbe(address, port, reachable, time.Since(start))
	return reachable, nil
}
