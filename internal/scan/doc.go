// Package scan implements the concurrent reachability sweep that discovers
// Android devices exposing a debug bridge port.
//
// A probe is a single bounded-timeout TCP connect against one address:port
// pair; the coordinator fans probes out across every usable host address in
// a subnet range, capped by a fixed worker budget so resource usage stays
// bounded regardless of subnet size. Probe completion order is unconstrained
// and does not affect the final reachable set.
//
// Cancellation is cooperative: the dispatcher stops handing out addresses,
// in-flight probes finish or time out naturally, and the partial live set is
// returned rather than discarded.
package scan
