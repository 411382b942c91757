// Package devices holds the device model and the device registry.
//
// The registry is the only state shared between the scan path and the
// selection path, so its contents are only ever updated by atomic wholesale
// swaps: a completed scan run hands its full result to Replace, and
// concurrent readers observe either the old set or the new set, never a mix.
// At most one device carries the selection at a time.
package devices
