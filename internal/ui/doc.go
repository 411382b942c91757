// Package ui implements the interactive terminal interface.
//
// The application is a single bubbletea model moving through three phases:
// a network sweep with live progress, the discovered device list, and the
// session panel for an active mirror. Sweep progress flows from the scan
// coordinator's callback into the update loop over a channel, so the
// progress bar tracks real probe completions rather than a timer.
package ui
