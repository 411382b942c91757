// Package scrcpy launches and supervises scrcpy mirror processes.
//
// A mirror runs as a child process started with --tcpip pointed at the
// device endpoint. The returned Handle exposes the process lifecycle: a
// done channel for exit notification, the exit error, and a Stop that
// escalates from SIGTERM to SIGKILL.
package scrcpy
