// Package adb wraps the Android debug bridge binary.
//
// It implements two of the session collaborator capabilities: registering a
// device address as a bridge target ("adb connect", idempotent) and sending
// the screen on/off key events ("adb shell input keyevent"). Every
// invocation runs under a bounded timeout; adb's own exit codes are
// unreliable for connect, so its output text is parsed instead.
package adb
