// Package session drives the mirroring session lifecycle.
//
// A session moves idle -> connecting -> active -> ended, or lands in failed
// from connecting with the failing step recorded. Establishment is strictly
// ordered: the debug bridge target must be registered before the mirror
// launches, because the mirror connects through the bridge. The orchestrator
// talks to its collaborators through small capability interfaces so the
// process-spawning implementations stay swappable in tests.
package session
