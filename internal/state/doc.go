// Package state shares connectivity data between the background poller and
// the UI.
//
// The poller is the single writer: after each connectivity sweep it calls
// Store.Update with the per-candidate probe results. The UI reads with
// Store.Snapshot on its own tick. Snapshots are copies, so the UI can hold
// on to one while the next sweep lands.
//
// A failed sweep still replaces the probe list so every candidate's latest
// error is visible, and it bumps ConsecutiveFailures. IsOffline reports two
// or more failures in a row. The resolved endpoint is sticky: once known it
// is only replaced by another non-empty value.
//
// The zero Store is ready to use.
package state
