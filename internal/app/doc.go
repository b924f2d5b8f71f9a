// Package app wires configuration, logging, the classifier client, history,
// the connectivity poller and the UI together.
//
// Run loads config.toml, opens the log file, and builds a classifier.Client
// from the configured candidate endpoints. When one of the headless options
// is set it performs that single operation, prints JSON to stdout and
// returns. Otherwise it starts the background poller and blocks in the TUI.
//
// The poller sweeps every candidate with TestConnectivity. It never changes
// which endpoint the client resolved; it only feeds the diagnostics view.
// While no candidate answers, sweeps back off exponentially up to five
// minutes.
//
// History is optional. If the database cannot be opened the failure is
// logged and the app runs without it.
package app
