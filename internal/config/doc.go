// Package config loads the cattlelens TOML configuration.
//
// Load reads ~/.config/cattlelens/config.toml unless an explicit path is
// given. A missing file is not an error; Default values are returned instead.
// Fields that are present but empty also fall back to their defaults.
//
// Example config.toml:
//
//	endpoints = ["http://10.248.154.68:8001", "http://localhost:8001"]
//	probe_timeout = "5s"
//	classify_timeout = "30s"
//	detect_timeout = "10s"
//	connectivity_timeout = "10s"
//	analyze_url = "http://127.0.0.1:8000"
//	log_dir = "~/.local/share/cattlelens"
//	history_db = "off"
//
// Endpoints are tried in the listed order. Entries without a scheme get
// http:// prepended. Durations use Go duration syntax and must be positive;
// anything else fails with a parse error. history_db defaults to history.db
// inside log_dir, and the value "off" disables history.
//
// Paths starting with ~ are expanded to the home directory and made absolute.
package config
