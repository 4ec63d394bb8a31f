// Package config loads the stall configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/stall/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Default Values
//
//   - Config file: ~/.config/stall/config.toml
//   - API endpoint: https://next-sale-server.vercel.app
//   - Log directory: ~/.local/share/stall
//   - Log file: <log_dir>/stall.log
//   - Offline cache: <log_dir>/cache.db
//   - Poll interval: 30 seconds
//   - Search timings: the search package defaults (300ms debounce, 500ms minimum)
//
// # TOML Format
//
//	api_url = "https://next-sale-server.vercel.app"
//	identity_url = "https://identitytoolkit.googleapis.com/v1"
//	token_url = "https://securetoken.googleapis.com/v1"
//	api_key = "<web api key>"
//	log_dir = "~/.local/share/stall"
//	cache_path = "~/.local/share/stall/cache.db"
//	poll_seconds = 30
//
//	[search]
//	debounce_ms = 300
//	min_search_ms = 500
//
// Every field is optional. Tilde expansion is performed for log_dir and
// cache_path. A negative min_search_ms turns off the minimum searching
// duration; a negative debounce_ms is rejected.
//
// # Error Handling
//
// Missing config files are not an error. Load returns errors for path
// expansion failures, read errors and TOML parse errors.
package config
