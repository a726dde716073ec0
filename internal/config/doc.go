// Package config loads server, database, auth, scheduler and tracing settings
// from defaults, an optional YAML file and KIOKU_* environment variables, and
// validates them before anything is wired.
package config
