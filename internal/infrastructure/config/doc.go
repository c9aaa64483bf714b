// Package config loads and validates the item bridge configuration.
//
// Configuration comes from a YAML file, with defaults applied first
// and ITEMBRIDGE_* environment variables layered on top for values
// that should stay out of the file (broker credentials, API tokens).
// Load reads, overrides and validates in one call:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The file should be readable by the service user only (0600).
// Loading happens once at startup; the returned Config is treated as
// read-only afterwards.
package config
