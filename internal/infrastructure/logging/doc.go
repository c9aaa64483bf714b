// Package logging wraps log/slog for the item bridge.
//
// Every component logs through the same *Logger so output shares one
// format (JSON for machines, text for people), one level filter and
// the default service/version fields. Configured from the logging
// section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Components that only need a subset of the interface declare their
// own small Logger interface and accept this one.
//
// Never log broker credentials, API tokens or other secrets.
package logging
