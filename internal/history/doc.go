// Package history mirrors item values into the optional time-series
// store. Sensor readings and variable values flow through; binary
// states and event fires do not.
package history
