// Package cli constructs the upmerge command-line interface, wiring the Cobra
// command hierarchy, the configuration loader, and structured logging. It exposes
// helpers to build application instances and to run them with explicit streams.
package cli
