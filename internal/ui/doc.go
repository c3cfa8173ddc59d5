// Package ui provides helpers for formatting human-readable console output.
//
// ConsoleCommandEventLogger turns command lifecycle events into concise log
// lines, and OutcomeSummaryRenderer prints the table shown after a fan-out
// merge run. Detailed telemetry continues to flow through structured loggers.
package ui
