// Package reporting writes operator-facing runbook output.
//
// Plain format keeps normal and highlighted lines on standard output and verbose
// detail on standard error. Octopus format wraps verbose and highlighted lines in
// service messages so the server renders them at the matching priority.
package reporting
