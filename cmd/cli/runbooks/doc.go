// Package runbooks exposes the Cobra commands run by the template merge runbooks:
// merge-all, merge, preview, and space-lookup.
//
// Inputs resolve in order: an explicitly set flag, then the runbook variables (plain keys
// such as Git.Url.Host before their step template prefixed forms), then configuration.
package runbooks
