// Package flags provides helpers for binding yes/no toggles and choice flags to Cobra commands.
package flags
