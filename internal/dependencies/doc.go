// Package dependencies resolves the collaborators of the runbook commands, substituting
// production implementations for the ones a caller did not inject.
package dependencies
