// Package variables resolves runbook inputs from ordered variable sources.
//
// Sources are consulted first-match-wins and empty values fall through, mirroring
// how a step template parameter backs up a project variable of the same name.
package variables
