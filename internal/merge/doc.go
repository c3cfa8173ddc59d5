// Package merge merges an upstream template repository into downstream repositories.
//
// Each repository is processed in its own working copy under the run's workspace root. The
// engine classifies every attempt as up to date, conflicted, merged, push failed, or failed,
// and a conflicted attempt is abandoned with instructions for resolving it by hand.
package merge
