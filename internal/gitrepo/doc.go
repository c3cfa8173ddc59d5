// Package gitrepo describes remote repositories and the local working copies cloned from them.
//
// RepositoryLocator builds public repository URLs, SensitiveURL carries the credentialed
// form handed to git while rendering only the public form, AvailabilityChecker probes a
// repository over HTTP, and GoGitReferenceInspector answers ref questions about a clone.
package gitrepo
