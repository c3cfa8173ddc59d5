// Package octopus talks to the Octopus Deploy server and its script runtime.
//
// SpaceClient resolves a tenant's space through the REST API with a bounded retry.
// ServiceMessageWriter and the ArtifactPublisher implementations emit the service
// messages a script step uses to set output variables and attach artifacts.
package octopus
