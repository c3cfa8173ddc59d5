package gitrepo

import (
	"regexp"
	"strings"
)

const repositoryNameSeparatorConstant = "_"

var nonAlphanumericPattern = regexp.MustCompile(`[^a-z0-9]`)

// SanitizeName converts a project or tenant display name into the repository naming convention:
// lower case with every non-alphanumeric character replaced by an underscore.
func SanitizeName(displayName string) string {
	return nonAlphanumericPattern.ReplaceAllString(strings.ToLower(displayName), repositoryNameSeparatorConstant)
}

// DownstreamRepositoryName derives the tenant-specific repository name for a project.
func DownstreamRepositoryName(tenantName string, projectName string) string {
	return SanitizeName(tenantName) + repositoryNameSeparatorConstant + SanitizeName(projectName)
}
