package pathutils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant                 = "~"
	tildeForwardSlashPrefixConstant     = "~/"
	pathResolutionErrorTemplateConstant = "unable to resolve path %q: %w"
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// PathResolver turns operator-supplied paths into absolute, home-expanded paths.
type PathResolver struct {
	homeDirectoryProvider HomeDirectoryProvider
	homeDirectory         string
	homeDirectoryError    error
	initializationGuard   sync.Once
}

// NewPathResolver constructs a PathResolver using the operating system lookup.
func NewPathResolver() *PathResolver {
	return NewPathResolverWithProvider(os.UserHomeDir)
}

// NewPathResolverWithProvider constructs a PathResolver with a custom home directory provider.
func NewPathResolverWithProvider(provider HomeDirectoryProvider) *PathResolver {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &PathResolver{homeDirectoryProvider: provider}
}

// Expand resolves a leading tilde to the user's home directory. Other paths are returned trimmed.
func (resolver *PathResolver) Expand(candidatePath string) string {
	trimmedPath := strings.TrimSpace(candidatePath)
	if resolver == nil || !strings.HasPrefix(trimmedPath, tildeSymbolConstant) {
		return trimmedPath
	}

	resolver.initializationGuard.Do(func() {
		resolver.homeDirectory, resolver.homeDirectoryError = resolver.homeDirectoryProvider()
	})
	if resolver.homeDirectoryError != nil || len(resolver.homeDirectory) == 0 {
		return trimmedPath
	}

	switch {
	case trimmedPath == tildeSymbolConstant:
		return resolver.homeDirectory
	case strings.HasPrefix(trimmedPath, tildeForwardSlashPrefixConstant):
		return filepath.Join(resolver.homeDirectory, strings.TrimPrefix(trimmedPath, tildeForwardSlashPrefixConstant))
	case strings.HasPrefix(trimmedPath, tildeSymbolConstant+string(os.PathSeparator)):
		return filepath.Join(resolver.homeDirectory, strings.TrimPrefix(trimmedPath, tildeSymbolConstant+string(os.PathSeparator)))
	default:
		return trimmedPath
	}
}

// Resolve expands and converts candidatePath into a cleaned absolute path.
// An empty candidate resolves to an empty string.
func (resolver *PathResolver) Resolve(candidatePath string) (string, error) {
	expandedPath := resolver.Expand(candidatePath)
	if len(expandedPath) == 0 {
		return "", nil
	}
	absolutePath, absoluteError := filepath.Abs(expandedPath)
	if absoluteError != nil {
		return "", fmt.Errorf(pathResolutionErrorTemplateConstant, candidatePath, absoluteError)
	}
	return absolutePath, nil
}
