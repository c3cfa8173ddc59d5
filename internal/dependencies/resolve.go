package dependencies

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/temirov/upmerge/internal/execshell"
	"github.com/temirov/upmerge/internal/gitrepo"
	"github.com/temirov/upmerge/internal/octopus"
	"github.com/temirov/upmerge/internal/ui"
)

// ToolExecutor runs the external tools orchestrated by the runbook commands.
type ToolExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteTerraform(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteDiffRenderer(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// HTTPClient performs HTTP requests for the repository probe and the space lookup.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// ResolveToolExecutor returns the provided executor or constructs a shell-backed default.
// Human-readable logging renders command events through the console logger instead of
// structured executor logs.
func ResolveToolExecutor(existing ToolExecutor, logger *zap.Logger, humanReadableLogging bool, observers ...execshell.CommandEventObserver) (ToolExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	executorLogger := logger
	options := make([]execshell.ExecutorOption, 0, len(observers)+1)
	if humanReadableLogging {
		executorLogger = zap.NewNop()
		options = append(options, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(logger)))
	}
	for _, observer := range observers {
		options = append(options, execshell.WithCommandEventObserver(observer))
	}

	shellExecutor, creationError := execshell.NewShellExecutor(executorLogger, execshell.NewOSCommandRunner(), options...)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveHTTPClient returns the provided client or http.DefaultClient.
func ResolveHTTPClient(existing HTTPClient) HTTPClient {
	if existing != nil {
		return existing
	}
	return http.DefaultClient
}

// ResolveReferenceInspector returns the provided inspector or the go-git implementation.
func ResolveReferenceInspector(existing gitrepo.ReferenceInspector) gitrepo.ReferenceInspector {
	if existing != nil {
		return existing
	}
	return gitrepo.GoGitReferenceInspector{}
}

// ResolveArtifactPublisher selects how generated reports are published: service messages
// when running under Octopus, a copy into artifactDirectory when one is configured, and
// nothing otherwise.
func ResolveArtifactPublisher(existing octopus.ArtifactPublisher, octopusOutput bool, messages octopus.ServiceMessageWriter, artifactDirectory string) octopus.ArtifactPublisher {
	switch {
	case existing != nil:
		return existing
	case octopusOutput:
		return octopus.ServiceMessagePublisher{Messages: messages}
	case len(artifactDirectory) > 0:
		return octopus.DirectoryArtifactPublisher{Directory: artifactDirectory}
	default:
		return octopus.NoopArtifactPublisher{}
	}
}
