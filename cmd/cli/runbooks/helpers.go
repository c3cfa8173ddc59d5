package runbooks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/upmerge/internal/dependencies"
	"github.com/temirov/upmerge/internal/gitrepo"
	"github.com/temirov/upmerge/internal/merge"
	"github.com/temirov/upmerge/internal/octopus"
	"github.com/temirov/upmerge/internal/reporting"
	"github.com/temirov/upmerge/internal/templateguard"
	"github.com/temirov/upmerge/internal/utils"
	pathutils "github.com/temirov/upmerge/internal/utils/path"
	"github.com/temirov/upmerge/internal/variables"
)

const (
	defaultBranchConstant                    = "main"
	defaultProtocolConstant                  = "https"
	unexpectedArgumentsTemplateConstant      = "%s does not accept positional arguments"
	requiredOptionTemplateConstant           = "%s is required; set the --%s flag or the %s variable"
	workspaceResolutionErrorTemplateConstant = "resolve workspace %s: %w"
	repositoryURLErrorTemplateConstant       = "build repository url: %w"
	downstreamUnavailableTemplateConstant    = "Downstream repo %s is not available"
	upstreamUnavailableTemplateConstant      = "Upstream repo %s is not available"
	outputFormatErrorTemplateConstant        = "output format: %w"
	identityScopeErrorTemplateConstant       = "identity scope %q: %w"
	repositoryUnavailableMessageConstant     = "repository unavailable"
)

// ErrRepositoryUnavailable indicates the downstream or upstream repository did not answer the probe.
var ErrRepositoryUnavailable = errors.New(repositoryUnavailableMessageConstant)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// Runtime carries the collaborators shared by the runbook commands. Nil collaborators are
// replaced by production implementations when a command runs.
type Runtime struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() ToolsConfiguration
	VariableSourcesProvider      func() []variables.Source
	Executor                     dependencies.ToolExecutor
	HTTPClient                   dependencies.HTTPClient
	ReferenceInspector           gitrepo.ReferenceInspector
	ArtifactPublisher            octopus.ArtifactPublisher
	Sleeper                      octopus.Sleeper
}

// session bundles what a single command invocation needs.
type session struct {
	logger        *zap.Logger
	reporter      *reporting.Reporter
	executor      dependencies.ToolExecutor
	configuration ToolsConfiguration
	humanReadable bool
}

func (runtime Runtime) openSession(command *cobra.Command) (*session, error) {
	logger := resolveLogger(runtime.LoggerProvider)

	outputFormat, _ := utils.NewCommandContextAccessor().OutputFormat(command.Context())
	format, formatError := reporting.ParseFormat(outputFormat)
	if formatError != nil {
		return nil, fmt.Errorf(outputFormatErrorTemplateConstant, formatError)
	}
	reporter := reporting.NewReporter(format, command.OutOrStdout(), command.ErrOrStderr())

	humanReadable := false
	if runtime.HumanReadableLoggingProvider != nil {
		humanReadable = runtime.HumanReadableLoggingProvider()
	}
	executor, executorError := dependencies.ResolveToolExecutor(runtime.Executor, logger, humanReadable, reporting.NewCommandTranscriptObserver(reporter))
	if executorError != nil {
		return nil, executorError
	}

	configuration := DefaultToolsConfiguration()
	if runtime.ConfigurationProvider != nil {
		configuration = runtime.ConfigurationProvider()
	}

	return &session{
		logger:        logger,
		reporter:      reporter,
		executor:      executor,
		configuration: configuration.Sanitize(),
		humanReadable: humanReadable,
	}, nil
}

func (runtime Runtime) resolver(prefixes ...string) variables.Resolver {
	var sources []variables.Source
	if runtime.VariableSourcesProvider != nil {
		sources = runtime.VariableSourcesProvider()
	} else {
		sources = []variables.Source{variables.EnvironmentSource{}}
	}
	return variables.NewResolver(sources, prefixes...)
}

func (runtime Runtime) newEngine(activeSession *session, narrator merge.Narrator) (*merge.Engine, error) {
	return merge.NewEngine(merge.Dependencies{
		GitExecutor:        activeSession.executor,
		ReferenceInspector: dependencies.ResolveReferenceInspector(runtime.ReferenceInspector),
		Narrator:           narrator,
		Logger:             activeSession.logger,
	})
}

func newTemplateGuard(activeSession *session) *templateguard.Guard {
	return templateguard.NewGuard(templateguard.Configuration{
		ProjectDirectory: activeSession.configuration.Merge.ProjectDirectory,
		ForbiddenMarker:  activeSession.configuration.Merge.ForbiddenMarker,
	}, activeSession.logger)
}

// stringOption binds a string flag to the value resolved from variables. A changed flag wins.
type stringOption struct {
	flagName string
	usage    string
	target   *string
}

func registerStringOptions(command *cobra.Command, options []stringOption) {
	for _, option := range options {
		command.Flags().String(option.flagName, "", option.usage)
	}
}

func applyFlagOverrides(command *cobra.Command, options []stringOption) {
	for _, option := range options {
		if !command.Flags().Changed(option.flagName) {
			continue
		}
		flagValue, _ := command.Flags().GetString(option.flagName)
		*option.target = flagValue
	}
}

func requireOption(value string, description string, flagName string, variableKey string) error {
	if len(strings.TrimSpace(value)) > 0 {
		return nil
	}
	return fmt.Errorf(requiredOptionTemplateConstant, description, flagName, variableKey)
}

func rejectArguments(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 {
		return nil
	}
	return fmt.Errorf(unexpectedArgumentsTemplateConstant, command.Name())
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveWorkspace(configuredWorkspace string) (string, error) {
	workspace, resolveError := pathutils.NewPathResolver().Resolve(configuredWorkspace)
	if resolveError != nil {
		return "", fmt.Errorf(workspaceResolutionErrorTemplateConstant, configuredWorkspace, resolveError)
	}
	return workspace, nil
}

func buildRunContext(configuration ToolsConfiguration, credentials gitrepo.Credentials, branch string, upstreamURL string) (*merge.RunContext, error) {
	scope, scopeError := merge.ParseIdentityScope(configuration.Merge.Identity.Scope)
	if scopeError != nil {
		return nil, fmt.Errorf(identityScopeErrorTemplateConstant, configuration.Merge.Identity.Scope, scopeError)
	}
	workspace, workspaceError := resolveWorkspace(configuration.Merge.Workspace)
	if workspaceError != nil {
		return nil, workspaceError
	}
	upstreamSensitiveURL, urlError := gitrepo.NewSensitiveURL(upstreamURL, credentials)
	if urlError != nil {
		return nil, fmt.Errorf(repositoryURLErrorTemplateConstant, urlError)
	}

	targetBranch := strings.TrimSpace(branch)
	if len(targetBranch) == 0 {
		targetBranch = defaultBranchConstant
	}
	return &merge.RunContext{
		Identity:         merge.Identity{Name: configuration.Merge.Identity.Name, Email: configuration.Merge.Identity.Email, Scope: scope},
		Credentials:      credentials,
		Branch:           targetBranch,
		Upstream:         merge.UpstreamReference{RepositoryURL: upstreamSensitiveURL, Branch: targetBranch},
		MainlineBranches: configuration.Merge.MainlineBranches,
		WorkspaceRoot:    workspace,
	}, nil
}

func repositoryURL(protocol string, host string, organization string, repository string) (string, error) {
	if len(strings.TrimSpace(protocol)) == 0 {
		protocol = defaultProtocolConstant
	}
	publicURL, locatorError := gitrepo.RepositoryLocator{
		Protocol:     gitrepo.RemoteProtocol(protocol),
		Host:         host,
		Organization: organization,
		Repository:   repository,
	}.PublicURL()
	if locatorError != nil {
		return "", fmt.Errorf(repositoryURLErrorTemplateConstant, locatorError)
	}
	return publicURL, nil
}

// repositoryUnavailableError carries the operator-facing message for a failed probe.
type repositoryUnavailableError struct {
	message string
}

func (unavailable repositoryUnavailableError) Error() string {
	return unavailable.message
}

func (unavailable repositoryUnavailableError) Unwrap() error {
	return ErrRepositoryUnavailable
}

func (runtime Runtime) verifyRepositories(command *cobra.Command, activeSession *session, credentials gitrepo.Credentials, downstreamURL string, upstreamURL string) error {
	checker := gitrepo.NewAvailabilityChecker(dependencies.ResolveHTTPClient(runtime.HTTPClient), activeSession.logger)
	if !checker.Exists(command.Context(), downstreamURL, credentials) {
		return repositoryUnavailableError{message: fmt.Sprintf(downstreamUnavailableTemplateConstant, downstreamURL)}
	}
	if !checker.Exists(command.Context(), upstreamURL, credentials) {
		return repositoryUnavailableError{message: fmt.Sprintf(upstreamUnavailableTemplateConstant, upstreamURL)}
	}
	return nil
}
