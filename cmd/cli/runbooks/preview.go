package runbooks

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/upmerge/internal/dependencies"
	"github.com/temirov/upmerge/internal/merge"
	"github.com/temirov/upmerge/internal/octopus"
	"github.com/temirov/upmerge/internal/preview"
	"github.com/temirov/upmerge/internal/reporting"
	"github.com/temirov/upmerge/internal/templateguard"
	"github.com/temirov/upmerge/internal/utils/flags"
	"github.com/temirov/upmerge/internal/variables"
)

const (
	previewUseConstant              = "preview"
	previewShortDescriptionConstant = "Show the upstream changes pending for one downstream repository"
	previewLongDescriptionConstant  = "preview clones one downstream repository with the upstream template as a second remote and reports the diff between them. Nothing is pushed. With --generate-diff the diff is rendered as an HTML report and published as an artifact."
	variableRepositoryNameConstant  = "Git.Url.RepoName"
	silentFailureLogMessageConstant = "preview stopped without failing"
)

// PreviewCommandBuilder assembles the preview command.
type PreviewCommandBuilder struct {
	Runtime
}

// Build constructs the preview command.
func (builder *PreviewCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   previewUseConstant,
		Short: previewShortDescriptionConstant,
		Long:  previewLongDescriptionConstant,
	}
	registerRepositoryOptions(command)

	var generateDiff bool
	var silentFail bool
	flags.AddToggleFlag(command.Flags(), &generateDiff, flagGenerateDiffNameConstant, false, flagGenerateDiffUsageConstant)
	flags.AddToggleFlag(command.Flags(), &silentFail, flagSilentFailNameConstant, false, flagSilentFailUsageConstant)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		runError := builder.run(command, arguments, generateDiff)
		if runError == nil || !silentFail || !isSilenceable(runError) {
			return runError
		}
		resolveLogger(builder.LoggerProvider).Info(silentFailureLogMessageConstant, zap.Error(runError))
		return nil
	}
	return command, nil
}

func (builder *PreviewCommandBuilder) run(command *cobra.Command, arguments []string, generateDiff bool) error {
	if argumentsError := rejectArguments(command, arguments); argumentsError != nil {
		return argumentsError
	}

	variableResolver := builder.resolver(variables.PreviewMergePrefix)
	options := repositoryOptions{RepositoryName: variableResolver.Value(variableRepositoryNameConstant)}
	if decodeError := variableResolver.Decode(&options); decodeError != nil {
		return decodeError
	}
	applyFlagOverrides(command, options.bindings())
	if validationError := options.validate(); validationError != nil {
		return validationError
	}

	activeSession, sessionError := builder.openSession(command)
	if sessionError != nil {
		return sessionError
	}
	configuration := activeSession.configuration
	if len(options.Workspace) > 0 {
		configuration.Merge.Workspace = options.Workspace
	}

	target, targetError := options.resolveTarget()
	if targetError != nil {
		return targetError
	}
	credentials := options.credentials()
	if availabilityError := builder.verifyRepositories(command, activeSession, credentials, target.descriptor.CloneURL, target.upstreamURL); availabilityError != nil {
		activeSession.reporter.Printf("%s", availabilityError.Error())
		return availabilityError
	}

	run, runError := buildRunContext(configuration, credentials, options.Branch, target.upstreamURL)
	if runError != nil {
		return runError
	}
	engine, engineError := builder.newEngine(activeSession, merge.SilentNarrator{})
	if engineError != nil {
		return engineError
	}

	outputDirectory := configuration.Preview.OutputDirectory
	if len(outputDirectory) > 0 {
		resolvedDirectory, resolveError := resolveWorkspace(outputDirectory)
		if resolveError != nil {
			return resolveError
		}
		outputDirectory = resolvedDirectory
	}
	publisher := dependencies.ResolveArtifactPublisher(
		builder.ArtifactPublisher,
		activeSession.reporter.Format() == reporting.FormatOctopus,
		octopus.NewServiceMessageWriter(activeSession.reporter.Output()),
		configuration.Preview.ArtifactDirectory,
	)

	previewer, previewerError := preview.NewPreviewer(preview.Configuration{OutputDirectory: outputDirectory}, preview.Dependencies{
		Engine:            engine,
		TemplateChecker:   newTemplateGuard(activeSession),
		DiffRenderer:      activeSession.executor,
		ArtifactPublisher: publisher,
		Reporter:          activeSession.reporter,
		Logger:            activeSession.logger,
	})
	if previewerError != nil {
		return previewerError
	}

	_, previewError := previewer.Preview(command.Context(), preview.Request{
		Run:          run,
		Repository:   target.descriptor,
		GenerateDiff: generateDiff,
	})
	if errors.Is(previewError, templateguard.ErrForbiddenTemplateReference) {
		activeSession.reporter.Printf("%s", previewError.Error())
	}
	return previewError
}

// isSilenceable reports whether --silent-fail turns the error into a successful exit.
func isSilenceable(runError error) bool {
	return errors.Is(runError, ErrRepositoryUnavailable) || errors.Is(runError, templateguard.ErrForbiddenTemplateReference)
}
