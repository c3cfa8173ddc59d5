package runbooks

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/upmerge/internal/merge"
	"github.com/temirov/upmerge/internal/templateguard"
	"github.com/temirov/upmerge/internal/variables"
)

const (
	mergeUseConstant                  = "merge"
	mergeShortDescriptionConstant     = "Merge the upstream template into one downstream repository"
	mergeLongDescriptionConstant      = "merge clones one downstream repository, merges the upstream template branch into it, and pushes the result. Conflicts are never pushed; the command prints the steps for resolving them by hand."
	mergeConflictedMessageConstant    = "merge conflicts require manual resolution"
	mergePushFailedMessageConstant    = "push of the merged branch failed"
	mergeFailedErrorTemplateConstant  = "merge %s: %w"
	mergeOutcomeErrorTemplateConstant = "%w: %s"
)

// ErrMergeConflicted indicates the downstream repository needs a manual merge.
var ErrMergeConflicted = errors.New(mergeConflictedMessageConstant)

// ErrMergePushFailed indicates the merge commit could not be pushed.
var ErrMergePushFailed = errors.New(mergePushFailedMessageConstant)

// MergeCommandBuilder assembles the merge command.
type MergeCommandBuilder struct {
	Runtime
}

// Build constructs the merge command.
func (builder *MergeCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   mergeUseConstant,
		Short: mergeShortDescriptionConstant,
		Long:  mergeLongDescriptionConstant,
		RunE:  builder.run,
	}
	registerRepositoryOptions(command)
	return command, nil
}

func (builder *MergeCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if argumentsError := rejectArguments(command, arguments); argumentsError != nil {
		return argumentsError
	}

	options := repositoryOptions{}
	if decodeError := builder.resolver(variables.MergeRepoPrefix).Decode(&options); decodeError != nil {
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
	engine, engineError := builder.newEngine(activeSession, merge.SingleRepositoryNarrator{Reporter: activeSession.reporter})
	if engineError != nil {
		return engineError
	}

	guardResult, guardError := engine.CheckTemplate(command.Context(), run, newTemplateGuard(activeSession))
	if guardError != nil {
		if errors.Is(guardError, templateguard.ErrForbiddenTemplateReference) {
			activeSession.reporter.Printf("%s", guardError.Error())
		}
		return guardError
	}
	if !guardResult.Performed {
		activeSession.reporter.Printf("%s", guardResult.Reason)
	}

	outcome := engine.MergeRepository(command.Context(), run, target.descriptor)
	return outcomeError(outcome)
}

// outcomeError converts a single-repository outcome into the command result.
func outcomeError(outcome merge.Outcome) error {
	switch outcome.Kind {
	case merge.OutcomeConflicted:
		return fmt.Errorf(mergeOutcomeErrorTemplateConstant, ErrMergeConflicted, outcome.RepositoryName)
	case merge.OutcomePushFailed:
		return fmt.Errorf(mergeOutcomeErrorTemplateConstant, ErrMergePushFailed, outcome.RepositoryName)
	case merge.OutcomeFailed:
		return fmt.Errorf(mergeFailedErrorTemplateConstant, outcome.RepositoryName, outcome.Cause)
	default:
		return nil
	}
}
