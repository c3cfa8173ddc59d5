package merge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/temirov/upmerge/internal/execshell"
	"github.com/temirov/upmerge/internal/gitrepo"
)

const (
	gitEditorVariableConstant            = "GIT_EDITOR"
	gitEditorNoopConstant                = "true"
	noCommonAncestorExitCodeConstant     = 1
	differencesFoundExitCodeConstant     = 1
	fallbackDirectoryNameConstant        = "repository"
	directoryNameTrimCharactersConstant  = "_"
	repositoryFailureTemplateConstant    = "%s: %w"
	cloneURLErrorTemplateConstant        = "prepare clone url: %w"
	mergeBaseErrorTemplateConstant       = "compute merge base: %w"
	revisionErrorTemplateConstant        = "resolve upstream revision: %w"
	trialMergeErrorTemplateConstant      = "trial merge: %w"
	commitMergeErrorTemplateConstant     = "commit merge: %w"
	compareUpstreamErrorTemplateConstant = "compare with upstream: %w"
	pushErrorTemplateConstant            = "push: %w"
	identityErrorTemplateConstant        = "configure git identity: %w"
	releaseFailedLogMessageConstant      = "failed to remove working copy"
	abortFailedLogMessageConstant        = "failed to abandon trial merge"
	outcomeLogMessageConstant            = "repository merge finished"
	logFieldRepositoryConstant           = "repository"
	logFieldSpaceConstant                = "space"
	logFieldOutcomeConstant              = "outcome"
	logFieldPathConstant                 = "path"
	logFieldUpstreamRevisionConstant     = "upstream_revision"
	logFieldMergeBaseConstant            = "merge_base"
)

// Dependencies wires the collaborators of an Engine.
type Dependencies struct {
	GitExecutor        GitExecutor
	ReferenceInspector gitrepo.ReferenceInspector
	Narrator           Narrator
	Logger             *zap.Logger
}

// Engine merges the upstream template into downstream repositories, one at a time.
type Engine struct {
	executor  GitExecutor
	inspector gitrepo.ReferenceInspector
	narrator  Narrator
	logger    *zap.Logger
}

// NewEngine constructs an Engine. The narrator defaults to one that discards messages and the
// reference inspector defaults to the go-git implementation.
func NewEngine(dependencies Dependencies) (*Engine, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorRequired
	}
	engine := &Engine{
		executor:  dependencies.GitExecutor,
		inspector: dependencies.ReferenceInspector,
		narrator:  dependencies.Narrator,
		logger:    dependencies.Logger,
	}
	if engine.inspector == nil {
		engine.inspector = gitrepo.GoGitReferenceInspector{}
	}
	if engine.narrator == nil {
		engine.narrator = SilentNarrator{}
	}
	if engine.logger == nil {
		engine.logger = zap.NewNop()
	}
	return engine, nil
}

// AcquireWorkingCopy creates an empty working copy directory under the run's workspace root.
// The directory must not already exist.
func (engine *Engine) AcquireWorkingCopy(run *RunContext, directoryName string) (*WorkingCopy, error) {
	if len(strings.TrimSpace(run.WorkspaceRoot)) == 0 {
		return nil, ErrWorkspaceRootRequired
	}
	return newWorkingCopy(engine.executor, engine.inspector, run, directoryName)
}

// ConfigureIdentity writes the run identity to the global git configuration when the identity
// scope is global. Environment-scoped identities need no preparation.
func (engine *Engine) ConfigureIdentity(executionContext context.Context, run *RunContext) error {
	if run.Identity.Scope != IdentityScopeGlobal {
		return nil
	}
	settings := [][2]string{{gitUserEmailKeyConstant, run.Identity.Email}, {gitUserNameKeyConstant, run.Identity.Name}}
	for _, setting := range settings {
		if len(setting[1]) == 0 {
			continue
		}
		_, configError := engine.executor.ExecuteGit(executionContext, execshell.CommandDetails{
			Arguments: []string{gitConfigSubcommandConstant, gitGlobalFlagConstant, setting[0], setting[1]},
		})
		if configError != nil {
			return fmt.Errorf(identityErrorTemplateConstant, configError)
		}
	}
	return nil
}

// MergeAll configures the identity once and merges every descriptor in order. A failure for
// one repository never stops the others. The returned error aggregates push failures and
// infrastructure failures; conflicts are outcomes, not errors.
func (engine *Engine) MergeAll(executionContext context.Context, run *RunContext, descriptors []gitrepo.RepositoryDescriptor) ([]Outcome, error) {
	if validationError := run.validate(); validationError != nil {
		return nil, validationError
	}
	if identityError := engine.ConfigureIdentity(executionContext, run); identityError != nil {
		return nil, identityError
	}

	var aggregatedError *multierror.Error
	outcomes := make([]Outcome, 0, len(descriptors))
	for _, descriptor := range descriptors {
		if contextError := executionContext.Err(); contextError != nil {
			aggregatedError = multierror.Append(aggregatedError, contextError)
			break
		}

		outcome := engine.MergeRepository(executionContext, run, descriptor)
		outcomes = append(outcomes, outcome)
		if outcome.Kind == OutcomePushFailed || outcome.Kind == OutcomeFailed {
			aggregatedError = multierror.Append(aggregatedError, fmt.Errorf(repositoryFailureTemplateConstant, outcome.RepositoryName, outcome.Cause))
		}
	}
	return outcomes, aggregatedError.ErrorOrNil()
}

// MergeRepository performs one merge attempt in a fresh working copy that is removed afterwards.
func (engine *Engine) MergeRepository(executionContext context.Context, run *RunContext, descriptor gitrepo.RepositoryDescriptor) Outcome {
	outcome := engine.attempt(executionContext, run, descriptor)
	engine.logOutcome(outcome)
	return outcome
}

func (engine *Engine) attempt(executionContext context.Context, run *RunContext, descriptor gitrepo.RepositoryDescriptor) Outcome {
	outcome := Outcome{
		RepositoryName: descriptor.Name,
		SpaceName:      descriptor.SpaceOrTenantKey,
		DownstreamURL:  descriptor.CloneURL,
		UpstreamURL:    run.Upstream.DisplayURL(),
	}

	if validationError := run.validate(); validationError != nil {
		return engine.fail(outcome, validationError)
	}

	downstreamURL, urlError := gitrepo.NewSensitiveURL(descriptor.CloneURL, run.Credentials)
	if urlError != nil {
		return engine.fail(outcome, fmt.Errorf(cloneURLErrorTemplateConstant, urlError))
	}
	outcome.DownstreamURL = downstreamURL.String()

	workingCopy, acquireError := engine.AcquireWorkingCopy(run, workingCopyDirectoryName(descriptor))
	if acquireError != nil {
		return engine.fail(outcome, acquireError)
	}
	defer engine.release(workingCopy)

	if setupError := workingCopy.CloneWithUpstream(executionContext, downstreamURL); setupError != nil {
		return engine.fail(outcome, setupError)
	}

	return engine.classify(executionContext, run, workingCopy, outcome)
}

func (engine *Engine) classify(executionContext context.Context, run *RunContext, workingCopy *WorkingCopy, outcome Outcome) Outcome {
	targetBranch := run.TargetBranch()
	upstreamTrackingBranch := UpstreamTrackingBranch(run.UpstreamBranch())

	mergeBase, mergeBaseError := engine.mergeBase(executionContext, workingCopy, targetBranch, upstreamTrackingBranch)
	if mergeBaseError != nil {
		return engine.fail(outcome, fmt.Errorf(mergeBaseErrorTemplateConstant, mergeBaseError))
	}
	outcome.LocalRevision = mergeBase

	revisionResult, revisionError := workingCopy.Git(executionContext, gitRevParseSubcommandConstant, upstreamTrackingBranch)
	if revisionError != nil {
		return engine.fail(outcome, fmt.Errorf(revisionErrorTemplateConstant, revisionError))
	}
	outcome.UpstreamRevision = strings.TrimSpace(revisionResult.StandardOutput)

	_, trialMergeError := workingCopy.Git(executionContext, gitMergeSubcommandConstant, gitNoCommitFlagConstant, gitNoFastForwardFlagConstant, upstreamTrackingBranch)
	trialMergeConflicted := false
	if trialMergeError != nil {
		if _, exited := execshell.ExitCodeOf(trialMergeError); !exited {
			return engine.fail(outcome, fmt.Errorf(trialMergeErrorTemplateConstant, trialMergeError))
		}
		trialMergeConflicted = true
	}

	switch {
	case outcome.LocalRevision == outcome.UpstreamRevision:
		outcome.Kind = OutcomeUpToDate
		engine.narrator.UpToDate(outcome)
	case trialMergeConflicted:
		if _, abortError := workingCopy.Git(executionContext, gitMergeSubcommandConstant, gitAbortFlagConstant); abortError != nil {
			engine.logger.Debug(abortFailedLogMessageConstant, zap.String(logFieldPathConstant, workingCopy.Path), zap.Error(abortError))
		}
		outcome.Kind = OutcomeConflicted
		engine.narrator.Conflicted(outcome, ResolutionTranscript(run, outcome.DownstreamURL))
	default:
		engine.narrator.Merging(outcome)
		outcome = engine.commitAndPush(executionContext, workingCopy, outcome)
	}
	return outcome
}

func (engine *Engine) commitAndPush(executionContext context.Context, workingCopy *WorkingCopy, outcome Outcome) Outcome {
	if _, commitError := workingCopy.GitWithEnvironment(executionContext, map[string]string{gitEditorVariableConstant: gitEditorNoopConstant}, gitMergeSubcommandConstant, gitContinueFlagConstant); commitError != nil {
		return engine.fail(outcome, fmt.Errorf(commitMergeErrorTemplateConstant, commitError))
	}

	_, diffError := workingCopy.Git(executionContext, gitDiffSubcommandConstant, gitQuietFlagConstant, gitExitCodeFlagConstant, gitUpstreamRevisionConstant)
	if diffError == nil {
		outcome.Kind = OutcomeUpToDate
		engine.narrator.NothingToPush(outcome)
		return outcome
	}
	if exitCode, exited := execshell.ExitCodeOf(diffError); !exited || exitCode != differencesFoundExitCodeConstant {
		return engine.fail(outcome, fmt.Errorf(compareUpstreamErrorTemplateConstant, diffError))
	}

	if _, pushError := workingCopy.Git(executionContext, gitPushSubcommandConstant, originRemoteNameConstant); pushError != nil {
		outcome.Kind = OutcomePushFailed
		outcome.Cause = fmt.Errorf(pushErrorTemplateConstant, pushError)
		engine.narrator.PushFailed(outcome)
		return outcome
	}

	outcome.Kind = OutcomeMerged
	engine.narrator.Merged(outcome)
	return outcome
}

// mergeBase returns the merge base, or an empty string when the branches share no history.
func (engine *Engine) mergeBase(executionContext context.Context, workingCopy *WorkingCopy, targetBranch string, upstreamTrackingBranch string) (string, error) {
	mergeBaseResult, mergeBaseError := workingCopy.Git(executionContext, gitMergeBaseSubcommandConstant, targetBranch, upstreamTrackingBranch)
	if mergeBaseError == nil {
		return strings.TrimSpace(mergeBaseResult.StandardOutput), nil
	}
	if exitCode, exited := execshell.ExitCodeOf(mergeBaseError); exited && exitCode == noCommonAncestorExitCodeConstant {
		return "", nil
	}
	return "", mergeBaseError
}

func (engine *Engine) fail(outcome Outcome, cause error) Outcome {
	outcome.Kind = OutcomeFailed
	outcome.Cause = cause
	engine.narrator.Failed(outcome)
	return outcome
}

func (engine *Engine) release(workingCopy *WorkingCopy) {
	if releaseError := workingCopy.Release(); releaseError != nil {
		engine.logger.Error(releaseFailedLogMessageConstant, zap.String(logFieldPathConstant, workingCopy.Path), zap.Error(releaseError))
	}
}

func (engine *Engine) logOutcome(outcome Outcome) {
	fields := []zap.Field{
		zap.String(logFieldRepositoryConstant, outcome.RepositoryName),
		zap.String(logFieldSpaceConstant, outcome.SpaceName),
		zap.String(logFieldOutcomeConstant, string(outcome.Kind)),
		zap.String(logFieldUpstreamRevisionConstant, outcome.UpstreamRevision),
		zap.String(logFieldMergeBaseConstant, outcome.LocalRevision),
	}
	if outcome.Cause != nil {
		engine.logger.Warn(outcomeLogMessageConstant, append(fields, zap.Error(outcome.Cause))...)
		return
	}
	engine.logger.Info(outcomeLogMessageConstant, fields...)
}

func workingCopyDirectoryName(descriptor gitrepo.RepositoryDescriptor) string {
	directoryName := strings.Trim(gitrepo.SanitizeName(descriptor.Name), directoryNameTrimCharactersConstant)
	if len(directoryName) == 0 {
		return fallbackDirectoryNameConstant
	}
	return directoryName
}

// IsRemoteBranchMissing reports whether an outcome failed because the target branch is absent from origin.
func IsRemoteBranchMissing(outcome Outcome) bool {
	return errors.Is(outcome.Cause, ErrRemoteBranchMissing)
}
