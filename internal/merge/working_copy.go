package merge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/temirov/upmerge/internal/execshell"
	"github.com/temirov/upmerge/internal/gitrepo"
)

const (
	currentDirectoryConstant                 = "."
	originRemoteNameConstant                 = "origin"
	upstreamRemoteNameConstant               = "upstream"
	upstreamBranchPrefixConstant             = "upstream-"
	remoteBranchSeparatorConstant            = "/"
	workspaceDirectoryPermissionConstant     = 0o755
	gitTerminalPromptVariableConstant        = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledConstant        = "0"
	gitAuthorNameVariableConstant            = "GIT_AUTHOR_NAME"
	gitAuthorEmailVariableConstant           = "GIT_AUTHOR_EMAIL"
	gitCommitterNameVariableConstant         = "GIT_COMMITTER_NAME"
	gitCommitterEmailVariableConstant        = "GIT_COMMITTER_EMAIL"
	acquireWorkingCopyErrorTemplateConstant  = "acquire working copy %s: %w"
	remoteBranchMissingErrorTemplateConstant = "%w: %s/%s"
	inspectRemoteBranchErrorTemplateConstant = "inspect remote branch %s/%s: %w"
)

// GitExecutor runs git.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// WorkingCopy is an exclusively owned checkout under the workspace root. It must be
// released before another working copy may use the same path.
type WorkingCopy struct {
	Path            string
	executor        GitExecutor
	inspector       gitrepo.ReferenceInspector
	run             *RunContext
	sensitiveValues []string
}

// UpstreamTrackingBranch names the local branch created from the upstream remote.
func UpstreamTrackingBranch(branch string) string {
	return upstreamBranchPrefixConstant + branch
}

func newWorkingCopy(executor GitExecutor, inspector gitrepo.ReferenceInspector, run *RunContext, directoryName string) (*WorkingCopy, error) {
	workingCopyPath := filepath.Join(run.WorkspaceRoot, directoryName)
	if _, statError := os.Lstat(workingCopyPath); statError == nil {
		return nil, fmt.Errorf(acquireWorkingCopyErrorTemplateConstant, workingCopyPath, ErrWorkingCopyExists)
	} else if !os.IsNotExist(statError) {
		return nil, fmt.Errorf(acquireWorkingCopyErrorTemplateConstant, workingCopyPath, statError)
	}
	if mkdirError := os.MkdirAll(workingCopyPath, workspaceDirectoryPermissionConstant); mkdirError != nil {
		return nil, fmt.Errorf(acquireWorkingCopyErrorTemplateConstant, workingCopyPath, mkdirError)
	}

	sensitiveValues := append(run.Credentials.SensitiveValues(), run.Upstream.RepositoryURL.SensitiveValues()...)
	return &WorkingCopy{
		Path:            workingCopyPath,
		executor:        executor,
		inspector:       inspector,
		run:             run,
		sensitiveValues: sensitiveValues,
	}, nil
}

// Release removes the working copy directory.
func (workingCopy *WorkingCopy) Release() error {
	return os.RemoveAll(workingCopy.Path)
}

// Git runs git inside the working copy with the run identity and prompts disabled.
func (workingCopy *WorkingCopy) Git(executionContext context.Context, arguments ...string) (execshell.ExecutionResult, error) {
	return workingCopy.GitWithEnvironment(executionContext, nil, arguments...)
}

// GitWithEnvironment runs git inside the working copy with additional environment variables.
func (workingCopy *WorkingCopy) GitWithEnvironment(executionContext context.Context, environment map[string]string, arguments ...string) (execshell.ExecutionResult, error) {
	environmentVariables := gitEnvironment(workingCopy.run.Identity)
	for name, value := range environment {
		environmentVariables[name] = value
	}
	return workingCopy.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     workingCopy.Path,
		EnvironmentVariables: environmentVariables,
		SensitiveValues:      workingCopy.sensitiveValues,
	})
}

// CloneBranch clones repositoryURL into the working copy and checks out branch.
func (workingCopy *WorkingCopy) CloneBranch(executionContext context.Context, repositoryURL gitrepo.SensitiveURL, branch string) error {
	workingCopy.sensitiveValues = append(workingCopy.sensitiveValues, repositoryURL.SensitiveValues()...)
	if _, cloneError := workingCopy.Git(executionContext, gitCloneSubcommandConstant, repositoryURL.Reveal(), currentDirectoryConstant); cloneError != nil {
		return cloneError
	}
	return workingCopy.checkoutBranch(executionContext, branch)
}

// CloneWithUpstream clones the downstream repository, registers the upstream remote, creates
// the upstream tracking branch, and checks out the target branch.
func (workingCopy *WorkingCopy) CloneWithUpstream(executionContext context.Context, downstreamURL gitrepo.SensitiveURL) error {
	workingCopy.sensitiveValues = append(workingCopy.sensitiveValues, downstreamURL.SensitiveValues()...)
	upstreamBranch := workingCopy.run.UpstreamBranch()

	setupSteps := [][]string{
		{gitCloneSubcommandConstant, downstreamURL.Reveal(), currentDirectoryConstant},
		{gitRemoteSubcommandConstant, gitAddActionConstant, upstreamRemoteNameConstant, workingCopy.run.Upstream.RepositoryURL.Reveal()},
		{gitFetchSubcommandConstant, gitAllFlagConstant},
		{gitCheckoutSubcommandConstant, gitCreateBranchFlagConstant, UpstreamTrackingBranch(upstreamBranch), upstreamRemoteNameConstant + remoteBranchSeparatorConstant + upstreamBranch},
	}
	for _, setupStep := range setupSteps {
		if _, stepError := workingCopy.Git(executionContext, setupStep...); stepError != nil {
			return stepError
		}
	}
	return workingCopy.checkoutBranch(executionContext, workingCopy.run.TargetBranch())
}

// checkoutBranch checks out mainline branches directly and creates other branches from their
// origin counterpart, which must exist.
func (workingCopy *WorkingCopy) checkoutBranch(executionContext context.Context, targetBranch string) error {
	if workingCopy.run.IsMainline(targetBranch) {
		_, checkoutError := workingCopy.Git(executionContext, gitCheckoutSubcommandConstant, targetBranch)
		return checkoutError
	}

	if workingCopy.inspector != nil {
		exists, inspectError := workingCopy.inspector.RemoteBranchExists(workingCopy.Path, originRemoteNameConstant, targetBranch)
		if inspectError != nil {
			return fmt.Errorf(inspectRemoteBranchErrorTemplateConstant, originRemoteNameConstant, targetBranch, inspectError)
		}
		if !exists {
			return fmt.Errorf(remoteBranchMissingErrorTemplateConstant, ErrRemoteBranchMissing, originRemoteNameConstant, targetBranch)
		}
	}

	_, checkoutError := workingCopy.Git(executionContext, gitCheckoutSubcommandConstant, gitCreateBranchFlagConstant, targetBranch, originRemoteNameConstant+remoteBranchSeparatorConstant+targetBranch)
	return checkoutError
}

func gitEnvironment(identity Identity) map[string]string {
	environmentVariables := map[string]string{gitTerminalPromptVariableConstant: gitTerminalPromptDisabledConstant}
	if identity.Scope == IdentityScopeGlobal {
		return environmentVariables
	}
	if len(identity.Name) > 0 {
		environmentVariables[gitAuthorNameVariableConstant] = identity.Name
		environmentVariables[gitCommitterNameVariableConstant] = identity.Name
	}
	if len(identity.Email) > 0 {
		environmentVariables[gitAuthorEmailVariableConstant] = identity.Email
		environmentVariables[gitCommitterEmailVariableConstant] = identity.Email
	}
	return environmentVariables
}
