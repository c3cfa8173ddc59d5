package merge

import (
	"errors"
	"strings"

	"github.com/temirov/upmerge/internal/gitrepo"
)

const (
	identityScopeEnvironmentConstant    = "environment"
	identityScopeGlobalConstant         = "global"
	defaultIdentityNameConstant         = "Octopus Server"
	defaultIdentityEmailConstant        = "octopus@octopus.com"
	defaultBranchConstant               = "main"
	remoteBranchMissingMessageConstant  = "remote branch does not exist"
	workingCopyExistsMessageConstant    = "working copy path already exists"
	executorRequiredMessageConstant     = "git executor required"
	upstreamRequiredMessageConstant     = "upstream repository required"
	workspaceRequiredMessageConstant    = "workspace root required"
	unknownIdentityScopeMessageConstant = "unsupported identity scope"
)

// DefaultMainlineBranches are checked out directly instead of being created from origin.
var DefaultMainlineBranches = []string{"main", "master"}

var (
	// ErrRemoteBranchMissing indicates a non-mainline target branch has no origin counterpart.
	ErrRemoteBranchMissing = errors.New(remoteBranchMissingMessageConstant)
	// ErrWorkingCopyExists indicates the working copy directory was not cleaned up.
	ErrWorkingCopyExists = errors.New(workingCopyExistsMessageConstant)
	// ErrGitExecutorRequired indicates the engine was built without a git executor.
	ErrGitExecutorRequired = errors.New(executorRequiredMessageConstant)
	// ErrUpstreamRequired indicates the run context carries no upstream repository.
	ErrUpstreamRequired = errors.New(upstreamRequiredMessageConstant)
	// ErrWorkspaceRootRequired indicates the run context carries no workspace root.
	ErrWorkspaceRootRequired = errors.New(workspaceRequiredMessageConstant)
	// ErrUnknownIdentityScope indicates an identity scope other than environment or global.
	ErrUnknownIdentityScope = errors.New(unknownIdentityScopeMessageConstant)
)

// IdentityScope controls how the commit identity reaches git.
type IdentityScope string

// Supported identity scopes.
const (
	// IdentityScopeEnvironment passes the identity to every git invocation through environment variables.
	IdentityScopeEnvironment IdentityScope = IdentityScope(identityScopeEnvironmentConstant)
	// IdentityScopeGlobal writes the identity to the global git configuration once per run.
	IdentityScopeGlobal IdentityScope = IdentityScope(identityScopeGlobalConstant)
)

// ParseIdentityScope validates a configured scope. Blank selects IdentityScopeEnvironment.
func ParseIdentityScope(rawScope string) (IdentityScope, error) {
	switch IdentityScope(strings.ToLower(strings.TrimSpace(rawScope))) {
	case "", IdentityScopeEnvironment:
		return IdentityScopeEnvironment, nil
	case IdentityScopeGlobal:
		return IdentityScopeGlobal, nil
	default:
		return "", ErrUnknownIdentityScope
	}
}

// Identity is the author and committer of merge commits.
type Identity struct {
	Name  string
	Email string
	Scope IdentityScope
}

// DefaultIdentity returns the identity used when none is configured.
func DefaultIdentity() Identity {
	return Identity{Name: defaultIdentityNameConstant, Email: defaultIdentityEmailConstant, Scope: IdentityScopeEnvironment}
}

// UpstreamReference is the template repository and branch merged into every downstream repository.
type UpstreamReference struct {
	RepositoryURL gitrepo.SensitiveURL
	Branch        string
}

// DisplayURL returns the upstream URL without credentials.
func (upstream UpstreamReference) DisplayURL() string {
	return upstream.RepositoryURL.String()
}

// RunContext carries everything shared by the merge attempts of one run.
type RunContext struct {
	Identity         Identity
	Credentials      gitrepo.Credentials
	Branch           string
	Upstream         UpstreamReference
	MainlineBranches []string
	WorkspaceRoot    string
}

// TargetBranch returns the downstream branch, defaulting to main.
func (run *RunContext) TargetBranch() string {
	if trimmed := strings.TrimSpace(run.Branch); len(trimmed) > 0 {
		return trimmed
	}
	return defaultBranchConstant
}

// UpstreamBranch returns the upstream branch, defaulting to the target branch.
func (run *RunContext) UpstreamBranch() string {
	if trimmed := strings.TrimSpace(run.Upstream.Branch); len(trimmed) > 0 {
		return trimmed
	}
	return run.TargetBranch()
}

// IsMainline reports whether branch exists in every clone without being created from origin.
func (run *RunContext) IsMainline(branch string) bool {
	mainlineBranches := run.MainlineBranches
	if len(mainlineBranches) == 0 {
		mainlineBranches = DefaultMainlineBranches
	}
	for _, mainlineBranch := range mainlineBranches {
		if mainlineBranch == branch {
			return true
		}
	}
	return false
}

func (run *RunContext) validate() error {
	if run.Upstream.RepositoryURL.IsZero() {
		return ErrUpstreamRequired
	}
	if len(strings.TrimSpace(run.WorkspaceRoot)) == 0 {
		return ErrWorkspaceRootRequired
	}
	return nil
}

// OutcomeKind classifies a merge attempt.
type OutcomeKind string

// Outcome kinds.
const (
	OutcomeUpToDate   OutcomeKind = "up-to-date"
	OutcomeConflicted OutcomeKind = "conflicted"
	OutcomeMerged     OutcomeKind = "merged"
	OutcomePushFailed OutcomeKind = "push-failed"
	// OutcomeFailed covers infrastructure errors such as a failed clone or a missing remote branch.
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome records the result of one repository merge attempt.
type Outcome struct {
	Kind             OutcomeKind
	RepositoryName   string
	SpaceName        string
	DownstreamURL    string
	UpstreamURL      string
	UpstreamRevision string
	// LocalRevision is the merge base of the target branch and the upstream branch.
	LocalRevision string
	Cause         error
}
