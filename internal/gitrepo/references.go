package gitrepo

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const openRepositoryErrorTemplateConstant = "open repository %s: %w"

// ReferenceInspector answers read-only questions about the refs of a local working copy.
type ReferenceInspector interface {
	RemoteBranchExists(repositoryPath string, remoteName string, branchName string) (bool, error)
}

// GoGitReferenceInspector reads refs directly from the repository storage without invoking git.
type GoGitReferenceInspector struct{}

// RemoteBranchExists reports whether refs/remotes/<remote>/<branch> is present in the working copy.
func (GoGitReferenceInspector) RemoteBranchExists(repositoryPath string, remoteName string, branchName string) (bool, error) {
	repository, openError := git.PlainOpen(repositoryPath)
	if openError != nil {
		return false, fmt.Errorf(openRepositoryErrorTemplateConstant, repositoryPath, openError)
	}

	_, referenceError := repository.Reference(plumbing.NewRemoteReferenceName(remoteName, branchName), true)
	if referenceError == nil {
		return true, nil
	}
	if errors.Is(referenceError, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	return false, referenceError
}
