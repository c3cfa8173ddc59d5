package merge

import (
	"context"
	"fmt"

	"github.com/temirov/upmerge/internal/templateguard"
)

const (
	templateDirectoryNameConstant      = "template"
	cloneTemplateErrorTemplateConstant = "clone upstream template: %w"
)

// TemplateChecker scans a checkout of the upstream template.
type TemplateChecker interface {
	Check(templateDirectory string) (templateguard.Result, error)
}

// CheckTemplate clones the upstream template at the upstream branch into a temporary working
// copy, scans it with checker, and removes the working copy again.
func (engine *Engine) CheckTemplate(executionContext context.Context, run *RunContext, checker TemplateChecker) (templateguard.Result, error) {
	if validationError := run.validate(); validationError != nil {
		return templateguard.Result{}, validationError
	}

	workingCopy, acquireError := engine.AcquireWorkingCopy(run, templateDirectoryNameConstant)
	if acquireError != nil {
		return templateguard.Result{}, acquireError
	}
	defer engine.release(workingCopy)

	if cloneError := workingCopy.CloneBranch(executionContext, run.Upstream.RepositoryURL, run.UpstreamBranch()); cloneError != nil {
		return templateguard.Result{}, fmt.Errorf(cloneTemplateErrorTemplateConstant, cloneError)
	}
	return checker.Check(workingCopy.Path)
}
