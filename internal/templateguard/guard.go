package templateguard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	defaultProjectDirectoryConstant    = ".octopus/project"
	defaultForbiddenMarkerConstant     = "ActionTemplates"
	deploymentProcessFileNameConstant  = "deployment_process.ocl"
	forbiddenReferenceMessageConstant  = "Template repo references a step template. Step templates can not be merged across spaces or instances."
	checkSkippedReasonTemplateConstant = "Failed to open %s to check for %s"
	checkSkippedLogMessageConstant     = "template guard could not read deployment process"
	checkPassedLogMessageConstant      = "template guard passed"
	logFieldPathConstant               = "path"
	logFieldMarkerConstant             = "marker"
)

// ErrForbiddenTemplateReference indicates the upstream template references a step template,
// which can not be merged across spaces or instances.
var ErrForbiddenTemplateReference = errors.New(forbiddenReferenceMessageConstant)

// Configuration selects the scanned file and the forbidden marker.
type Configuration struct {
	ProjectDirectory string
	ForbiddenMarker  string
}

// Result reports whether the check could be performed.
type Result struct {
	Performed bool
	// Reason explains why the check was not performed.
	Reason string
}

// Guard refuses upstream templates that reference step templates.
type Guard struct {
	configuration Configuration
	logger        *zap.Logger
}

// NewGuard constructs a Guard, applying defaults to blank configuration values.
func NewGuard(configuration Configuration, logger *zap.Logger) *Guard {
	if len(strings.TrimSpace(configuration.ProjectDirectory)) == 0 {
		configuration.ProjectDirectory = defaultProjectDirectoryConstant
	}
	if len(strings.TrimSpace(configuration.ForbiddenMarker)) == 0 {
		configuration.ForbiddenMarker = defaultForbiddenMarkerConstant
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{configuration: configuration, logger: logger}
}

// DeploymentProcessPath returns the scanned file inside templateDirectory.
func (guard *Guard) DeploymentProcessPath(templateDirectory string) string {
	return filepath.Join(templateDirectory, filepath.FromSlash(guard.configuration.ProjectDirectory), deploymentProcessFileNameConstant)
}

// Check scans the deployment process of the template checkout. A file that can not be read
// yields Performed=false with a Reason rather than an error.
func (guard *Guard) Check(templateDirectory string) (Result, error) {
	deploymentProcessPath := guard.DeploymentProcessPath(templateDirectory)
	contents, readError := os.ReadFile(deploymentProcessPath)
	if readError != nil {
		reason := fmt.Sprintf(checkSkippedReasonTemplateConstant, deploymentProcessPath, guard.configuration.ForbiddenMarker)
		guard.logger.Warn(checkSkippedLogMessageConstant, zap.String(logFieldPathConstant, deploymentProcessPath), zap.Error(readError))
		return Result{Performed: false, Reason: reason}, nil
	}

	if strings.Contains(string(contents), guard.configuration.ForbiddenMarker) {
		return Result{Performed: true}, ErrForbiddenTemplateReference
	}

	guard.logger.Debug(checkPassedLogMessageConstant, zap.String(logFieldPathConstant, deploymentProcessPath), zap.String(logFieldMarkerConstant, guard.configuration.ForbiddenMarker))
	return Result{Performed: true}, nil
}
