package preview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/upmerge/internal/execshell"
	"github.com/temirov/upmerge/internal/gitrepo"
	"github.com/temirov/upmerge/internal/merge"
	"github.com/temirov/upmerge/internal/octopus"
)

const (
	defaultDiffFileNameConstant            = "upstream.diff"
	defaultReportFileNameConstant          = "diff.html"
	defaultArtifactNameConstant            = "Git Diff"
	repositoryDirectoryNameConstant        = "repo"
	gitDiffSubcommandConstant              = "diff"
	symmetricDifferenceSeparatorConstant   = "..."
	rendererFormatFlagConstant             = "-F"
	rendererInputFlagConstant              = "-i"
	rendererInputFileConstant              = "file"
	rendererArgumentsTerminatorConstant    = "--"
	diffFilePermissionConstant             = 0o644
	upToDateTemplateConstant               = "This project is up to date with the upstream repo at %s"
	changesAvailableMessageConstant        = "The upstream repo has changes available to be merged into this project."
	mergeRunbookHintMessageConstant        = "Run the \"Merge from Upstream\" runbook to merge the changes shown in the diff into this project's repo"
	engineRequiredMessageConstant          = "merge engine required"
	templateCheckerRequiredMessageConstant = "template checker required"
	diffRendererRequiredMessageConstant    = "diff renderer required"
	cloneURLErrorTemplateConstant          = "prepare clone url: %w"
	prepareDownstreamErrorTemplateConstant = "prepare downstream repository: %w"
	collectDiffErrorTemplateConstant       = "collect upstream diff: %w"
	writeDiffErrorTemplateConstant         = "write diff %s: %w"
	renderDiffErrorTemplateConstant        = "render diff report: %w"
	publishReportErrorTemplateConstant     = "publish diff report: %w"
	releaseFailedLogMessageConstant        = "failed to remove working copy"
	previewFinishedLogMessageConstant      = "upstream preview finished"
	logFieldPathConstant                   = "path"
	logFieldRepositoryConstant             = "repository"
	logFieldResultConstant                 = "result"
	logFieldDiffBytesConstant              = "diff_bytes"
)

// ErrEngineRequired indicates the previewer was built without a merge engine.
var ErrEngineRequired = errors.New(engineRequiredMessageConstant)

// ErrTemplateCheckerRequired indicates the previewer was built without a template checker.
var ErrTemplateCheckerRequired = errors.New(templateCheckerRequiredMessageConstant)

// ErrDiffRendererRequired indicates a report was requested without a diff renderer.
var ErrDiffRendererRequired = errors.New(diffRendererRequiredMessageConstant)

// DiffRenderer converts a unified diff into an HTML report.
type DiffRenderer interface {
	ExecuteDiffRenderer(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Configuration names the files written when a report is generated.
type Configuration struct {
	// OutputDirectory receives the diff and the report. Blank selects the run's workspace root.
	OutputDirectory string
	DiffFileName    string
	ReportFileName  string
	ArtifactName    string
}

// Dependencies wires the collaborators of a Previewer.
type Dependencies struct {
	Engine            *merge.Engine
	TemplateChecker   merge.TemplateChecker
	DiffRenderer      DiffRenderer
	ArtifactPublisher octopus.ArtifactPublisher
	Reporter          merge.Reporter
	Logger            *zap.Logger
}

// Request identifies the downstream repository to compare with the upstream template.
type Request struct {
	Run          *merge.RunContext
	Repository   gitrepo.RepositoryDescriptor
	GenerateDiff bool
}

// ResultKind classifies a preview.
type ResultKind string

// Preview result kinds.
const (
	ResultUpToDate         ResultKind = "up-to-date"
	ResultChangesAvailable ResultKind = "changes-available"
)

// Result describes the pending upstream changes.
type Result struct {
	Kind ResultKind
	Diff string
	// ReportPath is set when an HTML report was generated.
	ReportPath string
	DiffPath   string
}

// Previewer shows what merging the upstream template would change, without pushing anything.
type Previewer struct {
	configuration Configuration
	engine        *merge.Engine
	checker       merge.TemplateChecker
	renderer      DiffRenderer
	publisher     octopus.ArtifactPublisher
	reporter      merge.Reporter
	logger        *zap.Logger
}

// NewPreviewer constructs a Previewer.
func NewPreviewer(configuration Configuration, dependencies Dependencies) (*Previewer, error) {
	if dependencies.Engine == nil {
		return nil, ErrEngineRequired
	}
	if dependencies.TemplateChecker == nil {
		return nil, ErrTemplateCheckerRequired
	}
	if len(strings.TrimSpace(configuration.DiffFileName)) == 0 {
		configuration.DiffFileName = defaultDiffFileNameConstant
	}
	if len(strings.TrimSpace(configuration.ReportFileName)) == 0 {
		configuration.ReportFileName = defaultReportFileNameConstant
	}
	if len(strings.TrimSpace(configuration.ArtifactName)) == 0 {
		configuration.ArtifactName = defaultArtifactNameConstant
	}

	previewer := &Previewer{
		configuration: configuration,
		engine:        dependencies.Engine,
		checker:       dependencies.TemplateChecker,
		renderer:      dependencies.DiffRenderer,
		publisher:     dependencies.ArtifactPublisher,
		reporter:      dependencies.Reporter,
		logger:        dependencies.Logger,
	}
	if previewer.publisher == nil {
		previewer.publisher = octopus.NoopArtifactPublisher{}
	}
	if previewer.reporter == nil {
		previewer.reporter = discardReporter{}
	}
	if previewer.logger == nil {
		previewer.logger = zap.NewNop()
	}
	return previewer, nil
}

// Preview checks the upstream template, clones the downstream repository with the upstream
// remote, and reports the diff between the target branch and the upstream branch.
func (previewer *Previewer) Preview(executionContext context.Context, request Request) (Result, error) {
	run := request.Run
	guardResult, guardError := previewer.engine.CheckTemplate(executionContext, run, previewer.checker)
	if guardError != nil {
		return Result{}, guardError
	}
	if !guardResult.Performed {
		previewer.reporter.Printf("%s", guardResult.Reason)
	}

	diff, diffError := previewer.collectDiff(executionContext, run, request.Repository)
	if diffError != nil {
		return Result{}, diffError
	}

	result := Result{Kind: ResultChangesAvailable, Diff: diff}
	switch {
	case len(strings.TrimSpace(diff)) == 0:
		result.Kind = ResultUpToDate
		previewer.reporter.Printf(upToDateTemplateConstant, run.Upstream.DisplayURL())
	case request.GenerateDiff:
		if reportError := previewer.generateReport(executionContext, run, &result); reportError != nil {
			return result, reportError
		}
		previewer.reporter.Highlightf("%s", mergeRunbookHintMessageConstant)
	default:
		previewer.reporter.Printf("%s", changesAvailableMessageConstant)
	}

	previewer.logger.Info(previewFinishedLogMessageConstant,
		zap.String(logFieldRepositoryConstant, request.Repository.Name),
		zap.String(logFieldResultConstant, string(result.Kind)),
		zap.Int(logFieldDiffBytesConstant, len(diff)),
	)
	return result, nil
}

func (previewer *Previewer) collectDiff(executionContext context.Context, run *merge.RunContext, repository gitrepo.RepositoryDescriptor) (string, error) {
	downstreamURL, urlError := gitrepo.NewSensitiveURL(repository.CloneURL, run.Credentials)
	if urlError != nil {
		return "", fmt.Errorf(cloneURLErrorTemplateConstant, urlError)
	}

	workingCopy, acquireError := previewer.engine.AcquireWorkingCopy(run, repositoryDirectoryNameConstant)
	if acquireError != nil {
		return "", acquireError
	}
	defer func() {
		if releaseError := workingCopy.Release(); releaseError != nil {
			previewer.logger.Error(releaseFailedLogMessageConstant, zap.String(logFieldPathConstant, workingCopy.Path), zap.Error(releaseError))
		}
	}()

	if setupError := workingCopy.CloneWithUpstream(executionContext, downstreamURL); setupError != nil {
		return "", fmt.Errorf(prepareDownstreamErrorTemplateConstant, setupError)
	}

	revisionRange := run.TargetBranch() + symmetricDifferenceSeparatorConstant + merge.UpstreamTrackingBranch(run.UpstreamBranch())
	diffResult, diffError := workingCopy.Git(executionContext, gitDiffSubcommandConstant, revisionRange)
	if diffError != nil {
		return "", fmt.Errorf(collectDiffErrorTemplateConstant, diffError)
	}
	return diffResult.StandardOutput, nil
}

func (previewer *Previewer) generateReport(executionContext context.Context, run *merge.RunContext, result *Result) error {
	if previewer.renderer == nil {
		return ErrDiffRendererRequired
	}

	outputDirectory := previewer.configuration.OutputDirectory
	if len(strings.TrimSpace(outputDirectory)) == 0 {
		outputDirectory = run.WorkspaceRoot
	}

	diffPath := filepath.Join(outputDirectory, previewer.configuration.DiffFileName)
	if writeError := os.WriteFile(diffPath, []byte(result.Diff), diffFilePermissionConstant); writeError != nil {
		return fmt.Errorf(writeDiffErrorTemplateConstant, diffPath, writeError)
	}
	result.DiffPath = diffPath

	_, renderError := previewer.renderer.ExecuteDiffRenderer(executionContext, execshell.CommandDetails{
		Arguments: []string{
			rendererFormatFlagConstant, previewer.configuration.ReportFileName,
			rendererInputFlagConstant, rendererInputFileConstant,
			rendererArgumentsTerminatorConstant, previewer.configuration.DiffFileName,
		},
		WorkingDirectory: outputDirectory,
	})
	if renderError != nil {
		return fmt.Errorf(renderDiffErrorTemplateConstant, renderError)
	}

	reportPath := filepath.Join(outputDirectory, previewer.configuration.ReportFileName)
	if publishError := previewer.publisher.Publish(reportPath, previewer.configuration.ArtifactName); publishError != nil {
		return fmt.Errorf(publishReportErrorTemplateConstant, publishError)
	}
	result.ReportPath = reportPath
	return nil
}

type discardReporter struct{}

func (discardReporter) Printf(string, ...any)     {}
func (discardReporter) Verbosef(string, ...any)   {}
func (discardReporter) Highlightf(string, ...any) {}
