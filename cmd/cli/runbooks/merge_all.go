package runbooks

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/upmerge/internal/gitrepo"
	"github.com/temirov/upmerge/internal/merge"
	"github.com/temirov/upmerge/internal/templateguard"
	"github.com/temirov/upmerge/internal/terraform"
	"github.com/temirov/upmerge/internal/ui"
	"github.com/temirov/upmerge/internal/variables"
)

const (
	mergeAllUseConstant                      = "merge-all"
	mergeAllShortDescriptionConstant         = "Merge the upstream template into every downstream project of a tenant"
	mergeAllLongDescriptionConstant          = "merge-all reads the downstream projects of a tenant from terraform state and merges the upstream template repository into each of them. Conflicted projects are left untouched and reported with instructions for resolving them by hand."
	mergeAllStartedMessageConstant           = "Merging upstream template into downstream projects."
	mergeAllVerboseHintMessageConstant       = "Verbose logs contain instructions for resolving merge conflicts."
	mergeAllFinishedLogMessageConstant       = "merge run finished"
	mergeAllFailuresLogMessageConstant       = "merge run finished with failures"
	logFieldRepositoryCountConstant          = "repository_count"
	stateSourceErrorTemplateConstant         = "read downstream projects: %w"
	terraformInitializeErrorTemplateConstant = "initialize terraform: %w"
	summaryConflictDetailConstant            = "resolve manually"
)

type mergeAllOptions struct {
	GitUsername        string `variable:"Git.Credentials.Username"`
	GitPassword        string `variable:"Git.Credentials.Password"`
	GitProtocol        string `variable:"Git.Url.Protocol"`
	GitHost            string `variable:"Git.Url.Host"`
	GitOrganization    string `variable:"Git.Url.Organization"`
	TemplateRepository string `variable:"Git.Url.Template"`
	ProjectName        string `variable:"Octopus.Project.Name"`
	TenantName         string `variable:"Octopus.Deployment.Tenant.Name"`
	MainlineBranch     string `variable:"Git.Branch.MainLine"`
	BackendType        string `variable:"Terraform.Backend.Type"`
	BackendInit1       string `variable:"Terraform.Backend.Init1"`
	BackendInit2       string `variable:"Terraform.Backend.Init2"`
	BackendInit3       string `variable:"Terraform.Backend.Init3"`
	BackendInit4       string `variable:"Terraform.Backend.Init4"`
	BackendInit5       string `variable:"Terraform.Backend.Init5"`
	Workspace          string
}

func (options *mergeAllOptions) bindings() []stringOption {
	bindings := []stringOption{
		{flagName: flagGitUsernameNameConstant, usage: flagGitUsernameUsageConstant, target: &options.GitUsername},
		{flagName: flagGitPasswordNameConstant, usage: flagGitPasswordUsageConstant, target: &options.GitPassword},
		{flagName: flagGitProtocolNameConstant, usage: flagGitProtocolUsageConstant, target: &options.GitProtocol},
		{flagName: flagGitHostNameConstant, usage: flagGitHostUsageConstant, target: &options.GitHost},
		{flagName: flagGitOrganizationNameConstant, usage: flagGitOrganizationUsageConstant, target: &options.GitOrganization},
		{flagName: flagTemplateRepoNameConstant, usage: flagTemplateRepoUsageConstant, target: &options.TemplateRepository},
		{flagName: flagProjectNameNameConstant, usage: flagProjectNameUsageConstant, target: &options.ProjectName},
		{flagName: flagTenantNameNameConstant, usage: flagTenantNameUsageConstant, target: &options.TenantName},
		{flagName: flagMainlineBranchNameConstant, usage: flagMainlineBranchUsageConstant, target: &options.MainlineBranch},
		{flagName: flagBackendTypeNameConstant, usage: flagBackendTypeUsageConstant, target: &options.BackendType},
		{flagName: flagWorkspaceNameConstant, usage: flagWorkspaceUsageConstant, target: &options.Workspace},
	}
	initTargets := []*string{&options.BackendInit1, &options.BackendInit2, &options.BackendInit3, &options.BackendInit4, &options.BackendInit5}
	for initIndex, initTarget := range initTargets {
		bindings = append(bindings, stringOption{
			flagName: fmt.Sprintf(flagBackendInitNameTemplateConstant, initIndex+1),
			usage:    fmt.Sprintf(flagBackendInitUsageTemplateConstant, initIndex+1),
			target:   initTarget,
		})
	}
	return bindings
}

func (options *mergeAllOptions) initArguments() []string {
	return []string{options.BackendInit1, options.BackendInit2, options.BackendInit3, options.BackendInit4, options.BackendInit5}
}

func (options *mergeAllOptions) templateRepositoryName() string {
	if len(options.TemplateRepository) > 0 {
		return options.TemplateRepository
	}
	return gitrepo.SanitizeName(options.ProjectName)
}

func (options *mergeAllOptions) validate() error {
	if requiredError := requireOption(options.GitHost, descriptionGitHostConstant, flagGitHostNameConstant, variableGitHostConstant); requiredError != nil {
		return requiredError
	}
	if requiredError := requireOption(options.GitOrganization, descriptionGitOrganizationConstant, flagGitOrganizationNameConstant, variableGitOrganizationConstant); requiredError != nil {
		return requiredError
	}
	if requiredError := requireOption(options.TenantName, descriptionTenantNameConstant, flagTenantNameNameConstant, variableTenantNameConstant); requiredError != nil {
		return requiredError
	}
	return requireOption(options.ProjectName, descriptionProjectNameConstant, flagProjectNameNameConstant, variableProjectNameConstant)
}

// MergeAllCommandBuilder assembles the merge-all command.
type MergeAllCommandBuilder struct {
	Runtime
}

// Build constructs the merge-all command.
func (builder *MergeAllCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   mergeAllUseConstant,
		Short: mergeAllShortDescriptionConstant,
		Long:  mergeAllLongDescriptionConstant,
		RunE:  builder.run,
	}
	registerStringOptions(command, (&mergeAllOptions{}).bindings())
	return command, nil
}

func (builder *MergeAllCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if argumentsError := rejectArguments(command, arguments); argumentsError != nil {
		return argumentsError
	}

	options := mergeAllOptions{}
	if decodeError := builder.resolver(variables.FindConflictsPrefix, variables.ForkGiteaRepoPrefix).Decode(&options); decodeError != nil {
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

	activeSession.reporter.Printf("%s", mergeAllStartedMessageConstant)
	activeSession.reporter.Printf("%s", mergeAllVerboseHintMessageConstant)

	upstreamURL, upstreamURLError := repositoryURL(options.GitProtocol, options.GitHost, options.GitOrganization, options.templateRepositoryName())
	if upstreamURLError != nil {
		return upstreamURLError
	}
	credentials := gitrepo.Credentials{Username: options.GitUsername, Password: options.GitPassword}
	run, runError := buildRunContext(configuration, credentials, options.MainlineBranch, upstreamURL)
	if runError != nil {
		return runError
	}

	descriptors, descriptorsError := builder.readDescriptors(command, activeSession, configuration, options, run.WorkspaceRoot)
	if descriptorsError != nil {
		return descriptorsError
	}

	engine, engineError := builder.newEngine(activeSession, merge.FanOutNarrator{Reporter: activeSession.reporter})
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

	outcomes, mergeError := engine.MergeAll(command.Context(), run, descriptors)
	ui.OutcomeSummaryRenderer{Styled: activeSession.humanReadable}.Render(activeSession.reporter.Output(), summaryRows(outcomes))
	if mergeError != nil {
		activeSession.logger.Warn(mergeAllFailuresLogMessageConstant, zap.Int(logFieldRepositoryCountConstant, len(outcomes)), zap.Error(mergeError))
		return nil
	}
	activeSession.logger.Info(mergeAllFinishedLogMessageConstant, zap.Int(logFieldRepositoryCountConstant, len(outcomes)))
	return nil
}

func (builder *MergeAllCommandBuilder) readDescriptors(command *cobra.Command, activeSession *session, configuration ToolsConfiguration, options mergeAllOptions, workspaceRoot string) ([]gitrepo.RepositoryDescriptor, error) {
	workingDirectory := configuration.Terraform.WorkingDirectory
	if len(workingDirectory) == 0 {
		workingDirectory = workspaceRoot
	} else {
		resolvedDirectory, resolveError := resolveWorkspace(workingDirectory)
		if resolveError != nil {
			return nil, resolveError
		}
		workingDirectory = resolvedDirectory
	}

	backendType := configuration.Terraform.BackendType
	if len(options.BackendType) > 0 {
		backendType = options.BackendType
	}
	initArguments := options.initArguments()
	if len(trimValues(initArguments)) == 0 {
		initArguments = configuration.Terraform.InitArguments
	}

	stateSource, stateSourceError := terraform.NewStateSource(activeSession.executor, terraform.Configuration{
		WorkingDirectory:    workingDirectory,
		BackendType:         backendType,
		InitArguments:       terraform.DefaultInitArguments(initArguments, options.ProjectName),
		SpaceOutputName:     configuration.Terraform.SpaceOutputName,
		ProjectResourceType: configuration.Terraform.ProjectResourceType,
	}, activeSession.logger)
	if stateSourceError != nil {
		return nil, stateSourceError
	}
	if initializeError := stateSource.Initialize(command.Context()); initializeError != nil {
		return nil, fmt.Errorf(terraformInitializeErrorTemplateConstant, initializeError)
	}
	descriptors, descriptorsError := stateSource.Descriptors(command.Context(), options.TenantName)
	if descriptorsError != nil {
		return nil, fmt.Errorf(stateSourceErrorTemplateConstant, descriptorsError)
	}
	return descriptors, nil
}

func summaryRows(outcomes []merge.Outcome) []ui.SummaryRow {
	rows := make([]ui.SummaryRow, 0, len(outcomes))
	for _, outcome := range outcomes {
		row := ui.SummaryRow{Repository: outcome.RepositoryName, Space: outcome.SpaceName, Outcome: string(outcome.Kind)}
		switch outcome.Kind {
		case merge.OutcomeMerged:
			row.Tone = ui.ToneSuccess
		case merge.OutcomeConflicted:
			row.Tone = ui.ToneWarning
			row.Detail = summaryConflictDetailConstant
		case merge.OutcomePushFailed, merge.OutcomeFailed:
			row.Tone = ui.ToneFailure
			if outcome.Cause != nil {
				row.Detail = outcome.Cause.Error()
			}
		default:
			row.Tone = ui.ToneNeutral
		}
		rows = append(rows, row)
	}
	return rows
}
