package runbooks

import (
	"github.com/spf13/cobra"

	"github.com/temirov/upmerge/internal/gitrepo"
)

const (
	descriptionOriginalProjectConstant = "original project name"
)

// repositoryOptions identifies one downstream repository and its upstream template.
type repositoryOptions struct {
	GitUsername            string `variable:"Git.Credentials.Username"`
	GitPassword            string `variable:"Git.Credentials.Password"`
	GitProtocol            string `variable:"Git.Url.Protocol"`
	GitHost                string `variable:"Git.Url.Host"`
	GitOrganization        string `variable:"Git.Url.Organization"`
	OriginalProjectName    string `variable:"Octopus.Project.Name"`
	NewProjectName         string `variable:"Exported.Project.Name"`
	TenantName             string `variable:"Octopus.Deployment.Tenant.Name"`
	TemplateRepositoryName string `variable:"Git.Url.Template"`
	RepositoryName         string
	Branch                 string `variable:"Git.Branch.MainLine"`
	Workspace              string
}

func (options *repositoryOptions) bindings() []stringOption {
	return []stringOption{
		{flagName: flagGitUsernameNameConstant, usage: flagGitUsernameUsageConstant, target: &options.GitUsername},
		{flagName: flagGitPasswordNameConstant, usage: flagGitPasswordUsageConstant, target: &options.GitPassword},
		{flagName: flagGitProtocolNameConstant, usage: flagGitProtocolUsageConstant, target: &options.GitProtocol},
		{flagName: flagGitHostNameConstant, usage: flagGitHostUsageConstant, target: &options.GitHost},
		{flagName: flagGitOrganizationNameConstant, usage: flagGitOrganizationUsageConstant, target: &options.GitOrganization},
		{flagName: flagOriginalProjectNameNameConstant, usage: flagOriginalProjectNameUsageConstant, target: &options.OriginalProjectName},
		{flagName: flagNewProjectNameNameConstant, usage: flagNewProjectNameUsageConstant, target: &options.NewProjectName},
		{flagName: flagTenantNameNameConstant, usage: flagTenantNameUsageConstant, target: &options.TenantName},
		{flagName: flagTemplateRepoNameNameConstant, usage: flagTemplateRepoNameUsageConstant, target: &options.TemplateRepositoryName},
		{flagName: flagRepoNameNameConstant, usage: flagRepoNameUsageConstant, target: &options.RepositoryName},
		{flagName: flagBranchNameConstant, usage: flagBranchUsageConstant, target: &options.Branch},
		{flagName: flagWorkspaceNameConstant, usage: flagWorkspaceUsageConstant, target: &options.Workspace},
	}
}

func (options *repositoryOptions) validate() error {
	if requiredError := requireOption(options.GitHost, descriptionGitHostConstant, flagGitHostNameConstant, variableGitHostConstant); requiredError != nil {
		return requiredError
	}
	if requiredError := requireOption(options.GitOrganization, descriptionGitOrganizationConstant, flagGitOrganizationNameConstant, variableGitOrganizationConstant); requiredError != nil {
		return requiredError
	}
	if len(options.TemplateRepositoryName) == 0 {
		if requiredError := requireOption(options.OriginalProjectName, descriptionOriginalProjectConstant, flagOriginalProjectNameNameConstant, variableProjectNameConstant); requiredError != nil {
			return requiredError
		}
	}
	if len(options.RepositoryName) > 0 {
		return nil
	}
	if requiredError := requireOption(options.TenantName, descriptionTenantNameConstant, flagTenantNameNameConstant, variableTenantNameConstant); requiredError != nil {
		return requiredError
	}
	return requireOption(options.NewProjectName+options.OriginalProjectName, descriptionOriginalProjectConstant, flagOriginalProjectNameNameConstant, variableProjectNameConstant)
}

func (options *repositoryOptions) templateRepositoryName() string {
	if len(options.TemplateRepositoryName) > 0 {
		return options.TemplateRepositoryName
	}
	return gitrepo.SanitizeName(options.OriginalProjectName)
}

func (options *repositoryOptions) downstreamRepositoryName() string {
	if len(options.RepositoryName) > 0 {
		return options.RepositoryName
	}
	projectName := options.NewProjectName
	if len(projectName) == 0 {
		projectName = options.OriginalProjectName
	}
	return gitrepo.DownstreamRepositoryName(options.TenantName, projectName)
}

func (options *repositoryOptions) credentials() gitrepo.Credentials {
	return gitrepo.Credentials{Username: options.GitUsername, Password: options.GitPassword}
}

// repositoryTarget is the resolved pair of downstream and upstream repositories.
type repositoryTarget struct {
	descriptor  gitrepo.RepositoryDescriptor
	upstreamURL string
}

func (options *repositoryOptions) resolveTarget() (repositoryTarget, error) {
	downstreamName := options.downstreamRepositoryName()
	downstreamURL, downstreamError := repositoryURL(options.GitProtocol, options.GitHost, options.GitOrganization, downstreamName)
	if downstreamError != nil {
		return repositoryTarget{}, downstreamError
	}
	upstreamURL, upstreamError := repositoryURL(options.GitProtocol, options.GitHost, options.GitOrganization, options.templateRepositoryName())
	if upstreamError != nil {
		return repositoryTarget{}, upstreamError
	}
	return repositoryTarget{
		descriptor: gitrepo.RepositoryDescriptor{
			Name:             downstreamName,
			CloneURL:         downstreamURL,
			SpaceOrTenantKey: options.TenantName,
		},
		upstreamURL: upstreamURL,
	}, nil
}

func registerRepositoryOptions(command *cobra.Command) {
	registerStringOptions(command, (&repositoryOptions{}).bindings())
}
