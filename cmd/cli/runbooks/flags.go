package runbooks

const (
	flagGitUsernameNameConstant          = "git-username"
	flagGitUsernameUsageConstant         = "Username for the git server"
	flagGitPasswordNameConstant          = "git-password"
	flagGitPasswordUsageConstant         = "Password or access token for the git server"
	flagGitProtocolNameConstant          = "git-protocol"
	flagGitProtocolUsageConstant         = "Protocol of the git server (https or http)"
	flagGitHostNameConstant              = "git-host"
	flagGitHostUsageConstant             = "Host name of the git server"
	flagGitOrganizationNameConstant      = "git-organization"
	flagGitOrganizationUsageConstant     = "Organization holding the upstream and downstream repositories"
	flagTenantNameNameConstant           = "tenant-name"
	flagTenantNameUsageConstant          = "Tenant whose downstream repositories are processed"
	flagTemplateRepoNameConstant         = "template-repo"
	flagTemplateRepoUsageConstant        = "Name of the upstream template repository. Defaults to the sanitized project name"
	flagProjectNameNameConstant          = "project-name"
	flagProjectNameUsageConstant         = "Name of the project running the merge"
	flagMainlineBranchNameConstant       = "mainline-branch"
	flagMainlineBranchUsageConstant      = "Branch merged in every repository. Defaults to \"main\""
	flagBackendTypeNameConstant          = "terraform-backend-type"
	flagBackendTypeUsageConstant         = "Terraform backend holding the downstream project state"
	flagBackendInitNameTemplateConstant  = "terraform-backend-init-%d"
	flagBackendInitUsageTemplateConstant = "Additional argument %d passed to terraform init, usually a -backend-config argument"
	flagWorkspaceNameConstant            = "workspace"
	flagWorkspaceUsageConstant           = "Directory receiving the temporary working copies"
	flagOriginalProjectNameNameConstant  = "original-project-name"
	flagOriginalProjectNameUsageConstant = "Name of the upstream project"
	flagNewProjectNameNameConstant       = "new-project-name"
	flagNewProjectNameUsageConstant      = "Name of the downstream project"
	flagTemplateRepoNameNameConstant     = "template-repo-name"
	flagTemplateRepoNameUsageConstant    = "Name of the upstream template repository. Defaults to the sanitized original project name"
	flagRepoNameNameConstant             = "repo-name"
	flagRepoNameUsageConstant            = "Name of the downstream repository. Defaults to <tenant>_<project>"
	flagBranchNameConstant               = "branch"
	flagBranchUsageConstant              = "Branch to merge. Defaults to \"main\""
	flagGenerateDiffNameConstant         = "generate-diff"
	flagGenerateDiffUsageConstant        = "Render the pending changes as an HTML diff artifact"
	flagSilentFailNameConstant           = "silent-fail"
	flagSilentFailUsageConstant          = "Exit successfully when the repositories are unavailable or the template can not be merged"
	flagOctopusURLNameConstant           = "octopus-url"
	flagOctopusURLUsageConstant          = "Base URL of the Octopus server"
	flagAPIKeyNameConstant               = "api-key"
	flagAPIKeyUsageConstant              = "Octopus API key"
	flagAttemptsNameConstant             = "attempts"
	flagAttemptsUsageConstant            = "Number of space lookup attempts"
	flagDelayNameConstant                = "delay"
	flagDelayUsageConstant               = "Delay between space lookup attempts"
	variableGitUsernameConstant          = "Git.Credentials.Username"
	variableGitHostConstant              = "Git.Url.Host"
	variableGitOrganizationConstant      = "Git.Url.Organization"
	variableTenantNameConstant           = "Octopus.Deployment.Tenant.Name"
	variableProjectNameConstant          = "Octopus.Project.Name"
	descriptionGitHostConstant           = "git host"
	descriptionGitOrganizationConstant   = "git organization"
	descriptionTenantNameConstant        = "tenant name"
	descriptionProjectNameConstant       = "project name"
	backendInitArgumentCountConstant     = 5
)
