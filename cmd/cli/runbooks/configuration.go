package runbooks

import (
	"strings"
	"time"

	"github.com/temirov/upmerge/internal/merge"
	"github.com/temirov/upmerge/internal/octopus"
)

const (
	mergeConfigurationKeyConstant               = "merge"
	terraformConfigurationKeyConstant           = "terraform"
	previewConfigurationKeyConstant             = "preview"
	octopusConfigurationKeyConstant             = "octopus"
	configurationWorkspaceKeyConstant           = "workspace"
	configurationMainlineBranchesKeyConstant    = "mainline_branches"
	configurationIdentityNameKeyConstant        = "identity.name"
	configurationIdentityEmailKeyConstant       = "identity.email"
	configurationIdentityScopeKeyConstant       = "identity.scope"
	configurationProjectDirectoryKeyConstant    = "project_directory"
	configurationForbiddenMarkerKeyConstant     = "forbidden_marker"
	configurationWorkingDirectoryKeyConstant    = "working_directory"
	configurationBackendTypeKeyConstant         = "backend_type"
	configurationInitArgumentsKeyConstant       = "init_arguments"
	configurationSpaceOutputNameKeyConstant     = "space_output_name"
	configurationProjectResourceTypeKeyConstant = "project_resource_type"
	configurationArtifactDirectoryKeyConstant   = "artifact_directory"
	configurationOutputDirectoryKeyConstant     = "output_directory"
	configurationServerURLKeyConstant           = "server_url"
	configurationAPIKeyKeyConstant              = "api_key"
	configurationAttemptsKeyConstant            = "attempts"
	configurationDelayKeyConstant               = "delay"
	configurationKeySeparatorConstant           = "."
	defaultWorkspaceConstant                    = "."
	defaultProjectDirectoryConstant             = ".octopus/project"
	defaultForbiddenMarkerConstant              = "ActionTemplates"
	defaultBackendTypeConstant                  = "pg"
	defaultSpaceOutputNameConstant              = "octopus_space_name"
	defaultProjectResourceTypeConstant          = "octopusdeploy_project"
)

// ToolsConfiguration captures the configuration sections of the runbook commands.
type ToolsConfiguration struct {
	Merge     MergeConfiguration     `mapstructure:"merge"`
	Terraform TerraformConfiguration `mapstructure:"terraform"`
	Preview   PreviewConfiguration   `mapstructure:"preview"`
	Octopus   OctopusConfiguration   `mapstructure:"octopus"`
}

// MergeConfiguration describes where working copies live and how merge commits are authored.
type MergeConfiguration struct {
	Workspace        string                `mapstructure:"workspace"`
	MainlineBranches []string              `mapstructure:"mainline_branches"`
	Identity         IdentityConfiguration `mapstructure:"identity"`
	ProjectDirectory string                `mapstructure:"project_directory"`
	ForbiddenMarker  string                `mapstructure:"forbidden_marker"`
}

// IdentityConfiguration describes the author of merge commits.
type IdentityConfiguration struct {
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email"`
	Scope string `mapstructure:"scope"`
}

// TerraformConfiguration describes the state holding the downstream projects.
type TerraformConfiguration struct {
	WorkingDirectory    string   `mapstructure:"working_directory"`
	BackendType         string   `mapstructure:"backend_type"`
	InitArguments       []string `mapstructure:"init_arguments"`
	SpaceOutputName     string   `mapstructure:"space_output_name"`
	ProjectResourceType string   `mapstructure:"project_resource_type"`
}

// PreviewConfiguration describes where diff reports are written and copied.
type PreviewConfiguration struct {
	ArtifactDirectory string `mapstructure:"artifact_directory"`
	OutputDirectory   string `mapstructure:"output_directory"`
}

// OctopusConfiguration describes the Octopus server queried by space-lookup.
type OctopusConfiguration struct {
	ServerURL string        `mapstructure:"server_url"`
	APIKey    string        `mapstructure:"api_key"`
	Attempts  int           `mapstructure:"attempts"`
	Delay     time.Duration `mapstructure:"delay"`
}

// DefaultToolsConfiguration returns baseline configuration values for the runbook commands.
func DefaultToolsConfiguration() ToolsConfiguration {
	identity := merge.DefaultIdentity()
	return ToolsConfiguration{
		Merge: MergeConfiguration{
			Workspace:        defaultWorkspaceConstant,
			MainlineBranches: append([]string(nil), merge.DefaultMainlineBranches...),
			Identity: IdentityConfiguration{
				Name:  identity.Name,
				Email: identity.Email,
				Scope: string(identity.Scope),
			},
			ProjectDirectory: defaultProjectDirectoryConstant,
			ForbiddenMarker:  defaultForbiddenMarkerConstant,
		},
		Terraform: TerraformConfiguration{
			BackendType:         defaultBackendTypeConstant,
			SpaceOutputName:     defaultSpaceOutputNameConstant,
			ProjectResourceType: defaultProjectResourceTypeConstant,
		},
		Octopus: OctopusConfiguration{
			ServerURL: octopus.DefaultServerURL,
			Attempts:  octopus.DefaultLookupAttempts,
			Delay:     octopus.DefaultLookupDelay,
		},
	}
}

// DefaultConfigurationValues produces Viper defaults for the runbook commands under rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultToolsConfiguration()
	mergeKey := joinConfigurationKey(rootKey, mergeConfigurationKeyConstant)
	terraformKey := joinConfigurationKey(rootKey, terraformConfigurationKeyConstant)
	previewKey := joinConfigurationKey(rootKey, previewConfigurationKeyConstant)
	octopusKey := joinConfigurationKey(rootKey, octopusConfigurationKeyConstant)
	return map[string]any{
		joinConfigurationKey(mergeKey, configurationWorkspaceKeyConstant):               defaults.Merge.Workspace,
		joinConfigurationKey(mergeKey, configurationMainlineBranchesKeyConstant):        defaults.Merge.MainlineBranches,
		joinConfigurationKey(mergeKey, configurationIdentityNameKeyConstant):            defaults.Merge.Identity.Name,
		joinConfigurationKey(mergeKey, configurationIdentityEmailKeyConstant):           defaults.Merge.Identity.Email,
		joinConfigurationKey(mergeKey, configurationIdentityScopeKeyConstant):           defaults.Merge.Identity.Scope,
		joinConfigurationKey(mergeKey, configurationProjectDirectoryKeyConstant):        defaults.Merge.ProjectDirectory,
		joinConfigurationKey(mergeKey, configurationForbiddenMarkerKeyConstant):         defaults.Merge.ForbiddenMarker,
		joinConfigurationKey(terraformKey, configurationWorkingDirectoryKeyConstant):    defaults.Terraform.WorkingDirectory,
		joinConfigurationKey(terraformKey, configurationBackendTypeKeyConstant):         defaults.Terraform.BackendType,
		joinConfigurationKey(terraformKey, configurationInitArgumentsKeyConstant):       defaults.Terraform.InitArguments,
		joinConfigurationKey(terraformKey, configurationSpaceOutputNameKeyConstant):     defaults.Terraform.SpaceOutputName,
		joinConfigurationKey(terraformKey, configurationProjectResourceTypeKeyConstant): defaults.Terraform.ProjectResourceType,
		joinConfigurationKey(previewKey, configurationArtifactDirectoryKeyConstant):     defaults.Preview.ArtifactDirectory,
		joinConfigurationKey(previewKey, configurationOutputDirectoryKeyConstant):       defaults.Preview.OutputDirectory,
		joinConfigurationKey(octopusKey, configurationServerURLKeyConstant):             defaults.Octopus.ServerURL,
		joinConfigurationKey(octopusKey, configurationAPIKeyKeyConstant):                defaults.Octopus.APIKey,
		joinConfigurationKey(octopusKey, configurationAttemptsKeyConstant):              defaults.Octopus.Attempts,
		joinConfigurationKey(octopusKey, configurationDelayKeyConstant):                 defaults.Octopus.Delay,
	}
}

// Sanitize trims configured values and restores defaults for blank required values.
func (configuration ToolsConfiguration) Sanitize() ToolsConfiguration {
	defaults := DefaultToolsConfiguration()
	sanitized := configuration

	sanitized.Merge.Workspace = trimmedOrDefault(configuration.Merge.Workspace, defaults.Merge.Workspace)
	sanitized.Merge.MainlineBranches = trimValues(configuration.Merge.MainlineBranches)
	if len(sanitized.Merge.MainlineBranches) == 0 {
		sanitized.Merge.MainlineBranches = defaults.Merge.MainlineBranches
	}
	sanitized.Merge.Identity.Name = trimmedOrDefault(configuration.Merge.Identity.Name, defaults.Merge.Identity.Name)
	sanitized.Merge.Identity.Email = trimmedOrDefault(configuration.Merge.Identity.Email, defaults.Merge.Identity.Email)
	sanitized.Merge.Identity.Scope = trimmedOrDefault(configuration.Merge.Identity.Scope, defaults.Merge.Identity.Scope)
	sanitized.Merge.ProjectDirectory = trimmedOrDefault(configuration.Merge.ProjectDirectory, defaults.Merge.ProjectDirectory)
	sanitized.Merge.ForbiddenMarker = trimmedOrDefault(configuration.Merge.ForbiddenMarker, defaults.Merge.ForbiddenMarker)

	sanitized.Terraform.WorkingDirectory = strings.TrimSpace(configuration.Terraform.WorkingDirectory)
	sanitized.Terraform.BackendType = trimmedOrDefault(configuration.Terraform.BackendType, defaults.Terraform.BackendType)
	sanitized.Terraform.InitArguments = trimValues(configuration.Terraform.InitArguments)
	sanitized.Terraform.SpaceOutputName = trimmedOrDefault(configuration.Terraform.SpaceOutputName, defaults.Terraform.SpaceOutputName)
	sanitized.Terraform.ProjectResourceType = trimmedOrDefault(configuration.Terraform.ProjectResourceType, defaults.Terraform.ProjectResourceType)

	sanitized.Preview.ArtifactDirectory = strings.TrimSpace(configuration.Preview.ArtifactDirectory)
	sanitized.Preview.OutputDirectory = strings.TrimSpace(configuration.Preview.OutputDirectory)

	sanitized.Octopus.ServerURL = trimmedOrDefault(configuration.Octopus.ServerURL, defaults.Octopus.ServerURL)
	sanitized.Octopus.APIKey = strings.TrimSpace(configuration.Octopus.APIKey)
	if sanitized.Octopus.Attempts <= 0 {
		sanitized.Octopus.Attempts = defaults.Octopus.Attempts
	}
	if sanitized.Octopus.Delay < 0 {
		sanitized.Octopus.Delay = defaults.Octopus.Delay
	}
	return sanitized
}

func joinConfigurationKey(parent string, child string) string {
	if len(parent) == 0 {
		return child
	}
	return parent + configurationKeySeparatorConstant + child
}

func trimmedOrDefault(value string, defaultValue string) string {
	if trimmed := strings.TrimSpace(value); len(trimmed) > 0 {
		return trimmed
	}
	return defaultValue
}

func trimValues(values []string) []string {
	trimmed := make([]string, 0, len(values))
	for _, value := range values {
		if candidate := strings.TrimSpace(value); len(candidate) > 0 {
			trimmed = append(trimmed, candidate)
		}
	}
	return trimmed
}
