package runbooks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/temirov/upmerge/internal/execshell"
	"github.com/temirov/upmerge/internal/merge"
	"github.com/temirov/upmerge/internal/octopus"
	"github.com/temirov/upmerge/internal/templateguard"
	"github.com/temirov/upmerge/internal/ui"
	"github.com/temirov/upmerge/internal/utils"
	"github.com/temirov/upmerge/internal/variables"
)

const (
	testTenantNameConstant          = "Tenant A"
	testProjectNameConstant         = "Web App"
	testOrganizationConstant        = "octopuscac"
	testPasswordConstant            = "s3cr3t"
	testUsernameConstant            = "octopus"
	testSpaceIDConstant             = "Spaces-42"
	testInitArgumentConstant        = "-backend-config=conn_str=postgres://state"
	testWorkspaceListOutputConstant = "* default\n"
	testSpacesPathConstant          = "/api/Spaces"
	testTenantStateJSONConstant     = `{"values": {"root_module": {"resources": [{"type": "octopusdeploy_project", "values": {"name": "Web App", "git_library_persistence_settings": [{"url": "https://git.example.com/octopuscac/tenant_a_web_app.git"}]}}]}}}`
)

type recordingToolExecutor struct {
	gitCommands       [][]string
	terraformCommands [][]string
	terraformOutputs  map[string]string
	gitSideEffects    map[string]func(workingDirectory string)
}

func (executor *recordingToolExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.gitCommands = append(executor.gitCommands, append([]string(nil), details.Arguments...))
	if len(details.Arguments) > 0 {
		if sideEffect, found := executor.gitSideEffects[details.Arguments[0]]; found {
			sideEffect(details.WorkingDirectory)
		}
	}
	return execshell.ExecutionResult{}, nil
}

func (executor *recordingToolExecutor) ExecuteTerraform(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.terraformCommands = append(executor.terraformCommands, append([]string(nil), details.Arguments...))
	return execshell.ExecutionResult{StandardOutput: executor.terraformOutputs[strings.Join(details.Arguments, " ")]}, nil
}

func (executor *recordingToolExecutor) ExecuteDiffRenderer(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return execshell.ExecutionResult{}, nil
}

func newTestRuntime(testInstance *testing.T, executor *recordingToolExecutor, values variables.MapSource) Runtime {
	testInstance.Helper()
	workspace := testInstance.TempDir()
	return Runtime{
		ConfigurationProvider: func() ToolsConfiguration {
			configuration := DefaultToolsConfiguration()
			configuration.Merge.Workspace = workspace
			configuration.Merge.Identity.Scope = string(merge.IdentityScopeEnvironment)
			return configuration
		},
		VariableSourcesProvider: func() []variables.Source {
			return []variables.Source{values}
		},
		Executor: executor,
		Sleeper: func(context.Context, time.Duration) error {
			return nil
		},
	}
}

func executeCommand(testInstance *testing.T, command *cobra.Command, outputFormat string, arguments ...string) (string, error) {
	testInstance.Helper()
	outputBuffer := &bytes.Buffer{}
	command.SetArgs(arguments)
	command.SetOut(outputBuffer)
	command.SetErr(outputBuffer)
	executionContext := utils.NewCommandContextAccessor().WithOutputFormat(context.Background(), outputFormat)
	executionError := command.ExecuteContext(executionContext)
	return outputBuffer.String(), executionError
}

func newRepositoryServer(testInstance *testing.T, availableRepositories ...string) *httptest.Server {
	testInstance.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		for _, repository := range availableRepositories {
			if strings.HasSuffix(request.URL.Path, "/"+repository+".git") {
				responseWriter.WriteHeader(http.StatusOK)
				return
			}
		}
		responseWriter.WriteHeader(http.StatusNotFound)
	}))
	testInstance.Cleanup(server.Close)
	return server
}

func repositoryVariables(server *httptest.Server) variables.MapSource {
	return variables.MapSource{
		"Git.Credentials.Username":       testUsernameConstant,
		"Git.Credentials.Password":       testPasswordConstant,
		"Git.Url.Protocol":               "http",
		"Git.Url.Host":                   strings.TrimPrefix(server.URL, "http://"),
		"Git.Url.Organization":           testOrganizationConstant,
		"Octopus.Project.Name":           testProjectNameConstant,
		"Octopus.Deployment.Tenant.Name": testTenantNameConstant,
	}
}

func TestMergeReportsUnavailableDownstreamRepository(testInstance *testing.T) {
	server := newRepositoryServer(testInstance, "web_app")
	executor := &recordingToolExecutor{}
	builder := MergeCommandBuilder{Runtime: newTestRuntime(testInstance, executor, repositoryVariables(server))}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, command, "")
	require.ErrorIs(testInstance, executionError, ErrRepositoryUnavailable)
	require.Contains(testInstance, output, "Downstream repo "+server.URL+"/"+testOrganizationConstant+"/tenant_a_web_app.git is not available")
	require.NotContains(testInstance, output, testPasswordConstant)
	require.Empty(testInstance, executor.gitCommands)
}

func TestMergeReportsUnavailableUpstreamRepository(testInstance *testing.T) {
	server := newRepositoryServer(testInstance, "tenant_a_web_app")
	executor := &recordingToolExecutor{}
	builder := MergeCommandBuilder{Runtime: newTestRuntime(testInstance, executor, repositoryVariables(server))}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, command, "", "--template-repo-name", "shared_template")
	require.ErrorIs(testInstance, executionError, ErrRepositoryUnavailable)
	require.Contains(testInstance, output, "Upstream repo "+server.URL+"/"+testOrganizationConstant+"/shared_template.git is not available")
}

func TestMergeRequiresGitHost(testInstance *testing.T) {
	executor := &recordingToolExecutor{}
	builder := MergeCommandBuilder{Runtime: newTestRuntime(testInstance, executor, variables.MapSource{})}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	_, executionError := executeCommand(testInstance, command, "")
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "--git-host")
}

func TestPreviewSilentFailExitsSuccessfully(testInstance *testing.T) {
	testCases := []struct {
		name        string
		arguments   []string
		expectError bool
	}{
		{name: "silent_fail", arguments: []string{"--silent-fail"}, expectError: false},
		{name: "loud_fail", arguments: nil, expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			server := newRepositoryServer(subtest)
			builder := PreviewCommandBuilder{Runtime: newTestRuntime(subtest, &recordingToolExecutor{}, repositoryVariables(server))}

			command, buildError := builder.Build()
			require.NoError(subtest, buildError)

			output, executionError := executeCommand(subtest, command, "", testCase.arguments...)
			require.Contains(subtest, output, "is not available")
			if testCase.expectError {
				require.ErrorIs(subtest, executionError, ErrRepositoryUnavailable)
				return
			}
			require.NoError(subtest, executionError)
		})
	}
}

func TestPreviewPrefersRepositoryNameVariable(testInstance *testing.T) {
	server := newRepositoryServer(testInstance)
	values := repositoryVariables(server)
	values["PreviewMerge.Git.Url.RepoName"] = "custom_repository"
	builder := PreviewCommandBuilder{Runtime: newTestRuntime(testInstance, &recordingToolExecutor{}, values)}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, _ := executeCommand(testInstance, command, "")
	require.Contains(testInstance, output, "/custom_repository.git is not available")
}

func TestMergeAllReadsTerraformStateAndChecksTemplate(testInstance *testing.T) {
	executor := &recordingToolExecutor{terraformOutputs: map[string]string{"workspace list": testWorkspaceListOutputConstant}}
	values := variables.MapSource{
		"Git.Url.Host":                          "git.example.com",
		"Git.Url.Organization":                  testOrganizationConstant,
		"Octopus.Project.Name":                  testProjectNameConstant,
		"Octopus.Deployment.Tenant.Name":        testTenantNameConstant,
		"FindConflicts.Terraform.Backend.Init1": testInitArgumentConstant,
	}
	runtime := newTestRuntime(testInstance, executor, values)
	builder := MergeAllCommandBuilder{Runtime: runtime}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, command, "")
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, mergeAllStartedMessageConstant)
	require.Contains(testInstance, output, mergeAllVerboseHintMessageConstant)
	require.Contains(testInstance, output, "deployment_process.ocl")

	require.NotEmpty(testInstance, executor.terraformCommands)
	require.Equal(testInstance, []string{"init", "-no-color", testInitArgumentConstant}, executor.terraformCommands[0])
	require.Equal(testInstance, []string{"workspace", "list"}, executor.terraformCommands[1])

	workspace := runtime.ConfigurationProvider().Merge.Workspace
	_, statError := os.Stat(filepath.Join(workspace, "backend.tf"))
	require.NoError(testInstance, statError)

	require.NotEmpty(testInstance, executor.gitCommands)
	require.Equal(testInstance, "clone", executor.gitCommands[0][0])
	require.Equal(testInstance, "https://git.example.com/"+testOrganizationConstant+"/web_app.git", executor.gitCommands[0][1])
}

func TestMergeAllStopsBeforeDownstreamClonesWhenTemplateReferencesStepTemplate(testInstance *testing.T) {
	executor := &recordingToolExecutor{
		terraformOutputs: map[string]string{
			"workspace list":                 "  default\n* tenant_a\n",
			"output -raw octopus_space_name": testTenantNameConstant,
			"show -json":                     testTenantStateJSONConstant,
		},
		gitSideEffects: map[string]func(string){
			"clone": func(workingDirectory string) {
				processPath := filepath.Join(workingDirectory, ".octopus", "project", "deployment_process.ocl")
				require.NoError(testInstance, os.MkdirAll(filepath.Dir(processPath), 0o755))
				require.NoError(testInstance, os.WriteFile(processPath, []byte(`step "deploy" { action_template = "ActionTemplates-1" }`), 0o644))
			},
		},
	}
	values := variables.MapSource{
		"Git.Url.Host":                   "git.example.com",
		"Git.Url.Organization":           testOrganizationConstant,
		"Octopus.Project.Name":           testProjectNameConstant,
		"Octopus.Deployment.Tenant.Name": testTenantNameConstant,
	}
	builder := MergeAllCommandBuilder{Runtime: newTestRuntime(testInstance, executor, values)}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, command, "")
	require.ErrorIs(testInstance, executionError, templateguard.ErrForbiddenTemplateReference)
	require.Contains(testInstance, output, templateguard.ErrForbiddenTemplateReference.Error())

	var clonedURLs []string
	for _, gitCommand := range executor.gitCommands {
		if gitCommand[0] == "clone" {
			clonedURLs = append(clonedURLs, gitCommand[1])
		}
	}
	require.Equal(testInstance, []string{"https://git.example.com/" + testOrganizationConstant + "/web_app.git"}, clonedURLs)
}

func TestSummaryRowsClassifyOutcomes(testInstance *testing.T) {
	rows := summaryRows([]merge.Outcome{
		{Kind: merge.OutcomeMerged, RepositoryName: "merged"},
		{Kind: merge.OutcomeConflicted, RepositoryName: "conflicted"},
		{Kind: merge.OutcomeUpToDate, RepositoryName: "current"},
		{Kind: merge.OutcomeFailed, RepositoryName: "broken", Cause: os.ErrNotExist},
	})

	require.Len(testInstance, rows, 4)
	require.Equal(testInstance, ui.ToneSuccess, rows[0].Tone)
	require.Equal(testInstance, ui.ToneWarning, rows[1].Tone)
	require.Equal(testInstance, summaryConflictDetailConstant, rows[1].Detail)
	require.Equal(testInstance, ui.ToneNeutral, rows[2].Tone)
	require.Equal(testInstance, ui.ToneFailure, rows[3].Tone)
	require.Equal(testInstance, os.ErrNotExist.Error(), rows[3].Detail)
}

func TestOutcomeError(testInstance *testing.T) {
	require.NoError(testInstance, outcomeError(merge.Outcome{Kind: merge.OutcomeMerged}))
	require.NoError(testInstance, outcomeError(merge.Outcome{Kind: merge.OutcomeUpToDate}))
	require.ErrorIs(testInstance, outcomeError(merge.Outcome{Kind: merge.OutcomeConflicted}), ErrMergeConflicted)
	require.ErrorIs(testInstance, outcomeError(merge.Outcome{Kind: merge.OutcomePushFailed}), ErrMergePushFailed)
	require.ErrorIs(testInstance, outcomeError(merge.Outcome{Kind: merge.OutcomeFailed, Cause: os.ErrNotExist}), os.ErrNotExist)
}

func newSpacesServer(testInstance *testing.T, spaces ...octopus.SpaceMatch) *httptest.Server {
	testInstance.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		if request.URL.Path != testSpacesPathConstant {
			responseWriter.WriteHeader(http.StatusNotFound)
			return
		}
		responseWriter.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(responseWriter).Encode(map[string]any{"Items": spaces})
	}))
	testInstance.Cleanup(server.Close)
	return server
}

func TestSpaceLookupPublishesSpaceID(testInstance *testing.T) {
	server := newSpacesServer(testInstance,
		octopus.SpaceMatch{ID: "Spaces-1", Name: testTenantNameConstant + " Extended"},
		octopus.SpaceMatch{ID: testSpaceIDConstant, Name: testTenantNameConstant},
	)

	testCases := []struct {
		name           string
		outputFormat   string
		expectedOutput string
	}{
		{name: "plain", outputFormat: "plain", expectedOutput: "SpaceID=" + testSpaceIDConstant},
		{name: "octopus", outputFormat: "octopus", expectedOutput: "##octopus[setVariable name='U3BhY2VJRA==' value='U3BhY2VzLTQy']"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			builder := SpaceLookupCommandBuilder{Runtime: newTestRuntime(subtest, &recordingToolExecutor{}, variables.MapSource{
				"Octopus.Deployment.Tenant.Name": testTenantNameConstant,
			})}
			command, buildError := builder.Build()
			require.NoError(subtest, buildError)

			output, executionError := executeCommand(subtest, command, testCase.outputFormat, "--octopus-url", server.URL)
			require.NoError(subtest, executionError)
			require.Contains(subtest, output, spaceMatchedMessageConstant)
			require.Contains(subtest, output, testCase.expectedOutput)
		})
	}
}

func TestSpaceLookupFailsWithoutMatchingSpace(testInstance *testing.T) {
	server := newSpacesServer(testInstance, octopus.SpaceMatch{ID: "Spaces-1", Name: "Other"})
	builder := SpaceLookupCommandBuilder{Runtime: newTestRuntime(testInstance, &recordingToolExecutor{}, variables.MapSource{})}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output, executionError := executeCommand(testInstance, command, "", "--octopus-url", server.URL, "--tenant-name", testTenantNameConstant, "--attempts", "1")
	require.ErrorIs(testInstance, executionError, octopus.ErrSpaceNotFound)
	require.Contains(testInstance, output, "Failed to match tenant name to space")
}

func TestToolsConfigurationSanitizeRestoresDefaults(testInstance *testing.T) {
	sanitized := ToolsConfiguration{
		Merge:     MergeConfiguration{Workspace: "  ", MainlineBranches: []string{" ", ""}},
		Terraform: TerraformConfiguration{InitArguments: []string{" -backend-config=a ", ""}},
		Octopus:   OctopusConfiguration{ServerURL: " ", Attempts: -1, Delay: -time.Second},
	}.Sanitize()

	defaults := DefaultToolsConfiguration()
	require.Equal(testInstance, defaults.Merge.Workspace, sanitized.Merge.Workspace)
	require.Equal(testInstance, defaults.Merge.MainlineBranches, sanitized.Merge.MainlineBranches)
	require.Equal(testInstance, defaults.Merge.ForbiddenMarker, sanitized.Merge.ForbiddenMarker)
	require.Equal(testInstance, []string{"-backend-config=a"}, sanitized.Terraform.InitArguments)
	require.Equal(testInstance, octopus.DefaultServerURL, sanitized.Octopus.ServerURL)
	require.Equal(testInstance, octopus.DefaultLookupAttempts, sanitized.Octopus.Attempts)
	require.Equal(testInstance, octopus.DefaultLookupDelay, sanitized.Octopus.Delay)
}

func TestRepositoryOptionsDeriveNames(testInstance *testing.T) {
	testCases := []struct {
		name               string
		options            repositoryOptions
		expectedDownstream string
		expectedTemplate   string
	}{
		{
			name:               "original_project",
			options:            repositoryOptions{OriginalProjectName: "Web App", TenantName: "Tenant A"},
			expectedDownstream: "tenant_a_web_app",
			expectedTemplate:   "web_app",
		},
		{
			name:               "new_project",
			options:            repositoryOptions{OriginalProjectName: "Web App", NewProjectName: "Shop", TenantName: "Tenant A"},
			expectedDownstream: "tenant_a_shop",
			expectedTemplate:   "web_app",
		},
		{
			name:               "explicit_names",
			options:            repositoryOptions{OriginalProjectName: "Web App", RepositoryName: "custom", TemplateRepositoryName: "upstream"},
			expectedDownstream: "custom",
			expectedTemplate:   "upstream",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			require.Equal(subtest, testCase.expectedDownstream, testCase.options.downstreamRepositoryName())
			require.Equal(subtest, testCase.expectedTemplate, testCase.options.templateRepositoryName())
		})
	}
}
