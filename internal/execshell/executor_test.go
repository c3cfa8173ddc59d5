package execshell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/upmerge/internal/execshell"
)

const (
	testExecutionSuccessCaseNameConstant         = "success"
	testExecutionFailureCaseNameConstant         = "failure_exit_code"
	testExecutionRunnerErrorCaseNameConstant     = "runner_error"
	testGitWrapperCaseNameConstant               = "git_wrapper"
	testTerraformWrapperCaseNameConstant         = "terraform_wrapper"
	testDiffRendererWrapperCaseNameConstant      = "diff_renderer_wrapper"
	testCommandArgumentConstant                  = "--version"
	testWorkingDirectoryConstant                 = "."
	testStandardErrorOutputConstant              = "failure"
	testLoggerInitializationCaseNameConstant     = "logger_validation"
	testRunnerInitializationCaseNameConstant     = "runner_validation"
	testSuccessfulInitializationCaseNameConstant = "successful_initialization"
	testSecretConstant                           = "s3cr3t-token"
	testCredentialedURLConstant                  = "https://octopus:" + testSecretConstant + "@git.example.com/org/acme.git"
)

type recordingCommandRunner struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	return runner.executionResult, runner.executionError
}

type recordingEventObserver struct {
	startedCommands   []execshell.ShellCommand
	completedCommands []execshell.ShellCommand
	failedCommands    []execshell.ShellCommand
}

func (eventObserver *recordingEventObserver) CommandStarted(command execshell.ShellCommand) {
	eventObserver.startedCommands = append(eventObserver.startedCommands, command)
}

func (eventObserver *recordingEventObserver) CommandCompleted(command execshell.ShellCommand, _ execshell.ExecutionResult) {
	eventObserver.completedCommands = append(eventObserver.completedCommands, command)
}

func (eventObserver *recordingEventObserver) CommandExecutionFailed(command execshell.ShellCommand, _ error) {
	eventObserver.failedCommands = append(eventObserver.failedCommands, command)
}

func TestShellExecutorInitializationValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		runner        execshell.CommandRunner
		expectError   error
		expectSuccess bool
	}{
		{
			name:        testLoggerInitializationCaseNameConstant,
			logger:      nil,
			runner:      &recordingCommandRunner{},
			expectError: execshell.ErrLoggerNotConfigured,
		},
		{
			name:        testRunnerInitializationCaseNameConstant,
			logger:      zap.NewNop(),
			runner:      nil,
			expectError: execshell.ErrCommandRunnerNotConfigured,
		},
		{
			name:          testSuccessfulInitializationCaseNameConstant,
			logger:        zap.NewNop(),
			runner:        &recordingCommandRunner{},
			expectSuccess: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor, creationError := execshell.NewShellExecutor(testCase.logger, testCase.runner)
			if testCase.expectSuccess {
				require.NoError(testInstance, creationError)
				require.NotNil(testInstance, executor)
			} else {
				require.Error(testInstance, creationError)
				require.ErrorIs(testInstance, creationError, testCase.expectError)
			}
		})
	}
}

func TestShellExecutorExecuteBehavior(testInstance *testing.T) {
	testCases := []struct {
		name             string
		runnerResult     execshell.ExecutionResult
		runnerError      error
		expectErrorType  any
		expectedLogCount int
	}{
		{
			name: testExecutionSuccessCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardOutput: "ok",
				ExitCode:       0,
			},
			expectedLogCount: 2,
		},
		{
			name: testExecutionFailureCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardError: testStandardErrorOutputConstant,
				ExitCode:      1,
			},
			expectErrorType:  execshell.CommandFailedError{},
			expectedLogCount: 2,
		},
		{
			name:             testExecutionRunnerErrorCaseNameConstant,
			runnerError:      errors.New("runner failure"),
			expectErrorType:  execshell.CommandExecutionError{},
			expectedLogCount: 2,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observerLogs := observer.New(zap.DebugLevel)
			logger := zap.New(observerCore)

			recordingRunner := &recordingCommandRunner{
				executionResult: testCase.runnerResult,
				executionError:  testCase.runnerError,
			}

			shellExecutor, creationError := execshell.NewShellExecutor(logger, recordingRunner)
			require.NoError(testInstance, creationError)

			commandDetails := execshell.CommandDetails{Arguments: []string{testCommandArgumentConstant}, WorkingDirectory: testWorkingDirectoryConstant}
			executionResult, executionError := shellExecutor.ExecuteGit(context.Background(), commandDetails)

			if testCase.expectErrorType != nil {
				require.Error(testInstance, executionError)
				require.IsType(testInstance, testCase.expectErrorType, executionError)
				require.Empty(testInstance, executionResult.StandardOutput)
			} else {
				require.NoError(testInstance, executionError)
				require.Equal(testInstance, testCase.runnerResult.StandardOutput, executionResult.StandardOutput)
			}

			require.Len(testInstance, observerLogs.All(), testCase.expectedLogCount)
		})
	}
}

func TestShellExecutorWrappersSetCommandNames(testInstance *testing.T) {
	testCases := []struct {
		name            string
		invoke          func(executor *execshell.ShellExecutor) error
		expectedCommand execshell.CommandName
	}{
		{
			name: testGitWrapperCaseNameConstant,
			invoke: func(executor *execshell.ShellExecutor) error {
				_, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{})
				return executionError
			},
			expectedCommand: execshell.CommandGit,
		},
		{
			name: testTerraformWrapperCaseNameConstant,
			invoke: func(executor *execshell.ShellExecutor) error {
				_, executionError := executor.ExecuteTerraform(context.Background(), execshell.CommandDetails{})
				return executionError
			},
			expectedCommand: execshell.CommandTerraform,
		},
		{
			name: testDiffRendererWrapperCaseNameConstant,
			invoke: func(executor *execshell.ShellExecutor) error {
				_, executionError := executor.ExecuteDiffRenderer(context.Background(), execshell.CommandDetails{})
				return executionError
			},
			expectedCommand: execshell.CommandDiffRenderer,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			recordingRunner := &recordingCommandRunner{
				executionResult: execshell.ExecutionResult{ExitCode: 1},
			}

			executor, creationError := execshell.NewShellExecutor(zap.NewNop(), recordingRunner)
			require.NoError(testInstance, creationError)

			executionError := testCase.invoke(executor)
			require.Error(testInstance, executionError)
			exitCode, carriesExitCode := execshell.ExitCodeOf(executionError)
			require.True(testInstance, carriesExitCode)
			require.Equal(testInstance, 1, exitCode)
			require.Len(testInstance, recordingRunner.recordedCommands, 1)
			require.Equal(testInstance, testCase.expectedCommand, recordingRunner.recordedCommands[0].Name)
		})
	}
}

func TestShellExecutorNotifiesObservers(testInstance *testing.T) {
	firstObserver := &recordingEventObserver{}
	secondObserver := &recordingEventObserver{}
	executor, creationError := execshell.NewShellExecutor(
		zap.NewNop(),
		&recordingCommandRunner{executionError: errors.New("missing binary")},
		execshell.WithCommandEventObserver(firstObserver),
		execshell.WithCommandEventObserver(secondObserver),
		execshell.WithCommandEventObserver(nil),
	)
	require.NoError(testInstance, creationError)

	_, executionError := executor.ExecuteTerraform(context.Background(), execshell.CommandDetails{Arguments: []string{"show", "-json"}})
	require.Error(testInstance, executionError)

	for _, eventObserver := range []*recordingEventObserver{firstObserver, secondObserver} {
		require.Len(testInstance, eventObserver.startedCommands, 1)
		require.Empty(testInstance, eventObserver.completedCommands)
		require.Len(testInstance, eventObserver.failedCommands, 1)
	}
}

func TestShellExecutorMasksSensitiveValues(testInstance *testing.T) {
	observerCore, observerLogs := observer.New(zap.DebugLevel)
	recordingRunner := &recordingCommandRunner{
		executionResult: execshell.ExecutionResult{
			StandardError: "fatal: could not read from " + testCredentialedURLConstant,
			ExitCode:      128,
		},
	}
	executor, creationError := execshell.NewShellExecutor(zap.New(observerCore), recordingRunner)
	require.NoError(testInstance, creationError)

	_, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{
		Arguments:       []string{"clone", testCredentialedURLConstant, "."},
		SensitiveValues: []string{testSecretConstant},
	})
	require.Error(testInstance, executionError)
	require.NotContains(testInstance, executionError.Error(), testSecretConstant)

	require.Len(testInstance, recordingRunner.recordedCommands, 1)
	require.Contains(testInstance, recordingRunner.recordedCommands[0].Details.Arguments[1], testSecretConstant)

	for _, entry := range observerLogs.All() {
		require.NotContains(testInstance, entry.Message, testSecretConstant)
		for _, fieldValue := range entry.ContextMap() {
			require.NotContains(testInstance, stringifyField(fieldValue), testSecretConstant)
		}
	}
}

func stringifyField(fieldValue any) string {
	switch typedValue := fieldValue.(type) {
	case string:
		return typedValue
	case []any:
		combined := ""
		for _, element := range typedValue {
			combined += stringifyField(element)
		}
		return combined
	default:
		return ""
	}
}
