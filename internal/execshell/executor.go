package execshell

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "logger not configured"
	commandRunnerNotConfiguredMessageConstant = "command runner not configured"
	commandStartedLogMessageConstant          = "command started"
	commandCompletedLogMessageConstant        = "command completed"
	commandFailedLogMessageConstant           = "command failed"
	commandExecutionFailedLogMessageConstant  = "command execution failed"
	logFieldCommandConstant                   = "command"
	logFieldArgumentsConstant                 = "arguments"
	logFieldWorkingDirectoryConstant          = "working_directory"
	logFieldExitCodeConstant                  = "exit_code"
	logFieldStandardErrorConstant             = "stderr"
	gitCommandNameConstant                    = "git"
	terraformCommandNameConstant              = "terraform"
	diffRendererCommandNameConstant           = "diff2html"
)

// CommandName identifies an external executable.
type CommandName string

// Supported executables.
const (
	CommandGit          CommandName = CommandName(gitCommandNameConstant)
	CommandTerraform    CommandName = CommandName(terraformCommandNameConstant)
	CommandDiffRenderer CommandName = CommandName(diffRendererCommandNameConstant)
)

// CommandDetails describes the arguments and environment of a single invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
	// SensitiveValues are replaced with a mask wherever the command is rendered.
	SensitiveValues []string
}

// ShellCommand pairs an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable results of executing a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// ErrLoggerNotConfigured indicates that no logger was supplied to the executor.
var ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)

// ErrCommandRunnerNotConfigured indicates that no command runner was supplied to the executor.
var ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)

// CommandFailedError reports a command that ran to completion with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command with sensitive values masked.
func (failure CommandFailedError) Error() string {
	return CommandMessageFormatter{}.BuildFailureMessage(failure.Command, failure.Result)
}

// CommandExecutionError reports a command that could not be executed at all.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure with sensitive values masked.
func (failure CommandExecutionError) Error() string {
	return CommandMessageFormatter{}.BuildExecutionFailureMessage(failure.Command, failure.Cause)
}

// Unwrap exposes the underlying execution failure.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// ExitCodeOf extracts the exit code carried by a CommandFailedError.
func ExitCodeOf(executionError error) (int, bool) {
	var failedError CommandFailedError
	if errors.As(executionError, &failedError) {
		return failedError.Result.ExitCode, true
	}
	return 0, false
}

// ExecutorOption customizes a ShellExecutor.
type ExecutorOption func(executor *ShellExecutor)

// WithCommandEventObserver registers an observer notified about every command lifecycle event.
func WithCommandEventObserver(observer CommandEventObserver) ExecutorOption {
	return func(executor *ShellExecutor) {
		if observer == nil {
			return
		}
		executor.observers = append(executor.observers, observer)
	}
}

// ShellExecutor runs external tools, logging every invocation with sensitive values masked.
type ShellExecutor struct {
	logger    *zap.Logger
	runner    CommandRunner
	observers commandEventFanout
}

// NewShellExecutor constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, options ...ExecutorOption) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	executor := &ShellExecutor{logger: logger, runner: runner}
	for _, option := range options {
		if option != nil {
			option(executor)
		}
	}
	return executor, nil
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteTerraform runs terraform with the provided details.
func (executor *ShellExecutor) ExecuteTerraform(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandTerraform, Details: details})
}

// ExecuteDiffRenderer runs the diff-to-HTML renderer with the provided details.
func (executor *ShellExecutor) ExecuteDiffRenderer(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandDiffRenderer, Details: details})
}

// Execute runs the command and converts non-zero exit codes into CommandFailedError.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	commandFields := []zap.Field{
		zap.String(logFieldCommandConstant, string(command.Name)),
		zap.Strings(logFieldArgumentsConstant, command.Details.MaskedArguments()),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	}

	executor.logger.Debug(commandStartedLogMessageConstant, commandFields...)
	executor.observers.CommandStarted(command)

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executor.logger.Error(commandExecutionFailedLogMessageConstant, append(commandFields, zap.String(logFieldStandardErrorConstant, command.Details.Mask(runError.Error())))...)
		executor.observers.CommandExecutionFailed(command, runError)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.observers.CommandCompleted(command, executionResult)

	if executionResult.ExitCode != 0 {
		executor.logger.Warn(
			commandFailedLogMessageConstant,
			append(commandFields,
				zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
				zap.String(logFieldStandardErrorConstant, command.Details.Mask(strings.TrimSpace(executionResult.StandardError))),
			)...,
		)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logger.Info(commandCompletedLogMessageConstant, append(commandFields, zap.Int(logFieldExitCodeConstant, executionResult.ExitCode))...)
	return executionResult, nil
}
