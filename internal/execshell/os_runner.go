package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"sort"
	"strings"
)

const environmentAssignmentSeparatorConstant = "="

// OSCommandRunner executes commands using the operating system facilities.
// Commands run to completion; no timeout is applied beyond the supplied context.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run executes the supplied command using os/exec. A non-zero exit code is reported
// through ExecutionResult rather than as an error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	commandArguments := append([]string{}, command.Details.Arguments...)
	executable := exec.CommandContext(executionContext, string(command.Name), commandArguments...)

	if len(command.Details.WorkingDirectory) > 0 {
		executable.Dir = command.Details.WorkingDirectory
	}

	if len(command.Details.EnvironmentVariables) > 0 {
		executable.Env = mergeEnvironment(os.Environ(), command.Details.EnvironmentVariables)
	}

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executable.Stdout = &standardOutputBuffer
	executable.Stderr = &standardErrorBuffer

	if len(command.Details.StandardInput) > 0 {
		executable.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	runError := executable.Run()
	if runError != nil {
		exitError := &exec.ExitError{}
		if errors.As(runError, &exitError) {
			return ExecutionResult{
				StandardOutput: standardOutputBuffer.String(),
				StandardError:  standardErrorBuffer.String(),
				ExitCode:       exitError.ExitCode(),
			}, nil
		}
		return ExecutionResult{}, runError
	}

	return ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
		ExitCode:       0,
	}, nil
}

// mergeEnvironment overlays overrides onto the base environment, replacing existing keys.
func mergeEnvironment(baseEnvironment []string, overrides map[string]string) []string {
	mergedEnvironment := make([]string, 0, len(baseEnvironment)+len(overrides))
	for _, assignment := range baseEnvironment {
		environmentKey, _, _ := strings.Cut(assignment, environmentAssignmentSeparatorConstant)
		if _, overridden := overrides[environmentKey]; overridden {
			continue
		}
		mergedEnvironment = append(mergedEnvironment, assignment)
	}

	overrideKeys := make([]string, 0, len(overrides))
	for environmentKey := range overrides {
		overrideKeys = append(overrideKeys, environmentKey)
	}
	sort.Strings(overrideKeys)
	for _, environmentKey := range overrideKeys {
		mergedEnvironment = append(mergedEnvironment, environmentKey+environmentAssignmentSeparatorConstant+overrides[environmentKey])
	}
	return mergedEnvironment
}
