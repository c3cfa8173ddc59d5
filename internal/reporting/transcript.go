package reporting

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/temirov/upmerge/internal/execshell"
)

const commandLineSeparatorConstant = " "

// CommandTranscriptObserver echoes every external command and its output to the verbose sink.
// Sensitive values are masked and ANSI escape sequences are stripped.
type CommandTranscriptObserver struct {
	reporter *Reporter
}

// NewCommandTranscriptObserver constructs an observer writing to reporter.
func NewCommandTranscriptObserver(reporter *Reporter) *CommandTranscriptObserver {
	if reporter == nil {
		reporter = NewDiscardReporter()
	}
	return &CommandTranscriptObserver{reporter: reporter}
}

// CommandStarted writes the masked command line.
func (observer *CommandTranscriptObserver) CommandStarted(command execshell.ShellCommand) {
	commandLine := append([]string{string(command.Name)}, command.Details.MaskedArguments()...)
	observer.reporter.Verbosef("%s", strings.Join(commandLine, commandLineSeparatorConstant))
}

// CommandCompleted writes captured standard output and standard error.
func (observer *CommandTranscriptObserver) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	observer.writeOutput(command, result.StandardOutput)
	observer.writeOutput(command, result.StandardError)
}

// CommandExecutionFailed writes the execution failure.
func (observer *CommandTranscriptObserver) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if failure == nil {
		return
	}
	observer.writeOutput(command, failure.Error())
}

func (observer *CommandTranscriptObserver) writeOutput(command execshell.ShellCommand, output string) {
	cleanedOutput := strings.TrimSpace(ansi.Strip(command.Details.Mask(output)))
	if len(cleanedOutput) == 0 {
		return
	}
	observer.reporter.Verbosef("%s", cleanedOutput)
}
