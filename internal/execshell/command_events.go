package execshell

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	// CommandStarted notifies observers that command execution is beginning.
	CommandStarted(command ShellCommand)
	// CommandCompleted notifies observers that command execution finished and supplies the result.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed reports unexpected failures prior to receiving an execution result.
	CommandExecutionFailed(command ShellCommand, failure error)
}

// commandEventFanout forwards every event to each registered observer in registration order.
type commandEventFanout []CommandEventObserver

func (fanout commandEventFanout) CommandStarted(command ShellCommand) {
	for _, observer := range fanout {
		observer.CommandStarted(command)
	}
}

func (fanout commandEventFanout) CommandCompleted(command ShellCommand, result ExecutionResult) {
	for _, observer := range fanout {
		observer.CommandCompleted(command, result)
	}
}

func (fanout commandEventFanout) CommandExecutionFailed(command ShellCommand, failure error) {
	for _, observer := range fanout {
		observer.CommandExecutionFailed(command, failure)
	}
}
