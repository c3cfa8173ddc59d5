package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	exitCodeSuffixTemplateConstant          = " (exit code %d%s)"
	executionFailureSuffixTemplateConstant  = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	flagPrefixConstant                      = "-"
)

const (
	gitCloneSubcommandNameConstant     = "clone"
	gitRemoteSubcommandNameConstant    = "remote"
	gitRemoteAddSubcommandNameConstant = "add"
	gitFetchSubcommandNameConstant     = "fetch"
	gitCheckoutSubcommandNameConstant  = "checkout"
	gitCreateBranchFlagConstant        = "-b"
	gitMergeBaseSubcommandNameConstant = "merge-base"
	gitRevParseSubcommandNameConstant  = "rev-parse"
	gitMergeSubcommandNameConstant     = "merge"
	gitMergeContinueFlagConstant       = "--continue"
	gitMergeAbortFlagConstant          = "--abort"
	gitDiffSubcommandNameConstant      = "diff"
	gitPushSubcommandNameConstant      = "push"
	gitConfigSubcommandNameConstant    = "config"
	gitFetchAllFlagConstant            = "--all"
	gitFetchAllRemotesLabelConstant    = "all remotes"
)

const (
	terraformInitSubcommandNameConstant      = "init"
	terraformWorkspaceSubcommandNameConstant = "workspace"
	terraformWorkspaceListActionConstant     = "list"
	terraformWorkspaceSelectActionConstant   = "select"
	terraformOutputSubcommandNameConstant    = "output"
	terraformShowSubcommandNameConstant      = "show"
)

var (
	gitCloneMessages = messageTemplates{
		start:            "Cloning %s into %s in %s",
		success:          "Cloned %s into %s in %s",
		failure:          "Failed to clone %s into %s in %s",
		executionFailure: "Unable to clone %s into %s in %s",
	}
	gitRemoteAddMessages = messageTemplates{
		start:            "Registering remote %s for %s in %s",
		success:          "Registered remote %s for %s in %s",
		failure:          "Failed to register remote %s for %s in %s",
		executionFailure: "Unable to register remote %s for %s in %s",
	}
	gitFetchMessages = messageTemplates{
		start:            "Fetching from %s in %s",
		success:          "Fetched from %s in %s",
		failure:          "Failed to fetch from %s in %s",
		executionFailure: "Unable to fetch from %s in %s",
	}
	gitCheckoutMessages = messageTemplates{
		start:            "Switching %s to branch %s",
		success:          "%s now on branch %s",
		failure:          "Failed to switch %s to branch %s",
		executionFailure: "Unable to switch %s to branch %s",
	}
	gitTrackingBranchMessages = messageTemplates{
		start:            "Creating branch %s from %s in %s",
		success:          "Created branch %s from %s in %s",
		failure:          "Failed to create branch %s from %s in %s",
		executionFailure: "Unable to create branch %s from %s in %s",
	}
	gitMergeBaseMessages = messageTemplates{
		start:            "Computing merge base of %s in %s",
		success:          "Computed merge base of %s in %s",
		failure:          "No merge base found for %s in %s",
		executionFailure: "Unable to compute merge base of %s in %s",
	}
	gitRevisionMessages = messageTemplates{
		start:            "Resolving %s in %s",
		success:          "Resolved %s in %s",
		failure:          "Failed to resolve %s in %s",
		executionFailure: "Unable to resolve %s in %s",
	}
	gitTrialMergeMessages = messageTemplates{
		start:            "Trial merging %s in %s",
		success:          "Trial merge of %s in %s applied cleanly",
		failure:          "Trial merge of %s in %s reported conflicts",
		executionFailure: "Unable to trial merge %s in %s",
	}
	gitMergeContinueMessages = messageTemplates{
		start:            "Committing merge in %s",
		success:          "Committed merge in %s",
		failure:          "Failed to commit merge in %s",
		executionFailure: "Unable to commit merge in %s",
	}
	gitMergeAbortMessages = messageTemplates{
		start:            "Abandoning merge in %s",
		success:          "Abandoned merge in %s",
		failure:          "Failed to abandon merge in %s",
		executionFailure: "Unable to abandon merge in %s",
	}
	gitDiffMessages = messageTemplates{
		start:            "Comparing %s in %s",
		success:          "No differences for %s in %s",
		failure:          "Differences found for %s in %s",
		executionFailure: "Unable to compare %s in %s",
	}
	gitPushMessages = messageTemplates{
		start:            "Pushing to %s from %s",
		success:          "Pushed to %s from %s",
		failure:          "Failed to push to %s from %s",
		executionFailure: "Unable to push to %s from %s",
	}
	gitConfigMessages = messageTemplates{
		start:            "Setting git configuration %s",
		success:          "Set git configuration %s",
		failure:          "Failed to set git configuration %s",
		executionFailure: "Unable to set git configuration %s",
	}
	terraformInitMessages = messageTemplates{
		start:            "Initializing terraform in %s",
		success:          "Initialized terraform in %s",
		failure:          "Failed to initialize terraform in %s",
		executionFailure: "Unable to initialize terraform in %s",
	}
	terraformWorkspaceListMessages = messageTemplates{
		start:            "Listing terraform workspaces in %s",
		success:          "Listed terraform workspaces in %s",
		failure:          "Failed to list terraform workspaces in %s",
		executionFailure: "Unable to list terraform workspaces in %s",
	}
	terraformWorkspaceSelectMessages = messageTemplates{
		start:            "Selecting terraform workspace %s in %s",
		success:          "Selected terraform workspace %s in %s",
		failure:          "Failed to select terraform workspace %s in %s",
		executionFailure: "Unable to select terraform workspace %s in %s",
	}
	terraformOutputMessages = messageTemplates{
		start:            "Reading terraform output %s in %s",
		success:          "Read terraform output %s in %s",
		failure:          "Failed to read terraform output %s in %s",
		executionFailure: "Unable to read terraform output %s in %s",
	}
	terraformShowMessages = messageTemplates{
		start:            "Reading terraform state in %s",
		success:          "Read terraform state in %s",
		failure:          "Failed to read terraform state in %s",
		executionFailure: "Unable to read terraform state in %s",
	}
)

type messageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
// Sensitive values registered on a command never appear in the produced messages.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	maskedCommand := command
	maskedCommand.Details.Arguments = command.Details.MaskedArguments()

	var message string
	switch command.Name {
	case CommandGit:
		message = formatter.describeGitMessage(maskedCommand, result, failure, stage)
	case CommandTerraform:
		message = formatter.describeTerraformMessage(maskedCommand, result, failure, stage)
	default:
		message = formatter.buildGenericMessage(maskedCommand, result, failure, stage)
	}
	return command.Details.Mask(message)
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	subcommand := strings.TrimSpace(arguments[0])
	switch subcommand {
	case gitCloneSubcommandNameConstant:
		positional := formatter.positionalArguments(arguments[1:])
		return formatter.formatStage(gitCloneMessages, stage, result, failure,
			formatter.ensureValue(formatter.argumentAtIndex(positional, 0)), formatter.ensureValue(formatter.argumentAtIndex(positional, 1)), workingDirectory)
	case gitRemoteSubcommandNameConstant:
		if formatter.argumentAtIndex(arguments, 1) != gitRemoteAddSubcommandNameConstant {
			return formatter.buildGenericMessage(command, result, failure, stage)
		}
		return formatter.formatStage(gitRemoteAddMessages, stage, result, failure,
			formatter.ensureValue(formatter.argumentAtIndex(arguments, 2)), formatter.ensureValue(formatter.argumentAtIndex(arguments, 3)), workingDirectory)
	case gitFetchSubcommandNameConstant:
		remoteLabel := formatter.argumentAtIndex(formatter.positionalArguments(arguments[1:]), 0)
		if containsArgument(arguments, gitFetchAllFlagConstant) || len(remoteLabel) == 0 {
			remoteLabel = gitFetchAllRemotesLabelConstant
		}
		return formatter.formatStage(gitFetchMessages, stage, result, failure, remoteLabel, workingDirectory)
	case gitCheckoutSubcommandNameConstant:
		if containsArgument(arguments, gitCreateBranchFlagConstant) {
			positional := formatter.positionalArguments(arguments[1:])
			return formatter.formatStage(gitTrackingBranchMessages, stage, result, failure,
				formatter.ensureValue(formatter.argumentAtIndex(positional, 0)), formatter.ensureValue(formatter.argumentAtIndex(positional, 1)), workingDirectory)
		}
		return formatter.formatStage(gitCheckoutMessages, stage, result, failure,
			workingDirectory, formatter.ensureValue(formatter.argumentAtIndex(arguments, 1)))
	case gitMergeBaseSubcommandNameConstant:
		return formatter.formatStage(gitMergeBaseMessages, stage, result, failure,
			formatter.ensureValue(strings.Join(formatter.positionalArguments(arguments[1:]), " and ")), workingDirectory)
	case gitRevParseSubcommandNameConstant:
		return formatter.formatStage(gitRevisionMessages, stage, result, failure,
			formatter.ensureValue(formatter.lastArgument(arguments)), workingDirectory)
	case gitMergeSubcommandNameConstant:
		return formatter.describeGitMergeMessage(command, result, failure, stage, workingDirectory)
	case gitDiffSubcommandNameConstant:
		return formatter.formatStage(gitDiffMessages, stage, result, failure,
			formatter.ensureValue(formatter.lastArgument(arguments)), workingDirectory)
	case gitPushSubcommandNameConstant:
		return formatter.formatStage(gitPushMessages, stage, result, failure,
			formatter.ensureValue(formatter.argumentAtIndex(formatter.positionalArguments(arguments[1:]), 0)), workingDirectory)
	case gitConfigSubcommandNameConstant:
		return formatter.formatStage(gitConfigMessages, stage, result, failure,
			formatter.ensureValue(formatter.argumentAtIndex(formatter.positionalArguments(arguments[1:]), 0)))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMergeMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage, workingDirectory string) string {
	arguments := command.Details.Arguments
	switch {
	case containsArgument(arguments, gitMergeContinueFlagConstant):
		return formatter.formatStage(gitMergeContinueMessages, stage, result, failure, workingDirectory)
	case containsArgument(arguments, gitMergeAbortFlagConstant):
		return formatter.formatStage(gitMergeAbortMessages, stage, result, failure, workingDirectory)
	default:
		return formatter.formatStage(gitTrialMergeMessages, stage, result, failure,
			formatter.ensureValue(formatter.lastArgument(arguments)), workingDirectory)
	}
}

func (formatter CommandMessageFormatter) describeTerraformMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	switch strings.TrimSpace(arguments[0]) {
	case terraformInitSubcommandNameConstant:
		return formatter.formatStage(terraformInitMessages, stage, result, failure, workingDirectory)
	case terraformWorkspaceSubcommandNameConstant:
		switch formatter.argumentAtIndex(arguments, 1) {
		case terraformWorkspaceListActionConstant:
			return formatter.formatStage(terraformWorkspaceListMessages, stage, result, failure, workingDirectory)
		case terraformWorkspaceSelectActionConstant:
			return formatter.formatStage(terraformWorkspaceSelectMessages, stage, result, failure,
				formatter.ensureValue(formatter.lastArgument(arguments)), workingDirectory)
		}
	case terraformOutputSubcommandNameConstant:
		return formatter.formatStage(terraformOutputMessages, stage, result, failure,
			formatter.ensureValue(formatter.lastArgument(arguments)), workingDirectory)
	case terraformShowSubcommandNameConstant:
		return formatter.formatStage(terraformShowMessages, stage, result, failure, workingDirectory)
	}
	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) formatStage(templates messageTemplates, stage messageStage, result ExecutionResult, failure error, values ...any) string {
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, values...)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, values...)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, values...) + fmt.Sprintf(exitCodeSuffixTemplateConstant, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(templates.executionFailure, values...) + fmt.Sprintf(executionFailureSuffixTemplateConstant, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	workingDirectorySuffix := formatter.formatWorkingDirectorySuffix(command)
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func (formatter CommandMessageFormatter) positionalArguments(arguments []string) []string {
	positional := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, flagPrefixConstant) {
			continue
		}
		positional = append(positional, trimmed)
	}
	return positional
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index >= 0 && index < len(arguments) {
		return strings.TrimSpace(arguments[index])
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) lastArgument(arguments []string) string {
	if len(arguments) == 0 {
		return emptyStringConstant
	}
	return strings.TrimSpace(arguments[len(arguments)-1])
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}
