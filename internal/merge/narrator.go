package merge

import "strings"

const (
	projectUpToDateTemplateConstant     = "Project %s in space %s is up to date"
	projectConflictedTemplateConstant   = "Project %s in space %s has merge conflicts and has not been processed"
	projectMergingTemplateConstant      = "Project %s in space %s is being merged with the upstream repo"
	projectFailedTemplateConstant       = "Project %s in space %s could not be processed: %v"
	changesMergedMessageConstant        = "Changes merged successfully"
	noChangesMessageConstant            = "No changes found."
	pushFailedMessageConstant           = "The git push operation failed. Check the verbose logs for more details."
	resolutionHeaderMessageConstant     = "To resolve the conflicts, run the following commands:"
	singleConflictMessageConstant       = "Template repo branch could not be automatically merged into project branch. This merge will need to be resolved manually."
	singleMergedTemplateConstant        = "Changes merged successfully from upstream repo %s into the downstream repo %s"
	singleNoChangesTemplateConstant     = "No changes found in the upstream repo %s that do not exist in the downstream repo %s"
	transcriptMakeDirectoryConstant     = "mkdir cac"
	transcriptChangeDirectoryConstant   = "cd cac"
	transcriptCommandPrefixConstant     = "git "
	transcriptArgumentSeparatorConstant = " "
)

// Reporter receives operator-facing messages.
type Reporter interface {
	Printf(format string, arguments ...any)
	Verbosef(format string, arguments ...any)
	Highlightf(format string, arguments ...any)
}

// Narrator tells the operator what happened to each repository.
type Narrator interface {
	UpToDate(outcome Outcome)
	Conflicted(outcome Outcome, transcript []string)
	Merging(outcome Outcome)
	Merged(outcome Outcome)
	NothingToPush(outcome Outcome)
	PushFailed(outcome Outcome)
	Failed(outcome Outcome)
}

// SilentNarrator discards every message.
type SilentNarrator struct{}

func (SilentNarrator) UpToDate(Outcome)             {}
func (SilentNarrator) Conflicted(Outcome, []string) {}
func (SilentNarrator) Merging(Outcome)              {}
func (SilentNarrator) Merged(Outcome)               {}
func (SilentNarrator) NothingToPush(Outcome)        {}
func (SilentNarrator) PushFailed(Outcome)           {}
func (SilentNarrator) Failed(Outcome)               {}

// FanOutNarrator reports one status line per project, as used when merging every downstream
// repository of a tenant. Resolution transcripts go to the verbose sink.
type FanOutNarrator struct {
	Reporter Reporter
}

func (narrator FanOutNarrator) UpToDate(outcome Outcome) {
	narrator.Reporter.Printf(projectUpToDateTemplateConstant, outcome.RepositoryName, outcome.SpaceName)
}

func (narrator FanOutNarrator) Conflicted(outcome Outcome, transcript []string) {
	narrator.Reporter.Printf(projectConflictedTemplateConstant, outcome.RepositoryName, outcome.SpaceName)
	narrator.Reporter.Verbosef("%s", resolutionHeaderMessageConstant)
	for _, line := range transcript {
		narrator.Reporter.Verbosef("%s", line)
	}
}

func (narrator FanOutNarrator) Merging(outcome Outcome) {
	narrator.Reporter.Printf(projectMergingTemplateConstant, outcome.RepositoryName, outcome.SpaceName)
}

func (narrator FanOutNarrator) Merged(Outcome) {
	narrator.Reporter.Printf("%s", changesMergedMessageConstant)
}

func (narrator FanOutNarrator) NothingToPush(Outcome) {
	narrator.Reporter.Printf("%s", noChangesMessageConstant)
}

func (narrator FanOutNarrator) PushFailed(Outcome) {
	narrator.Reporter.Printf("%s", pushFailedMessageConstant)
}

func (narrator FanOutNarrator) Failed(outcome Outcome) {
	narrator.Reporter.Printf(projectFailedTemplateConstant, outcome.RepositoryName, outcome.SpaceName, outcome.Cause)
}

// SingleRepositoryNarrator reports the merge of one named repository, highlighting the result.
// Failures are left to the caller, which exits non-zero.
type SingleRepositoryNarrator struct {
	Reporter Reporter
}

func (narrator SingleRepositoryNarrator) UpToDate(outcome Outcome) {
	narrator.NothingToPush(outcome)
}

func (narrator SingleRepositoryNarrator) Conflicted(_ Outcome, transcript []string) {
	narrator.Reporter.Printf("%s", singleConflictMessageConstant)
	narrator.Reporter.Highlightf("%s", resolutionHeaderMessageConstant)
	for _, line := range transcript {
		narrator.Reporter.Highlightf("%s", line)
	}
}

func (narrator SingleRepositoryNarrator) Merging(Outcome) {}

func (narrator SingleRepositoryNarrator) Merged(outcome Outcome) {
	narrator.Reporter.Highlightf(singleMergedTemplateConstant, outcome.UpstreamURL, outcome.DownstreamURL)
}

func (narrator SingleRepositoryNarrator) NothingToPush(outcome Outcome) {
	narrator.Reporter.Highlightf(singleNoChangesTemplateConstant, outcome.UpstreamURL, outcome.DownstreamURL)
}

func (narrator SingleRepositoryNarrator) PushFailed(Outcome) {
	narrator.Reporter.Printf("%s", pushFailedMessageConstant)
}

func (narrator SingleRepositoryNarrator) Failed(Outcome) {}

// ResolutionTranscript lists the commands an operator runs to reproduce a conflicted merge by
// hand. Only public URLs appear in the transcript.
func ResolutionTranscript(run *RunContext, downstreamURL string) []string {
	targetBranch := run.TargetBranch()
	upstreamBranch := run.UpstreamBranch()
	upstreamTrackingBranch := UpstreamTrackingBranch(upstreamBranch)

	gitCommands := [][]string{
		{gitCloneSubcommandConstant, downstreamURL, currentDirectoryConstant},
		{gitRemoteSubcommandConstant, gitAddActionConstant, upstreamRemoteNameConstant, run.Upstream.DisplayURL()},
		{gitFetchSubcommandConstant, gitAllFlagConstant},
		{gitCheckoutSubcommandConstant, gitCreateBranchFlagConstant, upstreamTrackingBranch, upstreamRemoteNameConstant + remoteBranchSeparatorConstant + upstreamBranch},
	}
	if run.IsMainline(targetBranch) {
		gitCommands = append(gitCommands, []string{gitCheckoutSubcommandConstant, targetBranch})
	} else {
		gitCommands = append(gitCommands, []string{gitCheckoutSubcommandConstant, gitCreateBranchFlagConstant, targetBranch, originRemoteNameConstant + remoteBranchSeparatorConstant + targetBranch})
	}
	gitCommands = append(gitCommands,
		[]string{gitMergeBaseSubcommandConstant, targetBranch, upstreamTrackingBranch},
		[]string{gitMergeSubcommandConstant, gitNoCommitFlagConstant, gitNoFastForwardFlagConstant, upstreamTrackingBranch},
	)

	transcript := []string{transcriptMakeDirectoryConstant, transcriptChangeDirectoryConstant}
	for _, gitCommand := range gitCommands {
		transcript = append(transcript, transcriptCommandPrefixConstant+strings.Join(gitCommand, transcriptArgumentSeparatorConstant))
	}
	return transcript
}
