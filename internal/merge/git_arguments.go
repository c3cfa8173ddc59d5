package merge

const (
	gitCloneSubcommandConstant     = "clone"
	gitRemoteSubcommandConstant    = "remote"
	gitAddActionConstant           = "add"
	gitFetchSubcommandConstant     = "fetch"
	gitAllFlagConstant             = "--all"
	gitCheckoutSubcommandConstant  = "checkout"
	gitCreateBranchFlagConstant    = "-b"
	gitMergeBaseSubcommandConstant = "merge-base"
	gitRevParseSubcommandConstant  = "rev-parse"
	gitMergeSubcommandConstant     = "merge"
	gitNoCommitFlagConstant        = "--no-commit"
	gitNoFastForwardFlagConstant   = "--no-ff"
	gitAbortFlagConstant           = "--abort"
	gitContinueFlagConstant        = "--continue"
	gitDiffSubcommandConstant      = "diff"
	gitQuietFlagConstant           = "--quiet"
	gitExitCodeFlagConstant        = "--exit-code"
	gitUpstreamRevisionConstant    = "@{upstream}"
	gitPushSubcommandConstant      = "push"
	gitConfigSubcommandConstant    = "config"
	gitGlobalFlagConstant          = "--global"
	gitUserEmailKeyConstant        = "user.email"
	gitUserNameKeyConstant         = "user.name"
)
