package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/upmerge/cmd/cli/runbooks"
	"github.com/temirov/upmerge/internal/reporting"
	"github.com/temirov/upmerge/internal/utils"
	"github.com/temirov/upmerge/internal/utils/flags"
	"github.com/temirov/upmerge/internal/variables"
)

const (
	applicationNameConstant                 = "upmerge"
	applicationShortDescriptionConstant     = "Merge upstream template repositories into their downstream copies"
	applicationLongDescriptionConstant      = "upmerge keeps repositories forked from an upstream template in step with it. It merges template changes into every downstream project of a tenant, previews pending changes, and resolves the Octopus space created for a tenant."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	outputFormatFlagNameConstant            = "output-format"
	outputFormatFlagDescriptionConstant     = "Render operator messages as plain text or as Octopus service messages."
	variablesFileFlagNameConstant           = "variables-file"
	variablesFileFlagUsageConstant          = "Optional YAML or JSON file supplying runbook variables such as Git.Url.Host."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	commonOutputFormatConfigKeyConstant     = commonConfigurationKeyConstant + ".output_format"
	commonVariablesFileConfigKeyConstant    = commonConfigurationKeyConstant + ".variables_file"
	environmentPrefixConstant               = "UPMERGE"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationOutputFormatFieldConstant  = "output_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	outputFormatErrorTemplateConstant       = "unable to use output format: %w"
	variablesFileErrorTemplateConstant      = "unable to load variables file: %w"
	rootCommandInfoMessageConstant          = "upmerge CLI executed"
	rootCommandDebugMessageConstant         = "upmerge CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	toolsConfigurationKeyConstant           = "tools"
	exitErrorTemplateConstant               = "%v\n"
	successExitCodeConstant                 = 0
	failureExitCodeConstant                 = 1
)

var outputFormatChoices = []string{string(reporting.FormatPlain), string(reporting.FormatOctopus)}

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Tools  runbooks.ToolsConfiguration    `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores settings shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	OutputFormat  string `mapstructure:"output_format"`
	VariablesFile string `mapstructure:"variables_file"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	outputFormatFlagValue  string
	variablesFileFlagValue string
	variableSources        []variables.Source
	commandContextAccessor utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		utils.DefaultSearchPaths(applicationNameConstant),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		variableSources:        []variables.Source{variables.EnvironmentSource{}},
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.outputFormatFlagValue, outputFormatFlagNameConstant, "", flags.FormatChoiceUsage(string(reporting.FormatPlain), outputFormatChoices, outputFormatFlagDescriptionConstant))
	cobraCommand.PersistentFlags().StringVar(&application.variablesFileFlagValue, variablesFileFlagNameConstant, "", variablesFileFlagUsageConstant)

	runtime := runbooks.Runtime{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		ConfigurationProvider: func() runbooks.ToolsConfiguration {
			return application.configuration.Tools
		},
		VariableSourcesProvider: func() []variables.Source {
			return application.variableSources
		},
	}

	commandBuilders := []interface {
		Build() (*cobra.Command, error)
	}{
		&runbooks.MergeAllCommandBuilder{Runtime: runtime},
		&runbooks.MergeCommandBuilder{Runtime: runtime},
		&runbooks.PreviewCommandBuilder{Runtime: runtime},
		&runbooks.SpaceLookupCommandBuilder{Runtime: runtime},
	}
	for _, commandBuilder := range commandBuilders {
		subcommand, buildError := commandBuilder.Build()
		if buildError == nil {
			cobraCommand.AddCommand(subcommand)
		}
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// ExecuteWithStreams runs the command hierarchy with explicit arguments and standard streams.
func (application *Application) ExecuteWithStreams(arguments []string, standardInput io.Reader, standardOutput io.Writer, errorOutput io.Writer) error {
	application.rootCommand.SetArgs(arguments)
	application.rootCommand.SetIn(standardInput)
	application.rootCommand.SetOut(standardOutput)
	application.rootCommand.SetErr(errorOutput)
	return application.Execute()
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

// Run executes a fresh application with the provided arguments, excluding the program name,
// and returns the process exit code. Failures are written to errorOutput.
func Run(arguments []string, standardInput io.Reader, standardOutput io.Writer, errorOutput io.Writer) int {
	if executionError := NewApplication().ExecuteWithStreams(arguments, standardInput, standardOutput, errorOutput); executionError != nil {
		fmt.Fprintf(errorOutput, exitErrorTemplateConstant, executionError)
		return failureExitCodeConstant
	}
	return successExitCodeConstant
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:      string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:     string(utils.LogFormatStructured),
		commonOutputFormatConfigKeyConstant:  string(reporting.FormatPlain),
		commonVariablesFileConfigKeyConstant: "",
	}
	for configurationKey, configurationValue := range runbooks.DefaultConfigurationValues(toolsConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	if application.persistentFlagChanged(command, outputFormatFlagNameConstant) {
		application.configuration.Common.OutputFormat = application.outputFormatFlagValue
	}

	if application.persistentFlagChanged(command, variablesFileFlagNameConstant) {
		application.configuration.Common.VariablesFile = application.variablesFileFlagValue
	}

	outputFormat, outputFormatError := flags.NormalizeChoice(application.configuration.Common.OutputFormat, string(reporting.FormatPlain), outputFormatChoices)
	if outputFormatError != nil {
		return fmt.Errorf(outputFormatErrorTemplateConstant, outputFormatError)
	}
	application.configuration.Common.OutputFormat = outputFormat

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	if variablesFile := strings.TrimSpace(application.configuration.Common.VariablesFile); len(variablesFile) > 0 {
		fileSource, fileSourceError := variables.LoadFileSource(variablesFile)
		if fileSourceError != nil {
			return fmt.Errorf(variablesFileErrorTemplateConstant, fileSourceError)
		}
		application.variableSources = []variables.Source{variables.EnvironmentSource{}, fileSource}
	}

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationOutputFormatFieldConstant, application.configuration.Common.OutputFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		updatedContext = application.commandContextAccessor.WithOutputFormat(updatedContext, application.configuration.Common.OutputFormat)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	return command.Help()
}

func (application *Application) flushLogger() error {
	return application.syncLoggerInstance(application.logger)
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
