package utils

import "context"

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	outputFormatContextKeyConstant          = commandContextKey("outputFormat")
)

type commandContextKey string

// CommandContextAccessor manages values stored in command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the configuration file path to the provided context.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	return accessor.withValue(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath extracts the configuration file path from the provided context.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	return accessor.stringValue(executionContext, configurationFilePathContextKeyConstant)
}

// WithOutputFormat attaches the operator output format (plain or octopus) to the provided context.
func (accessor CommandContextAccessor) WithOutputFormat(parentContext context.Context, outputFormat string) context.Context {
	return accessor.withValue(parentContext, outputFormatContextKeyConstant, outputFormat)
}

// OutputFormat extracts the operator output format from the provided context.
func (accessor CommandContextAccessor) OutputFormat(executionContext context.Context) (string, bool) {
	return accessor.stringValue(executionContext, outputFormatContextKeyConstant)
}

func (accessor CommandContextAccessor) withValue(parentContext context.Context, key commandContextKey, value string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, key, value)
}

func (accessor CommandContextAccessor) stringValue(executionContext context.Context, key commandContextKey) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	value, available := executionContext.Value(key).(string)
	if !available {
		return "", false
	}
	return value, true
}
