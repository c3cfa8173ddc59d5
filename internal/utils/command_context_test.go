package utils_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/upmerge/internal/utils"
)

func TestCommandContextAccessorRoundTripsValues(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	executionContext := accessor.WithConfigurationFilePath(context.Background(), "/etc/upmerge/config.yaml")
	executionContext = accessor.WithOutputFormat(executionContext, "octopus")

	configurationFilePath, configurationAvailable := accessor.ConfigurationFilePath(executionContext)
	require.True(testInstance, configurationAvailable)
	require.Equal(testInstance, "/etc/upmerge/config.yaml", configurationFilePath)

	outputFormat, outputFormatAvailable := accessor.OutputFormat(executionContext)
	require.True(testInstance, outputFormatAvailable)
	require.Equal(testInstance, "octopus", outputFormat)

	_, missingAvailable := accessor.OutputFormat(context.Background())
	require.False(testInstance, missingAvailable)
}
