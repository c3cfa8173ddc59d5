package flags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatChoiceUsage(t *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "DefaultFirstChoice",
			defaultChoice:  "plain",
			choices:        []string{"plain", "octopus"},
			description:    "Render output for a terminal or for Octopus.",
			expectedOutput: "`<PLAIN|octopus>` Render output for a terminal or for Octopus.",
		},
		{
			name:           "EmptyDescription",
			defaultChoice:  "global",
			choices:        []string{"environment", "global"},
			description:    "",
			expectedOutput: "`<environment|GLOBAL>`",
		},
		{
			name:           "DuplicateChoicesIgnored",
			defaultChoice:  "console",
			choices:        []string{"structured", "structured", "console"},
			description:    "Log format.",
			expectedOutput: "`<structured|CONSOLE>` Log format.",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expectedOutput, FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description))
		})
	}
}

func TestNormalizeChoice(t *testing.T) {
	choices := []string{"plain", "octopus"}

	normalized, normalizeError := NormalizeChoice(" Octopus ", "plain", choices)
	require.NoError(t, normalizeError)
	require.Equal(t, "octopus", normalized)

	defaulted, defaultError := NormalizeChoice("", "plain", choices)
	require.NoError(t, defaultError)
	require.Equal(t, "plain", defaulted)

	_, unsupportedError := NormalizeChoice("teamcity", "plain", choices)
	require.Error(t, unsupportedError)
}
