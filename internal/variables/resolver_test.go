package variables_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/upmerge/internal/variables"
)

type mergeInputs struct {
	Host         string        `variable:"Git.Url.Host"`
	Username     string        `variable:"Git.Credentials.Username"`
	GenerateDiff bool          `variable:"Git.GenerateDiff"`
	Attempts     int           `variable:"Octopus.Attempts"`
	Delay        time.Duration `variable:"Octopus.Delay"`
	Untagged     string
}

func TestResolveFirstNonEmptySourceWins(testInstance *testing.T) {
	testCases := []struct {
		name          string
		sources       []variables.Source
		expectedValue string
		expectedFound bool
	}{
		{
			name:          "first_source",
			sources:       []variables.Source{variables.MapSource{"Git.Url.Host": "first"}, variables.MapSource{"Git.Url.Host": "second"}},
			expectedValue: "first",
			expectedFound: true,
		},
		{
			name:          "empty_value_falls_through",
			sources:       []variables.Source{variables.MapSource{"Git.Url.Host": ""}, nil, variables.MapSource{"Git.Url.Host": "second"}},
			expectedValue: "second",
			expectedFound: true,
		},
		{
			name:    "missing_everywhere",
			sources: []variables.Source{variables.MapSource{}},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			value, found := variables.Resolve("Git.Url.Host", testCase.sources)
			require.Equal(subtest, testCase.expectedValue, value)
			require.Equal(subtest, testCase.expectedFound, found)
		})
	}
}

func TestResolverFallsBackToPrefixedKeys(testInstance *testing.T) {
	resolver := variables.NewResolver(
		[]variables.Source{
			variables.MapSource{"MergeRepo.Git.Url.Host": "template-host"},
			variables.MapSource{"Git.Url.Host": "project-host", "PreviewMerge.Git.Url.Organization": "org"},
		},
		variables.MergeRepoPrefix,
		variables.PreviewMergePrefix,
	)

	require.Equal(testInstance, "project-host", resolver.Value("Git.Url.Host"))
	require.Equal(testInstance, "org", resolver.Value("Git.Url.Organization"))
	require.Empty(testInstance, resolver.Value("Git.Url.Protocol"))
	require.Equal(testInstance, "https", resolver.ValueOr("Git.Url.Protocol", "https"))
	require.Equal(testInstance, []string{"Git.Url.Host", "MergeRepo.Git.Url.Host", "PreviewMerge.Git.Url.Host"}, resolver.Keys("Git.Url.Host"))
}

func TestEnvironmentSourceUsesUpperCaseUnderscoreNames(testInstance *testing.T) {
	environment := map[string]string{"GIT_URL_HOST": "git.example.com", "UPMERGE_GIT_URL_ORGANIZATION": "org"}
	lookup := func(key string) (string, bool) {
		value, found := environment[key]
		return value, found
	}

	plainSource := variables.EnvironmentSource{LookupEnv: lookup}
	host, hostFound := plainSource.Lookup("Git.Url.Host")
	require.True(testInstance, hostFound)
	require.Equal(testInstance, "git.example.com", host)

	prefixedSource := variables.EnvironmentSource{Prefix: "upmerge_", LookupEnv: lookup}
	organization, organizationFound := prefixedSource.Lookup("Git.Url.Organization")
	require.True(testInstance, organizationFound)
	require.Equal(testInstance, "org", organization)
}

func TestResolverDecodesTaggedFields(testInstance *testing.T) {
	resolver := variables.NewResolver([]variables.Source{variables.MapSource{
		"Git.Url.Host":               "git.example.com",
		"MergeRepo.Git.GenerateDiff": "True",
		"Octopus.Attempts":           "3",
		"Octopus.Delay":              "2s",
	}}, variables.MergeRepoPrefix)

	inputs := mergeInputs{Username: "kept", Untagged: "kept"}
	require.NoError(testInstance, resolver.Decode(&inputs))

	require.Equal(testInstance, mergeInputs{
		Host:         "git.example.com",
		Username:     "kept",
		GenerateDiff: true,
		Attempts:     3,
		Delay:        2 * time.Second,
		Untagged:     "kept",
	}, inputs)
}

func TestResolverDecodeRejectsInvalidInput(testInstance *testing.T) {
	resolver := variables.NewResolver([]variables.Source{variables.MapSource{"Git.GenerateDiff": "maybe"}})

	require.Error(testInstance, resolver.Decode(&mergeInputs{}))
	require.ErrorIs(testInstance, resolver.Decode(mergeInputs{}), variables.ErrInvalidDecodeTarget)
}

func TestLoadFileSourceFlattensNestedDocuments(testInstance *testing.T) {
	variablesPath := filepath.Join(testInstance.TempDir(), "variables.yaml")
	document := "Git:\n  Url:\n    Host: git.example.com\nOctopus.Project.Name: My Project\nGit.GenerateDiff: true\nEmpty:\n"
	require.NoError(testInstance, os.WriteFile(variablesPath, []byte(document), 0o600))

	source, loadError := variables.LoadFileSource(variablesPath)
	require.NoError(testInstance, loadError)

	require.Equal(testInstance, variables.MapSource{
		"Git.Url.Host":         "git.example.com",
		"Octopus.Project.Name": "My Project",
		"Git.GenerateDiff":     "true",
		"Empty":                "",
	}, source)

	jsonSource, jsonError := variables.ParseDocument("inline", []byte(`{"Git.Url.Protocol": "https"}`))
	require.NoError(testInstance, jsonError)
	require.Equal(testInstance, "https", jsonSource["Git.Url.Protocol"])

	_, missingError := variables.LoadFileSource(filepath.Join(testInstance.TempDir(), "missing.yaml"))
	require.Error(testInstance, missingError)

	_, emptyPathError := variables.LoadFileSource(" ")
	require.ErrorIs(testInstance, emptyPathError, variables.ErrVariablesFilePathRequired)
}
