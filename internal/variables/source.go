package variables

import (
	"os"
	"strings"
)

const (
	environmentKeySeparatorConstant = "_"
	variableKeySeparatorConstant    = "."
)

// Source looks up a single variable by its dotted name.
type Source interface {
	Lookup(key string) (string, bool)
}

// MapSource serves variables from memory.
type MapSource map[string]string

// Lookup returns the stored value.
func (source MapSource) Lookup(key string) (string, bool) {
	value, found := source[key]
	return value, found
}

// EnvironmentSource serves variables from process environment variables named after the
// dotted key: dots become underscores and the name is upper-cased, so Git.Url.Host reads GIT_URL_HOST.
type EnvironmentSource struct {
	// Prefix is prepended to every environment variable name when set.
	Prefix    string
	LookupEnv func(key string) (string, bool)
}

// Lookup reads the environment variable corresponding to key.
func (source EnvironmentSource) Lookup(key string) (string, bool) {
	lookupEnvironment := source.LookupEnv
	if lookupEnvironment == nil {
		lookupEnvironment = os.LookupEnv
	}
	return lookupEnvironment(EnvironmentName(source.Prefix, key))
}

// EnvironmentName converts a dotted variable key into its environment variable name.
func EnvironmentName(prefix string, key string) string {
	environmentName := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(key), variableKeySeparatorConstant, environmentKeySeparatorConstant))
	trimmedPrefix := strings.TrimSpace(prefix)
	if len(trimmedPrefix) == 0 {
		return environmentName
	}
	return strings.ToUpper(strings.TrimSuffix(trimmedPrefix, environmentKeySeparatorConstant)) + environmentKeySeparatorConstant + environmentName
}

// SourceFunc adapts a lookup function to the Source interface.
type SourceFunc func(key string) (string, bool)

// Lookup calls the function.
func (sourceFunction SourceFunc) Lookup(key string) (string, bool) {
	return sourceFunction(key)
}
