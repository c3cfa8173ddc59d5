package variables

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/temirov/upmerge/internal/utils/flags"
)

const (
	variableTagNameConstant           = "variable"
	decodeTargetErrorMessageConstant  = "decode target must be a non-nil pointer to a struct"
	decodeErrorTemplateConstant       = "decode variables: %w"
	toggleDecodeErrorTemplateConstant = "variable toggle: %w"
)

// ErrInvalidDecodeTarget indicates Decode received something other than a pointer to a struct.
var ErrInvalidDecodeTarget = errors.New(decodeTargetErrorMessageConstant)

// Step template prefixes used when a variable is supplied through a step template parameter
// instead of a project variable.
const (
	FindConflictsPrefix = "FindConflicts."
	MergeRepoPrefix     = "MergeRepo."
	PreviewMergePrefix  = "PreviewMerge."
	ForkGiteaRepoPrefix = "ForkGiteaRepo."
)

// Resolve returns the value of key from the first source holding a non-empty value.
// A key absent from every source resolves to the empty string.
func Resolve(key string, sources []Source) (string, bool) {
	for _, source := range sources {
		if source == nil {
			continue
		}
		value, found := source.Lookup(key)
		if found && len(value) > 0 {
			return value, true
		}
	}
	return "", false
}

// Resolver consults its sources in order and falls back across key aliases.
type Resolver struct {
	sources  []Source
	prefixes []string
}

// NewResolver builds a resolver over sources. Each prefix adds a fallback key consulted
// after the plain key, so Git.Url.Host may be satisfied by MergeRepo.Git.Url.Host.
func NewResolver(sources []Source, prefixes ...string) Resolver {
	filteredSources := make([]Source, 0, len(sources))
	for _, source := range sources {
		if source != nil {
			filteredSources = append(filteredSources, source)
		}
	}
	return Resolver{sources: filteredSources, prefixes: append([]string(nil), prefixes...)}
}

// Keys lists the plain key followed by every prefixed alias.
func (resolver Resolver) Keys(key string) []string {
	keys := make([]string, 0, len(resolver.prefixes)+1)
	keys = append(keys, key)
	for _, prefix := range resolver.prefixes {
		keys = append(keys, prefix+key)
	}
	return keys
}

// Value returns the first non-empty value across the key and its aliases.
func (resolver Resolver) Value(key string) string {
	for _, candidateKey := range resolver.Keys(key) {
		if value, found := Resolve(candidateKey, resolver.sources); found {
			return value
		}
	}
	return ""
}

// ValueOr returns Value(key) or fallback when nothing is set.
func (resolver Resolver) ValueOr(key string, fallback string) string {
	if value := resolver.Value(key); len(value) > 0 {
		return value
	}
	return fallback
}

// Decode fills the fields of target tagged `variable:"Dotted.Key"` with resolved values.
// Fields whose variables are unset keep their current value. Booleans accept Octopus
// checkbox literals such as "True" and "False".
func (resolver Resolver) Decode(target any) error {
	targetValue := reflect.ValueOf(target)
	if !targetValue.IsValid() || targetValue.Kind() != reflect.Pointer || targetValue.IsNil() || targetValue.Elem().Kind() != reflect.Struct {
		return fmt.Errorf(decodeErrorTemplateConstant, ErrInvalidDecodeTarget)
	}

	resolvedValues := map[string]any{}
	targetType := targetValue.Elem().Type()
	for fieldIndex := 0; fieldIndex < targetType.NumField(); fieldIndex++ {
		variableKey := strings.TrimSpace(targetType.Field(fieldIndex).Tag.Get(variableTagNameConstant))
		if len(variableKey) == 0 || variableKey == "-" {
			continue
		}
		if value := resolver.Value(variableKey); len(value) > 0 {
			resolvedValues[variableKey] = value
		}
	}

	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          variableTagNameConstant,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(toggleDecodeHook, mapstructure.StringToTimeDurationHookFunc()),
		Result:           target,
	})
	if decoderError != nil {
		return fmt.Errorf(decodeErrorTemplateConstant, decoderError)
	}
	if decodeError := decoder.Decode(resolvedValues); decodeError != nil {
		return fmt.Errorf(decodeErrorTemplateConstant, decodeError)
	}
	return nil
}

func toggleDecodeHook(sourceType reflect.Type, targetType reflect.Type, data any) (any, error) {
	if sourceType.Kind() != reflect.String || targetType.Kind() != reflect.Bool {
		return data, nil
	}
	parsedValue, parseError := flags.ParseToggle(data.(string))
	if parseError != nil {
		return nil, fmt.Errorf(toggleDecodeErrorTemplateConstant, parseError)
	}
	return parsedValue, nil
}
