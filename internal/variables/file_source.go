package variables

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	variablesFileReadErrorTemplateConstant  = "read variables file %s: %w"
	variablesFileParseErrorTemplateConstant = "parse variables file %s: %w"
	variablesFileEmptyPathMessageConstant   = "variables file path required"
)

// ErrVariablesFilePathRequired indicates LoadFileSource was called without a path.
var ErrVariablesFilePathRequired = errors.New(variablesFileEmptyPathMessageConstant)

// LoadFileSource reads a YAML or JSON document of variables. Nested mappings are flattened
// into dotted keys, so {Git: {Url: {Host: x}}} and {"Git.Url.Host": x} are equivalent.
func LoadFileSource(filePath string) (MapSource, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return nil, ErrVariablesFilePathRequired
	}

	fileContents, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return nil, fmt.Errorf(variablesFileReadErrorTemplateConstant, trimmedPath, readError)
	}

	return ParseDocument(trimmedPath, fileContents)
}

// ParseDocument flattens a YAML or JSON variables document. name is used in error messages.
func ParseDocument(name string, contents []byte) (MapSource, error) {
	document := map[string]any{}
	if unmarshalError := yaml.Unmarshal(contents, &document); unmarshalError != nil {
		return nil, fmt.Errorf(variablesFileParseErrorTemplateConstant, name, unmarshalError)
	}

	flattened := MapSource{}
	flattenInto(flattened, "", document)
	return flattened, nil
}

func flattenInto(target MapSource, prefix string, value any) {
	switch typedValue := value.(type) {
	case map[string]any:
		for key, nestedValue := range typedValue {
			flattenInto(target, joinKey(prefix, key), nestedValue)
		}
	case nil:
		target[prefix] = ""
	default:
		target[prefix] = fmt.Sprint(typedValue)
	}
}

func joinKey(prefix string, key string) string {
	if len(prefix) == 0 {
		return key
	}
	return prefix + variableKeySeparatorConstant + key
}
