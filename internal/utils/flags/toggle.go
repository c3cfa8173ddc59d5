package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	toggleTrueCanonicalValue               = "true"
	toggleFalseCanonicalValue              = "false"
	toggleParseErrorTemplate               = "invalid toggle value %q"
	toggleArgumentTruePlaceholderConstant  = "<YES|no>"
	toggleArgumentFalsePlaceholderConstant = "<yes|NO>"
	toggleUsageEmptyTemplate               = "`%s`"
	toggleUsageFullTemplate                = "`%s` %s"
	toggleTypeNameConstant                 = "bool"
)

var (
	trueLiteralSet  = map[string]struct{}{"true": {}, "yes": {}, "on": {}, "1": {}, "t": {}, "y": {}}
	falseLiteralSet = map[string]struct{}{"false": {}, "no": {}, "off": {}, "0": {}, "f": {}, "n": {}}
)

// ParseToggle interprets yes/no style literals case-insensitively.
// Octopus renders checkbox parameters as "True" and "False", which are accepted as well.
func ParseToggle(rawValue string) (bool, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if _, isTrue := trueLiteralSet[normalizedValue]; isTrue {
		return true, nil
	}
	if _, isFalse := falseLiteralSet[normalizedValue]; isFalse {
		return false, nil
	}
	return false, fmt.Errorf(toggleParseErrorTemplate, rawValue)
}

// AddToggleFlag registers a boolean flag accepting "--name", "--name=yes" and "--name=False".
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	toggleValue := newToggleFlagValue(defaultValue, target)
	flagSet.Var(toggleValue, name, formatToggleUsage(usage, defaultValue))

	if flag := flagSet.Lookup(name); flag != nil {
		flag.NoOptDefVal = toggleTrueCanonicalValue
	}
}

func formatToggleUsage(description string, defaultValue bool) string {
	placeholder := toggleArgumentFalsePlaceholderConstant
	if defaultValue {
		placeholder = toggleArgumentTruePlaceholderConstant
	}
	trimmed := strings.TrimSpace(description)
	if len(trimmed) == 0 {
		return fmt.Sprintf(toggleUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(toggleUsageFullTemplate, placeholder, trimmed)
}

type toggleFlagValue struct {
	currentValue bool
	target       *bool
}

func newToggleFlagValue(defaultValue bool, target *bool) *toggleFlagValue {
	if target != nil {
		*target = defaultValue
	}
	return &toggleFlagValue{currentValue: defaultValue, target: target}
}

func (value *toggleFlagValue) Set(rawValue string) error {
	parsedValue, parseError := ParseToggle(rawValue)
	if parseError != nil {
		return parseError
	}

	value.currentValue = parsedValue
	if value.target != nil {
		*value.target = parsedValue
	}
	return nil
}

func (value *toggleFlagValue) String() string {
	if value == nil || !value.currentValue {
		return toggleFalseCanonicalValue
	}
	return toggleTrueCanonicalValue
}

func (value *toggleFlagValue) Type() string {
	return toggleTypeNameConstant
}
