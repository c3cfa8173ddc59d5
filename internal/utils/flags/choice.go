package flags

import (
	"fmt"
	"strings"
)

const (
	choicePlaceholderPrefix     = "<"
	choicePlaceholderSuffix     = ">"
	choiceSeparatorLiteral      = "|"
	choiceUsageEmptyTemplate    = "`%s`"
	choiceUsageFullTemplate     = "`%s` %s"
	unsupportedChoiceTemplate   = "unsupported value %q; expected one of %s"
	supportedChoicesJoinLiteral = ", "
)

// FormatChoiceUsage builds a usage string where the default option is capitalized inside a placeholder.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	placeholder := choicePlaceholderPrefix + strings.Join(highlightDefaultChoice(defaultChoice, choices), choiceSeparatorLiteral) + choicePlaceholderSuffix
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, description)
}

// NormalizeChoice returns the canonical lower-case form of value when it matches one of choices.
// An empty value resolves to defaultChoice.
func NormalizeChoice(value string, defaultChoice string, choices []string) (string, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(value))
	if len(normalizedValue) == 0 {
		normalizedValue = strings.ToLower(strings.TrimSpace(defaultChoice))
	}
	for _, choice := range choices {
		if strings.ToLower(strings.TrimSpace(choice)) == normalizedValue {
			return normalizedValue, nil
		}
	}
	return "", fmt.Errorf(unsupportedChoiceTemplate, value, strings.Join(choices, supportedChoicesJoinLiteral))
}

func highlightDefaultChoice(defaultChoice string, choices []string) []string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	highlighted := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))

	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		if len(trimmedChoice) == 0 {
			continue
		}

		normalizedChoice := strings.ToLower(trimmedChoice)
		if _, exists := seen[normalizedChoice]; exists {
			continue
		}

		displayValue := trimmedChoice
		if normalizedChoice == normalizedDefault {
			displayValue = strings.ToUpper(trimmedChoice)
		}

		highlighted = append(highlighted, displayValue)
		seen[normalizedChoice] = struct{}{}
	}

	return highlighted
}
