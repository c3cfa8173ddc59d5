package execshell

import "strings"

const sensitiveValueMaskConstant = "****"

// Mask replaces every sensitive value in text with a fixed mask.
func (details CommandDetails) Mask(text string) string {
	masked := text
	for _, sensitiveValue := range details.SensitiveValues {
		if len(sensitiveValue) == 0 {
			continue
		}
		masked = strings.ReplaceAll(masked, sensitiveValue, sensitiveValueMaskConstant)
	}
	return masked
}

// MaskedArguments returns a copy of the arguments with sensitive values masked.
func (details CommandDetails) MaskedArguments() []string {
	maskedArguments := make([]string, len(details.Arguments))
	for argumentIndex, argument := range details.Arguments {
		maskedArguments[argumentIndex] = details.Mask(argument)
	}
	return maskedArguments
}
