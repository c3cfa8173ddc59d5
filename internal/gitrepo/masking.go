package gitrepo

import "strings"

const credentialMaskConstant = "****"

func maskCredentials(text string, credentials Credentials) string {
	masked := text
	for _, sensitiveValue := range credentials.SensitiveValues() {
		if len(sensitiveValue) == 0 {
			continue
		}
		masked = strings.ReplaceAll(masked, sensitiveValue, credentialMaskConstant)
	}
	return masked
}
