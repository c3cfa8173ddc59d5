package gitrepo

import (
	"fmt"
	"net/url"
	"strings"
)

const sensitiveURLGoStringTemplateConstant = "gitrepo.SensitiveURL(%q)"

// Credentials hold the username and password used for git remotes and HTTP probes.
type Credentials struct {
	Username string
	Password string
}

// Empty reports whether no credential component is set.
func (credentials Credentials) Empty() bool {
	return len(credentials.Username) == 0 && len(credentials.Password) == 0
}

// SensitiveValues lists the representations of the password that must never appear in output.
func (credentials Credentials) SensitiveValues() []string {
	if len(credentials.Password) == 0 {
		return nil
	}
	userInfo := url.UserPassword(credentials.Username, credentials.Password).String()
	candidates := []string{
		credentials.Password,
		url.PathEscape(credentials.Password),
		url.QueryEscape(credentials.Password),
		userInfo[strings.Index(userInfo, ":")+1:],
	}

	sensitiveValues := make([]string, 0, len(candidates))
	seenValues := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		if _, seen := seenValues[candidate]; seen {
			continue
		}
		seenValues[candidate] = struct{}{}
		sensitiveValues = append(sensitiveValues, candidate)
	}
	return sensitiveValues
}

// SensitiveURL is a repository URL carrying credentials. Formatting it with fmt or a logger
// yields the public form; the credentialed form is only available through Reveal.
type SensitiveURL struct {
	publicURL      string
	credentialed   string
	sensitiveParts []string
}

// NewSensitiveURL embeds credentials into an http(s) repository URL. Other URLs, or empty
// credentials, are kept as-is.
func NewSensitiveURL(rawURL string, credentials Credentials) (SensitiveURL, error) {
	trimmedURL := strings.TrimSpace(rawURL)
	parsedURL, parseError := url.Parse(trimmedURL)
	if parseError != nil || len(trimmedURL) == 0 {
		return SensitiveURL{}, LocatorError{Input: redactURL(trimmedURL), Message: invalidRepositoryURLMessageConstant}
	}

	parsedURL.User = nil
	publicURL := parsedURL.String()

	scheme := RemoteProtocol(strings.ToLower(parsedURL.Scheme))
	if credentials.Empty() || (scheme != RemoteProtocolHTTPS && scheme != RemoteProtocolHTTP) {
		return SensitiveURL{publicURL: publicURL, credentialed: publicURL}, nil
	}

	parsedURL.User = url.UserPassword(credentials.Username, credentials.Password)
	return SensitiveURL{
		publicURL:      publicURL,
		credentialed:   parsedURL.String(),
		sensitiveParts: credentials.SensitiveValues(),
	}, nil
}

// String returns the URL without credentials.
func (sensitiveURL SensitiveURL) String() string {
	return sensitiveURL.publicURL
}

// GoString returns the URL without credentials for %#v formatting.
func (sensitiveURL SensitiveURL) GoString() string {
	return fmt.Sprintf(sensitiveURLGoStringTemplateConstant, sensitiveURL.publicURL)
}

// Format renders the public URL for every verb.
func (sensitiveURL SensitiveURL) Format(state fmt.State, verb rune) {
	if verb == 'v' && state.Flag('#') {
		_, _ = state.Write([]byte(sensitiveURL.GoString()))
		return
	}
	_, _ = state.Write([]byte(sensitiveURL.publicURL))
}

// Reveal returns the credentialed URL for handing to git.
func (sensitiveURL SensitiveURL) Reveal() string {
	return sensitiveURL.credentialed
}

// SensitiveValues lists values that must be masked wherever the revealed URL may be echoed.
func (sensitiveURL SensitiveURL) SensitiveValues() []string {
	return append([]string(nil), sensitiveURL.sensitiveParts...)
}

// IsZero reports whether the URL was never set.
func (sensitiveURL SensitiveURL) IsZero() bool {
	return len(sensitiveURL.publicURL) == 0
}
