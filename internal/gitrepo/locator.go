package gitrepo

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	pathSeparatorConstant               = "/"
	gitSuffixConstant                   = ".git"
	protocolSeparatorConstant           = "://"
	locatorErrorTemplateConstant        = "%s: %s"
	requiredValueMessageConstant        = "value required"
	invalidRepositoryURLMessageConstant = "invalid repository url"
	unknownProtocolMessageConstant      = "unsupported repository protocol"
)

// RemoteProtocol enumerates supported git hosting protocols.
type RemoteProtocol string

// Supported remote protocols.
const (
	RemoteProtocolHTTPS RemoteProtocol = RemoteProtocol("https")
	RemoteProtocolHTTP  RemoteProtocol = RemoteProtocol("http")
)

// RepositoryLocator identifies a repository hosted under an organization on a git server.
type RepositoryLocator struct {
	Protocol     RemoteProtocol
	Host         string
	Organization string
	Repository   string
}

// LocatorError indicates a repository location could not be parsed or formatted.
type LocatorError struct {
	Input   string
	Message string
}

// Error describes the failure.
func (locatorError LocatorError) Error() string {
	return fmt.Sprintf(locatorErrorTemplateConstant, locatorError.Input, locatorError.Message)
}

// PublicURL formats the locator as protocol://host/organization/repository.git without credentials.
func (locator RepositoryLocator) PublicURL() (string, error) {
	protocol := RemoteProtocol(strings.ToLower(strings.TrimSpace(string(locator.Protocol))))
	switch protocol {
	case RemoteProtocolHTTPS, RemoteProtocolHTTP:
	default:
		return "", LocatorError{Input: string(locator.Protocol), Message: unknownProtocolMessageConstant}
	}

	host := strings.Trim(strings.TrimSpace(locator.Host), pathSeparatorConstant)
	organization := strings.Trim(strings.TrimSpace(locator.Organization), pathSeparatorConstant)
	repository := strings.TrimSuffix(strings.TrimSpace(locator.Repository), gitSuffixConstant)
	for _, component := range []string{host, organization, repository} {
		if len(component) == 0 {
			return "", LocatorError{Input: fmt.Sprintf("%+v", locator), Message: requiredValueMessageConstant}
		}
	}

	return string(protocol) + protocolSeparatorConstant + host + pathSeparatorConstant + organization + pathSeparatorConstant + repository + gitSuffixConstant, nil
}

// ParseRepositoryURL converts an http(s) repository URL into a locator. Embedded credentials are discarded.
func ParseRepositoryURL(rawURL string) (RepositoryLocator, error) {
	trimmedURL := strings.TrimSpace(rawURL)
	if len(trimmedURL) == 0 {
		return RepositoryLocator{}, LocatorError{Input: rawURL, Message: requiredValueMessageConstant}
	}

	parsedURL, parseError := url.Parse(trimmedURL)
	if parseError != nil || len(parsedURL.Host) == 0 {
		return RepositoryLocator{}, LocatorError{Input: redactURL(trimmedURL), Message: invalidRepositoryURLMessageConstant}
	}

	protocol := RemoteProtocol(strings.ToLower(parsedURL.Scheme))
	if protocol != RemoteProtocolHTTPS && protocol != RemoteProtocolHTTP {
		return RepositoryLocator{}, LocatorError{Input: redactURL(trimmedURL), Message: unknownProtocolMessageConstant}
	}

	pathSegments := strings.Split(strings.Trim(parsedURL.Path, pathSeparatorConstant), pathSeparatorConstant)
	if len(pathSegments) < 2 {
		return RepositoryLocator{}, LocatorError{Input: redactURL(trimmedURL), Message: invalidRepositoryURLMessageConstant}
	}

	repository := strings.TrimSuffix(pathSegments[len(pathSegments)-1], gitSuffixConstant)
	organization := strings.Join(pathSegments[:len(pathSegments)-1], pathSeparatorConstant)
	if len(repository) == 0 || len(organization) == 0 {
		return RepositoryLocator{}, LocatorError{Input: redactURL(trimmedURL), Message: invalidRepositoryURLMessageConstant}
	}

	return RepositoryLocator{Protocol: protocol, Host: parsedURL.Host, Organization: organization, Repository: repository}, nil
}

// redactURL removes user information from rawURL when it parses as a URL.
func redactURL(rawURL string) string {
	parsedURL, parseError := url.Parse(rawURL)
	if parseError != nil {
		return invalidRepositoryURLMessageConstant
	}
	parsedURL.User = nil
	return parsedURL.String()
}
