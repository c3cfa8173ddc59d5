package octopus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	spacesPathConstant                        = "/api/Spaces"
	partialNameParameterConstant              = "partialName"
	apiKeyHeaderConstant                      = "X-Octopus-ApiKey"
	acceptHeaderConstant                      = "Accept"
	jsonContentTypeConstant                   = "application/json"
	spaceIDVariableNameConstant               = "SpaceID"
	serverURLTrailingSeparatorConstant        = "/"
	querySeparatorConstant                    = "?"
	maskedSecretConstant                      = "****"
	spaceNotFoundMessageConstant              = "Failed to match tenant name to space"
	spaceLookupExhaustedMessageConstant       = "space lookup did not succeed"
	serverURLRequiredMessageConstant          = "octopus server url required"
	tenantNameRequiredMessageConstant         = "tenant name required"
	spaceLookupRequestErrorTemplateConstant   = "build space lookup request: %w"
	spaceLookupDecodeErrorTemplateConstant    = "decode space lookup response: %w"
	spaceLookupExhaustedErrorTemplateConstant = "%w after %d attempts: %s"
	spaceLookupAttemptLogMessageConstant      = "space lookup attempt failed"
	spaceLookupMatchedLogMessageConstant      = "space lookup matched"
	unexpectedStatusTemplateConstant          = "unexpected status %d"
	logFieldAttemptConstant                   = "attempt"
	logFieldTenantConstant                    = "tenant"
	logFieldSpaceIDConstant                   = "space_id"
	logFieldReasonConstant                    = "reason"
)

// Defaults applied when the lookup is not configured otherwise.
const (
	DefaultServerURL      = "http://octopus:8080"
	DefaultLookupAttempts = 12
	DefaultLookupDelay    = 5 * time.Second
)

var (
	// ErrSpaceNotFound indicates no space is named exactly after the tenant.
	ErrSpaceNotFound = errors.New(spaceNotFoundMessageConstant)
	// ErrSpaceLookupExhausted indicates every attempt returned a non-success status.
	ErrSpaceLookupExhausted = errors.New(spaceLookupExhaustedMessageConstant)
	// ErrServerURLRequired indicates the client was configured without a server URL.
	ErrServerURLRequired = errors.New(serverURLRequiredMessageConstant)
	// ErrTenantNameRequired indicates LookupSpace was called with a blank tenant name.
	ErrTenantNameRequired = errors.New(tenantNameRequiredMessageConstant)
)

// HTTPClient performs HTTP requests.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// Sleeper waits between attempts. It returns early with the context error when cancelled.
type Sleeper func(executionContext context.Context, delay time.Duration) error

// SpaceMatch identifies the space found for a tenant.
type SpaceMatch struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

type spaceCollection struct {
	Items []SpaceMatch `json:"Items"`
}

// SpaceClientConfiguration describes the Octopus server and retry policy.
type SpaceClientConfiguration struct {
	ServerURL string
	APIKey    string
	Username  string
	Password  string
	Attempts  int
	Delay     time.Duration
}

// SpaceClient finds the space created for a tenant.
type SpaceClient struct {
	configuration SpaceClientConfiguration
	client        HTTPClient
	sleeper       Sleeper
	logger        *zap.Logger
}

// NewSpaceClient constructs a SpaceClient. Nil collaborators fall back to http.DefaultClient,
// a context-aware timer, and a no-op logger.
func NewSpaceClient(configuration SpaceClientConfiguration, client HTTPClient, sleeper Sleeper, logger *zap.Logger) (*SpaceClient, error) {
	configuration.ServerURL = strings.TrimRight(strings.TrimSpace(configuration.ServerURL), serverURLTrailingSeparatorConstant)
	if len(configuration.ServerURL) == 0 {
		return nil, ErrServerURLRequired
	}
	if configuration.Attempts <= 0 {
		configuration.Attempts = DefaultLookupAttempts
	}
	if configuration.Delay < 0 {
		configuration.Delay = DefaultLookupDelay
	}
	if client == nil {
		client = http.DefaultClient
	}
	if sleeper == nil {
		sleeper = contextSleep
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpaceClient{configuration: configuration, client: client, sleeper: sleeper, logger: logger}, nil
}

// LookupSpace queries spaces whose name contains tenantName and returns the one named exactly
// tenantName. Non-success statuses and transport errors are retried with a fixed delay.
func (spaceClient *SpaceClient) LookupSpace(executionContext context.Context, tenantName string) (SpaceMatch, error) {
	if len(strings.TrimSpace(tenantName)) == 0 {
		return SpaceMatch{}, ErrTenantNameRequired
	}

	lookupURL := spaceClient.configuration.ServerURL + spacesPathConstant + querySeparatorConstant + url.Values{partialNameParameterConstant: []string{tenantName}}.Encode()

	var lastFailure string
	for attempt := 1; attempt <= spaceClient.configuration.Attempts; attempt++ {
		collection, failureReason, requestError := spaceClient.fetch(executionContext, lookupURL)
		if requestError != nil {
			return SpaceMatch{}, requestError
		}
		if len(failureReason) == 0 {
			return spaceClient.match(collection, tenantName)
		}

		lastFailure = failureReason
		spaceClient.logger.Warn(spaceLookupAttemptLogMessageConstant, zap.Int(logFieldAttemptConstant, attempt), zap.String(logFieldTenantConstant, tenantName), zap.String(logFieldReasonConstant, failureReason))
		if attempt == spaceClient.configuration.Attempts {
			break
		}
		if sleepError := spaceClient.sleeper(executionContext, spaceClient.configuration.Delay); sleepError != nil {
			return SpaceMatch{}, sleepError
		}
	}

	return SpaceMatch{}, fmt.Errorf(spaceLookupExhaustedErrorTemplateConstant, ErrSpaceLookupExhausted, spaceClient.configuration.Attempts, lastFailure)
}

// fetch performs one attempt. A non-empty failure reason marks a retryable outcome; a
// returned error is not retryable.
func (spaceClient *SpaceClient) fetch(executionContext context.Context, lookupURL string) (spaceCollection, string, error) {
	request, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, lookupURL, nil)
	if requestError != nil {
		return spaceCollection{}, "", fmt.Errorf(spaceLookupRequestErrorTemplateConstant, requestError)
	}
	request.Header.Set(acceptHeaderConstant, jsonContentTypeConstant)
	if len(spaceClient.configuration.APIKey) > 0 {
		request.Header.Set(apiKeyHeaderConstant, spaceClient.configuration.APIKey)
	} else if len(spaceClient.configuration.Username) > 0 || len(spaceClient.configuration.Password) > 0 {
		request.SetBasicAuth(spaceClient.configuration.Username, spaceClient.configuration.Password)
	}

	response, responseError := spaceClient.client.Do(request)
	if responseError != nil {
		if contextError := executionContext.Err(); contextError != nil {
			return spaceCollection{}, "", contextError
		}
		return spaceCollection{}, spaceClient.mask(responseError.Error()), nil
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, response.Body)
		return spaceCollection{}, fmt.Sprintf(unexpectedStatusTemplateConstant, response.StatusCode), nil
	}

	var collection spaceCollection
	if decodeError := json.NewDecoder(response.Body).Decode(&collection); decodeError != nil {
		return spaceCollection{}, "", fmt.Errorf(spaceLookupDecodeErrorTemplateConstant, decodeError)
	}
	return collection, "", nil
}

func (spaceClient *SpaceClient) match(collection spaceCollection, tenantName string) (SpaceMatch, error) {
	for _, space := range collection.Items {
		if space.Name == tenantName {
			spaceClient.logger.Info(spaceLookupMatchedLogMessageConstant, zap.String(logFieldTenantConstant, tenantName), zap.String(logFieldSpaceIDConstant, space.ID))
			return space, nil
		}
	}
	return SpaceMatch{}, ErrSpaceNotFound
}

func (spaceClient *SpaceClient) mask(text string) string {
	masked := text
	for _, secret := range []string{spaceClient.configuration.APIKey, spaceClient.configuration.Password} {
		if len(secret) > 0 {
			masked = strings.ReplaceAll(masked, secret, maskedSecretConstant)
		}
	}
	return masked
}

// PublishSpaceID records the matched space as the SpaceID output variable.
func PublishSpaceID(messages ServiceMessageWriter, match SpaceMatch) error {
	return messages.SetVariable(spaceIDVariableNameConstant, match.ID)
}

func contextSleep(executionContext context.Context, delay time.Duration) error {
	if delay <= 0 {
		return executionContext.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-executionContext.Done():
		return executionContext.Err()
	case <-timer.C:
		return nil
	}
}
