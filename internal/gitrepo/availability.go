package gitrepo

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"
)

const (
	repositoryProbeFailedLogMessageConstant    = "repository availability probe failed"
	repositoryProbeCompletedLogMessageConstant = "repository availability probe completed"
	logFieldRepositoryConstant                 = "repository"
	logFieldStatusCodeConstant                 = "status_code"
	logFieldErrorConstant                      = "error"
	successfulStatusUpperBoundConstant         = 400
)

// HTTPClient performs HTTP requests.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// AvailabilityChecker probes repository URLs over HTTP.
type AvailabilityChecker struct {
	client HTTPClient
	logger *zap.Logger
}

// NewAvailabilityChecker constructs an AvailabilityChecker. A nil client uses http.DefaultClient
// and a nil logger discards diagnostics.
func NewAvailabilityChecker(client HTTPClient, logger *zap.Logger) *AvailabilityChecker {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityChecker{client: client, logger: logger}
}

// Exists reports whether the repository answers a basic-authenticated GET with a successful status.
// Any transport error counts as the repository being unavailable.
func (checker *AvailabilityChecker) Exists(executionContext context.Context, repositoryURL string, credentials Credentials) bool {
	publicURL := redactURL(repositoryURL)

	request, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, repositoryURL, nil)
	if requestError != nil {
		checker.logger.Debug(repositoryProbeFailedLogMessageConstant, zap.String(logFieldRepositoryConstant, publicURL), zap.Error(requestError))
		return false
	}
	request.URL.User = nil
	if !credentials.Empty() {
		request.SetBasicAuth(credentials.Username, credentials.Password)
	}

	response, responseError := checker.client.Do(request)
	if responseError != nil {
		checker.logger.Debug(repositoryProbeFailedLogMessageConstant, zap.String(logFieldRepositoryConstant, publicURL), zap.String(logFieldErrorConstant, maskCredentials(responseError.Error(), credentials)))
		return false
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)

	checker.logger.Debug(repositoryProbeCompletedLogMessageConstant, zap.String(logFieldRepositoryConstant, publicURL), zap.Int(logFieldStatusCodeConstant, response.StatusCode))
	return response.StatusCode < successfulStatusUpperBoundConstant
}
