package octopus_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/upmerge/internal/octopus"
)

const (
	testTenantNameConstant = "Tenant A"
	testAPIKeyConstant     = "API-TESTKEY"
	testSpacesBodyConstant = `{"Items":[{"Id":"Spaces-1","Name":"Tenant A2"},{"Id":"Spaces-7","Name":"Tenant A"}]}`
)

type recordingSleeper struct {
	delays []time.Duration
}

func (sleeper *recordingSleeper) sleep(_ context.Context, delay time.Duration) error {
	sleeper.delays = append(sleeper.delays, delay)
	return nil
}

type failingHTTPClient struct {
	calls int
}

func (client *failingHTTPClient) Do(*http.Request) (*http.Response, error) {
	client.calls++
	return nil, errors.New("connection refused")
}

func TestSpaceClientRetriesUntilSuccess(testInstance *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		requestCount++
		require.Equal(testInstance, "/api/Spaces", request.URL.Path)
		require.Equal(testInstance, testTenantNameConstant, request.URL.Query().Get("partialName"))
		require.Equal(testInstance, testAPIKeyConstant, request.Header.Get("X-Octopus-ApiKey"))
		require.Equal(testInstance, "application/json", request.Header.Get("Accept"))
		if requestCount < 3 {
			responseWriter.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = responseWriter.Write([]byte(testSpacesBodyConstant))
	}))
	defer server.Close()

	sleeper := &recordingSleeper{}
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	spaceClient, clientError := octopus.NewSpaceClient(
		octopus.SpaceClientConfiguration{ServerURL: server.URL + "/", APIKey: testAPIKeyConstant, Attempts: 12, Delay: 5 * time.Second},
		server.Client(),
		sleeper.sleep,
		zap.New(observedCore),
	)
	require.NoError(testInstance, clientError)

	match, lookupError := spaceClient.LookupSpace(context.Background(), testTenantNameConstant)
	require.NoError(testInstance, lookupError)
	require.Equal(testInstance, octopus.SpaceMatch{ID: "Spaces-7", Name: testTenantNameConstant}, match)
	require.Equal(testInstance, 3, requestCount)
	require.Equal(testInstance, []time.Duration{5 * time.Second, 5 * time.Second}, sleeper.delays)
	require.Equal(testInstance, 2, observedLogs.FilterMessage("space lookup attempt failed").Len())
}

func TestSpaceClientFailures(testInstance *testing.T) {
	testCases := []struct {
		name          string
		statusCode    int
		body          string
		tenantName    string
		expectedError error
	}{
		{name: "no_exact_match", statusCode: http.StatusOK, body: `{"Items":[{"Id":"Spaces-1","Name":"Tenant A2"}]}`, tenantName: testTenantNameConstant, expectedError: octopus.ErrSpaceNotFound},
		{name: "exhausted", statusCode: http.StatusBadGateway, tenantName: testTenantNameConstant, expectedError: octopus.ErrSpaceLookupExhausted},
		{name: "blank_tenant", statusCode: http.StatusOK, body: testSpacesBodyConstant, tenantName: " ", expectedError: octopus.ErrTenantNameRequired},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			requestCount := 0
			server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, _ *http.Request) {
				requestCount++
				responseWriter.WriteHeader(testCase.statusCode)
				_, _ = responseWriter.Write([]byte(testCase.body))
			}))
			defer server.Close()

			sleeper := &recordingSleeper{}
			spaceClient, clientError := octopus.NewSpaceClient(octopus.SpaceClientConfiguration{ServerURL: server.URL, Attempts: 4}, server.Client(), sleeper.sleep, nil)
			require.NoError(subtest, clientError)

			_, lookupError := spaceClient.LookupSpace(context.Background(), testCase.tenantName)
			require.ErrorIs(subtest, lookupError, testCase.expectedError)
			if errors.Is(testCase.expectedError, octopus.ErrSpaceLookupExhausted) {
				require.Equal(subtest, 4, requestCount)
				require.Len(subtest, sleeper.delays, 3)
			}
		})
	}
}

func TestSpaceClientRetriesTransportErrorsWithBasicAuthentication(testInstance *testing.T) {
	httpClient := &failingHTTPClient{}
	spaceClient, clientError := octopus.NewSpaceClient(octopus.SpaceClientConfiguration{ServerURL: octopus.DefaultServerURL, Username: "admin", Password: "secret", Attempts: 2}, httpClient, (&recordingSleeper{}).sleep, nil)
	require.NoError(testInstance, clientError)

	_, lookupError := spaceClient.LookupSpace(context.Background(), testTenantNameConstant)
	require.ErrorIs(testInstance, lookupError, octopus.ErrSpaceLookupExhausted)
	require.Equal(testInstance, 2, httpClient.calls)

	_, missingServerError := octopus.NewSpaceClient(octopus.SpaceClientConfiguration{}, nil, nil, nil)
	require.ErrorIs(testInstance, missingServerError, octopus.ErrServerURLRequired)
}

func TestPublishSpaceIDWritesEncodedServiceMessage(testInstance *testing.T) {
	outputBuffer := &bytes.Buffer{}
	require.NoError(testInstance, octopus.PublishSpaceID(octopus.NewServiceMessageWriter(outputBuffer), octopus.SpaceMatch{ID: "Spaces-7"}))

	expectedName := base64.StdEncoding.EncodeToString([]byte("SpaceID"))
	expectedValue := base64.StdEncoding.EncodeToString([]byte("Spaces-7"))
	require.Equal(testInstance, "##octopus[setVariable name='"+expectedName+"' value='"+expectedValue+"']\n", outputBuffer.String())
}
