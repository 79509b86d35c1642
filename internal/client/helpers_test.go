package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalhttp "github.com/fivetwenty-io/cma/internal/http"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// Test static errors.
var (
	ErrTestSomeError = errors.New("some error")
)

// NewTestClient creates a new test client with the given base URL.
func NewTestClient(baseURL string) *Client {
	// Create HTTP client without token manager for testing
	httpClient := internalhttp.NewClient(baseURL, nil, internalhttp.WithRetryConfig(0, 0, 0))

	client := &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     cma.NoopLogger{},
		polling:    newPollDefaults(quickPolicy(), nil),
	}

	client.initializeResourceClients()

	return client
}

// quickPolicy polls fast enough for tests.
func quickPolicy() *cma.PollingPolicy {
	return cma.DefaultPollingPolicy().
		WithRetryCount(5).
		WithRetryInterval(time.Millisecond)
}

// writeJSON encodes body with the given status code.
func writeJSON(t *testing.T, writer http.ResponseWriter, status int, body interface{}) {
	t.Helper()

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)

	if body != nil {
		require.NoError(t, json.NewEncoder(writer).Encode(body))
	}
}

// statusSequence serves one response per GET on path. The last response is
// repeated once the sequence is exhausted.
type statusSequence struct {
	t         *testing.T
	path      string
	responses []interface{}

	mu    sync.Mutex
	calls int
}

func newStatusSequence(t *testing.T, path string, responses ...interface{}) *statusSequence {
	t.Helper()

	return &statusSequence{t: t, path: path, responses: responses}
}

func (s *statusSequence) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	assert.Equal(s.t, s.path, request.URL.Path)
	assert.Equal(s.t, http.MethodGet, request.Method)

	s.mu.Lock()
	index := min(s.calls, len(s.responses)-1)
	s.calls++
	response := s.responses[index]
	s.mu.Unlock()

	writeJSON(s.t, writer, http.StatusOK, response)
}

func (s *statusSequence) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

func newSequenceServer(t *testing.T, sequence *statusSequence) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(sequence)
	t.Cleanup(server.Close)

	return server
}
