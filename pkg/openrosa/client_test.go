package openrosa

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odk-sre/webform-manager/internal/errdef"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return NewClient(logger, 5*time.Second, false)
}

func TestRequestCarriesProtocolHeaders(t *testing.T) {
	var received http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Clone()
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t)
	_, err := client.do(context.Background(), request{
		url:        server.URL,
		authHeader: "Bearer token",
		cookie:     "__enketo=abc",
	})
	require.NoError(t, err)

	assert.Equal(t, "1.0", received.Get("X-OpenRosa-Version"))
	assert.Equal(t, "Bearer token", received.Get("Authorization"))
	assert.Equal(t, "__enketo=abc", received.Get("Cookie"))

	date, err := time.Parse(http.TimeFormat, received.Get("Date"))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), date, time.Minute)
}

func TestDoClassifiesResponses(t *testing.T) {
	tests := map[string]struct {
		status     int
		assertKind func(t *testing.T, err error)
	}{
		"Unauthorized": {
			status: http.StatusUnauthorized,
			assertKind: func(t *testing.T, err error) {
				assert.True(t, errdef.IsUnauthorized(err))
			},
		},
		"ServerError": {
			status: http.StatusInternalServerError,
			assertKind: func(t *testing.T, err error) {
				assert.True(t, errdef.IsUpstream(err))
				status, ok := errdef.UpstreamStatus(err)
				require.True(t, ok)
				assert.Equal(t, http.StatusInternalServerError, status)
			},
		},
		"NotFound": {
			status: http.StatusNotFound,
			assertKind: func(t *testing.T, err error) {
				assert.True(t, errdef.IsUpstream(err))
				status, ok := errdef.UpstreamStatus(err)
				require.True(t, ok)
				assert.Equal(t, http.StatusNotFound, status)
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(test.status)
			}))
			t.Cleanup(server.Close)

			_, err := newTestClient(t).do(context.Background(), request{url: server.URL})
			require.Error(t, err)
			test.assertKind(t, err)
		})
	}
}

func TestDoReportsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := newTestClient(t).do(context.Background(), request{url: server.URL})
	require.Error(t, err)
	assert.True(t, errdef.IsNetwork(err))
}

func TestEndpointURLs(t *testing.T) {
	assert.Equal(t, "https://example.org/central/formList", FormListURL("https://example.org/central"))
	assert.Equal(t, "https://example.org/central/formList", FormListURL("https://example.org/central/"))
	assert.Equal(t, "https://example.org/central/submission", SubmissionURL("https://example.org/central"))
	assert.Equal(t, "https://example.org/central/submission", SubmissionURL("https://example.org/central/"))
}
