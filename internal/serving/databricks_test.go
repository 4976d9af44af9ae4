package serving_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Veraticus/ragassist/internal/serving"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *serving.DatabricksClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := serving.NewDatabricksClient(serving.Config{
		Host:     srv.URL,
		Token:    "dapi-test",
		Endpoint: "rag-agent",
		Timeout:  2 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func sampleRequest() serving.Request {
	return serving.Request{
		Messages: []serving.Message{
			{Role: "user", Content: "What is Lakeflow?"},
			{Role: "assistant", Content: "A data ingestion service."},
			{Role: "user", Content: "What sources does it support?"},
		},
		MaxTokens: 400,
	}
}

func TestNewDatabricksClient(t *testing.T) {
	tests := []struct {
		name    string
		config  serving.Config
		wantErr string
	}{
		{
			name:   "valid config",
			config: serving.Config{Host: "https://adb-123.azuredatabricks.net", Endpoint: "rag-agent"},
		},
		{
			name:   "host without scheme",
			config: serving.Config{Host: "adb-123.azuredatabricks.net", Endpoint: "rag-agent"},
		},
		{
			name:    "missing endpoint",
			config:  serving.Config{Host: "https://adb-123.azuredatabricks.net"},
			wantErr: "endpoint name cannot be empty",
		},
		{
			name:    "missing host",
			config:  serving.Config{Endpoint: "rag-agent"},
			wantErr: "databricks host cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := serving.NewDatabricksClient(tt.config)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestDatabricksClient_QuerySendsConversation(t *testing.T) {
	var got struct {
		Messages  []serving.Message `json:"messages"`
		MaxTokens int               `json:"max_tokens"`
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/serving-endpoints/rag-agent/invocations", r.URL.Path)
		assert.Equal(t, "Bearer dapi-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Many."}}]}`))
	})

	resp, err := client.Query(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, "Many.", serving.Normalize(resp))
	assert.Equal(t, sampleRequest().Messages, got.Messages)
	assert.Equal(t, 400, got.MaxTokens)
}

func TestDatabricksClient_QueryResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "bare string", body: `"hello"`, want: "hello"},
		{name: "content object", body: `{"content":"hello"}`, want: "hello"},
		{name: "empty object", body: `{}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			resp, err := client.Query(context.Background(), sampleRequest())

			require.NoError(t, err)
			assert.Equal(t, tt.want, serving.Normalize(resp))
		})
	}
}

func TestDatabricksClient_QueryErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"error_code":"UNAUTHENTICATED","message":"Invalid token"}`,
			check: func(t *testing.T, err error) {
				assert.True(t, serving.IsAuthenticationError(err))
				assert.Contains(t, err.Error(), "Invalid token")
			},
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"error_code":"REQUEST_LIMIT_EXCEEDED","message":"slow down"}`,
			check: func(t *testing.T, err error) {
				var epErr *serving.EndpointError
				require.True(t, errors.As(err, &epErr))
				assert.True(t, epErr.IsRateLimited())
			},
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error_code":"INTERNAL_ERROR","message":"model crashed"}`,
			check: func(t *testing.T, err error) {
				var epErr *serving.EndpointError
				require.True(t, errors.As(err, &epErr))
				assert.Equal(t, 500, epErr.StatusCode)
				assert.Equal(t, "INTERNAL_ERROR", epErr.Code)
				assert.False(t, epErr.IsRateLimited())
			},
		},
		{
			name:   "malformed success body",
			status: http.StatusOK,
			body:   `<html>oops</html>`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, serving.ErrMalformedResponse)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			resp, err := client.Query(context.Background(), sampleRequest())

			require.Error(t, err)
			assert.Nil(t, resp)
			tt.check(t, err)
		})
	}
}

func TestDatabricksClient_QueryTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client, err := serving.NewDatabricksClient(serving.Config{
		Host:     srv.URL,
		Endpoint: "rag-agent",
		Timeout:  50 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = client.Query(context.Background(), sampleRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDatabricksClient_QueryNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	host := srv.URL
	srv.Close()

	client, err := serving.NewDatabricksClient(serving.Config{Host: host, Endpoint: "rag-agent"})
	require.NoError(t, err)

	_, err = client.Query(context.Background(), sampleRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "network error")
}

func TestDatabricksClient_QueryRejectsEmptyConversation(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("endpoint should not be called")
	})

	_, err := client.Query(context.Background(), serving.Request{MaxTokens: 400})

	assert.EqualError(t, err, "messages cannot be empty")
}
