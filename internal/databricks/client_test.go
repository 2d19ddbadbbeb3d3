package databricks_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicpulse/clinicpulse/internal/databricks"
)

func TestClientSendsFixedHeaders(t *testing.T) {
	var gotAuth, gotContentType string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	client := databricks.New(ts.URL, "secret-token", time.Second)

	var out map[string]bool
	err := client.Post(context.Background(), "/api/test", map[string]string{"a": "b"}, &out)
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.True(t, out["ok"])
}

func TestClientGetDecodesResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/thing", r.URL.Path)
		w.Write([]byte(`{"name":"x"}`))
	}))
	defer ts.Close()

	client := databricks.New(ts.URL, "tok", time.Second)

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, client.Get(context.Background(), "/api/thing", &out))
	assert.Equal(t, "x", out.Name)
}

func TestClientAPIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"top-level message", http.StatusBadRequest, `{"message":"bad input"}`, "bad input"},
		{"nested error message", http.StatusForbidden, `{"error":{"message":"no access"}}`, "no access"},
		{"no parsable message", http.StatusBadGateway, `upstream exploded`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			client := databricks.New(ts.URL, "tok", time.Second)

			err := client.Get(context.Background(), "/api/fail", nil)
			require.Error(t, err)

			var apiErr *databricks.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.NotEmpty(t, apiErr.ErrorMessage(), "falls back to status text")
		})
	}
}

func TestClientNoResponse(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close() // unreachable on purpose

	client := databricks.New(ts.URL, "tok", time.Second)

	err := client.Get(context.Background(), "/api/thing", nil)
	require.ErrorIs(t, err, databricks.ErrNoResponse)
}

func TestClientTrimsTrailingSlash(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/thing", r.URL.Path)
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := databricks.New(ts.URL+"/", "tok", time.Second)
	require.NoError(t, client.Get(context.Background(), "/api/thing", nil))
}
