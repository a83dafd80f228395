package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) *CollyClient {
	t.Helper()
	client, err := NewCollyClient(Config{
		UserAgent:      "bugdex-test",
		RequestTimeout: 5 * time.Second,
		Concurrency:    2,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestCollyClient_Get(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><title>ok</title></html>"))
	}))
	defer server.Close()

	client := newTestClient(t)
	page, err := client.Get(context.Background(), Request{
		URL:     server.URL,
		Headers: http.Header{"Accept": []string{"application/vnd.github+json"}},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, page.StatusCode)
	require.Contains(t, page.Text(), "<title>ok</title>")
	require.Equal(t, server.URL, page.URL)
}

func TestCollyClient_Get_ErrorPageBodyAvailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("<html><title>Page not found</title></html>"))
	}))
	defer server.Close()

	client := newTestClient(t)
	page, err := client.Get(context.Background(), Request{URL: server.URL})
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, page.StatusCode)
	require.Contains(t, page.Text(), "Page not found")
}

func TestCollyClient_Get_FollowsRedirects(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/issue", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><title>Sign in</title></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t)
	page, err := client.Get(context.Background(), Request{URL: server.URL + "/issue"})
	require.NoError(t, err)
	require.Equal(t, server.URL+"/issue", page.URL)
	require.Equal(t, server.URL+"/login", page.FinalURL)
}

func TestRetryingGetter_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer server.Close()

	getter := NewRetryingGetter(
		newTestClient(t),
		NewExponentialRetryPolicy(3, 0.01),
		zap.NewNop(),
	)
	page, err := getter.Get(context.Background(), Request{URL: server.URL})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, page.StatusCode)
	require.Equal(t, 3, attempts)
}

func TestRetryingGetter_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	getter := NewRetryingGetter(
		newTestClient(t),
		NewExponentialRetryPolicy(1, 0.01),
		zap.NewNop(),
	)
	page, err := getter.Get(context.Background(), Request{URL: server.URL})
	require.NoError(t, err)
	require.Equal(t, http.StatusBadGateway, page.StatusCode)
}

func TestExponentialRetryPolicy_NoRetryOnCancel(t *testing.T) {
	t.Parallel()

	policy := NewExponentialRetryPolicy(3, 0.5)
	require.False(t, policy.ShouldRetry(context.Canceled, 0))
	require.False(t, policy.ShouldRetry(nil, 0))
	require.True(t, policy.ShouldRetry(contextlessErr{}, 0))
	require.False(t, policy.ShouldRetry(contextlessErr{}, 3))
}

type contextlessErr struct{}

func (contextlessErr) Error() string { return "boom" }
