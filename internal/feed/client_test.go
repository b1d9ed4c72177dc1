package feed

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("page-all"))
		w.Write([]byte(`{"Results": [{"id": 1}]}`))
	}))
	defer srv.Close()

	c := NewClient("", 5*time.Second, testLogger())
	data, err := c.GetJSON(context.Background(), srv.URL, url.Values{"page-all": {"true"}}, nil)

	require.NoError(t, err)
	items, _ := Items(data)
	assert.Len(t, items, 1)
}

func TestGetJSON_AuthFallbackToQueryParam(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("api-key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"Results": []}`))
	}))
	defer srv.Close()

	c := NewClient("secret", 5*time.Second, testLogger())
	headers := http.Header{}
	headers.Set("Authorization", "APIKEY secret")

	_, err := c.GetJSON(context.Background(), srv.URL, nil, headers)

	require.NoError(t, err)
	assert.Equal(t, 2, calls, "should retry once with the key as a query parameter")
}

func TestGetJSON_NoAuthHeaderSuppressesFallback(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Empty(t, r.URL.Query().Get("api-key"), "configured key must not leak onto header-less requests")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("secret", 5*time.Second, testLogger())
	_, err := c.GetJSON(context.Background(), srv.URL, url.Values{"key": {"other"}}, nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Equal(t, 1, calls, "no Authorization header was sent, so there is no key to move")
}

func TestGetJSON_AuthFailureWithoutKeyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("", 5*time.Second, testLogger())
	_, err := c.GetJSON(context.Background(), srv.URL, nil, nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Code)
}

func TestGetJSON_DuplicatePathRetry(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/api/v1/incidents/incidents" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"Results": [{"id": 1}]}`))
	}))
	defer srv.Close()

	c := NewClient("", 5*time.Second, testLogger())
	data, err := c.GetJSON(context.Background(), srv.URL+"/api/v1/incidents/incidents", nil, nil)

	require.NoError(t, err)
	require.Equal(t, []string{"/api/v1/incidents/incidents", "/api/v1/incidents"}, paths)
	items, _ := Items(data)
	assert.Len(t, items, 1)
}

func TestGetJSON_PlainNotFoundIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient("", 5*time.Second, testLogger())
	_, err := c.GetJSON(context.Background(), srv.URL+"/api/v1/cameras", nil, nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}

func TestGetJSON_UndecodableBodyReturnsEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>maintenance page</html>"))
	}))
	defer srv.Close()

	c := NewClient("", 5*time.Second, testLogger())
	data, err := c.GetJSON(context.Background(), srv.URL, nil, nil)

	require.NoError(t, err)
	items, _ := Items(data)
	assert.Empty(t, items)
}

func TestGetJSON_ServerErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient("", 5*time.Second, testLogger())
	_, err := c.GetJSON(context.Background(), srv.URL, nil, nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
}
