package repos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/user/repos", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			assert.Equal(t, "owner", r.URL.Query().Get("type"))
			_, _ = w.Write([]byte(`[{"name":"ledger","full_name":"me/ledger","stargazers_count":3,"topics":["go"],"archived":false}]`))
		case "Bearer other":
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	mux.HandleFunc("/repos/me/ledger/readme", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "application/vnd.github.raw", r.Header.Get("Accept"))
		_, _ = w.Write([]byte("# Ledger\nDouble-entry bookkeeping."))
	})
	mux.HandleFunc("/repos/me/empty/readme", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	})
	mux.HandleFunc("/repos/me/flaky/readme", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testOptions(srv *httptest.Server) *Options {
	return &Options{BaseURL: srv.URL, Timeout: time.Second, HTTPClient: srv.Client()}
}

func TestListRepos(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	cache := NewCache(0, 0)

	repos, err := NewClient("good", testOptions(srv), cache).ListRepos(context.Background())
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "me/ledger", repos[0].FullName)
	assert.Equal(t, 3, repos[0].Stars)
	assert.Equal(t, []string{"go"}, repos[0].Topics)

	// Served from cache the second time.
	_, err = NewClient("good", testOptions(srv), cache).ListRepos(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestListRepos_CacheIsPerToken(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	cache := NewCache(0, 0)

	_, err := NewClient("good", testOptions(srv), cache).ListRepos(context.Background())
	require.NoError(t, err)
	repos, err := NewClient("other", testOptions(srv), cache).ListRepos(context.Background())
	require.NoError(t, err)

	assert.Empty(t, repos)
	assert.Equal(t, int32(2), hits.Load())
}

func TestListRepos_AuthFailures(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)

	_, err := NewClient("", testOptions(srv), nil).ListRepos(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Zero(t, hits.Load())

	_, err = NewClient("revoked", testOptions(srv), nil).ListRepos(context.Background())
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, err.Error(), "re-link")
}

func TestReadme(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	cache := NewCache(0, 0)
	client := NewClient("good", testOptions(srv), cache)

	text, err := client.Readme(context.Background(), "me/ledger")
	require.NoError(t, err)
	assert.Contains(t, text, "Double-entry")

	text, err = client.Readme(context.Background(), "me/empty")
	require.NoError(t, err)
	assert.Empty(t, text)

	// The missing README is cached as well.
	_, _ = client.Readme(context.Background(), "me/empty")
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 2, cache.Len())
}

func TestReadme_Errors(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	client := NewClient("good", testOptions(srv), nil)

	_, err := client.Readme(context.Background(), "not-a-full-name")
	var reqErr *Error
	require.ErrorAs(t, err, &reqErr)

	_, err = client.Readme(context.Background(), "me/flaky")
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadGateway, reqErr.StatusCode)
}

func TestCache_Expires(t *testing.T) {
	cache := NewCache(4, 10*time.Millisecond)
	cache.add("k", cachedResponse{body: []byte("v")})

	_, ok := cache.get("k")
	assert.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	_, ok = cache.get("k")
	assert.False(t, ok)
}

func TestNilCache(t *testing.T) {
	var cache *Cache
	cache.add("k", cachedResponse{})
	_, ok := cache.get("k")
	assert.False(t, ok)
	assert.Zero(t, cache.Len())
}
