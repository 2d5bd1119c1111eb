// Package repos lists a user's code-host repositories and their READMEs for
// external project import.
package repos

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jonathan/resume-memory/internal/types"
)

// DefaultBaseURL is the public GitHub REST API
const DefaultBaseURL = "https://api.github.com"

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 15 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "resume-memory/1.0"

// Default cache sizing. Responses are cached for five minutes.
const (
	DefaultCacheSize = 512
	DefaultCacheTTL  = 5 * time.Minute
)

// maxBody caps how much of a response is read
const maxBody = 4 << 20

// Error represents a failed code-host request.
type Error struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("github request %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("github request %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// AuthError is returned when the access token is missing or rejected
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "GitHub authentication failed. Please re-link your GitHub account."
}

// Options configures the client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// DefaultOptions returns sensible defaults for the public API.
func DefaultOptions() *Options {
	return &Options{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Cache holds recent responses, shared by every Client. Entries are keyed by
// URL and a digest of the token, so users never see each other's results.
type Cache struct {
	lru *expirable.LRU[string, cachedResponse]
}

type cachedResponse struct {
	body     []byte
	notFound bool
}

// NewCache creates a response cache. Non-positive arguments use the defaults.
func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{lru: expirable.NewLRU[string, cachedResponse](size, nil, ttl)}
}

func (c *Cache) get(key string) (cachedResponse, bool) {
	if c == nil {
		return cachedResponse{}, false
	}
	return c.lru.Get(key)
}

func (c *Cache) add(key string, resp cachedResponse) {
	if c == nil {
		return
	}
	c.lru.Add(key, resp)
}

// Len reports the number of cached responses
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// Client calls the GitHub REST API on behalf of one token holder.
type Client struct {
	baseURL   string
	token     string
	userAgent string
	http      *http.Client
	cache     *Cache
}

// NewClient creates a client for token. cache may be nil.
func NewClient(token string, opts *Options, cache *Cache) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	c := &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		token:     strings.TrimSpace(token),
		userAgent: opts.UserAgent,
		http:      opts.HTTPClient,
		cache:     cache,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	return c
}

// ListRepos returns the repositories owned by the token holder, most recently
// updated first.
func (c *Client) ListRepos(ctx context.Context) ([]types.ExternalRepo, error) {
	if c.token == "" {
		return nil, &AuthError{Message: "a GitHub access token is required to list repositories"}
	}
	body, found, err := c.get(ctx, "/user/repos?type=owner&sort=updated&per_page=100", "application/vnd.github+json")
	if err != nil {
		return nil, err
	}
	repos := []types.ExternalRepo{}
	if !found {
		return repos, nil
	}
	if err := json.Unmarshal(body, &repos); err != nil {
		return nil, &Error{URL: c.baseURL + "/user/repos", Message: "failed to decode repositories", Cause: err}
	}
	return repos, nil
}

// Readme returns the raw README of fullName ("owner/name"). A repository without a
// README yields an empty string and no error.
func (c *Client) Readme(ctx context.Context, fullName string) (string, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(fullName), "/")
	if !ok || owner == "" || name == "" {
		return "", &Error{URL: fullName, Message: "repository must be owner/name"}
	}
	path := "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(name) + "/readme"
	body, found, err := c.get(ctx, path, "application/vnd.github.raw")
	if err != nil || !found {
		return "", err
	}
	return string(body), nil
}

// get performs a cached GET. found is false for 404 responses, which are cached too.
func (c *Client) get(ctx context.Context, path, accept string) ([]byte, bool, error) {
	urlStr := c.baseURL + path
	key := urlStr + ":" + c.tokenDigest()
	if cached, ok := c.cache.get(key); ok {
		return cached.body, !cached.notFound, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, false, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.cache.add(key, cachedResponse{notFound: true})
		return nil, false, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, false, &AuthError{}
	case resp.StatusCode != http.StatusOK:
		return nil, false, &Error{URL: urlStr, StatusCode: resp.StatusCode, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, false, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}
	c.cache.add(key, cachedResponse{body: body})
	return body, true, nil
}

func (c *Client) tokenDigest() string {
	if c.token == "" {
		return "public"
	}
	sum := sha256.Sum256([]byte(c.token))
	return hex.EncodeToString(sum[:8])
}
