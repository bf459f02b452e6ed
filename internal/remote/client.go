// Package remote talks to the studio HTTP backend. Every GET is
// conditional: the client remembers the ETag of each URL and lets the
// server answer 304 when nothing changed.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kittclouds/studiocore/internal/config"
	"github.com/kittclouds/studiocore/internal/domain"
)

// maxErrorBody caps how much of a failed response is kept in StatusError.
const maxErrorBody = 4 << 10

// StatusError is returned for any response other than 200 or 304.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote: GET %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("remote: GET %s: HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

// ETagCache maps URLs to the last ETag seen. Entries are never evicted.
type ETagCache struct {
	mu   sync.RWMutex
	tags map[string]string
}

// NewETagCache returns an empty cache.
func NewETagCache() *ETagCache {
	return &ETagCache{tags: make(map[string]string)}
}

// Get returns the ETag stored for url.
func (c *ETagCache) Get(url string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tag, ok := c.tags[url]
	return tag, ok
}

// Set stores tag for url. An empty tag removes the entry.
func (c *ETagCache) Set(url, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tag == "" {
		delete(c.tags, url)
		return
	}
	c.tags[url] = tag
}

// Len returns the number of cached URLs.
func (c *ETagCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tags)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sends an Authorization: Bearer header on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithCache shares an ETag cache between clients.
func WithCache(cache *ETagCache) Option {
	return func(c *Client) { c.cache = cache }
}

// Client is a conditional GET client for one base URL. It is safe for
// concurrent use. It never retries.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
	cache *ETagCache
	log   logrus.FieldLogger
}

// New creates a client for baseURL.
func New(baseURL string, log logrus.FieldLogger, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("remote: invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("remote: base URL must be http(s), got %q", baseURL)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Client{
		base:  base,
		http:  &http.Client{Timeout: 30 * time.Second},
		cache: NewETagCache(),
		log:   log.WithField("component", "remote"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromConfig creates a client from the remote section of cfg.
func NewFromConfig(cfg config.Remote, log logrus.FieldLogger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote: no base URL configured")
	}
	opts := []Option{WithToken(cfg.Token)}
	if cfg.Timeout > 0 {
		opts = append(opts, WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	return New(cfg.BaseURL, log, opts...)
}

// Cache returns the client's ETag cache.
func (c *Client) Cache() *ETagCache { return c.cache }

// URL resolves path against the base URL.
func (c *Client) URL(path string) string {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	return u.String()
}

// Get fetches path into out. It returns changed=false on 304, in which
// case out is untouched and the caller keeps its local copy. On 200 the
// body is decoded into out and the response ETag is remembered.
func (c *Client) Get(ctx context.Context, path string, out any) (bool, error) {
	target := c.URL(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false, fmt.Errorf("remote: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if tag, ok := c.cache.Get(target); ok {
		req.Header.Set("If-None-Match", tag)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("remote: GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	log := c.log.WithFields(logrus.Fields{"url": target, "status": resp.StatusCode})
	switch resp.StatusCode {
	case http.StatusNotModified:
		log.Debug("not modified")
		return false, nil
	case http.StatusOK:
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return false, &StatusError{StatusCode: resp.StatusCode, URL: target, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("remote: failed to decode %s: %w", target, err)
	}
	// Only a body that decoded is worth revalidating against.
	c.cache.Set(target, resp.Header.Get("ETag"))
	log.Debug("fetched")
	return true, nil
}

// Projects fetches the project list.
func (c *Client) Projects(ctx context.Context) ([]domain.Project, bool, error) {
	var out []domain.Project
	changed, err := c.Get(ctx, "/projects/", &out)
	return out, changed, err
}

// Project fetches one project.
func (c *Client) Project(ctx context.Context, id string) (*domain.Project, bool, error) {
	var out domain.Project
	changed, err := c.Get(ctx, projectPath(id, ""), &out)
	if err != nil || !changed {
		return nil, changed, err
	}
	return &out, true, nil
}

// ProjectCharacters fetches the cast of a project.
func (c *Client) ProjectCharacters(ctx context.Context, id string) ([]domain.Character, bool, error) {
	var out []domain.Character
	changed, err := c.Get(ctx, projectPath(id, "characters"), &out)
	return out, changed, err
}

// ProjectStories fetches the stories of a project.
func (c *Client) ProjectStories(ctx context.Context, id string) ([]domain.Story, bool, error) {
	var out []domain.Story
	changed, err := c.Get(ctx, projectPath(id, "stories"), &out)
	return out, changed, err
}

// ProjectScripts fetches the scripts of a project.
func (c *Client) ProjectScripts(ctx context.Context, id string) ([]domain.Script, bool, error) {
	var out []domain.Script
	changed, err := c.Get(ctx, projectPath(id, "scripts"), &out)
	return out, changed, err
}

// ProjectStoryboards fetches the storyboards of a project.
func (c *Client) ProjectStoryboards(ctx context.Context, id string) ([]domain.Storyboard, bool, error) {
	var out []domain.Storyboard
	changed, err := c.Get(ctx, projectPath(id, "storyboards"), &out)
	return out, changed, err
}

func projectPath(id, sub string) string {
	p := "/projects/" + id
	if sub != "" {
		p += "/" + sub
	}
	return p
}
