package github

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "forknight/internal/errors"
	"forknight/internal/models"
)

// Rate limit resources reported by GitHub in X-RateLimit-Resource
const (
	ResourceCore    = "core"
	ResourceSearch  = "search"
	ResourceGraphQL = "graphql"
)

const (
	defaultAPIURL     = "https://api.github.com"
	defaultGraphQLURL = "https://api.github.com/graphql"
	maxResponseBytes  = 10 << 20
	maxErrorBodyBytes = 2048
)

// API is the request layer the collector depends on
type API interface {
	GetJSON(ctx context.Context, token, path string, query url.Values, out any) error
	GraphQL(ctx context.Context, token, query string, variables map[string]any, out any) error
}

// Options configures a Client
type Options struct {
	APIURL           string
	GraphQLURL       string
	Timeout          time.Duration
	MaxRateLimitWait time.Duration
	HTTPClient       *http.Client
}

// Client issues authenticated REST and GraphQL calls. It never retries and
// never caches; it only tracks the remaining quota per token and resource.
type Client struct {
	httpClient *http.Client
	apiURL     string
	graphqlURL string
	timeout    time.Duration
	maxWait    time.Duration

	// Rate limiting
	rateLimitMu sync.RWMutex
	rateLimits  map[string]models.RateLimitInfo
}

// NewClient creates a new GitHub API client
func NewClient(opts Options) *Client {
	if opts.APIURL == "" {
		opts.APIURL = defaultAPIURL
	}
	if opts.GraphQLURL == "" {
		opts.GraphQLURL = defaultGraphQLURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		apiURL:     strings.TrimRight(opts.APIURL, "/"),
		graphqlURL: opts.GraphQLURL,
		timeout:    opts.Timeout,
		maxWait:    opts.MaxRateLimitWait,
		rateLimits: make(map[string]models.RateLimitInfo),
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string   `json:"message"`
	Type    string   `json:"type,omitempty"`
	Path    []string `json:"path,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// GetJSON fetches a REST path and decodes the JSON body into out
func (c *Client) GetJSON(ctx context.Context, token, path string, query url.Values, out any) error {
	endpoint := c.apiURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	body, _, err := c.do(ctx, "GetJSON", token, resourceForPath(path), http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewUpstreamError("GetJSON", path, http.StatusOK, truncate(body), fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// GraphQL posts a document to the GraphQL endpoint and decodes the data member
// into out. A non-empty errors member fails the call even on HTTP 200.
func (c *Client) GraphQL(ctx context.Context, token, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encoding graphql request: %w", err)
	}

	body, status, err := c.do(ctx, "GraphQL", token, ResourceGraphQL, http.MethodPost, c.graphqlURL, payload)
	if err != nil {
		return err
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return apperrors.NewUpstreamError("GraphQL", "graphql", status, truncate(body), fmt.Errorf("decoding response: %w", err))
	}
	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return apperrors.NewUpstreamError("GraphQL", "graphql", status, truncate(body),
			fmt.Errorf("%w: %s", apperrors.ErrGitHubAPI, strings.Join(messages, "; ")))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return apperrors.NewUpstreamError("GraphQL", "graphql", status, truncate(body), fmt.Errorf("decoding data: %w", err))
	}
	return nil
}

// RateLimit returns the last known budget for a token and resource
func (c *Client) RateLimit(token, resource string) (models.RateLimitInfo, bool) {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	info, ok := c.rateLimits[rateLimitKey(token, resource)]
	return info, ok
}

// do performs one HTTP exchange and returns the full body of a 2xx response
func (c *Client) do(ctx context.Context, op, token, resource, method, endpoint string, payload []byte) ([]byte, int, error) {
	if token == "" {
		return nil, 0, apperrors.ErrUnauthorized
	}

	if err := c.checkRateLimit(ctx, token, resource); err != nil {
		return nil, 0, apperrors.NewUpstreamError(op, endpoint, 0, "", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	setHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, apperrors.NewUpstreamError(op, endpoint, 0, "", fmt.Errorf("executing request: %w", err))
	}
	defer resp.Body.Close()

	c.updateRateLimit(token, resource, resp)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, apperrors.NewUpstreamError(op, endpoint, resp.StatusCode, "", fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		cause := apperrors.ErrGitHubAPI
		if isRateLimited(resp) {
			cause = apperrors.ErrRateLimit
		}
		return nil, resp.StatusCode, apperrors.NewUpstreamError(op, endpoint, resp.StatusCode, truncate(body),
			fmt.Errorf("%w: unexpected status code %d", cause, resp.StatusCode))
	}

	return body, resp.StatusCode, nil
}

// updateRateLimit updates rate limit information from response headers
func (c *Client) updateRateLimit(token, resource string, resp *http.Response) {
	if r := resp.Header.Get("X-RateLimit-Resource"); r != "" {
		resource = r
	}

	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	key := rateLimitKey(token, resource)
	info, ok := c.rateLimits[key]
	if !ok {
		info = models.RateLimitInfo{Remaining: -1, Resource: resource}
	}
	updated := false

	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			info.Remaining = val
			updated = true
		}
	}

	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		if val, err := strconv.ParseInt(reset, 10, 64); err == nil {
			info.Reset = time.Unix(val, 0)
			updated = true
		}
	}

	if limit := resp.Header.Get("X-RateLimit-Limit"); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			info.Limit = val
			updated = true
		}
	}

	if updated {
		c.rateLimits[key] = info
	}
}

// checkRateLimit waits for the reset when the budget is exhausted and the
// reset is close enough, and rejects the call otherwise.
func (c *Client) checkRateLimit(ctx context.Context, token, resource string) error {
	c.rateLimitMu.RLock()
	info, ok := c.rateLimits[rateLimitKey(token, resource)]
	c.rateLimitMu.RUnlock()

	if !ok || info.Remaining != 0 {
		return nil
	}

	waitTime := time.Until(info.Reset)
	if waitTime <= 0 {
		return nil
	}
	if waitTime > c.maxWait {
		return fmt.Errorf("%w: %s budget resets at %s", apperrors.ErrRateLimit, resource, info.Reset.Format(time.RFC3339))
	}

	timer := time.NewTimer(waitTime)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// setHeaders sets the required headers for GitHub API requests
func setHeaders(req *http.Request, token string) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("Authorization", "Bearer "+token)
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
}

func isRateLimited(resp *http.Response) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0"
}

func resourceForPath(path string) string {
	if strings.HasPrefix(strings.TrimLeft(path, "/"), "search/") {
		return ResourceSearch
	}
	return ResourceCore
}

// rateLimitKey avoids keeping raw tokens as map keys
func rateLimitKey(token, resource string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8]) + ":" + resource
}

func truncate(body []byte) string {
	if len(body) > maxErrorBodyBytes {
		return string(body[:maxErrorBodyBytes])
	}
	return string(body)
}
