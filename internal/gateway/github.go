// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/sethvargo/go-retry"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/repo-ranking/internal/domain"
)

const (
	// DefaultGraphQLURL is the public GitHub GraphQL endpoint.
	DefaultGraphQLURL = "https://api.github.com/graphql"

	// DefaultPageSize is the number of repositories requested per page, the API maximum.
	DefaultPageSize = 100

	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 10 * time.Second

	// DefaultRetryDelay is the fixed pause between attempts at the same page.
	DefaultRetryDelay = 2000 * time.Millisecond

	// DefaultMaxConsecutiveFailures is how many transient failures in a row are retried.
	DefaultMaxConsecutiveFailures = 3
)

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	// FetchRepositoryPage fetches the page of an organization's repositories after cursor.
	FetchRepositoryPage(ctx context.Context, org, cursor string) (*domain.RepositoryPage, error)
	FetchOrganization(ctx context.Context, org string) (*domain.Organization, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	httpClient    *http.Client
	restClient    *github.Client
	graphqlClient *githubv4.Client
	graphqlURL    string
	pageSize      int
	retryDelay    time.Duration
	maxFailures   int
	logger        logrus.FieldLogger
}

type options struct {
	graphqlURL  string
	restURL     string
	pageSize    int
	timeout     time.Duration
	retryDelay  time.Duration
	maxFailures int
	transport   http.RoundTripper
}

// Option customizes a GitHubGateway.
type Option func(*options)

// WithGraphQLURL points the gateway at a GitHub Enterprise GraphQL endpoint.
func WithGraphQLURL(u string) Option {
	return func(o *options) {
		if u != "" {
			o.graphqlURL = u
		}
	}
}

// WithRESTURL points the REST client at a GitHub Enterprise API base URL.
func WithRESTURL(u string) Option {
	return func(o *options) {
		o.restURL = u
	}
}

// WithPageSize sets the number of repositories requested per page.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithRetryDelay sets the pause between attempts at the same page.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.retryDelay = d
		}
	}
}

// WithMaxConsecutiveFailures sets how many transient failures in a row are retried.
func WithMaxConsecutiveFailures(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxFailures = n
		}
	}
}

// WithTransport sets the base RoundTripper beneath the rate limit and auth layers.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// An empty token is a configuration error.
func NewGitHubGateway(token string, logger logrus.FieldLogger, opts ...Option) (*GitHubGateway, error) {
	if token == "" {
		return nil, configurationError("create gateway", 0, "no GitHub token provided")
	}
	o := options{
		graphqlURL:  DefaultGraphQLURL,
		pageSize:    DefaultPageSize,
		timeout:     DefaultTimeout,
		retryDelay:  DefaultRetryDelay,
		maxFailures: DefaultMaxConsecutiveFailures,
	}
	for _, opt := range opts {
		opt(&o)
	}

	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(o.transport, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Timeout: o.timeout,
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}

	restClient := github.NewClient(httpClient)
	if o.restURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(o.restURL, "/") + "/")
		if err != nil {
			return nil, configurationError("create gateway", 0, "invalid REST API URL %q: %v", o.restURL, err)
		}
		restClient.BaseURL = baseURL
	}

	return &GitHubGateway{
		httpClient:    httpClient,
		restClient:    restClient,
		graphqlClient: githubv4.NewEnterpriseClient(o.graphqlURL, httpClient),
		graphqlURL:    o.graphqlURL,
		pageSize:      o.pageSize,
		retryDelay:    o.retryDelay,
		maxFailures:   o.maxFailures,
		logger:        logger,
	}, nil
}

const opFetchPage = "fetch repositories page"

// FetchRepositoryPage fetches one page of an organization's repositories.
// Transient failures are retried for the same cursor after a fixed delay; once
// more than maxFailures happen in a row the fetch fails with KindExhaustedRetries.
// Configuration and data shape errors are returned without retrying.
func (g *GitHubGateway) FetchRepositoryPage(ctx context.Context, org, cursor string) (*domain.RepositoryPage, error) {
	if err := ValidateOrganization(org); err != nil {
		return nil, err
	}
	query := NewRepositoriesQuery(org, cursor, g.pageSize)
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode repositories query: %w", err)
	}
	log := g.logger.WithFields(logrus.Fields{"org": org, "cursor": cursor})
	log.Debugf("GraphQL query:\n%s", query.Query)

	var page *domain.RepositoryPage
	failures := 0
	backoff := retry.WithMaxRetries(uint64(g.maxFailures), retry.NewConstant(g.retryDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		p, err := g.postRepositoriesQuery(ctx, body)
		if err == nil {
			page = p
			return nil
		}
		if !IsKind(err, KindTransient) {
			return err
		}
		failures++
		log.WithFields(logrus.Fields{"attempt": failures, "max_failures": g.maxFailures}).
			Warnf("Transient failure fetching repositories page: %v", err)
		return retry.RetryableError(err)
	})
	if err != nil {
		if IsKind(err, KindTransient) {
			return nil, &Error{
				Kind: KindExhaustedRetries,
				Op:   opFetchPage,
				Err:  fmt.Errorf("giving up after %d consecutive failures: %w", failures, err),
			}
		}
		return nil, err
	}
	if failures > 0 {
		log.Infof("Recovered after %d failed attempts", failures)
	}
	return page, nil
}

// postRepositoriesQuery performs a single attempt and classifies its outcome.
func (g *GitHubGateway) postRepositoriesQuery(ctx context.Context, body []byte) (*domain.RepositoryPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, transientError(opFetchPage, 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transientError(opFetchPage, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		g.logger.WithField("status", resp.StatusCode).Debugf("Response body: %s", raw)
		return nil, configurationError(opFetchPage, resp.StatusCode, "GitHub rejected the token: %s", resp.Status)
	case resp.StatusCode != http.StatusOK:
		g.logger.WithField("status", resp.StatusCode).Debugf("Response body: %s", raw)
		return nil, transientError(opFetchPage, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	page, err := decodeRepositoriesPage(raw)
	if err != nil {
		g.logger.WithField("status", resp.StatusCode).Debugf("Response body: %s", raw)
		return nil, err
	}
	return page, nil
}

// FetchOrganization fetches an organization's profile using the REST API.
func (g *GitHubGateway) FetchOrganization(ctx context.Context, org string) (*domain.Organization, error) {
	g.logger.WithField("org", org).Debug("Fetching organization profile using REST API...")
	o, _, err := g.restClient.Organizations.Get(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization with REST API: %w", err)
	}
	return &domain.Organization{
		Login:       o.GetLogin(),
		Name:        o.GetName(),
		PublicRepos: o.GetPublicRepos(),
	}, nil
}

// rateLimitQuery reads the GraphQL quota of the token.
type rateLimitQuery struct {
	RateLimit struct {
		Limit     int
		Cost      int
		Remaining int
		ResetAt   githubv4.DateTime
	}
}

// RateLimit returns the GraphQL API quota of the authenticated token.
func (g *GitHubGateway) RateLimit(ctx context.Context) (*domain.RateLimit, error) {
	var q rateLimitQuery
	if err := g.graphqlClient.Query(ctx, &q, nil); err != nil {
		return nil, fmt.Errorf("failed to execute GraphQL query for rate limit: %w", err)
	}
	return &domain.RateLimit{
		Limit:     q.RateLimit.Limit,
		Remaining: q.RateLimit.Remaining,
		Cost:      q.RateLimit.Cost,
		ResetAt:   q.RateLimit.ResetAt.Time,
	}, nil
}
