package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/repo-ranking/internal/domain"
	"github.com/naka-gawa/repo-ranking/internal/gateway"
)

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
// It allows us to simulate the behavior of the GitHub gateway without making real API calls.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchRepositoryPage(ctx context.Context, org, cursor string) (*domain.RepositoryPage, error) {
	args := m.Called(ctx, org, cursor)
	// We need to handle the case where the returned page is nil (e.g., when an error occurs).
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RepositoryPage), args.Error(1)
}

func (m *mockFetcher) FetchOrganization(ctx context.Context, org string) (*domain.Organization, error) {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func repos(names ...string) []domain.Repo {
	out := make([]domain.Repo, len(names))
	for i, name := range names {
		out[i] = domain.NewRepo(name, i, i, i)
	}
	return out
}

func TestAggregator_ListRepositories(t *testing.T) {
	exhausted := &gateway.Error{Kind: gateway.KindExhaustedRetries, Op: "fetch repositories page", Err: errors.New("boom")}

	testCases := []struct {
		name           string
		pages          map[string]*domain.RepositoryPage
		errs           map[string]error
		expectedResult []domain.Repo
		expectedKind   gateway.Kind
	}{
		{
			name: "single page",
			pages: map[string]*domain.RepositoryPage{
				"": {Repos: repos("a", "b"), TotalCount: 2},
			},
			expectedResult: repos("a", "b"),
		},
		{
			name: "pages are followed by cursor and kept in order",
			pages: map[string]*domain.RepositoryPage{
				"":   {Repos: repos("a", "b"), HasNextPage: true, EndCursor: "c1", TotalCount: 5},
				"c1": {Repos: repos("c", "d"), HasNextPage: true, EndCursor: "c2", TotalCount: 5},
				"c2": {Repos: repos("e"), EndCursor: "c3", TotalCount: 5},
			},
			expectedResult: append(append(repos("a", "b"), repos("c", "d")...), repos("e")...),
		},
		{
			name: "empty organization",
			pages: map[string]*domain.RepositoryPage{
				"": {Repos: []domain.Repo{}},
			},
			expectedResult: []domain.Repo{},
		},
		{
			name: "failure on a later page discards earlier pages",
			pages: map[string]*domain.RepositoryPage{
				"": {Repos: repos("a", "b"), HasNextPage: true, EndCursor: "c1"},
			},
			errs:         map[string]error{"c1": exhausted},
			expectedKind: gateway.KindExhaustedRetries,
		},
		{
			name: "more pages without a cursor",
			pages: map[string]*domain.RepositoryPage{
				"": {Repos: repos("a"), HasNextPage: true},
			},
			expectedKind: gateway.KindDataShape,
		},
		{
			name: "more pages with a repeated cursor",
			pages: map[string]*domain.RepositoryPage{
				"":   {Repos: repos("a"), HasNextPage: true, EndCursor: "c1"},
				"c1": {Repos: repos("b"), HasNextPage: true, EndCursor: "c1"},
			},
			expectedKind: gateway.KindDataShape,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fetcher := new(mockFetcher)
			for cursor, page := range tc.pages {
				fetcher.On("FetchRepositoryPage", mock.Anything, "any-org", cursor).Return(page, nil).Once()
			}
			for cursor, err := range tc.errs {
				fetcher.On("FetchRepositoryPage", mock.Anything, "any-org", cursor).Return(nil, err).Once()
			}

			aggregator := NewAggregator(fetcher, discardLogger())
			results, err := aggregator.ListRepositories(context.Background(), "any-org")

			if tc.expectedKind != 0 {
				require.Error(t, err)
				assert.Nil(t, results)
				assert.True(t, gateway.IsKind(err, tc.expectedKind), "unexpected error: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedResult, results)
			fetcher.AssertExpectations(t)
		})
	}
}

func TestAggregator_Aggregate(t *testing.T) {
	testCases := []struct {
		name           string
		parallel       int
		profileErr     error
		listErr        error
		expectedResult []*domain.OrgRepos
		expectError    bool
	}{
		{
			name:     "happy path - lists every organization in input order",
			parallel: 2,
			expectedResult: []*domain.OrgRepos{
				{Organization: domain.Organization{Login: "org-a", Name: "Org A"}, Repos: repos("a1", "a2")},
				{Organization: domain.Organization{Login: "org-b", Name: "Org B"}, Repos: repos("b1")},
			},
		},
		{
			name:       "profile failure falls back to the login",
			parallel:   0,
			profileErr: errors.New("not found"),
			expectedResult: []*domain.OrgRepos{
				{Organization: domain.Organization{Login: "org-a", Name: "org-a"}, Repos: repos("a1", "a2")},
				{Organization: domain.Organization{Login: "org-b", Name: "org-b"}, Repos: repos("b1")},
			},
		},
		{
			name:        "error case - listing fails",
			parallel:    1,
			listErr:     &gateway.Error{Kind: gateway.KindConfiguration, Op: "fetch repositories page", Err: errors.New("bad credentials")},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fetcher := new(mockFetcher)
			fetcher.On("FetchRepositoryPage", mock.Anything, "org-a", "").
				Return(&domain.RepositoryPage{Repos: repos("a1", "a2")}, nil).Maybe()
			if tc.listErr != nil {
				fetcher.On("FetchRepositoryPage", mock.Anything, "org-b", "").Return(nil, tc.listErr).Maybe()
			} else {
				fetcher.On("FetchRepositoryPage", mock.Anything, "org-b", "").
					Return(&domain.RepositoryPage{Repos: repos("b1")}, nil).Maybe()
			}
			if tc.profileErr != nil {
				fetcher.On("FetchOrganization", mock.Anything, mock.Anything).Return(nil, tc.profileErr).Maybe()
			} else {
				fetcher.On("FetchOrganization", mock.Anything, "org-a").
					Return(&domain.Organization{Login: "org-a", Name: "Org A"}, nil).Maybe()
				fetcher.On("FetchOrganization", mock.Anything, "org-b").
					Return(&domain.Organization{Login: "org-b", Name: "Org B"}, nil).Maybe()
			}

			aggregator := NewAggregator(fetcher, discardLogger())
			results, err := aggregator.Aggregate(context.Background(), []string{"org-a", "org-b"}, tc.parallel)

			if tc.expectError {
				assert.Error(t, err)
				assert.Nil(t, results)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expectedResult, results)
		})
	}
}

// fakeOrganizationServer serves the repositories of an organization with total repositories,
// pageSize at a time, failing the first failuresPerPage attempts at every page.
func fakeOrganizationServer(t *testing.T, total, pageSize, failuresPerPage int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	var mu sync.Mutex
	attempts := map[int]int{}
	handler := func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		var req struct {
			Variables struct {
				Cursor *string `json:"cursor"`
				First  int     `json:"first"`
			} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, pageSize, req.Variables.First)

		start := 0
		if req.Variables.Cursor != nil {
			var err error
			start, err = strconv.Atoi(*req.Variables.Cursor)
			require.NoError(t, err)
		}
		mu.Lock()
		attempts[start]++
		failing := attempts[start] <= failuresPerPage
		mu.Unlock()
		if failing {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		end := min(start+pageSize, total)
		nodes := make([]map[string]any, 0, end-start)
		for i := start; i < end; i++ {
			nodes = append(nodes, map[string]any{
				"name":         fmt.Sprintf("repo-%03d", i),
				"forkCount":    i % 7,
				"stargazers":   map[string]any{"totalCount": i},
				"pullRequests": map[string]any{"totalCount": i % 3},
			})
		}
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"organization": map[string]any{
					"repositories": map[string]any{
						"totalCount": total,
						"pageInfo":   map[string]any{"endCursor": strconv.Itoa(end), "hasNextPage": end < total},
						"nodes":      nodes,
					},
				},
			},
		}))
	}
	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestAggregator_ListRepositories_EndToEnd(t *testing.T) {
	testCases := []struct {
		name             string
		total            int
		failuresPerPage  int
		expectedRequests int32
		expectedKind     gateway.Kind
	}{
		{name: "150 repositories take two pages", total: 150, expectedRequests: 2},
		{name: "exactly one full page", total: 100, expectedRequests: 1},
		{name: "empty organization", total: 0, expectedRequests: 1},
		{name: "301 repositories take four pages", total: 301, expectedRequests: 4},
		// Two failures on each page would exceed the budget if the counter were not reset.
		{name: "failure counter resets after every page", total: 250, failuresPerPage: 2, expectedRequests: 9},
		{name: "four failures on the first page", total: 150, failuresPerPage: 4, expectedRequests: 4, expectedKind: gateway.KindExhaustedRetries},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server, requests := fakeOrganizationServer(t, tc.total, gateway.DefaultPageSize, tc.failuresPerPage)
			logger := discardLogger()
			gw, err := gateway.NewGitHubGateway("test-token", logger,
				gateway.WithGraphQLURL(server.URL),
				gateway.WithRetryDelay(time.Millisecond),
			)
			require.NoError(t, err)

			results, err := NewAggregator(gw, logger).ListRepositories(context.Background(), "any-org")

			assert.Equal(t, tc.expectedRequests, requests.Load())
			if tc.expectedKind != 0 {
				require.Error(t, err)
				assert.Nil(t, results)
				assert.True(t, gateway.IsKind(err, tc.expectedKind), "unexpected error: %v", err)
				return
			}
			require.NoError(t, err)
			require.Len(t, results, tc.total)
			for i, repo := range results {
				assert.Equal(t, fmt.Sprintf("repo-%03d", i), repo.Name)
			}
		})
	}
}
