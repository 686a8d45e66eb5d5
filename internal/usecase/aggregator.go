// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/repo-ranking/internal/domain"
	"github.com/naka-gawa/repo-ranking/internal/gateway"
)

// Aggregator is the use case for collecting every repository of one or more organizations.
// It drives the cursor pagination and combines the pages.
type Aggregator struct {
	fetcher gateway.Fetcher
	logger  logrus.FieldLogger
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.Fetcher, logger logrus.FieldLogger) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		logger:  logger,
	}
}

// ListRepositories returns every repository of org in the order the API lists them.
// Pages are requested one after another, each with the cursor the previous page returned.
// On any error no repositories are returned.
func (a *Aggregator) ListRepositories(ctx context.Context, org string) ([]domain.Repo, error) {
	log := a.logger.WithField("org", org)
	log.Debug("Usecase: Starting repository listing...")

	repos := []domain.Repo{}
	cursor := ""
	for pages := 1; ; pages++ {
		page, err := a.fetcher.FetchRepositoryPage(ctx, org, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories of %s: %w", org, err)
		}
		if pages == 1 && page.TotalCount > 0 {
			repos = make([]domain.Repo, 0, page.TotalCount)
		}
		repos = append(repos, page.Repos...)
		log.Debugf("  Fetched page %d (%d/%d repositories)", pages, len(repos), page.TotalCount)

		if !page.HasNextPage {
			break
		}
		if page.EndCursor == "" || page.EndCursor == cursor {
			return nil, fmt.Errorf("failed to list repositories of %s: %w", org, &gateway.Error{
				Kind: gateway.KindDataShape,
				Op:   "paginate repositories",
				Err:  fmt.Errorf("page %d reports more pages without a new cursor", pages),
			})
		}
		cursor = page.EndCursor
	}
	log.Debugf("Usecase: Listed %d repositories.", len(repos))
	return repos, nil
}

// Aggregate lists the repositories of every organization.
// At most parallel organizations are listed at the same time; values below 1 mean one.
// The results follow the order of orgs.
func (a *Aggregator) Aggregate(ctx context.Context, orgs []string, parallel int) ([]*domain.OrgRepos, error) {
	a.logger.Println("Usecase: Starting data aggregation...")
	if parallel < 1 {
		parallel = 1
	}

	results := make([]*domain.OrgRepos, len(orgs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(parallel)
	for i, org := range orgs {
		i, org := i, org
		eg.Go(func() error {
			repos, err := a.ListRepositories(egCtx, org)
			if err != nil {
				return err
			}
			results[i] = &domain.OrgRepos{
				Organization: a.describe(egCtx, org),
				Repos:        repos,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	a.logger.Println("Usecase: Aggregation complete.")
	return results, nil
}

// describe fetches the organization profile, falling back to the login alone.
func (a *Aggregator) describe(ctx context.Context, org string) domain.Organization {
	profile, err := a.fetcher.FetchOrganization(ctx, org)
	if err != nil {
		a.logger.WithField("org", org).Warnf("Could not fetch organization profile: %v", err)
		return domain.Organization{Login: org, Name: org}
	}
	if profile.Login == "" {
		profile.Login = org
	}
	if profile.Name == "" {
		profile.Name = profile.Login
	}
	return *profile
}
