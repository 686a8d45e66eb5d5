package usecase

import (
	"errors"
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/repo-ranking/internal/domain"
)

// Rank orders repos by metric, highest first, and keeps the first top of them.
// Repositories with equal values keep their input order. A top of zero or less
// yields an empty ranking; a top beyond len(repos) yields all of them.
func Rank(repos []domain.Repo, metric domain.Metric, top int) ([]domain.RankedRepo, error) {
	ranked := make([]domain.RankedRepo, len(repos))
	for i, repo := range repos {
		v, err := metric.Value(repo)
		if err != nil {
			return nil, fmt.Errorf("failed to rank by %s: %w", metric, err)
		}
		ranked[i] = domain.RankedRepo{Repo: repo, Value: v}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value > ranked[j].Value
	})

	top = max(0, min(top, len(ranked)))
	ranked = ranked[:top]
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}

// Summarize describes the distribution of metric across all repos.
func Summarize(repos []domain.Repo, metric domain.Metric) (domain.Summary, error) {
	values := make(stats.Float64Data, 0, len(repos))
	for _, repo := range repos {
		v, err := metric.Value(repo)
		if err != nil {
			return domain.Summary{}, fmt.Errorf("failed to summarize %s: %w", metric, err)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return domain.Summary{}, nil
	}

	var errs []error
	mean, err := stats.Mean(values)
	errs = append(errs, err)
	median, err := stats.Median(values)
	errs = append(errs, err)
	p90, err := stats.Percentile(values, 90)
	errs = append(errs, err)
	maxValue, err := stats.Max(values)
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return domain.Summary{}, fmt.Errorf("failed to summarize %s: %w", metric, err)
	}

	return domain.Summary{
		Count:  len(values),
		Mean:   mean,
		Median: median,
		P90:    p90,
		Max:    maxValue,
	}, nil
}
