package domain

import (
	"fmt"
	"strings"
)

// Metric is a repository value a report can be ranked by.
type Metric string

const (
	MetricForks        Metric = "forks"
	MetricStars        Metric = "stars"
	MetricPullRequests Metric = "prs"
	MetricContribution Metric = "contribution"
)

// Metrics lists every supported metric in display order.
var Metrics = []Metric{MetricForks, MetricStars, MetricPullRequests, MetricContribution}

// ParseMetric converts a user supplied name into a Metric.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forks", "fork":
		return MetricForks, nil
	case "stars", "star", "stargazers":
		return MetricStars, nil
	case "prs", "pr", "pull-requests", "pullrequests":
		return MetricPullRequests, nil
	case "contribution", "contrib", "contribution-percentage":
		return MetricContribution, nil
	}
	return "", fmt.Errorf("unknown metric %q (expected one of %s)", s, strings.Join(metricNames(), ", "))
}

func metricNames() []string {
	names := make([]string, len(Metrics))
	for i, m := range Metrics {
		names[i] = string(m)
	}
	return names
}

// Title is the column heading for the metric.
func (m Metric) Title() string {
	switch m {
	case MetricForks:
		return "Forks"
	case MetricStars:
		return "Stars"
	case MetricPullRequests:
		return "Pull Requests"
	case MetricContribution:
		return "Contribution %"
	}
	return string(m)
}

// Value extracts the metric from a repository.
func (m Metric) Value(r Repo) (float64, error) {
	var c Count
	switch m {
	case MetricForks:
		c = r.Forks
	case MetricStars:
		c = r.Stars
	case MetricPullRequests:
		c = r.PRs
	case MetricContribution:
		return r.ContributionPercentage()
	default:
		return 0, fmt.Errorf("unknown metric %q", m)
	}
	v, ok := c.Value()
	if !ok {
		return 0, &UnsetFieldError{Repo: r.Name, Field: string(m)}
	}
	return float64(v), nil
}
