// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Count is a non-negative counter that may not have been loaded yet.
// The zero value is unset; use CountOf to build a set value.
type Count struct {
	value int
	set   bool
}

// CountOf returns a Count holding n.
func CountOf(n int) Count {
	return Count{value: n, set: true}
}

// Value returns the counter and whether it has been set.
func (c Count) Value() (int, bool) {
	return c.value, c.set
}

// IsSet reports whether the counter has been loaded.
func (c Count) IsSet() bool {
	return c.set
}

func (c Count) String() string {
	if !c.set {
		return "-"
	}
	return strconv.Itoa(c.value)
}

// MarshalJSON encodes an unset counter as null.
func (c Count) MarshalJSON() ([]byte, error) {
	if !c.set {
		return []byte("null"), nil
	}
	return json.Marshal(c.value)
}

// Repo holds the counters of a single repository.
// It is the core domain entity of this application.
type Repo struct {
	Name  string `json:"name"`
	Forks Count  `json:"forks"`
	Stars Count  `json:"stars"`
	PRs   Count  `json:"pull_requests"`
}

// NewRepo builds a fully populated Repo.
func NewRepo(name string, forks, stars, prs int) Repo {
	return Repo{
		Name:  name,
		Forks: CountOf(forks),
		Stars: CountOf(stars),
		PRs:   CountOf(prs),
	}
}

// ContributionPercentage returns pull requests as a percentage of forks.
// A repository without forks has a contribution percentage of 0.
func (r Repo) ContributionPercentage() (float64, error) {
	prs, ok := r.PRs.Value()
	if !ok {
		return 0, &UnsetFieldError{Repo: r.Name, Field: "pull_requests"}
	}
	forks, ok := r.Forks.Value()
	if !ok {
		return 0, &UnsetFieldError{Repo: r.Name, Field: "forks"}
	}
	if forks == 0 {
		return 0, nil
	}
	return 100 * float64(prs) / float64(forks), nil
}

// UnsetFieldError is returned when a value is derived from a counter that was never loaded.
type UnsetFieldError struct {
	Repo  string
	Field string
}

func (e *UnsetFieldError) Error() string {
	return fmt.Sprintf("repository %q: %s is not set", e.Repo, e.Field)
}

// RepositoryPage is one page of an organization's repositories.
type RepositoryPage struct {
	Repos       []Repo
	EndCursor   string
	HasNextPage bool
	TotalCount  int
}

// Organization is the profile of a GitHub organization.
type Organization struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	PublicRepos int    `json:"public_repos"`
}

// OrgRepos is the full repository listing of one organization.
type OrgRepos struct {
	Organization Organization
	Repos        []Repo
}
