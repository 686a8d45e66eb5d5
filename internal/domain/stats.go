package domain

import "time"

// RankedRepo is a repository together with the value it was ranked by.
type RankedRepo struct {
	Rank  int     `json:"rank"`
	Repo  Repo    `json:"repository"`
	Value float64 `json:"value"`
}

// Summary describes the distribution of a metric across an organization.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	Max    float64 `json:"max"`
}

// RateLimit is the GraphQL API quota of the authenticated token.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Cost      int       `json:"cost"`
	ResetAt   time.Time `json:"reset_at"`
}
