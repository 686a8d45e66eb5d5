// Package config loads the settings the CLI reads from its environment.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

const (
	// TokenEnv holds the GitHub token used as bearer credential.
	TokenEnv = "GITHUB_TOKEN"
	// GraphQLURLEnv overrides the GraphQL endpoint, e.g. for GitHub Enterprise.
	GraphQLURLEnv = "GITHUB_GRAPHQL_URL"
	// RESTURLEnv overrides the REST API base URL.
	RESTURLEnv = "GITHUB_API_URL"
)

// Config holds the environment driven settings.
// Empty URLs leave the gateway on the public GitHub endpoints.
type Config struct {
	Token      string
	GraphQLURL string
	RESTURL    string
}

// Load reads the configuration from the environment, first loading files
// (default .env) into it. Variables already set are never overridden.
// The returned error only reports a missing or unreadable file; the Config
// is usable either way.
func Load(files ...string) (Config, error) {
	err := godotenv.Load(files...)

	return Config{
		Token:      os.Getenv(TokenEnv),
		GraphQLURL: os.Getenv(GraphQLURLEnv),
		RESTURL:    os.Getenv(RESTURLEnv),
	}, err
}
