package gateway

import (
	"regexp"

	"github.com/shurcooL/githubv4"
)

// repositoriesDocument is the only GraphQL document used to list repositories.
// Everything caller supplied travels as a variable.
const repositoriesDocument = `query($login: String!, $first: Int!, $cursor: String) {
  organization(login: $login) {
    repositories(first: $first, after: $cursor) {
      totalCount
      pageInfo {
        endCursor
        hasNextPage
      }
      nodes {
        name
        forkCount
        stargazers {
          totalCount
        }
        pullRequests {
          totalCount
        }
      }
    }
  }
}`

// RepositoriesQuery is the request body for one page of an organization's repositories.
type RepositoriesQuery struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// NewRepositoriesQuery builds the request for the page after cursor.
// An empty cursor requests the first page.
func NewRepositoriesQuery(org, cursor string, pageSize int) RepositoriesQuery {
	var after *githubv4.String
	if cursor != "" {
		after = githubv4.NewString(githubv4.String(cursor))
	}
	return RepositoriesQuery{
		Query: repositoriesDocument,
		Variables: map[string]any{
			"login":  githubv4.String(org),
			"first":  githubv4.Int(pageSize),
			"cursor": after,
		},
	}
}

// loginPattern matches GitHub user and organization logins.
var loginPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9]|-[A-Za-z0-9]){0,38}$`)

// ValidateOrganization rejects names that cannot be a GitHub organization login.
func ValidateOrganization(login string) error {
	if len(login) > 39 || !loginPattern.MatchString(login) {
		return configurationError("validate organization", 0, "invalid organization name %q", login)
	}
	return nil
}
