package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/naka-gawa/repo-ranking/internal/domain"
)

// repositoriesResponse mirrors the response to repositoriesDocument.
// Every level is a pointer so that absent fields are told apart from zero values.
type repositoriesResponse struct {
	Data *struct {
		Organization *struct {
			Repositories *struct {
				TotalCount int `json:"totalCount"`
				PageInfo   *struct {
					EndCursor   *string `json:"endCursor"`
					HasNextPage *bool   `json:"hasNextPage"`
				} `json:"pageInfo"`
				Nodes *[]*repositoryNode `json:"nodes"`
			} `json:"repositories"`
		} `json:"organization"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type repositoryNode struct {
	Name         *string     `json:"name"`
	ForkCount    *int        `json:"forkCount"`
	Stargazers   *totalCount `json:"stargazers"`
	PullRequests *totalCount `json:"pullRequests"`
}

type totalCount struct {
	TotalCount *int `json:"totalCount"`
}

type graphQLError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

const opDecode = "decode repositories page"

// decodeRepositoriesPage converts a 200 response body into a page.
// A broken envelope is transient, a broken node is a data shape error.
func decodeRepositoriesPage(body []byte) (*domain.RepositoryPage, error) {
	var resp repositoriesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, transientError(opDecode, 0, fmt.Errorf("failed to parse response: %w", err))
	}

	for _, e := range resp.Errors {
		if e.Type == "NOT_FOUND" {
			return nil, configurationError(opDecode, 0, "organization not found: %s", e.Message)
		}
	}

	if resp.Data == nil || resp.Data.Organization == nil || resp.Data.Organization.Repositories == nil {
		return nil, transientError(opDecode, 0, withGraphQLErrors(errors.New("response has no data.organization.repositories"), resp.Errors))
	}
	repos := resp.Data.Organization.Repositories
	if repos.Nodes == nil {
		return nil, transientError(opDecode, 0, errors.New("response has no repositories.nodes"))
	}
	if repos.PageInfo == nil || repos.PageInfo.HasNextPage == nil {
		return nil, transientError(opDecode, 0, errors.New("response has no repositories.pageInfo"))
	}

	page := &domain.RepositoryPage{
		Repos:       make([]domain.Repo, 0, len(*repos.Nodes)),
		HasNextPage: *repos.PageInfo.HasNextPage,
		TotalCount:  repos.TotalCount,
	}
	if repos.PageInfo.EndCursor != nil {
		page.EndCursor = *repos.PageInfo.EndCursor
	}
	for i, node := range *repos.Nodes {
		repo, err := node.toRepo()
		if err != nil {
			return nil, dataShapeError(opDecode, "node %d: %v", i, err)
		}
		page.Repos = append(page.Repos, repo)
	}
	return page, nil
}

func (n *repositoryNode) toRepo() (domain.Repo, error) {
	if n == nil {
		return domain.Repo{}, errors.New("node is null")
	}
	if n.Name == nil || *n.Name == "" {
		return domain.Repo{}, errors.New("missing name")
	}
	name := *n.Name
	if n.ForkCount == nil {
		return domain.Repo{}, fmt.Errorf("repository %q: missing forkCount", name)
	}
	if n.Stargazers == nil || n.Stargazers.TotalCount == nil {
		return domain.Repo{}, fmt.Errorf("repository %q: missing stargazers.totalCount", name)
	}
	if n.PullRequests == nil || n.PullRequests.TotalCount == nil {
		return domain.Repo{}, fmt.Errorf("repository %q: missing pullRequests.totalCount", name)
	}
	forks, stars, prs := *n.ForkCount, *n.Stargazers.TotalCount, *n.PullRequests.TotalCount
	if forks < 0 || stars < 0 || prs < 0 {
		return domain.Repo{}, fmt.Errorf("repository %q: negative counter", name)
	}
	return domain.NewRepo(name, forks, stars, prs), nil
}

func withGraphQLErrors(err error, gqlErrs []graphQLError) error {
	if len(gqlErrs) == 0 {
		return err
	}
	msgs := make([]string, len(gqlErrs))
	for i, e := range gqlErrs {
		msgs[i] = e.Message
	}
	return fmt.Errorf("%w: %s", err, strings.Join(msgs, "; "))
}
