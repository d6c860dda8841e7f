// Package githubclient implements providers.SourceHost on the GitHub REST API.
package githubclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"bithub/internal/models"
	"bithub/internal/providers"

	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"
)

var ErrBadURL = errors.New("unrecognised github url")

// Client wraps a go-github client.
type Client struct {
	gh *github.Client
}

var _ providers.SourceHost = (*Client)(nil)

// New creates a client authenticated with a personal access token. An empty
// apiURL selects api.github.com.
func New(token string, apiURL string) (*Client, error) {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	gh := github.NewClient(tc)

	if apiURL = strings.TrimSpace(apiURL); apiURL != "" {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		base, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("parse github api url: %w", err)
		}
		gh.BaseURL = base
	}

	return &Client{gh: gh}, nil
}

// Repository fetches metadata for https://github.com/<owner>/<name>.
func (c *Client) Repository(ctx context.Context, repoURL string) (models.Repository, error) {
	owner, name, err := splitRepositoryURL(repoURL)
	if err != nil {
		return models.Repository{}, err
	}

	repo, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return models.Repository{}, fmt.Errorf("failed to get repository %s/%s: %w", owner, name, err)
	}

	return models.Repository{
		URL:         repoURL,
		HTMLURL:     repo.GetHTMLURL(),
		Name:        repo.GetName(),
		Owner:       repo.GetOwner().GetLogin(),
		Description: repo.GetDescription(),
	}, nil
}

// CommitDescription returns the message of the commit behind a commit URL
// of the form https://github.com/<owner>/<name>/commit/<sha>.
func (c *Client) CommitDescription(ctx context.Context, commitURL string) (string, error) {
	owner, name, sha, err := splitCommitURL(commitURL)
	if err != nil {
		return "", err
	}

	commit, _, err := c.gh.Git.GetCommit(ctx, owner, name, sha)
	if err != nil {
		return "", fmt.Errorf("failed to get commit %s/%s@%s: %w", owner, name, sha, err)
	}

	return commit.GetMessage(), nil
}

// AddCommitComment posts body as a comment on commit.
func (c *Client) AddCommitComment(ctx context.Context, repo models.PushRepository, commit models.Commit, body string) error {
	owner, name := repo.Owner.Name, repo.Name
	if owner == "" || name == "" {
		var err error
		owner, name, err = splitRepositoryURL(repo.URL)
		if err != nil {
			return err
		}
	}

	_, _, err := c.gh.Repositories.CreateComment(ctx, owner, name, commit.ID, &github.RepositoryComment{
		Body: github.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to comment on %s/%s@%s: %w", owner, name, commit.ID, err)
	}

	return nil
}

func splitRepositoryURL(raw string) (owner, name string, err error) {
	parts := pathParts(raw)
	if len(parts) < 2 {
		return "", "", fmt.Errorf("%w: %q", ErrBadURL, raw)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}

func splitCommitURL(raw string) (owner, name, sha string, err error) {
	parts := pathParts(raw)
	if len(parts) < 4 || parts[len(parts)-2] != "commit" {
		return "", "", "", fmt.Errorf("%w: %q", ErrBadURL, raw)
	}
	n := len(parts)
	return parts[n-4], parts[n-3], parts[n-1], nil
}

func pathParts(raw string) []string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}

	var parts []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
