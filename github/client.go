// Package github is the gateway to the GitHub REST API: watched repositories
// of a user and recent commits of a repository.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
	"go.uber.org/zap"

	"gicowa/fetcher"
	"gicowa/hint"
	"gicowa/logger"
	"gicowa/models"
)

const perPage = 100

// Options configures a Client. Username and Password take precedence over
// Token; with neither the client is anonymous.
type Options struct {
	BaseURL     string
	Username    string
	Password    string
	Token       string
	Concurrency int
	Timeout     time.Duration
}

// Client represents a GitHub API client
type Client struct {
	gh          *gh.Client
	concurrency int
}

// NewClient builds a client from opts.
func NewClient(opts Options) (*Client, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	var httpClient *http.Client
	if opts.Username != "" {
		transport := &gh.BasicAuthTransport{Username: opts.Username, Password: opts.Password}
		httpClient = transport.Client()
	} else {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = timeout

	client := gh.NewClient(httpClient)
	if opts.Username == "" && opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}

	if opts.BaseURL != "" {
		baseURL, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid API URL %q: %w", opts.BaseURL, err)
		}
		if !strings.HasSuffix(baseURL.Path, "/") {
			baseURL.Path += "/"
		}
		client.BaseURL = baseURL
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	logger.Info("Initializing GitHub client",
		zap.String("base_url", client.BaseURL.String()),
		zap.Bool("basic_auth", opts.Username != ""),
		zap.Bool("token", opts.Username == "" && opts.Token != ""))

	return &Client{gh: client, concurrency: concurrency}, nil
}

// ListWatchedRepos returns the full names of the repositories username
// watches, in the order GitHub lists them.
func (c *Client) ListWatchedRepos(ctx context.Context, username string) ([]string, error) {
	logger.Info("Fetching user", zap.String("username", username))

	if _, _, err := c.gh.Users.Get(ctx, username); err != nil {
		return nil, userNotFound(err, username)
	}

	var names []string
	opts := &gh.ListOptions{PerPage: perPage}
	for {
		repos, resp, err := c.gh.Activity.ListWatched(ctx, username, opts)
		if err != nil {
			logger.Error("Failed to fetch subscriptions",
				zap.Error(err),
				zap.String("username", username),
				zap.Int("page", opts.Page))
			return nil, userNotFound(err, username)
		}
		for _, repo := range repos {
			names = append(names, repo.GetFullName())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	logger.Info("Successfully fetched subscriptions",
		zap.String("username", username),
		zap.Int("total_count", len(names)))

	return names, nil
}

// ListRecentCommits returns the commits of repoFullName whose committer date
// is at or after since. GitHub filters by date; each listed commit is then
// fetched again to read its committer.
func (c *Client) ListRecentCommits(ctx context.Context, repoFullName string, since time.Time) ([]models.Commit, error) {
	owner, name, ok := strings.Cut(repoFullName, "/")
	if !ok || owner == "" || name == "" {
		return nil, hint.Wrap(fmt.Errorf("invalid repository name %q", repoFullName), repoHint(repoFullName))
	}

	logger.Info("Fetching repository",
		zap.String("owner", owner),
		zap.String("name", name))

	if _, _, err := c.gh.Repositories.Get(ctx, owner, name); err != nil {
		if StatusCode(err) == http.StatusNotFound {
			return nil, hint.Wrap(err, repoHint(repoFullName))
		}
		return nil, err
	}

	var shas []string
	opts := &gh.CommitsListOptions{Since: since, ListOptions: gh.ListOptions{PerPage: perPage}}
	for {
		logger.Info("Fetching commits page",
			zap.String("owner", owner),
			zap.String("name", name),
			zap.Int("page", opts.Page),
			zap.Time("since", since))

		commits, resp, err := c.gh.Repositories.ListCommits(ctx, owner, name, opts)
		if err != nil {
			logger.Error("Failed to fetch commits",
				zap.Error(err),
				zap.String("owner", owner),
				zap.String("name", name))
			return nil, err
		}
		for _, commit := range commits {
			shas = append(shas, commit.GetSHA())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	result, err := fetcher.FetchAll(ctx, shas, c.concurrency, func(ctx context.Context, sha string) (models.Commit, error) {
		commit, _, err := c.gh.Git.GetCommit(ctx, owner, name, sha)
		if err != nil {
			return models.Commit{}, err
		}
		committer := commit.GetCommitter()
		return models.Commit{
			SHA:       sha,
			Committer: committer.GetName(),
			Date:      committer.GetDate().Time.UTC(),
			Message:   commit.GetMessage(),
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch commit details of %s: %w", repoFullName, err)
	}

	logger.Info("Successfully fetched all commits",
		zap.String("owner", owner),
		zap.String("name", name),
		zap.Int("total_count", len(result)))

	return result, nil
}

// StatusCode returns the HTTP status carried by a go-github error, or 0.
func StatusCode(err error) int {
	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode
	}
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return rateErr.Response.StatusCode
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.Response != nil {
		return abuseErr.Response.StatusCode
	}
	return 0
}

func userNotFound(err error, username string) error {
	if StatusCode(err) == http.StatusNotFound {
		return hint.Wrap(err, fmt.Sprintf("%s user doesn't exist?", username))
	}
	return err
}

func repoHint(repoFullName string) string {
	return fmt.Sprintf("%s repo doesn't exist?", repoFullName)
}
