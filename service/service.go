// Package service implements the gicowa commands on top of the GitHub
// gateway, writing their results to an output sink.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gicowa/logger"
	"gicowa/models"
	"gicowa/output"
	"gicowa/timestamp"
)

// Command names as typed on the command line.
const (
	CommandWatchlist          = "watchlist"
	CommandLastRepoCommits    = "lastrepocommits"
	CommandLastWatchedCommits = "lastwatchedcommits"
)

// GitHubClientInterface abstracts the GitHub client operations needed by the service
// (for testability)
type GitHubClientInterface interface {
	ListWatchedRepos(ctx context.Context, username string) ([]string, error)
	ListRecentCommits(ctx context.Context, repoFullName string, since time.Time) ([]models.Commit, error)
}

// RunRecorder remembers when a command subject last completed.
type RunRecorder interface {
	Set(subject string, t time.Time)
}

// Service runs one command per call.
type Service struct {
	client GitHubClientInterface
	out    *output.Output
	runs   RunRecorder
	now    func() timestamp.Timestamp
}

// NewService creates a new service instance
func NewService(client GitHubClientInterface, out *output.Output, runs RunRecorder) *Service {
	return &Service{
		client: client,
		out:    out,
		runs:   runs,
		now:    timestamp.Now,
	}
}

// Watchlist prints every repository watched by username.
func (s *Service) Watchlist(ctx context.Context, username string) error {
	subject := models.Subject{Command: CommandWatchlist, Target: username}
	s.out.Echo(subject.String())

	repos, err := s.client.ListWatchedRepos(ctx, username)
	if err != nil {
		return err
	}
	for _, repo := range repos {
		s.out.Echo(s.out.Red(repo))
	}

	logger.Info("Listed watched repositories",
		zap.String("username", username),
		zap.Int("count", len(repos)))
	return nil
}

// LastRepoCommits prints every commit on repo committed at or after since,
// then records the run.
func (s *Service) LastRepoCommits(ctx context.Context, repo string, since timestamp.Timestamp) error {
	started := s.now()
	subject := models.Subject{Command: CommandLastRepoCommits, Target: repo}
	s.out.Echo(fmt.Sprintf("%s since %s", subject, since))

	commits, err := s.client.ListRecentCommits(ctx, repo, since.Time())
	if err != nil {
		return err
	}
	for _, commit := range commits {
		s.out.Echo(s.commitLine(commit))
	}

	s.runs.Set(subject.String(), started.Time())
	logger.Info("Listed recent commits",
		zap.String("repo", repo),
		zap.Time("since", since.Time()),
		zap.Int("count", len(commits)))
	return nil
}

// LastWatchedCommits prints every commit committed at or after since on the
// repositories watched by username, then records the run.
func (s *Service) LastWatchedCommits(ctx context.Context, username string, since timestamp.Timestamp) error {
	started := s.now()
	subject := models.Subject{Command: CommandLastWatchedCommits, Target: username}
	s.out.Echo(fmt.Sprintf("%s since %s", subject, since))

	repos, err := s.client.ListWatchedRepos(ctx, username)
	if err != nil {
		return err
	}

	total := 0
	for _, repo := range repos {
		commits, err := s.client.ListRecentCommits(ctx, repo, since.Time())
		if err != nil {
			return err
		}
		for _, commit := range commits {
			s.out.Echo(fmt.Sprintf("%s - %s", s.out.Red(repo), s.commitLine(commit)))
		}
		total += len(commits)
	}

	s.runs.Set(subject.String(), started.Time())
	logger.Info("Listed recent commits on watched repositories",
		zap.String("username", username),
		zap.Int("repos", len(repos)),
		zap.Int("count", total))
	return nil
}

func (s *Service) commitLine(c models.Commit) string {
	return fmt.Sprintf("%s - %s - %s", s.out.Green(c.FormattedDate()), s.out.Blue(c.Committer), c.Message)
}
