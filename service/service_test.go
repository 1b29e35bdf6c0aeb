package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gicowa/models"
	"gicowa/output"
	"gicowa/timestamp"
)

// MockGitHubClient is a mock implementation of the GitHub client
type MockGitHubClient struct {
	mock.Mock
}

func (m *MockGitHubClient) ListWatchedRepos(ctx context.Context, username string) ([]string, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockGitHubClient) ListRecentCommits(ctx context.Context, repoFullName string, since time.Time) ([]models.Commit, error) {
	args := m.Called(ctx, repoFullName, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Commit), args.Error(1)
}

type runs map[string]time.Time

func (r runs) Set(subject string, t time.Time) { r[subject] = t }

var (
	started = timestamp.FromTime(time.Date(2020, 2, 1, 8, 0, 0, 0, time.UTC))
	since   = timestamp.FromTime(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))

	fixCommit = models.Commit{
		SHA:       "abc123",
		Committer: "Monalisa Octocat",
		Date:      time.Date(2020, 1, 3, 10, 0, 0, 0, time.UTC),
		Message:   "Fix typo",
	}
	initCommit = models.Commit{
		SHA:       "def456",
		Committer: "The Octocat",
		Date:      time.Date(2020, 1, 2, 9, 30, 0, 0, time.UTC),
		Message:   "Initial commit",
	}
)

func newTestService(client *MockGitHubClient, colored bool) (*Service, *output.Output, *bytes.Buffer, runs) {
	term := &bytes.Buffer{}
	out := output.New(term, colored)
	recorded := runs{}
	svc := NewService(client, out, recorded)
	svc.now = func() timestamp.Timestamp { return started }
	return svc, out, term, recorded
}

func TestWatchlist(t *testing.T) {
	testCases := []struct {
		name     string
		repos    []string
		expected string
	}{
		{
			name:     "with subscriptions",
			repos:    []string{"octocat/Hello-World", "octocat/Spoon-Knife"},
			expected: "watchlist alice\noctocat/Hello-World\noctocat/Spoon-Knife\n",
		},
		{
			name:     "no subscriptions",
			repos:    []string{},
			expected: "watchlist alice\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := &MockGitHubClient{}
			client.On("ListWatchedRepos", mock.Anything, "alice").Return(tc.repos, nil)

			svc, out, _, recorded := newTestService(client, false)
			require.NoError(t, svc.Watchlist(context.Background(), "alice"))

			assert.Equal(t, tc.expected, out.Text())
			assert.Equal(t, len(tc.repos)+1, out.Lines())
			assert.Empty(t, recorded)
			client.AssertExpectations(t)
		})
	}
}

func TestWatchlistColorsRepos(t *testing.T) {
	client := &MockGitHubClient{}
	client.On("ListWatchedRepos", mock.Anything, "alice").Return([]string{"octocat/Hello-World"}, nil)

	svc, out, term, _ := newTestService(client, true)
	require.NoError(t, svc.Watchlist(context.Background(), "alice"))

	assert.Equal(t, "watchlist alice\n\x1b[31moctocat/Hello-World\x1b[0m\n", term.String())
	assert.Equal(t, "watchlist alice\noctocat/Hello-World\n", out.Text())
}

func TestWatchlistError(t *testing.T) {
	client := &MockGitHubClient{}
	client.On("ListWatchedRepos", mock.Anything, "nobody").Return(nil, assert.AnError)

	svc, out, _, _ := newTestService(client, false)
	err := svc.Watchlist(context.Background(), "nobody")

	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, "watchlist nobody\n", out.Text())
}

func TestLastRepoCommits(t *testing.T) {
	client := &MockGitHubClient{}
	client.On("ListRecentCommits", mock.Anything, "octocat/Hello-World", since.Time()).
		Return([]models.Commit{fixCommit, initCommit}, nil)

	svc, out, _, recorded := newTestService(client, false)
	require.NoError(t, svc.LastRepoCommits(context.Background(), "octocat/Hello-World", since))

	assert.Equal(t,
		"lastrepocommits octocat/Hello-World since 2020-01-01 00:00:00\n"+
			"2020-01-03 10:00:00 - Monalisa Octocat - Fix typo\n"+
			"2020-01-02 09:30:00 - The Octocat - Initial commit\n",
		out.Text())
	assert.Equal(t, runs{"lastrepocommits octocat/Hello-World": started.Time()}, recorded)
	client.AssertExpectations(t)
}

func TestLastRepoCommitsColored(t *testing.T) {
	client := &MockGitHubClient{}
	client.On("ListRecentCommits", mock.Anything, "octocat/Hello-World", since.Time()).
		Return([]models.Commit{fixCommit}, nil)

	svc, _, term, _ := newTestService(client, true)
	require.NoError(t, svc.LastRepoCommits(context.Background(), "octocat/Hello-World", since))

	assert.Contains(t, term.String(), "\x1b[32m2020-01-03 10:00:00\x1b[0m - \x1b[34mMonalisa Octocat\x1b[0m - Fix typo\n")
}

func TestLastRepoCommitsNoneFound(t *testing.T) {
	client := &MockGitHubClient{}
	client.On("ListRecentCommits", mock.Anything, "octocat/Hello-World", since.Time()).
		Return([]models.Commit{}, nil)

	svc, out, _, recorded := newTestService(client, false)
	require.NoError(t, svc.LastRepoCommits(context.Background(), "octocat/Hello-World", since))

	assert.Equal(t, 1, out.Lines())
	assert.Contains(t, recorded, "lastrepocommits octocat/Hello-World")
}

func TestLastRepoCommitsErrorDoesNotRecord(t *testing.T) {
	client := &MockGitHubClient{}
	client.On("ListRecentCommits", mock.Anything, "octocat/nope", since.Time()).Return(nil, assert.AnError)

	svc, _, _, recorded := newTestService(client, false)
	err := svc.LastRepoCommits(context.Background(), "octocat/nope", since)

	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, recorded)
}

func TestLastWatchedCommits(t *testing.T) {
	client := &MockGitHubClient{}
	client.On("ListWatchedRepos", mock.Anything, "alice").
		Return([]string{"octocat/Hello-World", "octocat/Spoon-Knife"}, nil)
	client.On("ListRecentCommits", mock.Anything, "octocat/Hello-World", since.Time()).
		Return([]models.Commit{fixCommit}, nil)
	client.On("ListRecentCommits", mock.Anything, "octocat/Spoon-Knife", since.Time()).
		Return([]models.Commit{initCommit}, nil)

	svc, out, _, recorded := newTestService(client, false)
	require.NoError(t, svc.LastWatchedCommits(context.Background(), "alice", since))

	assert.Equal(t,
		"lastwatchedcommits alice since 2020-01-01 00:00:00\n"+
			"octocat/Hello-World - 2020-01-03 10:00:00 - Monalisa Octocat - Fix typo\n"+
			"octocat/Spoon-Knife - 2020-01-02 09:30:00 - The Octocat - Initial commit\n",
		out.Text())
	assert.Equal(t, runs{"lastwatchedcommits alice": started.Time()}, recorded)
	client.AssertExpectations(t)
}

func TestLastWatchedCommitsStopsAtFirstError(t *testing.T) {
	client := &MockGitHubClient{}
	client.On("ListWatchedRepos", mock.Anything, "alice").
		Return([]string{"octocat/gone", "octocat/Hello-World"}, nil)
	client.On("ListRecentCommits", mock.Anything, "octocat/gone", since.Time()).Return(nil, assert.AnError)

	svc, _, _, recorded := newTestService(client, false)
	err := svc.LastWatchedCommits(context.Background(), "alice", since)

	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, recorded)
	client.AssertNotCalled(t, "ListRecentCommits", mock.Anything, "octocat/Hello-World", mock.Anything)
}
