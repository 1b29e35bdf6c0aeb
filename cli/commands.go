package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gicowa/models"
	"gicowa/service"
	"gicowa/timestamp"
)

func sinceUsage() string {
	names := make([]string, len(timestamp.Fields))
	for i, f := range timestamp.Fields {
		names[i] = "<" + f.Name + ">"
	}
	return "[" + strings.Join(names, " ") + "]"
}

func sinceHelp() string {
	var b strings.Builder
	b.WriteString("The optional since arguments are the oldest committer UTC timestamp to consider\n")
	b.WriteString("(e.g. '2015 07 05 09 12 00'). Without them the time of the last --persist run\n")
	b.WriteString("of the same command is used.\n\n")
	for _, f := range timestamp.Fields {
		fmt.Fprintf(&b, "  %-4s  %s\n", f.Name, f.Help)
	}
	return b.String()
}

// targetAndSince accepts a target followed by either no timestamp fields or
// all of them.
func targetAndSince(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: %s needs a target", ErrUsage, cmd.Name())
	}
	if n := len(args) - 1; n != 0 && n != len(timestamp.Fields) {
		return fmt.Errorf("%w: %s takes all %d since fields or none, got %d", ErrUsage, cmd.Name(), len(timestamp.Fields), n)
	}
	return nil
}

func exactlyOneTarget(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: %s takes exactly one argument, got %d", ErrUsage, cmd.Name(), len(args))
	}
	return nil
}

func newWatchlistCommand(app *App, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   service.CommandWatchlist + " <username>",
		Short: "list repos watched by a user",
		Args:  exactlyOneTarget,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx, app, opts)
			if err != nil {
				return err
			}
			defer s.close()

			subject := models.Subject{Command: service.CommandWatchlist, Target: args[0]}
			return s.finish(ctx, subject, s.svc.Watchlist(ctx, args[0]))
		},
	}
}

func newLastRepoCommitsCommand(app *App, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   service.CommandLastRepoCommits + " <repo> " + sinceUsage(),
		Short: "list last commits on a repo",
		Long:  "List commits on a repository given by full name (e.g. 'octocat/Hello-World').\n\n" + sinceHelp(),
		Args:  targetAndSince,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx, app, opts)
			if err != nil {
				return err
			}
			defer s.close()

			subject := models.Subject{Command: service.CommandLastRepoCommits, Target: args[0]}
			since, err := s.since(ctx, subject, args[1:])
			if err != nil {
				return err
			}
			return s.finish(ctx, subject, s.svc.LastRepoCommits(ctx, args[0], since))
		},
	}
}

func newLastWatchedCommitsCommand(app *App, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   service.CommandLastWatchedCommits + " <username> " + sinceUsage(),
		Short: "list last commits watched by a user",
		Long:  "List commits on every repository watched by a user.\n\n" + sinceHelp(),
		Args:  targetAndSince,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx, app, opts)
			if err != nil {
				return err
			}
			defer s.close()

			subject := models.Subject{Command: service.CommandLastWatchedCommits, Target: args[0]}
			since, err := s.since(ctx, subject, args[1:])
			if err != nil {
				return err
			}
			return s.finish(ctx, subject, s.svc.LastWatchedCommits(ctx, args[0], since))
		},
	}
}
