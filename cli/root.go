// Package cli is the gicowa command line: flag parsing, command dispatch,
// mailing and persisting results, and the single place errors are reported.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"gicowa/config"
	"gicowa/github"
	"gicowa/hint"
	"gicowa/logger"
	"gicowa/mail"
	"gicowa/persistence"
	"gicowa/service"
)

// ErrUsage marks missing or malformed command-line arguments.
var ErrUsage = errors.New("usage error")

const credentialsFlag = "credentials"

// ResultMailer sends a command's output by e-mail.
type ResultMailer interface {
	SendResult(ctx context.Context, label, body, recipient string) error
}

// App holds the process-level collaborators. Tests replace them.
type App struct {
	Stdout io.Writer
	Stderr io.Writer

	NewClient  func(opts github.Options) (service.GitHubClientInterface, error)
	NewMailer  func(cfg config.MailConfig) ResultMailer
	OpenStore  func(ctx context.Context, cfg config.StateConfig) (*persistence.Store, error)
	IsTerminal func() bool
}

// DefaultApp wires the real terminal, GitHub, SMTP and state storage.
func DefaultApp() *App {
	return &App{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		NewClient: func(opts github.Options) (service.GitHubClientInterface, error) {
			return github.NewClient(opts)
		},
		NewMailer: func(cfg config.MailConfig) ResultMailer {
			return mail.NewMailer(cfg)
		},
		OpenStore: persistence.Open,
		IsTerminal: func() bool {
			fd := os.Stdout.Fd()
			return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		},
	}
}

// options are the flags shared by every command.
type options struct {
	noColor     bool
	credentials string
	mailto      string
	persist     bool
	configPath  string
	logLevel    string
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "gicowa",
		Short: "Watch GitHub commits easily",
		Long: `gicowa lists the repositories a GitHub user watches and the commits
pushed to them since a given time. Results can be mailed, and the time of each
run can be remembered so the next run only reports what is new.`,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Arguments are valid by now; later failures are not usage problems.
			cmd.SilenceUsage = true
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Usage()
			return fmt.Errorf("%w: a command is required", ErrUsage)
		},
	}
	root.SetOut(app.Stdout)
	root.SetErr(app.Stderr)

	flags := root.PersistentFlags()
	flags.BoolVar(&opts.noColor, "no-color", false, "disable color in output")
	flags.StringVar(&opts.credentials, credentialsFlag, "", "your GitHub login and password (e.g. 'octocat:password')")
	flags.StringVar(&opts.mailto, "mailto", "", "e-mail address to which the output should be sent")
	flags.BoolVar(&opts.persist, "persist", false, "remember when each command last completed")
	flags.StringVar(&opts.configPath, "config", "", "config `file` (default ~/.gicowa/config.yaml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log `level` (debug, info, warn, error)")

	root.AddCommand(
		newWatchlistCommand(app, opts),
		newLastRepoCommitsCommand(app, opts),
		newLastWatchedCommitsCommand(app, opts),
	)
	return root
}

// Run executes args and returns the process exit code, reporting any error
// on app.Stderr.
func Run(ctx context.Context, app *App, args []string) int {
	root := NewRootCommand(app)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		Report(app.Stderr, err)
		return 1
	}
	return 0
}

// Execute is the entry point of the gicowa binary.
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, DefaultApp(), os.Args[1:])
	stop()
	logger.Sync()
	os.Exit(code)
}

// Report prints err and its hints the same way for every failure.
func Report(w io.Writer, err error) {
	fmt.Fprintln(w, "Oops, an error occured.")
	fmt.Fprintln(w, err)
	for _, h := range hint.List(err) {
		fmt.Fprintln(w, h)
	}
	fmt.Fprintln(w)
}
