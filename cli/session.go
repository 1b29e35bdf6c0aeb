package cli

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"gicowa/config"
	"gicowa/github"
	"gicowa/hint"
	"gicowa/logger"
	"gicowa/models"
	"gicowa/output"
	"gicowa/persistence"
	"gicowa/service"
	"gicowa/timestamp"
)

// session is everything one command invocation needs. The state store is
// opened on first use so commands that neither read nor persist last runs
// never touch it.
type session struct {
	app              *App
	opts             *options
	cfg              *config.Config
	out              *output.Output
	store            *persistence.Store
	svc              *service.Service
	credentialsGiven bool
}

func newSession(ctx context.Context, app *App, opts *options) (*session, error) {
	username, password, err := parseCredentials(opts.credentials)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	if err := logger.Initialize(level); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	client, err := app.NewClient(github.Options{
		BaseURL:     cfg.GitHub.APIURL,
		Username:    username,
		Password:    password,
		Token:       cfg.GitHub.Token,
		Concurrency: cfg.GitHub.Concurrency,
	})
	if err != nil {
		return nil, err
	}

	colored := !opts.noColor && (cfg.Output.ForceColor || app.IsTerminal())
	s := &session{
		app:              app,
		opts:             opts,
		cfg:              cfg,
		out:              output.New(app.Stdout, colored),
		credentialsGiven: username != "" || cfg.GitHub.Token != "",
	}
	s.svc = service.NewService(client, s.out, s)

	if opts.persist {
		if _, err := s.lastRuns(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// lastRuns opens the state store if it is not open yet.
func (s *session) lastRuns(ctx context.Context) (*persistence.Store, error) {
	if s.store != nil {
		return s.store, nil
	}
	store, err := s.app.OpenStore(ctx, s.cfg.State)
	if err != nil {
		return nil, err
	}
	s.store = store
	return store, nil
}

// Set records that subject completed at t. Runs are only remembered in a
// store that is already open.
func (s *session) Set(subject string, t time.Time) {
	if s.store != nil {
		s.store.Set(subject, t)
	}
}

func (s *session) close() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		logger.Warn("Failed to close state store", zap.Error(err))
	}
}

// since returns the timestamp given on the command line, or the last
// recorded run of subject when no fields were given.
func (s *session) since(ctx context.Context, subject models.Subject, fields []string) (timestamp.Timestamp, error) {
	if len(fields) > 0 {
		return timestamp.FromFields(fields)
	}
	store, err := s.lastRuns(ctx)
	if err != nil {
		return timestamp.Timestamp{}, err
	}
	last, ok := store.Get(subject.String())
	if !ok {
		return timestamp.Timestamp{}, fmt.Errorf("%w: no previous run of %q recorded, give the since timestamp", ErrUsage, subject)
	}
	logger.Info("Using last recorded run", zap.String("subject", subject.String()), zap.Time("since", last))
	return timestamp.FromTime(last), nil
}

// finish mails and persists the result of a successful command. A failed
// command only gets its error annotated.
func (s *session) finish(ctx context.Context, subject models.Subject, err error) error {
	if err != nil {
		return s.annotate(err)
	}

	if s.opts.mailto != "" && s.out.Lines() > 1 {
		mailer := s.app.NewMailer(s.cfg.Mail)
		if err := mailer.SendResult(ctx, subject.String(), s.out.Text(), s.opts.mailto); err != nil {
			return err
		}
		s.out.Echo(fmt.Sprintf("Sent by e-mail to %s", s.opts.mailto))
	}

	if s.opts.persist {
		if err := s.store.Save(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) annotate(err error) error {
	switch github.StatusCode(err) {
	case http.StatusUnauthorized:
		if s.credentialsGiven {
			return hint.Wrap(err, "Bad credentials?")
		}
	case http.StatusForbidden:
		if !s.credentialsGiven {
			return hint.Wrap(err, fmt.Sprintf("API rate limit exceeded? Use the --%s option.", credentialsFlag))
		}
	}
	return err
}

func parseCredentials(raw string) (string, string, error) {
	if raw == "" {
		return "", "", nil
	}
	username, password, ok := strings.Cut(raw, ":")
	if !ok || username == "" {
		return "", "", fmt.Errorf("%w: --%s must look like USER:PASSWORD", ErrUsage, credentialsFlag)
	}
	return username, password, nil
}
