// Command todo is the terminal client for the to-do API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"

	"github.com/jaekwang-park/todolist/internal/client"
	cognitopkg "github.com/jaekwang-park/todolist/internal/cognito"
	"github.com/jaekwang-park/todolist/internal/config"
	"github.com/jaekwang-park/todolist/internal/frontend"
	"github.com/jaekwang-park/todolist/internal/session"
)

const usage = `usage: todo [-config FILE] <command> [args]

commands:
  signup    -email E -password P -username U   create an account
  confirm   -email E -code C [-resend]          confirm an account
  login     -email E -password P                sign in
  logout                                        sign out everywhere
  whoami                                        show the signed-in user
  list      [-filter all|active|completed]      list tasks
  add       TEXT...                             add a task
  toggle    ID                                  flip a task's completion
  rm        ID                                  delete a task
  clear                                         delete completed tasks
  username  NAME                                change your username
  passwd    -new P -confirm P                   change your password
  ui                                            interactive mode (default)
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "todo:", err)
		os.Exit(1)
	}
}

// deps is everything a command may need, built once per invocation.
type deps struct {
	cfg      config.ClientConfig
	logger   *slog.Logger
	api      *client.Client
	sessions *session.Manager
	out      io.Writer
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	configPath := fs.String("config", config.DefaultClientConfigPath(), "config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	name, rest := "ui", []string(nil)
	if fs.NArg() > 0 {
		name, rest = fs.Arg(0), fs.Args()[1:]
	}
	cmd, ok := commands[name]
	if !ok {
		fs.Usage()
		return fmt.Errorf("unknown command %q", name)
	}

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	d, err := newDeps(ctx, cfg, out)
	if err != nil {
		return err
	}
	return cmd(ctx, d, rest)
}

func newDeps(ctx context.Context, cfg config.ClientConfig, out io.Writer) (*deps, error) {
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	baseURL, err := client.ResolveBaseURL(cfg.APIOrigin, cfg.LocalPort)
	if err != nil {
		return nil, err
	}

	idp, err := cognitopkg.NewAWSClient(ctx, cognitopkg.Options{
		Region:       cfg.Cognito.Region,
		ClientID:     cfg.Cognito.AppClientID,
		ClientSecret: cfg.Cognito.AppClientSecret,
		Endpoint:     cfg.Cognito.Endpoint,
	})
	if err != nil {
		return nil, err
	}

	return &deps{
		cfg:      cfg,
		logger:   logger,
		api:      client.New(baseURL, nil),
		sessions: session.NewManager(idp, session.FileStore{Path: cfg.SessionFile}, logger),
		out:      out,
	}, nil
}

// newLogger routes slog through charmbracelet/log on stderr.
func newLogger(level string) *slog.Logger {
	lvl, err := charmlog.ParseLevel(level)
	if err != nil {
		lvl = charmlog.WarnLevel
	}
	handler := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		Level:           lvl,
		ReportTimestamp: true,
		Prefix:          "todo",
	})
	return slog.New(handler)
}

// signedInApp loads the session and the user's data, or explains how to
// sign in.
func (d *deps) signedInApp(ctx context.Context) (*frontend.App, error) {
	app := frontend.NewApp(d.api, d.sessions, d.logger)
	if err := app.Init(ctx); err != nil {
		if errors.Is(err, frontend.ErrSignedOut) {
			return nil, errors.New("not signed in; run `todo login` first")
		}
		return nil, err
	}
	return app, nil
}
