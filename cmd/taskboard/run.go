package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pribylovaa/go-taskboard/internal/clients"
	"github.com/pribylovaa/go-taskboard/internal/config"
	"github.com/pribylovaa/go-taskboard/internal/models"
	"github.com/pribylovaa/go-taskboard/internal/notify"
	logctx "github.com/pribylovaa/go-taskboard/internal/pkg/log"
	"github.com/pribylovaa/go-taskboard/internal/session"
	"github.com/pribylovaa/go-taskboard/internal/tokenstore"
)

const usage = `usage: taskboard [--config path] <command> [flags]

commands:
  register -email E -password P -confirm P   create an account and log in
  login    -email E -password P              log in
  logout                                     end the session
  me                                         show the current user
  token                                      show the stored access token claims
  refresh                                    exchange the refresh token for a new pair
  get <path>                                 authenticated GET, prints JSON
  projects [-create NAME]                    list or create projects

Password may also be passed in TASKBOARD_PASSWORD.
`

// Коды выхода.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("invalid usage")

// app - собранные зависимости одной команды CLI.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	store  tokenstore.Store
	client *clients.Client
	m      *session.Manager
	out    io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("taskboard", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { _, _ = fmt.Fprint(stderr, usage) }

	var configPath string
	global.StringVar(&configPath, "config", "", "path to config file")
	if err := global.Parse(args); err != nil {
		return exitUsage
	}

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return exitUsage
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	log, logCloser := setupLogger(cfg.Env, cfg.Log, stderr)
	defer func() { _ = logCloser.Close() }()
	ctx = logctx.Into(ctx, log)

	a, closeApp, err := newApp(ctx, cfg, log, stdout, stderr)
	if err != nil {
		log.Error("app_init_failed", slog.String("err", err.Error()))
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	defer closeApp()

	ctx = logctx.With(ctx, slog.String("cmd", rest[0]))
	if err := a.dispatch(ctx, rest[0], rest[1:]); err != nil {
		if errors.Is(err, errUsage) || isValidation(err) {
			_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
			return exitUsage
		}

		logctx.From(ctx).Debug("command_failed", slog.String("err", err.Error()))
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	return exitOK
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger, stdout, stderr io.Writer) (*app, func(), error) {
	store, closeStore, err := tokenstore.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	client, err := clients.New(cfg.API, store, log)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}

	opts := session.OptionsFrom(cfg.Session)
	opts.Logger = log
	opts.Notifier = notify.Multi{notify.NewWriter(stderr), notify.NewLog(log)}

	a := &app{
		cfg:    cfg,
		log:    log,
		store:  store,
		client: client,
		m:      session.New(client, store, opts),
		out:    stdout,
	}

	closeFn := func() {
		if err := closeStore(); err != nil {
			log.Warn("token_store_close_failed", slog.String("err", err.Error()))
		}
	}

	return a, closeFn, nil
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "me":
		return a.me(ctx)
	case "token":
		return a.token(ctx)
	case "refresh":
		return a.refresh(ctx)
	case "get":
		return a.get(ctx, args)
	case "projects":
		return a.projects(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func credentialFlags(name string, args []string, withConfirm bool) (models.Registration, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var r models.Registration
	fs.StringVar(&r.Email, "email", "", "account e-mail")
	fs.StringVar(&r.Password, "password", os.Getenv("TASKBOARD_PASSWORD"), "account password")
	if withConfirm {
		fs.StringVar(&r.Confirm, "confirm", "", "password confirmation")
	}

	if err := fs.Parse(args); err != nil {
		return models.Registration{}, fmt.Errorf("%w: %v", errUsage, err)
	}

	return r, nil
}

func (a *app) register(ctx context.Context, args []string) error {
	r, err := credentialFlags("register", args, true)
	if err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}

	u, err := a.m.Register(ctx, r.Credentials)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(a.out, "registered and logged in as %s (%s)\n", u.Email, u.ID)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	r, err := credentialFlags("login", args, false)
	if err != nil {
		return err
	}
	if err := r.Credentials.Validate(); err != nil {
		return err
	}

	u, err := a.m.Login(ctx, r.Credentials)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(a.out, "logged in as %s (%s)\n", u.Email, u.ID)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.m.Logout(ctx); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *app) me(ctx context.Context) error {
	u, err := a.m.CurrentUser(ctx)
	if err != nil {
		return err
	}

	return a.printJSON(u)
}

func (a *app) token(ctx context.Context) error {
	id, err := a.m.Identity(ctx)
	if err != nil {
		return err
	}

	exp := time.Unix(id.ExpiresAt, 0).UTC()
	_, _ = fmt.Fprintf(a.out, "subject:    %s\nemail:      %s\nexpires_at: %s\nremaining:  %s\n",
		id.Subject, id.Email, exp.Format(time.RFC3339), id.Remaining(time.Now()).Truncate(time.Second))

	return nil
}

func (a *app) refresh(ctx context.Context) error {
	pair, err := a.m.Refresh(ctx)
	if err != nil {
		return err
	}

	id, err := session.Decode(pair.AccessToken)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(a.out, "token refreshed, expires in %s\n", id.Remaining(time.Now()).Truncate(time.Second))
	return nil
}

func (a *app) get(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: get expects exactly one path", errUsage)
	}
	path := args[0]

	raw, err := session.WithAutoRefresh(ctx, a.m, func(ctx context.Context) (json.RawMessage, error) {
		var out json.RawMessage
		err := a.client.GetJSON(ctx, path, &out)
		return out, err
	})
	if err != nil {
		return err
	}

	return a.printJSON(raw)
}

func (a *app) projects(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("projects", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var create string
	fs.StringVar(&create, "create", "", "name of a project to create")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	if name := strings.TrimSpace(create); name != "" {
		p, err := session.WithAutoRefresh(ctx, a.m, func(ctx context.Context) (models.Project, error) {
			var p models.Project
			err := a.client.PostJSON(ctx, "/projects", map[string]string{"name": name}, &p)
			return p, err
		})
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(a.out, "created %s\t%s\n", p.ID, p.Name)
		return nil
	}

	list, err := session.WithAutoRefresh(ctx, a.m, func(ctx context.Context) ([]models.Project, error) {
		var list []models.Project
		err := a.client.GetJSON(ctx, "/projects", &list)
		return list, err
	})
	if err != nil {
		return err
	}

	for _, p := range list {
		_, _ = fmt.Fprintf(a.out, "%s\t%s\n", p.ID, p.Name)
	}

	return nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isValidation(err error) bool {
	return errors.Is(err, models.ErrEmailRequired) ||
		errors.Is(err, models.ErrInvalidEmail) ||
		errors.Is(err, models.ErrPasswordRequired) ||
		errors.Is(err, models.ErrPasswordMismatch)
}
