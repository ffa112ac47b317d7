package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/talas-dev/talas/internal/auth"
	"github.com/talas-dev/talas/internal/client/optimistic"
	"github.com/talas-dev/talas/internal/client/querycache"
	"github.com/talas-dev/talas/internal/client/rpc"
	"github.com/talas-dev/talas/internal/config"
)

// errMutationFailed — мутация отклонена сервером и откатана; текст уже выведен как notice.
var errMutationFailed = errors.New("mutation failed")

// app — состояние одного запуска CLI.
type app struct {
	cfg    *config.ClientConfig
	log    *slog.Logger
	proto  *optimistic.Protocol
	out    io.Writer
	errOut io.Writer
}

func newApp(cfgPath string, verbose bool, out, errOut io.Writer) (*app, error) {
	cfg, err := config.LoadClient(cfgPath)
	if err != nil {
		return nil, err
	}

	lg := setupLogger(cfg.Env, verbose, errOut)

	client, err := rpc.New(rpc.Options{
		BaseURL:   cfg.BaseURL,
		Token:     cfg.Token,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		Logger:    lg,
	})
	if err != nil {
		return nil, err
	}

	viewer := uuid.Nil
	if cfg.Token != "" {
		if viewer, err = auth.Viewer(cfg.Token); err != nil {
			lg.Warn("token_unreadable", slog.String("err", err.Error()))
		}
	}

	a := &app{cfg: cfg, log: lg, out: out, errOut: errOut}
	a.proto = optimistic.New(client, querycache.New(lg), optimistic.Options{
		Serialize: !cfg.ConcurrentToggles,
		Viewer:    viewer,
		Notifier: optimistic.NotifierFunc(func(_ context.Context, n optimistic.Notice) {
			fmt.Fprintf(errOut, "notice: %s (%s %s)\n", n.Message, n.Family, n.Entity)
		}),
		Logger: lg,
	})

	return a, nil
}

// settle переводит итог мутации в код выхода.
func (a *app) settle(r optimistic.Report, err error) error {
	if err != nil {
		return err
	}

	switch r.Outcome {
	case optimistic.OutcomeRolledBack, optimistic.OutcomeFailed:
		return errMutationFailed
	case optimistic.OutcomeReconciled:
		fmt.Fprintf(a.out, "already %s: %s\n", r.Family, r.Entity)
	}

	return nil
}

func setupLogger(env string, verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	if env == "prod" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
