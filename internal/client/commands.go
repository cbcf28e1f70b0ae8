// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/MKhiriev/amestris-client/internal/app"
	"github.com/MKhiriev/amestris-client/internal/service"
	"github.com/MKhiriev/amestris-client/internal/workers"
	"github.com/MKhiriev/amestris-client/models"
)

const usage = `usage: amestris-client [flags] <command> [args]

commands:
  login -email E -password P
  register -name N -email E -password P [-role SUPERVISOR|ALCHEMIST]
  logout
  whoami
  list <alchemists|materials|missions|transmutations|audits> [-q Q -page N -page-size N]
  watch [-q Q]
  version`

type command func(a *App, ctx context.Context, args []string) error

var commands = map[string]command{
	"login":    (*App).login,
	"register": (*App).register,
	"logout":   (*App).logout,
	"whoami":   (*App).whoami,
	"list":     (*App).list,
	"watch":    (*App).watch,
	"version":  (*App).version,
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUsage, fs.Name(), err)
	}
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := parse(fs, args); err != nil {
		return err
	}

	user, err := a.services.Session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}

	a.notify.Success(fmt.Sprintf("logged in as %s (%s)", user.Name, user.Role))
	return nil
}

func (a *App) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password, at least 6 characters")
	role := fs.String("role", "", "SUPERVISOR or ALCHEMIST (default ALCHEMIST)")
	if err := parse(fs, args); err != nil {
		return err
	}

	user, err := a.services.Session.Register(ctx, *name, *email, *password, models.Role(strings.ToUpper(*role)))
	if err != nil {
		return err
	}

	a.notify.Success(fmt.Sprintf("registered and logged in as %s (%s)", user.Name, user.Role))
	return nil
}

func (a *App) logout(ctx context.Context, _ []string) error {
	a.services.Session.Logout(ctx)
	a.notify.Success(app.MsgLoggedOut)
	return nil
}

func (a *App) whoami(_ context.Context, _ []string) error {
	user, ok := a.services.Session.User()
	if !ok {
		return service.ErrNotAuthenticated
	}

	_, err := fmt.Fprintf(a.out, "%s <%s> %s\n", user.Name, user.Email, user.Role)
	return err
}

func (a *App) list(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: list needs a resource", ErrUsage)
	}
	resource, args := args[0], args[1:]

	var (
		out any
		err error
	)
	switch resource {
	case "alchemists":
		out, err = a.api.Alchemists.List(ctx)
	case "materials":
		out, err = a.api.Materials.List(ctx)
	case "missions":
		out, err = a.api.Missions.List(ctx)
	case "audits":
		out, err = a.api.Audits.List(ctx)
	case "transmutations":
		fs := newFlagSet("list transmutations")
		q := fs.String("q", "", "title filter")
		page := fs.Int("page", 0, "page number")
		pageSize := fs.Int("page-size", 0, "page size")
		if err = parse(fs, args); err != nil {
			return err
		}
		out, err = a.api.Transmutations.List(ctx, models.TransmutationQuery{Q: *q, Page: *page, PageSize: *pageSize})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownResource, resource)
	}
	if err != nil {
		return fmt.Errorf("list %s: %w", resource, err)
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (a *App) watch(ctx context.Context, args []string) error {
	fs := newFlagSet("watch")
	q := fs.String("q", "", "title filter for the initial page")
	if err := parse(fs, args); err != nil {
		return err
	}
	if _, ok := a.services.Session.User(); !ok {
		return service.ErrNotAuthenticated
	}

	ws := []workers.Worker{
		workers.NewWatchWorker(a.services.Transmutation, a.bridge, models.TransmutationQuery{Q: *q}, a.out, a.logger),
	}
	if a.cfg.Metrics.Address != "" {
		ws = append(ws, workers.NewMetricsServer(a.cfg.Metrics.Address, a.metrics.Handler(), a.info, a.logger))
	}

	err := workers.NewWorkers(ws...).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) version(_ context.Context, _ []string) error {
	_, err := fmt.Fprintf(a.out, "Build version: %s\nBuild date: %s\nBuild commit: %s\n",
		a.info.BuildVersion(), a.info.BuildDate(), a.info.BuildCommit())
	return err
}

// Report shows the user-facing message for err.
func (a *App) Report(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, ErrUsage) || errors.Is(err, ErrUnknownResource) {
		a.notify.Error(err.Error())
		return
	}
	a.notify.Error(service.UserMessage(err))
}
