package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/pocketcal/internal/backup"
	"github.com/dukerupert/pocketcal/internal/config"
	"github.com/dukerupert/pocketcal/internal/database"
	"github.com/dukerupert/pocketcal/internal/dateutil"
	"github.com/dukerupert/pocketcal/internal/kv"
	"github.com/dukerupert/pocketcal/internal/logging"
	"github.com/dukerupert/pocketcal/internal/middleware"
	"github.com/dukerupert/pocketcal/internal/model"
	"github.com/dukerupert/pocketcal/internal/render"
	"github.com/dukerupert/pocketcal/internal/server"
	"github.com/dukerupert/pocketcal/internal/storage"
	"github.com/dukerupert/pocketcal/internal/store"
	"github.com/dukerupert/pocketcal/internal/theme"
	"github.com/dukerupert/pocketcal/internal/view"
)

const usage = `usage: pocketcal [-config file] <command> [flags]

commands:
  serve     run the HTTP API (default)
  month     print a month as a grid or list
  backup    write an encrypted backup file
  restore   replace all events from an encrypted backup file
  clear     delete every event (requires -yes)
`

// app holds the components every command needs.
type app struct {
	cfg    config.Config
	db     *sql.DB
	kv     kv.Store
	events *store.EventStore
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "pocketcal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	global := flag.NewFlagSet("pocketcal", flag.ContinueOnError)
	global.Usage = func() { fmt.Fprint(global.Output(), usage) }
	configPath := global.String("config", "", "path to YAML config file")
	if err := global.Parse(args); err != nil {
		return err
	}

	cmd, rest := "serve", global.Args()
	if len(rest) > 0 {
		cmd, rest = rest[0], rest[1:]
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	a, err := open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.db.Close()

	switch cmd {
	case "serve":
		return a.serve(ctx)
	case "month":
		return a.month(rest, stdout)
	case "backup":
		return a.backup(ctx, rest, stdout)
	case "restore":
		return a.restore(ctx, rest, stdout)
	case "clear":
		return a.clear(ctx, rest, stdout)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	kvStore := kv.NewSQLite(db, cfg.StorageQuotaBytes)
	adapter := storage.NewAdapter(kvStore, logger.With("component", "storage"))
	events := store.NewEventStore(ctx, adapter, logger.With("component", "store"))

	return &app{
		cfg:    cfg,
		db:     db,
		kv:     kvStore,
		events: events,
		logger: logger,
	}, nil
}

func (a *app) serve(ctx context.Context) error {
	pref := theme.Load(ctx, a.kv, a.logger.With("component", "theme"))
	proxies, err := middleware.ParseTrustedProxies(a.cfg.TrustedProxies)
	if err != nil {
		return err
	}
	srv := server.New(a.events, pref, server.Options{TrustedProxies: proxies}, a.logger)
	defer srv.Close()

	cleanupCtx, cancelCleanup := context.WithCancel(ctx)
	defer cancelCleanup()
	go srv.RateLimiter().Run(cleanupCtx, 5*time.Minute)

	httpServer := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("pocketcal running", "addr", "http://localhost:"+a.cfg.Port, "db", a.cfg.DBPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *app) month(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("month", flag.ContinueOnError)
	monthFlag := fs.String("month", "", "month to show as YYYY-MM (default: current month)")
	list := fs.Bool("list", false, "print the list view instead of the grid")
	offset := fs.Int("offset", 0, "months to move from -month, e.g. -1 for the previous month")
	if err := fs.Parse(args); err != nil {
		return err
	}

	clock := dateutil.SystemClock{}
	ref := dateutil.StartOfMonth(clock.Now())
	if *monthFlag != "" {
		var err error
		if ref, err = dateutil.ParseMonth(*monthFlag, time.Local); err != nil {
			return err
		}
	}

	v := model.CalendarView{Mode: model.ViewGrid, ReferenceDate: dateutil.AddMonths(ref, *offset)}
	if *list {
		v.Mode = model.ViewList
	}
	return render.Page(stdout, view.Build(v, a.events.All(), clock))
}

func (a *app) backup(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	out := fs.String("out", "pocketcal.bak", "file to write")
	pass := fs.String("passphrase", os.Getenv("POCKETCAL_BACKUP_PASSPHRASE"), "encryption passphrase")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m := backup.NewManager(a.events, a.logger.With("component", "backup"))
	if err := m.WriteFile(ctx, *out, *pass); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %d events to %s\n", len(a.events.All()), *out)
	return nil
}

func (a *app) restore(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	in := fs.String("in", "pocketcal.bak", "backup file to read")
	pass := fs.String("passphrase", os.Getenv("POCKETCAL_BACKUP_PASSPHRASE"), "encryption passphrase")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m := backup.NewManager(a.events, a.logger.With("component", "backup"))
	n, err := m.RestoreFile(ctx, *in, *pass)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "restored %d events from %s\n", n, *in)
	return nil
}

func (a *app) clear(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "confirm deleting every event")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("clear deletes every event; rerun with -yes to confirm")
	}

	n := len(a.events.All())
	a.events.Reset(ctx)
	fmt.Fprintf(stdout, "deleted %d events\n", n)
	return nil
}
