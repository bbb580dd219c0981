package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kirillkom/gst-reconcile-client/internal/adapters/cli"
	httpadapter "github.com/kirillkom/gst-reconcile-client/internal/adapters/http"
	"github.com/kirillkom/gst-reconcile-client/internal/bootstrap"
	"github.com/kirillkom/gst-reconcile-client/internal/config"
	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
	"github.com/kirillkom/gst-reconcile-client/internal/observability/logging"
)

const usage = `usage: reconcile <command> [flags]

commands:
  upload [-xlsx out.xlsx] <file>   reconcile one invoice file
  report                           show the tenant risk report
  pdf                              download the tenant risk report as PDF
  session                          interactive session (ops server on OPS_PORT)
  audit                            print session events from NATS`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}
	logger := logging.NewJSONLogger(os.Stderr, bootstrap.ServiceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Out: os.Stdout, Logger: logger})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	command, args := os.Args[1], os.Args[2:]
	switch command {
	case "upload":
		err = runUpload(ctx, app, args)
	case "report":
		err = app.Reports.Show(ctx)
	case "pdf":
		err = app.PDFExport.Export(ctx)
	case "session":
		err = runSession(ctx, app)
	case "audit":
		err = runAudit(ctx, app)
	default:
		fmt.Fprintln(os.Stderr, usage)
		stop()
		app.Close()
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Debug("command_failed", "command", command, "error", err)
		stop()
		app.Close()
		os.Exit(1)
	}
}

func runUpload(ctx context.Context, app *bootstrap.App, args []string) error {
	flags := flag.NewFlagSet("upload", flag.ContinueOnError)
	xlsxPath := flags.String("xlsx", "", "also write the results to this spreadsheet")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("upload: expected exactly one file, got %d", flags.NArg())
	}

	path := flags.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read %s: %v\n", path, err)
		return err
	}
	err = app.Session.Trigger(ctx, &domain.InvoiceFile{
		Name:        filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Data:        data,
	})
	if err != nil || *xlsxPath == "" {
		return err
	}

	out, err := os.Create(*xlsxPath)
	if err != nil {
		return err
	}
	err = app.ResultsExport.Export(ctx, out)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		fmt.Fprintf(os.Stdout, "Wrote results to %s\n", *xlsxPath)
	}
	return err
}

func runSession(ctx context.Context, app *bootstrap.App) error {
	if app.Config.OpsPort != "" {
		router := httpadapter.NewRouter(app.Session, app.ResultsExport, httpadapter.RouterOptions{
			Metrics:    app.Metrics.Handler(),
			Middleware: app.Metrics.Middleware,
			Logger:     app.Logger,
		}).Handler()
		server := &http.Server{
			Addr:         ":" + app.Config.OpsPort,
			Handler:      router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			app.Logger.Info("ops_listening", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				app.Logger.Error("ops_server_failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				app.Logger.Warn("ops_shutdown_failed", "error", err)
			}
		}()
	}

	shell := cli.NewShell(app.Session, app.PDFExport, app.Reports, app.ResultsExport, cli.Options{
		Out:    os.Stdout,
		Logger: app.Logger,
	})
	return shell.Run(ctx, os.Stdin)
}

func runAudit(ctx context.Context, app *bootstrap.App) error {
	if app.Events == nil {
		return fmt.Errorf("audit: NATS_URL is not configured")
	}
	encoder := json.NewEncoder(os.Stdout)
	return app.Events.SubscribeSessionEvents(ctx, func(_ context.Context, event domain.SessionEvent) error {
		return encoder.Encode(event)
	})
}
