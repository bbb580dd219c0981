package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kirillkom/gst-reconcile-client/internal/config"
	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
	"github.com/kirillkom/gst-reconcile-client/internal/core/ports"
	"github.com/kirillkom/gst-reconcile-client/internal/core/usecase"
	"github.com/kirillkom/gst-reconcile-client/internal/infrastructure/backend"
	"github.com/kirillkom/gst-reconcile-client/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/gst-reconcile-client/internal/infrastructure/extractor/pdfreport"
	"github.com/kirillkom/gst-reconcile-client/internal/infrastructure/queue/nats"
	"github.com/kirillkom/gst-reconcile-client/internal/infrastructure/render/terminal"
	"github.com/kirillkom/gst-reconcile-client/internal/infrastructure/resilience"
	"github.com/kirillkom/gst-reconcile-client/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/gst-reconcile-client/internal/observability/metrics"
)

const ServiceName = "gst-reconcile-client"

type Options struct {
	// Out receives the rendered session; nil means stdout.
	Out    io.Writer
	Logger *slog.Logger
}

type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Metrics   *metrics.ClientMetrics
	Tenant    domain.TenantContext
	SessionID string

	Session       *usecase.SessionController
	PDFExport     *usecase.PDFExportTask
	Reports       *usecase.ReportViewerUseCase
	ResultsExport *usecase.ResultsExportUseCase

	// Events is nil unless NATS_URL is configured.
	Events *nats.Publisher

	closeFn func()
}

func New(_ context.Context, cfg config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tenant, err := domain.NewTenantContext(cfg.TenantID, cfg.Plan)
	if err != nil {
		return nil, err
	}
	policy, err := domain.ParseUploadPolicy(cfg.UploadPolicy)
	if err != nil {
		return nil, err
	}
	sessionID := uuid.NewString()
	logger = logger.With("session_id", sessionID)

	clientMetrics := metrics.NewClientMetrics(ServiceName)
	executor := resilience.NewExecutor(resilience.Config{
		OperationTimeout:        time.Duration(cfg.BackendTimeoutSeconds) * time.Second,
		BreakerEnabled:          cfg.BreakerEnabled,
		BreakerMinRequests:      uint32(max(cfg.BreakerMinRequests, 0)),
		BreakerFailureRatio:     cfg.BreakerFailureRatio,
		BreakerOpenTimeout:      time.Duration(cfg.BreakerOpenTimeoutSeconds) * time.Second,
		BreakerHalfOpenMaxCalls: uint32(max(cfg.BreakerHalfOpenMaxCalls, 0)),
	}, resilience.WithStateObserver(clientMetrics.ObserveBreakerState), resilience.WithLogger(logger))

	var limiter *rate.Limiter
	if cfg.BackendRateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.BackendRateLimitRPS), max(cfg.BackendRateLimitBurst, 1))
	}
	var validator *backend.ContractValidator
	if cfg.BackendContractStrict {
		validator, err = backend.NewContractValidator()
		if err != nil {
			return nil, fmt.Errorf("init contract validator: %w", err)
		}
	}

	client, err := backend.New(cfg.BackendURL, backend.Options{
		Executor:  executor,
		Limiter:   limiter,
		Validator: validator,
		Observer:  clientMetrics,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init backend client: %w", err)
	}

	downloads, err := localfs.New(cfg.DownloadDir)
	if err != nil {
		return nil, fmt.Errorf("init download storage: %w", err)
	}
	spool, err := localfs.NewSpool(cfg.SpoolDir)
	if err != nil {
		return nil, fmt.Errorf("init spool: %w", err)
	}
	renderer := terminal.New(opts.Out, downloads, logger)

	var (
		publisher ports.SessionEventPublisher
		events    *nats.Publisher
	)
	if cfg.NATSURL != "" {
		events, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.Config{
				OperationTimeout: 2 * time.Second,
				BreakerEnabled:   true,
			}, resilience.WithLogger(logger)),
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		publisher = events
	}

	var inspector ports.ReportInspector
	if cfg.PDFVerify {
		inspector = pdfreport.NewInspector()
	}

	session := usecase.NewSessionController(client, renderer, tenant, usecase.SessionOptions{
		SessionID:    sessionID,
		Policy:       policy,
		DisplayLimit: cfg.DisplayLimit,
		Publisher:    publisher,
		Metrics:      clientMetrics,
		Logger:       logger,
	})
	pdfExport := usecase.NewPDFExportTask(client, renderer, spool, tenant, usecase.PDFExportOptions{
		SessionID: sessionID,
		Inspector: inspector,
		Publisher: publisher,
		Metrics:   clientMetrics,
		Logger:    logger,
	})
	reports := usecase.NewReportViewerUseCase(client, renderer, tenant, usecase.ReportViewerOptions{
		SessionID:    sessionID,
		DisplayLimit: cfg.DisplayLimit,
		Publisher:    publisher,
		Logger:       logger,
	})
	resultsExport := usecase.NewResultsExportUseCase(session, xlsx.NewWriter(logger), clientMetrics)

	logger.Info("client_ready",
		"tenant", tenant.ShortID(),
		"plan", tenant.Plan(),
		"backend_url", cfg.BackendURL,
		"upload_policy", string(policy),
		"events", events != nil,
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   clientMetrics,
		Tenant:    tenant,
		SessionID: sessionID,

		Session:       session,
		PDFExport:     pdfExport,
		Reports:       reports,
		ResultsExport: resultsExport,
		Events:        events,

		closeFn: func() {
			if events != nil {
				events.Close()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
