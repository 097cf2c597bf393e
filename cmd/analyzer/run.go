package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/speakwell/analysis-pipeline/internal/config"
	"github.com/speakwell/analysis-pipeline/internal/events"
	"github.com/speakwell/analysis-pipeline/internal/jobs"
	"github.com/speakwell/analysis-pipeline/internal/pipeline"
	"github.com/speakwell/analysis-pipeline/internal/server"
	"github.com/speakwell/analysis-pipeline/internal/service"
	"github.com/speakwell/analysis-pipeline/internal/storage"
	"github.com/speakwell/analysis-pipeline/internal/store"
	"github.com/speakwell/analysis-pipeline/pkg/metrics"
)

const queueStopTimeout = 30 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the analysis workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, teardown := setup()
		defer teardown()

		zap.S().Info("Starting analysis worker")
		defer zap.S().Info("Analysis worker stopped")
		zap.S().Infof("Using config: %s", cfg)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		prometheus.MustRegister(metrics.NewTaskStatusCollector(a.store))

		listener, err := net.Listen("tcp", cfg.Service.MetricsAddress)
		if err != nil {
			return fmt.Errorf("creating metrics listener: %w", err)
		}

		if err := a.queue.Start(ctx); err != nil {
			return fmt.Errorf("failed to start job queue: %w", err)
		}
		zap.S().Named("analyzer").Infow("job queue started", "max_workers", cfg.Queue.MaxWorkers)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.NewMetricServer(cfg.Service.MetricsAddress, listener).Run(gctx)
		})
		if cfg.Queue.StuckCheckInterval > 0 {
			monitor := service.NewStuckMonitor(a.service, cfg.Queue.StuckCheckInterval, cfg.Queue.StuckAfter)
			g.Go(func() error {
				return monitor.Run(gctx)
			})
		}
		g.Go(func() error {
			<-gctx.Done()
			stopCtx, stopCancel := context.WithTimeout(context.Background(), queueStopTimeout)
			defer stopCancel()
			return a.queue.Stop(stopCtx)
		})

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

// app holds the wired dependencies shared by the commands that touch the queue.
type app struct {
	store    store.Store
	queue    *jobs.Client
	service  *service.AnalysisService
	producer *events.EventProducer
	close    []func()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if cfg.Database.Type != "pgsql" {
		return nil, fmt.Errorf("the job queue requires postgres, got database type %q", cfg.Database.Type)
	}

	a := &app{}

	db, err := store.InitDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing data store: %w", err)
	}
	a.store = store.NewStore(db)
	a.close = append(a.close, func() { _ = a.store.Close() })

	pool, err := jobs.NewPool(ctx, store.PostgresDSN(cfg))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.close = append(a.close, pool.Close)

	issuer, err := storage.NewMinioIssuer(
		storage.WithEndpoint(cfg.S3.Endpoint),
		storage.WithBucket(cfg.S3.RecordingsBucket),
		storage.WithAccessKey(cfg.S3.AccessKey),
		storage.WithSecretKey(cfg.S3.SecretKey),
		storage.WithRegion(cfg.S3.Region),
		storage.WithSSL(cfg.S3.UseSSL),
		storage.WithExpiry(cfg.S3.PresignExpiry),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating recordings storage: %w", err)
	}

	a.producer = events.NewEventProducer(&events.StdoutWriter{}, events.WithOutputTopic(cfg.Service.EventsTopic))
	a.close = append(a.close, func() { _ = a.producer.Close() })

	httpClient := &http.Client{Timeout: cfg.Queue.JobTimeout}
	a.service = service.NewAnalysisService(
		a.store,
		pipeline.NewSelector(config.LoadProviders, httpClient),
		issuer,
		service.WithEventWriter(a.producer),
		service.WithVisibilityTimeout(cfg.Queue.RescueAfter),
	)

	sqlDB, err := db.DB()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening database handle: %w", err)
	}

	a.queue, err = jobs.NewClient(pool, sqlDB, a.service, jobs.Config{
		MaxWorkers:  cfg.Queue.MaxWorkers,
		MaxAttempts: cfg.Queue.MaxAttempts,
		JobTimeout:  cfg.Queue.JobTimeout,
		RescueAfter: cfg.Queue.RescueAfter,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create job queue client: %w", err)
	}
	a.service.SetEnqueuer(a.queue)

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.close) - 1; i >= 0; i-- {
		a.close[i]()
	}
	a.close = nil
}
