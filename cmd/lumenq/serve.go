package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpHandlers "github.com/erickfunier/lumenq/internal/adapters/inbound/http"
	"github.com/erickfunier/lumenq/internal/adapters/outbound/memqueue"
	"github.com/erickfunier/lumenq/internal/adapters/outbound/metrics"
	"github.com/erickfunier/lumenq/internal/application/dispatch"
	appStreetlight "github.com/erickfunier/lumenq/internal/application/streetlight"
	appWorker "github.com/erickfunier/lumenq/internal/application/worker"
	"github.com/erickfunier/lumenq/internal/domain/streetlight"
	"github.com/erickfunier/lumenq/internal/domain/worker"
	"github.com/erickfunier/lumenq/internal/infrastructure/config"
	"github.com/erickfunier/lumenq/internal/infrastructure/logging"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the background worker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}

	var runner *appWorker.Service
	closers := []func(){st.Close}
	defer func() {
		var state workerState
		if runner != nil {
			state = runner
		}
		closeAfterWorker(state, logger, closers...)
	}()

	control, closeControl, err := newControlUnit(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("control unit: %w", err)
	}
	closers = append([]func(){closeControl}, closers...)

	jobs := memqueue.New()
	inMemory := metrics.NewInMemoryMetricsService()
	prom := metrics.NewPrometheusMetricsService(jobs.Len)
	metricsService := metrics.MultiMetricsService{inMemory, prom}

	registry := dispatch.NewRegistry[streetlight.UnitOfWork]()
	appStreetlight.Register(registry, control, cfg.Streetlights.SettleDelay())
	host := dispatch.NewHost(registry, st.Scopes, metricsService, logger)

	workerConfig, err := worker.NewConfig(cfg.Worker.Name, cfg.Worker.DequeueErrorDelay())
	if err != nil {
		return fmt.Errorf("worker config: %w", err)
	}
	runner, err = appWorker.NewService(jobs, host, workerConfig, logger)
	if err != nil {
		return fmt.Errorf("worker: %w", err)
	}

	service := appStreetlight.NewService(st.Streetlights, jobs, metricsService)
	router := httpHandlers.NewRouter(
		httpHandlers.NewStreetlightHandlers(service),
		httpHandlers.NewSystemHandlers(runner, inMemory, jobs),
		prom.Handler(),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(ctx, "HTTP server listening",
			slog.String("addr", srv.Addr),
			slog.String("driver", cfg.Database.Driver),
		)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(srv, runner, jobs, cfg.Worker.ShutdownTimeout(), logger)
	})

	return g.Wait()
}

// shutdown stops intake first, then the worker, then discards what is left.
// A timeout of zero waits for the in-flight job however long it takes.
func shutdown(srv *http.Server, runner *appWorker.Service, jobs *memqueue.Queue, timeout time.Duration, logger *slog.Logger) error {
	logger.Info("Shutting down", slog.Duration("timeout", timeout))

	ctx, cancel := shutdownContext(timeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := runner.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("worker stop: %w", err))
	}

	if dropped := jobs.Close(); dropped > 0 {
		logger.Warn("Discarded queued jobs on shutdown", slog.Int("dropped", dropped))
	}
	logger.Info("Shutdown complete")
	return errors.Join(errs...)
}

func shutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

type workerState interface {
	State() worker.State
}

// closeAfterWorker runs closers once the worker loop has exited. A worker
// still stopping after a shutdown timeout may be using them, so they are left
// for process exit.
func closeAfterWorker(runner workerState, logger *slog.Logger, closers ...func()) {
	if runner != nil {
		if state := runner.State(); state != worker.StateStopped {
			logger.Warn("Worker still stopping, leaving store and control unit open",
				slog.String("workerState", string(state)),
			)
			return
		}
	}
	for _, closeFn := range closers {
		closeFn()
	}
}
