package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/okian/fanpulse/internal/adapters/eventsource"
	"github.com/okian/fanpulse/internal/adapters/http/api"
	service "github.com/okian/fanpulse/internal/app"
	"github.com/okian/fanpulse/internal/config"
	"github.com/okian/fanpulse/internal/domain/congestion"
	"github.com/okian/fanpulse/internal/domain/model"
	"github.com/okian/fanpulse/pkg/logger"
	"github.com/okian/fanpulse/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fanpulse",
		Short:        "Event temporal state and crowd impact engine",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(evaluateCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithLevel(cfg.LogLevel)); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			defer func() { _ = logger.Sync() }()
			return runServe(ctx, cfg)
		},
	}
}

type evaluateOptions struct {
	eventsPath  string
	date        string
	now         string
	lat, lng    float64
	anchored    bool
	region      string
	city        string
	competition string
}

func evaluateCmd() *cobra.Command {
	var opts evaluateOptions
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Print a JSON report for one date from a feed file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := logger.Init(
				logger.WithFormat(cfg.LogFormat),
				logger.WithLevel(cfg.LogLevel),
				logger.WithWriter(cmd.ErrOrStderr()),
			); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			opts.anchored = cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng")
			return runEvaluate(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.eventsPath, "events", "", "JSON feed file")
	cmd.Flags().StringVar(&opts.date, "date", "", "Local date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.now, "now", "", "Evaluation instant, RFC3339 (default current time)")
	cmd.Flags().Float64Var(&opts.lat, "lat", 0, "Risk anchor latitude")
	cmd.Flags().Float64Var(&opts.lng, "lng", 0, "Risk anchor longitude")
	cmd.Flags().StringVar(&opts.region, "region", "", "Region filter")
	cmd.Flags().StringVar(&opts.city, "city", "", "City filter")
	cmd.Flags().StringVar(&opts.competition, "competition", "", "Competition filter")
	_ = cmd.MarkFlagRequired("events")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	eval, err := buildEvaluator(cfg)
	if err != nil {
		return err
	}
	sources, err := buildSources(ctx, cfg)
	if err != nil {
		return err
	}

	svc, err := service.New(
		service.WithLogger(log.Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.EventQueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithEvaluator(eval),
		service.WithSources(sources...),
	)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		_ = svc.Stop(context.WithoutCancel(ctx))
		return fmt.Errorf("failed to start service: %w", err)
	}

	go startServiceMetricsUpdater(ctx, svc)

	apiServer := api.NewServer(svc, svc,
		api.WithCORSOrigins(cfg.CORSOrigins),
		api.WithRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow()),
		api.WithLogger(log.Named("api")),
	)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Router(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return serveErr
}

func runEvaluate(ctx context.Context, cfg *config.Config, opts evaluateOptions, out io.Writer) error {
	if opts.eventsPath == "" {
		return errors.New("--events is required")
	}
	eval, err := buildEvaluator(cfg)
	if err != nil {
		return err
	}
	events, err := eventsource.NewFileSource(opts.eventsPath).Load(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	if opts.now != "" {
		if now, err = time.Parse(time.RFC3339, opts.now); err != nil {
			return fmt.Errorf("invalid --now %q: %w", opts.now, err)
		}
	}
	scope := model.Scope{Date: opts.date, Region: opts.region, City: opts.city, Competition: opts.competition}
	if scope.Date == "" {
		scope.Date = eval.DateKey(scope.Region, now)
	}
	var anchor *model.Location
	if opts.anchored {
		anchor = &model.Location{Lat: opts.lat, Lng: opts.lng}
	}

	report, err := eval.Report(events, scope, now, anchor)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// buildEvaluator maps configuration onto the engine.
func buildEvaluator(cfg *config.Config) (*service.Evaluator, error) {
	return service.NewEvaluator(
		service.WithLocation(cfg.Location()),
		service.WithRegionLocations(cfg.RegionLocations()),
		service.WithDurationOverrides(cfg.DurationOverrides()),
		service.WithSoonWindowOverrides(cfg.SoonWindowOverrides()),
		service.WithBucketWindow(cfg.BucketWindow()),
		service.WithCongestionThresholds(
			congestion.Thresholds{High: cfg.CongestionHighThreshold, Moderate: cfg.CongestionModerateThreshold},
			congestion.Thresholds{High: cfg.LeagueHighThreshold, Moderate: cfg.CongestionModerateThreshold},
		),
		service.WithRiskOverlapWindow(cfg.RiskOverlapWindow()),
		service.WithRiskRadiusKm(cfg.RiskRadiusKm),
	)
}

// buildSources opens the configured startup feeds.
func buildSources(ctx context.Context, cfg *config.Config) ([]eventsource.Source, error) {
	var sources []eventsource.Source
	if cfg.EventsFile != "" {
		sources = append(sources, eventsource.NewFileSource(cfg.EventsFile))
	}
	if cfg.DatabaseURL != "" {
		pg, err := eventsource.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		sources = append(sources, pg)
	}
	return sources, nil
}

// startServiceMetricsUpdater refreshes service gauges until ctx ends.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(ctx context.Context, svc *service.Service) {
	stats := svc.GetStats(ctx)
	if workerCount, ok := stats["workerCount"].(int); ok && stats["started"] == true {
		metrics.UpdateWorkerCount(workerCount)
	}
}
