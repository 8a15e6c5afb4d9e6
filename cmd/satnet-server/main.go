// Command satnet-server serves GPSS program generation over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/satnet-designer/codegen"
	"github.com/signalsfoundry/satnet-designer/internal/config"
	"github.com/signalsfoundry/satnet-designer/internal/httpapi"
	"github.com/signalsfoundry/satnet-designer/internal/logging"
	"github.com/signalsfoundry/satnet-designer/internal/observability"
)

func main() {
	configPath := flag.String("config", os.Getenv("SATNET_CONFIG"), "path to a YAML config file")
	httpAddr := flag.String("http-addr", "", "HTTP listen address (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "separate HTTP address for Prometheus /metrics (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "satnet-server: %v\n", err)
		os.Exit(2)
	}
	if *httpAddr != "" {
		cfg.HTTP.Addr = *httpAddr
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	log := cfg.Logger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		log.Error(ctx, "failed to listen", logging.String("addr", cfg.HTTP.Addr), logging.Err(err))
		os.Exit(1)
	}
	if err := run(ctx, cfg, log, lis); err != nil {
		log.Error(ctx, "server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves on lis until ctx is cancelled, then drains in-flight
// requests within the configured shutdown timeout.
func run(ctx context.Context, cfg config.Config, log logging.Logger, lis net.Listener) error {
	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewCollector(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	metricsSrv := serveMetrics(cfg.Metrics.Addr, collector, log)

	gen := codegen.New(
		codegen.WithLogger(log),
		codegen.WithDurationObserver(collector.ObserveCodegen),
	)
	api := httpapi.NewServer(
		httpapi.WithGenerator(gen),
		httpapi.WithCollector(collector),
		httpapi.WithLogger(log),
		httpapi.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes),
		httpapi.WithDefaultEncoding(cfg.Codegen.Encoding),
		httpapi.WithGenerationInfo(cfg.Codegen.IncludeGenerationInfo),
	)
	srv := &http.Server{
		Handler:      api,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting GPSS HTTP server", logging.String("addr", lis.Addr().String()))
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down GPSS HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// serveMetrics exposes /metrics on a dedicated listener. The main router
// serves it too, so an empty addr simply skips the extra listener.
func serveMetrics(addr string, collector *observability.Collector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
