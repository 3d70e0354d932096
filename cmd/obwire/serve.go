package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anirudhraja/orderwire/transport"
)

func runServe(e *env, args []string) error {
	fs, common := newFlagSet(e, "serve")
	listen := fs.String("listen", "", "gRPC listen address")
	metricsListen := fs.String("metrics-listen", "", "Prometheus /metrics listen address, empty disables")
	if err := e.parse(fs, common, args); err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			e.cfg.Listen = *listen
		case "metrics-listen":
			e.cfg.MetricsListen = *metricsListen
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, e)
}

// serve runs until ctx is done, then stops the server gracefully
func serve(ctx context.Context, e *env) error {
	lis, err := net.Listen("tcp", e.cfg.Listen)
	if err != nil {
		return err
	}
	return serveListener(ctx, e, lis)
}

// serveListener serves on lis until ctx is done or the server fails. Either
// way the metrics server is closed before it returns.
func serveListener(ctx context.Context, e *env, lis net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := transport.NewMetrics(reg)
	server := transport.NewServer(transport.NewMemoryBook(), e.logger, metrics)

	var metricsServer *http.Server
	if e.cfg.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsServer = &http.Server{Addr: e.cfg.MetricsListen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				e.logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		e.logger.Info().Str("addr", e.cfg.MetricsListen).Msg("metrics listening")
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		e.logger.Info().Msg("shutting down")
		server.GracefulStop()
		if metricsServer != nil {
			_ = metricsServer.Close()
		}
	}()

	e.logger.Info().Str("addr", lis.Addr().String()).Str("service", transport.ServiceName).Msg("order book server listening")
	err := server.Serve(lis)
	cancel()
	<-stopped
	return err
}
