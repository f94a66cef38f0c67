package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hongjun500/feedwatch/internal/bus/redisstream"
	"github.com/hongjun500/feedwatch/internal/config"
	"github.com/hongjun500/feedwatch/internal/directory"
	"github.com/hongjun500/feedwatch/internal/events"
	"github.com/hongjun500/feedwatch/internal/feed"
	"github.com/hongjun500/feedwatch/internal/observe"
	"github.com/hongjun500/feedwatch/internal/subscriber"
	"github.com/hongjun500/feedwatch/internal/transport"
	"github.com/hongjun500/feedwatch/pkg/logger"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		configPath  = pflag.StringP("config", "c", "", "config file (.json, .toml or .yaml)")
		logLevel    = pflag.String("log-level", "", "debug|info|warn|error")
		metricsAddr = pflag.String("metrics-addr", "", "serve /healthz, /readyz and /metrics on this address")
	)
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	logger.SetLevel(cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logger.L().Sugar().Errorw("feedwatch_exit", "err", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.L()
	hub := events.NewHub()
	hub.Log = log
	subscriber.RegisterAll(hub, log)

	g, ctx := errgroup.WithContext(ctx)

	if cfg.RedisAddr != "" {
		bus := redisstream.New(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, 0)
		defer bus.Close()
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := bus.Ping(pctx); err != nil {
			log.Sugar().Warnw("stream_sink_unreachable", "addr", cfg.RedisAddr, "err", err)
		}
		cancel()
		sink := subscriber.NewStreamSink(bus, 256, 2*time.Second, log)
		sink.Register(hub)
		g.Go(func() error { return sink.Run(ctx) })
		log.Sugar().Infow("stream_sink_enabled", "addr", cfg.RedisAddr, "stream", bus.Stream())
	}

	opt := transport.DefaultOptions()
	opt.PingInterval = cfg.PingInterval
	opt.ReadTimeout = cfg.ReadTimeout

	dir := directory.NewClient(cfg.APIURL, cfg.PageSize, cfg.HTTPTimeout)
	dir.Log = log

	sup := feed.NewSupervisor(feed.Config{
		URL:            cfg.WSURL,
		Token:          cfg.Token,
		AcksNeeded:     cfg.AcksNeeded,
		ReconnectDelay: cfg.ReconnectDelay,
	}, transport.NewWSDialer(opt, log), dir, hub, log)

	if cfg.MetricsAddr != "" {
		g.Go(func() error { return observe.ServeHTTP(ctx, cfg.MetricsAddr, sup.Live) })
		log.Sugar().Infow("metrics_listen", "addr", cfg.MetricsAddr)
	}
	g.Go(func() error { return sup.Run(ctx) })

	return g.Wait()
}
