package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/hamed0406/pingboard/internal/config"
	"github.com/hamed0406/pingboard/internal/directory"
	"github.com/hamed0406/pingboard/internal/engine"
	"github.com/hamed0406/pingboard/internal/httpapi"
	apimw "github.com/hamed0406/pingboard/internal/httpapi/middleware"
	"github.com/hamed0406/pingboard/internal/logging"
	"github.com/hamed0406/pingboard/internal/metrics"
	"github.com/hamed0406/pingboard/internal/notify"
	"github.com/hamed0406/pingboard/internal/probe"
	"github.com/hamed0406/pingboard/internal/repo/memory"
	"github.com/hamed0406/pingboard/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(logging.Options{Dir: cfg.LogDir, Level: cfg.LogLevel, Stdout: cfg.LogStdout})
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var prober probe.Prober = probe.NewTCPProber(cfg.ProbePort, cfg.ProbeTimeout)
	if cfg.ICMPEnabled {
		prober = probe.NewFallbackProber(prober, probe.NewICMPProber(cfg.ICMPCount, cfg.ICMPTimeout))
	}
	if cfg.RetryAttempts > 1 {
		prober = &probe.RetryProber{Inner: prober, Attempts: cfg.RetryAttempts, Backoff: cfg.RetryBackoff}
	}

	results := memory.New()
	eng := engine.New(logger, prober, results, engine.Options{
		Stagger:     cfg.SweepStagger(),
		Concurrency: cfg.MaxConcurrentProbes,
		StaleAfter:  cfg.StaleAfter,
		Metrics:     metrics.New(reg),
	})

	var src directory.Source
	if cfg.DirectoryFile != "" {
		src = directory.FileSource{Path: cfg.DirectoryFile}
	} else {
		src = directory.NewSteamSource(cfg.DirectoryURL, 10*time.Second)
	}
	dir := directory.New(logger, src, cfg.DirectoryRefresh)

	notifier := notify.Multi{notify.Log{Logger: logger}}
	if slack := notify.NewSlack(cfg.SlackWebhookURL); slack != nil {
		notifier = append(notifier, slack)
	}

	api := httpapi.NewServer(logger, eng, dir, reg)
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var g run.Group
	{
		g.Add(func() error {
			logger.Info("api_listen", zap.String("addr", cfg.Addr))
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}, func(error) {
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			_ = srv.Shutdown(sctx)
		})
	}
	{
		sweeper := scheduler.NewSweeper(logger, dir, eng, cfg.SweepInterval)
		sctx, scancel := context.WithCancel(ctx)
		g.Add(func() error {
			sweeper.Run(sctx)
			<-sctx.Done()
			return nil
		}, func(error) {
			scancel()
		})
	}
	{
		alerter := scheduler.NewAlerter(logger, results, memory.NewAlerts(), notifier, scheduler.AlerterConfig{
			AlertOnRecovery: cfg.AlertOnRecovery,
			Cooldown:        cfg.AlertCooldown,
			PollInterval:    30 * time.Second,
		})
		actx, acancel := context.WithCancel(ctx)
		g.Add(func() error {
			_ = alerter.Run(actx)
			return nil
		}, func(error) {
			acancel()
		})
	}
	{
		term := make(chan os.Signal, 1)
		signal.Notify(term, os.Interrupt, syscall.SIGTERM)
		stop := make(chan struct{})
		g.Add(func() error {
			select {
			case sig := <-term:
				logger.Warn("shutdown", zap.String("signal", sig.String()))
			case <-stop:
			}
			return nil
		}, func(error) {
			close(stop)
		})
	}

	if err := g.Run(); err != nil {
		logger.Error("api_exit", zap.Error(err))
		os.Exit(1)
	}
}
