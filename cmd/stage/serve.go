package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/KirkDiggler/bot-stage/internal/config"
	stagehttp "github.com/KirkDiggler/bot-stage/internal/handlers/http"
	"github.com/KirkDiggler/bot-stage/internal/placement"
	"github.com/KirkDiggler/bot-stage/internal/services"
	"github.com/KirkDiggler/bot-stage/internal/services/roster"
	"github.com/KirkDiggler/bot-stage/internal/services/stage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the stage headless with the debug HTTP server",
	Long:  `Loads the base character, optionally applies a roster snapshot, then drives the frame clock and serves stage state over HTTP until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshotPath, _ := cmd.Flags().GetString("snapshot")
		addr, _ := cmd.Flags().GetString("addr")
		return runServe(cmd.Context(), snapshotPath, addr)
	},
}

func init() {
	serveCmd.Flags().String("snapshot", "", "YAML roster snapshot applied at startup")
	serveCmd.Flags().String("addr", "", "HTTP listen address (overrides STAGE_HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, snapshotPath, addr string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log)

	if addr == "" {
		addr = cfg.HTTP.Addr
	}

	layout := placement.DefaultLayout()
	if cfg.Layout.File != "" {
		layout, err = placement.LoadLayout(cfg.Layout.File)
		if err != nil {
			return err
		}
		logger.Info("loaded layout", "file", cfg.Layout.File, "slots", len(layout.Slots))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	providerConfig := &services.ProviderConfig{
		Config:   cfg,
		Layout:   layout,
		Registry: reg,
		Scene:    stage.NoopScene{},
		Logger:   logger,
	}

	provider, err := services.NewProvider(providerConfig)
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	pingErr := provider.Ping(pingCtx)
	cancel()
	if pingErr != nil {
		logger.Warn("redis unreachable, falling back to in-memory model cache", "error", pingErr)
		_ = provider.Close()

		// a fresh registry, since the first provider already registered its collectors
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		providerConfig.Registry = reg
		cfg.Redis.URL = ""

		provider, err = services.NewProvider(providerConfig)
		if err != nil {
			return err
		}
	}
	defer func() {
		if err := provider.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}()

	if err := provider.ProvisioningService.LoadBaseTemplate(ctx); err != nil {
		logger.Warn("base character unavailable, using procedural figures", "error", err)
	}

	if snapshotPath != "" {
		snap, err := roster.LoadSnapshot(snapshotPath)
		if err != nil {
			return err
		}
		if err := provider.RosterService.Apply(ctx, snap); err != nil {
			return err
		}
		logger.Info("applied roster snapshot", "file", snapshotPath, "slots", len(snap.Slots))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr: addr,
		Handler: stagehttp.NewHandler(&stagehttp.ServerConfig{
			Stage:        provider.StageService,
			Roster:       provider.RosterService,
			Provisioning: provider.ProvisioningService,
			Gatherer:     reg,
			Logger:       logger.With("component", "http"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go runClock(ctx, provider.StageService, cfg.HTTP.TickRate)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// runClock drives the stage at rate ticks per second until ctx ends
func runClock(ctx context.Context, svc stage.Service, rate int) {
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	start := time.Now()
	last := start
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			svc.Tick(now.Sub(last).Seconds(), now.Sub(start).Seconds())
			last = now
		}
	}
}
