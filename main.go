package main

import (
	"context"
	"errors"
	bidding "live-auction/internal/biddingService"
	"live-auction/internal/broadcast"
	"live-auction/internal/config"
	"live-auction/internal/eventsink"
	"live-auction/internal/lifecycle"
	"live-auction/internal/repository"
	"live-auction/internal/server"
	"live-auction/services/realtime"
	"live-auction/utils"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("failed to load configuration", map[string]any{"error": err.Error()})
	}
	if err := utils.SetLevel(cfg.LogLevel); err != nil {
		utils.Fatal("invalid log level", map[string]any{"error": err.Error()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		utils.Error("server exited with error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	utils.Info("server stopped", nil)
}

func run(ctx context.Context, cfg config.Config) error {
	g, ctx := errgroup.WithContext(ctx)

	var hubOpts []broadcast.HubOption
	var mirror *eventsink.RedisMirror
	if cfg.RedisAddr != "" {
		client := eventsink.NewRedisClient(cfg.RedisAddr)
		defer client.Close()

		mirror = eventsink.NewRedisMirror(client, cfg.RedisChannelPrefix)
		// viewer counts never pass through the store, the hub hands them over itself
		hubOpts = append(hubOpts, broadcast.WithObserver(mirror))
		g.Go(func() error { return mirror.Run(ctx) })
		utils.Info("events mirrored to redis", map[string]any{"addr": cfg.RedisAddr, "prefix": cfg.RedisChannelPrefix})
	}

	hub := broadcast.NewHub(hubOpts...)
	publishers := broadcast.Fanout{hub}
	if mirror != nil {
		publishers = append(publishers, mirror)
	}

	repo := repository.NewMemoryRepo(publishers)
	if cfg.SeedDemoAuctions {
		if _, err := repository.SeedDemoAuctions(repo, time.Now().UTC()); err != nil {
			return err
		}
	}

	biddingSvc := bidding.NewBiddingService(repo,
		bidding.WithBidIncrement(cfg.BidIncrement),
		bidding.WithDefaultExtension(cfg.DefaultExtensionMinutes),
		bidding.WithRecentBidsLimit(cfg.RecentBidsLimit),
	)
	scheduler := lifecycle.NewScheduler(repo, cfg.TickInterval, lifecycle.WithWorkers(cfg.SchedulerWorkers))
	gateway := realtime.NewGateway(hub, repo, cfg.OriginAllowed)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.SetupRouter(biddingSvc, gateway, cfg.OriginAllowed),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error { return scheduler.Run(ctx) })

	g.Go(func() error {
		utils.Info("starting auction server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
