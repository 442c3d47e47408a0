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

	"go.uber.org/zap"

	"github.com/hpark-dev/footchess-server/internal/advisory"
	"github.com/hpark-dev/footchess-server/internal/bot"
	appcfg "github.com/hpark-dev/footchess-server/internal/config"
	"github.com/hpark-dev/footchess-server/internal/gateway"
	"github.com/hpark-dev/footchess-server/internal/match"
	"github.com/hpark-dev/footchess-server/internal/obslog"
	"github.com/hpark-dev/footchess-server/internal/render"
	"github.com/hpark-dev/footchess-server/internal/session/redisstore"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = obslog.L().Sync() }()

	store, err := redisstore.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}

	games := match.NewManager(store, match.Config{
		WinningScore:        cfg.WinningScore,
		TurnTimeout:         cfg.TurnTimeout,
		TimeoutScanInterval: cfg.TimeoutScanInterval,
		BotDefaultLevel:     cfg.BotDefaultLevel,
	})

	botOpts := []bot.Option{bot.WithMaxChainedMoves(cfg.BotMaxChainedMoves)}
	if cfg.AdvisoryURL != "" {
		client := advisory.NewClient(cfg.AdvisoryURL, advisory.WithTimeout(cfg.AdvisoryTimeout))
		botOpts = append(botOpts, bot.WithAdvisory(client, cfg.AdvisoryTimeout))
		obslog.L().Info("advisory_enabled", zap.String("url", cfg.AdvisoryURL))
	}
	games.AttachBots(bot.NewExecutor(store, botOpts...))

	var repo *match.Repository
	if cfg.DatabaseURL != "" {
		repo, err = match.NewRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database init error: %v", err)
		}
		games.AttachRepository(repo)
		obslog.L().Info("archive_enabled")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go games.RunTimeoutEnforcer(rootCtx)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           gateway.NewServer(games, store, render.NewSVGBoardRenderer()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		obslog.L().Info("server_listen", zap.String("addr", cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			obslog.L().Fatal("server_error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		obslog.L().Warn("server_shutdown_error", zap.Error(err))
	}
	_ = store.Close()
	if repo != nil {
		_ = repo.Close()
	}
	obslog.L().Info("server_stopped")
}
