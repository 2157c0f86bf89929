package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/mentor-avatar/internal/adapters/http"
	"github.com/dkeye/mentor-avatar/internal/config"
	"github.com/dkeye/mentor-avatar/internal/provider"
	"github.com/dkeye/mentor-avatar/internal/relay"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	logBanner(cfg)

	gw, err := provider.NewGateway(cfg.HeyGen)
	if err != nil {
		log.Fatal().Err(err).Msg("refusing to start: provider configuration incomplete")
	}

	r := router.SetupRouter(cfg, relay.New(gw))
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("relay server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

func logBanner(cfg *config.Config) {
	log.Info().
		Str("service", cfg.ServiceName).
		Str("api_key", setOrMissing(cfg.HeyGen.APIKey != "")).
		Str("avatar_id", orMissing(cfg.HeyGen.AvatarID)).
		Str("voice_id", orMissing(cfg.HeyGen.VoiceID)).
		Str("base_url", cfg.HeyGen.BaseURL).
		Msg("provider configuration")
}

func setOrMissing(ok bool) string {
	if ok {
		return "set"
	}
	return "missing"
}

func orMissing(v string) string {
	if v == "" {
		return "missing"
	}
	return v
}
