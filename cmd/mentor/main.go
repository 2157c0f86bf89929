package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/mentor-avatar/internal/adapters/http"
	"github.com/dkeye/mentor-avatar/internal/adapters/media"
	"github.com/dkeye/mentor-avatar/internal/adapters/relayclient"
	"github.com/dkeye/mentor-avatar/internal/adapters/rtc"
	uisignal "github.com/dkeye/mentor-avatar/internal/adapters/signal"
	"github.com/dkeye/mentor-avatar/internal/app/coord"
	"github.com/dkeye/mentor-avatar/internal/app/orch"
	"github.com/dkeye/mentor-avatar/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

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

	api, err := rtc.NewAPI(rtc.APIOptions{LogLevel: zerolog.WarnLevel})
	if err != nil {
		log.Fatal().Err(err).Msg("webrtc api")
	}

	views := orch.Views{}
	if cfg.Client.Console {
		views = append(views, orch.NewConsoleView(os.Stdout))
	}
	var hub *uisignal.Hub
	if cfg.Client.UIPort > 0 {
		hub = uisignal.NewHub(uisignal.SimplePolicy{})
		views = append(views, hub)
	}

	o := orch.New(nil, orch.NewCannedResponder(), views,
		orch.WithWelcome(cfg.Client.WelcomeMessage),
		orch.WithTeardownTimeout(cfg.Client.ShutdownTimeout),
	)
	c := coord.New(relayclient.New(cfg.Client.RelayURL, cfg.Client.Timeout), o,
		coord.WithMediaFactory(rtc.Factory(api)),
		coord.WithSurface(media.NewRecorder(cfg.Client.RecordPath)),
	)
	o.Bind(c)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return o.Run(gctx) })

	if cfg.Client.Console {
		lines := readLines(os.Stdin)
		g.Go(func() error { return console(gctx, o, lines, cancel) })
	}

	if hub != nil {
		limiter := uisignal.NewRateLimiter(cfg.Client.ConnectLimit, cfg.Client.ConnectInterval)
		ctrl := uisignal.NewSignalWSController(o, hub, limiter)
		ctrl.DisconnectWhenEmpty = !cfg.Client.Console
		addr := fmt.Sprintf(":%d", cfg.Client.UIPort)
		srv := &http.Server{
			Addr:              addr,
			Handler:           router.SetupUIRouter(gctx, cfg, ctrl),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			log.Info().Str("addr", addr).Msg("ui server started")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	log.Info().Str("relay", cfg.Client.RelayURL).Msg("mentor client ready, type /connect to start")
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("mentor client stopped")
		os.Exit(1)
	}
	log.Info().Msg("mentor client exited")
}

// readLines feeds stdin lines to a channel. The goroutine is left behind on
// exit since a blocked read cannot be cancelled.
func readLines(r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			out <- sc.Text()
		}
	}()
	return out
}

func console(ctx context.Context, o *orch.Orchestrator, lines <-chan string, quit context.CancelFunc) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				quit()
				return nil
			}
			runCommand(ctx, o, strings.TrimSpace(line), quit)
		}
	}
}

func runCommand(ctx context.Context, o *orch.Orchestrator, line string, quit context.CancelFunc) {
	switch line {
	case "":
	case "/connect":
		_ = o.Connect(ctx)
	case "/disconnect":
		o.Disconnect(ctx)
	case "/interrupt":
		o.Interrupt(ctx)
	case "/quit", "/exit":
		quit()
	default:
		if strings.HasPrefix(line, "/") {
			log.Warn().Str("command", line).Msg("unknown command")
			return
		}
		_ = o.Send(ctx, line)
	}
}
