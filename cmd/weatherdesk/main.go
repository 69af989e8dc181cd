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

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/williamchen0301-sh/my-weather-portfolio/internal/client"
	"github.com/williamchen0301-sh/my-weather-portfolio/internal/config"
	httphandler "github.com/williamchen0301-sh/my-weather-portfolio/internal/http"
	"github.com/williamchen0301-sh/my-weather-portfolio/internal/lifecycle"
	"github.com/williamchen0301-sh/my-weather-portfolio/internal/observability"
	"github.com/williamchen0301-sh/my-weather-portfolio/internal/service"
	"github.com/williamchen0301-sh/my-weather-portfolio/internal/terminal"
	"github.com/williamchen0301-sh/my-weather-portfolio/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := config.ApplyFlags(cfg, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "flags: %v\n", err)
		os.Exit(2)
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogOutput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	weatherClient, err := client.NewWeatherstackClient(cfg.WeatherAPIKey, cfg.WeatherAPIURL, cfg.WeatherAPITimeout)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}
	if cfg.WeatherAPIKey == "" {
		logger.Warn("WEATHER_API_KEY not set; lookups will report a configuration error")
	}
	weatherService := service.NewWeatherService(weatherClient, cfg.DefaultCity, cfg.CityMaxLength, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		renderer ui.Renderer
		term     *terminal.Terminal
	)
	if cfg.UIMode == config.UIModeWeb {
		renderer = ui.RendererFunc(func(u ui.Update) {
			logger.Debug("ui update", zap.Uint64("seq", u.Seq), zap.Stringer("state", u.State))
		})
	} else {
		term = terminal.New(os.Stdout, cfg.DefaultCity)
		renderer = term
	}

	loop := ui.New(weatherService, renderer,
		ui.WithProvider(client.ProviderName),
		ui.WithTimeFormat(cfg.StatusTimeFormat),
		ui.WithLogger(logger),
	)
	loopCtx, cancelLoop := context.WithCancel(context.Background())
	defer cancelLoop()
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(loopCtx) }()
	logger.Info("ui loop started", zap.String("mode", cfg.UIMode), zap.String("default_city", cfg.DefaultCity))

	if term != nil {
		if err := term.Run(ctx, os.Stdin, loop); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("terminal", zap.Error(err))
		}
	} else {
		serveWeb(ctx, cfg, loop, logger)
	}

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	cancelLoop()
	select {
	case err := <-loopDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("ui loop", zap.Error(err))
		}
	case <-time.After(cfg.ShutdownTimeout):
		logger.Warn("ui loop did not stop in time")
	}

	if err := observability.FlushTelemetry(logger); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry flush: %v\n", err)
	}
}

// serveWeb runs the browser front-end until ctx is done, then drains in-flight requests.
func serveWeb(ctx context.Context, cfg *config.Config, loop *ui.Loop, logger *zap.Logger) {
	handler := httphandler.NewHandler(loop, cfg.DefaultCity, cfg.WeatherAPIKey != "", logger)
	srv := &http.Server{
		Addr:         cfg.UIAddr,
		Handler:      httphandler.NewRouter(handler, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.UIAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := httphandler.WaitForInFlight(shutdownCtx, 50*time.Millisecond); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}
}
