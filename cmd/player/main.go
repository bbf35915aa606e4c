// Package main provides the player entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/melodeck/internal/api/ws"
	"github.com/osa030/melodeck/internal/app/notify"
	"github.com/osa030/melodeck/internal/app/playback"
	"github.com/osa030/melodeck/internal/app/queue"
	"github.com/osa030/melodeck/internal/audio"
	"github.com/osa030/melodeck/internal/infra/config"
	"github.com/osa030/melodeck/internal/infra/logger"
	"github.com/osa030/melodeck/internal/infra/spotify"
	"github.com/osa030/melodeck/internal/library"
)

var (
	app        = kingpin.New("melodeck", "melodeck music player core")
	configPath = app.Flag("config", "Path to config file").Default("config/player.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
	noAudio    = app.Flag("no-audio", "Disable audio output, simulate playback with a timer").Bool()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Player error: %v", err)
		os.Exit(1)
	}
}

// run executes the main player logic. Using a separate function ensures
// defer statements run even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	// Build the track library from configured sources
	lib := library.New()
	var spotifyClient library.SpotifyClient
	if cfg.HasSpotifyCredentials() {
		client, err := spotify.New(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			RefreshToken: cfg.Spotify.RefreshToken,
		})
		if err != nil {
			return fmt.Errorf("failed to create spotify client: %w", err)
		}
		spotifyClient = client
	}
	sources, err := library.NewSourcesFromConfig(cfg, spotifyClient)
	if err != nil {
		return fmt.Errorf("failed to create library sources: %w", err)
	}
	filters, err := library.NewFilterChainFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to create import filters: %w", err)
	}
	library.LoadAll(ctx, lib, sources, filters)
	zlog.Info().Msgf("Library ready: %d tracks", lib.Len())

	// Audio backend
	progressInterval := time.Duration(cfg.Player.ProgressIntervalMs) * time.Millisecond
	var backend audio.Backend
	if *noAudio || cfg.Player.NoAudio || !audio.Available {
		zlog.Info().Msg("Audio output disabled, using timer backend")
		backend = audio.NewTimerBackend(progressInterval)
	} else {
		output, err := audio.NewOutput(progressInterval)
		if err != nil {
			zlog.Warn().Msgf("Audio output unavailable, using timer backend: %v", err)
			backend = audio.NewTimerBackend(progressInterval)
		} else {
			// Local files play through the speaker; imported tracks
			// without audio data fall back to the timer clock.
			backend = audio.NewRouter(output, audio.NewTimerBackend(progressInterval))
		}
	}
	defer backend.Close()

	// Queue engine and playback coordinator
	engine := queue.New(queue.Config{
		DedupWindow: time.Duration(cfg.Player.EnqueueDedupMs) * time.Millisecond,
	})
	coordinator := playback.NewCoordinator(engine, backend, playback.Config{
		InitialVolume: cfg.Player.InitialVolume,
		InitialLoop:   queue.ParseLoopMode(cfg.Player.Loop),
	})
	defer coordinator.Close()
	if cfg.Player.Shuffle {
		coordinator.ToggleShuffle()
	}

	// Fan playback events out to UI subscribers
	notifier := notify.NewNotifier()
	defer notifier.Close()
	go func() {
		for e := range coordinator.Events() {
			notifier.Publish(e.Snapshot)
		}
	}()

	// UI websocket server
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: ws.NewServer(coordinator, lib, notifier).Handler(),
	}
	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("UI server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		zlog.Info().Msgf("Received signal %v, shutting down", sig)
	case err := <-errCh:
		return fmt.Errorf("ui server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Warn().Msgf("UI server shutdown: %v", err)
	}

	return nil
}
