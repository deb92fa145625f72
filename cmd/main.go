package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/redis/go-redis/v9"

	"github.com/UTSAV1434/AfterHours/auth"
	apperrors "github.com/UTSAV1434/AfterHours/errors"
	"github.com/UTSAV1434/AfterHours/internal"
	"github.com/UTSAV1434/AfterHours/moderation"
	"github.com/UTSAV1434/AfterHours/repositories"
	"github.com/UTSAV1434/AfterHours/search"
	"github.com/UTSAV1434/AfterHours/server"
	"github.com/UTSAV1434/AfterHours/services"
	"github.com/UTSAV1434/AfterHours/storage"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "AfterHours terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so every defer (store cleanup, index
// flush) executes before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	failMode, ok := moderation.ParseFailMode(config.ModerationFailMode)
	if !ok {
		return exitConfig, fmt.Errorf("invalid MODERATION_FAIL_MODE %q", config.ModerationFailMode)
	}

	// 2. Key-value store
	kv, badgerKV, err := openStore(config, logger)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		logger.Info("Closing store...")
		_ = kv.Close()
	}()

	index, err := search.Open(config.BlugeFilepath, logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open search index: %w", err)
	}
	defer func() {
		_ = index.Close()
	}()

	// 3. Moderation
	terms, err := moderation.LoadBlocklist()
	if err != nil {
		if !errors.Is(err, apperrors.ErrEmptyWords) {
			return exitRuntime, fmt.Errorf("blocklist load failed: %w", err)
		}
		terms = nil
	}
	moderator, err := moderation.NewModerator(terms, failMode, logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("moderator init failed: %w", err)
	}

	// 4. Repositories & Services
	postRepo := repositories.NewPostRepository(kv, logger)
	reactionRepo := repositories.NewReactionRepository(kv, logger)
	timingsRepo := repositories.NewTimingsRepository(kv, logger)

	postService := services.NewPostService(postRepo, timingsRepo, moderator, index, logger, config.EnforcePostingWindow)
	reactionService := services.NewReactionService(postRepo, reactionRepo, logger)
	statsService := services.NewStatsService(postRepo, logger)
	tokens := auth.NewTokenManager([]byte(config.AdminTokenSecret), config.AdminTokenDuration)

	if logger.Enabled(ctx, slog.LevelDebug) && badgerKV != nil {
		logger.Info("Debug store inspector available",
			"url", fmt.Sprintf("http://localhost:%d/inspect", config.DebugPort))
		internal.StartDebugServer(badgerKV.DB(), config.DebugPort, func() map[string]any {
			stats, err := statsService.Compute(context.Background())
			if err != nil {
				return map[string]any{"error": err.Error()}
			}
			return map[string]any{
				"totalPosts":     stats.TotalPosts,
				"totalReactions": stats.TotalReactions,
			}
		}, logger)
	}

	srv := server.New(postService, reactionService, statsService, timingsRepo, tokens, config.AdminPasswordHash, kv, logger)

	// 5. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{
		Addr:              address,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 7. Final Cleanup (Graceful Shutdown)
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return exitRuntime, fmt.Errorf("shutdown error: %w", err)
	}
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

// openStore builds the configured KV backend. The second return value
// is non-nil only for badger; the debug inspector needs direct DB access.
func openStore(config Config, logger *slog.Logger) (storage.KV, *storage.BadgerKV, error) {
	switch strings.ToLower(config.KVBackend) {
	case "badger":
		badgerKV, err := storage.OpenBadger(config.BadgerFilepath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("badger opening failed: %w", err)
		}
		return badgerKV, badgerKV, nil
	case "redis":
		redisKV := storage.NewRedisKV(&redis.Options{Addr: config.RedisAddr}, logger)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisKV.Ping(pingCtx); err != nil {
			_ = redisKV.Close()
			return nil, nil, fmt.Errorf("redis ping failed: %w", err)
		}
		return redisKV, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown KV_BACKEND %q", config.KVBackend)
	}
}
