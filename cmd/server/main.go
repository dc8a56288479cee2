package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	h "github.com/IbnuJabir/AuralFlowAI/internal/api/http"
	"github.com/IbnuJabir/AuralFlowAI/internal/client"
	cfgpkg "github.com/IbnuJabir/AuralFlowAI/internal/config"
	errpkg "github.com/IbnuJabir/AuralFlowAI/internal/errors"
	"github.com/IbnuJabir/AuralFlowAI/internal/poller"
	svc "github.com/IbnuJabir/AuralFlowAI/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := cfgpkg.Load()
	if err != nil {
		if errors.Is(err, errpkg.ErrConfigNotFound) {
			slog.Error("configuration file not found", "error", err)
		} else {
			slog.Error("failed to load configuration", "error", err)
		}
		os.Exit(1)
	}

	logger := cfgpkg.SetupLogger(cfg, os.Stdout)
	logger.Info("configuration loaded successfully", "base_url", cfg.BaseURL)

	api := client.New(cfg.Client(), logger)
	statusPoller := poller.New(api,
		poller.WithInterval(cfg.PollInterval),
		poller.WithMaxConcurrent(cfg.MaxConcurrentPolls),
		poller.WithLogger(logger),
	)
	voiceService := svc.NewVoiceService(api, statusPoller, cfg.WaitTimeout, logger)

	router := h.NewRouter(voiceService, cfg.MaxUploadSize, logger)
	// No WriteTimeout: /wait holds the response open until the task is terminal.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:     router,
		ReadTimeout: cfg.HTTPTimeout,
		IdleTimeout: cfg.HTTPTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	} else {
		logger.Info("server stopped gracefully")
	}
}
