package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qcportal/internal/qc/app"
	"qcportal/internal/qc/config"
	"qcportal/internal/qc/util"
)

func main() {
	// 0. Load Config, then the logger at the configured level
	cfg, err := config.LoadConfig()
	if err != nil {
		util.InitLogger("info")
		util.GetLogger().Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	util.InitLogger(cfg.LogLevel)
	logger := util.GetLogger()

	// 1. Init store & service graph
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := app.New(ctx, cfg)
	cancel()
	if err != nil {
		logger.Error("Failed to initialise", "error", err)
		os.Exit(1)
	}

	// 2. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.Echo(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("shutting down the server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server Shutdown Failed", "error", err)
	}

	if err := a.Close(ctx); err != nil {
		logger.Error("Failed to disconnect DB", "error", err)
	}

	logger.Info("Server exited properly")
}
