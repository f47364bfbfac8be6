package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/constants"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/bootstrap"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/server"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file (defaults to $CONFIG_FILE)")
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(2)
	}
	logger := bootstrap.NewLogger(os.Stdout, cfg.LogLevel, false)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, bootstrap.Options{}, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if app.DB != nil {
		if err := app.DB.HealthCheck(ctx, 5*time.Second); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
	}

	var exporter server.Exporter
	if app.Export != nil {
		exporter = app.Export
	}
	httpSrv := &http.Server{
		Addr: cfg.Server.HTTPAddr,
		Handler: server.NewHTTPServer(server.HTTPConfig{
			MaxUploadBytes: cfg.Server.MaxUploadBytes,
			RequestTimeout: cfg.Server.RequestTimeout,
		}, app.Extraction, exporter, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcSrv, healthSrv := server.NewGRPCServer(server.NewExtractionGRPC(app.Extraction, cfg.Server.ProcessRoot, logger), logger)

	logger.Info("referral-server starting",
		"http_addr", cfg.Server.HTTPAddr,
		"grpc_addr", cfg.Server.GRPCAddr,
		"supported", constants.SupportedExtensions(),
	)

	errCh := make(chan error, 2)
	go func() {
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	logger.Info("referral-server shutting down")
	healthSrv.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	grpcSrv.GracefulStop()
}
