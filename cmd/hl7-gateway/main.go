package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hl7gate/hl7gate/internal/config"
	"github.com/hl7gate/hl7gate/internal/platform/hl7v2"
	"github.com/hl7gate/hl7gate/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hl7-gateway",
		Short: "HL7v2 interface gateway",
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HL7v2 gateway (HTTP API and optional MLLP listener)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	parseOpts := hl7v2.ParseOptions{Strict: cfg.ParseStrict}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// HL7v2 API
	apiV1 := e.Group("/api/v1")
	hl7v2Handler := hl7v2.NewHandler(parseOpts)
	hl7v2Handler.RegisterRoutes(apiV1)

	// HL7v2 MLLP TCP listener (optional, started when MLLP_ADDR is set)
	if cfg.MLLPAddr != "" {
		mllpServer := hl7v2.NewMLLPServer(cfg.MLLPAddr, hl7v2.AckHandler(hl7v2.AckAccept, logger), logger)
		mllpServer.SetParseOptions(parseOpts)
		if err := mllpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("MLLP server failed to start")
		}
		defer mllpServer.Stop()
		logger.Info().Str("addr", mllpServer.Addr()).Msg("MLLP server started")
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
