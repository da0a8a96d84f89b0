package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/labsynth/labsynth/internal/config"
	"github.com/labsynth/labsynth/internal/labdata"
	"github.com/labsynth/labsynth/internal/platform/analytics"
	"github.com/labsynth/labsynth/internal/platform/db"
	"github.com/labsynth/labsynth/internal/platform/middleware"
	"github.com/labsynth/labsynth/internal/platform/narrative"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "labsynth-server",
		Short: "Lab Report Synthesizer API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(synthCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the synthesizer API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the report archive schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Create the archive schema if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrations")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.EnsureSchema(ctx, pool); err != nil {
				return err
			}
			fmt.Println("Archive schema is up to date.")
			return nil
		},
	}
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show archive schema status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrations")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			st, err := db.SchemaStatus(ctx, pool)
			if err != nil {
				return err
			}
			fmt.Printf("report_archive exists: %v\n", st.TableExists)
			if st.TableExists {
				fmt.Printf("archived reports: %d\n", st.ReportCount)
			}
			return nil
		},
	}
	cmd.AddCommand(statusCmd)

	return cmd
}

func synthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize a report from a patient data JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			format, _ := cmd.Flags().GetString("format")
			if input == "" {
				return fmt.Errorf("--input is required")
			}

			data, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			pd, err := labdata.ParsePatientData(data)
			if err != nil {
				return err
			}

			logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
			svc := labdata.NewService(logger)
			ps := svc.Synthesize(context.Background(), pd)

			switch format {
			case "", "markdown":
				fmt.Println(labdata.RenderMarkdown(ps))
			case "latex":
				fmt.Println(labdata.RenderLaTeX(ps))
			case "json":
				out, err := json.MarshalIndent(labdata.RenderObject(ps), "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			case "all":
				out, err := json.MarshalIndent(labdata.Formats{
					Markdown: labdata.RenderMarkdown(ps),
					LaTeX:    labdata.RenderLaTeX(ps),
					JSON:     labdata.RenderObject(ps),
					Summary:  ps,
				}, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			default:
				return fmt.Errorf("invalid format: %s", format)
			}
			return nil
		},
	}
	cmd.Flags().String("input", "", "Path to patient data JSON file")
	cmd.Flags().String("format", "markdown", "Output format: markdown, latex, json, all")
	return cmd
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
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	svc := labdata.NewService(logger)

	// Optional narrative service
	if cfg.HasNarrative() {
		gen, err := narrative.NewClient(narrative.Config{
			BaseURL: cfg.NarrativeURL,
			APIKey:  cfg.NarrativeAPIKey,
			Timeout: cfg.NarrativeTimeout(),
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid narrative config")
		}
		svc.SetNarrativeGenerator(gen)
		logger.Info().Str("url", cfg.NarrativeURL).Msg("narrative service enabled")
	}

	// Optional report archive
	ctx := context.Background()
	var analyticsHandler *analytics.Handler
	if cfg.HasArchive() {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		if err := db.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure schema")
		}
		svc.SetArchive(labdata.NewReportArchiveRepoPG(pool))
		analyticsHandler = analytics.NewHandler(pool)
		logger.Info().Msg("report archive enabled")
	}

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

	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})

	labdata.NewHandler(svc).RegisterRoutes(apiV1)
	if analyticsHandler != nil {
		analyticsHandler.RegisterRoutes(apiV1)
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
