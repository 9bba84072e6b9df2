package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinadmin/clinadmin/internal/config"
	"github.com/clinadmin/clinadmin/internal/domain/appointment"
	"github.com/clinadmin/clinadmin/internal/domain/employee"
	"github.com/clinadmin/clinadmin/internal/domain/invoice"
	"github.com/clinadmin/clinadmin/internal/domain/patient"
	"github.com/clinadmin/clinadmin/internal/domain/procedure"
	"github.com/clinadmin/clinadmin/internal/platform/db"
	"github.com/clinadmin/clinadmin/internal/platform/docstore"
	"github.com/clinadmin/clinadmin/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinadmin-server",
		Short: "Clinic administration API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.StoreBackend != config.StoreBackendPostgres {
				return fmt.Errorf("migrations require STORE_BACKEND=%s", config.StoreBackendPostgres)
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.StoreBackend != config.StoreBackendPostgres {
				return fmt.Errorf("migrations require STORE_BACKEND=%s", config.StoreBackendPostgres)
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format(time.RFC3339)
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Record store: local Postgres or the legacy remote CRUD store.
	var (
		store  docstore.Store
		pinger db.Pinger
		pool   *pgxpool.Pool
	)
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = docstore.NewPG(pool)
		pinger = pool
	case config.StoreBackendRemote:
		remote := docstore.NewRemote(cfg.StoreBaseURL, time.Duration(cfg.StoreTimeoutSeconds)*time.Second, logger)
		store = remote
		pinger = remote
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.RequestTimeout(time.Duration(cfg.StoreTimeoutSeconds) * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))

	apiV1 := e.Group("/api/v1")

	patientRepo := patient.NewRepository(store, logger)
	employeeRepo := employee.NewRepository(store, logger)
	procedureRepo := procedure.NewRepository(store, logger)
	appointmentRepo := appointment.NewRepository(store, logger)
	invoiceRepo := invoice.NewRepository(store, logger)

	patient.NewHandler(patient.NewService(patientRepo)).RegisterRoutes(apiV1)
	employee.NewHandler(employee.NewService(employeeRepo)).RegisterRoutes(apiV1)
	procedure.NewHandler(procedure.NewService(procedureRepo)).RegisterRoutes(apiV1)
	appointment.NewHandler(appointment.NewService(appointmentRepo)).RegisterRoutes(apiV1)

	engine := invoice.NewEngine(invoiceRepo, appointmentRepo, patientRepo, employeeRepo, procedureRepo, logger)
	invoice.NewHandler(engine).RegisterRoutes(apiV1)

	e.GET("/health", db.HealthHandler(pinger, pool))

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("store", cfg.StoreBackend).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	return nil
}
