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
	"time"

	"github.com/cmlabs-hris/collab-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/collab-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/collab-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/collab-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/collab-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/collab-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/collab-backend-go/internal/pkg/logger"
	"github.com/cmlabs-hris/collab-backend-go/internal/repository/postgresql"
	invitationService "github.com/cmlabs-hris/collab-backend-go/internal/service/invitation"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn := cfg.DatabaseURL()
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(dsn); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	db, err := database.NewPostgreSQLDB(ctx, dsn, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	userRepo := postgresql.NewUserRepository(db)
	projectRepo := postgresql.NewProjectRepository(db)
	invitationRepo := postgresql.NewInvitationRepository(db)
	transactor := postgresql.NewTransactor(db)

	emailService, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		return fmt.Errorf("initialize email service: %w", err)
	}

	invitationSvc := invitationService.NewInvitationService(
		transactor,
		invitationRepo,
		projectRepo,
		userRepo,
		emailService,
		cfg.Invitation,
	)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	healthHandler := appHTTP.NewHealthHandler(db)
	invitationHandler := appHTTP.NewInvitationHandler(invitationSvc)

	router := appHTTP.NewRouter(
		JWTService,
		log,
		cfg,
		healthHandler,
		invitationHandler,
	)

	scheduler := cron.NewScheduler()
	cron.NewInvitationJobs(invitationSvc, cfg.Invitation.SweepInterval).RegisterJobs(scheduler)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
