// Package app wires configuration, storage, services and the HTTP router
// into a runnable server.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/peladahub/pelada-api/internal/config"
	"github.com/peladahub/pelada-api/internal/infrastructure/account/jwtauth"
	smtpnotifier "github.com/peladahub/pelada-api/internal/infrastructure/notifier/smtp"
	"github.com/peladahub/pelada-api/internal/infrastructure/repository/postgres"
	"github.com/peladahub/pelada-api/internal/interfaces/httpapi"
	"github.com/peladahub/pelada-api/internal/platform/logging"
	"github.com/peladahub/pelada-api/internal/platform/token"
	"github.com/peladahub/pelada-api/internal/usecase"
)

// NewHTTPServer builds the fully wired server. The returned cleanup closes
// the database pool and drains the mail worker pool; call it after shutdown.
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*http.Server, func(), error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	db, err := postgres.Open(ctx, cfg.DBURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	userRepo := postgres.NewUserRepository(db)
	groupRepo := postgres.NewGroupRepository(db)
	invitationRepo := postgres.NewInvitationRepository(db)
	gameRepo := postgres.NewGameRepository(db)

	mailer, err := smtpnotifier.NewMailer(smtpnotifier.Config{
		Host:            cfg.SMTPHost,
		Port:            cfg.SMTPPort,
		Username:        cfg.SMTPUsername,
		Password:        cfg.SMTPPassword,
		From:            cfg.SMTPFrom,
		FrontendBaseURL: cfg.FrontendBaseURL,
		Workers:         cfg.MailWorkers,
	}, logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("build mailer: %w", err)
	}

	tokens := token.NewRandomGenerator()
	authenticator := jwtauth.New(cfg.JWTSecret, cfg.AccessTokenTTL, userRepo)

	accountSvc := usecase.NewAccountService(userRepo, groupRepo, tokens, authenticator, mailer, cfg.ResetTokenTTL)
	invitationSvc := usecase.NewInvitationService(invitationRepo, userRepo, groupRepo, tokens, accountSvc, mailer, cfg.InvitationTTL)
	groupSvc := usecase.NewGroupService(groupRepo)
	userSvc := usecase.NewUserService(userRepo)
	rosterSvc := usecase.NewRosterService(gameRepo, userRepo, groupRepo, cfg.DefaultConvocationDeadline)

	if cfg.AdminDefaultUser != "" {
		name, email, password, err := config.ParseAdminDefaultUser(cfg.AdminDefaultUser)
		if err != nil {
			logger.WarnContext(ctx, "skipping superadmin bootstrap", "error", err)
		} else if err := accountSvc.EnsureSuperadmin(ctx, name, email, password); err != nil {
			mailer.Close()
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure superadmin: %w", err)
		}
	}

	handler := httpapi.NewHandler(accountSvc, invitationSvc, groupSvc, userSvc, rosterSvc, logger)
	router := httpapi.NewRouter(handler, authenticator, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		mailer.Close()
		_ = db.Close()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	cleanup := func() {
		mailer.Close()
		if err := db.Close(); err != nil {
			logger.Warn("close database", "error", err)
		}
	}

	return server, cleanup, nil
}
