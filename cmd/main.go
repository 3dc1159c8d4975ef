package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	httpctx "github.com/veriflow/identity/internal/api/http/context"
	"github.com/veriflow/identity/internal/api/http/router"
	httpServer "github.com/veriflow/identity/internal/api/http/server"
	"github.com/veriflow/identity/internal/config"
	"github.com/veriflow/identity/internal/logger"
	"github.com/veriflow/identity/internal/metrics"
	"github.com/veriflow/identity/internal/model"
	"github.com/veriflow/identity/internal/notifier"
	"github.com/veriflow/identity/internal/ratelimiter"
	"github.com/veriflow/identity/internal/repository/postgres"
	"github.com/veriflow/identity/internal/server"
	"github.com/veriflow/identity/internal/service"
	"github.com/veriflow/identity/internal/social"
	"github.com/veriflow/identity/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	accountRepo := postgres.NewAccountRepository(db)
	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.SessionTTL)
	clock := model.SystemClock{}
	m := metrics.New()

	limiter := ratelimiter.New(cfg.Notify.RatePerSecond, cfg.Notify.Burst, cfg.Notify.IdleTTL)
	dispatcher := notifier.NewDispatcher(
		notifier.NewEmailSender(notifier.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}),
		notifier.NewSMSSender(notifier.SMSConfig{
			AccountSID: cfg.SMS.AccountSID,
			AuthToken:  cfg.SMS.AuthToken,
			From:       cfg.SMS.From,
			APIBaseURL: cfg.SMS.APIBaseURL,
		}),
		limiter,
		clock,
		logger,
	)

	credentialService := service.NewCredential(accountRepo, tokenManager, dispatcher, clock, service.CredentialConfig{
		ResetTokenTTL: cfg.Reset.TokenTTL,
		FrontendURL:   cfg.FrontendURL,
	}, m, logger)
	verificationService := service.NewVerification(accountRepo, dispatcher, credentialService, clock, service.VerificationConfig{
		CodeTTL:          cfg.Verification.CodeTTL,
		PhoneCountryCode: cfg.Registration.PhoneCountryCode,
	}, m, logger)
	registrationService := service.NewRegistration(accountRepo, verificationService, clock, service.RegistrationConfig{
		MaxPendingAttempts: cfg.Registration.MaxPendingAttempts,
		PhoneCountryCode:   cfg.Registration.PhoneCountryCode,
	}, m, logger)
	socialService := service.NewSocial(accountRepo, credentialService, clock, logger,
		social.NewGoogle(), social.NewFacebook())

	reaper := service.NewReaper(accountRepo, clock, service.ReaperConfig{
		Interval:        cfg.Reaper.Interval,
		RetentionWindow: cfg.Reaper.RetentionWindow,
	}, m, logger)
	go reaper.Run(ctx)

	ctxMgr := httpctx.NewManager()
	r := router.New(
		registrationService,
		verificationService,
		credentialService,
		socialService,
		credentialService,
		ctxMgr,
		m,
		cfg.FrontendURL,
		int(cfg.JWT.SessionTTL.Seconds()),
		logger,
	)
	srv := httpServer.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer

	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
