// @title Waitlist API
// @version 1.0
// @description Waitlist lifecycle service: registration, email verification, invitation and rejection of entries.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the operator JWT.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"waitlist/config"
	_ "waitlist/docs"
	"waitlist/internal/adapters/auth"
	"waitlist/internal/adapters/email"
	"waitlist/internal/adapters/queue"
	httpdelivery "waitlist/internal/delivery/http"
	"waitlist/internal/delivery/http/controllers"
	"waitlist/internal/delivery/http/middleware"
	"waitlist/internal/domain"
	"waitlist/internal/invitation"
	"waitlist/internal/repository"
	"waitlist/internal/services"
)

func main() {
	hashPassword := flag.String("hash-password", "", "print the bcrypt hash of the given operator password and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := auth.NewBcryptHasher(bcrypt.DefaultCost).Hash(*hashPassword)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("api stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	renderer := email.NewTemplateRenderer()
	inviteKind := domain.NotificationKind(cfg.Waitlist.InviteNotification)
	if !renderer.Has(string(inviteKind)) {
		return fmt.Errorf("WAITLIST_INVITE_NOTIFICATION %q does not name an email template", inviteKind)
	}
	mailer, err := email.NewMailer(mailerConfig(cfg.Email), logger)
	if err != nil {
		return fmt.Errorf("create mailer: %w", err)
	}
	emailService := services.NewEmailService(logger, mailer, renderer)

	var notifier domain.Notifier
	switch cfg.Notifier.Driver {
	case config.NotifierAMQP:
		pub, err := queue.NewPublisher(cfg.Notifier.RabbitURL, cfg.Notifier.Exchange)
		if err != nil {
			return err
		}
		defer pub.Close()
		notifier = queue.NewNotifier(pub)
	default:
		notifier = services.NewEmailNotifier(emailService, repos.Waitlists, services.NotifierConfig{
			BaseURL:     cfg.AppBaseURL,
			RoutePrefix: cfg.Waitlist.RoutesPrefix,
		})
	}

	opts := serviceOptions(cfg.Waitlist)
	strategy := invitation.NewStrategy(invitation.Config{
		InvitableType: cfg.Invitation.InvitableType,
		TargetKey:     cfg.Invitation.TargetKey,
		DefaultTarget: cfg.Invitation.DefaultTarget,
		MetadataKeys:  cfg.Invitation.MetadataKeys,
	})
	creator := invitation.NewRepositoryCreator(repos.Invitations)
	entryService := services.NewEntryService(logger, repos.Entries, notifier, strategy, creator, opts, services.NewMetrics(reg))
	waitlistService := services.NewWaitlistService(logger, repos.Waitlists, repos.Entries, entryService, opts)

	if _, err := waitlistService.Default(ctx); err != nil {
		return fmt.Errorf("ensure default waitlist: %w", err)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = randomSecret()
		logger.Warn("JWT_SECRET not set, using an ephemeral secret; operator tokens will not survive restarts")
	}
	authenticator := auth.NewOperatorAuthenticator(
		cfg.Auth.AdminEmail,
		cfg.Auth.AdminPasswordHash,
		auth.NewBcryptHasher(bcrypt.DefaultCost),
		auth.NewJWTIssuer(secret),
		cfg.Auth.JWTExpiry,
	)

	routerCfg := httpdelivery.RouterConfig{
		Logger:        logger,
		TokenVerifier: auth.NewJWTVerifier(secret),
		Waitlists:     controllers.NewWaitlistController(logger, waitlistService),
		Entries:       controllers.NewEntryController(logger, entryService),
		Auth:          controllers.NewAuthController(logger, authenticator),
		VerifyPrefix:  cfg.Waitlist.RoutesPrefix,
		Metrics:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Health:        repos.Ping,
	}
	if cfg.Waitlist.RoutesEnabled {
		routerCfg.Verification = controllers.NewVerificationController(logger, entryService, cfg.Waitlist.VerifyRedirectURL)
	}
	mux := httpdelivery.NewRouter(routerCfg)

	handler := middleware.NewHTTPMetrics(reg).Instrument(mux)
	handler = middleware.LoggingMiddleware(logger, handler)
	handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", server.Addr, "storage", cfg.StorageDriver, "notifier", cfg.Notifier.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStorage(ctx context.Context, cfg *config.Config) (*repository.Repositories, error) {
	if cfg.StorageDriver == config.StorageMemory {
		return repository.NewMemory(), nil
	}
	return repository.OpenPostgres(ctx, cfg.DBUrl)
}

func serviceOptions(c config.WaitlistConfig) services.Options {
	return services.Options{
		DefaultSlug:                     c.DefaultSlug,
		AutoSendInvitation:              c.AutoSendInvitation,
		InviteNotification:              domain.NotificationKind(c.InviteNotification),
		VerificationEnabled:             c.VerificationEnabled,
		RequireVerificationBeforeInvite: c.RequireVerification,
	}
}

func mailerConfig(c config.EmailConfig) email.MailerConfig {
	return email.MailerConfig{
		Provider:    c.Provider,
		FromAddress: c.FromAddress,
		FromName:    c.FromName,
		SES: email.SESConfig{
			Region:             c.AWSRegion,
			AccessKeyID:        c.AWSAccessKeyID,
			SecretAccessKey:    c.AWSSecretAccessKey,
			InsecureSkipVerify: c.SESInsecureSkipVerify,
		},
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
