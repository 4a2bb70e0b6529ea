package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"peer_coach/internal/api"
	"peer_coach/internal/app/service"
	"peer_coach/internal/app/worker"
	"peer_coach/internal/common/security"
	"peer_coach/internal/domain/repository"
	"peer_coach/internal/domain/repository/memory"
	"peer_coach/internal/platform/config"
	"peer_coach/internal/platform/database"
	"peer_coach/internal/platform/logger"
	"peer_coach/internal/platform/mailer"
	"peer_coach/internal/platform/metrics"
	"peer_coach/internal/platform/queue"

	"go.uber.org/zap"
)

type adminFlags struct {
	username string
	email    string
	password string
}

// repositories is the persistent state the services run on, backed either
// by PostgreSQL or by the in-memory store.
type repositories struct {
	users         repository.UserRepository
	doubts        repository.DoubtRepository
	responses     repository.ResponseRepository
	notifications repository.NotificationRepository
	resources     repository.ResourceRepository
	close         func()
}

func openRepositories(ctx context.Context, cfg *config.Config, log *zap.Logger) (*repositories, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory store, data is lost on restart")
		store := memory.New()
		return &repositories{
			users:         store.Users(),
			doubts:        store.Doubts(),
			responses:     store.Responses(),
			notifications: store.Notifications(),
			resources:     store.Resources(),
			close:         func() {},
		}, nil
	case config.StoreDriverPostgres:
		db, err := database.Connect(ctx, cfg.DBConnStr)
		if err != nil {
			return nil, err
		}
		if cfg.MigrateOnStart {
			if err := migrate(ctx, db, log); err != nil {
				db.Close()
				return nil, err
			}
		}
		return &repositories{
			users:         repository.NewPgUserRepository(db),
			doubts:        repository.NewPgDoubtRepository(db),
			responses:     repository.NewPgResponseRepository(db),
			notifications: repository.NewPgNotificationRepository(db),
			resources:     repository.NewPgResourceRepository(db),
			close:         func() { db.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func migrate(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	applied, err := database.ApplyMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	log.Info("migrations applied", zap.Int("count", applied))
	return nil
}

func runServe(ctx context.Context) error {
	// 1. Load Configuration
	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	// 2. Initialize Store
	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer repos.close()
	log.Info("store ready", zap.String("driver", cfg.StoreDriver))

	// 3. Initialize Redis
	rdb, err := queue.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()
	log.Info("redis connected", zap.String("addr", cfg.RedisAddr))
	mailQueue := queue.NewMailQueue(rdb, cfg.MailQueueName)
	verifyRepo := repository.NewRedisVerificationRepository(rdb)

	// 4. Initialize Services
	m := metrics.New()
	tokens := security.NewTokenManager(cfg.JWTKey, cfg.JWTExp)
	authService := service.NewAuthService(repos.users, tokens)
	verificationService := service.NewVerificationService(repos.users, verifyRepo, mailQueue, service.VerificationOptions{
		TokenTTL: cfg.VerificationTokenTTL,
		Cooldown: cfg.VerificationCooldown,
		BaseURL:  cfg.AppBaseURL,
	}, log)
	notificationService := service.NewNotificationService(repos.notifications, repos.users)
	responseService := service.NewResponseService(repos.responses, repos.doubts, repos.users, notificationService, log)
	doubtService := service.NewDoubtService(repos.doubts, repos.responses)
	resourceService := service.NewResourceService(repos.resources, log)
	adminService := service.NewAdminService(repos.users, repos.doubts, responseService)
	if err := seedAdmin(ctx, cfg, authService, log); err != nil {
		return err
	}
	leaderboardService := service.NewLeaderboardService(repos.users)

	// 5. Initialize Mail Worker (as a goroutine)
	mailWorker := worker.NewMailWorker(mailQueue, newMailer(cfg, log), cfg.MailMaxAttempts, m.MailJobs, log)
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		mailWorker.Start(workerCtx)
	}()

	// 6. Initialize Router & HTTP Server
	router := api.NewRouter(api.Deps{
		Auth:          authService,
		Verification:  verificationService,
		Doubts:        doubtService,
		Responses:     responseService,
		Notifications: notificationService,
		Resources:     resourceService,
		Admin:         adminService,
		Leaderboard:   leaderboardService,
		Users:         repos.users,
		Tokens:        tokens,
		Metrics:       m,
		Logger:        log,
		CORSOrigins:   cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 70 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.APIPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("could not listen on %s: %w", cfg.APIPort, err)
		}
	}

	log.Info("shutting down server")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	<-workerDone

	log.Info("server and worker stopped gracefully")
	return nil
}

func newMailer(cfg *config.Config, log *zap.Logger) mailer.Mailer {
	return mailer.New(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
	}, log)
}

// runWorker drains the mail queue without serving HTTP, so delivery can be
// scaled apart from the API.
func runWorker(ctx context.Context) error {
	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	rdb, err := queue.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	m := metrics.New()
	mailWorker := worker.NewMailWorker(queue.NewMailQueue(rdb, cfg.MailQueueName), newMailer(cfg, log), cfg.MailMaxAttempts, m.MailJobs, log)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		mailWorker.Start(ctx)
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	wg.Wait()
	log.Info("worker exited cleanly")
	return nil
}

// seedAdmin ensures the ADMIN_* account exists. It is the only way to get
// an admin into the in-memory store.
func seedAdmin(ctx context.Context, cfg *config.Config, auth *service.AuthService, log *zap.Logger) error {
	if cfg.AdminEmail == "" {
		if cfg.StoreDriver == config.StoreDriverMemory {
			log.Warn("no ADMIN_EMAIL set, admin routes are unreachable with the in-memory store")
		}
		return nil
	}
	user, created, err := auth.EnsureAdmin(ctx, service.RegisterRequest{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	log.Info("admin account ensured", zap.String("user_id", user.ID), zap.Bool("created", created))
	return nil
}

func runMigrate(ctx context.Context) error {
	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	db, err := database.Connect(ctx, cfg.DBConnStr)
	if err != nil {
		return err
	}
	defer db.Close()
	return migrate(ctx, db, log)
}

func runCreateAdmin(ctx context.Context, flags adminFlags) error {
	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	if cfg.StoreDriver == config.StoreDriverMemory {
		return errors.New("create-admin needs a persistent store; with STORE_DRIVER=memory set ADMIN_EMAIL and ADMIN_PASSWORD for serve instead")
	}
	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer repos.close()

	auth := service.NewAuthService(repos.users, security.NewTokenManager(cfg.JWTKey, cfg.JWTExp))
	user, created, err := auth.EnsureAdmin(ctx, service.RegisterRequest{
		Username: flags.username,
		Email:    flags.email,
		Password: flags.password,
	})
	if err != nil {
		return err
	}
	if created {
		log.Info("admin created", zap.String("user_id", user.ID), zap.String("email", user.Email))
	} else {
		log.Info("existing user promoted to admin", zap.String("user_id", user.ID), zap.String("email", user.Email))
	}
	return nil
}
