package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apphttp "dashboard-api/internal/http"
	"dashboard-api/internal/config"
	"dashboard-api/internal/repository"
	"dashboard-api/internal/repository/mongodb"
	"dashboard-api/internal/repository/sqlite"
	"dashboard-api/internal/service"
	"dashboard-api/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	configureLogger(logger, cfg)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userRepo, textRepo, closeStore, err := openRepositories(cfg, logger)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer closeStore()

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := textRepo.Init(ctx); err != nil {
		logger.Fatalf("init text repository: %v", err)
	}

	tokens, err := service.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatalf("setup tokens: %v", err)
	}

	archive, err := buildArchive(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup archive: %v", err)
	}

	userService := service.NewUserService(userRepo, tokens, cfg.Auth.BcryptCost, logger)
	textService := service.NewTextService(textRepo, archive, logger)

	if cfg.Content.RequireAuth {
		logger.Info("content endpoints require a bearer token")
	} else {
		logger.Warn("content endpoints are public; set DASHBOARD_CONTENT_REQUIRE_AUTH=true to protect them")
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	handler := apphttp.NewHandler(userService, textService, tokens, logger, apphttp.Config{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		ProtectContent: cfg.Content.RequireAuth,
		Development:    cfg.IsDevelopment(),
		RateLimit: apphttp.RateLimitConfig{
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		},
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s (%s, %s store)", cfg.Server.Addr, cfg.Server.Env, cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func configureLogger(logger *logrus.Logger, cfg config.Config) {
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}

func openRepositories(cfg config.Config, logger *logrus.Logger) (repository.UserRepository, repository.TextRepository, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		store := mongodb.NewStore(cfg.Database.URI, cfg.Database.Name, cfg.Database.Timeout)
		logger.Infof("using mongo database %s", cfg.Database.Name)
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				logger.Warnf("close mongo: %v", err)
			}
		}
		return mongodb.NewUserRepository(store), mongodb.NewTextRepository(store), closeFn, nil
	default:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Infof("using sqlite database %s", cfg.Database.Path)
		return sqlite.NewUserRepository(db), sqlite.NewTextRepository(db), func() { db.Close() }, nil
	}
}

// buildArchive returns nil when no bucket is configured; deleted texts are then not archived.
func buildArchive(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Archiver, error) {
	if cfg.Archive.Bucket == "" {
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Archive.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Archive.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Archive.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("archiving deleted texts to s3 bucket %s (region %s)", cfg.Archive.Bucket, cfg.Archive.Region)
	archiver, err := storage.NewS3Archiver(client, cfg.Archive.Bucket, cfg.Archive.Prefix)
	if err != nil {
		return nil, err
	}
	return archiver, nil
}
