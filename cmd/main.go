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

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dtroode/accounts-server/internal/api/grpc/health"
	grpcRouter "github.com/dtroode/accounts-server/internal/api/grpc/router"
	grpcServer "github.com/dtroode/accounts-server/internal/api/grpc/server"
	apiContext "github.com/dtroode/accounts-server/internal/api/http/context"
	httpRouter "github.com/dtroode/accounts-server/internal/api/http/router"
	httpServer "github.com/dtroode/accounts-server/internal/api/http/server"
	"github.com/dtroode/accounts-server/internal/config"
	"github.com/dtroode/accounts-server/internal/imaging"
	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
	"github.com/dtroode/accounts-server/internal/notify"
	"github.com/dtroode/accounts-server/internal/password"
	"github.com/dtroode/accounts-server/internal/repository/memory"
	"github.com/dtroode/accounts-server/internal/repository/mongodb"
	"github.com/dtroode/accounts-server/internal/repository/postgres"
	"github.com/dtroode/accounts-server/internal/server"
	"github.com/dtroode/accounts-server/internal/service"
	"github.com/dtroode/accounts-server/internal/storage/local"
	storage "github.com/dtroode/accounts-server/internal/storage/minio"
	"github.com/dtroode/accounts-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.NewWithWriter(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize account store", "driver", cfg.Store.Driver, "error", err)
	}
	defer closeStore()

	avatarStorage, err := openAvatarStorage(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize avatar storage", "driver", cfg.Avatar.Driver, "error", err)
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize notifier", "driver", cfg.Mail.Driver, "error", err)
	}

	tokenManager := token.NewJWT(cfg.JWT.Secret)
	accountService := service.NewAccount(
		store,
		password.NewBcrypt(cfg.Bcrypt.Cost),
		tokenManager,
		notifier,
		imaging.NewResizer(cfg.Avatar.Size, imaging.WithMaxPixels(cfg.Avatar.MaxPixels)),
		avatarStorage,
		cfg.JWT.SessionTTL,
		logger,
	)
	tokenService := service.NewTokenService(tokenManager, store, logger)

	app := httpRouter.New(
		accountService,
		tokenService,
		avatarStorage,
		apiContext.NewManager(),
		cfg.HTTP.BodyLimitMiB<<20,
		logger,
	).Register()

	checker := health.NewChecker(store, cfg.GRPC.HealthInterval, logger)
	servers := []model.Server{
		httpServer.NewHTTPServer(app, fmt.Sprintf(":%s", cfg.HTTP.Port)),
		grpcServer.NewGRPCServer(grpcRouter.New(checker.Server(), logger).Register(), fmt.Sprintf(":%s", cfg.GRPC.Port)),
	}

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		checker.Run(ctx)
	}()

	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s)
	}

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
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

func openStore(ctx context.Context, cfg *config.Config) (model.AccountStore, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		return memory.NewAccountRepository(), func() {}, nil

	case config.StoreDriverMongo:
		client, err := mongodb.NewClient(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}
		repo := mongodb.NewAccountRepository(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Close(context.Background())
			return nil, nil, err
		}
		return repo, func() { _ = client.Close(context.Background()) }, nil

	default:
		db, err := postgres.NewConection(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewAccountRepository(db), func() { _ = db.Close() }, nil
	}
}

func openAvatarStorage(ctx context.Context, cfg *config.Config) (model.Storage, error) {
	if cfg.Avatar.Driver == config.AvatarDriverLocal {
		return local.NewDir(cfg.Avatar.Dir)
	}

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return storage.NewClient(ctx, minioClient, cfg.Storage.Bucket)
}

func newNotifier(cfg *config.Config, logger *logger.Logger) (model.Notifier, error) {
	if cfg.Mail.Driver == config.MailDriverLog {
		return notify.NewLogNotifier(cfg.HTTP.BaseURL, logger), nil
	}
	return notify.NewMailer(notify.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		BaseURL:  cfg.HTTP.BaseURL,
	}, logger)
}
