package wire

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"gorm.io/gorm"

	"userdirectory/internal/common"
	"userdirectory/internal/config"
	"userdirectory/internal/dbmemory"
	"userdirectory/internal/dbmongo"
	"userdirectory/internal/dbsql"
	"userdirectory/internal/health"
	"userdirectory/internal/logging"
	"userdirectory/internal/media"
	"userdirectory/internal/user"
)

const ServiceName = "userdirectory"

// Application is everything cmd/server needs to serve the API.
type Application struct {
	Config      *config.Config
	Logger      *slog.Logger
	Reporter    common.ErrorReporter
	Tokens      *common.TokenManager
	Store       user.UserRepository
	PhotoSource media.Source
	Service     user.UserService
	Handler     *user.Handler
	Health      *health.Handler
	GRPC        *health.GRPCServer
}

// MediaApplication is what cmd/media-server needs.
type MediaApplication struct {
	Config *config.Config
	Logger *slog.Logger
	Server *media.HTTPServer
}

// photoBackend stores photos and serves them back.
type photoBackend interface {
	user.PhotoStorage
	media.Source
}

// Backends holds the opened store and photo storage. A single Mongo client is
// shared when both use MongoDB.
type Backends struct {
	Users  user.UserRepository
	Photos photoBackend
}

func ProvideConfig() *config.Config {
	return config.LoadConfig()
}

func ProvideLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	logger, closeFn, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(logger)
	return logger, func() {
		if err := closeFn(); err != nil {
			log.Printf("closing log output: %v", err)
		}
	}, nil
}

func ProvideReporter(cfg *config.Config) (common.ErrorReporter, func(), error) {
	reporter, flush, err := common.InitSentry(cfg.Sentry.DSN, cfg.Server.Environment)
	if err != nil {
		return nil, nil, fmt.Errorf("init sentry: %w", err)
	}
	return reporter, flush, nil
}

func ProvideTokenManager(cfg *config.Config) *common.TokenManager {
	return common.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
}

func ProvideBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backends, func(), error) {
	var (
		b        Backends
		mongo    *dbmongo.MongoClient
		sqlDB    *gorm.DB
		cleanups []func()
	)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	mongoClient := func() (*dbmongo.MongoClient, error) {
		if mongo != nil {
			return mongo, nil
		}
		client, err := dbmongo.NewMongoConnection(cfg)
		if err != nil {
			return nil, err
		}
		mongo = client
		cleanups = append(cleanups, func() {
			if err := client.Close(context.Background()); err != nil {
				logger.Warn("closing mongo client", "error", err)
			}
		})
		return client, nil
	}

	switch cfg.Store.Driver {
	case "memory":
		b.Users = dbmemory.NewUserStore()
	case "mysql", "postgres":
		db, err := dbsql.Open(cfg)
		if err != nil {
			return nil, nil, err
		}
		sqlDB = db
		cleanups = append(cleanups, func() {
			if err := dbsql.Close(sqlDB); err != nil {
				logger.Warn("closing sql database", "error", err)
			}
		})
		b.Users = dbsql.NewUserStore(db)
	case "mongo", "":
		client, err := mongoClient()
		if err != nil {
			return nil, nil, err
		}
		store := dbmongo.NewUserStore(client.Database)
		if err := store.EnsureIndexes(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		b.Users = store
	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}

	photos, err := providePhotoBackend(ctx, cfg, mongoClient)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	b.Photos = photos

	logger.Info("backends ready", "store", cfg.Store.Driver, "storage", cfg.Storage.Driver)
	return &b, cleanup, nil
}

func providePhotoBackend(ctx context.Context, cfg *config.Config, mongoClient func() (*dbmongo.MongoClient, error)) (photoBackend, error) {
	switch cfg.Storage.Driver {
	case "local", "":
		return media.NewLocalStorage(cfg.Storage.UploadDir)
	case "gridfs":
		client, err := mongoClient()
		if err != nil {
			return nil, err
		}
		return dbmongo.NewPhotoStorage(client), nil
	case "s3":
		return media.NewS3Storage(ctx, cfg.Storage)
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
}

// ProvideMediaSource opens only the photo backend, for the standalone media server.
func ProvideMediaSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (media.Source, func(), error) {
	var client *dbmongo.MongoClient
	photos, err := providePhotoBackend(ctx, cfg, func() (*dbmongo.MongoClient, error) {
		c, err := dbmongo.NewMongoConnection(cfg)
		client = c
		return c, err
	})
	if err != nil {
		return nil, nil, err
	}
	return photos, func() {
		if client != nil {
			if err := client.Close(context.Background()); err != nil {
				logger.Warn("closing mongo client", "error", err)
			}
		}
	}, nil
}

func ProvideUserRepository(b *Backends) user.UserRepository {
	return b.Users
}

func ProvidePhotoStorage(b *Backends) user.PhotoStorage {
	return b.Photos
}

func ProvidePhotoSource(b *Backends) media.Source {
	return b.Photos
}

func ProvideUserService(repo user.UserRepository, photos user.PhotoStorage, logger *slog.Logger, cfg *config.Config) user.UserService {
	return user.NewUserService(repo, photos, logger, user.Options{
		DeletePhotoOnDelete: cfg.Users.DeletePhotoOnDelete,
	})
}

func ProvideUserHandler(svc user.UserService, logger *slog.Logger, reporter common.ErrorReporter, cfg *config.Config) *user.Handler {
	return user.NewHandler(svc, logger, reporter, user.HandlerConfig{
		MaxUploadSize: cfg.Server.MaxUploadSize,
		ExposeErrors:  cfg.Server.Environment == "development",
	})
}

func ProvideHealthHandler(repo user.UserRepository) *health.Handler {
	return health.NewHandler(repo, ServiceName)
}

func ProvideGRPCServer(repo user.UserRepository, logger *slog.Logger) *health.GRPCServer {
	return health.NewGRPCServer(repo, ServiceName, logger)
}

func ProvideMediaServer(source media.Source, logger *slog.Logger) *media.HTTPServer {
	return media.NewHTTPServer(source, logger)
}
