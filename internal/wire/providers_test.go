package wire

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userdirectory/internal/config"
	"userdirectory/internal/dbmemory"
	"userdirectory/internal/media"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProvideBackends_MemoryAndLocal(t *testing.T) {
	cfg := &config.Config{
		Store:   config.StoreConfig{Driver: "memory"},
		Storage: config.StorageConfig{Driver: "local", UploadDir: t.TempDir()},
	}

	b, cleanup, err := ProvideBackends(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, &dbmemory.UserStore{}, ProvideUserRepository(b))
	assert.IsType(t, &media.LocalStorage{}, ProvidePhotoStorage(b))
	assert.IsType(t, &media.LocalStorage{}, ProvidePhotoSource(b))
}

func TestProvideBackends_UnknownDrivers(t *testing.T) {
	ctx := context.Background()

	_, _, err := ProvideBackends(ctx, &config.Config{Store: config.StoreConfig{Driver: "redis"}}, testLogger())
	assert.ErrorContains(t, err, "STORE_DRIVER")

	_, _, err = ProvideBackends(ctx, &config.Config{
		Store:   config.StoreConfig{Driver: "memory"},
		Storage: config.StorageConfig{Driver: "ftp"},
	}, testLogger())
	assert.ErrorContains(t, err, "STORAGE_DRIVER")
}

func TestProvideBackends_S3RequiresBucket(t *testing.T) {
	_, _, err := ProvideBackends(context.Background(), &config.Config{
		Store:   config.StoreConfig{Driver: "memory"},
		Storage: config.StorageConfig{Driver: "s3", S3Region: "us-east-1"},
	}, testLogger())
	assert.ErrorContains(t, err, "S3_BUCKET")
}

func TestProvideReporter_WithoutDSN(t *testing.T) {
	reporter, flush, err := ProvideReporter(&config.Config{})
	require.NoError(t, err)
	assert.NotNil(t, reporter)
	flush()
}

func TestInitializeApplication_Memory(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("STORAGE_DRIVER", "local")
	t.Setenv("UPLOAD_DIR", t.TempDir())
	t.Setenv("LOG_OUTPUT", "stderr")
	t.Setenv("SENTRY_DSN", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("APP_ENV", "production")
	t.Setenv("MAX_UPLOAD_SIZE", "2048")

	app, cleanup, err := InitializeApplication(context.Background())
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, app.Handler)
	assert.NotNil(t, app.Health)
	assert.NotNil(t, app.GRPC)
	assert.False(t, app.Tokens.Enabled())
	assert.Equal(t, int64(2048), app.Config.Server.MaxUploadSize)
	assert.NoError(t, app.Store.Ping(context.Background()))
}

func TestInitializeMediaServer_Local(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "local")
	t.Setenv("UPLOAD_DIR", t.TempDir())
	t.Setenv("LOG_OUTPUT", "stderr")

	app, cleanup, err := InitializeMediaServer(context.Background())
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, app.Server)
}
