//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"
)

var backendSet = wire.NewSet(
	ProvideBackends,
	ProvideUserRepository,
	ProvidePhotoStorage,
	ProvidePhotoSource,
)

func InitializeApplication(ctx context.Context) (*Application, func(), error) {
	wire.Build(
		ProvideConfig,
		ProvideLogger,
		ProvideReporter,
		ProvideTokenManager,
		backendSet,
		ProvideUserService,
		ProvideUserHandler,
		ProvideHealthHandler,
		ProvideGRPCServer,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil, nil
}

func InitializeMediaServer(ctx context.Context) (*MediaApplication, func(), error) {
	wire.Build(
		ProvideConfig,
		ProvideLogger,
		ProvideMediaSource,
		ProvideMediaServer,
		wire.Struct(new(MediaApplication), "*"),
	)
	return nil, nil, nil
}
