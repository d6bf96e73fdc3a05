package fx

import (
	"database/sql"

	"go.uber.org/fx"

	"chess-wrapped/internal/api"
	"chess-wrapped/internal/config"
	"chess-wrapped/internal/database"
	"chess-wrapped/internal/db"
	"chess-wrapped/internal/logger"
	"chess-wrapped/internal/repository"
	"chess-wrapped/internal/server"
	"chess-wrapped/internal/service"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

func ProvideRecordsClient(c *api.ChessClient) service.RecordsClient {
	return c
}

func ProvideArchiveCache(r *repository.ArchiveRepository) service.ArchiveCache {
	return r
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	// repos
	fx.Provide(repository.NewArchiveRepository),
	fx.Provide(ProvideArchiveCache),
	// api client
	fx.Provide(api.NewChessClient),
	fx.Provide(ProvideRecordsClient),
	// svc
	fx.Provide(service.NewProfileService),
	fx.Provide(service.NewGameService),
	fx.Provide(service.NewAvatarService),
	fx.Provide(service.NewWrappedService),
	// server
	fx.Provide(server.NewWrappedServer),
)
