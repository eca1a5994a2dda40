//go:build wireinject
// +build wireinject

package di

import (
	"cinnarito/internal"
	"cinnarito/internal/chronicle"
	"cinnarito/internal/chronicle/interfaces"
	"cinnarito/internal/controllers"
	"cinnarito/internal/providers"
	"cinnarito/internal/services"
	"cinnarito/internal/storage"
	"cinnarito/internal/structures"

	wire "github.com/google/wire"
)

var storageSet = wire.NewSet(
	providers.NewRedisProvider,
	storage.NewGameStateRepository,
	storage.NewPlayerRepository,
	wire.Bind(new(storage.GameStateRepositoryInterface), new(*storage.GameStateRepository)),
	wire.Bind(new(storage.PlayerRepositoryInterface), new(*storage.PlayerRepository)),
	wire.Bind(new(controllers.Pinger), new(*storage.GameStateRepository)),
)

var serviceSet = wire.NewSet(
	services.NewGrowthService,
	services.NewRenderer,
	services.NewPlatformPoster,
	services.NewChronicleService,
	services.NewActionService,
	wire.Bind(new(services.GrowthServiceInterface), new(*services.GrowthService)),
	wire.Bind(new(services.ChronicleServiceInterface), new(*services.ChronicleService)),
	wire.Bind(new(services.MilestoneNotifier), new(*services.ChronicleService)),
	wire.Bind(new(services.ActionServiceInterface), new(*services.ActionService)),
)

var chronicleSet = wire.NewSet(
	chronicle.NewArchiveCodec,
	chronicle.NewArchive,
	chronicle.NewScheduler,
	wire.Bind(new(interfaces.SchedulerInterface), new(*chronicle.Scheduler)),
)

func InitApp(cfg *structures.CliFlags) (*internal.App, func(), error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,
		providers.NewStateCache,

		storageSet,
		serviceSet,
		chronicleSet,

		controllers.NewApiController,
		controllers.NewGrowthController,
		controllers.NewChronicleController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil, nil
}
