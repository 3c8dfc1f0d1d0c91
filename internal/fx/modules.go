package fx

import (
	"database/sql"

	"league-tracker/internal/api"
	"league-tracker/internal/config"
	"league-tracker/internal/constants"
	"league-tracker/internal/database"
	"league-tracker/internal/db"
	"league-tracker/internal/logger"
	"league-tracker/internal/metrics"
	"league-tracker/internal/notify"
	"league-tracker/internal/repository"
	"league-tracker/internal/scheduler"
	"league-tracker/internal/server"
	"league-tracker/internal/service"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

func ProvideRunner(
	cfg *config.Config,
	tracker *service.LiveTracker,
	reconciler *service.Reconciler,
	sweep *service.RosterSweep,
	clock clockwork.Clock,
	logger zerolog.Logger,
	m metrics.TrackerMetrics,
) *scheduler.Runner {
	return scheduler.NewRunner(logger,
		scheduler.NewLoop("track", cfg.TrackInterval, constants.CycleTimeout, tracker.RunCycle, clock, logger, m),
		scheduler.NewLoop("reconcile", cfg.ReconcileInterval, constants.CycleTimeout, reconciler.RunCycle, clock, logger, m),
		scheduler.NewLoop("sweep", cfg.SweepInterval, constants.CycleTimeout, sweep.RunCycle, clock, logger, m),
	)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	fx.Provide(clockwork.NewRealClock),
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	// repos
	fx.Provide(repository.NewAccountRepository),
	fx.Provide(repository.NewMatchStatsRepository),
	fx.Provide(repository.NewSessionRepository),
	fx.Provide(repository.NewPenaltyRepository),
	fx.Provide(repository.NewNotificationRepository),
	fx.Provide(repository.NewVoteRepository),
	// api client
	fx.Provide(
		api.NewGateway,
		func(g *api.Gateway) service.RiotClient { return g },
		func(g *api.Gateway) server.GatewayStatus { return g },
	),
	notify.Module,
	// svc
	fx.Provide(service.NewPenaltyEngine),
	fx.Provide(service.NewVoteService),
	fx.Provide(service.NewAccountService),
	fx.Provide(service.NewMatchProcessor),
	fx.Provide(service.NewLiveTracker),
	fx.Provide(service.NewReconciler),
	fx.Provide(service.NewRosterSweep),
	fx.Provide(ProvideRunner),
	// server
	fx.Provide(server.NewOpsServer),
)
