package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/andrescamacho/fleetd/internal/adapters/api"
	"github.com/andrescamacho/fleetd/internal/adapters/graph"
	"github.com/andrescamacho/fleetd/internal/adapters/metrics"
	"github.com/andrescamacho/fleetd/internal/adapters/persistence"
	"github.com/andrescamacho/fleetd/internal/adapters/routing"
	"github.com/andrescamacho/fleetd/internal/adapters/rpc"
	"github.com/andrescamacho/fleetd/internal/application/auth"
	"github.com/andrescamacho/fleetd/internal/application/common"
	appcontract "github.com/andrescamacho/fleetd/internal/application/contract"
	"github.com/andrescamacho/fleetd/internal/application/mediator"
	appplayer "github.com/andrescamacho/fleetd/internal/application/player"
	"github.com/andrescamacho/fleetd/internal/application/scouting"
	appship "github.com/andrescamacho/fleetd/internal/application/ship"
	"github.com/andrescamacho/fleetd/internal/application/ship/strategies"
	"github.com/andrescamacho/fleetd/internal/domain/container"
	"github.com/andrescamacho/fleetd/internal/domain/shared"
	"github.com/andrescamacho/fleetd/internal/infrastructure/config"
	"github.com/andrescamacho/fleetd/internal/infrastructure/database"
	"github.com/andrescamacho/fleetd/internal/infrastructure/logging"
	"github.com/andrescamacho/fleetd/internal/infrastructure/pidfile"
)

const version = "0.3.0"

func main() {
	force := flag.Bool("force", false, "replace a running daemon instead of refusing to start")
	configPath := flag.String("config", "", "path to config.yaml, default searches the usual locations")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fleetd: load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fleetd: init logging: %v\n", err)
		os.Exit(1)
	}
	log = log.With().Str("version", version).Logger()

	pf := pidfile.New(cfg.Daemon.PIDFile)
	if err := acquirePIDFile(pf, *force); err != nil {
		log.Error().Err(err).Str("pid_file", cfg.Daemon.PIDFile).Msg("another daemon holds the PID file, use --force to replace it")
		os.Exit(1)
	}
	defer func() {
		if err := pf.Release(); err != nil {
			log.Warn().Err(err).Msg("release PID file")
		}
	}()

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("daemon exited with error")
		os.Exit(1)
	}
	log.Info().Msg("daemon stopped")
}

func acquirePIDFile(pf *pidfile.PIDFile, force bool) error {
	if force {
		return pf.ForceAcquire()
	}
	return pf.Acquire()
}

func run(cfg *config.Config, log zerolog.Logger) error {
	clock := shared.NewRealClock()

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Info().Str("type", cfg.Database.Type).Msg("database ready")

	playerRepo := persistence.NewGormPlayerRepository(db, clock)
	waypointRepo := persistence.NewGormWaypointRepository(db, cfg.Cache.WaypointTTL, clock)
	graphRepo := persistence.NewGormSystemGraphRepository(db)
	containerRepo := persistence.NewGormContainerRepository(db, clock)
	containerLogRepo := persistence.NewGormContainerLogRepository(db, clock)
	assignmentRepo := persistence.NewGormShipAssignmentRepository(db, clock)
	marketRepo := persistence.NewGormMarketRepository(db, clock)
	routeRepo := persistence.NewGormRouteRepository(db, clock)

	apiClient := api.NewClient(&cfg.API)
	graphBuilder := api.NewGraphBuilder(apiClient, playerRepo, waypointRepo, log)
	graphService := graph.NewGraphService(graphRepo, waypointRepo, graphBuilder, log)
	shipRepo := api.NewShipRepository(apiClient, playerRepo, graphService)
	solver := routing.NewSolver(cfg.Routing, log)

	med := mediator.NewMediator()
	med.Use(auth.PlayerTokenMiddleware(playerRepo))

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		commandCollector := metrics.NewCommandMetricsCollector()
		if err := commandCollector.Register(); err != nil {
			return fmt.Errorf("register command metrics: %w", err)
		}
		med.Use(metrics.PrometheusMiddleware(commandCollector))
	}

	scanner := appship.NewMarketScanner(apiClient, playerRepo, marketRepo, clock)
	planner := appship.NewRoutePlanner(solver)
	executor := appship.NewRouteExecutor(med, shipRepo, routeRepo, strategies.NewDefaultRefuelStrategy())

	type registration struct {
		request mediator.Request
		handler mediator.RequestHandler
	}
	registrations := []registration{
		{&appship.OrbitShipCommand{}, appship.NewOrbitShipHandler(shipRepo)},
		{&appship.DockShipCommand{}, appship.NewDockShipHandler(shipRepo)},
		{&appship.RefuelShipCommand{}, appship.NewRefuelShipHandler(shipRepo)},
		{&appship.SetFlightModeCommand{}, appship.NewSetFlightModeHandler(shipRepo)},
		{&appship.NavigateDirectCommand{}, appship.NewNavigateDirectHandler(shipRepo, graphService)},
		{&appship.NavigateShipCommand{}, appship.NewNavigateShipHandler(shipRepo, graphService, planner, executor)},
		{&appship.PurchaseCargoCommand{}, appship.NewPurchaseCargoHandler(apiClient, playerRepo, marketRepo)},
		{&appship.JettisonCargoCommand{}, appship.NewJettisonCargoHandler(apiClient, playerRepo)},

		{&scouting.ScoutTourCommand{}, scouting.NewScoutTourHandler(shipRepo, graphService, solver, med, scanner)},
		{&scouting.MarketWorkerCommand{}, scouting.NewMarketWorkerHandler(containerRepo, med, scanner)},
		{&scouting.GetMarketDataQuery{}, scouting.NewGetMarketDataHandler(marketRepo)},
		{&scouting.ListScoutedMarketsQuery{}, scouting.NewListScoutedMarketsHandler(marketRepo)},

		{&appcontract.NegotiateContractCommand{}, appcontract.NewNegotiateContractHandler(apiClient, playerRepo)},
		{&appcontract.AcceptContractCommand{}, appcontract.NewAcceptContractHandler(apiClient, playerRepo)},
		{&appcontract.DeliverContractCommand{}, appcontract.NewDeliverContractHandler(apiClient, playerRepo)},
		{&appcontract.FulfillContractCommand{}, appcontract.NewFulfillContractHandler(apiClient, playerRepo)},
		{&appcontract.BatchContractWorkflowCommand{}, appcontract.NewBatchContractWorkflowHandler(med, shipRepo, appcontract.NewMarketFinder(marketRepo))},

		{&appplayer.RegisterPlayerCommand{}, appplayer.NewRegisterPlayerHandler(playerRepo, apiClient)},
		{&appplayer.SyncPlayerCommand{}, appplayer.NewSyncPlayerHandler(playerRepo, apiClient, clock)},
		{&appplayer.GetPlayerQuery{}, appplayer.NewGetPlayerHandler(playerRepo, apiClient)},
		{&appplayer.ListPlayersQuery{}, appplayer.NewListPlayersHandler(playerRepo)},
	}

	resolver := common.NewPlayerResolver(playerRepo)
	registrations = append(registrations,
		registration{&appship.GetShipQuery{}, appship.NewGetShipHandler(shipRepo, resolver)},
		registration{&appship.ListShipsQuery{}, appship.NewListShipsHandler(shipRepo, resolver)},
	)

	for _, r := range registrations {
		if err := med.Register(reflect.TypeOf(r.request), r.handler); err != nil {
			return fmt.Errorf("register %T handler: %w", r.request, err)
		}
	}

	runtime := rpc.NewContainerRuntime(med, containerRepo, containerLogRepo, assignmentRepo, log, clock, cfg.Daemon.StopGracePeriod)

	// Fleet scouting launches per-ship worker containers, so it needs the
	// runtime and registers after it exists
	scoutMarketsHandler := scouting.NewScoutMarketsHandler(shipRepo, graphService, solver, runtime, assignmentRepo)
	if err := mediator.RegisterHandler[*scouting.ScoutMarketsCommand](med, scoutMarketsHandler); err != nil {
		return fmt.Errorf("register ScoutMarkets handler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Leases from a previous run would deadlock every new container
	released, err := assignmentRepo.ReleaseAllActive(ctx, "daemon_startup")
	if err != nil {
		return fmt.Errorf("release stale ship assignments: %w", err)
	}
	if released > 0 {
		log.Info().Int("count", released).Msg("released stale ship assignments")
	}

	recovered, err := runtime.Recover(ctx)
	if err != nil {
		return fmt.Errorf("recover containers: %w", err)
	}
	if recovered > 0 {
		log.Info().Int("count", recovered).Msg("recovered containers from previous run")
	}

	if cfg.Metrics.Enabled {
		containerCollector := metrics.NewContainerMetricsCollector(func(ctx context.Context) ([]*container.Container, error) {
			return runtime.List(ctx, nil, false)
		}, 0)
		if err := containerCollector.Register(); err != nil {
			return fmt.Errorf("register container metrics: %w", err)
		}
		metrics.SetContainerRecorder(containerCollector)
		containerCollector.Start(ctx)
		defer containerCollector.Stop()

		navigationCollector := metrics.NewNavigationMetricsCollector()
		if err := navigationCollector.Register(); err != nil {
			return fmt.Errorf("register navigation metrics: %w", err)
		}
		metrics.SetNavigationRecorder(navigationCollector)

		httpServer := metrics.NewHTTPServer(&cfg.Metrics)
		httpErr := httpServer.Start()
		go func() {
			if err := <-httpErr; err != nil {
				log.Error().Err(err).Msg("metrics endpoint failed")
			}
		}()
		defer httpServer.Shutdown(context.Background())
		log.Info().Str("addr", httpServer.Addr()).Msg("metrics endpoint up")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Daemon.SocketPath), 0755); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}

	server, err := rpc.NewServer(cfg.Daemon.SocketPath, runtime, version, log)
	if err != nil {
		return fmt.Errorf("start control server: %w", err)
	}

	log.Info().Str("socket", cfg.Daemon.SocketPath).Msg("daemon ready")
	return server.Run(ctx)
}
