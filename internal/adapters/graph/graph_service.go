package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/andrescamacho/fleetd/internal/domain/shared"
	"github.com/andrescamacho/fleetd/internal/domain/system"
)

// GraphService serves system graphs and waypoint dictionaries from a
// two-tier cache: an in-memory copy held for the daemon's lifetime and the
// database underneath it. Structural graphs never expire; waypoint trait
// rows do, and an expired dictionary triggers an API rebuild through the
// graph builder.
//
// Concurrent lookups of the same uncached system are collapsed onto one
// build via a per-system mutex with a double-check after acquisition.
type GraphService struct {
	graphRepo    system.SystemGraphRepository
	waypointRepo system.WaypointRepository
	builder      system.GraphBuilder
	logger       zerolog.Logger

	graphs       sync.Map // systemSymbol -> *system.NavigationGraph
	dictionaries sync.Map // systemSymbol -> map[string]*shared.Waypoint
	buildLocks   sync.Map // systemSymbol -> *sync.Mutex
}

// NewGraphService creates the caching graph provider
func NewGraphService(
	graphRepo system.SystemGraphRepository,
	waypointRepo system.WaypointRepository,
	builder system.GraphBuilder,
	logger zerolog.Logger,
) *GraphService {
	return &GraphService{
		graphRepo:    graphRepo,
		waypointRepo: waypointRepo,
		builder:      builder,
		logger:       logger.With().Str("component", "graph_service").Logger(),
	}
}

// GetGraph returns the structural graph for a system, building it from the
// API on a full cache miss
func (s *GraphService) GetGraph(ctx context.Context, systemSymbol string, playerID int) (*system.NavigationGraph, error) {
	if cached, ok := s.graphs.Load(systemSymbol); ok {
		return cached.(*system.NavigationGraph), nil
	}

	graph, err := s.graphRepo.Get(ctx, systemSymbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("system", systemSymbol).Msg("graph cache read failed")
	}
	if graph != nil {
		s.graphs.Store(systemSymbol, graph)
		return graph, nil
	}

	mutex := s.lockFor(systemSymbol)
	mutex.Lock()
	defer mutex.Unlock()

	// Another goroutine may have finished the build while we waited
	if cached, ok := s.graphs.Load(systemSymbol); ok {
		return cached.(*system.NavigationGraph), nil
	}

	return s.build(ctx, systemSymbol, playerID)
}

// WaypointDictionary returns the system's trait-bearing waypoints keyed by
// symbol, rebuilding from the API when the cached rows expired
func (s *GraphService) WaypointDictionary(ctx context.Context, systemSymbol string, playerID int) (map[string]*shared.Waypoint, error) {
	if cached, ok := s.dictionaries.Load(systemSymbol); ok {
		return cached.(map[string]*shared.Waypoint), nil
	}

	fresh, err := s.waypointRepo.IsFresh(ctx, systemSymbol)
	if err != nil {
		return nil, fmt.Errorf("check waypoint cache for %s: %w", systemSymbol, err)
	}
	if fresh {
		dictionary, err := s.loadDictionary(ctx, systemSymbol)
		if err != nil {
			return nil, err
		}
		if len(dictionary) > 0 {
			s.dictionaries.Store(systemSymbol, dictionary)
			return dictionary, nil
		}
	}

	mutex := s.lockFor(systemSymbol)
	mutex.Lock()
	defer mutex.Unlock()

	if cached, ok := s.dictionaries.Load(systemSymbol); ok {
		return cached.(map[string]*shared.Waypoint), nil
	}

	// The build refreshes the waypoint rows as a side effect
	if _, err := s.build(ctx, systemSymbol, playerID); err != nil {
		return nil, err
	}

	dictionary, err := s.loadDictionary(ctx, systemSymbol)
	if err != nil {
		return nil, err
	}
	if len(dictionary) == 0 {
		return nil, fmt.Errorf("no waypoints for system %s after rebuild", systemSymbol)
	}

	s.dictionaries.Store(systemSymbol, dictionary)
	return dictionary, nil
}

// Invalidate drops the in-memory copies of a system so the next read goes
// through the database or the API
func (s *GraphService) Invalidate(systemSymbol string) {
	s.graphs.Delete(systemSymbol)
	s.dictionaries.Delete(systemSymbol)
}

func (s *GraphService) lockFor(systemSymbol string) *sync.Mutex {
	lock, _ := s.buildLocks.LoadOrStore(systemSymbol, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// build fetches the system from the API, persists the graph and caches it.
// Callers hold the per-system lock.
func (s *GraphService) build(ctx context.Context, systemSymbol string, playerID int) (*system.NavigationGraph, error) {
	s.logger.Info().Str("system", systemSymbol).Msg("building system graph from API")

	graph, err := s.builder.BuildSystemGraph(ctx, systemSymbol, playerID)
	if err != nil {
		return nil, fmt.Errorf("build graph for %s: %w", systemSymbol, err)
	}

	if err := s.graphRepo.Save(ctx, graph); err != nil {
		// A cache write failure must not fail the lookup
		s.logger.Warn().Err(err).Str("system", systemSymbol).Msg("failed to persist system graph")
	}

	s.graphs.Store(systemSymbol, graph)
	s.dictionaries.Delete(systemSymbol)
	return graph, nil
}

func (s *GraphService) loadDictionary(ctx context.Context, systemSymbol string) (map[string]*shared.Waypoint, error) {
	waypoints, err := s.waypointRepo.ListBySystem(ctx, systemSymbol)
	if err != nil {
		return nil, fmt.Errorf("load waypoints for %s: %w", systemSymbol, err)
	}

	dictionary := make(map[string]*shared.Waypoint, len(waypoints))
	for _, wp := range waypoints {
		dictionary[wp.Symbol] = wp
	}
	return dictionary, nil
}
