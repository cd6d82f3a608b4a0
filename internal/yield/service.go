package yield

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/renewable-site-aggregation/internal/grid"
	"github.com/i474232898/renewable-site-aggregation/internal/layout"
	"github.com/i474232898/renewable-site-aggregation/internal/site"
)

var (
	// ErrNoSites is returned when a refresh runs against an empty registry.
	ErrNoSites = errors.New("no sites registered")

	// ErrUnknownSite is returned when a requested site is not part of a run.
	ErrUnknownSite = errors.New("unknown site")
)

// Service runs the resolve, layout and aggregate pipeline against the grid
// from its provider and keeps the resulting runs in a store.
type Service struct {
	store    Store
	provider ResourceProvider
	registry *site.Registry
	workers  int
	logger   *logrus.Logger

	// mu serializes refreshes; Resolve mutates the registry.
	mu sync.Mutex
}

// NewService creates a new Service. workers bounds per-site aggregation concurrency.
func NewService(store Store, provider ResourceProvider, registry *site.Registry, workers int, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		store:    store,
		provider: provider,
		registry: registry,
		workers:  workers,
		logger:   logger,
	}
}

// Refresh fetches the resource grid, resolves every site, builds the layout,
// aggregates all sites and stores the run. On any error nothing is stored and
// the previous run stays current.
func (s *Service) Refresh(ctx context.Context) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registry.Len() == 0 {
		return Run{}, ErrNoSites
	}

	started := time.Now()
	res, err := s.provider.Fetch(ctx)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"provider": s.provider.Name(),
			"error":    err,
		}).Error("resource grid fetch failed")
		return Run{}, fmt.Errorf("fetch resource grid: %w", err)
	}

	run, err := s.compute(res)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"provider": s.provider.Name(),
			"error":    err,
		}).Error("site aggregation failed; keeping last good run")
		return Run{}, err
	}

	s.store.SaveRun(run)

	s.logger.WithFields(logrus.Fields{
		"run_id":   run.ID,
		"provider": run.Provider,
		"sites":    len(run.Sites),
		"cells":    res.Shape().Lon * res.Shape().Lat,
		"steps":    res.Len(),
		"duration": time.Since(started).String(),
	}).Info("site aggregation completed")

	return run, nil
}

func (s *Service) compute(res *grid.Resource) (Run, error) {
	if err := s.registry.Resolve(res.Index); err != nil {
		return Run{}, err
	}
	sites, err := s.registry.Resolved()
	if err != nil {
		return Run{}, err
	}

	lay, err := layout.Build(sites, res.Shape())
	if err != nil {
		return Run{}, err
	}

	agg, err := NewAggregator(res, lay)
	if err != nil {
		return Run{}, err
	}
	series, err := agg.AggregateAll(sites, s.workers)
	if err != nil {
		return Run{}, err
	}

	for _, ss := range series {
		entry := s.logger.WithFields(logrus.Fields{
			"site":    ss.Name,
			"cell":    fmt.Sprintf("%g,%g", ss.Cell.Lon, ss.Cell.Lat),
			"mean_mw": ss.MeanGenerationMW,
			"mean_cf": ss.MeanCapacityFactor,
		})
		if ss.MeanCapacityFactor < 0 || ss.MeanCapacityFactor > 1 {
			entry.Warn("capacity factor outside [0, 1]; check resource model and capacities")
			continue
		}
		entry.Debug("site aggregated")
	}

	return Run{
		ID:         uuid.NewString(),
		ComputedAt: time.Now().UTC(),
		Provider:   s.provider.Name(),
		Axes: Axes{
			Lon: res.Index.Axis(grid.Lon).Values(),
			Lat: res.Index.Axis(grid.Lat).Values(),
		},
		Layout: lay,
		Sites:  series,
	}, nil
}

// Latest returns the most recent run.
func (s *Service) Latest() (Run, error) {
	return s.store.GetLatest()
}

// Site returns the named site's series from the most recent run.
func (s *Service) Site(name string) (SiteSeries, error) {
	run, err := s.store.GetLatest()
	if err != nil {
		return SiteSeries{}, err
	}
	ss, ok := run.Site(name)
	if !ok {
		return SiteSeries{}, fmt.Errorf("%w: %q", ErrUnknownSite, name)
	}
	return ss, nil
}

// History returns the named site's summary statistics for every stored run
// computed between from and to (inclusive).
func (s *Service) History(name string, from, to time.Time) ([]HistoryPoint, error) {
	runs, err := s.store.GetRange(from, to)
	if err != nil {
		return nil, err
	}

	var points []HistoryPoint
	for _, run := range runs {
		ss, ok := run.Site(name)
		if !ok {
			continue
		}
		points = append(points, HistoryPoint{
			RunID:              run.ID,
			ComputedAt:         run.ComputedAt,
			MeanGenerationMW:   ss.MeanGenerationMW,
			MeanCapacityFactor: ss.MeanCapacityFactor,
		})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSite, name)
	}
	return points, nil
}
