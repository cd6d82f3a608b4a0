package yield_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/renewable-site-aggregation/internal/grid"
	"github.com/i474232898/renewable-site-aggregation/internal/site"
	"github.com/i474232898/renewable-site-aggregation/internal/store"
	"github.com/i474232898/renewable-site-aggregation/internal/yield"
)

type fakeProvider struct {
	res   *grid.Resource
	err   error
	calls int
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Fetch(ctx context.Context) (*grid.Resource, error) {
	p.calls++
	return p.res, p.err
}

// uniformResource is a 3x3 grid around (18.25, -33.0) with a constant value.
func uniformResource(t *testing.T, v float64) *grid.Resource {
	t.Helper()
	ix, err := grid.NewIndex([]float64{18.0, 18.25, 18.5}, []float64{-33.25, -33.0, -32.75})
	require.NoError(t, err)

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	times := []time.Time{start, start.Add(time.Hour)}
	values := sparse.ZerosDense(2, 3, 3)
	for k := 0; k < 2; k++ {
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				values.Set(v, k, i, j)
			}
		}
	}
	res, err := grid.NewResource(ix, times, values)
	require.NoError(t, err)
	return res
}

func newService(t *testing.T, p yield.ResourceProvider, sites ...site.Site) (*yield.Service, *store.MemoryStore, *logtest.Hook) {
	t.Helper()
	reg := site.NewRegistry()
	for _, s := range sites {
		require.NoError(t, reg.Add(s))
	}
	logger, hook := logtest.NewNullLogger()
	st := store.NewMemoryStore(10, 24*time.Hour)
	return yield.NewService(st, p, reg, 2, logger), st, hook
}

func solar(name string, lon, lat, mw float64) site.Site {
	return site.Site{
		Name:        name,
		Technology:  site.TechnologySolar,
		Lon:         lon,
		Lat:         lat,
		CapacityMW:  mw,
		Orientation: &site.Orientation{Tilt: 30, Azimuth: 0},
	}
}

func TestRefreshStoresRun(t *testing.T) {
	p := &fakeProvider{res: uniformResource(t, 0.25)}
	svc, st, _ := newService(t, p,
		solar("bellville", 18.62, -32.94, 4),
		solar("paarl", 18.26, -33.01, 2),
	)

	run, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "fake", run.Provider)
	assert.Equal(t, []float64{18.0, 18.25, 18.5}, run.Axes.Lon)
	assert.InDelta(t, 6.0, run.Layout.Total(), 1e-12)
	require.Len(t, run.Sites, 2)
	assert.Equal(t, "bellville", run.Sites[0].Name)
	assert.InDelta(t, 1.0, run.Sites[0].MeanGenerationMW, 1e-12)
	assert.InDelta(t, 0.25, run.Sites[1].MeanCapacityFactor, 1e-12)

	latest, err := st.GetLatest()
	require.NoError(t, err)
	assert.Equal(t, run.ID, latest.ID)
}

func TestRefreshWithoutSites(t *testing.T) {
	p := &fakeProvider{res: uniformResource(t, 0.25)}
	svc, _, _ := newService(t, p)

	_, err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, yield.ErrNoSites)
	assert.Zero(t, p.calls)
}

func TestRefreshFailureKeepsLastGoodRun(t *testing.T) {
	p := &fakeProvider{res: uniformResource(t, 0.25)}
	svc, _, hook := newService(t, p, solar("paarl", 18.26, -33.01, 2))

	first, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	p.err = errors.New("upstream down")
	_, err = svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)

	latest, err := svc.Latest()
	require.NoError(t, err)
	assert.Equal(t, first.ID, latest.ID)
}

func TestRefreshRejectsSiteOutsideGrid(t *testing.T) {
	p := &fakeProvider{res: uniformResource(t, 0.25)}
	svc, st, _ := newService(t, p,
		solar("paarl", 18.26, -33.01, 2),
		solar("windhoek", 17.08, -22.56, 5),
	)

	_, err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, grid.ErrOutOfRange)
	assert.Contains(t, err.Error(), "windhoek")

	_, err = st.GetLatest()
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRefreshWarnsOnSharedCellCapacityFactor(t *testing.T) {
	p := &fakeProvider{res: uniformResource(t, 0.6)}
	svc, _, hook := newService(t, p,
		solar("a", 18.25, -33.0, 5),
		solar("b", 18.27, -33.02, 7),
	)

	run, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 7.2/5, run.Sites[0].MeanCapacityFactor, 1e-12)

	var warned []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = append(warned, e.Data["site"].(string))
		}
	}
	assert.Equal(t, []string{"a", "b"}, warned)
}

func TestSiteAndHistory(t *testing.T) {
	p := &fakeProvider{res: uniformResource(t, 0.25)}
	svc, _, _ := newService(t, p, solar("paarl", 18.26, -33.01, 2))

	_, err := svc.Site("paarl")
	assert.ErrorIs(t, err, store.ErrNotFound)

	from := time.Now().Add(-time.Minute)
	first, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	p.res = uniformResource(t, 0.5)
	second, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	ss, err := svc.Site("paarl")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ss.MeanGenerationMW, 1e-12)

	_, err = svc.Site("nowhere")
	assert.ErrorIs(t, err, yield.ErrUnknownSite)

	points, err := svc.History("paarl", from, time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, first.ID, points[0].RunID)
	assert.Equal(t, second.ID, points[1].RunID)
	assert.InDelta(t, 0.25, points[0].MeanCapacityFactor, 1e-12)
	assert.InDelta(t, 0.5, points[1].MeanCapacityFactor, 1e-12)

	_, err = svc.History("nowhere", from, time.Now().Add(time.Minute))
	assert.ErrorIs(t, err, yield.ErrUnknownSite)
}
