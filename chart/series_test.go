package chart_test

import (
	"context"
	"errors"
	"image/color"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/livechart/chart"
	"git.sr.ht/~whereswaldon/livechart/record"
)

var ctx = context.Background()

func TestSeriesReconcilesByKey(t *testing.T) {
	surface := record.New()
	s := newSampleSeries(t, "s", surface, sample{"A", 0, 1}, sample{"B", 1, 2}, sample{"C", 2, 3})

	res, err := s.Redraw(ctx, chart.Viewport{UnitWidth: 40})
	require.NoError(t, err)
	require.Empty(t, res.Errs)
	assert.Equal(t, chart.ReconcileStats{Created: 3}, res.Stats)
	before := map[chart.Key]chart.Handle{}
	for _, v := range s.Views() {
		assert.True(t, v.IsNew)
		before[v.Key] = v.Visual
	}

	s.SetValues([]sample{{"B", 1, 5}, {"C", 2, 6}, {"D", 3, 7}})
	res, err = s.Redraw(ctx, chart.Viewport{UnitWidth: 40})
	require.NoError(t, err)
	require.Empty(t, res.Errs)
	assert.Equal(t, chart.ReconcileStats{Created: 1, Reused: 2, Removed: 1}, res.Stats)

	views := s.Views()
	diff(t, []chart.Key{"B", "C", "D"}, keys(views))
	assert.Equal(t, before["B"], views[0].Visual)
	assert.Equal(t, before["C"], views[1].Visual)
	assert.False(t, views[0].IsNew)
	assert.False(t, views[1].IsNew)
	assert.True(t, views[2].IsNew)

	_, ok := surface.Primitive(before["A"])
	assert.False(t, ok, "A should have been removed")
	p, ok := surface.Primitive(views[0].Visual)
	require.True(t, ok)
	assert.Equal(t, 5.0, p.Geometry.Top)
	assert.Equal(t, 3, surface.LiveRole(chart.RoleColumn))
	assert.Equal(t, 3, surface.LiveRole(chart.RoleHover))
}

func TestSeriesRedrawIdempotent(t *testing.T) {
	surface := record.New()
	s := newFloatSeries(t, "s", surface, 1, 2, 3)
	_, err := s.Redraw(ctx, chart.Viewport{})
	require.NoError(t, err)
	registered, removed := surface.Counts()

	res, err := s.Redraw(ctx, chart.Viewport{})
	require.NoError(t, err)
	assert.Equal(t, chart.ReconcileStats{Reused: 3}, res.Stats)
	for _, v := range s.Views() {
		assert.False(t, v.IsNew)
	}
	r2, rm2 := surface.Counts()
	assert.Equal(t, registered, r2)
	assert.Equal(t, removed, rm2)
}

func TestSeriesRegistrationFailureRetried(t *testing.T) {
	surface := record.New()
	errFull := errors.New("surface full")
	surface.RejectWhen(func(h chart.Handle) error {
		if h.Key == "B" && h.Role == chart.RoleColumn {
			return errFull
		}
		return nil
	})
	s := newSampleSeries(t, "s", surface, sample{"A", 0, 1}, sample{"B", 1, 2}, sample{"C", 2, 3})

	res, err := s.Redraw(ctx, chart.Viewport{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Failed)
	require.Len(t, res.Errs, 1)
	var rerr *chart.PrimitiveRegistrationError
	require.ErrorAs(t, res.Errs[0], &rerr)
	assert.Equal(t, chart.Key("B"), rerr.Key)
	assert.ErrorIs(t, res.Errs[0], errFull)
	diff(t, []chart.Key{"A", "C"}, keys(s.Views()))
	assert.Equal(t, 2, surface.LiveRole(chart.RoleColumn))

	surface.RejectWhen(nil)
	res, err = s.Redraw(ctx, chart.Viewport{})
	require.NoError(t, err)
	assert.Equal(t, chart.ReconcileStats{Created: 1, Reused: 2}, res.Stats)
	diff(t, []chart.Key{"A", "B", "C"}, keys(s.Views()))
}

func TestSeriesDuplicateKey(t *testing.T) {
	surface := record.New()
	s := newSampleSeries(t, "s", surface, sample{"A", 0, 1}, sample{"A", 1, 2})
	res, err := s.Redraw(ctx, chart.Viewport{})
	require.NoError(t, err)
	require.Len(t, res.Errs, 1)
	var ierr *chart.InvalidValueError
	require.ErrorAs(t, res.Errs[0], &ierr)
	assert.Equal(t, 1, ierr.Index)
	assert.True(t, res.Points[1].Invalid)
	assert.Equal(t, 1, surface.LiveRole(chart.RoleColumn))
}

func TestSeriesInvalidPointsExcluded(t *testing.T) {
	surface := record.New()
	s := newFloatSeries(t, "s", surface, 1, math.NaN(), 3)
	res, err := s.Redraw(ctx, chart.Viewport{})
	require.NoError(t, err)
	require.Len(t, res.Errs, 1)
	require.Len(t, res.Points, 3)
	assert.True(t, res.Points[1].Invalid)
	diff(t, []chart.Key{chart.IndexKey(0), chart.IndexKey(2)}, keys(s.Views()))
}

func TestSeriesMappingErrorKeepsPrimitives(t *testing.T) {
	surface := record.New()
	s := newSampleSeries(t, "s", surface, sample{"A", 0, 1})
	_, err := s.Redraw(ctx, chart.Viewport{})
	require.NoError(t, err)

	require.NoError(t, s.SetMapper(chart.Xy[sample]()))
	res, err := s.Redraw(ctx, chart.Viewport{})
	require.NoError(t, err)
	var merr *chart.MappingError
	require.ErrorAs(t, res.Err, &merr)
	assert.Equal(t, "s", merr.Series)
	assert.Equal(t, 1, surface.LiveRole(chart.RoleColumn))
	diff(t, []chart.Key{"A"}, keys(s.Views()))
}

func TestSeriesConfigurationRejected(t *testing.T) {
	s := newFloatSeries(t, "s", record.New())
	for _, v := range []float64{-1, math.NaN(), math.Inf(1)} {
		var cerr *chart.ConfigurationError
		assert.ErrorAs(t, s.SetMaxColumnWidth(v), &cerr)
		assert.ErrorAs(t, s.SetColumnPadding(v), &cerr)
	}
	assert.Equal(t, 35.0, s.MaxColumnWidth())
	assert.Equal(t, 5.0, s.ColumnPadding())
	var cerr *chart.ConfigurationError
	assert.ErrorAs(t, s.SetStackMode(chart.StackMode(9)), &cerr)
	assert.Equal(t, chart.StackValues, s.StackMode())
	assert.ErrorAs(t, s.SetMapper(nil), &cerr)
}

func TestSeriesColumnWidth(t *testing.T) {
	type testCase struct {
		unit float64
		want float64
	}
	for _, tc := range []testCase{
		{unit: 0, want: 35},
		{unit: 20, want: 15},
		{unit: 100, want: 35},
		{unit: 3, want: 0},
	} {
		surface := record.New()
		s := newFloatSeries(t, "s", surface, 1)
		_, err := s.Redraw(ctx, chart.Viewport{UnitWidth: tc.unit})
		require.NoError(t, err)
		p, ok := surface.Primitive(s.Views()[0].Visual)
		require.True(t, ok)
		if p.Geometry.Width != tc.want {
			t.Errorf("expected width %f for unit %f, got %f", tc.want, tc.unit, p.Geometry.Width)
		}
	}
}

func TestSeriesAuxiliaryPrimitivesAreLazy(t *testing.T) {
	surface := record.New()
	s := newFloatSeries(t, "s", surface, 10, 20)
	s.SetHoverable(false)
	_, err := s.Redraw(ctx, chart.Viewport{})
	require.NoError(t, err)
	assert.Equal(t, 0, surface.LiveRole(chart.RoleHover))
	assert.Equal(t, 0, surface.LiveRole(chart.RoleLabel))
	for _, v := range s.Views() {
		assert.False(t, v.Hover.Valid())
		assert.False(t, v.Label.Valid())
	}

	s.SetHoverable(true)
	s.SetDataLabels(true)
	_, err = s.Redraw(ctx, chart.Viewport{})
	require.NoError(t, err)
	assert.Equal(t, 2, surface.LiveRole(chart.RoleHover))
	assert.Equal(t, 2, surface.LiveRole(chart.RoleLabel))

	v := s.Views()[1]
	hover, ok := surface.Primitive(v.Hover)
	require.True(t, ok)
	assert.True(t, hover.Hoverable)
	assert.Equal(t, math.MaxInt32, hover.Style.ZIndex)
	assert.Equal(t, color.NRGBA{}, hover.Style.Fill)
	label, ok := surface.Primitive(v.Label)
	require.True(t, ok)
	assert.Equal(t, "20", label.Text)
	assert.Equal(t, chart.Position{X: 1, Y: 10}, label.Position)
	assert.Equal(t, chart.ColumnDefaults().Foreground, label.Style.Foreground)
	assert.Equal(t, math.MaxInt32-1, label.Style.ZIndex)
	assert.True(t, label.Style.Visible)

	// Existing handles survive and follow their point.
	hoverHandle := v.Hover
	s.SetValues([]float64{10, 40})
	_, err = s.Redraw(ctx, chart.Viewport{})
	require.NoError(t, err)
	v = s.Views()[1]
	assert.Equal(t, hoverHandle, v.Hover)
	label, _ = surface.Primitive(v.Label)
	assert.Equal(t, "40", label.Text)
	assert.Equal(t, chart.Position{X: 1, Y: 20}, label.Position)
}

func TestSeriesLabelFormatter(t *testing.T) {
	surface := record.New()
	s := newFloatSeries(t, "s", surface, 3)
	s.SetDataLabels(true)
	s.SetLabelFormatter(func(p chart.ChartPoint) string { return "v" })
	_, err := s.Redraw(ctx, chart.Viewport{})
	require.NoError(t, err)
	label, ok := surface.Primitive(s.Views()[0].Label)
	require.True(t, ok)
	assert.Equal(t, "v", label.Text)
}

func TestSeriesRestylePushesToPrimitives(t *testing.T) {
	surface := record.New()
	s := newFloatSeries(t, "s", surface, 1, 2)
	s.SetDataLabels(true)
	_, err := s.Redraw(ctx, chart.Viewport{})
	require.NoError(t, err)

	red := color.NRGBA{R: 0xff, A: 0xff}
	style := s.Style()
	style.Fill = red
	style.Foreground = red
	require.NoError(t, s.SetStyle(style))
	for _, v := range s.Views() {
		p, ok := surface.Primitive(v.Visual)
		require.True(t, ok)
		assert.Equal(t, red, p.Style.Fill)
		h, ok := surface.Primitive(v.Hover)
		require.True(t, ok)
		assert.Equal(t, color.NRGBA{}, h.Style.Fill)
		l, ok := surface.Primitive(v.Label)
		require.True(t, ok)
		assert.Equal(t, red, l.Style.Foreground)
		assert.Equal(t, color.NRGBA{}, l.Style.Fill)
		assert.Equal(t, math.MaxInt32-1, l.Style.ZIndex)
	}

	style.StrokeThickness = -2
	var cerr *chart.ConfigurationError
	assert.ErrorAs(t, s.SetStyle(style), &cerr)
	assert.Equal(t, 0.0, s.Style().StrokeThickness)
}

func TestSeriesErase(t *testing.T) {
	surface := record.New()
	s := newFloatSeries(t, "s", surface, 1, 2)
	s.SetDataLabels(true)
	_, err := s.Redraw(ctx, chart.Viewport{})
	require.NoError(t, err)
	require.Equal(t, 6, surface.Live())

	require.NoError(t, s.Erase())
	assert.Equal(t, 0, surface.Live())
	assert.Empty(t, s.Views())
	assert.Empty(t, s.Points())

	res, err := s.Redraw(ctx, chart.Viewport{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.Created)
}

func TestSeriesRedrawCancelled(t *testing.T) {
	surface := record.New()
	s := newFloatSeries(t, "s", surface, 1, 2)
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err := s.Redraw(cctx, chart.Viewport{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, surface.Live())
}

// gatedSurface blocks the first registration until release is closed.
type gatedSurface struct {
	*record.Surface
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSurface) RegisterPrimitive(h chart.Handle, style chart.Style) error {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.Surface.RegisterPrimitive(h, style)
}

func TestSeriesRedrawSuperseded(t *testing.T) {
	surface := &gatedSurface{
		Surface: record.New(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newFloatSeries(t, "s", surface, 1)

	first := make(chan error, 1)
	go func() {
		_, err := s.Redraw(ctx, chart.Viewport{})
		first <- err
	}()
	<-surface.entered

	errs := make(chan error, 2)
	for range 2 {
		go func() {
			_, err := s.Redraw(ctx, chart.Viewport{})
			errs <- err
		}()
		// Stagger the waiters so that their generations are ordered.
		time.Sleep(20 * time.Millisecond)
	}
	close(surface.release)

	require.NoError(t, <-first)
	superseded := 0
	for range 2 {
		if err := <-errs; errors.Is(err, chart.ErrSuperseded) {
			superseded++
		} else {
			assert.NoError(t, err)
		}
	}
	assert.Equal(t, 1, superseded)
	assert.Equal(t, 1, surface.LiveRole(chart.RoleColumn))
}

func TestNewSeriesMapperResolution(t *testing.T) {
	type opaque struct{ v float64 }
	_, err := chart.NewSeries[opaque]("o", record.New(), nil, chart.ColumnDefaults(), zerolog.Nop())
	var merr *chart.MappingError
	require.ErrorAs(t, err, &merr)

	reg := chart.NewRegistry()
	chart.Register(reg, chart.Xy[opaque]().
		X(func(_ opaque, i int) float64 { return float64(i) }).
		Y(func(o opaque, _ int) float64 { return o.v }))
	d := chart.ColumnDefaults()
	d.Registry = reg
	s, err := chart.NewSeries[opaque]("o", record.New(), nil, d, zerolog.Nop())
	require.NoError(t, err)
	s.SetValues([]opaque{{2}, {4}})
	res, err := s.Redraw(ctx, chart.Viewport{})
	require.NoError(t, err)
	assert.Equal(t, 4.0, res.Points[1].Top)

	dyn, err := chart.NewSeries[any]("any", record.New(), nil, chart.ColumnDefaults(), zerolog.Nop())
	require.NoError(t, err)
	dyn.SetValues([]any{1, "two"})
	res, err = dyn.Redraw(ctx, chart.Viewport{})
	require.NoError(t, err)
	assert.ErrorAs(t, res.Err, &merr)

	d = chart.ColumnDefaults()
	d.ColumnPadding = -1
	_, err = chart.NewSeries[float64]("bad", record.New(), nil, d, zerolog.Nop())
	var cerr *chart.ConfigurationError
	assert.ErrorAs(t, err, &cerr)
}
