package chart

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Defaults is applied to a series when it is constructed. Nothing in this
// package reads defaults from global state.
type Defaults struct {
	MaxColumnWidth  float64
	ColumnPadding   float64
	StrokeThickness float64
	Foreground      color.NRGBA
	// Palette provides the fill of a series from its registration index
	// in its stack group, wrapping around.
	Palette    []color.NRGBA
	DataLabels bool
	Hoverable  bool
	// Registry is consulted for a mapper when none is given explicitly.
	Registry *Registry
}

// ColumnDefaults returns the defaults of a stacked column series.
func ColumnDefaults() Defaults {
	return Defaults{
		MaxColumnWidth:  35,
		ColumnPadding:   5,
		StrokeThickness: 0,
		Foreground:      color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		Palette:         Palette,
		Hoverable:       true,
	}
}

// Palette is the default series fill palette.
var Palette = []color.NRGBA{
	{R: 0xa4, G: 0x63, B: 0x3a, A: 0xff},
	{R: 0x85, G: 0x76, B: 0x25, A: 0xff},
	{R: 0x51, G: 0x85, B: 0x4d, A: 0xff},
	{R: 0x2b, G: 0x7f, B: 0xa8, A: 0xff},
	{R: 0x72, G: 0x6c, B: 0xae, A: 0xff},
	{R: 0x97, G: 0x5f, B: 0x91, A: 0xff},
}

// SeriesResult is the outcome of one redraw for one series.
type SeriesResult struct {
	Name string
	// Points is the mapped and stacked sequence, including invalid points.
	Points []ChartPoint
	Stats  ReconcileStats
	// Errs holds the per-point failures of the pass.
	Errs []error
	// Err is set when the series could not be updated at all. Its previous
	// primitives are left untouched.
	Err error
}

// seriesCore is the part of a series that does not depend on its item
// type.
type seriesCore struct {
	lock      sync.Mutex
	requested atomic.Uint64

	name           string
	maxColumnWidth float64
	columnPadding  float64
	mode           StackMode
	style          Style
	features       Features
	labelFn        func(ChartPoint) string
	palette        []color.NRGBA
	fillSet        bool

	points []ChartPoint
	pool   *PointViewPool
	group  atomic.Pointer[StackGroup]
	log    zerolog.Logger
}

func (c *seriesCore) core() *seriesCore { return c }

// Name returns the series name.
func (c *seriesCore) Name() string {
	return c.name
}

// MaxColumnWidth returns the widest a column may be, in device units.
func (c *seriesCore) MaxColumnWidth() float64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.maxColumnWidth
}

// SetMaxColumnWidth sets the widest a column may be. Negative and
// non-finite values are rejected and the previous value kept.
func (c *seriesCore) SetMaxColumnWidth(v float64) error {
	if err := nonNegative("MaxColumnWidth", v); err != nil {
		return err
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.maxColumnWidth = v
	return nil
}

// ColumnPadding returns the gap left between neighbouring columns.
func (c *seriesCore) ColumnPadding() float64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.columnPadding
}

// SetColumnPadding sets the gap left between neighbouring columns.
func (c *seriesCore) SetColumnPadding(v float64) error {
	if err := nonNegative("ColumnPadding", v); err != nil {
		return err
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.columnPadding = v
	return nil
}

func nonNegative(property string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ConfigurationError{Property: property, Value: v, Reason: "must be finite"}
	}
	if v < 0 {
		return &ConfigurationError{Property: property, Value: v, Reason: "must not be negative"}
	}
	return nil
}

func (c *seriesCore) StackMode() StackMode {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.mode
}

func (c *seriesCore) SetStackMode(m StackMode) error {
	if !m.valid() {
		return &ConfigurationError{Property: "StackMode", Value: m, Reason: "must be values or percentage"}
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.mode = m
	return nil
}

// Style returns the style copied onto new primitives.
func (c *seriesCore) Style() Style {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.style
}

// SetStyle changes the series style and pushes it to every live primitive.
func (c *seriesCore) SetStyle(style Style) error {
	if err := nonNegative("StrokeThickness", style.StrokeThickness); err != nil {
		return err
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.style = style
	c.fillSet = true
	return errors.Join(c.pool.Restyle(style)...)
}

// SetDataLabels enables or disables data labels from the next redraw on.
// Labels that already exist are kept and kept in place.
func (c *seriesCore) SetDataLabels(on bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.features.Labels = on
}

// SetHoverable enables or disables hover shapes from the next redraw on.
func (c *seriesCore) SetHoverable(on bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.features.Hover = on
}

// SetLabelFormatter overrides the text of data labels. A nil formatter
// restores DefaultLabel.
func (c *seriesCore) SetLabelFormatter(fn func(ChartPoint) string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.labelFn = fn
}

// Points returns the sequence laid out by the last redraw.
func (c *seriesCore) Points() []ChartPoint {
	c.lock.Lock()
	defer c.lock.Unlock()
	return slices.Clone(c.points)
}

// Views returns the live point views in point order.
func (c *seriesCore) Views() []*PointView {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.pool.Views()
}

// Erase removes every primitive the series owns from the surface.
func (c *seriesCore) Erase() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.points = nil
	return errors.Join(c.pool.Erase()...)
}

// paletteFill gives the series the palette colour of its registration
// index, unless a style was set explicitly. The caller holds the lock.
func (c *seriesCore) paletteFill(index int) {
	if c.fillSet || len(c.palette) == 0 {
		return
	}
	c.style.Fill = c.palette[index%len(c.palette)]
}

// commit reconciles the series' primitives with points. The caller holds
// the lock.
func (c *seriesCore) commit(points []ChartPoint, mode StackMode, vp Viewport) SeriesResult {
	width := columnWidth(vp, c.columnPadding, c.maxColumnWidth)
	label := c.labelFn
	if label == nil {
		label = func(p ChartPoint) string { return DefaultLabel(p, mode) }
	}
	places := make([]Placement, 0, len(points))
	for _, p := range points {
		if p.Invalid {
			continue
		}
		places = append(places, place(p, width, label(p)))
	}
	stats, errs := c.pool.Reconcile(places, c.style)
	c.points = points
	c.log.Debug().
		Int("created", stats.Created).
		Int("reused", stats.Reused).
		Int("removed", stats.Removed).
		Int("failed", stats.Failed).
		Msg("reconciled")
	return SeriesResult{Name: c.name, Points: points, Stats: stats, Errs: errs}
}

// attach runs the auxiliary phase for the last committed generation. The
// caller holds the lock.
func (c *seriesCore) attach(res *SeriesResult) {
	res.Errs = append(res.Errs, c.pool.Attach(c.features, c.style)...)
}

// Series binds a sequence of items of type T to the primitives drawn for
// them.
type Series[T any] struct {
	seriesCore
	mapper *Mapper[T]
	items  []T
}

// NewSeries builds a series named name drawing onto surface. When mapper is
// nil, the mapper registered for T in d.Registry is used, and failing that
// the default mapper for numeric items.
func NewSeries[T any](name string, surface Surface, mapper *Mapper[T], d Defaults, log zerolog.Logger) (*Series[T], error) {
	if mapper == nil {
		var ok bool
		if mapper, ok = Lookup[T](d.Registry); !ok {
			if mapper, ok = defaultMapper[T](); !ok {
				return nil, &MappingError{Series: name, Kind: KindCartesian, Field: FieldY, Reason: fmt.Sprintf("no mapper for item type %s", reflect.TypeFor[T]())}
			}
		}
	}
	if err := nonNegative("MaxColumnWidth", d.MaxColumnWidth); err != nil {
		return nil, err
	}
	if err := nonNegative("ColumnPadding", d.ColumnPadding); err != nil {
		return nil, err
	}
	log = log.With().Str("component", "series").Str("series", name).Logger()
	s := &Series[T]{mapper: mapper}
	s.name = name
	s.maxColumnWidth = d.MaxColumnWidth
	s.columnPadding = d.ColumnPadding
	s.features = Features{Hover: d.Hoverable, Labels: d.DataLabels}
	s.style = Style{
		StrokeThickness: d.StrokeThickness,
		Foreground:      d.Foreground,
		Visible:         true,
	}
	s.palette = d.Palette
	if len(d.Palette) > 0 {
		s.style.Fill = d.Palette[0]
	}
	s.log = log
	s.pool = NewPointViewPool(surface, log)
	return s, nil
}

func defaultMapper[T any]() (*Mapper[T], bool) {
	var zero T
	if m, ok := any(Values()).(*Mapper[T]); ok {
		return m, true
	}
	if _, _, ok := coerce(any(zero)); !ok {
		return nil, false
	}
	return Xy[T]().
		X(func(_ T, i int) float64 { return float64(i) }).
		Y(func(v T, _ int) float64 {
			f, _, _ := coerce(any(v))
			return f
		}), true
}

// SetValues replaces the items of the series. The slice is copied.
func (s *Series[T]) SetValues(items []T) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.items = slices.Clone(items)
}

// Values returns a copy of the items of the series.
func (s *Series[T]) Values() []T {
	s.lock.Lock()
	defer s.lock.Unlock()
	return slices.Clone(s.items)
}

// SetMapper replaces the mapper used by the next redraw.
func (s *Series[T]) SetMapper(m *Mapper[T]) error {
	if m == nil {
		return &ConfigurationError{Property: "Mapper", Value: nil, Reason: "must not be nil"}
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.mapper = m
	return nil
}

// Mapper returns the mapper of the series.
func (s *Series[T]) Mapper() *Mapper[T] {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.mapper
}

// mapPoints maps the current items. The caller holds the lock.
func (s *Series[T]) mapPoints() ([]ChartPoint, []error, error) {
	points, errs, err := s.mapper.Map(s.items)
	var merr *MappingError
	if errors.As(err, &merr) && merr.Series == "" {
		merr.Series = s.name
	}
	if err != nil {
		return points, errs, err
	}
	return points, append(errs, flagDuplicates(points)...), nil
}

// Redraw lays out the series on its own, or with its whole stack group
// when it belongs to one, and reconciles its primitives. Concurrent calls
// are serialized; a call that is overtaken by a newer one while waiting
// returns ErrSuperseded without touching the surface.
func (s *Series[T]) Redraw(ctx context.Context, vp Viewport) (SeriesResult, error) {
	if g := s.stackGroup(); g != nil {
		return g.redrawFor(ctx, vp, &s.seriesCore)
	}
	gen := s.requested.Add(1)
	s.lock.Lock()
	// The series may have joined a group while waiting for the lock.
	if g := s.stackGroup(); g != nil {
		s.lock.Unlock()
		return g.redrawFor(ctx, vp, &s.seriesCore)
	}
	defer s.lock.Unlock()
	if gen != s.requested.Load() {
		return SeriesResult{Name: s.name}, ErrSuperseded
	}
	points, perrs, err := s.mapPoints()
	if err != nil {
		s.log.Warn().Err(err).Msg("mapping failed")
		return SeriesResult{Name: s.name, Err: err}, nil
	}
	Stack(StackConfig{Mode: s.mode}, [][]ChartPoint{points})
	if err := ctx.Err(); err != nil {
		return SeriesResult{Name: s.name}, err
	}
	res := s.commit(points, s.mode, vp)
	s.attach(&res)
	res.Errs = append(perrs, res.Errs...)
	return res, nil
}

func (s *Series[T]) stackGroup() *StackGroup {
	return s.group.Load()
}
