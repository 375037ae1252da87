package backend

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"git.sr.ht/~whereswaldon/livechart/chart"
)

// RecordMapper maps records to cartesian points keyed by their category.
func RecordMapper() *chart.Mapper[Record] {
	return chart.Xy[Record]().
		X(func(r Record, _ int) float64 { return r.Category }).
		Y(func(r Record, _ int) float64 { return r.Value }).
		Key(func(r Record, _ int) chart.Key {
			return chart.Key(strconv.FormatFloat(r.Category, 'g', -1, 64))
		})
}

// Binding keeps one stacked chart series per dataset series.
type Binding struct {
	surface  chart.Surface
	defaults chart.Defaults
	mode     chart.StackMode
	group    *chart.StackGroup
	series   map[*Series]*chart.Series[Record]
	log      zerolog.Logger
}

// NewBinding returns a binding whose series draw onto surface.
func NewBinding(surface chart.Surface, defaults chart.Defaults, mode chart.StackMode, log zerolog.Logger) *Binding {
	return &Binding{
		surface:  surface,
		defaults: defaults,
		mode:     mode,
		group:    chart.NewStackGroup(log),
		series:   make(map[*Series]*chart.Series[Record]),
		log:      log,
	}
}

func (b *Binding) Group() *chart.StackGroup {
	return b.group
}

// SetMode switches every bound series to mode from the next redraw on.
func (b *Binding) SetMode(mode chart.StackMode) error {
	for _, s := range b.series {
		if err := s.SetStackMode(mode); err != nil {
			return err
		}
	}
	b.mode = mode
	return nil
}

func (b *Binding) Mode() chart.StackMode {
	return b.mode
}

// Update copies the current records of ds into the bound series, creating
// and registering a chart series for every dataset series seen for the
// first time.
func (b *Binding) Update(ds *Dataset) error {
	for _, src := range ds.Series() {
		s, ok := b.series[src]
		if !ok {
			var err error
			s, err = chart.NewSeries(src.Name(), b.surface, RecordMapper(), b.defaults, b.log)
			if err != nil {
				return fmt.Errorf("failed creating series %q: %w", src.Name(), err)
			}
			if err := s.SetStackMode(b.mode); err != nil {
				return err
			}
			if err := b.group.Register(s); err != nil {
				return fmt.Errorf("failed registering series %q: %w", src.Name(), err)
			}
			b.series[src] = s
		}
		s.SetValues(src.Records())
	}
	return nil
}

// Redraw lays out the whole group.
func (b *Binding) Redraw(ctx context.Context, vp chart.Viewport) (chart.RedrawResult, error) {
	return b.group.Redraw(ctx, vp)
}
