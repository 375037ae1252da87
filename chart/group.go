package chart

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Stackable is implemented by every *Series. It is sealed: only series from
// this package can join a stack group.
type Stackable interface {
	Name() string
	Style() Style
	Points() []ChartPoint
	Views() []*PointView
	core() *seriesCore
	mapPoints() ([]ChartPoint, []error, error)
}

var (
	_ Stackable = (*Series[float64])(nil)
	_ Stackable = (*Series[any])(nil)
)

// RedrawResult is the outcome of one redraw of a stack group, with one
// entry per member in registration order.
type RedrawResult struct {
	Series []SeriesResult
	State  *StackGroupState
}

// Errors returns every error of the pass, series-level errors first.
func (r RedrawResult) Errors() []error {
	var errs []error
	for _, s := range r.Series {
		if s.Err != nil {
			errs = append(errs, s.Err)
		}
	}
	for _, s := range r.Series {
		errs = append(errs, s.Errs...)
	}
	return errs
}

// StackGroup stacks the columns of its members on top of each other. The
// order in which series are registered is the order in which they stack.
type StackGroup struct {
	lock      sync.Mutex
	requested atomic.Uint64
	members   []Stackable
	state     *StackGroupState
	log       zerolog.Logger
}

// NewStackGroup returns an empty stack group.
func NewStackGroup(log zerolog.Logger) *StackGroup {
	return &StackGroup{
		log: log.With().Str("component", "stackgroup").Logger(),
	}
}

// Register appends s to the group. A series can belong to one group only.
func (g *StackGroup) Register(s Stackable) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	c := s.core()
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.group.Load() != nil {
		return &ConfigurationError{Property: "StackGroup", Value: c.name, Reason: "series already belongs to a stack group"}
	}
	c.group.Store(g)
	c.paletteFill(len(g.members))
	g.members = append(g.members, s)
	return nil
}

// Unregister removes s from the group and erases its primitives. The
// remaining members keep their relative order.
func (g *StackGroup) Unregister(s Stackable) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	idx := slices.Index(g.members, s)
	if idx < 0 {
		return nil
	}
	g.members = slices.Delete(g.members, idx, idx+1)
	c := s.core()
	c.lock.Lock()
	defer c.lock.Unlock()
	c.group.Store(nil)
	c.points = nil
	return errors.Join(c.pool.Erase()...)
}

// Members returns the registered series in stacking order.
func (g *StackGroup) Members() []Stackable {
	g.lock.Lock()
	defer g.lock.Unlock()
	return slices.Clone(g.members)
}

// Extent returns the lowest base and highest top of the last redraw.
func (g *StackGroup) Extent() (low, high float64) {
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.state == nil {
		return 0, 0
	}
	return g.state.Extent()
}

// Redraw runs one full pass over the group: every member is mapped, the
// group is stacked, and each member's primitives are reconciled and then
// given their hover shapes and labels. A member whose mapping fails keeps
// its previous primitives and is left out of the stack; the others are
// unaffected. Concurrent calls are serialized, and a call overtaken by a
// newer one while waiting returns ErrSuperseded.
func (g *StackGroup) Redraw(ctx context.Context, vp Viewport) (RedrawResult, error) {
	res, _, err := g.redraw(ctx, vp)
	return res, err
}

func (g *StackGroup) redraw(ctx context.Context, vp Viewport) (RedrawResult, []Stackable, error) {
	gen := g.requested.Add(1)
	g.lock.Lock()
	defer g.lock.Unlock()
	if gen != g.requested.Load() {
		return RedrawResult{}, nil, ErrSuperseded
	}
	members := slices.Clone(g.members)
	if len(members) == 0 {
		g.state = newStackGroupState(StackValues)
		return RedrawResult{State: g.state}, members, nil
	}
	for _, m := range members {
		m.core().lock.Lock()
		defer m.core().lock.Unlock()
	}

	cfg := StackConfig{Mode: members[0].core().mode}
	results := make([]SeriesResult, len(members))
	points := make([][]ChartPoint, len(members))
	for i, m := range members {
		c := m.core()
		if c.mode != cfg.Mode {
			g.log.Warn().
				Str("series", c.name).
				Stringer("mode", c.mode).
				Stringer("group_mode", cfg.Mode).
				Msg("stack mode differs from the first series; using the group mode")
		}
		pts, perrs, err := m.mapPoints()
		results[i] = SeriesResult{Name: c.name, Errs: perrs, Err: err}
		if err != nil {
			g.log.Warn().Err(err).Str("series", c.name).Msg("mapping failed")
			continue
		}
		points[i] = pts
	}

	state := Stack(cfg, points)

	if err := ctx.Err(); err != nil {
		return RedrawResult{}, nil, err
	}
	for i, m := range members {
		if results[i].Err != nil {
			continue
		}
		r := m.core().commit(points[i], cfg.Mode, vp)
		r.Errs = append(results[i].Errs, r.Errs...)
		results[i] = r
	}
	for i, m := range members {
		if results[i].Err != nil {
			continue
		}
		m.core().attach(&results[i])
	}
	g.state = state
	return RedrawResult{Series: results, State: state}, members, nil
}

// redrawFor redraws the group and returns the result of the member whose
// core is c.
func (g *StackGroup) redrawFor(ctx context.Context, vp Viewport, c *seriesCore) (SeriesResult, error) {
	res, members, err := g.redraw(ctx, vp)
	if err != nil {
		return SeriesResult{Name: c.name}, err
	}
	for i, m := range members {
		if m.core() == c {
			return res.Series[i], nil
		}
	}
	return SeriesResult{Name: c.name}, nil
}
