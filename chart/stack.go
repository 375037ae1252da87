package chart

// StackConfig is shared read-only by every series of a stack group for the
// duration of one redraw.
type StackConfig struct {
	Mode StackMode
}

// accumulator holds the running totals of one category.
type accumulator struct {
	positive, negative float64
}

// StackGroupState holds the per-category totals of a single stacking pass.
// It is rebuilt from scratch on every redraw.
type StackGroupState struct {
	mode   StackMode
	totals map[float64]*accumulator
	tops   map[float64]*accumulator
	// categories in the order they were first seen.
	categories []float64
}

func newStackGroupState(mode StackMode) *StackGroupState {
	return &StackGroupState{
		mode:   mode,
		totals: make(map[float64]*accumulator),
		tops:   make(map[float64]*accumulator),
	}
}

// total returns the totals of category x, recording x the first time it
// is seen.
func (s *StackGroupState) total(x float64) *accumulator {
	acc, ok := s.totals[x]
	if !ok {
		acc = &accumulator{}
		s.totals[x] = acc
		s.categories = append(s.categories, x)
	}
	return acc
}

// top returns the running offsets of category x.
func (s *StackGroupState) top(x float64) *accumulator {
	acc, ok := s.tops[x]
	if !ok {
		acc = &accumulator{}
		s.tops[x] = acc
	}
	return acc
}

// Categories returns every category seen by the pass, in first-seen order.
func (s *StackGroupState) Categories() []float64 {
	return s.categories
}

// Totals returns the sum of positive values and the sum of negative values
// at category x.
func (s *StackGroupState) Totals(x float64) (positive, negative float64) {
	acc, ok := s.totals[x]
	if !ok {
		return 0, 0
	}
	return acc.positive, acc.negative
}

// Tops returns the final accumulated offsets at category x, in the units
// of the pass's mode.
func (s *StackGroupState) Tops(x float64) (positive, negative float64) {
	acc, ok := s.tops[x]
	if !ok {
		return 0, 0
	}
	return acc.positive, acc.negative
}

// Extent returns the lowest base and the highest top produced by the pass.
// Both always include zero.
func (s *StackGroupState) Extent() (low, high float64) {
	for _, acc := range s.tops {
		low = min(low, acc.negative)
		high = max(high, acc.positive)
	}
	return low, high
}

// Stack lays out the points of every series in series, which must be in
// registration order. Base and Top of each valid point are overwritten and
// SeriesIndex is set to the position of its series. In percentage mode the
// category totals are gathered first, and every point is then stacked by
// its share of the total on its sign side. A side whose total is zero
// yields zero-height points.
func Stack(cfg StackConfig, series [][]ChartPoint) *StackGroupState {
	state := newStackGroupState(cfg.Mode)
	for si, points := range series {
		for i := range points {
			p := &points[i]
			if p.Invalid {
				continue
			}
			p.SeriesIndex = si
			acc := state.total(p.X)
			if p.Y >= 0 {
				acc.positive += p.Y
			} else {
				acc.negative += p.Y
			}
		}
	}
	for _, points := range series {
		for i := range points {
			p := &points[i]
			if p.Invalid {
				continue
			}
			value := p.Y
			total := state.totals[p.X]
			if p.Y >= 0 {
				p.Share = share(p.Y, total.positive)
			} else {
				p.Share = -share(p.Y, total.negative)
			}
			if cfg.Mode == StackPercentage {
				value = p.Share
			}
			acc := state.top(p.X)
			if p.Y >= 0 {
				p.Base = acc.positive
				p.Top = p.Base + value
				acc.positive = p.Top
			} else {
				p.Base = acc.negative
				p.Top = p.Base + value
				acc.negative = p.Top
			}
		}
	}
	return state
}

// share returns |v / total|, or zero when total is zero.
func share(v, total float64) float64 {
	if total == 0 {
		return 0
	}
	r := v / total
	if r < 0 {
		r = -r
	}
	return r
}
