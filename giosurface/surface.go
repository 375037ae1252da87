// Package giosurface draws chart primitives with Gio.
package giosurface

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"git.sr.ht/~whereswaldon/livechart/chart"
)

var (
	errDuplicate = errors.New("primitive already registered")
	errUnknown   = errors.New("unknown primitive")
)

type primitive struct {
	handle    chart.Handle
	style     chart.Style
	geom      chart.Geometry
	hoverable bool
	text      string
	pos       chart.Position
	order     uint64
}

// Surface keeps the primitives registered by chart series and paints them
// on every frame. Its methods may be called from any goroutine; each change
// requests a new frame through the invalidate function.
type Surface struct {
	lock       sync.Mutex
	prims      map[uuid.UUID]*primitive
	order      uint64
	invalidate func()
	log        zerolog.Logger

	// hover gesture state
	hovered   chart.Key
	isHovered bool
}

var _ chart.Surface = (*Surface)(nil)

// New returns an empty surface. invalidate may be nil.
func New(invalidate func(), log zerolog.Logger) *Surface {
	if invalidate == nil {
		invalidate = func() {}
	}
	return &Surface{
		prims:      make(map[uuid.UUID]*primitive),
		invalidate: invalidate,
		log:        log.With().Str("component", "giosurface").Logger(),
	}
}

func (s *Surface) add(h chart.Handle, p *primitive) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.prims[h.ID]; ok {
		return fmt.Errorf("%w: %s %q", errDuplicate, h.Role, h.Key)
	}
	s.order++
	p.handle = h
	p.order = s.order
	s.prims[h.ID] = p
	s.invalidate()
	return nil
}

func (s *Surface) update(h chart.Handle, fn func(p *primitive)) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	p, ok := s.prims[h.ID]
	if !ok {
		return fmt.Errorf("%w: %s %q", errUnknown, h.Role, h.Key)
	}
	fn(p)
	s.invalidate()
	return nil
}

func (s *Surface) RegisterPrimitive(h chart.Handle, style chart.Style) error {
	return s.add(h, &primitive{style: style})
}

func (s *Surface) RemovePrimitive(h chart.Handle) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.prims[h.ID]; !ok {
		return fmt.Errorf("%w: %s %q", errUnknown, h.Role, h.Key)
	}
	delete(s.prims, h.ID)
	s.invalidate()
	return nil
}

func (s *Surface) UpdateGeometry(h chart.Handle, g chart.Geometry) error {
	return s.update(h, func(p *primitive) { p.geom = g })
}

func (s *Surface) UpdateStyle(h chart.Handle, style chart.Style) error {
	return s.update(h, func(p *primitive) { p.style = style })
}

func (s *Surface) AttachHoverable(h chart.Handle) error {
	return s.update(h, func(p *primitive) { p.hoverable = true })
}

func (s *Surface) AddLabel(h chart.Handle, text string, pos chart.Position) error {
	return s.add(h, &primitive{style: chart.Style{Visible: true}, text: text, pos: pos})
}

func (s *Surface) UpdateLabel(h chart.Handle, text string, pos chart.Position) error {
	return s.update(h, func(p *primitive) {
		p.text = text
		p.pos = pos
	})
}

// Len returns the number of registered primitives.
func (s *Surface) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.prims)
}

// Hovered returns the key of the point under the pointer, if any.
func (s *Surface) Hovered() (chart.Key, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.hovered, s.isHovered
}

// snapshot returns the visible primitives in paint order: by z-index, then
// by registration.
func (s *Surface) snapshot() []primitive {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make([]primitive, 0, len(s.prims))
	for _, p := range s.prims {
		if !p.style.Visible {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].style.ZIndex != out[j].style.ZIndex {
			return out[i].style.ZIndex < out[j].style.ZIndex
		}
		return out[i].order < out[j].order
	})
	return out
}
