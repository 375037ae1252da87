package chart

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
)

// PointView is the set of primitives drawn for one point.
type PointView struct {
	Key Key
	// Visual is the column primitive. It is always registered.
	Visual Handle
	// Hover and Label are created lazily, the first time their feature is
	// enabled, and then live as long as the view.
	Hover Handle
	Label Handle
	// IsNew is true when Visual was created by the most recent pass.
	IsNew bool
}

// Placement is where a point should be drawn in the current pass.
type Placement struct {
	Point    ChartPoint
	Geometry Geometry
	Label    string
	LabelAt  Position
}

// Features selects the auxiliary primitives a pass should maintain.
type Features struct {
	Hover  bool
	Labels bool
}

// ReconcileStats counts what a reconciliation did to the surface.
type ReconcileStats struct {
	Created int
	Reused  int
	Removed int
	Failed  int
}

type slot struct {
	view  *PointView
	place Placement
}

// PointViewPool keeps the primitives of one series across redraws, reusing
// them for points whose Key persists. It is not safe for concurrent use;
// the owning Series serializes access.
type PointViewPool struct {
	surface Surface
	views   map[Key]*PointView
	current []slot
	log     zerolog.Logger
}

// NewPointViewPool returns an empty pool drawing onto surface.
func NewPointViewPool(surface Surface, log zerolog.Logger) *PointViewPool {
	return &PointViewPool{
		surface: surface,
		views:   make(map[Key]*PointView),
		log:     log,
	}
}

// Len returns the number of live point views.
func (p *PointViewPool) Len() int {
	return len(p.views)
}

// View returns the live view for key.
func (p *PointViewPool) View(key Key) (*PointView, bool) {
	v, ok := p.views[key]
	return v, ok
}

// Views returns the live views in the order of the last reconciled
// sequence.
func (p *PointViewPool) Views() []*PointView {
	out := make([]*PointView, len(p.current))
	for i, s := range p.current {
		out[i] = s.view
	}
	return out
}

// Reconcile matches places against the previous generation. Views whose key
// reappears are moved in place, new keys get freshly registered primitives,
// and views whose key is gone are released. Failures are per point: the
// point is left out of this generation and the error is returned in errs.
func (p *PointViewPool) Reconcile(places []Placement, style Style) (stats ReconcileStats, errs []error) {
	stale := p.views
	next := make(map[Key]*PointView, len(places))
	current := make([]slot, 0, len(places))
	for _, place := range places {
		key := place.Point.Key
		if _, dup := next[key]; dup {
			stats.Failed++
			errs = append(errs, &InvalidValueError{Index: place.Point.Index, Reason: fmt.Sprintf("duplicate key %q", key)})
			continue
		}
		if v, ok := stale[key]; ok {
			delete(stale, key)
			v.IsNew = false
			if err := p.surface.UpdateGeometry(v.Visual, place.Geometry); err != nil {
				errs = append(errs, fmt.Errorf("failed moving %q: %w", key, err))
			}
			next[key] = v
			current = append(current, slot{view: v, place: place})
			stats.Reused++
			continue
		}
		v, err := p.create(place, style)
		if err != nil {
			stats.Failed++
			errs = append(errs, err)
			p.log.Warn().Err(err).Str("key", string(key)).Msg("point excluded")
			continue
		}
		next[key] = v
		current = append(current, slot{view: v, place: place})
		stats.Created++
	}
	// Release in the order the stale views were last drawn.
	for _, s := range p.current {
		v, ok := stale[s.view.Key]
		if !ok || v != s.view {
			continue
		}
		delete(stale, v.Key)
		errs = append(errs, p.release(v)...)
		stats.Removed++
	}
	// Anything left was never placed in the previous order.
	for _, v := range stale {
		errs = append(errs, p.release(v)...)
		stats.Removed++
	}
	p.views = next
	p.current = current
	return stats, errs
}

func (p *PointViewPool) create(place Placement, style Style) (*PointView, error) {
	key := place.Point.Key
	h := newHandle(RoleColumn, key)
	if err := p.surface.RegisterPrimitive(h, style); err != nil {
		return nil, &PrimitiveRegistrationError{Key: key, Role: RoleColumn, Err: err}
	}
	if err := p.surface.UpdateGeometry(h, place.Geometry); err != nil {
		_ = p.surface.RemovePrimitive(h)
		return nil, &PrimitiveRegistrationError{Key: key, Role: RoleColumn, Err: err}
	}
	return &PointView{Key: key, Visual: h, IsNew: true}, nil
}

// release removes every primitive of v from the surface and invalidates
// its handles.
func (p *PointViewPool) release(v *PointView) []error {
	var errs []error
	for _, h := range []*Handle{&v.Visual, &v.Hover, &v.Label} {
		if !h.Valid() {
			continue
		}
		if err := p.surface.RemovePrimitive(*h); err != nil {
			errs = append(errs, fmt.Errorf("failed removing %s primitive of %q: %w", h.Role, v.Key, err))
		}
		*h = Handle{}
	}
	return errs
}

// Attach maintains the auxiliary primitives of the current generation:
// hover shapes and data labels are created the first time their feature
// is enabled and repositioned on later passes.
func (p *PointViewPool) Attach(f Features, style Style) []error {
	var errs []error
	hover := hoverStyle(style)
	label := labelStyle(style)
	for _, s := range p.current {
		v, place := s.view, s.place
		switch {
		case v.Hover.Valid():
			if err := p.surface.UpdateGeometry(v.Hover, place.Geometry); err != nil {
				errs = append(errs, fmt.Errorf("failed moving hover of %q: %w", v.Key, err))
			}
		case f.Hover:
			h, err := p.createHover(v.Key, place.Geometry, hover)
			if err != nil {
				errs = append(errs, err)
				break
			}
			v.Hover = h
		}
		switch {
		case v.Label.Valid():
			if err := p.surface.UpdateLabel(v.Label, place.Label, place.LabelAt); err != nil {
				errs = append(errs, fmt.Errorf("failed moving label of %q: %w", v.Key, err))
			}
		case f.Labels:
			h, err := p.createLabel(v.Key, place, label)
			if err != nil {
				errs = append(errs, err)
				break
			}
			v.Label = h
		}
	}
	return errs
}

func (p *PointViewPool) createHover(key Key, g Geometry, style Style) (Handle, error) {
	h := newHandle(RoleHover, key)
	if err := p.surface.RegisterPrimitive(h, style); err != nil {
		return Handle{}, &PrimitiveRegistrationError{Key: key, Role: RoleHover, Err: err}
	}
	err := p.surface.AttachHoverable(h)
	if err == nil {
		err = p.surface.UpdateGeometry(h, g)
	}
	if err != nil {
		_ = p.surface.RemovePrimitive(h)
		return Handle{}, &PrimitiveRegistrationError{Key: key, Role: RoleHover, Err: err}
	}
	return h, nil
}

func (p *PointViewPool) createLabel(key Key, place Placement, style Style) (Handle, error) {
	h := newHandle(RoleLabel, key)
	if err := p.surface.AddLabel(h, place.Label, place.LabelAt); err != nil {
		return Handle{}, &PrimitiveRegistrationError{Key: key, Role: RoleLabel, Err: err}
	}
	if err := p.surface.UpdateStyle(h, style); err != nil {
		_ = p.surface.RemovePrimitive(h)
		return Handle{}, &PrimitiveRegistrationError{Key: key, Role: RoleLabel, Err: err}
	}
	return h, nil
}

// Restyle pushes style to every live primitive.
func (p *PointViewPool) Restyle(style Style) []error {
	var errs []error
	hover := hoverStyle(style)
	label := labelStyle(style)
	for _, s := range p.current {
		v := s.view
		if err := p.surface.UpdateStyle(v.Visual, style); err != nil {
			errs = append(errs, err)
		}
		if v.Hover.Valid() {
			if err := p.surface.UpdateStyle(v.Hover, hover); err != nil {
				errs = append(errs, err)
			}
		}
		if v.Label.Valid() {
			if err := p.surface.UpdateStyle(v.Label, label); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errs
}

// Erase releases every view in the pool.
func (p *PointViewPool) Erase() []error {
	var errs []error
	for _, s := range p.current {
		errs = append(errs, p.release(s.view)...)
		delete(p.views, s.view.Key)
	}
	for _, v := range p.views {
		errs = append(errs, p.release(v)...)
	}
	p.views = make(map[Key]*PointView)
	p.current = nil
	return errs
}

// hoverStyle is transparent, unstroked and drawn above everything else.
func hoverStyle(style Style) Style {
	return Style{
		Visible: style.Visible,
		ZIndex:  math.MaxInt32,
	}
}

// labelStyle draws text in the series foreground just below the hover
// shapes.
func labelStyle(style Style) Style {
	return Style{
		Foreground: style.Foreground,
		Visible:    style.Visible,
		ZIndex:     math.MaxInt32 - 1,
	}
}
