package giosurface

import (
	"image"
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget/material"
	"golang.org/x/exp/constraints"

	"git.sr.ht/~whereswaldon/livechart/chart"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

// Scale converts data units to pixels within an area of Size.
type Scale struct {
	DomainMin, DomainMax float64
	RangeMin, RangeMax   float64
	Size                 image.Point
}

// NewScale fits the categories [domainMin, domainMax] and the values
// [rangeMin, rangeMax] into size. Every category gets one slot of equal
// width and the value range always includes zero.
func NewScale(size image.Point, domainMin, domainMax, rangeMin, rangeMax float64) Scale {
	rangeMin = min(rangeMin, 0)
	rangeMax = max(rangeMax, 0)
	if rangeMax == rangeMin {
		rangeMax = rangeMin + 1
	}
	if domainMax < domainMin {
		domainMin, domainMax = domainMax, domainMin
	}
	return Scale{
		DomainMin: domainMin,
		DomainMax: domainMax,
		RangeMin:  rangeMin,
		RangeMax:  rangeMax,
		Size:      size,
	}
}

// UnitWidth is the pixel width of one category slot.
func (s Scale) UnitWidth() float64 {
	return float64(s.Size.X) / (s.DomainMax - s.DomainMin + 1)
}

// X returns the pixel centre of category x.
func (s Scale) X(x float64) float32 {
	return float32((x - s.DomainMin + 0.5) * s.UnitWidth())
}

// Y returns the pixel row of value v.
func (s Scale) Y(v float64) float32 {
	return float32(s.Size.Y) - float32((v-s.RangeMin)/(s.RangeMax-s.RangeMin))*float32(s.Size.Y)
}

// Rect returns the pixel bounds of a column.
func (s Scale) Rect(g chart.Geometry) image.Rectangle {
	half := float32(g.Width) / 2
	x := s.X(g.X)
	yTop, yBase := s.Y(g.Top), s.Y(g.Base)
	return image.Rectangle{
		Min: image.Pt(int(floor(x-half)), int(floor(min(yTop, yBase)))),
		Max: image.Pt(int(ceil(x+half)), int(ceil(max(yTop, yBase)))),
	}
}

func ceil[T constraints.Integer | constraints.Float](a T) T {
	return T(math.Ceil(float64(a)))
}

func floor[T constraints.Integer | constraints.Float](a T) T {
	return T(math.Floor(float64(a)))
}

// hoverAt returns the key of the topmost hoverable primitive containing pos.
func hoverAt(prims []primitive, sc Scale, pos f32.Point) (chart.Key, bool) {
	pt := image.Pt(int(pos.X), int(pos.Y))
	for i := len(prims) - 1; i >= 0; i-- {
		p := prims[i]
		if !p.hoverable {
			continue
		}
		if pt.In(sc.Rect(p.geom)) {
			return p.handle.Key, true
		}
	}
	return "", false
}

// Update processes pointer events for the area laid out by the previous
// frame.
func (s *Surface) Update(gtx C, sc Scale) {
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: s,
			Kinds:  pointer.Enter | pointer.Leave | pointer.Move,
		})
		if !ok {
			break
		}
		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch pe.Kind {
		case pointer.Enter, pointer.Move:
			key, hit := hoverAt(s.snapshot(), sc, pe.Position)
			s.lock.Lock()
			if hit && key != s.hovered {
				s.log.Debug().Str("key", string(key)).Msg("hover")
			}
			s.hovered, s.isHovered = key, hit
			s.lock.Unlock()
		case pointer.Leave, pointer.Cancel:
			s.lock.Lock()
			s.hovered, s.isHovered = "", false
			s.lock.Unlock()
		}
	}
}

// Layout paints every visible primitive scaled by sc into the full
// constraints of gtx.
func (s *Surface) Layout(gtx C, th *material.Theme, sc Scale) D {
	s.Update(gtx, sc)
	size := gtx.Constraints.Max
	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, s)

	hovered, isHovered := s.Hovered()
	for _, p := range s.snapshot() {
		switch p.handle.Role {
		case chart.RoleColumn:
			s.layoutColumn(gtx, sc, p, isHovered && p.handle.Key == hovered)
		case chart.RoleLabel:
			s.layoutLabel(gtx, th, sc, p)
		}
	}
	return D{Size: size}
}

func (s *Surface) layoutColumn(gtx C, sc Scale, p primitive, highlight bool) {
	r := sc.Rect(p.geom)
	if r.Empty() {
		return
	}
	fill := p.style.Fill
	if highlight {
		fill = lighten(fill)
	}
	paint.FillShape(gtx.Ops, fill, clip.Rect(r).Op())
	if p.style.StrokeThickness > 0 && p.style.Stroke.A > 0 {
		paint.FillShape(gtx.Ops, p.style.Stroke, clip.Stroke{
			Path:  clip.Rect(r).Path(),
			Width: float32(gtx.Dp(1)) * float32(p.style.StrokeThickness),
		}.Op())
	}
}

func (s *Surface) layoutLabel(gtx C, th *material.Theme, sc Scale, p primitive) {
	l := material.Body2(th, p.text)
	l.MaxLines = 1
	if p.style.Foreground.A > 0 {
		l.Color = p.style.Foreground
	}
	origConstraints := gtx.Constraints
	gtx.Constraints.Min = image.Point{}
	macro := op.Record(gtx.Ops)
	dims := l.Layout(gtx)
	call := macro.Stop()
	gtx.Constraints = origConstraints

	at := image.Pt(
		int(sc.X(p.pos.X))-dims.Size.X/2,
		int(sc.Y(p.pos.Y))-dims.Size.Y/2,
	)
	stack := op.Offset(at).Push(gtx.Ops)
	call.Add(gtx.Ops)
	stack.Pop()
}

func lighten(c color.NRGBA) color.NRGBA {
	mix := func(v uint8) uint8 {
		return v + (0xff-v)/3
	}
	return color.NRGBA{R: mix(c.R), G: mix(c.G), B: mix(c.B), A: c.A}
}
