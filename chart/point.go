package chart

import (
	"fmt"
	"math"
	"strconv"
)

// Key identifies the data item a ChartPoint was produced from. Two points in
// successive redraws with the same Key are treated as the same visual.
type Key string

// IndexKey is the Key assigned to an item when no key extractor is set.
func IndexKey(index int) Key {
	return Key("#" + strconv.Itoa(index))
}

// ChartPoint is the series-agnostic unit produced by a Mapper. Base and Top
// are filled in by the stacking pass and are in data units.
type ChartPoint struct {
	X, Y                   float64
	Weight                 float64
	Open, High, Low, Close float64
	Radius, Angle          float64

	// Index is the position of the source item in the input sequence.
	Index int
	// SeriesIndex is the registration order of the owning series in its
	// stack group, or -1 until the point has been stacked. A series drawn
	// on its own stacks as the only member of a group.
	SeriesIndex int
	Key         Key

	Base, Top float64
	// Share is the point's fraction of its category total on its sign
	// side. It is only meaningful after a percentage stacking pass.
	Share float64

	// Invalid marks a point whose extraction failed. Invalid points are
	// kept so that indices line up with the input, but they never reach
	// layout or the drawing surface.
	Invalid bool
}

// flagDuplicates marks every valid point whose key was already taken by an
// earlier valid point as invalid, so that one key maps to one column.
func flagDuplicates(points []ChartPoint) []error {
	var errs []error
	seen := make(map[Key]struct{}, len(points))
	for i := range points {
		p := &points[i]
		if p.Invalid {
			continue
		}
		if _, dup := seen[p.Key]; dup {
			p.Invalid = true
			errs = append(errs, &InvalidValueError{Index: p.Index, Reason: fmt.Sprintf("duplicate key %q", p.Key)})
			continue
		}
		seen[p.Key] = struct{}{}
	}
	return errs
}

// Height returns the signed extent of the stacked segment.
func (p ChartPoint) Height() float64 {
	return p.Top - p.Base
}

func (p *ChartPoint) set(f Field, v float64) {
	switch f {
	case FieldX:
		p.X = v
	case FieldY:
		p.Y = v
	case FieldWeight:
		p.Weight = v
	case FieldOpen:
		p.Open = v
	case FieldHigh:
		p.High = v
	case FieldLow:
		p.Low = v
	case FieldClose:
		p.Close = v
	case FieldRadius:
		p.Radius = v
	case FieldAngle:
		p.Angle = v
	}
}

// Get returns the value of the field f.
func (p ChartPoint) Get(f Field) float64 {
	switch f {
	case FieldX:
		return p.X
	case FieldY:
		return p.Y
	case FieldWeight:
		return p.Weight
	case FieldOpen:
		return p.Open
	case FieldHigh:
		return p.High
	case FieldLow:
		return p.Low
	case FieldClose:
		return p.Close
	case FieldRadius:
		return p.Radius
	case FieldAngle:
		return p.Angle
	default:
		return math.NaN()
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
