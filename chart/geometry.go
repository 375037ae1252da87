package chart

import (
	"strconv"

	"golang.org/x/exp/constraints"
)

// Viewport describes the device space a redraw lays columns out into.
type Viewport struct {
	// UnitWidth is the device width of one category step.
	UnitWidth float64
}

func clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	return max(lo, min(v, hi))
}

// columnWidth caps the space available per category by the configured
// padding and maximum width. With no known unit width the maximum is used.
func columnWidth(vp Viewport, padding, maxWidth float64) float64 {
	if vp.UnitWidth <= 0 {
		return maxWidth
	}
	return clamp(vp.UnitWidth-padding, 0, maxWidth)
}

func place(p ChartPoint, width float64, label string) Placement {
	return Placement{
		Point: p,
		Geometry: Geometry{
			X:     p.X,
			Base:  p.Base,
			Top:   p.Top,
			Width: width,
		},
		Label:   label,
		LabelAt: Position{X: p.X, Y: (p.Base + p.Top) / 2},
	}
}

// DefaultLabel formats the value of a point, or its share of the category
// when the series is stacked by percentage.
func DefaultLabel(p ChartPoint, mode StackMode) string {
	if mode == StackPercentage {
		return strconv.FormatFloat(p.Share*100, 'f', 1, 64) + "%"
	}
	return strconv.FormatFloat(p.Y, 'f', -1, 64)
}
