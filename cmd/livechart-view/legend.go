package main

import (
	"fmt"
	"image"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/widget/material"
	"gioui.org/x/component"

	"git.sr.ht/~whereswaldon/livechart/chart"
)

// Legend lists every series of a stack group with its fill colour and the
// sum of the values it was last drawn with.
type Legend struct {
	table component.GridState
}

func (l *Legend) Layout(gtx C, th *material.Theme, group *chart.StackGroup) D {
	members := group.Members()
	table := component.Table(th, &l.table)
	table.HScrollbarStyle.Indicator.MinorWidth = 0
	table.HScrollbarStyle.Track.MinorPadding = 0
	colorColWidth := gtx.Dp(50)
	totalColWidth := gtx.Dp(120)
	nameColWidth := gtx.Constraints.Max.X - colorColWidth - 2*totalColWidth - gtx.Dp(table.VScrollbarStyle.Width())
	rowHeight := gtx.Sp(20)
	const (
		colorCol = iota
		seriesNameCol
		pointsCol
		totalCol
		numCols
	)
	sums := make([]float64, len(members))
	var grandTotal float64
	for i, m := range members {
		for _, p := range m.Points() {
			if !p.Invalid {
				sums[i] += p.Y
			}
		}
		grandTotal += sums[i]
	}
	return table.Layout(gtx, len(members)+1, numCols,
		func(axis layout.Axis, index, constraint int) int {
			if axis == layout.Vertical {
				return min(constraint, rowHeight)
			}
			var size int
			switch index {
			case colorCol:
				size = colorColWidth
			case seriesNameCol:
				size = nameColWidth
			case pointsCol, totalCol:
				size = totalColWidth
			}
			return min(size, constraint)
		},
		func(gtx C, index int) D {
			var lbl material.LabelStyle
			switch index {
			case colorCol:
				lbl = material.Body1(th, "Color")
			case seriesNameCol:
				lbl = material.Body1(th, "Series")
				lbl.Alignment = text.Middle
			case pointsCol:
				lbl = material.Body1(th, "Points")
				lbl.Alignment = text.End
			default:
				lbl = material.Body1(th, "Total")
				lbl.Alignment = text.End
			}
			lbl.Color = th.ContrastFg
			return layout.Background{}.Layout(gtx,
				func(gtx C) D {
					paint.FillShape(gtx.Ops, th.ContrastBg, clip.Rect{Max: gtx.Constraints.Max}.Op())
					return D{Size: gtx.Constraints.Min}
				}, lbl.Layout,
			)
		},
		func(gtx C, row, col int) (dims D) {
			defer func() {
				dims.Size = gtx.Constraints.Constrain(dims.Size)
			}()
			return layout.UniformInset(2).Layout(gtx, func(gtx C) D {
				if row == len(members) {
					switch col {
					case seriesNameCol:
						return material.Body2(th, "Total of all series").Layout(gtx)
					case totalCol:
						lbl := material.Body2(th, fmt.Sprintf("%.2f", grandTotal))
						lbl.Alignment = text.End
						return lbl.Layout(gtx)
					default:
						return D{Size: gtx.Constraints.Min}
					}
				}
				m := members[row]
				switch col {
				case colorCol:
					return layout.Center.Layout(gtx, func(gtx C) D {
						side := gtx.Dp(10)
						sz := image.Pt(side, side)
						paint.FillShape(gtx.Ops, m.Style().Fill, clip.Rect{Max: sz}.Op())
						return D{Size: sz}
					})
				case seriesNameCol:
					return material.Body2(th, m.Name()).Layout(gtx)
				case pointsCol:
					valid := 0
					for _, p := range m.Points() {
						if !p.Invalid {
							valid++
						}
					}
					lbl := material.Body2(th, fmt.Sprintf("%d", valid))
					lbl.Alignment = text.End
					return lbl.Layout(gtx)
				default:
					lbl := material.Body2(th, fmt.Sprintf("%.2f", sums[row]))
					lbl.Alignment = text.End
					return lbl.Layout(gtx)
				}
			})
		})
}
