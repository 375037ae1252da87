package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"git.sr.ht/~gioverse/skel/stream"
	"github.com/rs/zerolog"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"git.sr.ht/~whereswaldon/livechart/backend"
	"git.sr.ht/~whereswaldon/livechart/chart"
	"git.sr.ht/~whereswaldon/livechart/giosurface"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

var pauseIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.AVPause)
	return icon
}()

var playIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.AVPlayArrow)
	return icon
}()

// UI holds the state of the viewer window and draws it.
type UI struct {
	th      *material.Theme
	surface *giosurface.Surface
	binding *backend.Binding
	updates *stream.Stream[backend.Update]
	ds      *backend.Dataset
	log     zerolog.Logger

	percent  widget.Bool
	pauseBtn widget.Clickable
	paused   bool
	legend   Legend

	// pending is the newest update not yet applied because the view is
	// paused.
	pending   *backend.Dataset
	dMin      float64
	dMax      float64
	nCats     int
	dirty     bool
	lastSize  image.Point
	lastScale giosurface.Scale
	status    string
	errText   string
}

func NewUI(controller *stream.Controller, path string, mode chart.StackMode, labels bool, invalidate func(), log zerolog.Logger) *UI {
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()), text.NoSystemFonts())
	surface := giosurface.New(invalidate, log)
	d := chart.ColumnDefaults()
	d.DataLabels = labels
	ui := &UI{
		th:      th,
		surface: surface,
		binding: backend.NewBinding(surface, d, mode, log),
		log:     log,
	}
	ui.percent.Value = mode == chart.StackPercentage
	ui.updates = stream.New(controller, func(ctx context.Context) <-chan backend.Update {
		w, err := backend.NewWatcher(path, log)
		if err != nil {
			out := make(chan backend.Update, 1)
			out <- backend.Update{Err: err}
			close(out)
			return out
		}
		return w.Run(ctx)
	})
	return ui
}

// Update applies new data and control changes. It is called once at the
// start of every frame.
func (ui *UI) Update(gtx C) {
	if u, isNew := ui.updates.ReadNew(gtx); isNew {
		if u.Err != nil {
			ui.errText = u.Err.Error()
			ui.log.Error().Err(u.Err).Msg("data source failed")
		}
		if u.Data != nil {
			ui.pending = u.Data
		}
	}
	if ui.pauseBtn.Clicked(gtx) {
		ui.paused = !ui.paused
		ui.log.Debug().Bool("paused", ui.paused).Msg("toggled pause")
	}
	if ui.pending != nil && !ui.paused {
		ui.apply(ui.pending)
		ui.pending = nil
	}
	if ui.percent.Update(gtx) {
		mode := chart.StackValues
		if ui.percent.Value {
			mode = chart.StackPercentage
		}
		if err := ui.binding.SetMode(mode); err != nil {
			ui.errText = err.Error()
		}
		ui.dirty = true
	}
}

// apply makes ds the dataset on screen. The watcher keeps inserting into
// ds, so its domain is read here and not on every frame.
func (ui *UI) apply(ds *backend.Dataset) {
	ui.ds = ds
	ui.dMin, ui.dMax = ds.Domain()
	ui.nCats = len(ds.Categories())
	if err := ui.binding.Update(ds); err != nil {
		ui.errText = err.Error()
	}
	ui.dirty = true
}

// redraw lays the chart out again when the data, the mode or the plot size
// changed since the previous frame.
func (ui *UI) redraw(size image.Point) giosurface.Scale {
	if ui.ds == nil {
		return giosurface.Scale{Size: size}
	}
	dMin, dMax := ui.dMin, ui.dMax
	group := ui.binding.Group()
	if ui.dirty || size != ui.lastSize {
		sc := giosurface.NewScale(size, dMin, dMax, 0, 0)
		res, err := ui.binding.Redraw(context.Background(), chart.Viewport{UnitWidth: sc.UnitWidth()})
		if err != nil {
			ui.errText = err.Error()
			ui.log.Error().Err(err).Msg("redraw failed")
		} else {
			ui.errText = ""
			for _, err := range res.Errors() {
				ui.log.Warn().Err(err).Msg("redraw")
			}
			ui.status = fmt.Sprintf("%d series, %d categories, %d primitives",
				len(group.Members()), ui.nCats, ui.surface.Len())
		}
		ui.dirty = false
		ui.lastSize = size
	}
	low, high := group.Extent()
	ui.lastScale = giosurface.NewScale(size, dMin, dMax, low, high)
	return ui.lastScale
}

func (ui *UI) layoutControls(gtx C) D {
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			icon := pauseIcon
			if ui.paused {
				icon = playIcon
			}
			return material.Clickable(gtx, &ui.pauseBtn, func(gtx C) D {
				return layout.UniformInset(4).Layout(gtx, func(gtx C) D {
					gtx.Constraints.Min = image.Pt(gtx.Dp(24), gtx.Dp(24))
					gtx.Constraints.Max = gtx.Constraints.Min
					return icon.Layout(gtx, ui.th.Fg)
				})
			})
		}),
		layout.Rigid(material.CheckBox(ui.th, &ui.percent, "Stack by percentage").Layout),
		layout.Flexed(1, func(gtx C) D {
			l := material.Body2(ui.th, ui.status)
			if ui.errText != "" {
				l = material.Body2(ui.th, ui.errText)
				l.Color = color.NRGBA{R: 150, A: 255}
			}
			l.Alignment = text.End
			l.MaxLines = 1
			return l.Layout(gtx)
		}),
	)
}

func (ui *UI) layoutAxis(gtx C, sc giosurface.Scale) D {
	return layout.Flex{Axis: layout.Vertical, Spacing: layout.SpaceBetween}.Layout(gtx,
		layout.Rigid(material.Caption(ui.th, ui.axisLabel(sc.RangeMax)).Layout),
		layout.Rigid(material.Caption(ui.th, ui.axisLabel(sc.RangeMin)).Layout),
	)
}

func (ui *UI) axisLabel(v float64) string {
	if ui.binding.Mode() == chart.StackPercentage {
		return strconv.FormatFloat(v*100, 'f', 0, 64) + "%"
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// tooltip describes every series at the hovered category.
func (ui *UI) tooltip() string {
	key, ok := ui.surface.Hovered()
	if !ok {
		return ""
	}
	parts := []string{"category " + string(key)}
	for _, m := range ui.binding.Group().Members() {
		for _, p := range m.Points() {
			if p.Key != key || p.Invalid {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s %s (%.1f%%)",
				m.Name(), strconv.FormatFloat(p.Y, 'g', 6, 64), p.Share*100))
		}
	}
	return strings.Join(parts, "  ")
}

// Layout the UI into the provided context.
func (ui *UI) Layout(gtx C) D {
	ui.Update(gtx)
	if ui.ds == nil {
		l := material.Body1(ui.th, "Waiting for data...")
		if ui.errText != "" {
			l.Text = ui.errText
		}
		return layout.Center.Layout(gtx, l.Layout)
	}
	return layout.UniformInset(unit.Dp(8)).Layout(gtx, func(gtx C) D {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(ui.layoutControls),
			layout.Flexed(1, func(gtx C) D {
				return layout.Flex{}.Layout(gtx,
					layout.Rigid(func(gtx C) D {
						gtx.Constraints.Min.Y = gtx.Constraints.Max.Y
						gtx.Constraints.Max.X = gtx.Dp(48)
						return ui.layoutAxis(gtx, ui.lastScale)
					}),
					layout.Flexed(1, func(gtx C) D {
						sc := ui.redraw(gtx.Constraints.Max)
						return ui.surface.Layout(gtx, ui.th, sc)
					}),
				)
			}),
			layout.Rigid(func(gtx C) D {
				l := material.Body2(ui.th, ui.tooltip())
				l.MaxLines = 1
				gtx.Constraints.Min.Y = gtx.Sp(20)
				return l.Layout(gtx)
			}),
			layout.Rigid(func(gtx C) D {
				gtx.Constraints.Max.Y = min(gtx.Constraints.Max.Y, gtx.Dp(160))
				return ui.legend.Layout(gtx, ui.th, ui.binding.Group())
			}),
		)
	})
}
