package chart

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nopSurface accepts every instruction.
type nopSurface struct{}

func (nopSurface) RegisterPrimitive(Handle, Style) error      { return nil }
func (nopSurface) RemovePrimitive(Handle) error               { return nil }
func (nopSurface) UpdateGeometry(Handle, Geometry) error      { return nil }
func (nopSurface) UpdateStyle(Handle, Style) error            { return nil }
func (nopSurface) AttachHoverable(Handle) error               { return nil }
func (nopSurface) AddLabel(Handle, string, Position) error    { return nil }
func (nopSurface) UpdateLabel(Handle, string, Position) error { return nil }

func TestSeriesRedrawJoinsGroupWhileWaiting(t *testing.T) {
	a, err := NewSeries[float64]("a", nopSurface{}, nil, ColumnDefaults(), zerolog.Nop())
	require.NoError(t, err)
	b, err := NewSeries[float64]("b", nopSurface{}, nil, ColumnDefaults(), zerolog.Nop())
	require.NoError(t, err)
	a.SetValues([]float64{2})
	b.SetValues([]float64{3})
	g := NewStackGroup(zerolog.Nop())
	require.NoError(t, g.Register(a))

	// Hold b while a redraw of it is queued, then join it to the group the
	// way Register does.
	b.lock.Lock()
	done := make(chan SeriesResult)
	go func() {
		res, err := b.Redraw(context.Background(), Viewport{})
		assert.NoError(t, err)
		done <- res
	}()
	for b.requested.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	b.group.Store(g)
	b.paletteFill(1)
	g.lock.Lock()
	g.members = append(g.members, b)
	g.lock.Unlock()
	b.lock.Unlock()

	res := <-done
	require.Len(t, res.Points, 1)
	assert.Equal(t, 2.0, res.Points[0].Base)
	assert.Equal(t, 5.0, res.Points[0].Top)
	assert.Equal(t, 1, res.Points[0].SeriesIndex)
}
