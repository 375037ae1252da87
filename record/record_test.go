package record

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/livechart/chart"
)

func handle(role chart.Role, key chart.Key) chart.Handle {
	h := chart.Handle{Role: role, Key: key}
	h.ID[0] = byte(len(key)) + byte(role)
	h.ID[1] = key[0]
	return h
}

func TestSurfaceRejectsDoubleRegistration(t *testing.T) {
	s := New()
	h := handle(chart.RoleColumn, "a")
	require.NoError(t, s.RegisterPrimitive(h, chart.Style{}))
	assert.ErrorIs(t, s.RegisterPrimitive(h, chart.Style{}), ErrAlreadyRegistered)
	assert.Equal(t, 1, s.Live())
}

func TestSurfaceUnknownPrimitive(t *testing.T) {
	s := New()
	h := handle(chart.RoleColumn, "a")
	assert.ErrorIs(t, s.RemovePrimitive(h), ErrUnknownPrimitive)
	assert.ErrorIs(t, s.UpdateGeometry(h, chart.Geometry{}), ErrUnknownPrimitive)
	assert.ErrorIs(t, s.UpdateStyle(h, chart.Style{}), ErrUnknownPrimitive)
	assert.ErrorIs(t, s.AttachHoverable(h), ErrUnknownPrimitive)
	assert.ErrorIs(t, s.UpdateLabel(h, "", chart.Position{}), ErrUnknownPrimitive)
}

func TestSurfaceRejectHook(t *testing.T) {
	s := New()
	errNo := errors.New("no")
	s.RejectWhen(func(h chart.Handle) error {
		if h.Role == chart.RoleLabel {
			return errNo
		}
		return nil
	})
	assert.ErrorIs(t, s.AddLabel(handle(chart.RoleLabel, "a"), "1", chart.Position{}), errNo)
	assert.NoError(t, s.RegisterPrimitive(handle(chart.RoleColumn, "a"), chart.Style{}))
	registered, removed := s.Counts()
	assert.Equal(t, 1, registered)
	assert.Equal(t, 0, removed)
}

func TestSurfaceState(t *testing.T) {
	s := New()
	col := handle(chart.RoleColumn, "a")
	lbl := handle(chart.RoleLabel, "a")
	require.NoError(t, s.RegisterPrimitive(col, chart.Style{Visible: true}))
	require.NoError(t, s.UpdateGeometry(col, chart.Geometry{X: 1, Top: 4, Width: 10}))
	require.NoError(t, s.AttachHoverable(col))
	require.NoError(t, s.AddLabel(lbl, "4", chart.Position{X: 1, Y: 2}))
	require.NoError(t, s.UpdateLabel(lbl, "5", chart.Position{X: 1, Y: 2.5}))

	p, ok := s.Primitive(col)
	require.True(t, ok)
	assert.True(t, p.Hoverable)
	assert.Equal(t, chart.Geometry{X: 1, Top: 4, Width: 10}, p.Geometry)

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, col, snap[0].Handle)
	assert.Equal(t, "5", snap[1].Text)
	assert.Equal(t, 1, s.LiveRole(chart.RoleLabel))

	require.NoError(t, s.RemovePrimitive(col))
	_, ok = s.Primitive(col)
	assert.False(t, ok)
}

func TestFrameRoundTrip(t *testing.T) {
	s := New()
	col := handle(chart.RoleColumn, "k")
	require.NoError(t, s.RegisterPrimitive(col, chart.Style{Visible: true, ZIndex: 3}))
	require.NoError(t, s.UpdateGeometry(col, chart.Geometry{X: 2, Base: 1, Top: 3, Width: 12}))
	require.NoError(t, s.RemovePrimitive(col))

	frame := s.Flush()
	assert.Equal(t, uint64(1), frame.Seq)
	require.Len(t, frame.Instructions, 3)
	ops := []Op{frame.Instructions[0].Op, frame.Instructions[1].Op, frame.Instructions[2].Op}
	assert.Equal(t, []Op{OpRegister, OpGeometry, OpRemove}, ops)

	var buf bytes.Buffer
	require.NoError(t, frame.Encode(&buf))
	decoded, err := DecodeFrame(&buf)
	require.NoError(t, err)
	if d := cmp.Diff(frame, decoded); d != "" {
		t.Error(d)
	}

	next := s.Flush()
	assert.Equal(t, uint64(2), next.Seq)
	assert.Empty(t, next.Instructions)
}

func TestDecodeFrameGarbage(t *testing.T) {
	_, err := DecodeFrame(bytes.NewReader([]byte{0xc1}))
	assert.Error(t, err)
}
