package backend

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/livechart/chart"
	"git.sr.ht/~whereswaldon/livechart/record"
)

const sampleCSV = `category, cpu, gpu
0, 10, 5
1, 20, 15
2, , 7
3, oops, 1
1, 99, 99
`

func TestDecoder(t *testing.T) {
	var ds Dataset
	n, err := NewDecoder(strings.NewReader(sampleCSV), zerolog.Nop()).Decode(&ds)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	cpu, ok := ds.Lookup("cpu")
	require.True(t, ok)
	assert.Equal(t, []Record{{0, 10}, {1, 20}}, cpu.Records())
	gpu, ok := ds.Lookup("gpu")
	require.True(t, ok)
	assert.Equal(t, []Record{{0, 5}, {1, 15}, {2, 7}, {3, 1}}, gpu.Records())
}

func TestDecoderIncremental(t *testing.T) {
	r, w := io.Pipe()
	defer r.Close()
	dec := NewDecoder(r, zerolog.Nop())
	var ds Dataset

	go func() {
		io.WriteString(w, "category,a\n0,1\n1,")
		w.Close()
	}()
	n, err := dec.Decode(&ds)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	a, _ := ds.Lookup("a")
	assert.Equal(t, 1, a.Len())
}

func TestDecoderBadHeadings(t *testing.T) {
	var ds Dataset
	_, err := NewDecoder(strings.NewReader("category\n0\n"), zerolog.Nop()).Decode(&ds)
	assert.Error(t, err)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"), zerolog.Nop())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatcherFollowsAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("category,a,b\n0,1,2\n"), 0o644))

	w, err := NewWatcher(path, zerolog.Nop())
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	updates := w.Run(ctx)

	first := <-updates
	require.NoError(t, first.Err)
	assert.Equal(t, 2, first.Inserted)
	assert.Equal(t, uint64(1), first.Seq)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString("1,3,4\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	select {
	case u := <-updates:
		require.NoError(t, u.Err)
		assert.Equal(t, 2, u.Inserted)
		assert.Equal(t, uint64(2), u.Seq)
		a, _ := u.Data.Lookup("a")
		assert.Equal(t, []Record{{0, 1}, {1, 3}}, a.Records())
	case <-ctx.Done():
		t.Fatal("timed out waiting for update")
	}
}

func TestBindingStacksDataset(t *testing.T) {
	var ds Dataset
	_, err := NewDecoder(strings.NewReader(sampleCSV), zerolog.Nop()).Decode(&ds)
	require.NoError(t, err)

	surface := record.New()
	b := NewBinding(surface, chart.ColumnDefaults(), chart.StackValues, zerolog.Nop())
	require.NoError(t, b.Update(&ds))
	res, err := b.Redraw(context.Background(), chart.Viewport{UnitWidth: 30})
	require.NoError(t, err)
	require.Empty(t, res.Errors())

	pos, _ := res.State.Tops(1)
	assert.Equal(t, 35.0, pos)
	assert.Equal(t, 6, surface.LiveRole(chart.RoleColumn))

	// Appending a category creates one column and reuses the rest.
	ds.Insert(0, Record{Category: 4, Value: 2})
	require.NoError(t, b.Update(&ds))
	res, err = b.Redraw(context.Background(), chart.Viewport{UnitWidth: 30})
	require.NoError(t, err)
	assert.Equal(t, chart.ReconcileStats{Created: 1, Reused: 2}, res.Series[0].Stats)
	assert.Equal(t, chart.ReconcileStats{Reused: 4}, res.Series[1].Stats)

	require.NoError(t, b.SetMode(chart.StackPercentage))
	res, err = b.Redraw(context.Background(), chart.Viewport{UnitWidth: 30})
	require.NoError(t, err)
	pos, _ = res.State.Tops(0)
	assert.InDelta(t, 1.0, pos, 1e-12)
}
