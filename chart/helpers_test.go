package chart_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/livechart/chart"
	"git.sr.ht/~whereswaldon/livechart/record"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

type sample struct {
	ID    string
	Cat   float64
	Value float64
}

func sampleMapper() *chart.Mapper[sample] {
	return chart.Xy[sample]().
		X(func(s sample, _ int) float64 { return s.Cat }).
		Y(func(s sample, _ int) float64 { return s.Value }).
		Key(func(s sample, _ int) chart.Key { return chart.Key(s.ID) })
}

func newSampleSeries(t *testing.T, name string, surface chart.Surface, items ...sample) *chart.Series[sample] {
	t.Helper()
	s, err := chart.NewSeries(name, surface, sampleMapper(), chart.ColumnDefaults(), zerolog.Nop())
	require.NoError(t, err)
	s.SetValues(items)
	return s
}

func newFloatSeries(t *testing.T, name string, surface chart.Surface, values ...float64) *chart.Series[float64] {
	t.Helper()
	s, err := chart.NewSeries[float64](name, surface, nil, chart.ColumnDefaults(), zerolog.Nop())
	require.NoError(t, err)
	s.SetValues(values)
	return s
}

func keys(views []*chart.PointView) []chart.Key {
	out := make([]chart.Key, len(views))
	for i, v := range views {
		out[i] = v.Key
	}
	return out
}

var _ chart.Surface = (*record.Surface)(nil)
