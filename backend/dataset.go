package backend

import (
	"slices"
	"sync"
)

// Dataset is the set of series read from one CSV source.
type Dataset struct {
	lock   sync.RWMutex
	series []*Series
	// byName maps a heading to the index of its series.
	byName map[string]int
}

// SetHeadings registers a series for each heading that is not known yet.
// It must be invoked at least once prior to the first call to [Insert]. It
// returns, for each heading, the index of its series.
func (d *Dataset) SetHeadings(headings []string) []int {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.byName == nil {
		d.byName = make(map[string]int)
	}
	indices := make([]int, len(headings))
	for i, heading := range headings {
		idx, ok := d.byName[heading]
		if !ok {
			idx = len(d.series)
			d.byName[heading] = idx
			d.series = append(d.series, NewSeries(heading))
		}
		indices[i] = idx
	}
	return indices
}

// Insert the record into the series at index. Will panic if index was not
// returned by a previous call to [SetHeadings].
func (d *Dataset) Insert(index int, r Record) bool {
	d.lock.RLock()
	s := d.series[index]
	d.lock.RUnlock()
	return s.Insert(r)
}

// Series returns the series in heading order.
func (d *Dataset) Series() []*Series {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return slices.Clone(d.series)
}

// Lookup returns the series named name.
func (d *Dataset) Lookup(name string) (*Series, bool) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	idx, ok := d.byName[name]
	if !ok {
		return nil, false
	}
	return d.series[idx], true
}

// Domain returns the lowest and highest category over every series.
func (d *Dataset) Domain() (dMin, dMax float64) {
	first := true
	for _, s := range d.Series() {
		if s.Len() == 0 {
			continue
		}
		sMin, sMax := s.Domain()
		if first {
			dMin, dMax = sMin, sMax
			first = false
			continue
		}
		dMin = min(sMin, dMin)
		dMax = max(sMax, dMax)
	}
	return dMin, dMax
}

// Categories returns the sorted union of the categories of every series.
func (d *Dataset) Categories() []float64 {
	var out []float64
	for _, s := range d.Series() {
		for _, r := range s.Records() {
			out = append(out, r.Category)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
