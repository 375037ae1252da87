package backend

import (
	"slices"
	"sync"
)

// Record is one value of a series at a category.
type Record struct {
	Category float64
	Value    float64
}

// Series holds the records of one CSV column, sorted by category.
type Series struct {
	lock                 sync.RWMutex
	name                 string
	categories           []float64
	values               []float64
	valueMin, valueMax   float64
	domainMin, domainMax float64
	sum                  float64
}

func NewSeries(name string) *Series {
	return &Series{name: name}
}

func (s *Series) Name() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.name
}

func (s *Series) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.categories)
}

// Domain returns the lowest and highest category of the series.
func (s *Series) Domain() (min, max float64) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.domainMin, s.domainMax
}

// ValueRange returns the lowest and highest value of the series.
func (s *Series) ValueRange() (min, max float64) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.valueMin, s.valueMax
}

func (s *Series) Sum() float64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.sum
}

// Insert adds a record to the series. In the event that the series already
// contains a value at that category, nothing is added and the method
// returns false. Otherwise, the method returns true.
func (s *Series) Insert(r Record) (inserted bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	idx, found := slices.BinarySearch(s.categories, r.Category)
	if found {
		return false
	}
	if len(s.categories) == 0 {
		s.domainMin, s.domainMax = r.Category, r.Category
		s.valueMin, s.valueMax = r.Value, r.Value
	} else {
		s.domainMin = min(s.domainMin, r.Category)
		s.domainMax = max(s.domainMax, r.Category)
		s.valueMin = min(s.valueMin, r.Value)
		s.valueMax = max(s.valueMax, r.Value)
	}
	s.categories = slices.Insert(s.categories, idx, r.Category)
	s.values = slices.Insert(s.values, idx, r.Value)
	s.sum += r.Value
	return true
}

// At returns the value recorded at category.
func (s *Series) At(category float64) (float64, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	idx, found := slices.BinarySearch(s.categories, category)
	if !found {
		return 0, false
	}
	return s.values[idx], true
}

// Records returns a copy of the series in category order.
func (s *Series) Records() []Record {
	s.lock.RLock()
	defer s.lock.RUnlock()
	out := make([]Record, len(s.categories))
	for i := range s.categories {
		out[i] = Record{Category: s.categories[i], Value: s.values[i]}
	}
	return out
}
