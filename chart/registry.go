package chart

import (
	"reflect"
	"sync"
)

// Registry holds one mapper per item type, so a series can be built for a
// type without repeating its mapping. Types are resolved once, when a
// mapper is registered or looked up, never per item.
type Registry struct {
	lock    sync.RWMutex
	mappers map[reflect.Type]any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{mappers: make(map[reflect.Type]any)}
}

// Register installs m as the mapper for T, replacing any previous one.
func Register[T any](r *Registry, m *Mapper[T]) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.mappers == nil {
		r.mappers = make(map[reflect.Type]any)
	}
	r.mappers[reflect.TypeFor[T]()] = m
}

// Lookup returns the mapper registered for T.
func Lookup[T any](r *Registry) (*Mapper[T], bool) {
	if r == nil {
		return nil, false
	}
	r.lock.RLock()
	defer r.lock.RUnlock()
	m, ok := r.mappers[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return m.(*Mapper[T]), true
}

// ExtractorFor is a read-only query of the extractor configured for field f
// of item type T.
func ExtractorFor[T any](r *Registry, f Field) (Extractor[T], bool) {
	m, ok := Lookup[T](r)
	if !ok {
		return nil, false
	}
	return m.Extractor(f)
}

// Override replaces a single extractor on the mapper registered for T. It
// reports false when no mapper is registered for T.
func Override[T any](r *Registry, f Field, fn Extractor[T]) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	m, ok := r.mappers[reflect.TypeFor[T]()]
	if !ok {
		return false
	}
	m.(*Mapper[T]).Set(f, fn)
	return true
}
