package chart

import (
	"context"
	"fmt"

	"golang.org/x/exp/constraints"
	"golang.org/x/sync/errgroup"
)

// Extractor reads one coordinate from an item. Extractors must be pure:
// they may be called concurrently and in any order.
type Extractor[T any] func(item T, index int) float64

// Mapper converts items of type T into ChartPoints. The zero value is not
// usable; build one with Xy, Weighted, Financial, Polar, Numbers or Values.
type Mapper[T any] struct {
	kind       Kind
	extractors [numFields]Extractor[T]
	key        func(item T, index int) Key
	// dynamic is set for mappers over interface items. It reports the
	// numeric kind of an item so mixed series can be rejected up front.
	dynamic func(item T) (numKind, bool)
}

// Xy returns a mapper for cartesian X/Y points.
func Xy[T any]() *Mapper[T] {
	return &Mapper[T]{kind: KindCartesian}
}

// Weighted returns a mapper for X/Y points carrying a Weight.
func Weighted[T any]() *Mapper[T] {
	return &Mapper[T]{kind: KindWeighted}
}

// Financial returns a mapper for open/high/low/close points.
func Financial[T any]() *Mapper[T] {
	return &Mapper[T]{kind: KindFinancial}
}

// Polar returns a mapper for radius/angle points.
func Polar[T any]() *Mapper[T] {
	return &Mapper[T]{kind: KindPolar}
}

// Numbers returns the default mapper for plain numeric items: X is the
// index of the item and Y is the item itself.
func Numbers[T constraints.Integer | constraints.Float]() *Mapper[T] {
	return Xy[T]().
		X(func(_ T, i int) float64 { return float64(i) }).
		Y(func(v T, _ int) float64 { return float64(v) })
}

// Values returns the default mapper for dynamically typed items. Every
// item of a series must hold the same numeric type; anything else is a
// MappingError.
func Values() *Mapper[any] {
	m := Xy[any]().
		X(func(_ any, i int) float64 { return float64(i) }).
		Y(func(v any, _ int) float64 {
			f, _, _ := coerce(v)
			return f
		})
	m.dynamic = func(v any) (numKind, bool) {
		_, k, ok := coerce(v)
		return k, ok
	}
	return m
}

// Kind reports the chart kind the mapper was built for.
func (m *Mapper[T]) Kind() Kind {
	return m.kind
}

// Set installs the extractor for f, replacing any previous one.
func (m *Mapper[T]) Set(f Field, fn Extractor[T]) *Mapper[T] {
	if f < numFields {
		m.extractors[f] = fn
	}
	return m
}

// Extractor returns the extractor configured for f.
func (m *Mapper[T]) Extractor(f Field) (Extractor[T], bool) {
	if f >= numFields || m.extractors[f] == nil {
		return nil, false
	}
	return m.extractors[f], true
}

func (m *Mapper[T]) X(fn Extractor[T]) *Mapper[T]      { return m.Set(FieldX, fn) }
func (m *Mapper[T]) Y(fn Extractor[T]) *Mapper[T]      { return m.Set(FieldY, fn) }
func (m *Mapper[T]) Weight(fn Extractor[T]) *Mapper[T] { return m.Set(FieldWeight, fn) }
func (m *Mapper[T]) Open(fn Extractor[T]) *Mapper[T]   { return m.Set(FieldOpen, fn) }
func (m *Mapper[T]) High(fn Extractor[T]) *Mapper[T]   { return m.Set(FieldHigh, fn) }
func (m *Mapper[T]) Low(fn Extractor[T]) *Mapper[T]    { return m.Set(FieldLow, fn) }
func (m *Mapper[T]) Close(fn Extractor[T]) *Mapper[T]  { return m.Set(FieldClose, fn) }
func (m *Mapper[T]) Radius(fn Extractor[T]) *Mapper[T] { return m.Set(FieldRadius, fn) }
func (m *Mapper[T]) Angle(fn Extractor[T]) *Mapper[T]  { return m.Set(FieldAngle, fn) }

// Key sets the identity extractor. Without one, items are identified by
// their index.
func (m *Mapper[T]) Key(fn func(item T, index int) Key) *Mapper[T] {
	m.key = fn
	return m
}

// Validate checks that every field required by the mapper's kind has an
// extractor.
func (m *Mapper[T]) Validate() error {
	for _, f := range m.kind.Required() {
		if m.extractors[f] == nil {
			return &MappingError{Kind: m.kind, Field: f, Reason: "no extractor configured"}
		}
	}
	return nil
}

func (m *Mapper[T]) checkItems(items []T) error {
	if m.dynamic == nil || len(items) == 0 {
		return nil
	}
	first, ok := m.dynamic(items[0])
	if !ok {
		return &MappingError{Kind: m.kind, Field: FieldY, Reason: fmt.Sprintf("item 0 (%T) is not numeric and has no mapper", items[0])}
	}
	for i, item := range items[1:] {
		k, ok := m.dynamic(item)
		if !ok || k != first {
			return &MappingError{Kind: m.kind, Field: FieldY, Reason: fmt.Sprintf("item %d (%T) differs from the series item type", i+1, item)}
		}
	}
	return nil
}

// Map converts items into points in input order. The returned error is a
// *MappingError and means nothing was mapped. Per-point failures are
// returned in pointErrs; the matching points are marked Invalid.
func (m *Mapper[T]) Map(items []T) (points []ChartPoint, pointErrs []error, err error) {
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}
	if err := m.checkItems(items); err != nil {
		return nil, nil, err
	}
	points = make([]ChartPoint, len(items))
	for i, item := range items {
		var perr error
		points[i], perr = m.mapOne(item, i)
		if perr != nil {
			pointErrs = append(pointErrs, perr)
		}
	}
	return points, pointErrs, nil
}

// MapConcurrent is Map with extraction split across up to workers
// goroutines. Its output is identical to Map's.
func (m *Mapper[T]) MapConcurrent(ctx context.Context, items []T, workers int) ([]ChartPoint, []error, error) {
	if workers <= 1 || len(items) < 2*workers {
		return m.Map(items)
	}
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}
	if err := m.checkItems(items); err != nil {
		return nil, nil, err
	}
	points := make([]ChartPoint, len(items))
	errs := make([]error, len(items))
	chunk := (len(items) + workers - 1) / workers
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(items); start += chunk {
		end := min(start+chunk, len(items))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				points[i], errs[i] = m.mapOne(items[i], i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed mapping items: %w", err)
	}
	var pointErrs []error
	for _, err := range errs {
		if err != nil {
			pointErrs = append(pointErrs, err)
		}
	}
	return points, pointErrs, nil
}

func (m *Mapper[T]) mapOne(item T, index int) (p ChartPoint, err error) {
	p.Index = index
	p.SeriesIndex = -1
	var current Field
	defer func() {
		if r := recover(); r != nil {
			p.Invalid = true
			err = &InvalidValueError{Index: index, Field: current, Cause: fmt.Errorf("%v", r)}
		}
	}()
	if m.key != nil {
		p.Key = m.key(item, index)
	} else {
		p.Key = IndexKey(index)
	}
	for f := Field(0); f < numFields; f++ {
		fn := m.extractors[f]
		if fn == nil {
			continue
		}
		current = f
		p.set(f, fn(item, index))
	}
	for _, f := range m.kind.Required() {
		if v := p.Get(f); !finite(v) {
			p.Invalid = true
			return p, &InvalidValueError{Index: index, Field: f, Value: v}
		}
	}
	return p, nil
}

type numKind uint8

const (
	numInt numKind = iota + 1
	numInt8
	numInt16
	numInt32
	numInt64
	numUint
	numUint8
	numUint16
	numUint32
	numUint64
	numFloat32
	numFloat64
)

func coerce(v any) (float64, numKind, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), numInt, true
	case int8:
		return float64(n), numInt8, true
	case int16:
		return float64(n), numInt16, true
	case int32:
		return float64(n), numInt32, true
	case int64:
		return float64(n), numInt64, true
	case uint:
		return float64(n), numUint, true
	case uint8:
		return float64(n), numUint8, true
	case uint16:
		return float64(n), numUint16, true
	case uint32:
		return float64(n), numUint32, true
	case uint64:
		return float64(n), numUint64, true
	case float32:
		return float64(n), numFloat32, true
	case float64:
		return n, numFloat64, true
	default:
		return 0, 0, false
	}
}
