// Package record provides a chart.Surface that keeps the set of live
// primitives in memory and logs every instruction it receives, so that an
// external renderer can replay them.
package record

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"git.sr.ht/~whereswaldon/livechart/chart"
)

var (
	ErrAlreadyRegistered = errors.New("primitive already registered")
	ErrUnknownPrimitive  = errors.New("primitive not registered")
)

type Op uint8

const (
	OpRegister Op = iota
	OpRemove
	OpGeometry
	OpStyle
	OpHoverable
	OpAddLabel
	OpUpdateLabel
)

func (o Op) String() string {
	switch o {
	case OpRegister:
		return "register"
	case OpRemove:
		return "remove"
	case OpGeometry:
		return "geometry"
	case OpStyle:
		return "style"
	case OpHoverable:
		return "hoverable"
	case OpAddLabel:
		return "add-label"
	case OpUpdateLabel:
		return "update-label"
	default:
		return "?"
	}
}

// Instruction is one call made on the surface.
type Instruction struct {
	Op       Op              `msgpack:"op"`
	ID       uuid.UUID       `msgpack:"id"`
	Role     chart.Role      `msgpack:"role"`
	Key      chart.Key       `msgpack:"key"`
	Geometry *chart.Geometry `msgpack:"geometry,omitempty"`
	Style    *chart.Style    `msgpack:"style,omitempty"`
	Text     string          `msgpack:"text,omitempty"`
	Position *chart.Position `msgpack:"position,omitempty"`
}

// Primitive is the current state of one registered primitive.
type Primitive struct {
	Handle    chart.Handle
	Style     chart.Style
	Geometry  chart.Geometry
	Hoverable bool
	Text      string
	Position  chart.Position
	// Order is the registration sequence number.
	Order uint64
}

// Frame is a batch of instructions handed to a renderer.
type Frame struct {
	Seq          uint64        `msgpack:"seq"`
	Instructions []Instruction `msgpack:"instructions"`
}

// Encode writes f to w.
func (f Frame) Encode(w io.Writer) error {
	if err := msgpack.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("failed encoding frame %d: %w", f.Seq, err)
	}
	return nil
}

// DecodeFrame reads one frame written by Encode.
func DecodeFrame(r io.Reader) (Frame, error) {
	var f Frame
	if err := msgpack.NewDecoder(r).Decode(&f); err != nil {
		return Frame{}, fmt.Errorf("failed decoding frame: %w", err)
	}
	return f, nil
}

// Surface records primitives. It is safe for concurrent use.
type Surface struct {
	lock       sync.Mutex
	live       map[uuid.UUID]*Primitive
	pending    []Instruction
	frames     uint64
	order      uint64
	registered int
	removed    int
	reject     func(h chart.Handle) error
}

var _ chart.Surface = (*Surface)(nil)

// New returns an empty surface.
func New() *Surface {
	return &Surface{live: make(map[uuid.UUID]*Primitive)}
}

// RejectWhen installs a hook consulted before every registration. A non-nil
// error from fn is returned in place of registering. A nil fn clears it.
func (s *Surface) RejectWhen(fn func(h chart.Handle) error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.reject = fn
}

func (s *Surface) RegisterPrimitive(h chart.Handle, style chart.Style) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.register(h, style, OpRegister, "", chart.Position{})
}

func (s *Surface) register(h chart.Handle, style chart.Style, op Op, text string, pos chart.Position) error {
	if s.reject != nil {
		if err := s.reject(h); err != nil {
			return err
		}
	}
	if _, ok := s.live[h.ID]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, h.ID)
	}
	s.order++
	s.live[h.ID] = &Primitive{Handle: h, Style: style, Text: text, Position: pos, Order: s.order}
	s.registered++
	in := Instruction{Op: op, ID: h.ID, Role: h.Role, Key: h.Key, Style: &style}
	if op == OpAddLabel {
		in.Text = text
		in.Position = &pos
	}
	s.pending = append(s.pending, in)
	return nil
}

func (s *Surface) lookup(h chart.Handle) (*Primitive, error) {
	p, ok := s.live[h.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPrimitive, h.ID)
	}
	return p, nil
}

func (s *Surface) RemovePrimitive(h chart.Handle) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, err := s.lookup(h); err != nil {
		return err
	}
	delete(s.live, h.ID)
	s.removed++
	s.pending = append(s.pending, Instruction{Op: OpRemove, ID: h.ID, Role: h.Role, Key: h.Key})
	return nil
}

func (s *Surface) UpdateGeometry(h chart.Handle, g chart.Geometry) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	p, err := s.lookup(h)
	if err != nil {
		return err
	}
	p.Geometry = g
	s.pending = append(s.pending, Instruction{Op: OpGeometry, ID: h.ID, Role: h.Role, Key: h.Key, Geometry: &g})
	return nil
}

func (s *Surface) UpdateStyle(h chart.Handle, style chart.Style) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	p, err := s.lookup(h)
	if err != nil {
		return err
	}
	p.Style = style
	s.pending = append(s.pending, Instruction{Op: OpStyle, ID: h.ID, Role: h.Role, Key: h.Key, Style: &style})
	return nil
}

func (s *Surface) AttachHoverable(h chart.Handle) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	p, err := s.lookup(h)
	if err != nil {
		return err
	}
	p.Hoverable = true
	s.pending = append(s.pending, Instruction{Op: OpHoverable, ID: h.ID, Role: h.Role, Key: h.Key})
	return nil
}

func (s *Surface) AddLabel(h chart.Handle, text string, pos chart.Position) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.register(h, chart.Style{Visible: true}, OpAddLabel, text, pos)
}

func (s *Surface) UpdateLabel(h chart.Handle, text string, pos chart.Position) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	p, err := s.lookup(h)
	if err != nil {
		return err
	}
	p.Text = text
	p.Position = pos
	s.pending = append(s.pending, Instruction{Op: OpUpdateLabel, ID: h.ID, Role: h.Role, Key: h.Key, Text: text, Position: &pos})
	return nil
}

// Live returns the number of registered primitives.
func (s *Surface) Live() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.live)
}

// LiveRole returns the number of registered primitives with role r.
func (s *Surface) LiveRole(r chart.Role) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	n := 0
	for _, p := range s.live {
		if p.Handle.Role == r {
			n++
		}
	}
	return n
}

// Counts returns the total number of registrations and removals so far.
func (s *Surface) Counts() (registered, removed int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.registered, s.removed
}

// Primitive returns the state of the primitive h refers to.
func (s *Surface) Primitive(h chart.Handle) (Primitive, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	p, ok := s.live[h.ID]
	if !ok {
		return Primitive{}, false
	}
	return *p, true
}

// Snapshot returns every live primitive in registration order.
func (s *Surface) Snapshot() []Primitive {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make([]Primitive, 0, len(s.live))
	for _, p := range s.live {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// Flush returns the instructions received since the previous flush as a
// frame.
func (s *Surface) Flush() Frame {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.frames++
	f := Frame{Seq: s.frames, Instructions: s.pending}
	s.pending = nil
	return f
}
