package chart

import (
	"image/color"

	"github.com/google/uuid"
)

// Role describes what a primitive is used for.
type Role uint8

const (
	RoleColumn Role = iota
	RoleHover
	RoleLabel
)

func (r Role) String() string {
	switch r {
	case RoleColumn:
		return "column"
	case RoleHover:
		return "hover"
	case RoleLabel:
		return "label"
	default:
		return "?"
	}
}

// Handle refers to one primitive owned by a point view. Handles are
// compared by value; a handle is never reused once released.
type Handle struct {
	ID   uuid.UUID
	Role Role
	// Key is the point the primitive was created for.
	Key Key
}

func newHandle(role Role, key Key) Handle {
	return Handle{ID: uuid.New(), Role: role, Key: key}
}

// Valid reports whether h refers to a primitive at all.
func (h Handle) Valid() bool {
	return h.ID != uuid.Nil
}

// Style carries the series-level visual properties copied onto every
// primitive the series creates.
type Style struct {
	Fill            color.NRGBA
	Stroke          color.NRGBA
	StrokeThickness float64
	Foreground      color.NRGBA
	ZIndex          int
	Visible         bool
}

// Geometry is the placement of a column in data units, apart from Width,
// which is in device units. Converting to device space is the surface's job.
type Geometry struct {
	// X is the category the column is centred on.
	X float64
	// Base and Top bound the column vertically.
	Base, Top float64
	// Width of the column in device units.
	Width float64
}

// Position is a point in data units.
type Position struct {
	X, Y float64
}

// Surface is the drawing surface a series registers its primitives with.
// Calls for one series are always serialized.
type Surface interface {
	RegisterPrimitive(h Handle, style Style) error
	RemovePrimitive(h Handle) error
	UpdateGeometry(h Handle, g Geometry) error
	UpdateStyle(h Handle, style Style) error
	AttachHoverable(h Handle) error
	AddLabel(h Handle, text string, pos Position) error
	UpdateLabel(h Handle, text string, pos Position) error
}
