package chart

// Field names one numeric coordinate a Mapper can extract from an item.
type Field uint8

const (
	FieldX Field = iota
	FieldY
	FieldWeight
	FieldOpen
	FieldHigh
	FieldLow
	FieldClose
	FieldRadius
	FieldAngle
	numFields
)

func (f Field) String() string {
	switch f {
	case FieldX:
		return "X"
	case FieldY:
		return "Y"
	case FieldWeight:
		return "Weight"
	case FieldOpen:
		return "Open"
	case FieldHigh:
		return "High"
	case FieldLow:
		return "Low"
	case FieldClose:
		return "Close"
	case FieldRadius:
		return "Radius"
	case FieldAngle:
		return "Angle"
	default:
		return "?"
	}
}

// Kind is the family of chart a Mapper feeds. It determines which fields
// must have an extractor before mapping can start.
type Kind uint8

const (
	KindCartesian Kind = iota
	KindWeighted
	KindFinancial
	KindPolar
)

func (k Kind) String() string {
	switch k {
	case KindCartesian:
		return "cartesian"
	case KindWeighted:
		return "weighted"
	case KindFinancial:
		return "financial"
	case KindPolar:
		return "polar"
	default:
		return "unknown"
	}
}

// Required returns the fields that must be configured for the kind.
func (k Kind) Required() []Field {
	switch k {
	case KindWeighted:
		return []Field{FieldX, FieldY, FieldWeight}
	case KindFinancial:
		return []Field{FieldX, FieldOpen, FieldHigh, FieldLow, FieldClose}
	case KindPolar:
		return []Field{FieldRadius, FieldAngle}
	default:
		return []Field{FieldX, FieldY}
	}
}

// StackMode selects how a stack group lays out its columns.
type StackMode uint8

const (
	// StackValues stacks raw values on top of each other.
	StackValues StackMode = iota
	// StackPercentage stacks each value's share of its category total, so
	// every fully populated side of a category adds up to 1.
	StackPercentage
)

func (m StackMode) String() string {
	switch m {
	case StackValues:
		return "values"
	case StackPercentage:
		return "percentage"
	default:
		return "unknown"
	}
}

// ParseStackMode converts the textual form produced by String back into a
// StackMode.
func ParseStackMode(s string) (StackMode, error) {
	switch s {
	case "values", "":
		return StackValues, nil
	case "percentage", "percent":
		return StackPercentage, nil
	default:
		return StackValues, &ConfigurationError{Property: "StackMode", Value: s, Reason: "must be values or percentage"}
	}
}

func (m StackMode) valid() bool {
	return m == StackValues || m == StackPercentage
}
