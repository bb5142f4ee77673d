package table

// Kind is the semantic type of a column. Every value in a column shares the
// column's kind; missing cells are tracked separately as nulls.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindDate
)

// String returns the lowercase name used in logs and schema printouts.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether values of kind k can be compared and summed as
// numbers.
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindFloat
}

// ParseKind maps contract/config type names onto a Kind. It accepts the
// names produced by Kind.String plus a few SQL-ish aliases.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "string", "text", "str":
		return KindString, true
	case "int", "integer", "bigint", "int64":
		return KindInt, true
	case "float", "real", "double", "float64", "numeric":
		return KindFloat, true
	case "date":
		return KindDate, true
	default:
		return KindString, false
	}
}
