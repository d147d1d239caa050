package model

// ValueKind discriminates the shapes a frontmatter value may take.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindScalar
	KindSequence
	KindMapping
)

// Value is the tagged union backing a frontmatter key->value mapping:
// null | scalar | sequence-of-scalar | nested mapping (spec §3).
//
// Scalar holds the parsed Go value for Kind==KindScalar (string, int64,
// float64, or bool). Sequence holds the scalar items for Kind==KindSequence.
// Nested holds the child mapping for Kind==KindMapping.
type Value struct {
	Kind     ValueKind
	Scalar   any
	Sequence []any
	Nested   Mapping
}

// Mapping is a frontmatter key->Value map, preserving every declared key
// regardless of whether a typed projection field also exists for it.
type Mapping map[string]Value

// NullValue, ScalarValue, SequenceValue, and MappingValue are constructors
// for the four Value shapes.
func NullValue() Value { return Value{Kind: KindNull} }

func ScalarValue(v any) Value { return Value{Kind: KindScalar, Scalar: v} }

func SequenceValue(items []any) Value { return Value{Kind: KindSequence, Sequence: items} }

func MappingValue(m Mapping) Value { return Value{Kind: KindMapping, Nested: m} }

// AsStringSlice returns the value's contents as a []string: a one-element
// slice for a scalar, each scalar in order for a sequence, or nil otherwise.
func (v Value) AsStringSlice() []string {
	switch v.Kind {
	case KindScalar:
		if s, ok := v.Scalar.(string); ok {
			return []string{s}
		}

		return nil
	case KindSequence:
		out := make([]string, 0, len(v.Sequence))

		for _, item := range v.Sequence {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}

// IsEmpty reports whether the value counts as "empty" for required-key
// purposes: null, a blank string, or a zero-length sequence/mapping.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindNull:
		return true
	case KindScalar:
		s, ok := v.Scalar.(string)
		return ok && s == ""
	case KindSequence:
		return len(v.Sequence) == 0
	case KindMapping:
		return len(v.Nested) == 0
	default:
		return true
	}
}
