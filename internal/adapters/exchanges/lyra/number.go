package lyra

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// Number decodes the exchange's numeric fields, which arrive as JSON strings,
// JSON numbers or null. Anything that is not a parseable number decodes as
// invalid and reads back as zero.
type Number struct {
	Value decimal.Decimal
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}

	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return nil
	}
	raw = strings.TrimSpace(strings.Trim(raw, `"`))
	if raw == "" {
		return nil
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	n.Value = d
	n.Valid = true
	return nil
}

// Float returns the value as float64, 0 when null or missing
func (n Number) Float() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value.InexactFloat64()
}

// Int returns the integer part, 0 when null or missing
func (n Number) Int() int64 {
	if !n.Valid {
		return 0
	}
	return n.Value.IntPart()
}

// jsonKind names the JSON type of a raw value for shape errors
func jsonKind(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "missing"
	}
	switch trimmed[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

func isAbsent(raw []byte) bool {
	kind := jsonKind(raw)
	return kind == "missing" || kind == "null"
}
