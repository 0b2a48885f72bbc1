package records

import (
	"fmt"
	"strings"
	"time"
)

// Delimiter joins the fields of a serialized record. It is reserved: no field
// value may contain it.
const Delimiter = "@"

// Schema is the ordered field layout of a delimited record. The last Optional
// fields may be absent in stored strings; Defaults supplies their values.
type Schema struct {
	ID       string
	Fields   []string
	Optional int
	Defaults map[string]string
}

// Required is the number of fields every stored string must carry.
func (s Schema) Required() int { return len(s.Fields) - s.Optional }

// Encode joins values in schema order. Values containing the delimiter are
// rejected instead of silently shifting field boundaries on read.
func (s Schema) Encode(values ...string) (string, error) {
	if len(values) != len(s.Fields) {
		return "", fmt.Errorf("%s: encode: got %d values, want %d", s.ID, len(values), len(s.Fields))
	}
	for i, v := range values {
		if strings.Contains(v, Delimiter) {
			return "", Invalid(s.Fields[i], fmt.Sprintf("must not contain %q", Delimiter))
		}
	}
	return strings.Join(values, Delimiter), nil
}

// Decode splits raw into schema fields. ok is false when the field count is
// outside [Required, len(Fields)]; absent optional fields take their default.
func (s Schema) Decode(raw string) (values []string, ok bool) {
	parts := strings.Split(raw, Delimiter)
	if len(parts) < s.Required() || len(parts) > len(s.Fields) {
		return nil, false
	}
	values = make([]string, len(s.Fields))
	copy(values, parts)
	for i := len(parts); i < len(s.Fields); i++ {
		values[i] = s.Defaults[s.Fields[i]]
	}
	return values, true
}

// TimestampLayout is what writers emit.
const TimestampLayout = "2006-01-02T15:04:05"

var readLayouts = []string{
	TimestampLayout,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// FormatTime renders t for storage in loc.
func FormatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(TimestampLayout)
}

// ParseTime accepts the writer layout plus the layouts older clients stored.
// Zone-less values are read in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	for _, layout := range readLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
