package attendance

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"staffsuite/internal/records"
)

// Clock directions as stored.
const (
	ClockIn  = "Clock_In"
	ClockOut = "Clock_Out"
)

// DefaultZone is substituted whenever a stored record carries no zone. Every
// reader goes through Decode, so the substitution is the same everywhere.
const DefaultZone = "Lagos Zone 2"

// Stream is the attendance log: file_no.name@role@timestamp@direction[@zone].
var Stream = records.Stream{
	Name: "attendance",
	Key:  "attendance:logs",
	Kind: records.List,
	Schema: records.Schema{
		ID:       "attendance/v1",
		Fields:   []string{"file_name", "role", "timestamp", "clock_in_out", "zone"},
		Optional: 1,
		Defaults: map[string]string{"zone": DefaultZone},
	},
}

// Record is one clock-in or clock-out event.
type Record struct {
	FileNo    string    `json:"file_no"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Zone      string    `json:"zone"`
	Timestamp time.Time `json:"timestamp"`
	Direction string    `json:"clock_in_out"`
	// Raw is the literal stored string; deletes use it verbatim.
	Raw string `json:"raw"`
}

// NormalizeDirection maps spellings such as "clock-in" or "CLOCK_OUT" onto
// the stored form. The second result is false for anything else.
func NormalizeDirection(s string) (string, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "-", "_")
	var b strings.Builder
	upper := true
	for _, r := range s {
		if unicode.IsLetter(r) {
			if upper {
				b.WriteRune(unicode.ToUpper(r))
			} else {
				b.WriteRune(unicode.ToLower(r))
			}
			upper = false
			continue
		}
		b.WriteRune(r)
		upper = true
	}
	out := b.String()
	return out, out == ClockIn || out == ClockOut
}

// Encode serializes r for the attendance stream. The zone is always written.
func Encode(r Record, loc *time.Location) (string, error) {
	if r.FileNo == "" {
		return "", records.Invalid("file_no", "required")
	}
	if strings.Contains(r.FileNo, ".") {
		return "", records.Invalid("file_no", `must not contain "."`)
	}
	if strings.TrimSpace(r.Name) == "" {
		return "", records.Invalid("name", "required")
	}
	if r.Role == "" {
		return "", records.Invalid("role", "required")
	}
	dir, ok := NormalizeDirection(r.Direction)
	if !ok {
		return "", records.Invalid("clock_in_out", fmt.Sprintf("must be %s or %s", ClockIn, ClockOut))
	}
	zone := r.Zone
	if zone == "" {
		zone = DefaultZone
	}
	return Stream.Schema.Encode(r.FileNo+"."+r.Name, r.Role, records.FormatTime(r.Timestamp, loc), dir, zone)
}

var errNoFileNo = errors.New(`first field has no "." between file number and name`)

// Decode parses one stored string. Legacy values wrapped as b'...' are
// unwrapped before splitting; Raw keeps the stored form.
func Decode(raw string, loc *time.Location) (Record, error) {
	s := raw
	if strings.HasPrefix(s, "b'") && strings.HasSuffix(s, "'") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	values, ok := Stream.Schema.Decode(s)
	if !ok {
		return Record{}, fmt.Errorf("want 4 or 5 fields, got %d", strings.Count(s, records.Delimiter)+1)
	}
	fileNo, name, found := strings.Cut(values[0], ".")
	if !found {
		return Record{}, errNoFileNo
	}
	ts, err := records.ParseTime(values[2], loc)
	if err != nil {
		return Record{}, err
	}
	dir, ok := NormalizeDirection(values[3])
	if !ok {
		return Record{}, fmt.Errorf("unknown clock direction %q", values[3])
	}
	return Record{
		FileNo:    fileNo,
		Name:      name,
		Role:      values[1],
		Zone:      values[4],
		Timestamp: ts,
		Direction: dir,
		Raw:       raw,
	}, nil
}
