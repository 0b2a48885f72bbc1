// Package movement records staff leaving and returning to post.
package movement

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"staffsuite/internal/records"
	"staffsuite/internal/report"
)

// Stream holds name@role@timestamp@movement_type@purpose@location@note.
var Stream = records.Stream{
	Name: "movement",
	Key:  "staff:movement:logs",
	Kind: records.List,
	Schema: records.Schema{
		ID:     "movement/v1",
		Fields: []string{"name", "role", "timestamp", "movement_type", "purpose", "location", "note"},
	},
}

// Record is one movement log entry.
type Record struct {
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Timestamp    time.Time `json:"timestamp"`
	MovementType string    `json:"movement_type"`
	Purpose      string    `json:"purpose"`
	Location     string    `json:"location"`
	Note         string    `json:"note"`
	Raw          string    `json:"raw"`
}

// Encode serializes r. Name, role and movement type are required.
func Encode(r Record, loc *time.Location) (string, error) {
	required := []struct{ field, v string }{
		{"name", r.Name},
		{"role", r.Role},
		{"movement_type", r.MovementType},
	}
	for _, f := range required {
		if strings.TrimSpace(f.v) == "" {
			return "", records.Invalid(f.field, "required")
		}
	}
	return Stream.Schema.Encode(r.Name, r.Role, records.FormatTime(r.Timestamp, loc), r.MovementType, r.Purpose, r.Location, r.Note)
}

// Decode parses a stored entry; anything but exactly seven fields is malformed.
func Decode(raw string, loc *time.Location) (Record, error) {
	v, ok := Stream.Schema.Decode(raw)
	if !ok {
		return Record{}, fmt.Errorf("want 7 fields, got %d", strings.Count(raw, records.Delimiter)+1)
	}
	ts, err := records.ParseTime(v[2], loc)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Name:         v[0],
		Role:         v[1],
		Timestamp:    ts,
		MovementType: v[3],
		Purpose:      v[4],
		Location:     v[5],
		Note:         v[6],
		Raw:          raw,
	}, nil
}

// Service logs and reports staff movements.
type Service struct {
	store  *records.Store
	loc    *time.Location
	policy records.DecodePolicy
	now    func() time.Time
}

// NewService creates a movement service.
func NewService(store *records.Store, loc *time.Location, policy records.DecodePolicy) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, policy: policy, now: time.Now}
}

// Log appends a movement. A zero timestamp means now.
func (s *Service) Log(ctx context.Context, r Record) (Record, error) {
	if r.Timestamp.IsZero() {
		r.Timestamp = s.now()
	}
	r.Timestamp = r.Timestamp.Truncate(time.Second)
	raw, err := Encode(r, s.loc)
	if err != nil {
		return Record{}, err
	}
	if err := s.store.Append(ctx, Stream, raw); err != nil {
		return Record{}, err
	}
	return Decode(raw, s.loc)
}

// Load returns every decodable movement in storage order.
func (s *Service) Load(ctx context.Context) (records.Result[Record], error) {
	entries, err := s.store.ScanAll(ctx, Stream)
	if err != nil {
		return records.Result[Record]{}, err
	}
	return records.DecodeAll(Stream, entries, s.policy, func(e records.Entry) (Record, error) {
		return Decode(e.Raw, s.loc)
	})
}

// Delete removes a movement by its stored string.
func (s *Service) Delete(ctx context.Context, raw string, mode records.DeleteMode) (int64, error) {
	return s.store.DeleteExact(ctx, Stream, raw, mode)
}

// Clear wipes the movement log.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	return s.store.Clear(ctx, Stream)
}

// Location is the zone dates are interpreted in.
func (s *Service) Location() *time.Location { return s.loc }

// Filter matches on exact name, movement type and calendar date.
type Filter struct {
	Name         string
	MovementType string
	Date         string
}

// Apply filters recs and returns them newest first; ties keep storage order.
func (f Filter) Apply(recs []Record, loc *time.Location) []Record {
	dates := report.Day(f.Date)
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		if f.Name != "" && r.Name != f.Name {
			continue
		}
		if f.MovementType != "" && r.MovementType != f.MovementType {
			continue
		}
		if f.Date != "" && !dates.Contains(r.Timestamp, loc) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

// Options lists the distinct names, movement types and dates for filter pickers.
func Options(recs []Record, loc *time.Location) (names, types, dates []string) {
	return distinct(recs, func(r Record) string { return r.Name }),
		distinct(recs, func(r Record) string { return r.MovementType }),
		distinct(recs, func(r Record) string { return r.Timestamp.In(loc).Format(report.DateLayout) })
}

func distinct(recs []Record, key func(Record) string) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range recs {
		k := key(r)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Table renders movements for CSV export.
func Table(recs []Record, loc *time.Location) report.Table {
	t := report.Table{Headers: []string{"Name", "Role", "Timestamp", "Movement Type", "Purpose", "Location", "Note"}}
	for _, r := range recs {
		t.Rows = append(t.Rows, []string{r.Name, r.Role, records.FormatTime(r.Timestamp, loc), r.MovementType, r.Purpose, r.Location, r.Note})
	}
	return t
}
