// Package duty stores officers' duty reports, one Redis hash per report.
package duty

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"staffsuite/internal/records"
	"staffsuite/internal/report"
)

// Stream is the duty_report:<id> key namespace. Documents are hashes, so
// field values may contain the record delimiter.
var Stream = records.Stream{
	Name: "duty_report",
	Key:  "duty_report:",
	Kind: records.Namespace,
	Schema: records.Schema{
		ID:     "duty_report/v1",
		Fields: []string{"officer_role", "duty_type", "timestamp"},
	},
}

// Report is one duty report. Extra carries every field beyond the three the
// reports page filters on.
type Report struct {
	ID          string            `json:"id"`
	OfficerRole string            `json:"officer_role"`
	DutyType    string            `json:"duty_type"`
	Timestamp   time.Time         `json:"timestamp"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Service submits and reports duty reports.
type Service struct {
	store  *records.Store
	loc    *time.Location
	policy records.DecodePolicy
	now    func() time.Time
	newID  func() string
}

// NewService creates a duty report service.
func NewService(store *records.Store, loc *time.Location, policy records.DecodePolicy) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, policy: policy, now: time.Now, newID: uuid.NewString}
}

// Submit validates and stores a report under a fresh id.
func (s *Service) Submit(ctx context.Context, r Report) (Report, error) {
	if strings.TrimSpace(r.OfficerRole) == "" {
		return Report{}, records.Invalid("officer_role", "required")
	}
	if strings.TrimSpace(r.DutyType) == "" {
		return Report{}, records.Invalid("duty_type", "required")
	}
	for k := range r.Extra {
		if k == "" || k == "id" || isCore(k) {
			return Report{}, records.Invalid(k, "reserved or empty field name")
		}
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = s.now()
	}
	r.Timestamp = r.Timestamp.Truncate(time.Second)
	r.ID = s.newID()

	fields := make(map[string]string, len(r.Extra)+3)
	for k, v := range r.Extra {
		fields[k] = v
	}
	fields["officer_role"] = r.OfficerRole
	fields["duty_type"] = r.DutyType
	fields["timestamp"] = records.FormatTime(r.Timestamp, s.loc)

	if err := s.store.PutDocument(ctx, Stream, r.ID, fields); err != nil {
		return Report{}, err
	}
	return r, nil
}

func isCore(field string) bool {
	for _, f := range Stream.Schema.Fields {
		if f == field {
			return true
		}
	}
	return false
}

var errMissingCore = errors.New("missing officer_role, duty_type or timestamp")

// Decode turns one stored document into a Report.
func Decode(e records.Entry, loc *time.Location) (Report, error) {
	role, duty, ts := e.Fields["officer_role"], e.Fields["duty_type"], e.Fields["timestamp"]
	if role == "" || duty == "" || ts == "" {
		return Report{}, errMissingCore
	}
	when, err := records.ParseTime(ts, loc)
	if err != nil {
		return Report{}, err
	}
	r := Report{
		ID:          strings.TrimPrefix(e.Raw, Stream.Key),
		OfficerRole: role,
		DutyType:    duty,
		Timestamp:   when,
	}
	for k, v := range e.Fields {
		if isCore(k) {
			continue
		}
		if r.Extra == nil {
			r.Extra = map[string]string{}
		}
		r.Extra[k] = v
	}
	return r, nil
}

// Load scans every report document.
func (s *Service) Load(ctx context.Context) (records.Result[Report], error) {
	entries, err := s.store.ScanAll(ctx, Stream)
	if err != nil {
		return records.Result[Report]{}, err
	}
	return records.DecodeAll(Stream, entries, s.policy, func(e records.Entry) (Report, error) {
		return Decode(e, s.loc)
	})
}

// Delete removes one report by id.
func (s *Service) Delete(ctx context.Context, id string) (int64, error) {
	return s.store.DeleteExact(ctx, Stream, id, records.DeleteFirst)
}

// Clear removes every report document.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	return s.store.Clear(ctx, Stream)
}

// Location is the zone dates are interpreted in.
func (s *Service) Location() *time.Location { return s.loc }

// Filter matches officer role, duty shift and calendar date exactly.
type Filter struct {
	OfficerRole string
	DutyType    string
	Date        string
}

// Apply filters reports and sorts them newest first.
func (f Filter) Apply(reps []Report, loc *time.Location) []Report {
	day := report.Day(f.Date)
	out := make([]Report, 0, len(reps))
	for _, r := range reps {
		if f.OfficerRole != "" && r.OfficerRole != f.OfficerRole {
			continue
		}
		if f.DutyType != "" && r.DutyType != f.DutyType {
			continue
		}
		if f.Date != "" && !day.Contains(r.Timestamp, loc) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

// Table renders reports with the core columns first, then every extra
// field seen in the set, sorted by name.
func Table(reps []Report, loc *time.Location) report.Table {
	extraSet := map[string]bool{}
	for _, r := range reps {
		for k := range r.Extra {
			extraSet[k] = true
		}
	}
	extras := make([]string, 0, len(extraSet))
	for k := range extraSet {
		extras = append(extras, k)
	}
	sort.Strings(extras)

	t := report.Table{Headers: append([]string{"id", "officer_role", "duty_type", "timestamp"}, extras...)}
	for _, r := range reps {
		row := []string{r.ID, r.OfficerRole, r.DutyType, records.FormatTime(r.Timestamp, loc)}
		for _, k := range extras {
			row = append(row, r.Extra[k])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
