package attendance

import (
	"context"
	"time"

	"staffsuite/internal/records"
	"staffsuite/internal/report"
)

// Service records clock events and materializes attendance reports.
type Service struct {
	store  *records.Store
	loc    *time.Location
	policy records.DecodePolicy
	now    func() time.Time
}

// NewService creates a service over the shared record store.
func NewService(store *records.Store, loc *time.Location, policy records.DecodePolicy) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, policy: policy, now: time.Now}
}

// Clock is a clock-in/out request. At defaults to now.
type Clock struct {
	FileNo    string
	Name      string
	Role      string
	Direction string
	Zone      string
	At        time.Time
}

// Clock appends one attendance event. Duplicate submissions are stored twice.
func (s *Service) Clock(ctx context.Context, in Clock) (Record, error) {
	at := in.At
	if at.IsZero() {
		at = s.now()
	}
	rec := Record{
		FileNo:    in.FileNo,
		Name:      in.Name,
		Role:      in.Role,
		Zone:      in.Zone,
		Timestamp: at.Truncate(time.Second),
		Direction: in.Direction,
	}
	raw, err := Encode(rec, s.loc)
	if err != nil {
		return Record{}, err
	}
	if err := s.store.Append(ctx, Stream, raw); err != nil {
		return Record{}, err
	}
	return Decode(raw, s.loc)
}

// Load scans and decodes the whole attendance log in storage order.
func (s *Service) Load(ctx context.Context) (records.Result[Record], error) {
	entries, err := s.store.ScanAll(ctx, Stream)
	if err != nil {
		return records.Result[Record]{}, err
	}
	return records.DecodeAll(Stream, entries, s.policy, func(e records.Entry) (Record, error) {
		return Decode(e.Raw, s.loc)
	})
}

// Delete removes a stored record by its literal string.
func (s *Service) Delete(ctx context.Context, raw string, mode records.DeleteMode) (int64, error) {
	return s.store.DeleteExact(ctx, Stream, raw, mode)
}

// Clear wipes the attendance log.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	return s.store.Clear(ctx, Stream)
}

// Location is the zone timestamps and dates are interpreted in.
func (s *Service) Location() *time.Location { return s.loc }

// Filter selects records by calendar date range, zone, role and file number.
// Zero fields match everything.
type Filter struct {
	Dates  report.DateRange
	Zone   string
	Roles  []string
	FileNo string
}

// Apply keeps the matching records in their original order.
func (f Filter) Apply(recs []Record, loc *time.Location) []Record {
	roles := make(map[string]bool, len(f.Roles))
	for _, r := range f.Roles {
		roles[r] = true
	}
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		if f.Zone != "" && r.Zone != f.Zone {
			continue
		}
		if len(roles) > 0 && !roles[r.Role] {
			continue
		}
		if f.FileNo != "" && r.FileNo != f.FileNo {
			continue
		}
		if !f.Dates.Contains(r.Timestamp, loc) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Table renders records for CSV export.
func Table(recs []Record, loc *time.Location) report.Table {
	t := report.Table{Headers: []string{"File No.", "Name", "Role", "Zone", "Timestamp", "Clock_In_Out"}}
	for _, r := range recs {
		t.Rows = append(t.Rows, []string{r.FileNo, r.Name, r.Role, r.Zone, records.FormatTime(r.Timestamp, loc), r.Direction})
	}
	return t
}
