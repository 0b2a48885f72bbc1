// Package staff keeps the registry of staff and their facial feature vectors.
//
// The registry is a single Redis hash. Each field is the composite identity
// file_no.name@role@zone and each value is the averaged feature vector
// captured at registration. Capture sessions accumulate per-frame vectors in
// short-lived lists until the registration form is submitted.
package staff

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"staffsuite/internal/records"
	"staffsuite/internal/report"
)

// Stream is the staff registry hash.
var Stream = records.Stream{
	Name: "staff_register",
	Key:  "staff:register",
	Kind: records.Hash,
	Schema: records.Schema{
		ID:     "staff_register/v1",
		Fields: []string{"file_name", "role", "zone"},
	},
}

const captureKeyPrefix = "staff:capture:"

// Staff is one registry entry.
type Staff struct {
	FileNo    string    `json:"file_no"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Zone      string    `json:"zone"`
	Embedding []float32 `json:"-"`
	// Key is the stored hash field; deletes use it verbatim.
	Key string `json:"key"`
}

// Options configures registration checks and vector shape.
type Options struct {
	Dim        int
	Roles      []string
	Zones      []string
	CaptureTTL time.Duration
	Policy     records.DecodePolicy
}

// Service registers, lists, matches and removes staff.
type Service struct {
	store  *records.Store
	client redis.Cmdable
	opts   Options
	newID  func() string
}

// NewService creates a registry service. Capture sessions share the
// store's Redis client.
func NewService(store *records.Store, opts Options) *Service {
	if opts.Dim <= 0 {
		opts.Dim = 512
	}
	if opts.CaptureTTL <= 0 {
		opts.CaptureTTL = 15 * time.Minute
	}
	return &Service{store: store, client: store.Client(), opts: opts, newID: uuid.NewString}
}

// Dim is the configured feature vector length.
func (s *Service) Dim() int { return s.opts.Dim }

// Roles lists the selectable roles.
func (s *Service) Roles() []string { return s.opts.Roles }

// Zones lists the selectable zones.
func (s *Service) Zones() []string { return s.opts.Zones }

// StartCapture opens a capture session and returns its id. Nothing is
// stored until the first sample arrives.
func (s *Service) StartCapture(context.Context) string {
	return s.newID()
}

// AddSample appends one frame's feature vector to a capture session and
// returns how many samples the session now holds.
func (s *Service) AddSample(ctx context.Context, captureID string, vec []float32) (int64, error) {
	if captureID == "" {
		return 0, records.Invalid("capture_id", "required")
	}
	if len(vec) != s.opts.Dim {
		return 0, records.Invalid("embedding", fmt.Sprintf("got %d values, want %d", len(vec), s.opts.Dim))
	}
	key := captureKeyPrefix + captureID
	var n *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		n = p.RPush(ctx, key, EncodeVector(vec))
		p.Expire(ctx, key, s.opts.CaptureTTL)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("capture %s: %w: %v", captureID, records.ErrConnectivity, err)
	}
	return n.Val(), nil
}

func (s *Service) captured(ctx context.Context, captureID string) ([][]float32, error) {
	raws, err := s.client.LRange(ctx, captureKeyPrefix+captureID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w: %v", captureID, records.ErrConnectivity, err)
	}
	out := make([][]float32, 0, len(raws))
	for _, raw := range raws {
		v, err := DecodeVector([]byte(raw), s.opts.Dim)
		if err != nil {
			// the dimension changed since the sample was taken
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// Registration is the submitted registration form.
type Registration struct {
	FileNo    string
	FirstName string
	LastName  string
	Role      string
	Zone      string
	CaptureID string
}

var (
	fileNoPattern = regexp.MustCompile(`^[A-Za-z0-9/-]+$`)
	namePattern   = regexp.MustCompile(`^[A-Za-z][A-Za-z' -]*$`)
)

// Validate checks the form fields without touching the store.
func (s *Service) Validate(reg Registration) error {
	if !fileNoPattern.MatchString(reg.FileNo) {
		return records.Invalid("file_number", "invalid file number format")
	}
	if !namePattern.MatchString(reg.FirstName) {
		return records.Invalid("first_name", "invalid first name format")
	}
	if !namePattern.MatchString(reg.LastName) {
		return records.Invalid("last_name", "invalid last name format")
	}
	if len(s.opts.Roles) > 0 && !slices.Contains(s.opts.Roles, reg.Role) {
		return records.Invalid("role", fmt.Sprintf("unknown role %q", reg.Role))
	}
	if reg.Role == "" {
		return records.Invalid("role", "required")
	}
	if len(s.opts.Zones) > 0 && !slices.Contains(s.opts.Zones, reg.Zone) {
		return records.Invalid("zone", fmt.Sprintf("unknown zone %q", reg.Zone))
	}
	if reg.Zone == "" {
		return records.Invalid("zone", "required")
	}
	return nil
}

// Register stores the staff member with the mean of their captured samples
// and discards the capture session. Registering the same identity again
// replaces its vector.
func (s *Service) Register(ctx context.Context, reg Registration) (Staff, error) {
	if err := s.Validate(reg); err != nil {
		return Staff{}, err
	}
	if reg.CaptureID == "" {
		return Staff{}, records.Invalid("capture_id", "required")
	}
	samples, err := s.captured(ctx, reg.CaptureID)
	if err != nil {
		return Staff{}, err
	}
	if len(samples) == 0 {
		return Staff{}, records.Invalid("capture_id", "face embedding not found, capture your face again")
	}

	name := strings.TrimSpace(reg.FirstName) + " " + strings.TrimSpace(reg.LastName)
	key, err := Stream.Schema.Encode(reg.FileNo+"."+name, reg.Role, reg.Zone)
	if err != nil {
		return Staff{}, err
	}
	vec := Mean(samples)
	if err := s.store.Put(ctx, Stream, key, EncodeVector(vec)); err != nil {
		return Staff{}, err
	}
	// a failed cleanup is harmless: the session expires on its own
	_ = s.client.Del(ctx, captureKeyPrefix+reg.CaptureID).Err()
	return decodeKey(key, vec)
}

func decodeKey(key string, vec []float32) (Staff, error) {
	v, ok := Stream.Schema.Decode(key)
	if !ok {
		return Staff{}, fmt.Errorf("want 3 key fields, got %d", strings.Count(key, records.Delimiter)+1)
	}
	fileNo, name, found := strings.Cut(v[0], ".")
	if !found {
		return Staff{}, fmt.Errorf(`key %q has no "." between file number and name`, key)
	}
	return Staff{FileNo: fileNo, Name: name, Role: v[1], Zone: v[2], Embedding: vec, Key: key}, nil
}

// Decode parses one registry entry.
func Decode(e records.Entry, dim int) (Staff, error) {
	vec, err := DecodeVector(e.Value, dim)
	if err != nil {
		return Staff{}, err
	}
	return decodeKey(e.Raw, vec)
}

// Load returns every decodable registry entry, sorted by key.
func (s *Service) Load(ctx context.Context) (records.Result[Staff], error) {
	entries, err := s.store.ScanAll(ctx, Stream)
	if err != nil {
		return records.Result[Staff]{}, err
	}
	return records.DecodeAll(Stream, entries, s.opts.Policy, func(e records.Entry) (Staff, error) {
		return Decode(e, s.opts.Dim)
	})
}

// DeleteOutcome reports one key of a batch delete.
type DeleteOutcome struct {
	Key     string `json:"key"`
	Removed bool   `json:"removed"`
}

// DeleteResult is the outcome of a batch delete. On error, Outcomes holds
// only the keys attempted before the failure.
type DeleteResult struct {
	Deleted  int             `json:"deleted"`
	Outcomes []DeleteOutcome `json:"outcomes"`
}

// Delete removes each key independently. There is no all-or-nothing
// guarantee: a failure stops the batch and earlier deletes stand.
func (s *Service) Delete(ctx context.Context, keys []string) (DeleteResult, error) {
	var res DeleteResult
	for _, k := range keys {
		n, err := s.store.DeleteExact(ctx, Stream, k, records.DeleteFirst)
		if err != nil {
			return res, err
		}
		res.Outcomes = append(res.Outcomes, DeleteOutcome{Key: k, Removed: n > 0})
		if n > 0 {
			res.Deleted++
		}
	}
	return res, nil
}

// Clear drops the whole registry.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	return s.store.Clear(ctx, Stream)
}

// Filter narrows the registry by zone and role.
type Filter struct {
	Zone string
	Role string
}

// Apply keeps matching entries in order.
func (f Filter) Apply(all []Staff) []Staff {
	out := make([]Staff, 0, len(all))
	for _, st := range all {
		if f.Zone != "" && st.Zone != f.Zone {
			continue
		}
		if f.Role != "" && st.Role != f.Role {
			continue
		}
		out = append(out, st)
	}
	return out
}

// Match returns the registered staff member most similar to vec, provided
// the cosine similarity reaches threshold. Entries whose embedding length
// differs from vec never match.
func Match(all []Staff, vec []float32, threshold float64) (Staff, float64, bool) {
	var (
		best  Staff
		score = -1.0
		found bool
	)
	for _, st := range all {
		if len(st.Embedding) != len(vec) {
			continue
		}
		if sim := Cosine(st.Embedding, vec); !found || sim > score {
			best, score, found = st, sim, true
		}
	}
	if !found || score < threshold {
		return Staff{}, score, false
	}
	return best, score, true
}

// Table renders the registry. withFeatures adds the facial feature column
// used for full backups.
func Table(all []Staff, withFeatures bool) report.Table {
	t := report.Table{Headers: []string{"File No. Name", "Role", "Zone"}}
	if withFeatures {
		t.Headers = append(t.Headers, "Facial_features")
	}
	for _, st := range all {
		row := []string{st.FileNo + "." + st.Name, st.Role, st.Zone}
		if withFeatures {
			row = append(row, FormatVector(st.Embedding))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
