package records

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"staffsuite/internal/metrics"
)

// Auditor receives destructive operations after they hit the store.
type Auditor interface {
	Record(ctx context.Context, ev AuditEvent) error
}

// AuditEvent describes one delete or clear.
type AuditEvent struct {
	Actor   string
	Stream  string
	Op      string
	Target  string
	Removed int64
}

// Store is the Redis-backed record log store. Every method maps onto one
// Redis primitive (or a pipeline of them); nothing is retried.
type Store struct {
	client  *redis.Client
	auditor Auditor
}

// NewStore wraps an existing client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// WithAuditor attaches an audit sink for deletes and clears.
func (s *Store) WithAuditor(a Auditor) *Store {
	s.auditor = a
	return s
}

// Client exposes the underlying redis client for collaborators that share it.
func (s *Store) Client() *redis.Client { return s.client }

// Healthy pings the backing store.
func (s *Store) Healthy(ctx context.Context) bool {
	return s != nil && s.client != nil && s.client.Ping(ctx).Err() == nil
}

// Append pushes raw to the tail of a list stream.
func (s *Store) Append(ctx context.Context, st Stream, raw string) error {
	if st.Kind != List {
		return fmt.Errorf("%s: append on %s stream", st.Name, st.Kind)
	}
	if err := s.client.RPush(ctx, st.Key, raw).Err(); err != nil {
		return s.fail("append", st, err)
	}
	metrics.RecordsAppended.WithLabelValues(st.Name).Inc()
	return nil
}

// Put sets field to value in a hash stream.
func (s *Store) Put(ctx context.Context, st Stream, field string, value []byte) error {
	if st.Kind != Hash {
		return fmt.Errorf("%s: put on %s stream", st.Name, st.Kind)
	}
	if err := s.client.HSet(ctx, st.Key, field, value).Err(); err != nil {
		return s.fail("put", st, err)
	}
	metrics.RecordsAppended.WithLabelValues(st.Name).Inc()
	return nil
}

// PutDocument writes one hash per record at the stream prefix plus id.
func (s *Store) PutDocument(ctx context.Context, st Stream, id string, fields map[string]string) error {
	if st.Kind != Namespace {
		return fmt.Errorf("%s: put document on %s stream", st.Name, st.Kind)
	}
	if id == "" || len(fields) == 0 {
		return Invalid("id", "document id and fields required")
	}
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	if err := s.client.HSet(ctx, st.Key+id, args...).Err(); err != nil {
		return s.fail("put", st, err)
	}
	metrics.RecordsAppended.WithLabelValues(st.Name).Inc()
	return nil
}

// ScanAll returns every record currently in the stream. Lists come back in
// append order; hash and namespace entries are sorted by identity.
func (s *Store) ScanAll(ctx context.Context, st Stream) ([]Entry, error) {
	switch st.Kind {
	case List:
		raws, err := s.client.LRange(ctx, st.Key, 0, -1).Result()
		if err != nil {
			return nil, s.fail("scan", st, err)
		}
		out := make([]Entry, len(raws))
		for i, raw := range raws {
			out[i] = Entry{Raw: raw}
		}
		return out, nil

	case Hash:
		m, err := s.client.HGetAll(ctx, st.Key).Result()
		if err != nil {
			return nil, s.fail("scan", st, err)
		}
		out := make([]Entry, 0, len(m))
		for field, v := range m {
			out = append(out, Entry{Raw: field, Value: []byte(v)})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Raw < out[j].Raw })
		return out, nil

	case Namespace:
		keys, err := s.namespaceKeys(ctx, st)
		if err != nil {
			return nil, err
		}
		out := make([]Entry, 0, len(keys))
		for _, key := range keys {
			fields, err := s.client.HGetAll(ctx, key).Result()
			if isWrongType(err) {
				// not a hash; nil Fields makes the stream decoder reject it
				out = append(out, Entry{Raw: key})
				continue
			}
			if err != nil {
				return nil, s.fail("scan", st, err)
			}
			if len(fields) == 0 {
				// removed between SCAN and HGETALL
				continue
			}
			out = append(out, Entry{Raw: key, Fields: fields})
		}
		return out, nil
	}
	return nil, fmt.Errorf("%s: unknown stream kind", st.Name)
}

// DeleteExact removes the record whose identity is raw. For lists mode picks
// one or every equal element. Absent targets remove nothing and are not errors.
func (s *Store) DeleteExact(ctx context.Context, st Stream, raw string, mode DeleteMode) (int64, error) {
	var (
		n   int64
		err error
	)
	switch st.Kind {
	case List:
		count := int64(1)
		if mode == DeleteAll {
			count = 0
		}
		n, err = s.client.LRem(ctx, st.Key, count, raw).Result()
	case Hash:
		n, err = s.client.HDel(ctx, st.Key, raw).Result()
	case Namespace:
		key := raw
		if !strings.HasPrefix(key, st.Key) {
			key = st.Key + raw
		}
		n, err = s.client.Del(ctx, key).Result()
	default:
		return 0, fmt.Errorf("%s: unknown stream kind", st.Name)
	}
	if err != nil {
		return 0, s.fail("delete", st, err)
	}
	s.removed(ctx, st, "delete", raw, n)
	return n, nil
}

// Clear wipes the whole stream and reports how many records it held.
func (s *Store) Clear(ctx context.Context, st Stream) (int64, error) {
	var n int64
	switch st.Kind {
	case List, Hash:
		var size *redis.IntCmd
		_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			if st.Kind == List {
				size = p.LLen(ctx, st.Key)
			} else {
				size = p.HLen(ctx, st.Key)
			}
			p.Del(ctx, st.Key)
			return nil
		})
		if err != nil {
			return 0, s.fail("clear", st, err)
		}
		n = size.Val()
	case Namespace:
		keys, err := s.namespaceKeys(ctx, st)
		if err != nil {
			return 0, err
		}
		for start := 0; start < len(keys); start += 100 {
			end := min(start+100, len(keys))
			removed, err := s.client.Del(ctx, keys[start:end]...).Result()
			if err != nil {
				// earlier batches stay deleted; callers re-scan to see what is left
				s.removed(ctx, st, "clear", st.Key+"*", n)
				return n, s.fail("clear", st, err)
			}
			n += removed
		}
	default:
		return 0, fmt.Errorf("%s: unknown stream kind", st.Name)
	}
	s.removed(ctx, st, "clear", st.Key, n)
	return n, nil
}

func (s *Store) namespaceKeys(ctx context.Context, st Stream) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, st.Key+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, s.fail("scan", st, err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) fail(op string, st Stream, err error) error {
	metrics.StoreErrors.WithLabelValues(st.Name, op).Inc()
	if isReply(err) {
		return fmt.Errorf("%s %s: %w", op, st.Name, err)
	}
	return connectivity(op, st.Name, err)
}

func (s *Store) removed(ctx context.Context, st Stream, op, target string, n int64) {
	if n > 0 {
		metrics.RecordsRemoved.WithLabelValues(st.Name, op).Add(float64(n))
	}
	if s.auditor == nil {
		return
	}
	ev := AuditEvent{Actor: ActorFrom(ctx), Stream: st.Name, Op: op, Target: target, Removed: n}
	if err := s.auditor.Record(ctx, ev); err != nil {
		log.Printf("audit %s %s failed: %v", op, st.Name, err)
	}
}

type actorKey struct{}

// WithActor tags ctx with the identity performing store operations.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the identity set by WithActor, or "system".
func ActorFrom(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok && v != "" {
		return v
	}
	return "system"
}
