package records

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testList = Stream{Name: "test_list", Key: "test:logs", Kind: List}
	testHash = Stream{Name: "test_hash", Key: "test:register", Kind: Hash}
	testDocs = Stream{Name: "test_docs", Key: "test_doc:", Kind: Namespace}
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

type recordingAuditor struct {
	events []AuditEvent
}

func (a *recordingAuditor) Record(_ context.Context, ev AuditEvent) error {
	a.events = append(a.events, ev)
	return nil
}

func TestAppendScanKeepsAppendOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	for _, raw := range []string{"a@1", "b@2", "c@3"} {
		require.NoError(t, s.Append(ctx, testList, raw))
	}

	entries, err := s.ScanAll(ctx, testList)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a@1", entries[0].Raw)
	assert.Equal(t, "b@2", entries[1].Raw)
	assert.Equal(t, "c@3", entries[2].Raw)
}

func TestAppendRejectsWrongKind(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Error(t, s.Append(context.Background(), testHash, "x"))
}

func TestClearThenScanIsEmpty(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.Append(ctx, testList, "a"))
	require.NoError(t, s.Append(ctx, testList, "b"))

	n, err := s.Clear(ctx, testList)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	entries, err := s.ScanAll(ctx, testList)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDeleteExactAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.Append(ctx, testList, "present"))

	n, err := s.DeleteExact(ctx, testList, "missing", DeleteFirst)
	require.NoError(t, err)
	assert.Zero(t, n)

	entries, err := s.ScanAll(ctx, testList)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDeleteExactModes(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	for _, raw := range []string{"dup", "other", "dup", "dup"} {
		require.NoError(t, s.Append(ctx, testList, raw))
	}

	n, err := s.DeleteExact(ctx, testList, "dup", DeleteFirst)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	entries, err := s.ScanAll(ctx, testList)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "other", entries[0].Raw)

	n, err = s.DeleteExact(ctx, testList, "dup", DeleteAll)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	entries, err = s.ScanAll(ctx, testList)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "other", entries[0].Raw)
}

func TestHashPutScanDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.Put(ctx, testHash, "b@x", []byte{1, 2}))
	require.NoError(t, s.Put(ctx, testHash, "a@y", []byte{3}))

	entries, err := s.ScanAll(ctx, testHash)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a@y", entries[0].Raw)
	assert.Equal(t, []byte{3}, entries[0].Value)

	n, err := s.DeleteExact(ctx, testHash, "a@y", DeleteFirst)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.DeleteExact(ctx, testHash, "a@y", DeleteFirst)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.Clear(ctx, testHash)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestNamespaceDocuments(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	require.NoError(t, s.PutDocument(ctx, testDocs, "1", map[string]string{"duty_type": "Night"}))
	require.NoError(t, s.PutDocument(ctx, testDocs, "2", map[string]string{"duty_type": "Day"}))
	mr.Set("unrelated", "x")

	entries, err := s.ScanAll(ctx, testDocs)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "test_doc:1", entries[0].Raw)
	assert.Equal(t, "Night", entries[0].Fields["duty_type"])

	n, err := s.DeleteExact(ctx, testDocs, "1", DeleteFirst)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Clear(ctx, testDocs)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.True(t, mr.Exists("unrelated"))
}

func TestConnectivityErrors(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	mr.Close()

	err := s.Append(ctx, testList, "a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConnectivity))

	_, err = s.ScanAll(ctx, testList)
	assert.True(t, errors.Is(err, ErrConnectivity))
	assert.False(t, s.Healthy(ctx))
}

func TestWrongTypeIsNotConnectivity(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set(testList.Key, "x"))
	require.NoError(t, mr.Set(testHash.Key, "x"))

	err := s.Append(ctx, testList, "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WRONGTYPE")
	assert.False(t, errors.Is(err, ErrConnectivity))

	_, err = s.ScanAll(ctx, testHash)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrConnectivity))

	require.NoError(t, mr.Set(testDocs.Key+"stray", "x"))
	mr.HSet(testDocs.Key+"1", "a", "b")
	entries, err := s.ScanAll(ctx, testDocs)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, map[string]string{"a": "b"}, entries[0].Fields)
	assert.Equal(t, testDocs.Key+"stray", entries[1].Raw)
	assert.Nil(t, entries[1].Fields)
}

func TestAuditorSeesDestructiveOps(t *testing.T) {
	a := &recordingAuditor{}
	s, _ := newTestStore(t)
	s.WithAuditor(a)
	ctx := WithActor(context.Background(), "jsmith")

	require.NoError(t, s.Append(ctx, testList, "a"))
	_, err := s.DeleteExact(ctx, testList, "a", DeleteFirst)
	require.NoError(t, err)
	_, err = s.Clear(ctx, testList)
	require.NoError(t, err)

	require.Len(t, a.events, 2)
	assert.Equal(t, AuditEvent{Actor: "jsmith", Stream: "test_list", Op: "delete", Target: "a", Removed: 1}, a.events[0])
	assert.Equal(t, "clear", a.events[1].Op)
	assert.Equal(t, int64(0), a.events[1].Removed)
}
