package duty

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffsuite/internal/records"
)

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := NewService(records.NewStore(client), time.UTC, records.SkipMalformed)
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("r%d", n)
	}
	return svc, mr
}

func TestSubmitAndLoad(t *testing.T) {
	ctx := context.Background()
	svc, mr := newTestService(t)
	at := time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC)

	rep, err := svc.Submit(ctx, Report{
		OfficerRole: "Security",
		DutyType:    "Night",
		Timestamp:   at,
		Extra:       map[string]string{"remarks": "gate 2 @ 23:00 locked"},
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", rep.ID)
	assert.Equal(t, "Night", mr.HGet("duty_report:r1", "duty_type"))

	res, err := svc.Load(ctx)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, rep, res.Records[0])
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Submit(ctx, Report{DutyType: "Night"})
	assert.True(t, errors.Is(err, records.ErrValidation))

	_, err = svc.Submit(ctx, Report{OfficerRole: "Security", DutyType: "Night", Extra: map[string]string{"timestamp": "x"}})
	assert.True(t, errors.Is(err, records.ErrValidation))
}

func TestLoadSkipsIncompleteDocuments(t *testing.T) {
	ctx := context.Background()
	svc, mr := newTestService(t)
	mr.HSet("duty_report:a", "officer_role", "Security", "duty_type", "Day", "timestamp", "2024-05-01 08:00:00")
	mr.HSet("duty_report:b", "officer_role", "Security")
	mr.HSet("duty_report:c", "officer_role", "Admin", "duty_type", "Day", "timestamp", "soon")

	res, err := svc.Load(ctx)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "a", res.Records[0].ID)
	assert.Equal(t, 2, res.Skipped)
}

func TestLoadSkipsNonHashKeys(t *testing.T) {
	ctx := context.Background()
	svc, mr := newTestService(t)
	mr.HSet("duty_report:good", "officer_role", "Security", "duty_type", "Night", "timestamp", "2024-05-01 22:00:00")
	require.NoError(t, mr.Set("duty_report:stray", "not a hash"))

	res, err := svc.Load(ctx)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "good", res.Records[0].ID)
	assert.Equal(t, 1, res.Skipped)

	strict := NewService(svc.store, time.UTC, records.FailMalformed)
	_, err = strict.Load(ctx)
	assert.True(t, errors.Is(err, records.ErrMalformed))
	assert.False(t, errors.Is(err, records.ErrConnectivity))
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	for i := 0; i < 3; i++ {
		_, err := svc.Submit(ctx, Report{OfficerRole: "Security", DutyType: "Day"})
		require.NoError(t, err)
	}

	n, err := svc.Delete(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = svc.Delete(ctx, "r2")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	res, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
}

func TestFilterAndTable(t *testing.T) {
	reps := []Report{
		{ID: "1", OfficerRole: "Security", DutyType: "Day", Timestamp: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)},
		{ID: "2", OfficerRole: "Security", DutyType: "Night", Timestamp: time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC), Extra: map[string]string{"remarks": "quiet"}},
		{ID: "3", OfficerRole: "Admin", DutyType: "Day", Timestamp: time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)},
	}

	got := Filter{OfficerRole: "Security"}.Apply(reps, time.UTC)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)

	got = Filter{DutyType: "Day", Date: "2024-05-02"}.Apply(reps, time.UTC)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)

	var buf bytes.Buffer
	require.NoError(t, Table(reps[:2], time.UTC).WriteCSV(&buf))
	assert.Equal(t, "id,officer_role,duty_type,timestamp,remarks\n"+
		"1,Security,Day,2024-05-01T08:00:00,\n"+
		"2,Security,Night,2024-05-01T22:00:00,quiet\n", buf.String())
}
