package movement

import (
	"bytes"
	"context"
	"errors"
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
	return NewService(records.NewStore(client), time.UTC, records.SkipMalformed), mr
}

func TestLogRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	in := Record{
		Name:         "Jane Doe",
		Role:         "ICT",
		Timestamp:    time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC),
		MovementType: "Out",
		Purpose:      "Official",
		Location:     "Ikoyi",
		Note:         "court filing",
	}

	got, err := svc.Log(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe@ICT@2024-03-04T10:30:00@Out@Official@Ikoyi@court filing", got.Raw)

	res, err := svc.Load(ctx)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	in.Raw = got.Raw
	assert.Equal(t, in, res.Records[0])
}

func TestLogRejectsDelimiterAndMissingFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Log(ctx, Record{Name: "Jane", Role: "ICT", MovementType: "Out", Note: "email me @ home"})
	assert.True(t, errors.Is(err, records.ErrValidation))

	_, err = svc.Log(ctx, Record{Name: "Jane", Role: "ICT"})
	assert.True(t, errors.Is(err, records.ErrValidation))
	// with every required field blank the first one is reported, every time
	for i := 0; i < 20; i++ {
		_, err = Encode(Record{}, time.UTC)
		var verr *records.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "name", verr.Field)
	}
	_, err = Encode(Record{Name: "Jane"}, time.UTC)
	assert.ErrorContains(t, err, "role")
}

func TestLoadDropsWrongArity(t *testing.T) {
	ctx := context.Background()
	svc, mr := newTestService(t)
	_, err := mr.Push(Stream.Key,
		"Jane@ICT@2024-03-04T10:30:00@Out@Official@Ikoyi@",
		"Jane@ICT@2024-03-04T10:30:00@Out@Official@Ikoyi",
		"Jane@ICT@2024-03-04T10:30:00@Out@Official@Ikoyi@a@b",
	)
	require.NoError(t, err)

	res, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, 2, res.Skipped)
}

func TestFilterNewestFirst(t *testing.T) {
	recs := []Record{
		{Name: "Jane", MovementType: "Out", Timestamp: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), Raw: "1"},
		{Name: "Ola", MovementType: "In", Timestamp: time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC), Raw: "2"},
		{Name: "Jane", MovementType: "In", Timestamp: time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC), Raw: "3"},
		{Name: "Jane", MovementType: "Out", Timestamp: time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC), Raw: "4"},
	}

	got := Filter{Name: "Jane", Date: "2024-03-04"}.Apply(recs, time.UTC)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].Raw)
	assert.Equal(t, "1", got[1].Raw)

	got = Filter{MovementType: "Out"}.Apply(recs, time.UTC)
	require.Len(t, got, 2)
	assert.Equal(t, "4", got[0].Raw)

	names, types, dates := Options(recs, time.UTC)
	assert.Equal(t, []string{"Jane", "Ola"}, names)
	assert.Equal(t, []string{"In", "Out"}, types)
	assert.Equal(t, []string{"2024-03-04", "2024-03-05"}, dates)
}

func TestTable(t *testing.T) {
	recs := []Record{{Name: "Jane", Role: "ICT", Timestamp: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), MovementType: "Out"}}
	var buf bytes.Buffer
	require.NoError(t, Table(recs, time.UTC).WriteCSV(&buf))
	assert.Equal(t, "Name,Role,Timestamp,Movement Type,Purpose,Location,Note\nJane,ICT,2024-03-04T09:00:00,Out,,,\n", buf.String())
}

func TestClearAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	rec, err := svc.Log(ctx, Record{Name: "Jane", Role: "ICT", MovementType: "Out"})
	require.NoError(t, err)

	n, err := svc.Delete(ctx, rec.Raw+"x", records.DeleteFirst)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	res, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
}
