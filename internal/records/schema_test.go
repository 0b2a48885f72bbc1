package records

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffsuite/internal/metrics"
)

var zoned = Schema{
	ID:       "zoned/v1",
	Fields:   []string{"who", "when", "zone"},
	Optional: 1,
	Defaults: map[string]string{"zone": "Lagos Zone 2"},
}

func TestEncodeRejectsDelimiter(t *testing.T) {
	_, err := zoned.Encode("a@b", "t", "z")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "who", verr.Field)
}

func TestEncodeRejectsArity(t *testing.T) {
	_, err := zoned.Encode("a", "b")
	assert.Error(t, err)
}

func TestDecodeRoundTrip(t *testing.T) {
	raw, err := zoned.Encode("A001.Jane", "2024-01-01T09:00:00", "Kano Zone")
	require.NoError(t, err)
	assert.Equal(t, "A001.Jane@2024-01-01T09:00:00@Kano Zone", raw)

	values, ok := zoned.Decode(raw)
	require.True(t, ok)
	assert.Equal(t, []string{"A001.Jane", "2024-01-01T09:00:00", "Kano Zone"}, values)
}

func TestDecodeDefaultsOptional(t *testing.T) {
	short, ok := zoned.Decode("A001.Jane@2024-01-01T09:00:00")
	require.True(t, ok)
	full, ok := zoned.Decode("A001.Jane@2024-01-01T09:00:00@Lagos Zone 2")
	require.True(t, ok)
	assert.Equal(t, full, short)
}

func TestDecodeWrongArity(t *testing.T) {
	for _, raw := range []string{"", "only", "a@b@c@d"} {
		_, ok := zoned.Decode(raw)
		assert.False(t, ok, raw)
	}
}

func TestDecodeAllSkipsAndCounts(t *testing.T) {
	st := Stream{Name: "decode_all_test", Schema: zoned}
	entries := []Entry{{Raw: "a@t"}, {Raw: "broken"}, {Raw: "b@t@z"}, {Raw: "a@b@c@d"}}
	decode := func(e Entry) ([]string, error) {
		v, ok := st.Schema.Decode(e.Raw)
		if !ok {
			return nil, fmt.Errorf("bad arity")
		}
		return v, nil
	}

	before := testutil.ToFloat64(metrics.DecodeSkipped.WithLabelValues(st.Name))
	res, err := DecodeAll(st, entries, SkipMalformed, decode)
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.DecodeSkipped.WithLabelValues(st.Name)))

	_, err = DecodeAll(st, entries, FailMalformed, decode)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestParseTimeLayouts(t *testing.T) {
	want := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	for _, s := range []string{"2024-01-01T09:00:00", "2024-01-01 09:00:00", "2024-01-01T09:00:00Z"} {
		got, err := ParseTime(s, time.UTC)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
	}

	micro, err := ParseTime("2024-01-01 09:00:00.250000", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, micro.Sub(want))

	_, err = ParseTime("yesterday", time.UTC)
	assert.Error(t, err)
}

func TestFormatTimeUsesLocation(t *testing.T) {
	lagos := time.FixedZone("WAT", 3600)
	ts := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-01T09:00:00", FormatTime(ts, lagos))

	back, err := ParseTime(FormatTime(ts, lagos), lagos)
	require.NoError(t, err)
	assert.True(t, ts.Equal(back))
}
