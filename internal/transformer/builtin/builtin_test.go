package builtin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdcetl/pkg/records"
)

func parseISO(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", s)
	return t, err == nil
}

func TestParseDateDropsUnparsableRows(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		{"d": "2021-03-01", "v": "keep"},
		{"d": "not-a-date", "v": "drop"},
		{"d": "", "v": "drop"},
	}
	out := ParseDate{Field: "d", Parse: parseISO}.Apply(in)

	require.Len(t, out, 1)
	ts, ok := out[0].Time("d")
	require.True(t, ok)
	assert.Equal(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), ts)
}

func TestParseDateAbsentColumnIsNoOp(t *testing.T) {
	t.Parallel()

	in := []records.Record{{"v": "a"}, {"v": "b"}}
	out := ParseDate{Field: "d", Parse: parseISO}.Apply(in)
	assert.Len(t, out, 2, "rows without the column anywhere in the batch are kept")
}

func TestParseDateKeepsAlreadyParsedValues(t *testing.T) {
	t.Parallel()

	ts := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	in := []records.Record{{"d": ts}}
	out := ParseDate{Field: "d", Parse: parseISO}.Apply(in)

	require.Len(t, out, 1)
	got, ok := out[0].Time("d")
	require.True(t, ok)
	assert.Equal(t, ts, got)
}

func TestCoerceInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want int
	}{
		{"numeric string", "7", 7},
		{"padded string", " 3 ", 3},
		{"blank", "", 0},
		{"garbage", "n/a", 0},
		{"already coerced", 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := []records.Record{{"n": tt.in}}
			out := CoerceInt{Fields: []string{"n"}, Default: 0}.Apply(in)
			got, ok := out[0].Int("n")
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceIntAbsentColumnStaysAbsent(t *testing.T) {
	t.Parallel()

	in := []records.Record{{"v": "a"}}
	out := CoerceInt{Fields: []string{"n"}, Default: 0}.Apply(in)
	assert.False(t, out[0].Has("n"))
}

func TestFillDefault(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		{"sex": "Female"},
		{"sex": "  Male  "},
		{"sex": ""},
		{"sex": "   "},
	}
	out := FillDefault{Fields: []string{"sex"}, Value: "Unknown"}.Apply(in)

	assert.Equal(t, "Female", out[0]["sex"])
	assert.Equal(t, "Male", out[1]["sex"], "surrounding whitespace is trimmed")
	assert.Equal(t, "Unknown", out[2]["sex"])
	assert.Equal(t, "Unknown", out[3]["sex"])
}

func TestRequireDropsIncompleteRows(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		{"res_state": "NY", "state_fips_code": "36"},
		{"state_fips_code": "36"},
		{"res_state": "", "state_fips_code": "36"},
		{"res_state": nil, "state_fips_code": "36"},
	}
	out := Require{Fields: []string{"res_state", "state_fips_code"}}.Apply(in)

	require.Len(t, out, 1)
	assert.Equal(t, "NY", out[0]["res_state"])
}

func TestEnsureColumn(t *testing.T) {
	t.Parallel()

	t.Run("synthesizes when absent from batch", func(t *testing.T) {
		t.Parallel()
		in := []records.Record{{"v": "a"}, {"v": "b"}}
		out := EnsureColumn{Field: "process", Value: "Unknown"}.Apply(in)
		for _, rec := range out {
			assert.Equal(t, "Unknown", rec["process"])
		}
	})

	t.Run("leaves existing values alone", func(t *testing.T) {
		t.Parallel()
		in := []records.Record{{"process": "Clinical evaluation"}, {"process": ""}}
		out := EnsureColumn{Field: "process", Value: "Unknown"}.Apply(in)
		assert.Equal(t, "Clinical evaluation", out[0]["process"])
		assert.Equal(t, "", out[1]["process"], "blank but present values are not overwritten")
	})
}
