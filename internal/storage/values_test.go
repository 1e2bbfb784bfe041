package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdcetl/internal/schema"
	"cdcetl/pkg/records"
)

func TestRowValuesAlignsWithInsertColumns(t *testing.T) {
	t.Parallel()

	rec := records.Record{
		"case_month":                      time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
		"res_state":                       "NY",
		"state_fips_code":                 "36",
		"case_positive_specimen_interval": 2,
	}
	vals := RowValues(rec)
	require.Len(t, vals, len(schema.InsertColumns))

	byCol := map[string]any{}
	for i, col := range schema.InsertColumns {
		byCol[col] = vals[i]
	}

	assert.Equal(t, "2021-03-01", byCol["case_month"], "parsed dates are bound as date strings")
	assert.Equal(t, "NY", byCol["res_state"])
	assert.Equal(t, 2, byCol["case_positive_specimen_interval"])
	assert.Equal(t, schema.Unknown, byCol["sex"], "absent categorical columns fall back to the schema default")
	assert.Equal(t, 0, byCol["case_onset_interval"])
}

func TestRowValuesMissingDateIsNull(t *testing.T) {
	t.Parallel()

	vals := RowValues(records.Record{"res_state": "CA"})
	assert.Nil(t, vals[0], "case_month is first in insert order and defaults to NULL")
}

func TestBatchValues(t *testing.T) {
	t.Parallel()

	rows := BatchValues([]records.Record{
		{"res_state": "NY"},
		{"res_state": "CA"},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "NY", rows[0][1])
	assert.Equal(t, "CA", rows[1][1])
}
