package storage

import (
	"time"

	"cdcetl/internal/schema"
	"cdcetl/pkg/records"
)

// dateFormat is the calendar-date wire format shared by all backends.
const dateFormat = "2006-01-02"

// RowValues flattens a cleaned record into bind values aligned with
// schema.InsertColumns. Columns absent from the record get their schema
// default; an absent or unparsed date becomes NULL. Parsed dates are bound as
// date strings so every driver stores a plain calendar date.
func RowValues(rec records.Record) []any {
	out := make([]any, len(schema.InsertColumns))
	for i, col := range schema.InsertColumns {
		v, ok := rec[col]
		if !ok || v == nil {
			out[i] = schema.Default(col)
			continue
		}
		if t, isTime := v.(time.Time); isTime {
			out[i] = t.Format(dateFormat)
			continue
		}
		out[i] = v
	}
	return out
}

// BatchValues applies RowValues to every record in the batch.
func BatchValues(recs []records.Record) [][]any {
	rows := make([][]any, len(recs))
	for i, rec := range recs {
		rows[i] = RowValues(rec)
	}
	return rows
}
