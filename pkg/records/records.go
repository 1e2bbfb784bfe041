// Package records defines the row-oriented batch representation shared by the
// parser, transformer, and storage layers.
//
// A source batch may or may not contain a given column, so records are maps
// with explicit presence checks rather than fixed structs. Values start life
// as strings parsed from CSV; the transformer replaces them with typed values
// (time.Time for dates, int for numeric columns) before loading.
package records

import "time"

// Record is a single row keyed by canonical column name. A missing key means
// the column was absent from the source; an empty string means the column was
// present but blank.
type Record map[string]any

// Has reports whether the column is present on this record.
func (r Record) Has(col string) bool {
	_, ok := r[col]
	return ok
}

// String returns the value for col as a string. The second return is false
// when the column is absent, nil, or not a string.
func (r Record) String(col string) (string, bool) {
	v, ok := r[col]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns the value for col as an int, if it has been coerced to one.
func (r Record) Int(col string) (int, bool) {
	v, ok := r[col]
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

// Time returns the value for col as a time.Time, if it has been parsed to one.
func (r Record) Time(col string) (time.Time, bool) {
	v, ok := r[col]
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// HasColumn reports whether any record in the batch carries the column.
// Batches produced by the CSV parser are uniform (every record shares the
// header's columns), so in practice this is a check on the first record, but
// scanning keeps the contract honest for hand-built batches.
func HasColumn(batch []Record, col string) bool {
	for _, r := range batch {
		if r.Has(col) {
			return true
		}
	}
	return false
}
