// Package builtin contains the reusable transformation steps the cleaning
// chain is composed from. Each step is a small value type implementing
// transformer.Transformer.
package builtin

import (
	"strconv"
	"strings"
	"time"

	"cdcetl/pkg/records"
)

// ParseDate parses the named column into a time.Time using the provided
// parse function and drops rows whose value is missing or unparsable. When
// the column is absent from the entire batch the step is a no-op: such rows
// are stored with a NULL date rather than dropped.
type ParseDate struct {
	Field string
	Parse func(string) (time.Time, bool)
}

// Apply implements transformer.Transformer.
func (p ParseDate) Apply(in []records.Record) []records.Record {
	if !records.HasColumn(in, p.Field) {
		return in
	}
	out := in[:0]
	for _, rec := range in {
		if _, ok := rec.Time(p.Field); ok {
			// Already parsed; reapplying the chain must not drop the row.
			out = append(out, rec)
			continue
		}
		s, ok := rec.String(p.Field)
		if !ok {
			continue
		}
		t, ok := p.Parse(s)
		if !ok {
			continue
		}
		rec[p.Field] = t
		out = append(out, rec)
	}
	return out
}

// CoerceInt converts the listed columns to integers. Missing or unparsable
// values become Default. Columns absent from the batch stay absent; the
// storage layer fills those at load time.
type CoerceInt struct {
	Fields  []string
	Default int
}

// Apply implements transformer.Transformer.
func (c CoerceInt) Apply(in []records.Record) []records.Record {
	for _, field := range c.Fields {
		if !records.HasColumn(in, field) {
			continue
		}
		for _, rec := range in {
			if _, ok := rec.Int(field); ok {
				continue
			}
			s, ok := rec.String(field)
			if !ok {
				rec[field] = c.Default
				continue
			}
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				n = c.Default
			}
			rec[field] = n
		}
	}
	return in
}

// FillDefault replaces missing or blank values in the listed columns with
// Value and trims surrounding whitespace from the rest. Columns absent from
// the batch stay absent.
type FillDefault struct {
	Fields []string
	Value  string
}

// Apply implements transformer.Transformer.
func (f FillDefault) Apply(in []records.Record) []records.Record {
	for _, field := range f.Fields {
		if !records.HasColumn(in, field) {
			continue
		}
		for _, rec := range in {
			s, ok := rec.String(field)
			if !ok || strings.TrimSpace(s) == "" {
				rec[field] = f.Value
				continue
			}
			rec[field] = strings.TrimSpace(s)
		}
	}
	return in
}

// Require removes any record missing a non-empty value for any of the listed
// fields.
type Require struct {
	Fields []string
}

// Apply returns a filtered slice containing only records that have all
// required fields present and non-empty.
func (r Require) Apply(in []records.Record) []records.Record {
	out := in[:0]
	for _, rec := range in {
		ok := true
		for _, f := range r.Fields {
			v, exists := rec[f]
			if !exists || v == nil || v == "" {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out
}

// EnsureColumn synthesizes the column with a constant value on every record
// when no record in the batch carries it. Records that already have the
// column (even blank) are left alone.
type EnsureColumn struct {
	Field string
	Value string
}

// Apply implements transformer.Transformer.
func (e EnsureColumn) Apply(in []records.Record) []records.Record {
	if records.HasColumn(in, e.Field) {
		return in
	}
	for _, rec := range in {
		rec[e.Field] = e.Value
	}
	return in
}
