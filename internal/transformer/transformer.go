// Package transformer cleans raw source batches into load-ready records.
// Transformations are pure and synchronous; the only side effect anywhere in
// the package is logging row counts.
package transformer

import "cdcetl/pkg/records"

// Transformer applies one transformation step to a batch.
type Transformer interface {
	Apply([]records.Record) []records.Record
}

// Chain is an ordered list of transformers applied left to right.
type Chain []Transformer

// Apply runs every transformer in order and returns the final batch.
func (c Chain) Apply(in []records.Record) []records.Record {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
