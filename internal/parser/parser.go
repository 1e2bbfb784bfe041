// Package parser defines the batch parser contract shared by source payload
// formats. The only implementation today is the CSV parser in the csv
// subpackage; the source client depends on this interface so a JSON variant
// of the upstream endpoint could be slotted in without touching it.
package parser

import (
	"io"

	"cdcetl/pkg/records"
)

// Parser decodes one payload into a batch of records.
type Parser interface {
	Parse(r io.Reader) ([]records.Record, error)
}
