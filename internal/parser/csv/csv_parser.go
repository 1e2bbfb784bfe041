// Package csv parses CSV payloads into record batches keyed by column name.
// The source's column set is not fixed, so the parser emits whatever columns
// the header names; downstream code must check for column presence rather
// than assume it.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"cdcetl/pkg/records"
)

// Options configures parser behavior. All fields are optional; sensible
// defaults are applied when a field is zero.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// HeaderMap maps source header names to canonical keys. Headers without a
	// mapping are kept as-is.
	HeaderMap map[string]string
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// Parse reads the entire CSV stream and returns one record per data row.
// Rows narrower than the header simply omit the trailing columns; rows wider
// than the header have the extra cells dropped. An input with a header but no
// data rows returns an empty, non-nil batch.
func (p *Parser) Parse(r io.Reader) ([]records.Record, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return []records.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	header = stripHeaderBOM(header)

	cols := make([]string, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if mapped, ok := p.opt.HeaderMap[name]; ok && mapped != "" {
			name = mapped
		}
		cols[i] = name
	}

	batch := []records.Record{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row %d: %w", line, err)
		}

		rec := make(records.Record, len(cols))
		for i, col := range cols {
			if col == "" || i >= len(row) {
				continue
			}
			v := row[i]
			if p.opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			rec[col] = v
		}
		batch = append(batch, rec)
	}
	return batch, nil
}

// stripHeaderBOM removes a UTF-8 BOM from the first header cell if present.
func stripHeaderBOM(headers []string) []string {
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	}
	return headers
}
