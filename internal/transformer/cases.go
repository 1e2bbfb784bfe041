package transformer

import (
	"go.uber.org/zap"

	"cdcetl/internal/logging"
	"cdcetl/internal/schema"
	"cdcetl/internal/source"
	"cdcetl/internal/transformer/builtin"
	"cdcetl/pkg/records"
)

// caseChain is the cleaning chain for case records, in contract order: parse
// the date column (dropping unparsable rows), coerce the interval columns,
// default the categorical columns, drop rows missing a required location
// field, and synthesize the process column when the source omits it.
var caseChain = Chain{
	builtin.ParseDate{Field: schema.DateColumn, Parse: source.ParseCaseDate},
	builtin.CoerceInt{Fields: schema.IntervalColumns, Default: 0},
	builtin.FillDefault{Fields: schema.CategoricalColumns, Value: schema.Unknown},
	builtin.Require{Fields: schema.RequiredColumns},
	builtin.EnsureColumn{Field: "process", Value: schema.Unknown},
}

// CleanCases cleans one raw batch into load-ready records. It is pure apart
// from logging, synchronous, and idempotent on already-clean input. An empty
// input is returned as-is with a warning.
func CleanCases(in []records.Record) []records.Record {
	if len(in) == 0 {
		logging.L.Warn("received an empty batch; no data to transform")
		return in
	}
	out := caseChain.Apply(in)
	logging.L.Info("cleaned batch",
		zap.Int("rows_in", len(in)),
		zap.Int("rows_out", len(out)))
	return out
}
