// Package schema is the single source of truth for the case table: column
// names, insert order, per-column defaults, the uniqueness key, and which
// columns an upsert may overwrite.
package schema

// Table is the target table name.
const Table = "cdc_covid_cases"

// DateColumn is the calendar-date column used for range filtering and for the
// uniqueness key.
const DateColumn = "case_month"

// Unknown is the default for categorical columns absent from a source row.
const Unknown = "Unknown"

// InsertColumns lists every non-surrogate column in insert order. The id
// column is populated by the database and never written by the loader.
var InsertColumns = []string{
	"case_month",
	"res_state",
	"state_fips_code",
	"age_group",
	"sex",
	"race",
	"ethnicity",
	"case_positive_specimen_interval",
	"case_onset_interval",
	"process",
	"exposure_yn",
	"current_status",
	"symptom_status",
	"hosp_yn",
	"icu_yn",
	"death_yn",
	"underlying_conditions_yn",
}

// KeyColumns uniquely identify a stored record. A second record with the same
// key tuple updates only VolatileColumns on the existing row.
var KeyColumns = []string{
	"case_month",
	"res_state",
	"age_group",
	"sex",
	"race",
	"ethnicity",
}

// VolatileColumns may legitimately change across repeated observations of the
// same case and are the only columns an upsert overwrites on conflict.
var VolatileColumns = []string{
	"death_yn",
	"hosp_yn",
	"icu_yn",
	"underlying_conditions_yn",
}

// CategoricalColumns default to Unknown when absent or blank. res_state is
// deliberately not in this list: it is required, and filling it would mask
// rows that must be dropped instead.
var CategoricalColumns = []string{
	"age_group",
	"sex",
	"race",
	"ethnicity",
	"exposure_yn",
	"current_status",
	"symptom_status",
	"death_yn",
	"hosp_yn",
	"icu_yn",
	"underlying_conditions_yn",
	"process",
}

// IntervalColumns are coerced to integers, defaulting to 0.
var IntervalColumns = []string{
	"case_positive_specimen_interval",
	"case_onset_interval",
}

// RequiredColumns must be present and non-empty for a row to be stored.
var RequiredColumns = []string{
	"res_state",
	"state_fips_code",
}

// defaults maps columns to the value substituted when a row lacks them at
// load time. case_month is absent: its default is SQL NULL.
var defaults = map[string]any{
	"res_state":                       Unknown,
	"state_fips_code":                 0,
	"age_group":                       Unknown,
	"sex":                             Unknown,
	"race":                            Unknown,
	"ethnicity":                       Unknown,
	"case_positive_specimen_interval": 0,
	"case_onset_interval":             0,
	"process":                         Unknown,
	"exposure_yn":                     Unknown,
	"current_status":                  Unknown,
	"symptom_status":                  Unknown,
	"hosp_yn":                         Unknown,
	"icu_yn":                          Unknown,
	"death_yn":                        Unknown,
	"underlying_conditions_yn":        Unknown,
}

// Default returns the load-time default for col, or nil when the column has
// no default (currently only case_month, stored as NULL).
func Default(col string) any {
	return defaults[col]
}
