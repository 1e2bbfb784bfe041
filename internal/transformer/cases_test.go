package transformer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdcetl/pkg/records"
)

func fullRow() records.Record {
	return records.Record{
		"case_month":                      "2021-03",
		"res_state":                       "NY",
		"state_fips_code":                 "36",
		"age_group":                       "18 to 49 years",
		"sex":                             "Female",
		"race":                            "White",
		"ethnicity":                       "Non-Hispanic/Latino",
		"case_positive_specimen_interval": "0",
		"case_onset_interval":             "1",
		"process":                         "Clinical evaluation",
		"exposure_yn":                     "Yes",
		"current_status":                  "Laboratory-confirmed case",
		"symptom_status":                  "Symptomatic",
		"hosp_yn":                         "No",
		"icu_yn":                          "No",
		"death_yn":                        "No",
		"underlying_conditions_yn":        "Yes",
	}
}

func TestCleanCasesDropsInvalidRows(t *testing.T) {
	valid := fullRow()

	noState := fullRow()
	noState["res_state"] = ""

	badDate := fullRow()
	badDate["case_month"] = "definitely-not-a-date"

	out := CleanCases([]records.Record{valid, noState, badDate})

	require.Len(t, out, 1)
	ts, ok := out[0].Time("case_month")
	require.True(t, ok)
	assert.Equal(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), ts)
	assert.Equal(t, "NY", out[0]["res_state"])
}

func TestCleanCasesFillsCategoricalDefaults(t *testing.T) {
	row := fullRow()
	row["sex"] = ""
	row["race"] = "  "
	delete(row, "process")

	out := CleanCases([]records.Record{row})

	require.Len(t, out, 1)
	assert.Equal(t, "Unknown", out[0]["sex"])
	assert.Equal(t, "Unknown", out[0]["race"])
	assert.Equal(t, "Unknown", out[0]["process"], "process is synthesized when the source omits it")
}

func TestCleanCasesCoercesIntervals(t *testing.T) {
	row := fullRow()
	row["case_positive_specimen_interval"] = "2"
	row["case_onset_interval"] = "not a number"

	out := CleanCases([]records.Record{row})

	require.Len(t, out, 1)
	n, ok := out[0].Int("case_positive_specimen_interval")
	require.True(t, ok)
	assert.Equal(t, 2, n)
	n, ok = out[0].Int("case_onset_interval")
	require.True(t, ok)
	assert.Equal(t, 0, n)
}

func TestCleanCasesBlankResStateNeverSurvives(t *testing.T) {
	// A blank required field must drop the row, not be defaulted to Unknown.
	row := fullRow()
	row["res_state"] = ""

	out := CleanCases([]records.Record{row})
	assert.Empty(t, out)
}

func TestCleanCasesIdempotent(t *testing.T) {
	once := CleanCases([]records.Record{fullRow(), fullRow()})
	require.Len(t, once, 2)

	again := CleanCases(once)
	require.Len(t, again, 2)
	assert.Equal(t, once, again)
}

func TestCleanCasesEmptyInput(t *testing.T) {
	assert.Empty(t, CleanCases(nil))
	assert.Empty(t, CleanCases([]records.Record{}))
}
