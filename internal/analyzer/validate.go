package analyzer

import (
	"strings"

	"analyzer/pkg/domain"
)

// Field names the engine adds to every output record.
const (
	fieldErrorDetails = "Error Details"
	fieldHasError     = "has_error"
	fieldDuplicate    = "Duplicate Error"
	fieldNote         = "note"
)

// Duplicate messages appended to a record's error details.
const (
	duplicateOperationalMsg = "Duplicate Flock/Date"
	duplicateCareMsg        = "Duplicate Flock/Date/Vaccination/Medication"
)

// isOperationalRow classifies a row. A row is operational when any required
// operational column (excluding the optional ones and the Flock/Date keys)
// holds a non-empty, non-zero value. Everything else is a care row.
func isOperationalRow(row Row) bool {
	for _, col := range RequiredOperationalColumns {
		if optionalOrKey(col) {
			continue
		}
		switch v := row[col].(type) {
		case float64:
			if v != 0 {
				return true
			}
		case string:
			s := strings.TrimSpace(v)
			if s != "" && s != "0" && !strings.EqualFold(s, "nan") {
				return true
			}
		}
	}

	return false
}

// checkOperationalRow validates one operational row and returns the joined
// error details, or "" when the row is valid. Required columns must be
// present, numeric columns must not be negative, and the Flock/Date keys must
// both be set.
func checkOperationalRow(row Row) string {
	var errs []string
	for _, col := range RequiredOperationalColumns {
		if optionalOrKey(col) {
			continue
		}
		v := row[col]
		if isBlank(v) {
			errs = append(errs, "Missing "+col)

			continue
		}
		if n, ok := v.(float64); ok && n < 0 {
			errs = append(errs, "Negative value in "+col)
		}
	}
	for _, col := range []string{ColFlock, ColDate} {
		if isBlank(row[col]) {
			errs = append(errs, "Missing "+col)
		}
	}

	return strings.Join(errs, "; ")
}

// checkCareRow validates one care row. It returns the joined error details
// (or "") plus an informational note when only one of Vaccination/Medication
// is recorded.
func checkCareRow(row Row) (string, string) {
	var errs []string
	var note string

	vacc := cellString(row[ColVaccination])
	med := cellString(row[ColMedication])
	switch {
	case vacc == "" && med == "":
		errs = append(errs, "Missing Vaccination and Medication")
	case vacc != "" && med == "":
		note = "Note: Only vaccination recorded, no medication data entered."
	case med != "" && vacc == "":
		note = "Note: Only medication recorded, no vaccination data entered."
	}

	for _, col := range RequiredCareColumns {
		if col == ColVaccination || col == ColMedication {
			continue
		}
		if isBlank(row[col]) {
			errs = append(errs, "Missing "+col)
		}
	}

	return strings.Join(errs, "; "), note
}

// operationalKey builds the duplicate-detection key for an operational row.
func operationalKey(row Row) string {
	return cellString(row[ColFlock]) + "\x00" + cellString(row[ColDate])
}

// careKey builds the composite duplicate-detection key for a care row. Values
// are compared trimmed and upper-cased so that case and spacing differences do
// not hide duplicates; the date columns keep their case.
func careKey(row Row) string {
	parts := make([]string, 0, len(careKeyColumns))
	for _, col := range careKeyColumns {
		s := cellString(row[col])
		if col != ColDate && col != "Medication Exp Date" {
			s = strings.ToUpper(s)
		}
		parts = append(parts, s)
	}

	return strings.Join(parts, "\x00")
}

// markDuplicates returns, for each row, whether its key occurs more than once.
// Every member of a duplicate group is flagged, not just the later ones.
func markDuplicates(rows []Row, key func(Row) string) []bool {
	counts := make(map[string]int, len(rows))
	keys := make([]string, len(rows))
	for i, row := range rows {
		keys[i] = key(row)
		counts[keys[i]]++
	}

	out := make([]bool, len(rows))
	for i := range rows {
		out[i] = counts[keys[i]] > 1
	}

	return out
}

// appendError joins an extra message onto existing error details.
func appendError(details, extra string) string {
	if details == "" {
		return extra
	}

	return details + "; " + extra
}

// buildRecord converts a validated row into an output record, scrubbing
// non-finite floats to nil so the result can be serialized as JSON.
func buildRecord(row Row, details string, duplicate bool) domain.Record {
	rec := make(domain.Record, len(row)+3)
	for col, v := range row {
		if n, ok := v.(float64); ok && !isFinite(n) {
			rec[col] = nil

			continue
		}
		rec[col] = v
	}

	rec[fieldDuplicate] = duplicate
	if details != "" {
		rec[fieldErrorDetails] = details
	} else {
		rec[fieldErrorDetails] = nil
	}
	rec[fieldHasError] = details != ""

	return rec
}

// AnalyzeRows runs the full validation pipeline over parsed worksheet rows:
// classification into operational and care rows, per-row checks, duplicate
// detection, and record construction.
func AnalyzeRows(rows []Row) *domain.AnalysisResult {
	var operational, care []Row
	for _, row := range rows {
		if isOperationalRow(row) {
			operational = append(operational, row)
		} else {
			care = append(care, row)
		}
	}

	opDup := markDuplicates(operational, operationalKey)
	careDup := markDuplicates(care, careKey)

	result := &domain.AnalysisResult{
		Operational: make([]domain.Record, 0, len(operational)),
		Care:        make([]domain.Record, 0, len(care)),
	}

	for i, row := range operational {
		details := checkOperationalRow(row)
		if opDup[i] {
			details = appendError(details, duplicateOperationalMsg)
		}
		result.Operational = append(result.Operational, buildRecord(row, details, opDup[i]))
	}

	for i, row := range care {
		details, note := checkCareRow(row)
		if careDup[i] {
			details = appendError(details, duplicateCareMsg)
		}
		rec := buildRecord(row, details, careDup[i])
		if note != "" {
			rec[fieldNote] = note
		} else {
			rec[fieldNote] = nil
		}
		result.Care = append(result.Care, rec)
	}

	return result
}
