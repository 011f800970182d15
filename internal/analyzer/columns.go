package analyzer

// Column names expected in uploaded workbooks. Spreadsheets come from the farm
// management export, so the names are matched verbatim after trimming
// surrounding whitespace from the header row.
const (
	ColFlock = "Flock"
	ColDate  = "Date"

	ColVaccination = "Vaccination"
	ColMedication  = "Medication"
)

// RequiredOperationalColumns lists every column an operational (daily
// production) row must carry.
var RequiredOperationalColumns = []string{
	ColFlock, ColDate, "Animal Mortality", "Animals Culled", "Table Eggs Prod",
	"Animal Feed Formula Name", "Supplied Feed", "Feed Received (Kg)",
	"Animal Feed Consumed", "Water Consumption",
	"Animal Weight", "Animal Uniformity", "Animal CV Uniformity",
	"Female Feed Formula ID", "Temperature Low", "Ammonia Level",
	"Animal Feed Inventory", "Female Feed Type ID",
	"Light_Duration (HU)", "Light intensity %",
}

// OptionalOperationalColumns are operational columns that may be empty without
// producing a validation error. They also do not participate in row
// classification.
var OptionalOperationalColumns = []string{
	"Animal Weight", "Animal Uniformity", "Animal CV Uniformity",
}

// RequiredCareColumns lists every column a care (vaccination/medication) row
// must carry. Vaccination and Medication have their own presence rules and are
// checked separately.
var RequiredCareColumns = []string{
	ColVaccination, "Creation User ID", ColMedication, "Vacc Method",
	"Vacc Type", "VaccinevDoze", "Medication Batch", "Concentration %",
	"Record Source Type", "Medication Dose", "Medication Exp Date",
	"Doctor Name", "Doses Unit", "Produced PS_Nest_HE", "Vaccine Name",
}

// textOperationalColumns are required operational columns that hold free text
// or identifiers and therefore must not be coerced to numbers.
var textOperationalColumns = map[string]bool{
	ColFlock:                   true,
	ColDate:                    true,
	"Animal Feed Formula Name": true,
	"Supplied Feed":            true,
	"Female Feed Formula ID":   true,
	"Female Feed Type ID":      true,
}

// careKeyColumns form the composite key used to detect duplicate care rows.
// Values are compared trimmed and upper-cased, except the two date columns
// which are compared trimmed only.
var careKeyColumns = []string{
	ColFlock, ColDate, ColVaccination, "Vacc Method", "Vacc Type",
	"VaccinevDoze", ColMedication, "Medication Dose", "Medication Batch",
	"Medication Exp Date",
}

// optionalOrKey reports whether the column is skipped during operational
// classification and per-column validation (Flock and Date have their own
// checks).
func optionalOrKey(col string) bool {
	if col == ColFlock || col == ColDate {
		return true
	}
	for _, c := range OptionalOperationalColumns {
		if c == col {
			return true
		}
	}

	return false
}

// numericOperationalColumn reports whether values in the column should be
// coerced to float64 during parsing.
func numericOperationalColumn(col string) bool {
	if textOperationalColumns[col] || optionalOrKey(col) {
		return false
	}

	return true
}

// allRequiredColumns returns the union of operational and care required
// columns. Rows are padded with nil entries for any of these that the
// worksheet does not carry.
func allRequiredColumns() []string {
	seen := make(map[string]bool, len(RequiredOperationalColumns)+len(RequiredCareColumns))
	out := make([]string, 0, len(RequiredOperationalColumns)+len(RequiredCareColumns))
	for _, col := range RequiredOperationalColumns {
		if !seen[col] {
			seen[col] = true
			out = append(out, col)
		}
	}
	for _, col := range RequiredCareColumns {
		if !seen[col] {
			seen[col] = true
			out = append(out, col)
		}
	}

	return out
}
