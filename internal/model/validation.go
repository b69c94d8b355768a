package model

// Issue classifies why a replayed record does not apply as recorded.
type Issue int

const (
	// IssueNone means the record applies as recorded.
	IssueNone Issue = iota
	// IssueUnitNotFound means no unit carries the recorded name.
	IssueUnitNotFound
	// IssuePathNotFound means the unit exists but the path does not resolve.
	IssuePathNotFound
)

// String returns a human readable issue name.
func (i Issue) String() string {
	switch i {
	case IssueNone:
		return "ok"
	case IssueUnitNotFound:
		return "unit not found"
	case IssuePathNotFound:
		return "path not found"
	default:
		return "unknown"
	}
}

// Suggestion is an advisory correction for a drifted record. Empty fields
// mean the recorded value is kept.
type Suggestion struct {
	UnitName     string
	UnitScore    float64
	PropertyPath string
	PathScore    float64
	// Resolves is set when the suggested target resolves in the forest.
	Resolves bool
	// UnitAlternatives and PathAlternatives are runner-up candidates that
	// also passed the threshold, best first.
	UnitAlternatives []string
	PathAlternatives []string
}

// ValidationResult is the reconciler's verdict for one record.
type ValidationResult struct {
	Record     ModificationRecord
	Valid      bool
	Issue      Issue
	Message    string
	Suggestion *Suggestion
	// Warning is set when the live value differs from Record.OldValueText.
	Warning      string
	CurrentValue string
}

// Fixable reports whether the result carries a suggestion that resolves the
// issue.
func (v ValidationResult) Fixable() bool {
	if v.Valid || v.Suggestion == nil {
		return false
	}

	return v.Issue != IssueNone && v.Suggestion.Resolves
}

// Target returns the unit and path the record would be applied to once the
// suggestion is accepted.
func (v ValidationResult) Target() (string, string) {
	unit, path := v.Record.UnitName, v.Record.PropertyPath
	if v.Suggestion == nil {
		return unit, path
	}

	if v.Suggestion.UnitName != "" {
		unit = v.Suggestion.UnitName
	}

	if v.Suggestion.PropertyPath != "" {
		path = v.Suggestion.PropertyPath
	}

	return unit, path
}

// ScanHit is one unit returned by a mass search.
type ScanHit struct {
	Unit     string
	Score    int
	Category Category
	Values   []PathValue
}

// PathValue is a concrete path and the rendered value found there.
type PathValue struct {
	Path string
	Text string
}

// RoundTripResult reports whether a file survives parse+write unchanged.
type RoundTripResult struct {
	Path      Path
	Units     int
	Identical bool
	Err       error
}
