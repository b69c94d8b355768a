package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Operator is the modification applied to a resolved value.
type Operator string

const (
	// OpSet replaces the value.
	OpSet Operator = "SET"
	// OpAdd adds the amount.
	OpAdd Operator = "ADD"
	// OpSubtract subtracts the amount.
	OpSubtract Operator = "SUBTRACT"
	// OpMultiply multiplies by the amount.
	OpMultiply Operator = "MULTIPLY"
	// OpIncreasePercent grows the value by amount percent.
	OpIncreasePercent Operator = "INCREASE_PERCENT"
	// OpDecreasePercent shrinks the value by amount percent.
	OpDecreasePercent Operator = "DECREASE_PERCENT"
)

var operatorAliases = map[string]Operator{
	"set":              OpSet,
	"=":                OpSet,
	"add":              OpAdd,
	"+":                OpAdd,
	"subtract":         OpSubtract,
	"sub":              OpSubtract,
	"-":                OpSubtract,
	"multiply":         OpMultiply,
	"mul":              OpMultiply,
	"*":                OpMultiply,
	"increase_percent": OpIncreasePercent,
	"increase-percent": OpIncreasePercent,
	"+%":               OpIncreasePercent,
	"decrease_percent": OpDecreasePercent,
	"decrease-percent": OpDecreasePercent,
	"-%":               OpDecreasePercent,
}

// ParseOperator accepts canonical names and short aliases, case-insensitively.
func ParseOperator(s string) (Operator, error) {
	if op, ok := operatorAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return op, nil
	}

	return "", fmt.Errorf("unknown operator %q", s)
}

// Arithmetic reports whether the operator needs a numeric target.
func (o Operator) Arithmetic() bool {
	return o != OpSet
}

// ModificationRecord describes one successful mutation of one concrete path.
type ModificationRecord struct {
	ID           string
	UnitName     string
	PropertyPath string
	OldValueText string
	NewValueText string
	OldType      Kind
	NewType      Kind
	Timestamp    time.Time
	ModType      Operator
	Details      string
}

// NewRecordID returns a fresh record identifier.
func NewRecordID() string {
	return uuid.NewString()
}

// Retarget returns a copy addressed at a different unit/path. The copy gets
// a new ID and notes where it came from; the receiver is left untouched.
func (r ModificationRecord) Retarget(unit, path string) ModificationRecord {
	out := r
	out.ID = NewRecordID()
	out.UnitName = unit
	out.PropertyPath = path

	note := fmt.Sprintf("retargeted from %s:%s", r.UnitName, r.PropertyPath)
	if out.Details == "" {
		out.Details = note
	} else {
		out.Details = out.Details + "; " + note
	}

	return out
}

// Profile is a named, portable batch of modification records.
type Profile struct {
	Name           string
	CreatedAt      time.Time
	SourceFileName string
	Description    string
	Records        []ModificationRecord
}

// LedgerStats aggregates a set of records.
type LedgerStats struct {
	Total      int
	ByUnit     map[string]int
	ByProperty map[string]int
	ByType     map[Operator]int
}

// SkippedRecord is a profile record that could not be replayed.
type SkippedRecord struct {
	Record ModificationRecord
	Reason string
}

// ReplayReport summarises one replay.
type ReplayReport struct {
	Applied []ModificationRecord
	Skipped []SkippedRecord
}
