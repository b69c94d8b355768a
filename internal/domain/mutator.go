// Package domain holds the editing engine: path resolution, type-aware
// mutation, the modification ledger, profile replay and drift
// reconciliation.
package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ndfkit.dev/pkg/ndfkit/internal/domain/mutators"
	m "ndfkit.dev/pkg/ndfkit/internal/model"
	"ndfkit.dev/pkg/ndfkit/internal/ndf"
)

// MutationError reports an operator/type pair that cannot be applied.
type MutationError = mutators.MutationError

// Mutator applies modifications to a forest and records them.
type Mutator interface {
	// Apply modifies every match of path under unit. Either every match is
	// updated and one record per match is appended to the ledger, or
	// nothing changes.
	Apply(ctx context.Context, f *m.Forest, unit, path string, op m.Operator, input string) ([]m.ModificationRecord, error)
	// Replace is a recorded SET of a parsed value. The value at every match
	// must already have the same kind.
	Replace(ctx context.Context, f *m.Forest, unit, path string, v m.Value, details string) ([]m.ModificationRecord, error)
}

type mutator struct {
	Ledger
	now func() time.Time
}

// NewMutator creates a Mutator that appends to ledger.
func NewMutator(ledger Ledger) Mutator {
	return &mutator{Ledger: ledger, now: time.Now}
}

type plannedChange struct {
	match Match
	value m.Value
}

func (mu *mutator) Apply(ctx context.Context, f *m.Forest, unit, path string, op m.Operator, input string) ([]m.ModificationRecord, error) {
	return mu.transact(ctx, f, unit, path, op, "", func(mt Match) (m.Value, error) {
		return mutators.Mutate(mt.Value, propertyName(mt.Path), op, input)
	})
}

func (mu *mutator) Replace(ctx context.Context, f *m.Forest, unit, path string, v m.Value, details string) ([]m.ModificationRecord, error) {
	return mu.transact(ctx, f, unit, path, m.OpSet, details, func(mt Match) (m.Value, error) {
		if mt.Value.Kind() != v.Kind() {
			return nil, &MutationError{
				Operator: m.OpSet,
				Kind:     mt.Value.Kind(),
				Reason:   "replacement is a " + v.Kind().String(),
			}
		}

		return m.Clone(v), nil
	})
}

// transact plans every match first and only commits once the whole plan is
// valid and the records are in the ledger.
func (mu *mutator) transact(
	ctx context.Context,
	f *m.Forest,
	unit, path string,
	op m.Operator,
	details string,
	next func(Match) (m.Value, error),
) ([]m.ModificationRecord, error) {
	u, err := LookupUnit(f, unit)
	if err != nil {
		return nil, err
	}

	matches, err := Resolve(u, path)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s:%s", ErrNoMatch, unit, path)
	}

	plan := make([]plannedChange, 0, len(matches))

	for _, mt := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		value, err := next(mt)
		if err != nil {
			slog.Debug("mutation rejected", "unit", unit, "path", mt.Path, "op", op, "error", err)
			return nil, fmt.Errorf("%s:%s: %w", unit, mt.Path, err)
		}

		plan = append(plan, plannedChange{match: mt, value: value})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := mu.records(unit, path, op, details, plan)

	if err := mu.Append(records...); err != nil {
		return nil, err
	}

	for _, change := range plan {
		change.match.commit(change.value)
	}

	slog.Info("applied modification", "unit", unit, "path", path, "op", op, "matches", len(plan))

	return records, nil
}

func (mu *mutator) records(unit, path string, op m.Operator, note string, plan []plannedChange) []m.ModificationRecord {
	now := mu.now()
	records := make([]m.ModificationRecord, 0, len(plan))

	for _, change := range plan {
		details := note
		if change.match.Path != path {
			details = joinDetails(details, "expanded from "+path)
		}

		records = append(records, m.ModificationRecord{
			ID:           m.NewRecordID(),
			UnitName:     unit,
			PropertyPath: change.match.Path,
			OldValueText: ndf.Render(change.match.Value),
			NewValueText: ndf.Render(change.value),
			OldType:      change.match.Value.Kind(),
			NewType:      change.value.Kind(),
			Timestamp:    now,
			ModType:      op,
			Details:      details,
		})
	}

	return records
}

// propertyName returns the name of the innermost property of a concrete
// path: "A[2].TagSet" gives "TagSet", "A[3]" gives "A".
func propertyName(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}

	if i := strings.IndexByte(path, '['); i >= 0 {
		path = path[:i]
	}

	return path
}

func joinDetails(a, b string) string {
	if a == "" {
		return b
	}

	return a + "; " + b
}
