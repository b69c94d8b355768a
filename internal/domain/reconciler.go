package domain

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"ndfkit.dev/pkg/ndfkit/internal/match"
	m "ndfkit.dev/pkg/ndfkit/internal/model"
	"ndfkit.dev/pkg/ndfkit/internal/ndf"
)

// ReconcileOptions tunes the drift reconciler. Zero values fall back to the
// defaults of the match package.
type ReconcileOptions struct {
	UnitThreshold float64
	PathThreshold float64
	// Parallel bounds the number of records validated at once; 0 means
	// unbounded.
	Parallel int
}

// Reconciler checks profile records against a forest and proposes
// corrections for drifted unit names and property paths. Suggestions are
// advisory: nothing is rewritten until a caller accepts them.
type Reconciler interface {
	Validate(ctx context.Context, profile m.Profile, f *m.Forest) ([]m.ValidationResult, error)
	// Fix retargets the records whose results are accepted and fixable,
	// then validates the corrected profile again.
	Fix(ctx context.Context, profile m.Profile, results []m.ValidationResult, accepted []bool, f *m.Forest) (m.Profile, []m.ValidationResult, error)
	// AutoFix accepts every fixable suggestion.
	AutoFix(ctx context.Context, profile m.Profile, f *m.Forest) (m.Profile, []m.ValidationResult, error)
}

type reconciler struct {
	opts ReconcileOptions
}

// NewReconciler creates a Reconciler.
func NewReconciler(opts ReconcileOptions) Reconciler {
	if opts.UnitThreshold <= 0 {
		opts.UnitThreshold = match.DefaultUnitThreshold
	}

	if opts.PathThreshold <= 0 {
		opts.PathThreshold = match.DefaultPathThreshold
	}

	return &reconciler{opts: opts}
}

func (rc *reconciler) Validate(ctx context.Context, profile m.Profile, f *m.Forest) ([]m.ValidationResult, error) {
	results := make([]m.ValidationResult, len(profile.Records))
	names := f.Names()

	group, ctx := errgroup.WithContext(ctx)
	if rc.opts.Parallel > 0 {
		group.SetLimit(rc.opts.Parallel)
	}

	for i, record := range profile.Records {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			results[i] = rc.validate(record, f, names)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("validate profile %s: %w", profile.Name, err)
	}

	slog.Debug("validated profile", "profile", profile.Name, "records", len(results))

	return results, nil
}

func (rc *reconciler) validate(r m.ModificationRecord, f *m.Forest, names []string) m.ValidationResult {
	res := m.ValidationResult{Record: r, Issue: m.IssueNone}

	unit, found := f.Unit(r.UnitName)
	if !found {
		res.Issue = m.IssueUnitNotFound

		ranked := match.Rank(r.UnitName, names, match.UnitScore)

		best, ok := ranked.Best(rc.opts.UnitThreshold)
		if !ok {
			res.Message = fmt.Sprintf("unit %s not found and no similar unit exists", r.UnitName)
			return res
		}

		unit, _ = f.Unit(best.Name)
		res.Suggestion = &m.Suggestion{
			UnitName:         best.Name,
			UnitScore:        best.Score,
			UnitAlternatives: runnersUp(ranked, rc.opts.UnitThreshold),
		}
		res.Message = fmt.Sprintf("unit %s not found, did you mean %s (%.2f)?", r.UnitName, best.Name, best.Score)
	}

	path := r.PropertyPath

	if !Has(unit, path) {
		suggested, score, alternatives, ok := rc.suggestPath(unit, r)
		if !ok {
			if res.Issue == m.IssueNone {
				res.Issue = m.IssuePathNotFound
				res.Message = fmt.Sprintf("path %s not found in %s", path, unit.Name)
			} else {
				res.Message += fmt.Sprintf("; path %s not found there either", path)
			}

			return res
		}

		if res.Suggestion == nil {
			res.Issue = m.IssuePathNotFound
			res.Suggestion = &m.Suggestion{}
			res.Message = fmt.Sprintf("path %s not found in %s, did you mean %s (%.2f)?", path, unit.Name, suggested, score)
		}

		res.Suggestion.PropertyPath = suggested
		res.Suggestion.PathScore = score
		res.Suggestion.PathAlternatives = alternatives
		path = suggested
	}

	if res.Suggestion != nil {
		res.Suggestion.Resolves = true
	}

	res.Valid = res.Issue == m.IssueNone

	if v, ok := Get(unit, path); ok {
		res.CurrentValue = ndf.Render(v)
		if r.OldValueText != "" && res.CurrentValue != r.OldValueText {
			res.Warning = fmt.Sprintf("value drifted: recorded %s, found %s", r.OldValueText, res.CurrentValue)
		}
	}

	return res
}

// suggestPath finds the best replacement for r.PropertyPath in unit. Index
// drift is tried first: among the matches of the `[*]` form, the one still
// holding the recorded old value wins.
func (rc *reconciler) suggestPath(unit *m.Unit, r m.ModificationRecord) (string, float64, []string, bool) {
	if normalized := NormalizePath(r.PropertyPath); normalized != r.PropertyPath {
		matches, _ := Resolve(unit, normalized)
		if len(matches) > 0 {
			chosen := matches[0]

			for _, mt := range matches {
				if ndf.Render(mt.Value) == r.OldValueText {
					chosen = mt
					break
				}
			}

			return chosen.Path, match.ScoreNormalizedPath, nil, true
		}
	}

	ranked := match.Rank(r.PropertyPath, LeafPaths(unit), match.PathScore)

	best, ok := ranked.Best(rc.opts.PathThreshold)
	if !ok {
		return "", 0, nil, false
	}

	return best.Name, best.Score, runnersUp(ranked, rc.opts.PathThreshold), true
}

// maxAlternatives bounds the runner-up names offered with a suggestion.
const maxAlternatives = 3

// runnersUp lists the candidates after the best one that still reach
// threshold.
func runnersUp(ranked match.Candidates, threshold float64) []string {
	var out []string

	for i, c := range ranked.Top(maxAlternatives + 1) {
		if i == 0 {
			continue
		}

		if c.Score < threshold {
			break
		}

		out = append(out, c.Name)
	}

	return out
}

func (rc *reconciler) Fix(
	ctx context.Context,
	profile m.Profile,
	results []m.ValidationResult,
	accepted []bool,
	f *m.Forest,
) (m.Profile, []m.ValidationResult, error) {
	if len(results) != len(profile.Records) || len(accepted) != len(results) {
		return profile, nil, fmt.Errorf("fix profile %s: %d records, %d results, %d decisions",
			profile.Name, len(profile.Records), len(results), len(accepted))
	}

	fixed := profile
	fixed.Records = append([]m.ModificationRecord(nil), profile.Records...)

	count := 0

	for i, res := range results {
		if !accepted[i] || !res.Fixable() {
			continue
		}

		unit, path := res.Target()
		fixed.Records[i] = profile.Records[i].Retarget(unit, path)
		count++
	}

	slog.Info("retargeted profile records", "profile", profile.Name, "fixed", count)

	revalidated, err := rc.Validate(ctx, fixed, f)
	if err != nil {
		return profile, nil, err
	}

	return fixed, revalidated, nil
}

func (rc *reconciler) AutoFix(ctx context.Context, profile m.Profile, f *m.Forest) (m.Profile, []m.ValidationResult, error) {
	results, err := rc.Validate(ctx, profile, f)
	if err != nil {
		return profile, nil, err
	}

	accepted := make([]bool, len(results))
	for i, res := range results {
		accepted[i] = res.Fixable()
	}

	return rc.Fix(ctx, profile, results, accepted, f)
}
