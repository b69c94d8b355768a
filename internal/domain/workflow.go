package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"ndfkit.dev/pkg/ndfkit/internal/adapter"
	"ndfkit.dev/pkg/ndfkit/internal/controller"
	m "ndfkit.dev/pkg/ndfkit/internal/model"
	"ndfkit.dev/pkg/ndfkit/internal/ndf"
)

// ErrRoundTripMismatch is returned by Check when a file does not survive
// parse and write byte for byte.
var ErrRoundTripMismatch = errors.New("round trip changed the file")

// ErrInvalidRecords is returned by ValidateProfile when records remain
// invalid after any accepted fixes.
var ErrInvalidRecords = errors.New("profile has invalid records")

// GetArgs selects the values shown by Get.
type GetArgs struct {
	File m.Path
	Unit string
	// Path may be empty to list every leaf of the unit.
	Path string
}

// SetArgs describes one modification.
type SetArgs struct {
	File   m.Path
	Unit   string
	Path   string
	Op     m.Operator
	Value  string
	DryRun bool
}

// SearchArgs describes a mass search.
type SearchArgs struct {
	File     m.Path
	Query    ScanQuery
	Parallel int
}

// CheckArgs lists files or directories to round-trip.
type CheckArgs struct {
	Paths     []m.Path
	Recursive bool
	Parallel  int
}

// DiffArgs previews replaying a profile, or the ledger when Profile.Name is
// empty, onto File.
type DiffArgs struct {
	File    m.Path
	Profile ProfileArgs
}

// ProfileArgs addresses a profile in the profiles directory.
type ProfileArgs struct {
	Dir  m.Path
	Name string
}

// SaveProfileArgs snapshots the ledger into a profile.
type SaveProfileArgs struct {
	ProfileArgs
	SourceFile  string
	Description string
	// Clear empties the ledger once the profile is written.
	Clear bool
}

// ValidateProfileArgs checks a profile against a file.
type ValidateProfileArgs struct {
	ProfileArgs
	File m.Path
	// Fix retargets drifted records and saves the profile.
	Fix bool
	// Yes accepts every fixable suggestion without asking.
	Yes bool
}

// ApplyProfileArgs replays a profile onto a file.
type ApplyProfileArgs struct {
	ProfileArgs
	File   m.Path
	DryRun bool
}

// Workflow runs the command-level flows of ndfkit.
type Workflow interface {
	Get(ctx context.Context, args GetArgs) error
	Set(ctx context.Context, args SetArgs) error
	Search(ctx context.Context, args SearchArgs) error
	Check(ctx context.Context, args CheckArgs) error
	Diff(ctx context.Context, args DiffArgs) error

	ShowLedger(ctx context.Context) error
	ClearLedger(ctx context.Context) error

	SaveProfile(ctx context.Context, args SaveProfileArgs) error
	ShowProfile(ctx context.Context, args ProfileArgs) error
	ListProfiles(ctx context.Context, dir m.Path) error
	ValidateProfile(ctx context.Context, args ValidateProfileArgs) error
	ApplyProfile(ctx context.Context, args ApplyProfileArgs) error
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.ProfileStore
	controller.UI
	Ledger
	Scanner
	Reconciler
}

// NewWorkflow creates a Workflow with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	profileStore adapter.ProfileStore,
	ui controller.UI,
	ledger Ledger,
	scanner Scanner,
	reconciler Reconciler,
) Workflow {
	return &workflow{
		SourceFSAdapter: fsAdapter,
		ProfileStore:    profileStore,
		UI:              ui,
		Ledger:          ledger,
		Scanner:         scanner,
		Reconciler:      reconciler,
	}
}

func (w *workflow) open(ctx context.Context, file m.Path) (Session, error) {
	return OpenSession(ctx, w.SourceFSAdapter, file, w.Ledger)
}

func (w *workflow) Get(ctx context.Context, args GetArgs) error {
	s, err := w.open(ctx, args.File)
	if err != nil {
		return err
	}

	values, err := s.Get(args.Unit, args.Path)
	if err != nil {
		return err
	}

	return w.DisplayValues(ctx, args.Unit, values)
}

func (w *workflow) Set(ctx context.Context, args SetArgs) error {
	staged := NewLedger()

	s, err := OpenSession(ctx, w.SourceFSAdapter, args.File, staged)
	if err != nil {
		return err
	}

	records, err := s.Apply(ctx, args.Unit, args.Path, args.Op, args.Value)
	if err != nil {
		return err
	}

	if err := w.DisplayRecords(ctx, records); err != nil {
		return err
	}

	if args.DryRun {
		return w.showDiff(ctx, s)
	}

	return w.save(ctx, s, staged)
}

// save writes the session and only then moves its staged records into the
// workflow ledger, so a failed save leaves the journal untouched.
func (w *workflow) save(ctx context.Context, s Session, staged Ledger) error {
	if err := s.Save(ctx); err != nil {
		return err
	}

	return w.Ledger.Append(staged.Records()...)
}

func (w *workflow) showDiff(ctx context.Context, s Session) error {
	diff, err := s.Diff()
	if err != nil {
		return err
	}

	return w.DisplayDiff(ctx, s.Path(), diff)
}

func (w *workflow) Search(ctx context.Context, args SearchArgs) error {
	s, err := w.open(ctx, args.File)
	if err != nil {
		return err
	}

	hits := CollectHits(w.Scan(ctx, s.Forest(), args.Query, args.Parallel))
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("search: %w", err)
	}

	return w.DisplayScanHits(ctx, hits)
}

func (w *workflow) Check(ctx context.Context, args CheckArgs) error {
	files, err := w.FindSources(ctx, args.Paths, args.Recursive)
	if err != nil {
		return err
	}

	results := make([]m.RoundTripResult, len(files))

	group, groupCtx := errgroup.WithContext(ctx)
	if args.Parallel > 0 {
		group.SetLimit(args.Parallel)
	}

	for i, file := range files {
		group.Go(func() error {
			res, err := w.roundTrip(groupCtx, file)
			if err != nil {
				return err
			}

			results[i] = res

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	if err := w.DisplayRoundTrip(ctx, results); err != nil {
		return err
	}

	changed := 0
	for _, res := range results {
		if res.Err != nil || !res.Identical {
			changed++
		}
	}

	if changed > 0 {
		return fmt.Errorf("%w: %d of %d file(s)", ErrRoundTripMismatch, changed, len(results))
	}

	return nil
}

// roundTrip only fails on context errors; per-file problems are reported in
// the result.
func (w *workflow) roundTrip(ctx context.Context, file m.Path) (m.RoundTripResult, error) {
	res := m.RoundTripResult{Path: file}

	src, err := w.ReadFile(ctx, file)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		res.Err = err

		return res, nil
	}

	forest, err := ndf.Parse(src)
	if err != nil {
		res.Err = err
		return res, nil
	}

	res.Units = len(forest.Units)
	res.Identical = string(ndf.Write(forest)) == string(src)

	if !res.Identical {
		slog.Warn("round trip changed file", "path", file)
	}

	return res, nil
}

func (w *workflow) Diff(ctx context.Context, args DiffArgs) error {
	profile := Snapshot(w.Ledger, "ledger", "", "")

	if args.Profile.Name != "" {
		var err error

		profile, _, err = w.loadProfile(ctx, args.Profile)
		if err != nil {
			return err
		}
	}

	// The preview runs against a throwaway ledger and is never saved.
	s, err := OpenSession(ctx, w.SourceFSAdapter, args.File, NewLedger())
	if err != nil {
		return err
	}

	report, err := s.Replay(ctx, profile)
	if err != nil {
		return err
	}

	if len(report.Skipped) > 0 {
		w.DisplayMessage(ctx, "%d record(s) do not apply to %s", len(report.Skipped), args.File)
	}

	return w.showDiff(ctx, s)
}

func (w *workflow) ShowLedger(ctx context.Context) error {
	if err := w.DisplayRecords(ctx, w.Records()); err != nil {
		return err
	}

	return w.DisplayLedgerStats(ctx, w.Stats())
}

func (w *workflow) ClearLedger(ctx context.Context) error {
	n := len(w.Records())

	if err := w.Clear(); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}

	w.DisplayMessage(ctx, "cleared %d record(s)", n)

	return nil
}

func (w *workflow) SaveProfile(ctx context.Context, args SaveProfileArgs) error {
	records := w.Records()
	if len(records) == 0 {
		return errors.New("ledger is empty, nothing to save")
	}

	profile := Snapshot(w.Ledger, args.Name, args.Description, args.SourceFile)
	if profile.Name == "" {
		return errors.New("profile name is required")
	}

	path := w.ProfilePath(args.Dir, profile.Name)
	if err := w.ProfileStore.SaveProfile(ctx, path, profile); err != nil {
		return err
	}

	w.DisplayMessage(ctx, "saved profile %q with %d record(s) to %s", profile.Name, len(records), path)

	if args.Clear {
		return w.ClearLedger(ctx)
	}

	return nil
}

func (w *workflow) loadProfile(ctx context.Context, args ProfileArgs) (m.Profile, m.Path, error) {
	path := w.ProfilePath(args.Dir, args.Name)

	profile, err := w.LoadProfile(ctx, path)
	if err != nil {
		return m.Profile{}, path, err
	}

	return profile, path, nil
}

func (w *workflow) ShowProfile(ctx context.Context, args ProfileArgs) error {
	profile, _, err := w.loadProfile(ctx, args)
	if err != nil {
		return err
	}

	return w.DisplayProfile(ctx, profile)
}

func (w *workflow) ListProfiles(ctx context.Context, dir m.Path) error {
	profiles, err := w.ProfileStore.ListProfiles(ctx, dir)
	if err != nil {
		return err
	}

	return w.DisplayProfiles(ctx, profiles)
}

func (w *workflow) ValidateProfile(ctx context.Context, args ValidateProfileArgs) error {
	profile, path, err := w.loadProfile(ctx, args.ProfileArgs)
	if err != nil {
		return err
	}

	s, err := w.open(ctx, args.File)
	if err != nil {
		return err
	}

	results, err := w.Validate(ctx, profile, s.Forest())
	if err != nil {
		return err
	}

	if err := w.DisplayValidation(ctx, results); err != nil {
		return err
	}

	if args.Fix {
		profile, results, err = w.fix(ctx, profile, results, s.Forest(), args.Yes)
		if err != nil {
			return err
		}

		if err := w.ProfileStore.SaveProfile(ctx, path, profile); err != nil {
			return err
		}

		if err := w.DisplayValidation(ctx, results); err != nil {
			return err
		}
	}

	invalid := 0
	for _, res := range results {
		if !res.Valid {
			invalid++
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%w: %d of %d", ErrInvalidRecords, invalid, len(results))
	}

	return nil
}

func (w *workflow) fix(
	ctx context.Context,
	profile m.Profile,
	results []m.ValidationResult,
	f *m.Forest,
	yes bool,
) (m.Profile, []m.ValidationResult, error) {
	accepted := make([]bool, len(results))

	if yes {
		for i, res := range results {
			accepted[i] = res.Fixable()
		}
	} else {
		var err error

		accepted, err = w.ReviewFixes(ctx, results)
		if err != nil {
			return profile, nil, err
		}
	}

	return w.Fix(ctx, profile, results, accepted, f)
}

func (w *workflow) ApplyProfile(ctx context.Context, args ApplyProfileArgs) error {
	profile, _, err := w.loadProfile(ctx, args.ProfileArgs)
	if err != nil {
		return err
	}

	staged := NewLedger()

	s, err := OpenSession(ctx, w.SourceFSAdapter, args.File, staged)
	if err != nil {
		return err
	}

	report, err := s.Replay(ctx, profile)
	if err != nil {
		return err
	}

	if err := w.DisplayReplay(ctx, report); err != nil {
		return err
	}

	if args.DryRun {
		return w.showDiff(ctx, s)
	}

	return w.save(ctx, s, staged)
}
