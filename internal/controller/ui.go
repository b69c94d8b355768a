// Package controller renders ndfkit results for the terminal.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

// UI defines how command results are shown to the user.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	DisplayValues(ctx context.Context, unit string, values []m.PathValue) error
	DisplayRecords(ctx context.Context, records []m.ModificationRecord) error
	DisplayLedgerStats(ctx context.Context, stats m.LedgerStats) error
	DisplayScanHits(ctx context.Context, hits []m.ScanHit) error
	DisplayValidation(ctx context.Context, results []m.ValidationResult) error
	DisplayReplay(ctx context.Context, report m.ReplayReport) error
	DisplayProfile(ctx context.Context, profile m.Profile) error
	DisplayProfiles(ctx context.Context, profiles []m.Profile) error
	DisplayRoundTrip(ctx context.Context, results []m.RoundTripResult) error
	DisplayDiff(ctx context.Context, path m.Path, diff string) error
	DisplayMessage(ctx context.Context, format string, args ...any)

	// ReviewFixes asks which suggested fixes to accept. The returned slice
	// is parallel to results; entries that are not fixable are always false.
	ReviewFixes(ctx context.Context, results []m.ValidationResult) ([]bool, error)
}

// NewUI returns the interactive TUI when tty is set and the SimpleUI otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd)
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
