package controller

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

func newTestCommand(input string) (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(input))

	return cmd, &out
}

func sampleResults() []m.ValidationResult {
	return []m.ValidationResult{
		{
			Record: m.ModificationRecord{UnitName: "Tank_Leopard", PropertyPath: "ModulesDescriptors[3].MaxSpeed"},
			Valid:  true,
			Issue:  m.IssueNone,
		},
		{
			Record: m.ModificationRecord{UnitName: "Tank_Leopard", PropertyPath: "ModulesDescriptors[3].MaxSpeed"},
			Issue:  m.IssueUnitNotFound,
			Suggestion: &m.Suggestion{
				UnitName:         "Tank_Leopard2",
				UnitScore:        0.9,
				PropertyPath:     "ModulesDescriptors[5].MaxSpeed",
				PathScore:        0.95,
				Resolves:         true,
				UnitAlternatives: []string{"Tank_Leopard1", "Tank_Leopard3"},
			},
			Warning: "value drifted: recorded 64, found 70",
		},
		{
			Record: m.ModificationRecord{UnitName: "Ghost", PropertyPath: "X"},
			Issue:  m.IssueUnitNotFound,
		},
	}
}

func TestSimpleUI_Displays(t *testing.T) {
	stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	records := []m.ModificationRecord{{
		UnitName:     "Tank_Leopard",
		PropertyPath: "MaxSpeed",
		ModType:      m.OpAdd,
		OldValueText: "64",
		NewValueText: "70",
		Timestamp:    stamp,
	}}

	tests := []struct {
		name         string
		display      func(ctx context.Context, ui *SimpleUI) error
		wantContains []string
	}{
		{
			name: "values",
			display: func(ctx context.Context, ui *SimpleUI) error {
				return ui.DisplayValues(ctx, "Tank_Leopard", []m.PathValue{{Path: "MaxSpeed", Text: "64"}})
			},
			wantContains: []string{"Tank_Leopard", "MaxSpeed", "64"},
		},
		{
			name: "records",
			display: func(ctx context.Context, ui *SimpleUI) error {
				return ui.DisplayRecords(ctx, records)
			},
			wantContains: []string{"Tank_Leopard", "MaxSpeed", "ADD", "64", "70", "1 RECORD(S)"},
		},
		{
			name: "no records",
			display: func(ctx context.Context, ui *SimpleUI) error {
				return ui.DisplayRecords(ctx, nil)
			},
			wantContains: []string{"no modifications recorded"},
		},
		{
			name: "ledger stats",
			display: func(ctx context.Context, ui *SimpleUI) error {
				return ui.DisplayLedgerStats(ctx, m.LedgerStats{
					Total:      2,
					ByUnit:     map[string]int{"Tank_Leopard": 2},
					ByProperty: map[string]int{"ModulesDescriptors[*].MaxSpeed": 2},
					ByType:     map[m.Operator]int{m.OpSet: 1, m.OpAdd: 1},
				})
			},
			wantContains: []string{"Total modifications: 2", "Tank_Leopard", "ModulesDescriptors[*].MaxSpeed", "SET", "ADD"},
		},
		{
			name: "scan hits",
			display: func(ctx context.Context, ui *SimpleUI) error {
				return ui.DisplayScanHits(ctx, []m.ScanHit{{
					Unit:     "Tank_Leopard",
					Category: m.CategoryTank,
					Values:   []m.PathValue{{Path: "A[0].X", Text: "1"}, {Path: "A[2].X", Text: "3"}},
				}})
			},
			wantContains: []string{"Tank_Leopard", "tank", "A[0].X", "A[2].X"},
		},
		{
			name: "validation",
			display: func(ctx context.Context, ui *SimpleUI) error {
				return ui.DisplayValidation(ctx, sampleResults())
			},
			wantContains: []string{"Tank_Leopard2 (0.90)", "ModulesDescriptors[5].MaxSpeed (0.95)", "invalid: unit not found", "warning:", "1/3 VALID",
				"also close: Tank_Leopard:ModulesDescriptors[3].MaxSpeed: Tank_Leopard1, Tank_Leopard3"},
		},
		{
			name: "replay",
			display: func(ctx context.Context, ui *SimpleUI) error {
				return ui.DisplayReplay(ctx, m.ReplayReport{
					Applied: records,
					Skipped: []m.SkippedRecord{{Record: m.ModificationRecord{UnitName: "Ghost", PropertyPath: "X"}, Reason: "unknown unit"}},
				})
			},
			wantContains: []string{"Applied 1 modification(s), skipped 1 record(s)", "skipped Ghost:X: unknown unit"},
		},
		{
			name: "profile",
			display: func(ctx context.Context, ui *SimpleUI) error {
				return ui.DisplayProfile(ctx, m.Profile{Name: "speed", CreatedAt: stamp, SourceFileName: "units.ndf", Records: records})
			},
			wantContains: []string{"Profile: speed", "Source:  units.ndf", "MaxSpeed"},
		},
		{
			name: "profiles",
			display: func(ctx context.Context, ui *SimpleUI) error {
				return ui.DisplayProfiles(ctx, []m.Profile{{Name: "a", CreatedAt: stamp}, {Name: "b", CreatedAt: stamp, Records: records}})
			},
			wantContains: []string{"2 PROFILE(S)"},
		},
		{
			name: "round trip",
			display: func(ctx context.Context, ui *SimpleUI) error {
				return ui.DisplayRoundTrip(ctx, []m.RoundTripResult{
					{Path: "a.ndf", Units: 3, Identical: true},
					{Path: "b.ndf", Units: 1},
					{Path: "c.ndf", Err: errors.New("boom")},
				})
			},
			wantContains: []string{"a.ndf", "identical", "changed", "error: boom", "1/3 IDENTICAL"},
		},
		{
			name: "empty diff",
			display: func(ctx context.Context, ui *SimpleUI) error {
				return ui.DisplayDiff(ctx, "units.ndf", "")
			},
			wantContains: []string{"units.ndf: no changes"},
		},
		{
			name: "diff",
			display: func(ctx context.Context, ui *SimpleUI) error {
				return ui.DisplayDiff(ctx, "units.ndf", "--- a/units.ndf\n+++ b/units.ndf\n-X = 1\n+X = 2\n")
			},
			wantContains: []string{"-X = 1", "+X = 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, out := newTestCommand("")
			ui := NewSimpleUI(cmd)

			if err := tt.display(context.Background(), ui); err != nil {
				t.Fatalf("display error = %v", err)
			}

			for _, want := range tt.wantContains {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestSimpleUI_CancelledContext(t *testing.T) {
	cmd, out := newTestCommand("")
	ui := NewSimpleUI(cmd)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := ui.DisplayRecords(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("DisplayRecords() error = %v, want context.Canceled", err)
	}

	ui.DisplayMessage(ctx, "hidden")

	if out.Len() != 0 {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestSimpleUI_ReviewFixes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []bool
	}{
		{name: "yes", input: "y\n", want: []bool{false, true, false}},
		{name: "long yes", input: " YES \n", want: []bool{false, true, false}},
		{name: "no", input: "n\n", want: []bool{false, false, false}},
		{name: "no input", input: "", want: []bool{false, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, out := newTestCommand(tt.input)
			ui := NewSimpleUI(cmd)

			got, err := ui.ReviewFixes(context.Background(), sampleResults())
			if err != nil {
				t.Fatalf("ReviewFixes() error = %v", err)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("ReviewFixes() = %v, want %v", got, tt.want)
			}

			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("ReviewFixes() = %v, want %v", got, tt.want)
				}
			}

			if strings.Count(out.String(), "[y/N]") != 1 {
				t.Errorf("expected exactly one prompt, got:\n%s", out.String())
			}
		})
	}
}

func TestNewUI(t *testing.T) {
	cmd, _ := newTestCommand("")

	if _, ok := NewUI(cmd, false).(*SimpleUI); !ok {
		t.Errorf("NewUI(false) should return *SimpleUI")
	}

	if _, ok := NewUI(cmd, true).(*TUI); !ok {
		t.Errorf("NewUI(true) should return *TUI")
	}

	if IsTTY(&bytes.Buffer{}) {
		t.Errorf("IsTTY(buffer) should be false")
	}
}
