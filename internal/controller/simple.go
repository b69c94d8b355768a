package controller

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// SimpleUI implements UI with plain tables written to the command output.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

func (s *SimpleUI) DisplayValues(ctx context.Context, unit string, values []m.PathValue) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := make([][]string, 0, len(values))
	for _, v := range values {
		rows = append(rows, []string{v.Path, v.Text})
	}

	s.printf("%s\n%s", unit, renderTable([]string{"Path", "Value"}, rows, nil))

	return nil
}

func (s *SimpleUI) DisplayRecords(ctx context.Context, records []m.ModificationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(records) == 0 {
		s.printf("no modifications recorded\n")
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Timestamp.Local().Format(timeLayout),
			r.UnitName,
			r.PropertyPath,
			string(r.ModType),
			r.OldValueText,
			r.NewValueText,
		})
	}

	s.printf("%s", renderTable(
		[]string{"Time", "Unit", "Path", "Op", "Old", "New"},
		rows,
		[]string{"", fmt.Sprintf("%d record(s)", len(records)), "", "", "", ""},
	))

	return nil
}

func (s *SimpleUI) DisplayLedgerStats(ctx context.Context, stats m.LedgerStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("Total modifications: %d\n", stats.Total)

	if stats.Total == 0 {
		return nil
	}

	s.printf("\n%s", renderCounts("Unit", stats.ByUnit))
	s.printf("\n%s", renderCounts("Property", stats.ByProperty))

	byType := make(map[string]int, len(stats.ByType))
	for op, n := range stats.ByType {
		byType[string(op)] = n
	}

	s.printf("\n%s", renderCounts("Operation", byType))

	return nil
}

func renderCounts(label string, counts map[string]int) string {
	keys := slices.Sorted(maps.Keys(counts))

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, fmt.Sprintf("%d", counts[k])})
	}

	return renderTable([]string{label, "Count"}, rows, nil)
}

func (s *SimpleUI) DisplayScanHits(ctx context.Context, hits []m.ScanHit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := make([][]string, 0, len(hits))

	for _, hit := range hits {
		if len(hit.Values) == 0 {
			rows = append(rows, []string{hit.Unit, hit.Category.String(), "", ""})
			continue
		}

		for i, v := range hit.Values {
			unit, category := hit.Unit, hit.Category.String()
			if i > 0 {
				unit, category = "", ""
			}

			rows = append(rows, []string{unit, category, v.Path, v.Text})
		}
	}

	s.printf("%s", renderTable(
		[]string{"Unit", "Category", "Path", "Value"},
		rows,
		[]string{fmt.Sprintf("%d unit(s)", len(hits)), "", "", ""},
	))

	return nil
}

func (s *SimpleUI) DisplayValidation(ctx context.Context, results []m.ValidationResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	valid := 0
	rows := make([][]string, 0, len(results))

	for _, res := range results {
		if res.Valid {
			valid++
		}

		rows = append(rows, []string{
			res.Record.UnitName,
			res.Record.PropertyPath,
			statusLabel(res),
			suggestionLabel(res),
		})
	}

	s.printf("%s", renderTable(
		[]string{"Unit", "Path", "Status", "Suggestion"},
		rows,
		[]string{fmt.Sprintf("%d/%d valid", valid, len(results)), "", "", ""},
	))

	for _, res := range results {
		if res.Warning != "" {
			s.printf("warning: %s:%s: %s\n", res.Record.UnitName, res.Record.PropertyPath, res.Warning)
		}

		if alts := alternativesLabel(res); alts != "" {
			s.printf("also close: %s:%s: %s\n", res.Record.UnitName, res.Record.PropertyPath, alts)
		}
	}

	return nil
}

func statusLabel(res m.ValidationResult) string {
	if res.Valid {
		return res.Issue.String()
	}

	return "invalid: " + res.Issue.String()
}

func suggestionLabel(res m.ValidationResult) string {
	sg := res.Suggestion
	if sg == nil {
		return ""
	}

	var parts []string
	if sg.UnitName != "" {
		parts = append(parts, fmt.Sprintf("%s (%.2f)", sg.UnitName, sg.UnitScore))
	}

	if sg.PropertyPath != "" {
		parts = append(parts, fmt.Sprintf("%s (%.2f)", sg.PropertyPath, sg.PathScore))
	}

	label := strings.Join(parts, " ")
	if !sg.Resolves {
		label += " [unresolved]"
	}

	return label
}

func alternativesLabel(res m.ValidationResult) string {
	sg := res.Suggestion
	if sg == nil {
		return ""
	}

	return strings.Join(append(slices.Clip(sg.UnitAlternatives), sg.PathAlternatives...), ", ")
}

func (s *SimpleUI) DisplayReplay(ctx context.Context, report m.ReplayReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("Applied %d modification(s), skipped %d record(s)\n", len(report.Applied), len(report.Skipped))

	for _, sk := range report.Skipped {
		s.printf("skipped %s:%s: %s\n", sk.Record.UnitName, sk.Record.PropertyPath, sk.Reason)
	}

	return nil
}

func (s *SimpleUI) DisplayProfile(ctx context.Context, profile m.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("Profile: %s\n", profile.Name)
	s.printf("Created: %s\n", profile.CreatedAt.Local().Format(timeLayout))

	if profile.SourceFileName != "" {
		s.printf("Source:  %s\n", profile.SourceFileName)
	}

	if profile.Description != "" {
		s.printf("About:   %s\n", profile.Description)
	}

	s.printf("\n")

	return s.DisplayRecords(ctx, profile.Records)
}

func (s *SimpleUI) DisplayProfiles(ctx context.Context, profiles []m.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		rows = append(rows, []string{
			p.Name,
			p.CreatedAt.Local().Format(timeLayout),
			p.SourceFileName,
			fmt.Sprintf("%d", len(p.Records)),
		})
	}

	s.printf("%s", renderTable(
		[]string{"Name", "Created", "Source", "Records"},
		rows,
		[]string{fmt.Sprintf("%d profile(s)", len(profiles)), "", "", ""},
	))

	return nil
}

func (s *SimpleUI) DisplayRoundTrip(ctx context.Context, results []m.RoundTripResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	identical := 0
	rows := make([][]string, 0, len(results))

	for _, res := range results {
		status := "identical"

		switch {
		case res.Err != nil:
			status = "error: " + res.Err.Error()
		case !res.Identical:
			status = "changed"
		default:
			identical++
		}

		rows = append(rows, []string{string(res.Path), fmt.Sprintf("%d", res.Units), status})
	}

	s.printf("%s", renderTable(
		[]string{"File", "Units", "Round trip"},
		rows,
		[]string{fmt.Sprintf("%d/%d identical", identical, len(results)), "", ""},
	))

	return nil
}

func (s *SimpleUI) DisplayDiff(ctx context.Context, path m.Path, diff string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if diff == "" {
		s.printf("%s: no changes\n", path)
		return nil
	}

	s.printf("%s", diff)

	return nil
}

func (s *SimpleUI) DisplayMessage(ctx context.Context, format string, args ...any) {
	if ctx.Err() != nil {
		return
	}

	s.printf(format+"\n", args...)
}

// ReviewFixes prompts once per fixable result on the command input. Anything
// but an explicit yes declines the fix.
func (s *SimpleUI) ReviewFixes(ctx context.Context, results []m.ValidationResult) ([]bool, error) {
	accepted := make([]bool, len(results))
	input := bufio.NewScanner(s.cmd.InOrStdin())

	for i, res := range results {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !res.Fixable() {
			continue
		}

		unit, path := res.Target()
		s.printf("Retarget %s:%s to %s:%s? [y/N] ", res.Record.UnitName, res.Record.PropertyPath, unit, path)

		if !input.Scan() {
			s.printf("\n")
			break
		}

		answer := strings.ToLower(strings.TrimSpace(input.Text()))
		accepted[i] = answer == "y" || answer == "yes"
	}

	if err := input.Err(); err != nil {
		return nil, fmt.Errorf("read answer: %w", err)
	}

	return accepted, nil
}

func (s *SimpleUI) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func renderTable(header []string, rows [][]string, footer []string) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(rows)

	if footer != nil {
		table.SetFooter(footer)
	}

	table.Render()

	return tableBuffer.String()
}
