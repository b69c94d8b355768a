package domain

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ndfkit.dev/pkg/ndfkit/internal/adapter"
	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

// copyFixture places the shared fixture in a temp dir so tests may save it.
func copyFixture(t *testing.T) m.Path {
	t.Helper()

	src, err := os.ReadFile(fixturePath)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "units.ndf")
	require.NoError(t, os.WriteFile(path, src, 0o644))

	return m.Path(path)
}

func openTestSession(t *testing.T) (Session, m.Path) {
	t.Helper()

	path := copyFixture(t)

	s, err := OpenSession(context.Background(), adapter.NewLocalSourceFSAdapter(), path, NewLedger())
	require.NoError(t, err)

	return s, path
}

func diffHasLine(diff string, sign byte, text string) bool {
	for _, line := range strings.Split(diff, "\n") {
		if len(line) > 0 && line[0] == sign && strings.Contains(line, text) {
			return true
		}
	}

	return false
}

func TestSession_Get(t *testing.T) {
	s, _ := openTestSession(t)

	t.Run("leaf listing", func(t *testing.T) {
		values, err := s.Get("Helo_Gazelle", "")
		require.NoError(t, err)
		assert.Equal(t, []m.PathValue{
			{Path: "ModulesDescriptors[0].TagSet", Text: `["Helo"]`},
			{Path: "ModulesDescriptors[1].MaxSpeed", Text: "250"},
		}, values)
	})

	t.Run("wildcard", func(t *testing.T) {
		values, err := s.Get("Tank_Leopard2", "Weapons[*].Name")
		require.NoError(t, err)
		assert.Len(t, values, 3)
		assert.Equal(t, "'MG'", values[1].Text)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := s.Get("Tank_Leopard2", "Weapons[1].Damage")
		require.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("unknown unit", func(t *testing.T) {
		_, err := s.Get("Nope", "")
		require.Error(t, err)
	})
}

func TestSession_ApplyDiffSave(t *testing.T) {
	s, path := openTestSession(t)
	ctx := context.Background()

	assert.False(t, s.Dirty())

	diff, err := s.Diff()
	require.NoError(t, err)
	assert.Empty(t, diff)

	records, err := s.Apply(ctx, "Tank_Leopard2", "ModulesDescriptors[5].MaxSpeed", m.OpAdd, "6")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, s.Dirty())
	assert.Len(t, s.Ledger().Records(), 1)

	diff, err = s.Diff()
	require.NoError(t, err)
	assert.Contains(t, diff, "--- a/units.ndf")
	assert.Contains(t, diff, "+++ b/units.ndf")
	assert.True(t, diffHasLine(diff, '-', "MaxSpeed = 64"), diff)
	assert.True(t, diffHasLine(diff, '+', "MaxSpeed = 70"), diff)
	assert.False(t, diffHasLine(diff, '-', "Helo"), "untouched units stay out of the diff")

	require.NoError(t, s.Save(ctx))
	assert.False(t, s.Dirty())

	saved, err := os.ReadFile(string(path))
	require.NoError(t, err)
	assert.Contains(t, string(saved), "MaxSpeed = 70")
	assert.Contains(t, string(saved), "Weight = 55.2")
	assert.Equal(t, saved, s.Output())

	values, err := s.Get("Tank_Leopard2", "ModulesDescriptors[5].MaxSpeed")
	require.NoError(t, err)
	assert.Equal(t, "70", values[0].Text)

	// The saved file is the new baseline.
	_, err = s.Apply(ctx, "Tank_Leopard2", "ModulesDescriptors[5].MaxSpeed", m.OpSet, "71")
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx))
}

func TestSession_SaveRejectsExternalChange(t *testing.T) {
	s, path := openTestSession(t)
	ctx := context.Background()

	_, err := s.Apply(ctx, "Helo_Gazelle", "ModulesDescriptors[1].MaxSpeed", m.OpSet, "300")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(string(path), []byte("export X is T ( A = 1 )\n"), 0o644))

	err = s.Save(ctx)
	require.ErrorIs(t, err, ErrExternalChange)

	onDisk, err := os.ReadFile(string(path))
	require.NoError(t, err)
	assert.Equal(t, "export X is T ( A = 1 )\n", string(onDisk))
}

func TestSession_SaveQuotesEditedText(t *testing.T) {
	s, path := openTestSession(t)
	ctx := context.Background()

	_, err := s.Apply(ctx, "Tank_Leopard2", "Weapons[0].Name", m.OpSet, "It's")
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx))

	saved, err := os.ReadFile(string(path))
	require.NoError(t, err)
	assert.Contains(t, string(saved), `Name = "It's"`)

	reopened, err := OpenSession(ctx, adapter.NewLocalSourceFSAdapter(), path, NewLedger())
	require.NoError(t, err)

	values, err := reopened.Get("Tank_Leopard2", "Weapons[0].Name")
	require.NoError(t, err)
	assert.Equal(t, `"It's"`, values[0].Text)
}

func TestSession_SaveRefusesUnparsableOutput(t *testing.T) {
	s, path := openTestSession(t)

	before, err := os.ReadFile(string(path))
	require.NoError(t, err)

	unit, ok := s.Forest().Unit("Tank_Leopard2")
	require.True(t, ok)
	require.True(t, Set(unit, "Weapons[0].Name", &m.Str{Text: "It's", Quote: m.QuoteSingle}))

	err = s.Save(context.Background())
	require.ErrorIs(t, err, ErrUnparsableOutput)

	after, err := os.ReadFile(string(path))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestSession_CleanSaveDoesNotWrite(t *testing.T) {
	s, path := openTestSession(t)

	before, err := os.Stat(string(path))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(string(path), []byte("changed\n"), 0o644))
	require.NoError(t, s.Save(context.Background()))

	after, err := os.ReadFile(string(path))
	require.NoError(t, err)
	assert.Equal(t, "changed\n", string(after))
	assert.NotZero(t, before.Size())
}

func TestSession_ReplayAndSnapshot(t *testing.T) {
	s, _ := openTestSession(t)
	ctx := context.Background()

	_, err := s.Apply(ctx, "Tank_Leopard2", "Weapons[*].Damage", m.OpMultiply, "2")
	require.NoError(t, err)

	profile := s.Snapshot("  doubled  ", "damage x2")
	assert.Equal(t, "doubled", profile.Name)
	assert.Equal(t, "units.ndf", profile.SourceFileName)
	assert.Equal(t, "damage x2", profile.Description)
	require.Len(t, profile.Records, 2)

	other, _ := openTestSession(t)

	report, err := other.Replay(ctx, profile)
	require.NoError(t, err)
	assert.Len(t, report.Applied, 2)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, s.Output(), other.Output())
}

func TestOpenSession_Errors(t *testing.T) {
	fs := adapter.NewLocalSourceFSAdapter()
	dir := t.TempDir()

	_, err := OpenSession(context.Background(), fs, m.Path(filepath.Join(dir, "missing.ndf")), NewLedger())
	require.Error(t, err)

	broken := filepath.Join(dir, "broken.ndf")
	require.NoError(t, os.WriteFile(broken, []byte("export X is T ( A = \n"), 0o644))

	_, err = OpenSession(context.Background(), fs, m.Path(broken), NewLedger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}
