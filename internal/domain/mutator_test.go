package domain

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
	"ndfkit.dev/pkg/ndfkit/internal/ndf"
	"ndfkit.dev/pkg/ndfkit/pkg"
)

var fixedNow = time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)

func newTestMutator(l Ledger) Mutator {
	mu := NewMutator(l).(*mutator)
	mu.now = func() time.Time { return fixedNow }

	return mu
}

func parseForest(t *testing.T, src string) *m.Forest {
	t.Helper()

	f, err := ndf.Parse([]byte(src))
	require.NoError(t, err)

	return f
}

func valueAt(t *testing.T, f *m.Forest, unit, path string) string {
	t.Helper()

	u, err := LookupUnit(f, unit)
	require.NoError(t, err)

	v, ok := Get(u, path)
	require.True(t, ok, "path %s", path)

	return ndf.Render(v)
}

const wildcardSource = "U is T ( Arr = [ S ( X = 1 ), S ( Y = 0 ), S ( X = 3 ) ] )\n"

func TestMutator_Apply(t *testing.T) {
	f := loadFixture(t)
	l := NewLedger()

	records, err := newTestMutator(l).Apply(context.Background(), f, "Tank_Leopard2", "ModulesDescriptors[5].MaxSpeed", m.OpAdd, "6")
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "Tank_Leopard2", r.UnitName)
	assert.Equal(t, "ModulesDescriptors[5].MaxSpeed", r.PropertyPath)
	assert.Equal(t, "64", r.OldValueText)
	assert.Equal(t, "70", r.NewValueText)
	assert.Equal(t, m.KindNum, r.OldType)
	assert.Equal(t, m.KindNum, r.NewType)
	assert.Equal(t, m.OpAdd, r.ModType)
	assert.Equal(t, fixedNow, r.Timestamp)
	assert.Empty(t, r.Details)

	assert.Equal(t, "70", valueAt(t, f, "Tank_Leopard2", "ModulesDescriptors[5].MaxSpeed"))
	assert.Equal(t, records, l.Records())

	out := string(ndf.Write(f))
	assert.Contains(t, out, "MaxSpeed = 70")
	assert.Contains(t, out, "TTagsModuleDescriptor ( TagSet = [\"AllUnits\", \"Infanterie\"] )",
		"untouched units keep their bytes")
}

func TestMutator_ApplyWildcard(t *testing.T) {
	f := parseForest(t, wildcardSource)
	l := NewLedger()

	records, err := newTestMutator(l).Apply(context.Background(), f, "U", "Arr[*].X", m.OpMultiply, "2")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Arr[0].X", records[0].PropertyPath)
	assert.Equal(t, "Arr[2].X", records[1].PropertyPath)
	assert.Equal(t, "2", records[0].NewValueText)
	assert.Equal(t, "6", records[1].NewValueText)

	for _, r := range records {
		assert.Contains(t, r.Details, "expanded from Arr[*].X")
	}

	assert.Len(t, l.Records(), 2)
}

func TestMutator_ApplyIsAllOrNothing(t *testing.T) {
	ctx := context.Background()

	t.Run("one element rejects", func(t *testing.T) {
		f := parseForest(t, "U is T ( Arr = [ S ( X = 1 ), S ( X = 'two' ) ] )\n")
		l := NewLedger()

		_, err := newTestMutator(l).Apply(ctx, f, "U", "Arr[*].X", m.OpAdd, "1")

		var mutErr *MutationError
		require.ErrorAs(t, err, &mutErr)
		assert.Equal(t, m.KindStr, mutErr.Kind)
		assert.Contains(t, err.Error(), "Arr[1].X")

		assert.Equal(t, "1", valueAt(t, f, "U", "Arr[0].X"))
		assert.Empty(t, l.Records())
		assert.Empty(t, f.Dirty())
	})

	t.Run("ledger refuses", func(t *testing.T) {
		f := parseForest(t, wildcardSource)
		l, err := NewJournaledLedger(&failingJournal{})
		require.NoError(t, err)

		_, err = newTestMutator(l).Apply(ctx, f, "U", "Arr[*].X", m.OpAdd, "1")
		require.ErrorIs(t, err, errJournalFull)

		assert.Equal(t, "1", valueAt(t, f, "U", "Arr[0].X"))
		assert.Empty(t, f.Dirty())
	})

	t.Run("cancelled context", func(t *testing.T) {
		f := parseForest(t, wildcardSource)
		l := NewLedger()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := newTestMutator(l).Apply(cancelled, f, "U", "Arr[*].X", m.OpAdd, "1")
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, l.Records())
		assert.Empty(t, f.Dirty())
	})
}

func TestMutator_ApplyErrors(t *testing.T) {
	tests := []struct {
		name    string
		unit    string
		path    string
		op      m.Operator
		input   string
		wantErr error
	}{
		{name: "unknown unit", unit: "Ghost", path: "X", op: m.OpSet, input: "1", wantErr: ErrUnknownUnit},
		{name: "no match", unit: "Tank_Leopard2", path: "ModulesDescriptors[3].MaxSpeed", op: m.OpSet, input: "1", wantErr: ErrNoMatch},
		{name: "invalid path", unit: "Tank_Leopard2", path: "A[", op: m.OpSet, input: "1", wantErr: ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestMutator(NewLedger()).Apply(context.Background(), loadFixture(t), tt.unit, tt.path, tt.op, tt.input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("object is not mutable", func(t *testing.T) {
		_, err := newTestMutator(NewLedger()).Apply(context.Background(), loadFixture(t), "Tank_Leopard2", "ModulesDescriptors[5]", m.OpSet, "1")

		var mutErr *MutationError
		require.ErrorAs(t, err, &mutErr)
		assert.Equal(t, m.KindObject, mutErr.Kind)
	})
}

func TestMutator_Replace(t *testing.T) {
	f := loadFixture(t)
	l := NewLedger()
	mu := newTestMutator(l)

	records, err := mu.Replace(context.Background(), f, "Tank_Leopard2", "ModulesDescriptors[0].TagSet",
		&m.Array{Elements: []m.Value{&m.Str{Text: "Elite", Quote: m.QuoteDouble}}}, "replayed")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, `["Elite"]`, records[0].NewValueText)
	assert.Equal(t, "replayed", records[0].Details)
	assert.Equal(t, m.OpSet, records[0].ModType)

	_, err = mu.Replace(context.Background(), f, "Tank_Leopard2", "ModulesDescriptors[5].MaxSpeed", &m.Str{Text: "fast"}, "")

	var mutErr *MutationError
	require.ErrorAs(t, err, &mutErr)
	assert.Equal(t, "64", valueAt(t, f, "Tank_Leopard2", "ModulesDescriptors[5].MaxSpeed"))
	assert.Len(t, l.Records(), 1)
}

func TestLedger_Stats(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Append(
		m.ModificationRecord{UnitName: "A", PropertyPath: "Mods[1].Speed", ModType: m.OpAdd},
		m.ModificationRecord{UnitName: "A", PropertyPath: "Mods[3].Speed", ModType: m.OpSet},
		m.ModificationRecord{UnitName: "B", PropertyPath: "Cost", ModType: m.OpSet},
	))
	require.NoError(t, l.Append())

	stats := l.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, map[string]int{"A": 2, "B": 1}, stats.ByUnit)
	assert.Equal(t, map[string]int{"Mods[*].Speed": 2, "Cost": 1}, stats.ByProperty)
	assert.Equal(t, map[m.Operator]int{m.OpAdd: 1, m.OpSet: 2}, stats.ByType)

	records := l.Records()
	records[0].UnitName = "changed"
	assert.Equal(t, "A", l.Records()[0].UnitName, "Records returns a copy")

	require.NoError(t, l.Clear())
	assert.Empty(t, l.Records())
	assert.Equal(t, 0, l.Stats().Total)
}

func TestLedger_Journaled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger", "journal.bin")

	journal, err := pkg.OpenJournal[m.ModificationRecord](path)
	require.NoError(t, err)

	l, err := NewJournaledLedger(journal)
	require.NoError(t, err)

	f := loadFixture(t)
	_, err = newTestMutator(l).Apply(context.Background(), f, "Tank_Leopard2", "Weapons[*].Damage", m.OpIncreasePercent, "50")
	require.NoError(t, err)
	require.NoError(t, journal.Close())

	reopened, err := pkg.OpenJournal[m.ModificationRecord](path)
	require.NoError(t, err)

	t.Cleanup(func() { _ = reopened.Close() })

	again, err := NewJournaledLedger(reopened)
	require.NoError(t, err)

	records := again.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "15", records[0].NewValueText)
	assert.Equal(t, "3", records[1].NewValueText)
	assert.True(t, fixedNow.Equal(records[0].Timestamp))

	snap := Snapshot(again, " buff ", "weapons", "units.ndf")
	assert.Equal(t, "buff", snap.Name)
	assert.Equal(t, "units.ndf", snap.SourceFileName)
	assert.Len(t, snap.Records, 2)

	require.NoError(t, again.Clear())
	assert.Equal(t, uint64(0), reopened.Len())
}

var errJournalFull = errors.New("journal full")

type failingJournal struct{}

func (failingJournal) Len() uint64 { return 0 }
func (failingJournal) Path() string { return "failing" }
func (failingJournal) Append(m.ModificationRecord) error { return errJournalFull }
func (failingJournal) AppendBatch([]m.ModificationRecord) error { return errJournalFull }
func (failingJournal) Get(uint64) (m.ModificationRecord, error) { return m.ModificationRecord{}, errJournalFull }
func (failingJournal) Range(func(uint64, m.ModificationRecord) error) error { return nil }
func (failingJournal) Truncate() error { return nil }
func (failingJournal) Close() error { return nil }
