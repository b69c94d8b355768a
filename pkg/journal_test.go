package pkg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string
	Value float64
}

func TestJournal(t *testing.T) {
	t.Run("Append and Get", func(t *testing.T) {
		j, err := OpenJournal[string](filepath.Join(t.TempDir(), "j.gob"))
		require.NoError(t, err)
		defer j.Close()

		require.NoError(t, j.Append("first"))
		require.NoError(t, j.Append("second"))
		require.Equal(t, uint64(2), j.Len())

		got, err := j.Get(1)
		require.NoError(t, err)
		require.Equal(t, "second", got)

		_, err = j.Get(5)
		require.Error(t, err)
	})

	t.Run("reopen keeps items and extends them", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "ledger.gob")

		j, err := OpenJournal[entry](path)
		require.NoError(t, err)
		require.NoError(t, j.AppendBatch([]entry{{"a", 1}, {"b", 2}}))
		require.NoError(t, j.Close())

		j, err = OpenJournal[entry](path)
		require.NoError(t, err)
		defer j.Close()

		require.Equal(t, uint64(2), j.Len())
		require.NoError(t, j.Append(entry{"c", 3.5}))

		var names []string
		require.NoError(t, j.Range(func(_ uint64, e entry) error {
			names = append(names, e.Name)
			return nil
		}))
		require.Equal(t, []string{"a", "b", "c"}, names)
	})

	t.Run("drops a torn trailing frame", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "torn.gob")

		j, err := OpenJournal[int](path)
		require.NoError(t, err)
		require.NoError(t, j.AppendBatch([]int{1, 2}))
		require.NoError(t, j.Close())

		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
		require.NoError(t, err)
		_, err = f.Write([]byte{0, 0, 0, 9, 1, 2})
		require.NoError(t, err)
		require.NoError(t, f.Close())

		j, err = OpenJournal[int](path)
		require.NoError(t, err)
		defer j.Close()

		require.Equal(t, uint64(2), j.Len())
		require.NoError(t, j.Append(3))

		got, err := j.Get(2)
		require.NoError(t, err)
		require.Equal(t, 3, got)
	})

	t.Run("Truncate empties the journal", func(t *testing.T) {
		j, err := OpenJournal[int](filepath.Join(t.TempDir(), "t.gob"))
		require.NoError(t, err)
		defer j.Close()

		require.NoError(t, j.AppendBatch([]int{1, 2, 3}))
		require.NoError(t, j.Truncate())
		require.Equal(t, uint64(0), j.Len())

		require.NoError(t, j.Append(7))

		got, err := j.Get(0)
		require.NoError(t, err)
		require.Equal(t, 7, got)
	})

	t.Run("Append after Close fails", func(t *testing.T) {
		j, err := OpenJournal[int](filepath.Join(t.TempDir(), "c.gob"))
		require.NoError(t, err)
		require.NoError(t, j.Close())
		require.Error(t, j.Append(1))
		require.NoError(t, j.Close())
	})
}
