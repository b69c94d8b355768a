package domain

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
	"ndfkit.dev/pkg/ndfkit/pkg"
)

// Ledger is the append-only history of successful modifications.
type Ledger interface {
	Append(records ...m.ModificationRecord) error
	Records() []m.ModificationRecord
	Stats() m.LedgerStats
	Clear() error
}

type ledger struct {
	mu      sync.Mutex
	records []m.ModificationRecord
	journal pkg.Journal[m.ModificationRecord]
}

// NewLedger returns an in-memory ledger.
func NewLedger() Ledger {
	return &ledger{}
}

// NewJournaledLedger returns a ledger that mirrors every append to journal
// and starts with the records already stored in it.
func NewJournaledLedger(journal pkg.Journal[m.ModificationRecord]) (Ledger, error) {
	l := &ledger{journal: journal}

	err := journal.Range(func(_ uint64, r m.ModificationRecord) error {
		l.records = append(l.records, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load ledger journal: %w", err)
	}

	slog.Debug("loaded ledger", "path", journal.Path(), "records", len(l.records))

	return l, nil
}

// Append stores the records. With a journal the records are only kept in
// memory once they were written.
func (l *ledger) Append(records ...m.ModificationRecord) error {
	if len(records) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.journal != nil {
		if err := l.journal.AppendBatch(records); err != nil {
			return fmt.Errorf("append to ledger journal: %w", err)
		}
	}

	l.records = append(l.records, records...)

	return nil
}

func (l *ledger) Records() []m.ModificationRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]m.ModificationRecord(nil), l.records...)
}

func (l *ledger) Stats() m.LedgerStats {
	return ComputeStats(l.Records())
}

func (l *ledger) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.journal != nil {
		if err := l.journal.Truncate(); err != nil {
			return fmt.Errorf("clear ledger journal: %w", err)
		}
	}

	l.records = nil

	return nil
}

// ComputeStats counts records by unit, by property path and by operator.
func ComputeStats(records []m.ModificationRecord) m.LedgerStats {
	stats := m.LedgerStats{
		Total:      len(records),
		ByUnit:     map[string]int{},
		ByProperty: map[string]int{},
		ByType:     map[m.Operator]int{},
	}

	for _, r := range records {
		stats.ByUnit[r.UnitName]++
		stats.ByProperty[NormalizePath(r.PropertyPath)]++
		stats.ByType[r.ModType]++
	}

	return stats
}

// Snapshot turns the records of l into a profile.
func Snapshot(l Ledger, name, description, sourceFile string) m.Profile {
	return m.Profile{
		Name:           strings.TrimSpace(name),
		CreatedAt:      time.Now().UTC(),
		SourceFileName: sourceFile,
		Description:    description,
		Records:        l.Records(),
	}
}
