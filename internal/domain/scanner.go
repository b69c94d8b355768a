package domain

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/errgroup"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
	"ndfkit.dev/pkg/ndfkit/internal/ndf"
)

// ScanQuery selects units in a mass search. Empty fields match everything.
type ScanQuery struct {
	// Name is a fuzzy pattern matched against unit names.
	Name string
	// Category lists flags every hit must carry.
	Category m.Category
	// Path must resolve in every hit; `[*]` is allowed. The values found
	// there are reported with the hit.
	Path string
}

// Scanner runs mass searches over the units of a forest.
type Scanner interface {
	// Scan streams hits as units are processed. The channel closes when
	// the scan is done or ctx is cancelled; check ctx.Err() afterwards.
	Scan(ctx context.Context, f *m.Forest, q ScanQuery, threads int) <-chan m.ScanHit
}

type scanner struct{}

// NewScanner creates a Scanner.
func NewScanner() Scanner {
	return &scanner{}
}

type scanCandidate struct {
	unit  *m.Unit
	score int
}

func (s *scanner) Scan(ctx context.Context, f *m.Forest, q ScanQuery, threads int) <-chan m.ScanHit {
	buffer := max(threads, 1)
	ch := make(chan m.ScanHit, buffer)

	go func() {
		defer close(ch)

		candidates := s.candidates(f, q.Name)
		slog.Debug("starting scan", "query", q.Name, "candidates", len(candidates), "threads", threads)

		var group errgroup.Group
		if threads > 0 {
			group.SetLimit(threads)
		}

		for _, c := range candidates {
			if ctx.Err() != nil {
				slog.Debug("scan cancelled")
				break
			}

			group.Go(func() error {
				hit, ok := s.inspect(c, q)
				if !ok {
					return nil
				}

				select {
				case <-ctx.Done():
				case ch <- hit:
				}

				return nil
			})
		}

		_ = group.Wait()
	}()

	return ch
}

func (s *scanner) candidates(f *m.Forest, pattern string) []scanCandidate {
	names := f.Names()

	if pattern == "" {
		out := make([]scanCandidate, 0, len(names))
		for _, name := range names {
			u, _ := f.Unit(name)
			out = append(out, scanCandidate{unit: u})
		}

		return out
	}

	matches := fuzzy.Find(pattern, names)
	out := make([]scanCandidate, 0, len(matches))

	for _, hit := range matches {
		u, _ := f.Unit(hit.Str)
		out = append(out, scanCandidate{unit: u, score: hit.Score})
	}

	return out
}

func (s *scanner) inspect(c scanCandidate, q ScanQuery) (m.ScanHit, bool) {
	category := Classify(c.unit)
	if !category.Has(q.Category) {
		return m.ScanHit{}, false
	}

	hit := m.ScanHit{Unit: c.unit.Name, Score: c.score, Category: category}

	if q.Path == "" {
		return hit, true
	}

	matches, err := Resolve(c.unit, q.Path)
	if err != nil || len(matches) == 0 {
		return m.ScanHit{}, false
	}

	for _, mt := range matches {
		hit.Values = append(hit.Values, m.PathValue{Path: mt.Path, Text: ndf.Render(mt.Value)})
	}

	return hit, true
}

// CollectHits drains a scan and orders the hits by score, then unit name.
func CollectHits(ch <-chan m.ScanHit) []m.ScanHit {
	var hits []m.ScanHit
	for hit := range ch {
		hits = append(hits, hit)
	}

	slices.SortFunc(hits, func(a, b m.ScanHit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}

		return cmp.Compare(a.Unit, b.Unit)
	})

	return hits
}
