package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"

	"ndfkit.dev/pkg/ndfkit/internal/adapter"
	m "ndfkit.dev/pkg/ndfkit/internal/model"
	"ndfkit.dev/pkg/ndfkit/internal/ndf"
)

// ErrExternalChange is returned by Save when the file on disk no longer
// matches what the session loaded.
var ErrExternalChange = errors.New("file changed on disk since it was opened")

// ErrUnparsableOutput is returned by Save when the edited text would not
// parse back. Nothing is written in that case.
var ErrUnparsableOutput = errors.New("edited file would not parse")

// Session is one open description file together with the ledger its edits
// are recorded in.
type Session interface {
	Path() m.Path
	Forest() *m.Forest
	Ledger() Ledger

	// Get returns the values at path. An empty path lists every leaf of the
	// unit.
	Get(unit, path string) ([]m.PathValue, error)
	Apply(ctx context.Context, unit, path string, op m.Operator, input string) ([]m.ModificationRecord, error)
	Replay(ctx context.Context, profile m.Profile) (m.ReplayReport, error)

	// Output is the file as it would be saved now.
	Output() []byte
	// Diff is a unified diff of Output against the loaded file; empty when
	// nothing changed.
	Diff() (string, error)
	Dirty() bool
	// Save writes Output back atomically. It is a no-op for a clean session.
	Save(ctx context.Context) error

	// Snapshot turns the ledger into a profile.
	Snapshot(name, description string) m.Profile
}

type session struct {
	fs       adapter.SourceFSAdapter
	path     m.Path
	hash     string
	forest   *m.Forest
	ledger   Ledger
	mutator  Mutator
	replayer Replayer
}

// OpenSession parses the file at path. Edits are recorded in ledger.
func OpenSession(ctx context.Context, fs adapter.SourceFSAdapter, path m.Path, ledger Ledger) (Session, error) {
	src, err := fs.ReadFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	hash, err := fs.HashFile(path)
	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}

	forest, err := ndf.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	mutator := NewMutator(ledger)

	slog.Debug("opened session", "path", path, "units", len(forest.Units))

	return &session{
		fs:       fs,
		path:     path,
		hash:     hash,
		forest:   forest,
		ledger:   ledger,
		mutator:  mutator,
		replayer: NewReplayer(mutator),
	}, nil
}

func (s *session) Path() m.Path      { return s.path }
func (s *session) Forest() *m.Forest { return s.forest }
func (s *session) Ledger() Ledger    { return s.ledger }

func (s *session) Get(unit, path string) ([]m.PathValue, error) {
	u, err := LookupUnit(s.forest, unit)
	if err != nil {
		return nil, err
	}

	if path == "" {
		leaves := LeafPaths(u)
		out := make([]m.PathValue, 0, len(leaves))

		for _, leaf := range leaves {
			if v, ok := Get(u, leaf); ok {
				out = append(out, m.PathValue{Path: leaf, Text: ndf.Render(v)})
			}
		}

		return out, nil
	}

	matches, err := Resolve(u, path)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s:%s", ErrNoMatch, unit, path)
	}

	out := make([]m.PathValue, len(matches))
	for i, mt := range matches {
		out[i] = m.PathValue{Path: mt.Path, Text: ndf.Render(mt.Value)}
	}

	return out, nil
}

func (s *session) Apply(ctx context.Context, unit, path string, op m.Operator, input string) ([]m.ModificationRecord, error) {
	return s.mutator.Apply(ctx, s.forest, unit, path, op, input)
}

func (s *session) Replay(ctx context.Context, profile m.Profile) (m.ReplayReport, error) {
	return s.replayer.Replay(ctx, profile, s.forest)
}

func (s *session) Output() []byte {
	return ndf.Write(s.forest)
}

func (s *session) Dirty() bool {
	return len(s.forest.Dirty()) > 0
}

func (s *session) Diff() (string, error) {
	if !s.Dirty() {
		return "", nil
	}

	name := filepath.Base(string(s.path))

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(s.forest.Source)),
		B:        difflib.SplitLines(string(s.Output())),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", s.path, err)
	}

	return text, nil
}

func (s *session) Save(ctx context.Context) error {
	if !s.Dirty() {
		slog.Debug("nothing to save", "path", s.path)
		return nil
	}

	current, err := s.fs.HashFile(s.path)
	if err != nil {
		return fmt.Errorf("hash %s: %w", s.path, err)
	}

	if current != s.hash {
		return fmt.Errorf("%w: %s", ErrExternalChange, s.path)
	}

	out := s.Output()

	// The reparsed forest becomes the new baseline for later diffs.
	forest, err := ndf.Parse(out)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnparsableOutput, s.path, err)
	}

	if err := s.fs.WriteFileAtomic(ctx, s.path, out); err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}

	hash, err := s.fs.HashFile(s.path)
	if err != nil {
		return fmt.Errorf("hash %s: %w", s.path, err)
	}

	s.forest, s.hash = forest, hash

	slog.Info("saved file", "path", s.path, "bytes", len(out))

	return nil
}

func (s *session) Snapshot(name, description string) m.Profile {
	return Snapshot(s.ledger, name, description, filepath.Base(string(s.path)))
}
