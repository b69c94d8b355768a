package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

const (
	// ProfileVersion is the only profile document version understood.
	ProfileVersion = 1
	// ProfileExt is the extension given to saved profiles.
	ProfileExt = ".yaml"
)

// ErrProfileNotFound is returned when a profile file does not exist.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileStore persists profiles as YAML documents.
type ProfileStore interface {
	SaveProfile(ctx context.Context, path m.Path, p m.Profile) error
	LoadProfile(ctx context.Context, path m.Path) (m.Profile, error)
	// ListProfiles loads every profile in dir. Files that fail to load are
	// logged and skipped.
	ListProfiles(ctx context.Context, dir m.Path) ([]m.Profile, error)
	// ProfilePath returns where a profile called name lives inside dir.
	ProfilePath(dir m.Path, name string) m.Path
}

type profileDocument struct {
	Version     int              `yaml:"version"`
	Name        string           `yaml:"name"`
	CreatedAt   time.Time        `yaml:"created_at"`
	SourceFile  string           `yaml:"source_file,omitempty"`
	Description string           `yaml:"description,omitempty"`
	Records     []recordDocument `yaml:"records"`
}

type recordDocument struct {
	ID        string        `yaml:"id"`
	Unit      string        `yaml:"unit"`
	Path      string        `yaml:"path"`
	Operation string        `yaml:"operation"`
	Old       valueDocument `yaml:"old"`
	New       valueDocument `yaml:"new"`
	Timestamp time.Time     `yaml:"timestamp"`
	Details   string        `yaml:"details,omitempty"`
}

type valueDocument struct {
	Type string `yaml:"type"`
	Text string `yaml:"text"`
}

type profileStore struct {
	SourceFSAdapter
}

// NewProfileStore creates a ProfileStore writing through fs.
func NewProfileStore(fs SourceFSAdapter) ProfileStore {
	return &profileStore{SourceFSAdapter: fs}
}

func (s *profileStore) SaveProfile(ctx context.Context, path m.Path, p m.Profile) error {
	data, err := MarshalProfile(p)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(string(path)), 0o755); err != nil {
		return fmt.Errorf("create profile directory: %w", err)
	}

	if err := s.WriteFileAtomic(ctx, path, data); err != nil {
		return fmt.Errorf("save profile %s: %w", p.Name, err)
	}

	slog.Info("saved profile", "name", p.Name, "path", path, "records", len(p.Records))

	return nil
}

func (s *profileStore) LoadProfile(ctx context.Context, path m.Path) (m.Profile, error) {
	data, err := s.ReadFile(ctx, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m.Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, path)
		}

		return m.Profile{}, fmt.Errorf("read profile %s: %w", path, err)
	}

	p, err := UnmarshalProfile(data)
	if err != nil {
		return m.Profile{}, fmt.Errorf("%s: %w", path, err)
	}

	return p, nil
}

func (s *profileStore) ListProfiles(ctx context.Context, dir m.Path) ([]m.Profile, error) {
	entries, err := os.ReadDir(string(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("list profiles: %w", err)
	}

	var out []m.Profile

	for _, entry := range entries {
		if entry.IsDir() || !isProfileFile(entry.Name()) {
			continue
		}

		path := m.Path(filepath.Join(string(dir), entry.Name()))

		p, err := s.LoadProfile(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			slog.Warn("skipping unreadable profile", "path", path, "error", err)

			continue
		}

		out = append(out, p)
	}

	slices.SortFunc(out, func(a, b m.Profile) int { return strings.Compare(a.Name, b.Name) })

	return out, nil
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (s *profileStore) ProfilePath(dir m.Path, name string) m.Path {
	file := strings.Trim(unsafeNameChars.ReplaceAllString(name, "_"), "._")
	if file == "" {
		file = "profile"
	}

	return m.Path(filepath.Join(string(dir), file+ProfileExt))
}

func isProfileFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// MarshalProfile encodes p as a version 1 YAML document.
func MarshalProfile(p m.Profile) ([]byte, error) {
	doc := profileDocument{
		Version:     ProfileVersion,
		Name:        p.Name,
		CreatedAt:   p.CreatedAt.UTC(),
		SourceFile:  p.SourceFileName,
		Description: p.Description,
		Records:     make([]recordDocument, 0, len(p.Records)),
	}

	for _, r := range p.Records {
		doc.Records = append(doc.Records, recordDocument{
			ID:        r.ID,
			Unit:      r.UnitName,
			Path:      r.PropertyPath,
			Operation: string(r.ModType),
			Old:       valueDocument{Type: r.OldType.String(), Text: r.OldValueText},
			New:       valueDocument{Type: r.NewType.String(), Text: r.NewValueText},
			Timestamp: r.Timestamp.UTC(),
			Details:   r.Details,
		})
	}

	if err := validateProfileDocument(&doc); err != nil {
		return nil, err
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}

	return data, nil
}

// UnmarshalProfile decodes and validates a YAML profile document.
func UnmarshalProfile(data []byte) (m.Profile, error) {
	var doc profileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return m.Profile{}, fmt.Errorf("parse profile: %w", err)
	}

	if err := validateProfileDocument(&doc); err != nil {
		return m.Profile{}, err
	}

	p := m.Profile{
		Name:           doc.Name,
		CreatedAt:      doc.CreatedAt,
		SourceFileName: doc.SourceFile,
		Description:    doc.Description,
		Records:        make([]m.ModificationRecord, 0, len(doc.Records)),
	}

	for _, r := range doc.Records {
		// validateProfileDocument has already checked these.
		op, _ := m.ParseOperator(r.Operation)
		oldKind, _ := m.ParseKind(r.Old.Type)
		newKind, _ := m.ParseKind(r.New.Type)

		id := r.ID
		if id == "" {
			id = m.NewRecordID()
		}

		p.Records = append(p.Records, m.ModificationRecord{
			ID:           id,
			UnitName:     r.Unit,
			PropertyPath: r.Path,
			OldValueText: r.Old.Text,
			NewValueText: r.New.Text,
			OldType:      oldKind,
			NewType:      newKind,
			Timestamp:    r.Timestamp,
			ModType:      op,
			Details:      r.Details,
		})
	}

	return p, nil
}

func validateProfileDocument(doc *profileDocument) error {
	if doc.Version != ProfileVersion {
		return fmt.Errorf("unsupported profile version %d", doc.Version)
	}

	if strings.TrimSpace(doc.Name) == "" {
		return fmt.Errorf("profile name is required")
	}

	for i, r := range doc.Records {
		if r.Unit == "" {
			return fmt.Errorf("record %d: unit is required", i)
		}

		if r.Path == "" {
			return fmt.Errorf("record %d: path is required", i)
		}

		if _, err := m.ParseOperator(r.Operation); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}

		if _, err := m.ParseKind(r.Old.Type); err != nil {
			return fmt.Errorf("record %d old value: %w", i, err)
		}

		if _, err := m.ParseKind(r.New.Type); err != nil {
			return fmt.Errorf("record %d new value: %w", i, err)
		}
	}

	return nil
}
