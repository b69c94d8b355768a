package adapter

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

func TestLocalSourceFSAdapter_Walk(t *testing.T) {
	t.Run("non recursive skips nested files", func(t *testing.T) {
		adapter := NewLocalSourceFSAdapter()

		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, "units.ndf"), "A is T()\n")

		nestedDir := filepath.Join(root, "nested")
		mustMkdir(t, nestedDir)
		writeTestFile(t, filepath.Join(nestedDir, "child.ndf"), "B is T()\n")

		var visited []string
		err := adapter.Walk(m.Path(root), false, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			visited = append(visited, path)
			return nil
		})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}

		if containsPath(visited, filepath.Join(nestedDir, "child.ndf")) {
			t.Fatalf("Walk() visited nested file when recursive is false")
		}

		if !containsPath(visited, filepath.Join(root, "units.ndf")) {
			t.Fatalf("Walk() did not visit top-level file")
		}
	})

	t.Run("recursive visits nested files", func(t *testing.T) {
		adapter := NewLocalSourceFSAdapter()

		root := t.TempDir()
		nestedDir := filepath.Join(root, "nested")
		mustMkdir(t, nestedDir)
		child := filepath.Join(nestedDir, "child.ndf")
		writeTestFile(t, child, "B is T()\n")

		var visited []string
		err := adapter.Walk(m.Path(root), true, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			visited = append(visited, path)
			return nil
		})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}

		if !containsPath(visited, child) {
			t.Fatalf("Walk() did not visit nested file when recursive")
		}
	})
}

func TestLocalSourceFSAdapter_FindSources(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	root := t.TempDir()
	top := filepath.Join(root, "units.ndf")
	upper := filepath.Join(root, "WEAPONS.NDF")
	nested := filepath.Join(root, "sub", "ammo.ndf")
	writeTestFile(t, top, "A is T()\n")
	writeTestFile(t, upper, "W is T()\n")
	writeTestFile(t, filepath.Join(root, "notes.txt"), "nothing\n")
	mustMkdir(t, filepath.Dir(nested))
	writeTestFile(t, nested, "Ammo is T()\n")

	t.Run("non recursive", func(t *testing.T) {
		got, err := adapter.FindSources(context.Background(), []m.Path{m.Path(root)}, false)
		if err != nil {
			t.Fatalf("FindSources() error = %v", err)
		}

		want := []m.Path{m.Path(upper), m.Path(top)}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Fatalf("FindSources() = %v, want %v", got, want)
		}
	})

	t.Run("recursive with duplicate file root", func(t *testing.T) {
		got, err := adapter.FindSources(context.Background(), []m.Path{m.Path(root), m.Path(top)}, true)
		if err != nil {
			t.Fatalf("FindSources() error = %v", err)
		}

		if len(got) != 3 || !containsPath(pathStrings(got), nested) {
			t.Fatalf("FindSources() = %v, want three files including %s", got, nested)
		}
	})

	t.Run("missing root", func(t *testing.T) {
		if _, err := adapter.FindSources(context.Background(), []m.Path{m.Path(filepath.Join(root, "missing"))}, false); err == nil {
			t.Fatalf("FindSources() expected error for missing root")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := adapter.FindSources(ctx, []m.Path{m.Path(root)}, true); err == nil {
			t.Fatalf("FindSources() expected error for cancelled context")
		}
	})
}

func TestLocalSourceFSAdapter_ReadFile(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	root := t.TempDir()
	path := filepath.Join(root, "units.ndf")
	content := "export A is T\n(\n    X = 1\n)\n"
	writeTestFile(t, path, content)

	got, err := adapter.ReadFile(context.Background(), m.Path(path))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if string(got) != content {
		t.Fatalf("ReadFile() = %q, want %q", string(got), content)
	}
}

func TestLocalSourceFSAdapter_WriteFileAtomic(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	t.Run("replaces content and keeps mode", func(t *testing.T) {
		root := t.TempDir()
		path := filepath.Join(root, "units.ndf")
		writeTestFile(t, path, "old\n")

		if err := os.Chmod(path, 0o600); err != nil {
			t.Fatalf("chmod: %v", err)
		}

		if err := adapter.WriteFileAtomic(context.Background(), m.Path(path), []byte("new\n")); err != nil {
			t.Fatalf("WriteFileAtomic() error = %v", err)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read back: %v", err)
		}

		if string(got) != "new\n" {
			t.Fatalf("content = %q, want %q", got, "new\n")
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}

		if info.Mode().Perm() != 0o600 {
			t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
		}

		entries, err := os.ReadDir(root)
		if err != nil {
			t.Fatalf("read dir: %v", err)
		}

		if len(entries) != 1 {
			t.Fatalf("temporary files left behind: %v", entries)
		}
	})

	t.Run("creates missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fresh.ndf")

		if err := adapter.WriteFileAtomic(context.Background(), m.Path(path), []byte("A is T()\n")); err != nil {
			t.Fatalf("WriteFileAtomic() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("file not created: %v", err)
		}
	})

	t.Run("missing directory leaves nothing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "units.ndf")

		if err := adapter.WriteFileAtomic(context.Background(), m.Path(path), []byte("x")); err == nil {
			t.Fatalf("WriteFileAtomic() expected error for missing directory")
		}
	})

	t.Run("cancelled context keeps original", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "units.ndf")
		writeTestFile(t, path, "old\n")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := adapter.WriteFileAtomic(ctx, m.Path(path), []byte("new\n")); err == nil {
			t.Fatalf("WriteFileAtomic() expected error for cancelled context")
		}

		got, _ := os.ReadFile(path)
		if string(got) != "old\n" {
			t.Fatalf("content = %q, want original", got)
		}
	})
}

func TestLocalSourceFSAdapter_HashFile(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	root := t.TempDir()
	path := filepath.Join(root, "units.ndf")
	content := []byte("A is T()\n")
	writeTestBytes(t, path, content)

	expected := fmt.Sprintf("%x", sha256.Sum256(content))

	hash, err := adapter.HashFile(m.Path(path))
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}

	if hash != expected {
		t.Fatalf("HashFile() = %s, want %s", hash, expected)
	}

	if _, err := adapter.HashFile(m.Path(filepath.Join(root, "missing.ndf"))); err == nil {
		t.Fatalf("HashFile() expected error for missing file")
	}
}

func TestLocalSourceFSAdapter_FileInfo(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()

	root := t.TempDir()
	path := filepath.Join(root, "units.ndf")
	writeTestFile(t, path, "A is T()\n")

	info, err := adapter.FileInfo(m.Path(path))
	if err != nil {
		t.Fatalf("FileInfo() error = %v", err)
	}

	if info.IsDir() {
		t.Fatalf("FileInfo() reported file as directory")
	}

	dirInfo, err := adapter.FileInfo(m.Path(root))
	if err != nil {
		t.Fatalf("FileInfo() error = %v", err)
	}

	if !dirInfo.IsDir() {
		t.Fatalf("FileInfo() reported directory as file")
	}
}

func writeTestFile(t *testing.T, path, contents string) {
	t.Helper()
	writeTestBytes(t, path, []byte(contents))
}

func writeTestBytes(t *testing.T, path string, contents []byte) {
	t.Helper()
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("failed to create dir %s: %v", path, err)
	}
}

func containsPath(paths []string, target string) bool {
	for _, p := range paths {
		if p == target {
			return true
		}
	}
	return false
}

func pathStrings(paths []m.Path) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = string(p)
	}
	return out
}
