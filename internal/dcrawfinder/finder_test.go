package dcrawfinder

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// fakeDcraw создаёт shell-скрипт, печатающий справку dcraw.
func fakeDcraw(t *testing.T, dir string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub requires unix")
	}

	path := filepath.Join(dir, "dcraw")
	script := "#!/bin/sh\necho 'Raw Photo Decoder \"dcraw\" v9.28'\nexit 1\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"\nRaw Photo Decoder \"dcraw\" v9.28\nby Dave Coffin", "9.28"},
		{"Raw Photo Decoder \"dcraw\" v10", "10"},
		{"something else", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := parseVersion(tt.output); got != tt.want {
			t.Errorf("parseVersion(%q) = %q, want %q", tt.output, got, tt.want)
		}
	}
}

func TestFind_CustomPath(t *testing.T) {
	path := fakeDcraw(t, t.TempDir())
	t.Setenv("PATH", "")

	info, err := NewFinder(path).Find()
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if info.Path != path {
		t.Errorf("Path = %q, want %q", info.Path, path)
	}
	if info.Version != "9.28" {
		t.Errorf("Version = %q, want 9.28", info.Version)
	}
}

func TestFind_EnvVar(t *testing.T) {
	path := fakeDcraw(t, t.TempDir())
	t.Setenv("PATH", "")

	f := NewFinder("")
	t.Setenv(f.EnvVar, path)

	info, err := f.Find()
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if info.Path != path {
		t.Errorf("Path = %q, want %q", info.Path, path)
	}
}

func TestFind_PATH(t *testing.T) {
	dir := t.TempDir()
	path := fakeDcraw(t, dir)
	t.Setenv("PATH", dir)

	f := NewFinder("")
	t.Setenv(f.EnvVar, "")

	info, err := f.Find()
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if info.Path != path {
		t.Errorf("Path = %q, want %q", info.Path, path)
	}
}

func TestFind_CustomPathWins(t *testing.T) {
	custom := fakeDcraw(t, t.TempDir())
	other := fakeDcraw(t, t.TempDir())

	f := NewFinder(custom)
	t.Setenv(f.EnvVar, other)

	info, err := f.Find()
	if err != nil {
		t.Fatal(err)
	}
	if info.Path != custom {
		t.Errorf("Path = %q, want custom %q", info.Path, custom)
	}
}

func TestFind_NotFound(t *testing.T) {
	t.Setenv("PATH", "")

	f := NewFinder(filepath.Join(t.TempDir(), "missing"))
	t.Setenv(f.EnvVar, "")

	_, err := f.Find()
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Find() error = %v, want ErrNotFound", err)
	}
}

func TestCheck_NotExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not used on windows")
	}
	path := filepath.Join(t.TempDir(), "dcraw")
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := check(path); err == nil {
		t.Error("check() error = nil, want error")
	}
}
