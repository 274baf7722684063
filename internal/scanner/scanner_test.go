package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		wantKind Kind
		wantOK   bool
	}{
		{"photo.jpg", KindStandard, true},
		{"photo.JPG", KindStandard, true},
		{"photo.Jpeg", KindStandard, true},
		{"photo.bmp", KindStandard, true},
		{"photo.gif", KindStandard, true},
		{"photo.PNG", KindStandard, true},
		{"shot.cr2", KindRaw, true},
		{"shot.CR2", KindRaw, true},
		{"shot.nef", KindRaw, true},
		{"shot.3fr", KindRaw, true},
		{"shot.R3D", KindRaw, true},
		{"shot.r3d", KindRaw, true},
		{"shot.X3F", KindRaw, true},
		{"shot.Dng", KindRaw, true},
		{"movie.mp4", KindStandard, false},
		{"photo.webp", KindStandard, false},
		{"noext", KindStandard, false},
		{"jpg", KindStandard, false},
		{"SYNOPHOTO_THUMB_XL.jpg", KindStandard, false},
		{"SYNOPHOTO_THUMB_S.jpg", KindStandard, false},
		{".hidden.jpg", KindStandard, false},
		{"._photo.jpg", KindStandard, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := Classify(tt.name)
			if ok != tt.wantOK {
				t.Fatalf("Classify(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
			}
			if ok && kind != tt.wantKind {
				t.Errorf("Classify(%q) kind = %v, want %v", tt.name, kind, tt.wantKind)
			}
		})
	}
}

func TestClassify_AllExtensionsAllCasings(t *testing.T) {
	for ext := range standardExts {
		for _, e := range []string{ext, strings.ToUpper(ext), strings.ToUpper(ext[:1]) + ext[1:]} {
			if kind, ok := Classify("a." + e); !ok || kind != KindStandard {
				t.Errorf("Classify(a.%s) = %v, %v; want standard, true", e, kind, ok)
			}
		}
	}
	for ext := range rawExts {
		for _, e := range []string{ext, strings.ToUpper(ext), strings.ToUpper(ext[:1]) + ext[1:]} {
			if kind, ok := Classify("a." + e); !ok || kind != KindRaw {
				t.Errorf("Classify(a.%s) = %v, %v; want raw, true", e, kind, ok)
			}
			if !IsRawExtension("." + e) {
				t.Errorf("IsRawExtension(.%s) = false", e)
			}
		}
	}
}

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func collect(t *testing.T, s *Scanner) []File {
	t.Helper()
	files, errs := s.Scan(context.Background())

	var got []File
	for f := range files {
		got = append(got, f)
	}
	if err := <-errs; err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	return got
}

func TestScanner_Scan(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"a.jpg",
		"b.PNG",
		"notes.txt",
		".DS_Store",
		".hidden.jpg",
		"sub/c.cr2",
		"sub/deeper/d.GIF",
		"sub/@eaDir/c.cr2/SYNOPHOTO_THUMB_XL.jpg",
		"sub/@eaDir/c.cr2/SYNOPHOTO_THUMB_S.jpg",
	)

	got := collect(t, New(root))

	var rel []string
	kinds := map[string]Kind{}
	for _, f := range got {
		rel = append(rel, filepath.ToSlash(f.RelPath))
		kinds[filepath.ToSlash(f.RelPath)] = f.Kind
		if f.Size != 4 {
			t.Errorf("%s: Size = %d, want 4", f.RelPath, f.Size)
		}
	}
	sort.Strings(rel)

	want := []string{"a.jpg", "b.PNG", "sub/c.cr2", "sub/deeper/d.GIF"}
	if strings.Join(rel, ",") != strings.Join(want, ",") {
		t.Fatalf("Scan() = %v, want %v", rel, want)
	}

	if kinds["sub/c.cr2"] != KindRaw {
		t.Errorf("sub/c.cr2 kind = %v, want raw", kinds["sub/c.cr2"])
	}
	if kinds["a.jpg"] != KindStandard {
		t.Errorf("a.jpg kind = %v, want standard", kinds["a.jpg"])
	}
}

func TestScanner_ScanTwice(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.jpg", "b/c.nef")

	s := New(root)
	if n1, n2 := len(collect(t, s)), len(collect(t, s)); n1 != 2 || n2 != 2 {
		t.Errorf("Scan() twice = %d, %d files, want 2, 2", n1, n2)
	}
}

func TestScanner_MissingRoot(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing"))
	files, errs := s.Scan(context.Background())

	for range files {
		t.Error("no files expected for missing root")
	}

	err := <-errs
	if !errors.Is(err, ErrDiscovery) {
		t.Errorf("Scan() error = %v, want ErrDiscovery", err)
	}
}

func TestScanner_SkipsUnreadableSubtree(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("права доступа не действуют для root")
	}

	root := t.TempDir()
	writeFiles(t, root, "a.jpg", "locked/b.jpg", "open/c.jpg")

	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	s := New(root)
	var skipped []string
	s.OnSkip(func(path string, err error) {
		if !errors.Is(err, ErrDiscovery) {
			t.Errorf("skip error = %v, want ErrDiscovery", err)
		}
		skipped = append(skipped, path)
	})

	got := collect(t, s)
	if len(got) != 2 {
		t.Errorf("Scan() = %d files, want 2", len(got))
	}
	if len(skipped) != 1 || skipped[0] != locked {
		t.Errorf("skipped = %v, want [%s]", skipped, locked)
	}
}

func TestScanner_ContextCancel(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 300; i++ {
		writeFiles(t, root, fmt.Sprintf("d/%03d.jpg", i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	files, errs := New(root).Scan(ctx)

	<-files
	cancel()
	for range files {
	}

	if err := <-errs; err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("Scan() error = %v, want nil or context.Canceled", err)
	}
}

func TestScanner_Count(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.jpg", "b.txt", "c/d.arw", "c/@eaDir/d.arw/SYNOPHOTO_THUMB_M.jpg")

	count, err := New(root).Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindStandard, "standard"},
		{KindRaw, "raw"},
		{Kind(7), "unknown(7)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind.String() = %q, want %q", got, tt.want)
		}
	}
}
