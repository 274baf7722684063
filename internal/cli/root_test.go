package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/artemshloyda/synothumb/internal/config"
	"github.com/artemshloyda/synothumb/internal/imagetest"
	"github.com/artemshloyda/synothumb/internal/thumbnail"
)

// execute запускает корневую команду с аргументами и возвращает вывод.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeConfig записывает YAML конфигурацию и возвращает путь.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "synothumb.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRoot_Generate(t *testing.T) {
	root := t.TempDir()
	photo := filepath.Join(root, "photo.jpg")
	imagetest.WriteJPEG(t, photo, imagetest.Split(300, 200, imagetest.Red, imagetest.Blue), 0)
	cfgPath := writeConfig(t, "processing:\n  workers: 2\n")

	out, _, err := execute(t, "--directory", root, "--config", cfgPath)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !strings.Contains(out, "Всего обработано файлов: 1.") {
		t.Errorf("output = %q, want total line", out)
	}
	if !thumbnail.AllExist(thumbnail.Dir(photo)) {
		t.Error("thumbnails not created")
	}
}

func TestRoot_DirectoryFromConfig(t *testing.T) {
	root := t.TempDir()
	imagetest.WriteJPEG(t, filepath.Join(root, "a.jpg"), imagetest.Split(50, 50, imagetest.Red, imagetest.Blue), 0)
	cfgPath := writeConfig(t, "input:\n  directory: "+root+"\n")

	out, _, err := execute(t, "--config", cfgPath)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "Всего обработано файлов: 1.") {
		t.Errorf("output = %q", out)
	}
}

func TestRoot_MissingDirectory(t *testing.T) {
	cfgPath := writeConfig(t, "processing:\n  workers: 2\n")

	if _, _, err := execute(t, "--config", cfgPath); err == nil {
		t.Error("Execute() error = nil, want missing directory error")
	}
}

func TestRoot_NonexistentDirectory(t *testing.T) {
	cfgPath := writeConfig(t, "processing:\n  workers: 2\n")

	_, _, err := execute(t, "--directory", filepath.Join(t.TempDir(), "missing"), "--config", cfgPath)
	if err == nil {
		t.Error("Execute() error = nil, want error")
	}
}

func TestBuildConfig_FlagsOverrideFile(t *testing.T) {
	cfgPath := writeConfig(t, `input:
  directory: /from/file
output:
  quality: 70
processing:
  workers: 2
  verbose: true
paths:
  db: /from/file.db
`)

	cmd := NewRootCmd()
	if err := cmd.ParseFlags([]string{"--config", cfgPath, "--workers", "6", "--db", "/from/flag.db"}); err != nil {
		t.Fatal(err)
	}

	f := &rootFlags{configPath: cfgPath, workers: 6, dbPath: "/from/flag.db"}
	cfg, path, err := buildConfig(cmd, f)
	if err != nil {
		t.Fatalf("buildConfig() error = %v", err)
	}

	if path != cfgPath {
		t.Errorf("path = %q, want %q", path, cfgPath)
	}
	tests := []struct {
		name      string
		got, want interface{}
	}{
		{"RootDir", cfg.RootDir, "/from/file"},
		{"Quality", cfg.Quality, 70},
		{"Workers", cfg.Workers, 6},
		{"Verbose", cfg.Verbose, true},
		{"DBPath", cfg.DBPath, "/from/flag.db"},
		{"MaxMemoryMB", cfg.MaxMemoryMB, 0},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestStats(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	imagetest.WriteJPEG(t, filepath.Join(root, "ok.jpg"), imagetest.Split(50, 50, imagetest.Red, imagetest.Blue), 0)
	imagetest.WriteTruncatedJPEG(t, filepath.Join(root, "bad.jpg"))
	cfgPath := writeConfig(t, "processing:\n  workers: 1\n")

	if _, _, err := execute(t, "--directory", root, "--db", dbPath, "--config", cfgPath); err != nil {
		t.Fatalf("generate error = %v", err)
	}

	out, _, err := execute(t, "stats", "--db", dbPath)
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}

	for _, want := range []string{"Запусков: 1", "Записей о файлах: 2", "Ошибок: 1", "bad.jpg"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestStats_RequiresDB(t *testing.T) {
	if _, _, err := execute(t, "stats"); err == nil {
		t.Error("stats without --db: error = nil")
	}
}

func TestConfigInit(t *testing.T) {
	out, _, err := execute(t, "config", "init")
	if err != nil {
		t.Fatal(err)
	}

	var fc config.FileConfig
	if err := yaml.Unmarshal([]byte(out), &fc); err != nil {
		t.Fatalf("config init output is not valid YAML: %v", err)
	}
	if fc.Processing == nil || fc.Processing.Workers != config.DefaultWorkers {
		t.Errorf("Processing = %+v", fc.Processing)
	}
}

func TestConfigInit_Output(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synothumb.yaml")

	if _, _, err := execute(t, "config", "init", "--output", path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not written: %v", err)
	}

	// Существующий файл не перезаписывается
	if _, _, err := execute(t, "config", "init", "--output", path); err == nil {
		t.Error("second init: error = nil, want exists error")
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "synothumb "+Version) {
		t.Errorf("version output = %q", out)
	}
}
