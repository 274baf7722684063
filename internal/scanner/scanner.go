// Package scanner отвечает за поиск изображений в дереве директорий.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrDiscovery - ошибка обхода дерева директорий.
var ErrDiscovery = errors.New("ошибка обхода директории")

// Kind - класс формата файла, определяется один раз при поиске.
type Kind int

const (
	// KindStandard - обычный растровый формат (jpeg, png, gif, bmp).
	KindStandard Kind = iota
	// KindRaw - RAW формат камеры, требует демозаики.
	KindRaw
)

// String возвращает имя класса формата.
func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindStandard:
		return "standard"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ThumbPrefix - префикс имён уже сгенерированных превью.
const ThumbPrefix = "SYNOPHOTO_THUMB"

// standardExts - обычные растровые форматы.
var standardExts = map[string]bool{
	"jpeg": true, "jpg": true, "bmp": true, "gif": true, "png": true,
}

// rawExts - RAW форматы камер.
var rawExts = map[string]bool{
	"nef": true, "nrw": true, "raw": true, "rw2": true, "cr2": true,
	"crw": true, "3fr": true, "ari": true, "arw": true, "srf": true,
	"sr2": true, "bay": true, "dcs": true, "dng": true, "erf": true,
	"mdc": true, "mrw": true, "orf": true, "pef": true, "ptx": true,
	"r3d": true, "raf": true, "rwl": true, "srw": true, "x3f": true,
}

// File представляет найденный файл для обработки.
type File struct {
	// Path - путь к файлу.
	Path string

	// RelPath - относительный путь от корневой директории.
	RelPath string

	// Kind - класс формата.
	Kind Kind

	// Size - размер файла в байтах.
	Size int64

	// Mtime - время модификации (unix timestamp).
	Mtime int64
}

// Classify определяет класс формата по имени файла.
// Возвращает false, если файл не подлежит обработке: неподдерживаемое
// расширение, уже сгенерированное превью или скрытый файл.
func Classify(name string) (Kind, bool) {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ThumbPrefix) || strings.HasPrefix(base, ".") {
		return KindStandard, false
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))
	switch {
	case rawExts[ext]:
		return KindRaw, true
	case standardExts[ext]:
		return KindStandard, true
	default:
		return KindStandard, false
	}
}

// IsRawExtension проверяет, является ли расширение RAW форматом.
func IsRawExtension(ext string) bool {
	return rawExts[strings.ToLower(strings.TrimPrefix(ext, "."))]
}

// Scanner сканирует дерево директорий.
type Scanner struct {
	root string

	// onSkip вызывается для поддерева, которое не удалось прочитать.
	onSkip func(path string, err error)
}

// New создаёт новый Scanner для корневой директории.
func New(root string) *Scanner {
	return &Scanner{
		root: root,
		onSkip: func(path string, err error) {
			fmt.Fprintf(os.Stderr, "⚠️  Пропущено %s: %v\n", path, err)
		},
	}
}

// OnSkip устанавливает обработчик пропущенных поддеревьев.
func (s *Scanner) OnSkip(fn func(path string, err error)) {
	s.onSkip = fn
}

// Scan запускает сканирование и отправляет найденные файлы в канал.
// Оба канала закрываются после завершения сканирования. Недоступное
// поддерево пропускается, ошибка на самом корне отправляется в канал ошибок.
func (s *Scanner) Scan(ctx context.Context) (<-chan File, <-chan error) {
	files := make(chan File, 100)
	errs := make(chan error, 1)

	go func() {
		defer close(files)
		defer close(errs)

		if err := s.walk(ctx, files); err != nil {
			errs <- err
		}
	}()

	return files, errs
}

// walk обходит дерево и отправляет подходящие файлы.
func (s *Scanner) walk(ctx context.Context, files chan<- File) error {
	return filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			if path == s.root {
				return fmt.Errorf("%w: %s: %v", ErrDiscovery, path, err)
			}
			if s.onSkip != nil {
				s.onSkip(path, fmt.Errorf("%w: %v", ErrDiscovery, err))
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		kind, ok := Classify(d.Name())
		if !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			// Файл мог исчезнуть между чтением директории и stat
			if s.onSkip != nil {
				s.onSkip(path, fmt.Errorf("%w: %v", ErrDiscovery, err))
			}
			return nil
		}

		relPath, err := filepath.Rel(s.root, path)
		if err != nil {
			relPath = d.Name()
		}

		file := File{
			Path:    path,
			RelPath: relPath,
			Kind:    kind,
			Size:    info.Size(),
			Mtime:   info.ModTime().Unix(),
		}

		select {
		case files <- file:
		case <-ctx.Done():
			return ctx.Err()
		}

		return nil
	})
}

// Count возвращает количество файлов для обработки (для прогресс-бара).
func (s *Scanner) Count() (int64, error) {
	var count int64

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.root {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.IsDir() {
			if _, ok := Classify(d.Name()); ok {
				count++
			}
		}

		return nil
	})

	return count, err
}

/*
Возможные расширения:
- Добавить исключения по glob-паттернам
- Добавить поддержку symlinks
*/
