// Package watcher следит за деревом директорий и выдаёт новые изображения.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/artemshloyda/synothumb/internal/scanner"
	"github.com/artemshloyda/synothumb/internal/thumbnail"
)

// Watcher следит за директорией и отправляет новые файлы в канал.
type Watcher struct {
	// root - корневая директория.
	root string

	// watcher - fsnotify watcher.
	watcher *fsnotify.Watcher

	// debounceTime - время ожидания перед обработкой файла.
	// Нужно для того, чтобы файл успел полностью записаться.
	debounceTime time.Duration

	// pending - файлы, ожидающие обработки. Доступ только из цикла событий.
	pending map[string]time.Time

	// onError вызывается для ошибок fsnotify.
	onError func(err error)
}

// New создаёт новый Watcher для корневой директории.
func New(root string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("не удалось создать watcher: %w", err)
	}

	return &Watcher{
		root:         root,
		watcher:      w,
		debounceTime: 500 * time.Millisecond,
		pending:      make(map[string]time.Time),
		onError: func(err error) {
			fmt.Fprintf(os.Stderr, "⚠️  Ошибка watcher: %v\n", err)
		},
	}, nil
}

// SetDebounceTime устанавливает время debounce.
func (w *Watcher) SetDebounceTime(d time.Duration) {
	w.debounceTime = d
}

// OnError устанавливает обработчик ошибок fsnotify.
func (w *Watcher) OnError(fn func(err error)) {
	w.onError = fn
}

// Watch запускает слежение и возвращает канал с файлами. Канал закрывается
// после отмены ctx.
func (w *Watcher) Watch(ctx context.Context) (<-chan scanner.File, error) {
	if err := w.addRecursive(w.root, false); err != nil {
		return nil, err
	}

	files := make(chan scanner.File, 100)
	go w.loop(ctx, files)

	return files, nil
}

// addRecursive добавляет директорию и поддиректории в watcher, кроме @eaDir.
// Если queue, уже лежащие в дереве изображения ставятся в очередь.
func (w *Watcher) addRecursive(dir string, queue bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}

		if d.IsDir() {
			if d.Name() == thumbnail.MetaDir {
				return filepath.SkipDir
			}
			if err := w.watcher.Add(path); err != nil {
				return fmt.Errorf("не удалось добавить директорию %s: %w", path, err)
			}
			return nil
		}

		if queue {
			if _, ok := scanner.Classify(d.Name()); ok {
				w.pending[path] = time.Now()
			}
		}
		return nil
	})
}

// loop обрабатывает события fsnotify и выдаёт файлы после debounce.
// Единственный владелец канала files и карты pending.
func (w *Watcher) loop(ctx context.Context, files chan<- scanner.File) {
	defer close(files)
	defer func() { _ = w.watcher.Close() }()

	ticker := time.NewTicker(w.tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}

		case <-ticker.C:
			if !w.flushPending(ctx, files) {
				return
			}
		}
	}
}

// tick - период проверки pending.
func (w *Watcher) tick() time.Duration {
	d := w.debounceTime / 5
	if d < 10*time.Millisecond {
		d = 10 * time.Millisecond
	}
	return d
}

// handleEvent обновляет pending по событию.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Обрабатываем только создание и запись файлов
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}

	if info.IsDir() {
		// Новая директория: следим за ней и берём уже скопированные файлы
		if event.Has(fsnotify.Create) && filepath.Base(event.Name) != thumbnail.MetaDir {
			if err := w.addRecursive(event.Name, true); err != nil && w.onError != nil {
				w.onError(err)
			}
		}
		return
	}

	if _, ok := scanner.Classify(filepath.Base(event.Name)); !ok {
		return
	}

	// Каждая запись откладывает обработку
	w.pending[event.Name] = time.Now()
}

// flushPending отправляет файлы, для которых истёк debounce.
// Возвращает false, если ctx отменён во время отправки.
func (w *Watcher) flushPending(ctx context.Context, files chan<- scanner.File) bool {
	now := time.Now()
	for path, addedAt := range w.pending {
		if now.Sub(addedAt) < w.debounceTime {
			continue
		}

		// Файл готов к обработке
		delete(w.pending, path)

		file, ok := w.fileFor(path)
		if !ok {
			continue
		}

		select {
		case files <- file:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// fileFor строит scanner.File для пути.
func (w *Watcher) fileFor(path string) (scanner.File, bool) {
	kind, ok := scanner.Classify(filepath.Base(path))
	if !ok {
		return scanner.File{}, false
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return scanner.File{}, false
	}

	relPath, err := filepath.Rel(w.root, path)
	if err != nil {
		relPath = filepath.Base(path)
	}

	return scanner.File{
		Path:    path,
		RelPath: relPath,
		Kind:    kind,
		Size:    info.Size(),
		Mtime:   info.ModTime().Unix(),
	}, true
}

// Close закрывает watcher. Нужен, если Watch не был запущен или вернул ошибку.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

/*
Возможные расширения:
- Добавить обработку удаления файлов (удаление миниатюр из @eaDir)
- Добавить обработку переименования файлов
*/
