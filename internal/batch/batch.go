// Package batch связывает сканирование, пул воркеров и журнал в один запуск.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/artemshloyda/synothumb/internal/config"
	"github.com/artemshloyda/synothumb/internal/decoder"
	"github.com/artemshloyda/synothumb/internal/progress"
	"github.com/artemshloyda/synothumb/internal/scanner"
	"github.com/artemshloyda/synothumb/internal/storage"
	"github.com/artemshloyda/synothumb/internal/thumbnail"
	"github.com/artemshloyda/synothumb/internal/watcher"
	"github.com/artemshloyda/synothumb/internal/worker"
)

// Summary - итог запуска.
type Summary struct {
	// Total - количество файлов, переданных в пул (значение счётчика).
	Total int64

	// Stats - статистика пула.
	Stats worker.Stats

	// Duration - длительность запуска.
	Duration time.Duration

	// RunID - идентификатор запуска в журнале (0, если журнал отключён).
	RunID int64

	// Interrupted - запуск остановлен сигналом.
	Interrupted bool
}

// Options содержит дополнительные настройки Runner.
type Options struct {
	// Out - куда выводить сообщения (по умолчанию os.Stdout).
	Out io.Writer

	// Err - куда выводить ошибки (по умолчанию os.Stderr).
	Err io.Writer

	// WatchDebounce - debounce для режима слежения (0 - по умолчанию watcher).
	WatchDebounce time.Duration

	// OnWatchReady вызывается, когда слежение запущено (для тестов).
	OnWatchReady func()
}

// Runner выполняет один запуск генерации миниатюр.
type Runner struct {
	cfg  *config.Config
	raw  decoder.RawDecoder
	opts Options
}

// New создаёт Runner. raw может быть nil, тогда RAW файлы завершаются ошибкой.
func New(cfg *config.Config, raw decoder.RawDecoder, opts Options) *Runner {
	return &Runner{cfg: cfg, raw: raw, opts: opts}
}

// Run проверяет корень, открывает журнал, обрабатывает все найденные файлы
// и печатает итог. Ошибки отдельных файлов не возвращаются: ошибка Run
// означает, что запуск как целое не состоялся.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	var sum Summary

	if err := r.cfg.Validate(); err != nil {
		return sum, fmt.Errorf("ошибка конфигурации: %w", err)
	}
	if err := r.cfg.CheckRootDir(); err != nil {
		return sum, err
	}

	tracker := progress.New(progress.Options{
		Out: r.opts.Out,
		Err: r.opts.Err,
		Bar: r.cfg.ProgressBar,
	})

	sc := scanner.New(r.cfg.RootDir)
	sc.OnSkip(func(path string, err error) {
		tracker.Errorf("⚠️  Пропущено %s: %v\n", path, err)
	})

	if r.cfg.ProgressBar {
		if count, err := sc.Count(); err == nil {
			tracker.SetTotal(count)
		}
	}

	pool := worker.New(r.cfg, decoder.New(r.raw), thumbnail.New(r.cfg.Quality), tracker)

	journal, err := r.openJournal(tracker)
	if err != nil {
		return sum, err
	}
	if journal != nil {
		defer func() { _ = journal.store.Close() }()
		pool.SetJournal(journal.store.Journal(journal.runID))
		sum.RunID = journal.runID
	}

	if r.cfg.Verbose {
		tracker.Printf("🚀 Запуск генерации миниатюр:\n")
		tracker.Printf("   Директория: %s\n", r.cfg.RootDir)
		tracker.Printf("   Воркеров: %d\n", r.cfg.Workers)
		tracker.Printf("   Качество JPEG: %d\n", r.cfg.Quality)
		if r.raw == nil {
			tracker.Printf("   ⚠️  dcraw не найден, RAW файлы будут пропущены с ошибкой\n")
		}
	}

	files, errs := sc.Scan(ctx)
	pool.Run(ctx, files)
	scanErr := <-errs

	if scanErr != nil && !errors.Is(scanErr, context.Canceled) {
		tracker.Finish()
		journal.finish(tracker, storage.StatusFailed, pool.Stats())
		return sum, fmt.Errorf("ошибка сканирования: %w", scanErr)
	}

	if r.cfg.Watch && ctx.Err() == nil {
		if err := r.watch(ctx, pool, tracker); err != nil {
			tracker.Errorf("⚠️  Режим слежения недоступен: %v\n", err)
		}
	}

	tracker.Finish()

	sum.Stats = pool.Stats()
	sum.Total = tracker.Value()
	sum.Duration = time.Since(start)
	sum.Interrupted = ctx.Err() != nil

	r.printSummary(tracker, sum)

	status := storage.StatusOK
	if sum.Interrupted {
		status = storage.StatusInterrupted
	}
	journal.finish(tracker, status, sum.Stats)

	return sum, nil
}

// watch передаёт новые файлы из watcher в тот же пул до отмены ctx.
func (r *Runner) watch(ctx context.Context, pool *worker.Pool, tracker *progress.Tracker) error {
	w, err := watcher.New(r.cfg.RootDir)
	if err != nil {
		return err
	}
	if r.opts.WatchDebounce > 0 {
		w.SetDebounceTime(r.opts.WatchDebounce)
	}
	w.OnError(func(err error) {
		tracker.Errorf("⚠️  Ошибка watcher: %v\n", err)
	})

	files, err := w.Watch(ctx)
	if err != nil {
		_ = w.Close()
		return err
	}

	tracker.Printf("👀 Слежение за %s (Ctrl+C для завершения)\n", r.cfg.RootDir)
	if r.opts.OnWatchReady != nil {
		r.opts.OnWatchReady()
	}

	pool.Run(ctx, files)
	return nil
}

// printSummary выводит результаты и итоговую строку.
func (r *Runner) printSummary(tracker *progress.Tracker, sum Summary) {
	if r.cfg.Verbose {
		tracker.Printf("\n📊 Результаты:\n")
		tracker.Printf("   Успешно: %d\n", sum.Stats.Succeeded)
		tracker.Printf("   Пропущено (миниатюры уже есть): %d\n", sum.Stats.Skipped)
		tracker.Printf("   Ошибок: %d\n", sum.Stats.Failed)
		tracker.Printf("   Записано миниатюр: %d\n", sum.Stats.Variants)
		tracker.Printf("   Время: %s\n", sum.Duration.Round(time.Millisecond))
	}
	if sum.Interrupted {
		tracker.Printf("⚠️  Запуск прерван\n")
	}
	tracker.Printf("Всего обработано файлов: %d.\n", sum.Total)
}

// runJournal - открытый журнал и текущий запуск.
type runJournal struct {
	store *storage.Storage
	runID int64
}

// openJournal открывает журнал, если задан DBPath. Ошибка открытия
// останавливает запуск.
func (r *Runner) openJournal(tracker *progress.Tracker) (*runJournal, error) {
	if r.cfg.DBPath == "" {
		return nil, nil
	}

	store, err := storage.New(r.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть журнал: %w", err)
	}

	// Очищаем прерванные запуски
	cleaned, err := store.CleanupInProgress()
	if err != nil {
		tracker.Errorf("⚠️  Не удалось очистить in_progress: %v\n", err)
	} else if cleaned > 0 && r.cfg.Verbose {
		tracker.Printf("🧹 Помечено прерванными запусков: %d\n", cleaned)
	}

	runID, err := store.StartRun(r.cfg.RootDir, r.cfg.Workers)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("не удалось начать запуск в журнале: %w", err)
	}

	return &runJournal{store: store, runID: runID}, nil
}

// finish сохраняет итоги запуска. Безопасен для nil.
func (j *runJournal) finish(tracker *progress.Tracker, status storage.Status, st worker.Stats) {
	if j == nil {
		return
	}

	totals := storage.RunTotals{
		Dispatched: st.Dispatched,
		Succeeded:  st.Succeeded,
		Failed:     st.Failed,
		Skipped:    st.Skipped,
		Variants:   st.Variants,
	}
	if err := j.store.FinishRun(j.runID, status, totals); err != nil {
		tracker.Errorf("⚠️  Не удалось сохранить итоги запуска: %v\n", err)
	}
}

/*
Возможные расширения:
- Добавить повторную обработку файлов, упавших в прошлом запуске (из журнала)
*/
