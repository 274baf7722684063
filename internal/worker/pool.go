// Package worker содержит пул воркеров для параллельной генерации миниатюр.
package worker

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/artemshloyda/synothumb/internal/config"
	"github.com/artemshloyda/synothumb/internal/orientation"
	"github.com/artemshloyda/synothumb/internal/progress"
	"github.com/artemshloyda/synothumb/internal/scanner"
	"github.com/artemshloyda/synothumb/internal/storage"
	"github.com/artemshloyda/synothumb/internal/thumbnail"
)

// ImageDecoder декодирует исходный файл (реализуется decoder.Decoder).
type ImageDecoder interface {
	Decode(ctx context.Context, file scanner.File) (image.Image, orientation.Tag, error)
}

// Journal сохраняет результат обработки файла (реализуется storage.RunJournal).
type Journal interface {
	RecordFile(rec storage.FileRecord) error
}

// Result - результат обработки одного файла.
type Result struct {
	// File - обработанный файл.
	File scanner.File

	// Written - количество записанных миниатюр.
	Written int

	// Skipped - все миниатюры уже существовали, файл не декодировался.
	Skipped bool

	// Err - ошибка обработки (nil при успехе).
	Err error

	// Duration - время обработки.
	Duration time.Duration
}

// OK возвращает true, если файл обработан без ошибок.
func (r Result) OK() bool {
	return r.Err == nil
}

// Stats содержит статистику обработки.
type Stats struct {
	// Dispatched - количество файлов, переданных в пул.
	Dispatched int64

	// Succeeded - обработано без ошибок (включая пропущенные).
	Succeeded int64

	// Failed - количество файлов с ошибками.
	Failed int64

	// Skipped - файлы, у которых все миниатюры уже были.
	Skipped int64

	// Variants - общее количество записанных миниатюр.
	Variants int64
}

// Pool управляет пулом воркеров.
type Pool struct {
	workers   int
	verbose   bool
	decoder   ImageDecoder
	generator *thumbnail.Generator
	tracker   *progress.Tracker
	limiter   *MemoryLimiter
	journal   Journal
	onError   func(Result)
	stats     Stats
}

// New создаёт новый пул воркеров.
func New(cfg *config.Config, dec ImageDecoder, gen *thumbnail.Generator, tracker *progress.Tracker) *Pool {
	workers := cfg.Workers
	if workers < 1 {
		workers = config.DefaultWorkers
	}

	p := &Pool{
		workers:   workers,
		verbose:   cfg.Verbose,
		decoder:   dec,
		generator: gen,
		tracker:   tracker,
		limiter:   NewMemoryLimiter(cfg.MaxMemoryMB),
	}
	p.onError = p.logError
	return p
}

// SetJournal устанавливает журнал запуска. nil отключает запись.
func (p *Pool) SetJournal(j Journal) {
	p.journal = j
}

// SetErrorHandler заменяет обработчик ошибок файлов (по умолчанию - строка в stderr).
func (p *Pool) SetErrorHandler(fn func(Result)) {
	if fn == nil {
		fn = p.logError
	}
	p.onError = fn
}

// Run обрабатывает файлы из канала, пока он не закрыт или ctx не отменён,
// и возвращает статистику этого вызова. Отмена ctx прекращает выдачу новых
// файлов, начатые файлы обрабатываются до конца.
func (p *Pool) Run(ctx context.Context, files <-chan scanner.File) Stats {
	before := p.Stats()

	// Начатый файл не прерывается отменой
	fileCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, fileCtx, files)
		}()
	}
	wg.Wait()

	after := p.Stats()
	return Stats{
		Dispatched: after.Dispatched - before.Dispatched,
		Succeeded:  after.Succeeded - before.Succeeded,
		Failed:     after.Failed - before.Failed,
		Skipped:    after.Skipped - before.Skipped,
		Variants:   after.Variants - before.Variants,
	}
}

// worker берёт по одному файлу и обрабатывает его до конца.
func (p *Pool) worker(ctx, fileCtx context.Context, files <-chan scanner.File) {
	for {
		if ctx.Err() != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case file, ok := <-files:
			if !ok {
				return
			}
			p.dispatch(fileCtx, file)
		}
	}
}

// dispatch обрабатывает файл, учитывает результат и увеличивает счётчик.
// Ошибка файла не выходит за его пределы.
func (p *Pool) dispatch(ctx context.Context, file scanner.File) {
	atomic.AddInt64(&p.stats.Dispatched, 1)

	res := p.Process(ctx, file)

	switch {
	case !res.OK():
		atomic.AddInt64(&p.stats.Failed, 1)
		p.onError(res)
	case res.Skipped:
		atomic.AddInt64(&p.stats.Succeeded, 1)
		atomic.AddInt64(&p.stats.Skipped, 1)
		if p.verbose {
			p.tracker.Printf("⏭️  Пропущен: %s (миниатюры уже есть)\n", file.RelPath)
		}
	default:
		atomic.AddInt64(&p.stats.Succeeded, 1)
		if p.verbose {
			p.tracker.Printf("✅ %s: миниатюр %d (%.2fs)\n", file.RelPath, res.Written, res.Duration.Seconds())
		}
	}
	atomic.AddInt64(&p.stats.Variants, int64(res.Written))

	p.record(res)
	p.tracker.Increment()
}

// Process выполняет полный цикл обработки одного файла: директория
// миниатюр, декодирование, ориентация, генерация. Паника внутри цикла
// превращается в ошибку результата.
func (p *Pool) Process(ctx context.Context, file scanner.File) (res Result) {
	start := time.Now()
	res.File = file

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("паника при обработке: %v", r)
		}
		res.Duration = time.Since(start)
	}()

	p.tracker.Printf("%s\n", file.Path)

	destDir := thumbnail.Dir(file.Path)
	if err := thumbnail.EnsureDir(destDir); err != nil {
		res.Err = err
		return res
	}

	if thumbnail.AllExist(destDir) {
		res.Skipped = true
		return res
	}

	release, err := p.limiter.Acquire(ctx, file)
	if err != nil {
		res.Err = fmt.Errorf("memory limiter: %w", err)
		return res
	}
	defer release()

	img, tag, err := p.decoder.Decode(ctx, file)
	if err != nil {
		res.Err = err
		return res
	}

	if file.Kind == scanner.KindStandard {
		img = orientation.Normalize(img, tag)
	}

	res.Written, res.Err = p.generator.Generate(img, destDir)
	return res
}

// record сохраняет результат в журнал. Ошибка журнала не влияет на файл.
func (p *Pool) record(res Result) {
	if p.journal == nil {
		return
	}

	rec := storage.FileRecord{
		Path:       res.File.Path,
		Kind:       res.File.Kind.String(),
		Size:       res.File.Size,
		Written:    res.Written,
		Skipped:    res.Skipped,
		DurationMs: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		rec.Status = storage.StatusFailed
		rec.Error = res.Err.Error()
	} else {
		rec.Status = storage.StatusOK
	}

	if err := p.journal.RecordFile(rec); err != nil {
		p.tracker.Errorf("⚠️  Не удалось записать в журнал %s: %v\n", res.File.Path, err)
	}
}

// logError выводит ошибку файла с его путём.
func (p *Pool) logError(res Result) {
	p.tracker.Errorf("❌ %s: %v\n", res.File.Path, res.Err)
}

// Stats возвращает накопленную статистику пула.
func (p *Pool) Stats() Stats {
	return Stats{
		Dispatched: atomic.LoadInt64(&p.stats.Dispatched),
		Succeeded:  atomic.LoadInt64(&p.stats.Succeeded),
		Failed:     atomic.LoadInt64(&p.stats.Failed),
		Skipped:    atomic.LoadInt64(&p.stats.Skipped),
		Variants:   atomic.LoadInt64(&p.stats.Variants),
	}
}

/*
Возможные расширения:
- Добавить retry логику для failed файлов из журнала
- Добавить приоритет для файлов без миниатюр
*/
