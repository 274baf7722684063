// Package progress считает обработанные файлы и владеет выводом в консоль.
//
// Tracker - единственный общий счётчик для всех воркеров. Каждые Every
// завершённых файлов он печатает строку со средней скоростью, вычисленной
// по процессорному времени процесса. Все сообщения идут через Tracker,
// чтобы строки воркеров и прогресс-бар не перемешивались.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
)

// DefaultEvery - период строки прогресса по умолчанию.
const DefaultEvery = 10

// Tracker - потокобезопасный счётчик обработанных файлов.
type Tracker struct {
	// count - количество завершённых попыток обработки.
	count atomic.Int64

	// every - период строки прогресса.
	every int64

	// cpuTime возвращает процессорное время процесса.
	cpuTime func() time.Duration

	// start - процессорное время на момент создания.
	start time.Duration

	// mu сериализует вывод и доступ к bar.
	mu sync.Mutex

	// bar - прогресс-бар (nil, если отключён).
	bar *progressbar.ProgressBar

	out    io.Writer
	errOut io.Writer
}

// Options содержит настройки Tracker.
type Options struct {
	// Every - период строки прогресса (по умолчанию DefaultEvery).
	Every int64

	// Bar включает прогресс-бар.
	Bar bool

	// Total - ожидаемое количество файлов для бара. 0 или меньше - спиннер.
	Total int64

	// Out - куда выводить сообщения (по умолчанию os.Stdout).
	Out io.Writer

	// Err - куда выводить ошибки и бар (по умолчанию os.Stderr).
	Err io.Writer

	// CPUTime подменяет источник процессорного времени (для тестов).
	CPUTime func() time.Duration
}

// New создаёт Tracker и фиксирует текущее процессорное время как точку отсчёта.
func New(opts Options) *Tracker {
	t := &Tracker{
		every:   opts.Every,
		cpuTime: opts.CPUTime,
		out:     opts.Out,
		errOut:  opts.Err,
	}

	if t.every <= 0 {
		t.every = DefaultEvery
	}
	if t.cpuTime == nil {
		t.cpuTime = processCPUTime
	}
	if t.out == nil {
		t.out = os.Stdout
	}
	if t.errOut == nil {
		t.errOut = os.Stderr
	}

	t.start = t.cpuTime()

	if opts.Bar {
		t.bar = newBar(opts.Total, t.errOut)
	}

	return t
}

func newBar(total int64, writer io.Writer) *progressbar.ProgressBar {
	if total <= 0 {
		total = -1
	}

	return progressbar.NewOptions64(
		total,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("файл"),
		progressbar.OptionSetDescription("Миниатюры"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]▓[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(writer)
		}),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
}

// Increment увеличивает счётчик ровно на 1 и возвращает новое значение.
// Если новое значение кратно периоду, печатается строка прогресса.
func (t *Tracker) Increment() int64 {
	n := t.count.Add(1)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bar != nil {
		_ = t.bar.Add(1)
	}

	if n%t.every == 0 {
		t.writeLocked(t.out, "Обработано файлов: %d, в среднем %.2f файлов в секунду.\n", n, t.rate(n))
	}

	return n
}

// Value возвращает текущее значение счётчика.
func (t *Tracker) Value() int64 {
	return t.count.Load()
}

// Rate возвращает среднее количество файлов в секунду процессорного времени.
func (t *Tracker) Rate() float64 {
	return t.rate(t.count.Load())
}

func (t *Tracker) rate(n int64) float64 {
	elapsed := (t.cpuTime() - t.start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(n) / elapsed
}

// SetTotal устанавливает ожидаемое количество файлов для бара.
// Вызывается, когда предварительный подсчёт завершён.
func (t *Tracker) SetTotal(total int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bar != nil && total > 0 {
		t.bar.ChangeMax64(total)
	}
}

// Printf выводит сообщение в Out, временно скрывая бар.
func (t *Tracker) Printf(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeLocked(t.out, format, args...)
}

// Errorf выводит сообщение в Err, временно скрывая бар.
func (t *Tracker) Errorf(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeLocked(t.errOut, format, args...)
}

func (t *Tracker) writeLocked(w io.Writer, format string, args ...interface{}) {
	if t.bar != nil {
		_ = t.bar.Clear()
	}

	fmt.Fprintf(w, format, args...)

	if t.bar != nil {
		_ = t.bar.RenderBlank()
	}
}

// Finish завершает бар.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bar != nil {
		_ = t.bar.Finish()
	}
}

/*
Возможные расширения:
- Добавить вывод скорости по настенному времени рядом с процессорным
*/
