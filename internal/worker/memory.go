package worker

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/artemshloyda/synothumb/internal/scanner"
)

// Коэффициенты оценки памяти декодированного изображения по размеру файла.
// Сжатый JPEG/PNG разворачивается примерно в 10 раз, вывод dcraw
// (16-битный TIFF после демозаики) примерно в 6 раз больше RAW файла.
const (
	standardFactor = 10
	rawFactor      = 6
)

// MemoryLimiter ограничивает суммарную оценку памяти одновременно
// декодируемых изображений.
type MemoryLimiter struct {
	// maxMemoryBytes - максимальное использование памяти в байтах.
	maxMemoryBytes uint64

	// mu защищает доступ к текущему использованию.
	mu sync.Mutex

	// currentUsage - текущее зарезервированное использование памяти.
	currentUsage uint64

	// enabled - включено ли ограничение.
	enabled bool

	// pollInterval - пауза между попытками резервирования.
	pollInterval time.Duration
}

// NewMemoryLimiter создаёт новый MemoryLimiter.
// maxMemoryMB - ограничение в мегабайтах (0 = без ограничения).
func NewMemoryLimiter(maxMemoryMB int) *MemoryLimiter {
	if maxMemoryMB <= 0 {
		return &MemoryLimiter{enabled: false}
	}

	return &MemoryLimiter{
		maxMemoryBytes: uint64(maxMemoryMB) * 1024 * 1024,
		enabled:        true,
		pollInterval:   100 * time.Millisecond,
	}
}

// Estimate оценивает память, нужную для декодирования файла.
func Estimate(file scanner.File) uint64 {
	if file.Size <= 0 {
		return 0
	}
	factor := uint64(standardFactor)
	if file.Kind == scanner.KindRaw {
		factor = rawFactor
	}
	return uint64(file.Size) * factor
}

// Acquire резервирует память для декодирования файла и блокируется, пока
// резерв не поместится в лимит. Файл, который больше лимита сам по себе,
// допускается, когда других резервов нет. Возвращает функцию освобождения.
func (ml *MemoryLimiter) Acquire(ctx context.Context, file scanner.File) (release func(), err error) {
	if !ml.enabled {
		return func() {}, nil
	}

	estimated := Estimate(file)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if ml.tryReserve(estimated) {
			var once sync.Once
			return func() {
				once.Do(func() {
					ml.mu.Lock()
					ml.currentUsage -= estimated
					ml.mu.Unlock()
				})
			}, nil
		}

		// Ждём и пробуем снова
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(ml.pollInterval):
			runtime.GC()
		}
	}
}

func (ml *MemoryLimiter) tryReserve(estimated uint64) bool {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if ml.currentUsage == 0 || ml.currentUsage+estimated <= ml.maxMemoryBytes {
		ml.currentUsage += estimated
		return true
	}
	return false
}

// IsEnabled возвращает true если ограничение включено.
func (ml *MemoryLimiter) IsEnabled() bool {
	return ml.enabled
}

// CurrentUsage возвращает текущее зарезервированное использование памяти.
func (ml *MemoryLimiter) CurrentUsage() uint64 {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.currentUsage
}

// MaxMemory возвращает максимальное ограничение памяти.
func (ml *MemoryLimiter) MaxMemory() uint64 {
	return ml.maxMemoryBytes
}
