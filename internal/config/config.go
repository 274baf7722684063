// Package config содержит конфигурацию приложения.
package config

import (
	"fmt"
	"os"
)

const (
	// DefaultWorkers - размер пула воркеров по умолчанию.
	DefaultWorkers = 4

	// DefaultQuality - качество JPEG для превью.
	DefaultQuality = 90

	// DcrawEnvVar - переменная окружения с путём к dcraw.
	DcrawEnvVar = "SYNOTHUMB_DCRAW"
)

// Config содержит все настройки генерации превью.
type Config struct {
	// RootDir - корневая директория с фотографиями.
	// Поддиректории обрабатываются всегда.
	RootDir string

	// Workers - количество параллельных воркеров.
	Workers int

	// Quality - качество JPEG для превью (1-100).
	Quality int

	// DcrawPath - путь к бинарнику dcraw (опционально, иначе автопоиск).
	DcrawPath string

	// DBPath - путь к SQLite журналу запусков (пусто = журнал отключён).
	DBPath string

	// MaxMemoryMB - ограничение памяти на декодирование в мегабайтах (0 = без ограничения).
	MaxMemoryMB int

	// Verbose - подробный вывод по каждому файлу.
	Verbose bool

	// ProgressBar - показывать прогресс-бар.
	ProgressBar bool

	// Watch - после первого прохода следить за директорией.
	Watch bool
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() *Config {
	return &Config{
		Workers: DefaultWorkers,
		Quality: DefaultQuality,
	}
}

// Validate проверяет корректность конфигурации.
func (c *Config) Validate() error {
	if c.RootDir == "" {
		return fmt.Errorf("директория не указана (--directory)")
	}
	if c.Workers < 1 {
		return fmt.Errorf("количество воркеров должно быть >= 1, получено: %d", c.Workers)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("качество должно быть от 1 до 100, получено: %d", c.Quality)
	}
	if c.MaxMemoryMB < 0 {
		return fmt.Errorf("ограничение памяти не может быть отрицательным: %d", c.MaxMemoryMB)
	}
	return nil
}

// CheckRootDir проверяет, что корневая директория существует и это директория.
func (c *Config) CheckRootDir() error {
	info, err := os.Stat(c.RootDir)
	if err != nil {
		return fmt.Errorf("директория недоступна %s: %w", c.RootDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s не является директорией", c.RootDir)
	}
	return nil
}

/*
Возможные расширения:
- Добавить настраиваемый список расширений
- Добавить исключения по glob-паттернам
*/
