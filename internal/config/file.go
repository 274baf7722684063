// Package config содержит конфигурацию приложения.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig представляет структуру конфигурационного файла YAML.
// Все поля опциональны - если не указаны, используются значения по умолчанию.
type FileConfig struct {
	// Input - настройки входных данных.
	Input *InputConfig `yaml:"input,omitempty"`

	// Output - настройки превью.
	Output *OutputConfig `yaml:"output,omitempty"`

	// Processing - настройки обработки.
	Processing *ProcessingConfig `yaml:"processing,omitempty"`

	// Paths - настройки путей.
	Paths *PathsConfig `yaml:"paths,omitempty"`
}

// InputConfig содержит настройки входных данных.
type InputConfig struct {
	// Directory - корневая директория с фотографиями.
	Directory string `yaml:"directory,omitempty"`
}

// OutputConfig содержит настройки превью.
type OutputConfig struct {
	// Quality - качество JPEG (1-100).
	Quality int `yaml:"quality,omitempty"`
}

// ProcessingConfig содержит настройки обработки.
type ProcessingConfig struct {
	// Workers - количество параллельных воркеров.
	Workers int `yaml:"workers,omitempty"`

	// MaxMemoryMB - ограничение памяти в мегабайтах.
	MaxMemoryMB int `yaml:"max_memory_mb,omitempty"`

	// Verbose - подробный вывод.
	Verbose bool `yaml:"verbose,omitempty"`

	// ProgressBar - показывать прогресс-бар.
	ProgressBar bool `yaml:"progress_bar,omitempty"`

	// Watch - режим слежения.
	Watch bool `yaml:"watch,omitempty"`
}

// PathsConfig содержит настройки путей.
type PathsConfig struct {
	// DB - путь к SQLite журналу.
	DB string `yaml:"db,omitempty"`

	// Dcraw - путь к бинарнику dcraw.
	Dcraw string `yaml:"dcraw,omitempty"`
}

// DefaultConfigPaths возвращает список путей для поиска конфигурационного файла.
// Поиск выполняется в следующем порядке:
// 1. ./synothumb.yaml (текущая директория)
// 2. ./synothumb.yml
// 3. ~/.config/synothumb/config.yaml
// 4. ~/.config/synothumb/config.yml
func DefaultConfigPaths() []string {
	paths := []string{
		"synothumb.yaml",
		"synothumb.yml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "synothumb", "config.yaml"),
			filepath.Join(home, ".config", "synothumb", "config.yml"),
		)
	}

	return paths
}

// LoadFromFile загружает конфигурацию из указанного файла.
// Возвращает nil, nil если файл не существует.
func LoadFromFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("ошибка парсинга YAML в %s: %w", path, err)
	}

	return &fc, nil
}

// FindAndLoadConfig ищет и загружает конфигурационный файл.
// Если configPath указан явно, использует только его.
// Возвращает nil, "", nil если файл не найден.
func FindAndLoadConfig(configPath string) (*FileConfig, string, error) {
	if configPath != "" {
		fc, err := LoadFromFile(configPath)
		if err != nil {
			return nil, "", err
		}
		if fc == nil {
			return nil, "", fmt.Errorf("файл конфигурации не найден: %s", configPath)
		}
		return fc, configPath, nil
	}

	for _, path := range DefaultConfigPaths() {
		fc, err := LoadFromFile(path)
		if err != nil {
			return nil, "", err
		}
		if fc != nil {
			return fc, path, nil
		}
	}

	return nil, "", nil
}

// ApplyToConfig применяет настройки из файла к основной конфигурации.
// CLI флаги имеют приоритет, поэтому вызывающий код применяет файл
// только к тем полям, флаги которых не были заданы явно.
func (fc *FileConfig) ApplyToConfig(cfg *Config) {
	if fc == nil {
		return
	}

	if fc.Input != nil && fc.Input.Directory != "" {
		cfg.RootDir = fc.Input.Directory
	}

	if fc.Output != nil && fc.Output.Quality > 0 {
		cfg.Quality = fc.Output.Quality
	}

	if fc.Processing != nil {
		if fc.Processing.Workers > 0 {
			cfg.Workers = fc.Processing.Workers
		}
		if fc.Processing.MaxMemoryMB > 0 {
			cfg.MaxMemoryMB = fc.Processing.MaxMemoryMB
		}
		if fc.Processing.Verbose {
			cfg.Verbose = true
		}
		if fc.Processing.ProgressBar {
			cfg.ProgressBar = true
		}
		if fc.Processing.Watch {
			cfg.Watch = true
		}
	}

	if fc.Paths != nil {
		if fc.Paths.DB != "" {
			cfg.DBPath = fc.Paths.DB
		}
		if fc.Paths.Dcraw != "" {
			cfg.DcrawPath = fc.Paths.Dcraw
		}
	}
}

// GenerateExampleConfig генерирует пример конфигурационного файла.
func GenerateExampleConfig() string {
	return `# synothumb configuration file
# Все параметры опциональны - если не указаны, используются значения по умолчанию.
# CLI флаги имеют приоритет над этим файлом.

input:
  # Корневая директория с фотографиями (поддиректории обрабатываются всегда)
  directory: "/volume1/photo"

output:
  # Качество JPEG для превью (1-100)
  quality: 90

processing:
  # Количество параллельных воркеров
  workers: 4
  # Ограничение памяти на декодирование, МБ (0 = без ограничения)
  max_memory_mb: 0
  # Подробный вывод
  verbose: false
  # Прогресс-бар вместо построчного вывода
  progress_bar: false
  # После первого прохода следить за новыми файлами
  watch: false

paths:
  # SQLite журнал запусков (пусто = отключён)
  db: ""
  # Путь к dcraw (по умолчанию автопоиск)
  dcraw: ""
`
}

/*
Возможные расширения:
- Добавить поддержку переменных окружения в конфиге
- Добавить валидацию неизвестных ключей
*/
