// Package cli содержит CLI интерфейс приложения.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/synothumb/internal/batch"
	"github.com/artemshloyda/synothumb/internal/config"
	"github.com/artemshloyda/synothumb/internal/dcrawfinder"
	"github.com/artemshloyda/synothumb/internal/decoder"
)

var (
	// Version будет установлена при сборке.
	Version = "dev"

	// BuildTime будет установлена при сборке.
	BuildTime = "unknown"
)

// rootFlags - значения флагов корневой команды.
type rootFlags struct {
	configPath  string
	directory   string
	workers     int
	dbPath      string
	dcrawPath   string
	maxMemoryMB int
	verbose     bool
	progressBar bool
	watch       bool
}

// NewRootCmd создаёт корневую команду CLI.
func NewRootCmd() *cobra.Command {
	f := &rootFlags{}
	defaults := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "synothumb",
		Short: "Генерация миниатюр Synology Photo Station",
		Long: `synothumb - генерирует миниатюры Synology Photo Station для дерева фотографий.

Для каждого изображения (JPEG, PNG, GIF, BMP и RAW форматы камер) создаётся
набор из пяти миниатюр в <директория>/@eaDir/<имя файла>/. Уже существующие
миниатюры не пересоздаются, поэтому повторный запуск быстрый.

Примеры:
  # Обработать библиотеку в 4 потока
  synothumb --directory /volume1/photo

  # 8 воркеров, журнал запусков и прогресс-бар
  synothumb --directory /volume1/photo --workers 8 --db ~/.cache/synothumb.db --progress-bar

  # После обработки следить за новыми файлами
  synothumb --directory /volume1/photo --watch`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, f)
		},
	}

	flags := rootCmd.Flags()

	flags.StringVarP(&f.directory, "directory", "d", "", "Корневая директория с фотографиями (обязательно)")
	flags.StringVar(&f.configPath, "config", "", "Путь к файлу конфигурации YAML")

	// Производительность
	flags.IntVarP(&f.workers, "workers", "w", defaults.Workers, "Количество параллельных воркеров")
	flags.IntVar(&f.maxMemoryMB, "max-memory-mb", defaults.MaxMemoryMB, "Ограничение памяти на декодирование, МБ (0 = без ограничения)")

	// Пути
	flags.StringVar(&f.dbPath, "db", "", "Путь к SQLite журналу запусков (пусто = без журнала)")
	flags.StringVar(&f.dcrawPath, "dcraw-path", "", "Путь к бинарнику dcraw")

	// Вывод и режимы
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "Подробный вывод")
	flags.BoolVar(&f.progressBar, "progress-bar", false, "Показывать прогресс-бар")
	flags.BoolVar(&f.watch, "watch", false, "После обработки следить за новыми файлами")

	// Подкоманды
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// buildConfig собирает конфигурацию: значения по умолчанию, затем файл,
// затем явно заданные флаги.
func buildConfig(cmd *cobra.Command, f *rootFlags) (*config.Config, string, error) {
	cfg := config.DefaultConfig()

	fileCfg, cfgPath, err := config.FindAndLoadConfig(f.configPath)
	if err != nil {
		return nil, "", err
	}
	fileCfg.ApplyToConfig(cfg)

	flags := cmd.Flags()
	if flags.Changed("directory") {
		cfg.RootDir = f.directory
	}
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}
	if flags.Changed("max-memory-mb") {
		cfg.MaxMemoryMB = f.maxMemoryMB
	}
	if flags.Changed("db") {
		cfg.DBPath = f.dbPath
	}
	if flags.Changed("dcraw-path") {
		cfg.DcrawPath = f.dcrawPath
	}
	if flags.Changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if flags.Changed("progress-bar") {
		cfg.ProgressBar = f.progressBar
	}
	if flags.Changed("watch") {
		cfg.Watch = f.watch
	}

	return cfg, cfgPath, nil
}

// runGenerate выполняет основную логику генерации миниатюр.
func runGenerate(cmd *cobra.Command, f *rootFlags) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cfg, cfgPath, err := buildConfig(cmd, f)
	if err != nil {
		return err
	}
	if cfgPath != "" && cfg.Verbose {
		fmt.Fprintf(out, "📄 Конфигурация: %s\n", cfgPath)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("ошибка конфигурации: %w", err)
	}

	// Создаём контекст с обработкой сигналов
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(errOut, "\n⚠️  Получен сигнал завершения, дожидаемся текущих файлов...")
			cancel()
			// Повторный сигнал завершает процесс сразу
			signal.Stop(sigChan)
		case <-ctx.Done():
		}
	}()

	// Ищем dcraw. Без него обычные форматы обрабатываются, RAW - с ошибкой.
	var raw decoder.RawDecoder
	info, err := dcrawfinder.NewFinder(cfg.DcrawPath).Find()
	if err != nil {
		fmt.Fprintf(errOut, "⚠️  dcraw не найден, RAW файлы не будут обработаны\n")
		if cfg.Verbose {
			fmt.Fprintf(errOut, "%v\n", err)
		}
	} else {
		raw = decoder.NewDcraw(info.Path)
		if cfg.Verbose {
			fmt.Fprintf(out, "📦 Найден dcraw: %s (версия %s)\n", info.Path, info.Version)
		}
	}

	runner := batch.New(cfg, raw, batch.Options{Out: out, Err: errOut})
	_, err = runner.Run(ctx)
	return err
}

// newVersionCmd создаёт команду version.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Показать версию",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "synothumb %s (built %s)\n", Version, BuildTime)
		},
	}
}

// Execute запускает CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		// Не выводим ошибку, cobra уже вывела
		os.Exit(1)
	}
}

/*
Возможные расширения:
- Добавить команду retry для повторной обработки файлов с ошибками из журнала
- Добавить команду clean для удаления миниатюр удалённых файлов
*/
