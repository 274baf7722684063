// Package dcrawfinder отвечает за поиск бинарника dcraw в системе.
package dcrawfinder

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"

	"github.com/artemshloyda/synothumb/internal/config"
)

// ErrNotFound - dcraw не найден ни в одном из мест поиска.
var ErrNotFound = errors.New("dcraw не найден")

// Info содержит информацию о найденном dcraw.
type Info struct {
	// Path - абсолютный путь к бинарнику dcraw.
	Path string

	// Version - версия dcraw (например, "9.28"), пустая, если не распознана.
	Version string
}

// Finder ищет бинарник dcraw.
type Finder struct {
	// CustomPath - пользовательский путь к dcraw (из флага --dcraw-path).
	CustomPath string

	// EnvVar - имя переменной окружения для пути к dcraw.
	EnvVar string
}

// NewFinder создаёт новый Finder.
func NewFinder(customPath string) *Finder {
	return &Finder{
		CustomPath: customPath,
		EnvVar:     config.DcrawEnvVar,
	}
}

// Find ищет dcraw в следующем порядке:
// 1. CustomPath (если задан)
// 2. Переменная окружения SYNOTHUMB_DCRAW
// 3. PATH
// 4. Рядом с исполняемым файлом в ./bin/<os-arch>/dcraw
func (f *Finder) Find() (*Info, error) {
	for _, path := range f.candidates() {
		if info, err := check(path); err == nil {
			return info, nil
		}
	}

	return nil, fmt.Errorf("%w. Проверьте:\n"+
		"  1. Установлен ли dcraw в системе (apt install dcraw / brew install dcraw)\n"+
		"  2. Установлена ли переменная окружения %s\n"+
		"  3. Указан ли путь через флаг --dcraw-path\n"+
		"  4. Находится ли dcraw рядом с утилитой в ./bin/<os-arch>/", ErrNotFound, f.EnvVar)
}

// candidates возвращает пути-кандидаты в порядке приоритета.
func (f *Finder) candidates() []string {
	var candidates []string

	if f.CustomPath != "" {
		candidates = append(candidates, f.CustomPath)
	}

	if envPath := os.Getenv(f.EnvVar); envPath != "" {
		candidates = append(candidates, envPath)
	}

	if pathDcraw, err := exec.LookPath(binaryName()); err == nil {
		candidates = append(candidates, pathDcraw)
	}

	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		platformDir := fmt.Sprintf("%s-%s", runtime.GOOS, runtime.GOARCH)

		candidates = append(candidates,
			filepath.Join(execDir, "bin", platformDir, binaryName()),
			filepath.Join(execDir, "bin", binaryName()),
			filepath.Join(execDir, binaryName()),
		)
	}

	return candidates
}

// check проверяет, что путь указывает на исполняемый файл.
// dcraw без аргументов печатает справку с версией и завершается с кодом 1,
// поэтому код возврата не проверяется.
func check(path string) (*Info, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("файл не найден: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s - директория", path)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0111 == 0 {
		return nil, fmt.Errorf("%s не является исполняемым", path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить абсолютный путь: %w", err)
	}

	output, err := exec.Command(absPath).CombinedOutput()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("не удалось запустить %s: %w", absPath, err)
	}

	return &Info{
		Path:    absPath,
		Version: parseVersion(string(output)),
	}, nil
}

var versionRe = regexp.MustCompile(`Raw Photo Decoder "dcraw" v(\d+(?:\.\d+)*)`)

// parseVersion извлекает версию из справки dcraw.
// Пример: `Raw Photo Decoder "dcraw" v9.28`
func parseVersion(output string) string {
	m := versionRe.FindStringSubmatch(output)
	if m == nil {
		return ""
	}
	return m[1]
}

// binaryName возвращает имя бинарника dcraw для текущей ОС.
func binaryName() string {
	if runtime.GOOS == "windows" {
		return "dcraw.exe"
	}
	return "dcraw"
}

/*
Возможные расширения:
- Поддержка dcraw_emu из LibRaw как альтернативы
- Проверка минимальной версии dcraw
*/
