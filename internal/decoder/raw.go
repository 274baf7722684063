package decoder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"strings"

	"golang.org/x/image/tiff"
)

// Dcraw выполняет демозаику RAW файлов внешним бинарником dcraw.
type Dcraw struct {
	// path - путь к бинарнику dcraw.
	path string
}

// NewDcraw создаёт новый Dcraw.
func NewDcraw(path string) *Dcraw {
	return &Dcraw{path: path}
}

// Args возвращает аргументы dcraw для файла:
//
//	-c   вывод в stdout
//	-w   баланс белого камеры
//	-W   без автоматической яркости
//	-q 3 интерполяция AHD
//	-T   вывод в TIFF
func (d *Dcraw) Args(path string) []string {
	return []string{"-c", "-w", "-W", "-q", "3", "-T", path}
}

// DecodeRaw запускает dcraw и декодирует полученный TIFF.
func (d *Dcraw) DecodeRaw(ctx context.Context, path string) (image.Image, error) {
	cmd := exec.CommandContext(ctx, d.path, d.Args(path)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("dcraw failed: %v: %s", err, msg)
		}
		return nil, fmt.Errorf("dcraw failed: %v", err)
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("dcraw не вернул данных для %s", path)
	}

	img, err := tiff.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("не удалось декодировать вывод dcraw: %w", err)
	}

	return img, nil
}

/*
Возможные расширения:
- Добавить извлечение встроенного превью как запасной вариант
- Добавить поддержку 16-битного вывода (-4)
*/
