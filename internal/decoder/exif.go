package decoder

import (
	"os"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/artemshloyda/synothumb/internal/orientation"
)

// ReadOrientation читает единственный тег EXIF Orientation.
// Отсутствие EXIF, тега или ошибка разбора дают Absent: метаданные
// не влияют на успех обработки файла.
func ReadOrientation(path string) orientation.Tag {
	f, err := os.Open(path)
	if err != nil {
		return orientation.Absent
	}
	defer func() { _ = f.Close() }()

	// При некритичных ошибках goexif возвращает частично заполненный результат
	x, _ := exif.Decode(f)
	if x == nil {
		return orientation.Absent
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return orientation.Absent
	}

	v, err := tag.Int(0)
	if err != nil {
		return orientation.Absent
	}

	return orientation.FromEXIF(v)
}
