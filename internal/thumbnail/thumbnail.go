// Package thumbnail генерирует набор миниатюр Synology Photo Station
// для одного декодированного изображения.
//
// Миниатюры лежат в <dir>/@eaDir/<filename>/ и создаются от большей к
// меньшей: каждая следующая уменьшается из предыдущей, а не из оригинала.
package thumbnail

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// MetaDir - имя служебной директории Synology рядом с исходным файлом.
const MetaDir = "@eaDir"

// DefaultQuality - качество JPEG миниатюр по умолчанию.
const DefaultQuality = 90

var (
	// ErrDirectoryCreate - не удалось создать директорию миниатюр.
	ErrDirectoryCreate = errors.New("ошибка создания директории")

	// ErrWrite - не удалось закодировать или записать миниатюру.
	ErrWrite = errors.New("ошибка записи миниатюры")
)

// Variant описывает одну миниатюру из набора.
type Variant struct {
	// Name - имя файла миниатюры.
	Name string

	// MaxDim - максимальный размер по любой из сторон.
	MaxDim int
}

// variants - фиксированный набор миниатюр от большей к меньшей.
var variants = [...]Variant{
	{Name: "SYNOPHOTO_THUMB_XL.jpg", MaxDim: 1280},
	{Name: "SYNOPHOTO_THUMB_B.jpg", MaxDim: 640},
	{Name: "SYNOPHOTO_THUMB_M.jpg", MaxDim: 320},
	{Name: "SYNOPHOTO_THUMB_PREVIEW.jpg", MaxDim: 160},
	{Name: "SYNOPHOTO_THUMB_S.jpg", MaxDim: 120},
}

// Spec возвращает копию набора миниатюр в порядке генерации.
func Spec() []Variant {
	out := make([]Variant, len(variants))
	copy(out, variants[:])
	return out
}

// Dir возвращает директорию миниатюр для исходного файла.
func Dir(sourcePath string) string {
	return filepath.Join(filepath.Dir(sourcePath), MetaDir, filepath.Base(sourcePath))
}

// EnsureDir создаёт директорию миниатюр вместе с родительскими.
// Уже существующая директория не считается ошибкой.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("%w %s: %v", ErrDirectoryCreate, path, err)
	}
	return nil
}

// AllExist проверяет, что в destDir уже есть все миниатюры набора.
func AllExist(destDir string) bool {
	for _, v := range variants {
		if !exists(filepath.Join(destDir, v.Name)) {
			return false
		}
	}
	return true
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Generator создаёт миниатюры в существующей директории.
type Generator struct {
	// Quality - качество JPEG (1..100).
	Quality int
}

// New создаёт Generator с заданным качеством JPEG.
// Значение вне диапазона 1..100 заменяется на DefaultQuality.
func New(quality int) *Generator {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &Generator{Quality: quality}
}

// Generate создаёт недостающие миниатюры img в destDir и возвращает
// количество записанных файлов.
//
// Существующая миниатюра пропускается и буфер при этом не уменьшается.
// Иначе буфер вписывается в MaxDim x MaxDim с сохранением пропорций
// (изображение меньше MaxDim не увеличивается) и результат становится
// источником для следующей миниатюры. При ошибке записи оставшиеся
// миниатюры не создаются.
func (g *Generator) Generate(img image.Image, destDir string) (int, error) {
	written := 0
	cur := img

	for _, v := range variants {
		dst := filepath.Join(destDir, v.Name)
		if exists(dst) {
			continue
		}

		cur = imaging.Fit(cur, v.MaxDim, v.MaxDim, imaging.Lanczos)

		if err := g.writeAtomic(cur, dst); err != nil {
			return written, err
		}
		written++
	}

	return written, nil
}

// writeAtomic кодирует JPEG во временный файл рядом с dst и переименовывает
// его. Прерванная запись не оставляет файл с именем миниатюры.
func (g *Generator) writeAtomic(img image.Image, dst string) error {
	dir, name := filepath.Split(dst)

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w %s: %v", ErrWrite, dst, err)
	}
	tmpPath := tmp.Name()

	if err := imaging.Encode(tmp, img, imaging.JPEG, imaging.JPEGQuality(g.Quality)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w %s: %v", ErrWrite, dst, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w %s: %v", ErrWrite, dst, err)
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w %s: %v", ErrWrite, dst, err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: не удалось переименовать %s -> %s: %v", ErrWrite, tmpPath, dst, err)
	}

	return nil
}

/*
Возможные расширения:
- Добавить набор миниатюр для видео (SYNOVIDEO_*)
- Добавить копирование ICC профиля в миниатюры
*/
