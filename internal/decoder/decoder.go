// Package decoder декодирует исходные файлы в изображение в памяти.
//
// RAW файлы проходят демозаику через RawDecoder, обычные форматы
// декодируются imaging с отдельным чтением тега EXIF Orientation.
package decoder

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/artemshloyda/synothumb/internal/orientation"
	"github.com/artemshloyda/synothumb/internal/scanner"
)

// ErrDecode - исходный файл не удалось прочитать или декодировать.
var ErrDecode = errors.New("ошибка декодирования")

// RawDecoder выполняет демозаику RAW файла в RGB изображение.
type RawDecoder interface {
	DecodeRaw(ctx context.Context, path string) (image.Image, error)
}

// Decoder выбирает способ декодирования по классу формата файла.
type Decoder struct {
	raw RawDecoder
}

// New создаёт новый Decoder. raw может быть nil, тогда RAW файлы
// завершаются ошибкой ErrDecode.
func New(raw RawDecoder) *Decoder {
	return &Decoder{raw: raw}
}

// Decode декодирует файл и возвращает изображение и тег ориентации.
// Для RAW файлов тег всегда Absent: dcraw сам учитывает поворот камеры.
func (d *Decoder) Decode(ctx context.Context, file scanner.File) (image.Image, orientation.Tag, error) {
	switch file.Kind {
	case scanner.KindRaw:
		img, err := d.decodeRaw(ctx, file.Path)
		return img, orientation.Absent, err
	case scanner.KindStandard:
		return d.decodeStandard(file.Path)
	default:
		return nil, orientation.Absent, fmt.Errorf("%w: неизвестный класс формата %v", ErrDecode, file.Kind)
	}
}

// decodeRaw выполняет демозаику RAW файла.
func (d *Decoder) decodeRaw(ctx context.Context, path string) (image.Image, error) {
	if d.raw == nil {
		return nil, fmt.Errorf("%w: dcraw не найден, RAW файл не может быть обработан", ErrDecode)
	}

	img, err := d.raw.DecodeRaw(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// decodeStandard декодирует обычный растровый формат и читает ориентацию.
func (d *Decoder) decodeStandard(path string) (image.Image, orientation.Tag, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, orientation.Absent, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return img, ReadOrientation(path), nil
}
