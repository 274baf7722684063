// Package orientation приводит изображение к вертикальному положению
// по тегу EXIF Orientation.
package orientation

import (
	"image"

	"github.com/disintegration/imaging"
)

// Tag - значение тега EXIF Orientation.
type Tag int

// Значения совпадают с числовыми значениями тега EXIF (1-8).
// Absent означает, что тег отсутствует.
const (
	Absent Tag = iota
	// Normal - "Horizontal (normal)".
	Normal
	// MirrorHorizontal - "Mirrored horizontal".
	MirrorHorizontal
	// Rotate180 - "Rotated 180".
	Rotate180
	// MirrorVertical - "Mirrored vertical".
	MirrorVertical
	// MirrorHorizontalRotate90CCW - "Mirrored horizontal then rotated 90 CCW".
	MirrorHorizontalRotate90CCW
	// Rotate270 - камера записала "Rotated 90 CW".
	Rotate270
	// MirrorHorizontalRotate270 - "Mirrored horizontal then rotated 90 CW".
	MirrorHorizontalRotate270
	// Rotate90 - камера записала "Rotated 90 CCW".
	Rotate90
)

// FromEXIF преобразует числовое значение тега. Значения вне 1-8 дают Absent.
func FromEXIF(v int) Tag {
	if v < int(Normal) || v > int(Rotate90) {
		return Absent
	}
	return Tag(v)
}

// String возвращает текстовое описание тега в формате EXIF.
func (t Tag) String() string {
	switch t {
	case Normal:
		return "Horizontal (normal)"
	case MirrorHorizontal:
		return "Mirrored horizontal"
	case Rotate180:
		return "Rotated 180"
	case MirrorVertical:
		return "Mirrored vertical"
	case MirrorHorizontalRotate90CCW:
		return "Mirrored horizontal then rotated 90 CCW"
	case Rotate270:
		return "Rotated 90 CW"
	case MirrorHorizontalRotate270:
		return "Mirrored horizontal then rotated 90 CW"
	case Rotate90:
		return "Rotated 90 CCW"
	default:
		return "absent"
	}
}

// Normalize применяет к изображению преобразование, обратное записанному камерой.
// Повороты imaging выполняются против часовой стрелки, поэтому
// "Rotated 90 CW" соответствует повороту на 270°.
// Для Absent, Normal и неизвестных значений изображение возвращается как есть.
func Normalize(img image.Image, tag Tag) image.Image {
	switch tag {
	case MirrorHorizontal:
		return imaging.FlipH(img)
	case Rotate180:
		return imaging.Rotate180(img)
	case MirrorVertical:
		return imaging.FlipV(img)
	case MirrorHorizontalRotate90CCW:
		return imaging.Rotate90(imaging.FlipV(img))
	case Rotate270:
		return imaging.Rotate270(img)
	case MirrorHorizontalRotate270:
		return imaging.Rotate270(imaging.FlipV(img))
	case Rotate90:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
