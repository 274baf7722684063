// Package imagetest содержит вспомогательные функции для тестов:
// синтетические изображения, JPEG с тегом EXIF Orientation и поддельный
// RAW декодер.
package imagetest

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

var (
	// Red - цвет левой половины тестового изображения.
	Red = color.NRGBA{R: 230, G: 20, B: 20, A: 255}
	// Blue - цвет правой половины тестового изображения.
	Blue = color.NRGBA{R: 20, G: 20, B: 230, A: 255}
)

// Split возвращает изображение w x h: левая половина left, правая right.
func Split(w, h int, left, right color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.SetNRGBA(x, y, left)
			} else {
				img.SetNRGBA(x, y, right)
			}
		}
	}
	return img
}

// exifSegment строит сегмент APP1 с единственным тегом Orientation (0x0112).
func exifSegment(orientation uint16) []byte {
	var tiff bytes.Buffer
	le := binary.LittleEndian

	tiff.WriteString("II")
	_ = binary.Write(&tiff, le, uint16(42))
	_ = binary.Write(&tiff, le, uint32(8))

	// IFD0: одна запись
	_ = binary.Write(&tiff, le, uint16(1))
	_ = binary.Write(&tiff, le, uint16(0x0112)) // Orientation
	_ = binary.Write(&tiff, le, uint16(3))      // SHORT
	_ = binary.Write(&tiff, le, uint32(1))
	_ = binary.Write(&tiff, le, orientation)
	_ = binary.Write(&tiff, le, uint16(0))
	_ = binary.Write(&tiff, le, uint32(0)) // следующего IFD нет

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	seg := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
	return append(seg, payload...)
}

// EncodeJPEG кодирует изображение в JPEG. orientation 0 - без EXIF.
func EncodeJPEG(img image.Image, orientation int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, err
	}

	data := buf.Bytes()
	if orientation == 0 {
		return data, nil
	}

	// APP1 вставляется сразу после SOI
	out := make([]byte, 0, len(data)+64)
	out = append(out, data[:2]...)
	out = append(out, exifSegment(uint16(orientation))...)
	out = append(out, data[2:]...)
	return out, nil
}

// WriteJPEG записывает JPEG с тегом ориентации (0 - без EXIF).
func WriteJPEG(t testing.TB, path string, img image.Image, orientation int) {
	t.Helper()
	data, err := EncodeJPEG(img, orientation)
	if err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	writeFile(t, path, data)
}

// WritePNG записывает PNG.
func WritePNG(t testing.TB, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	writeFile(t, path, buf.Bytes())
}

// WriteTruncatedJPEG записывает обрезанный JPEG, который не декодируется.
func WriteTruncatedJPEG(t testing.TB, path string) {
	t.Helper()
	data, err := EncodeJPEG(Split(64, 64, Red, Blue), 0)
	if err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	writeFile(t, path, data[:len(data)/8])
}

// WriteFile записывает произвольные байты, создавая директории.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	writeFile(t, path, data)
}

func writeFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

// FakeRaw - поддельный RAW декодер: возвращает Split изображение заданного размера.
type FakeRaw struct {
	Width, Height int

	// Fail - имена файлов, для которых декодирование завершается ошибкой.
	Fail map[string]bool

	calls atomic.Int64
}

// DecodeRaw реализует decoder.RawDecoder.
func (f *FakeRaw) DecodeRaw(ctx context.Context, path string) (image.Image, error) {
	f.calls.Add(1)
	if f.Fail[filepath.Base(path)] {
		return nil, fmt.Errorf("fake raw: повреждённый файл %s", path)
	}
	return Split(f.Width, f.Height, Red, Blue), nil
}

// Calls возвращает количество вызовов DecodeRaw.
func (f *FakeRaw) Calls() int64 {
	return f.calls.Load()
}

// IsNear проверяет, что цвет c близок к want (JPEG вносит искажения).
func IsNear(c color.Color, want color.NRGBA) bool {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return near(n.R, want.R) && near(n.G, want.G) && near(n.B, want.B)
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d > -40 && d < 40
}
