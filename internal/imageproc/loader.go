package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/UnendingLoop/ImageWatermarker/internal/model"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // регистрируем webp-декодер для image.Decode
)

// MaxPixels - предел площади декодируемой картинки (и результата масштабирования).
// Декодеры выделяют холст по заголовку до чтения пикселей, так что проверяем заголовок заранее.
const MaxPixels = 89_478_485

var errTooLarge = errors.New("image exceeds pixel limit")

// Normalize открывает файл любого поддерживаемого растрового формата и приводит его к NRGBA 8 бит/канал.
// Картинки без альфа-канала становятся полностью непрозрачными.
func Normalize(path string) (*image.NRGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", model.ErrDecode, path, err)
	}
	img, err := decodeLimited(data)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", model.ErrDecode, path, err)
	}
	return img, nil
}

// NormalizeReader - то же самое, но из потока
func NormalizeReader(r io.Reader) (*image.NRGBA, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDecode, errors.New("nil-reader provided"))
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}
	img, err := decodeLimited(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}
	return img, nil
}

func decodeLimited(data []byte) (*image.NRGBA, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if cfg.Width < 0 || cfg.Height < 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d, limit %d", errTooLarge, cfg.Width, cfg.Height, MaxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return imaging.Clone(img), nil
}
