// Package imageproc provides watermark compositing: normalization, scaling, opacity, tiling and alpha-blending.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/UnendingLoop/ImageWatermarker/internal/model"
	"github.com/disintegration/imaging"
)

// Compose накладывает ватермарк на основу в заданном режиме. Входные картинки не мутируются.
func Compose(fg, wm *image.NRGBA, mode model.Mode, p Params) (*image.NRGBA, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	mark, err := prepareWatermark(fg, wm, p)
	if err != nil {
		return nil, err
	}

	switch mode {
	case model.ModeOverlay:
		return overlay(fg, mark, p), nil
	case model.ModeBehind:
		return behind(fg, mark, p), nil
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrIncorrectMode, mode)
	}
}

// prepareWatermark масштабирует ватермарк до доли ширины основы и применяет прозрачность
func prepareWatermark(fg, wm *image.NRGBA, p Params) (*image.NRGBA, error) {
	targetW := int(float64(fg.Bounds().Dx()) * p.WidthScale)
	if targetW <= 0 {
		return nil, fmt.Errorf("%w: target watermark width %d for base width %d", model.ErrInvalidScale, targetW, fg.Bounds().Dx())
	}

	scaled, err := ScaleKeepAspect(wm, targetW, 0)
	if err != nil {
		return nil, err
	}
	return SetOpacity(scaled, p.WatermarkOpacity), nil
}

// placement - явная позиция или центр основы
func placement(fg, mark *image.NRGBA, p Params) image.Point {
	if p.Position != nil {
		return *p.Position
	}
	return image.Pt(
		(fg.Bounds().Dx()-mark.Bounds().Dx())/2,
		(fg.Bounds().Dy()-mark.Bounds().Dy())/2,
	)
}

// watermarkLayer - слой с ватермарком размером с основу: сетка тайлов или одна копия на прозрачном холсте
func watermarkLayer(fg, mark *image.NRGBA, p Params) *image.NRGBA {
	w, h := fg.Bounds().Dx(), fg.Bounds().Dy()
	switch p.Layout() {
	case model.LayoutTiled:
		return TileWatermark(w, h, mark, p.Padding)
	default:
		layer := imaging.New(w, h, color.NRGBA{})
		CompositeOver(layer, mark, placement(fg, mark, p))
		return layer
	}
}

func overlay(fg, mark *image.NRGBA, p Params) *image.NRGBA {
	result := imaging.Clone(fg)
	switch p.Layout() {
	case model.LayoutTiled:
		CompositeOver(result, TileWatermark(fg.Bounds().Dx(), fg.Bounds().Dy(), mark, p.Padding), image.Point{})
	default:
		CompositeOver(result, mark, placement(fg, mark, p))
	}
	return result
}

func behind(fg, mark *image.NRGBA, p Params) *image.NRGBA {
	result := watermarkLayer(fg, mark, p)
	CompositeOver(result, SetOpacity(fg, p.ForegroundOpacity), image.Point{})
	return result
}

// Overlay - ватермарк поверх основы, результат пишется в outPath
func Overlay(fgPath, wmPath, outPath string, p Params) error {
	return Apply(model.ModeOverlay, fgPath, wmPath, outPath, p)
}

// Behind - ватермарк под полупрозрачной основой, результат пишется в outPath
func Behind(fgPath, wmPath, outPath string, p Params) error {
	return Apply(model.ModeBehind, fgPath, wmPath, outPath, p)
}

// Apply читает обе картинки с диска, накладывает ватермарк в выбранном режиме и сохраняет PNG
func Apply(mode model.Mode, fgPath, wmPath, outPath string, p Params) error {
	fg, err := Normalize(fgPath)
	if err != nil {
		return err
	}
	wm, err := Normalize(wmPath)
	if err != nil {
		return err
	}

	result, err := Compose(fg, wm, mode, p)
	if err != nil {
		return err
	}
	return Save(outPath, result)
}

// Watermarker - то же для потоков: возвращает закодированный PNG и его размер
func Watermarker(b, w io.Reader, mode model.Mode, p Params) (io.Reader, int64, error) {
	base, err := NormalizeReader(b)
	if err != nil {
		return nil, 0, fmt.Errorf("decode base image: %w", err)
	}

	wm, err := NormalizeReader(w)
	if err != nil {
		return nil, 0, fmt.Errorf("decode watermark image: %w", err)
	}

	result, err := Compose(base, wm, mode, p)
	if err != nil {
		return nil, 0, err
	}

	// готовим результат к возврату
	var buf bytes.Buffer
	if err := Encode(&buf, result); err != nil {
		return nil, 0, err
	}

	return &buf, int64(buf.Len()), nil
}

// Encode пишет картинку в фиксированном формате (PNG, с альфой и без потерь)
func Encode(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("%w: %w", model.ErrEncode, err)
	}
	return nil
}

// Save пишет картинку в файл по пути path
func Save(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w %q: %w", model.ErrEncode, path, err)
	}

	if err := Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w %q: %w", model.ErrEncode, path, err)
	}
	return nil
}
