package imageproc

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// TileWatermark раскладывает ватермарк сеткой с шагом (размер + padding) по прозрачному холсту width x height,
// начиная с левого верхнего угла. Тайлы на краях обрезаются при наложении.
func TileWatermark(width, height int, wm *image.NRGBA, padding int) *image.NRGBA {
	canvas := imaging.New(width, height, color.NRGBA{})

	w, h := wm.Bounds().Dx(), wm.Bounds().Dy()
	if w == 0 || h == 0 {
		return canvas
	}
	padding = max(padding, 0)

	for x := 0; x < width; x += w + padding {
		for y := 0; y < height; y += h + padding {
			CompositeOver(canvas, wm, image.Pt(x, y))
		}
	}
	return canvas
}
