package imageproc

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// SetOpacity возвращает копию картинки, в которой альфа каждого пикселя умножена на factor.
// RGB не трогаем, дробную часть отбрасываем. Исходник не мутируется.
func SetOpacity(img *image.NRGBA, factor float64) *image.NRGBA {
	factor = math.Min(math.Max(factor, 0), 1)

	dst := imaging.Clone(img)

	if factor == 1 {
		return dst
	}

	b := dst.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()*4]
		for i := 3; i < len(row); i += 4 {
			row[i] = uint8(float64(row[i]) * factor)
		}
	}
	return dst
}
