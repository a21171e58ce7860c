package imageproc

import (
	"fmt"
	"image"
	"math"

	"github.com/UnendingLoop/ImageWatermarker/internal/model"
	"github.com/disintegration/imaging"
)

// ScaleKeepAspect масштабирует картинку одним коэффициентом по обеим осям.
// Задается ровно одна из сторон, вторая = 0. Если не задана ни одна (или заданы обе) - картинка возвращается как есть.
func ScaleKeepAspect(img *image.NRGBA, targetWidth, targetHeight int) (*image.NRGBA, error) {
	if targetWidth < 0 || targetHeight < 0 {
		return nil, fmt.Errorf("%w: target %dx%d", model.ErrInvalidScale, targetWidth, targetHeight)
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	var ratio float64
	switch {
	case targetWidth > 0 && targetHeight == 0:
		if w == 0 {
			return nil, fmt.Errorf("%w: source width is 0", model.ErrInvalidScale)
		}
		ratio = float64(targetWidth) / float64(w)
	case targetHeight > 0 && targetWidth == 0:
		if h == 0 {
			return nil, fmt.Errorf("%w: source height is 0", model.ErrInvalidScale)
		}
		ratio = float64(targetHeight) / float64(h)
	default:
		return img, nil
	}

	newW := int(math.Round(float64(w) * ratio))
	newH := int(math.Round(float64(h) * ratio))
	if newW <= 0 || newH <= 0 {
		return nil, fmt.Errorf("%w: %dx%d scaled by %.4f gives %dx%d", model.ErrInvalidScale, w, h, ratio, newW, newH)
	}
	// узкий и высокий ватермарк при растяжении по ширине может раздуть высоту
	if int64(newW)*int64(newH) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", model.ErrInvalidScale, newW, newH, MaxPixels)
	}

	// Lanczos - чтобы при уменьшении не было алиасинга
	return imaging.Resize(img, newW, newH, imaging.Lanczos), nil
}
