package imageproc

import (
	"image"
	"testing"

	"github.com/UnendingLoop/ImageWatermarker/internal/model"
	"github.com/stretchr/testify/require"
)

func TestScaleKeepAspect(t *testing.T) {
	tests := []struct {
		name          string
		src           *image.NRGBA
		width, height int
		wantW, wantH  int
		wantErr       error
	}{
		{name: "by width upscale", src: solid(100, 50, blue), width: 160, wantW: 160, wantH: 80},
		{name: "by width downscale", src: solid(640, 480, blue), width: 115, wantW: 115, wantH: 86},
		{name: "by height", src: solid(300, 200, blue), height: 50, wantW: 75, wantH: 50},
		{name: "odd ratio rounds", src: solid(7, 3, blue), width: 10, wantW: 10, wantH: 4},
		{name: "nothing supplied", src: solid(30, 20, blue), wantW: 30, wantH: 20},
		{name: "both supplied", src: solid(30, 20, blue), width: 10, height: 10, wantW: 30, wantH: 20},
		{name: "negative target", src: solid(30, 20, blue), width: -5, wantErr: model.ErrInvalidScale},
		{name: "height collapses to zero", src: solid(1000, 1, blue), width: 10, wantErr: model.ErrInvalidScale},
		{name: "empty source", src: solid(0, 0, blue), width: 10, wantErr: model.ErrInvalidScale},
		{name: "tall strip exceeds pixel limit", src: solid(1, 20000, blue), width: 5000, wantErr: model.ErrInvalidScale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ScaleKeepAspect(tt.src, tt.width, tt.height)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.wantW, res.Bounds().Dx())
			require.Equal(t, tt.wantH, res.Bounds().Dy())

			srcRatio := float64(tt.src.Bounds().Dy()) / float64(tt.src.Bounds().Dx())
			require.InDelta(t, srcRatio*float64(res.Bounds().Dx()), float64(res.Bounds().Dy()), 1)
		})
	}
}

func TestScaleKeepAspect_UniformColorSurvives(t *testing.T) {
	res, err := ScaleKeepAspect(solid(100, 50, blue), 160, 0)
	require.NoError(t, err)

	for y := 0; y < res.Bounds().Dy(); y += 7 {
		for x := 0; x < res.Bounds().Dx(); x += 7 {
			requirePixel(t, res, x, y, blue)
		}
	}
}
