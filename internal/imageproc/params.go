package imageproc

import (
	"fmt"
	"image"

	"github.com/UnendingLoop/ImageWatermarker/internal/model"
)

// Params - параметры наложения ватермарка
type Params struct {
	WidthScale        float64      // ширина ватермарка как доля ширины основы
	WatermarkOpacity  float64      // 0..1
	ForegroundOpacity float64      // 0..1, только для behind
	Tile              bool         // замостить всю основу
	Padding           int          // отступ между тайлами в пикселях
	Position          *image.Point // явная позиция, если не замощаем; nil - по центру
}

func (p Params) Layout() model.Layout {
	if p.Tile {
		return model.LayoutTiled
	}
	return model.LayoutPlaced
}

// Validate проверяет границы параметров. Условия записаны "от противного", чтобы NaN тоже не проходил
func (p Params) Validate() error {
	switch {
	case !(p.WidthScale > 0 && p.WidthScale <= 1):
		return fmt.Errorf("%w: width scale must be within (0,1], got %v", model.ErrIncorrectParams, p.WidthScale)
	case !(p.WatermarkOpacity >= 0 && p.WatermarkOpacity <= 1):
		return fmt.Errorf("%w: watermark opacity must be within [0,1], got %v", model.ErrIncorrectParams, p.WatermarkOpacity)
	case !(p.ForegroundOpacity >= 0 && p.ForegroundOpacity <= 1):
		return fmt.Errorf("%w: foreground opacity must be within [0,1], got %v", model.ErrIncorrectParams, p.ForegroundOpacity)
	case p.Padding < 0:
		return fmt.Errorf("%w: padding must be non-negative, got %d", model.ErrIncorrectParams, p.Padding)
	}
	return nil
}

// DefaultParams - значения по умолчанию для HTTP-запросов
func DefaultParams(mode model.Mode) Params {
	p := Params{
		WidthScale:        0.2,
		WatermarkOpacity:  0.2,
		ForegroundOpacity: 1,
		Tile:              true,
		Padding:           50,
	}
	if mode == model.ModeBehind {
		p.WatermarkOpacity = 0.15
		p.ForegroundOpacity = 0.92
	}
	return p
}

// CLIPreset - зашитый набор параметров для командной строки
func CLIPreset(mode model.Mode) Params {
	p := Params{
		WidthScale:        0.18,
		WatermarkOpacity:  0.22,
		ForegroundOpacity: 1,
		Tile:              true,
		Padding:           60,
	}
	if mode == model.ModeBehind {
		p.WatermarkOpacity = 0.15
		p.ForegroundOpacity = 0.93
	}
	return p
}
