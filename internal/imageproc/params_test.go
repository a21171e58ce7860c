package imageproc

import (
	"math"
	"testing"

	"github.com/UnendingLoop/ImageWatermarker/internal/model"
	"github.com/stretchr/testify/require"
)

func TestParams_Validate(t *testing.T) {
	base := DefaultParams(model.ModeOverlay)

	tests := []struct {
		name    string
		mutate  func(p *Params)
		wantErr bool
	}{
		{name: "defaults", mutate: func(p *Params) {}},
		{name: "zero width scale", mutate: func(p *Params) { p.WidthScale = 0 }, wantErr: true},
		{name: "opacity above one", mutate: func(p *Params) { p.WatermarkOpacity = 1.5 }, wantErr: true},
		{name: "negative fg opacity", mutate: func(p *Params) { p.ForegroundOpacity = -0.1 }, wantErr: true},
		{name: "negative padding", mutate: func(p *Params) { p.Padding = -1 }, wantErr: true},
		{name: "opacity bounds inclusive", mutate: func(p *Params) { p.WatermarkOpacity, p.ForegroundOpacity = 0, 1 }},
		{name: "full width watermark", mutate: func(p *Params) { p.WidthScale = 1 }},
		{name: "width scale above one", mutate: func(p *Params) { p.WidthScale = 1e9 }, wantErr: true},
		{name: "NaN width scale", mutate: func(p *Params) { p.WidthScale = math.NaN() }, wantErr: true},
		{name: "+Inf width scale", mutate: func(p *Params) { p.WidthScale = math.Inf(1) }, wantErr: true},
		{name: "NaN opacity", mutate: func(p *Params) { p.WatermarkOpacity = math.NaN() }, wantErr: true},
		{name: "-Inf opacity", mutate: func(p *Params) { p.WatermarkOpacity = math.Inf(-1) }, wantErr: true},
		{name: "NaN fg opacity", mutate: func(p *Params) { p.ForegroundOpacity = math.NaN() }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, model.ErrIncorrectParams)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPresets(t *testing.T) {
	overlay := CLIPreset(model.ModeOverlay)
	require.Equal(t, 0.18, overlay.WidthScale)
	require.Equal(t, 0.22, overlay.WatermarkOpacity)
	require.True(t, overlay.Tile)
	require.Equal(t, 60, overlay.Padding)
	require.Equal(t, model.LayoutTiled, overlay.Layout())

	behind := CLIPreset(model.ModeBehind)
	require.Equal(t, 0.15, behind.WatermarkOpacity)
	require.Equal(t, 0.93, behind.ForegroundOpacity)

	def := DefaultParams(model.ModeBehind)
	require.Equal(t, 0.2, def.WidthScale)
	require.Equal(t, 0.92, def.ForegroundOpacity)
	require.Equal(t, 50, def.Padding)

	def.Tile = false
	require.Equal(t, model.LayoutPlaced, def.Layout())
}
