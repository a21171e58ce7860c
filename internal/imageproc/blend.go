package imageproc

import "image"

// precisionBits - дополнительные биты точности для целочисленных коэффициентов смешивания
const precisionBits = 7

// div255 - быстрое деление на 255 с округлением вниз для значений, уже сдвинутых на половину делителя
func div255(v uint32) uint32 {
	return ((v >> 8) + v) >> 8
}

// CompositeOver накладывает src на dst оператором "over" в точке at, изменяя dst на месте.
// Оба изображения - неумноженные (non-premultiplied) RGBA по 8 бит. Выходящее за границы dst отсекается.
func CompositeOver(dst, src *image.NRGBA, at image.Point) {
	sb := src.Bounds()
	area := sb.Sub(sb.Min).Add(at).Intersect(dst.Bounds())
	if area.Empty() {
		return
	}

	for y := area.Min.Y; y < area.Max.Y; y++ {
		di := dst.PixOffset(area.Min.X, y)
		si := src.PixOffset(area.Min.X-at.X+sb.Min.X, y-at.Y+sb.Min.Y)
		for x := area.Min.X; x < area.Max.X; x++ {
			blendPixel(dst.Pix[di:di+4:di+4], src.Pix[si:si+4:si+4])
			di += 4
			si += 4
		}
	}
}

func blendPixel(d, s []uint8) {
	sa := uint32(s[3])
	if sa == 0 {
		return
	}

	da := uint32(d[3])
	outA255 := sa*255 + da*(255-sa)

	coef1 := sa * 255 * 255 * (1 << precisionBits) / outA255
	coef2 := 255*(1<<precisionBits) - coef1

	for c := 0; c < 3; c++ {
		v := uint32(s[c])*coef1 + uint32(d[c])*coef2
		d[c] = uint8(div255(v+(0x80<<precisionBits)) >> precisionBits)
	}
	d[3] = uint8(div255(outA255 + 0x80))
}
