package utils

// ColorFloat is non premultiplied color with channels in 0..1
type ColorFloat [4]float32

func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	} else if v > 1 {
		return 1
	}
	return v
}

func (c ColorFloat) RGBA() (r, g, b, a uint32) {
	const mf = float32(256*256 - 1)
	alpha := clampUnit(c[3])
	r = uint32(clampUnit(c[0]) * alpha * mf)
	g = uint32(clampUnit(c[1]) * alpha * mf)
	b = uint32(clampUnit(c[2]) * alpha * mf)
	a = uint32(alpha * mf)
	return
}

// Bytes returns channels scaled to 0..255 with rounding
func (c ColorFloat) Bytes() [4]uint8 {
	var out [4]uint8
	for i, v := range c {
		out[i] = uint8(clampUnit(v)*255 + 0.5)
	}
	return out
}

func NewColorFloatRGB(rgb [3]uint8) ColorFloat {
	return ColorFloat{float32(rgb[0]) / 255, float32(rgb[1]) / 255, float32(rgb[2]) / 255, 1.0}
}
