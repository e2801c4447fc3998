package gx

import (
	"encoding/binary"
	"image"
	"image/color"
)

// CMPR is DXT1 with big-endian endpoints and MSB-first index bits.
// Every 8x8 tile holds four 4x4 sub-blocks in row-major order,
// every sub-block is c0 u16, c1 u16, 16 2-bit indices.

func avg565(w0, w1 int, c0, c1 uint16) uint16 {
	mix := func(shift uint, mask uint16) uint16 {
		a0 := int((c0 >> shift) & mask)
		a1 := int((c1 >> shift) & mask)
		return uint16((w0*a0+w1*a1)/(w0+w1)) << shift
	}
	return mix(11, 0x1f) | mix(5, 0x3f) | mix(0, 0x1f)
}

// CMPRPalette derives four colours of sub-block.
// c0 > c1 selects opaque 4-colour mode, otherwise 3 colours and transparent.
// In 4-colour mode entry 3 is the 1:2 interpolant, not black. For c0=0xffff,
// c1=0 the only opaque black entry is the c1 endpoint at index 1.
func CMPRPalette(c0, c1 uint16) [4]color.NRGBA {
	var p [4]color.NRGBA
	p[0] = colorFromRGB565(c0)
	p[1] = colorFromRGB565(c1)
	if c0 > c1 {
		p[2] = colorFromRGB565(avg565(2, 1, c0, c1))
		p[3] = colorFromRGB565(avg565(1, 2, c0, c1))
	} else {
		p[2] = colorFromRGB565(avg565(1, 1, c0, c1))
		p[3] = color.NRGBA{}
	}
	return p
}

func decodeCMPR(img *image.NRGBA, data []byte) {
	width, height := img.Rect.Dx(), img.Rect.Dy()
	off := 0
	for ty := 0; ty < height; ty += 8 {
		for tx := 0; tx < width; tx += 8 {
			for sy := 0; sy < 8; sy += 4 {
				for sx := 0; sx < 8; sx += 4 {
					block := data[off : off+8]
					off += 8

					palette := CMPRPalette(binary.BigEndian.Uint16(block[0:]), binary.BigEndian.Uint16(block[2:]))
					bits := binary.BigEndian.Uint32(block[4:])

					for py := 0; py < 4; py++ {
						for px := 0; px < 4; px++ {
							x, y := tx+sx+px, ty+sy+py
							if x >= width || y >= height {
								continue
							}
							index := (bits >> uint(30-2*(py*4+px))) & 3
							img.SetNRGBA(x, y, palette[index])
						}
					}
				}
			}
		}
	}
}
