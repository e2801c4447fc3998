package gx

import (
	"encoding/binary"
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// Colour expansion follows libWiiSharp TPL decoder:
// 565 channels are shifted without low bit replication,
// 5A3 channels are scaled by 255/max.

func colorFromRGB565(v uint16) color.NRGBA {
	return color.NRGBA{
		R: uint8(((v >> 11) & 0x1f) << 3),
		G: uint8(((v >> 5) & 0x3f) << 2),
		B: uint8((v & 0x1f) << 3),
		A: 0xff,
	}
}

func colorFromRGB5A3(v uint16) color.NRGBA {
	if v&0x8000 != 0 {
		return color.NRGBA{
			R: uint8(((v >> 10) & 0x1f) * 255 / 31),
			G: uint8(((v >> 5) & 0x1f) * 255 / 31),
			B: uint8((v & 0x1f) * 255 / 31),
			A: 0xff,
		}
	}
	return color.NRGBA{
		R: uint8(((v >> 8) & 0xf) * 255 / 15),
		G: uint8(((v >> 4) & 0xf) * 255 / 15),
		B: uint8((v & 0xf) * 255 / 15),
		A: uint8(((v >> 12) & 0x7) * 255 / 7),
	}
}

func expand4(v uint8) uint8 {
	return uint8(int(v&0xf) * 255 / 15)
}

// high byte is alpha, low byte is intensity
func colorFromIA8(v uint16) color.NRGBA {
	i := uint8(v)
	return color.NRGBA{R: i, G: i, B: i, A: uint8(v >> 8)}
}

func DecodePalette(pf PaletteFormat, data []byte) ([]color.NRGBA, error) {
	var conv func(uint16) color.NRGBA
	switch pf {
	case PALETTE_IA8:
		conv = colorFromIA8
	case PALETTE_RGB565:
		conv = colorFromRGB565
	case PALETTE_RGB5A3:
		conv = colorFromRGB5A3
	default:
		return nil, &UnsupportedFormatError{What: "palette format", Value: int(pf)}
	}

	palette := make([]color.NRGBA, len(data)/2)
	for i := range palette {
		palette[i] = conv(binary.BigEndian.Uint16(data[i*2:]))
	}
	return palette, nil
}

// texel returns colour of n-th texel in wire order
type texelFetcher func(n int) (color.NRGBA, error)

// decodeTiles walks blocks row-major and texels inside block row-major,
// texels outside of image are consumed but not stored
func decodeTiles(img *image.NRGBA, bw, bh int, fetch texelFetcher) error {
	width, height := img.Rect.Dx(), img.Rect.Dy()
	n := 0
	for by := 0; by < height; by += bh {
		for bx := 0; bx < width; bx += bw {
			for y := by; y < by+bh; y++ {
				for x := bx; x < bx+bw; x++ {
					if x < width && y < height {
						c, err := fetch(n)
						if err != nil {
							return err
						}
						img.SetNRGBA(x, y, c)
					}
					n++
				}
			}
		}
	}
	return nil
}

func paletteLookup(palette []color.NRGBA, index int) (color.NRGBA, error) {
	if index >= len(palette) {
		return color.NRGBA{}, errors.Errorf("palette index %d out of range (palette size %d)", index, len(palette))
	}
	return palette[index], nil
}

// Decode converts encoded texture into raster.
// palette is used only by indexed formats.
func Decode(f Format, data []byte, width, height int, palette []color.NRGBA) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid texture size %dx%d", width, height)
	}
	size, err := ByteSize(f, width, height)
	if err != nil {
		return nil, err
	}
	if len(data) < size {
		return nil, errors.Errorf("%v %dx%d requires 0x%x bytes, got 0x%x", f, width, height, size, len(data))
	}
	if f.Paletted() && len(palette) == 0 {
		return nil, errors.Errorf("%v texture without palette", f)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	if f == FORMAT_CMPR {
		decodeCMPR(img, data)
		return img, nil
	}

	bw, bh, _ := f.BlockSize()

	var fetch texelFetcher
	switch f {
	case FORMAT_I4:
		fetch = func(n int) (color.NRGBA, error) {
			b := data[n/2]
			if n%2 == 0 {
				b >>= 4
			}
			i := expand4(b)
			return color.NRGBA{R: i, G: i, B: i, A: 0xff}, nil
		}
	case FORMAT_I8:
		fetch = func(n int) (color.NRGBA, error) {
			i := data[n]
			return color.NRGBA{R: i, G: i, B: i, A: 0xff}, nil
		}
	case FORMAT_IA4:
		fetch = func(n int) (color.NRGBA, error) {
			b := data[n]
			i := expand4(b)
			return color.NRGBA{R: i, G: i, B: i, A: expand4(b >> 4)}, nil
		}
	case FORMAT_IA8:
		fetch = func(n int) (color.NRGBA, error) {
			return colorFromIA8(binary.BigEndian.Uint16(data[n*2:])), nil
		}
	case FORMAT_RGB565:
		fetch = func(n int) (color.NRGBA, error) {
			return colorFromRGB565(binary.BigEndian.Uint16(data[n*2:])), nil
		}
	case FORMAT_RGB5A3:
		fetch = func(n int) (color.NRGBA, error) {
			return colorFromRGB5A3(binary.BigEndian.Uint16(data[n*2:])), nil
		}
	case FORMAT_RGBA32:
		// 64 byte block: 16 AR pairs followed by 16 GB pairs
		fetch = func(n int) (color.NRGBA, error) {
			block := (n / 16) * 64
			i := (n % 16) * 2
			return color.NRGBA{
				R: data[block+i+1],
				G: data[block+32+i],
				B: data[block+32+i+1],
				A: data[block+i],
			}, nil
		}
	case FORMAT_C4:
		fetch = func(n int) (color.NRGBA, error) {
			b := data[n/2]
			if n%2 == 0 {
				b >>= 4
			}
			return paletteLookup(palette, int(b&0xf))
		}
	case FORMAT_C8:
		fetch = func(n int) (color.NRGBA, error) {
			return paletteLookup(palette, int(data[n]))
		}
	case FORMAT_C14X2:
		fetch = func(n int) (color.NRGBA, error) {
			return paletteLookup(palette, int(binary.BigEndian.Uint16(data[n*2:])&0x3fff))
		}
	default:
		return nil, &UnsupportedFormatError{What: "texture format", Value: int(f)}
	}

	if err := decodeTiles(img, bw, bh, fetch); err != nil {
		return nil, errors.Wrapf(err, "decoding %v", f)
	}
	return img, nil
}
