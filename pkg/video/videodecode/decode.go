package videodecode

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/tauraamui/dualcam/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

var (
	ErrUnsupportedEncoding = errors.New("unsupported pixel encoding")
	ErrGeometry            = errors.New("decoded frame geometry does not match negotiated format")
)

// Decoder turns one captured device buffer into a row-major RGB payload of
// exactly Format.FrameSize() bytes. The returned slice is never shared with
// the input buffer.
type Decoder interface {
	Decode(buf []byte) ([]byte, error)
}

// ForFormat picks the decoder for a negotiated format.
func ForFormat(format videoframe.Format) (Decoder, error) {
	switch format.Encoding {
	case videoframe.RawRGB:
		return rgbDecoder{format: format}, nil
	case videoframe.MotionJPEG:
		return jpegDecoder{format: format}, nil
	default:
		return nil, xerror.Errorf("no decoder for %s: %w", format, ErrUnsupportedEncoding)
	}
}

type rgbDecoder struct {
	format videoframe.Format
}

func (d rgbDecoder) Decode(buf []byte) ([]byte, error) {
	if len(buf) != d.format.FrameSize() {
		return nil, xerror.Errorf(
			"raw buffer holds %d bytes, expected %d: %w", len(buf), d.format.FrameSize(), ErrGeometry,
		)
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

type jpegDecoder struct {
	format videoframe.Format
}

func (d jpegDecoder) Decode(buf []byte) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(withHuffmanTables(buf)))
	if err != nil {
		return nil, xerror.Errorf("failed to decode JPEG: %w", err)
	}

	b := img.Bounds()
	if b.Dx() != int(d.format.Width) || b.Dy() != int(d.format.Height) {
		return nil, xerror.Errorf(
			"JPEG is %dx%d, stream is %dx%d: %w", b.Dx(), b.Dy(), d.format.Width, d.format.Height, ErrGeometry,
		)
	}
	return ToRGB(img), nil
}

// ToRGB packs any image into a tightly packed row-major RGB slice.
func ToRGB(img image.Image) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h*videoframe.BytesPerPixel)

	switch src := img.(type) {
	case *image.YCbCr:
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				yi := src.YOffset(x, y)
				ci := src.COffset(x, y)
				out[i], out[i+1], out[i+2] = color.YCbCrToRGB(src.Y[yi], src.Cb[ci], src.Cr[ci])
				i += 3
			}
		}
	case *image.Gray:
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, y):]
			for x := 0; x < w; x++ {
				out[i], out[i+1], out[i+2] = row[x], row[x], row[x]
				i += 3
			}
		}
	case *image.RGBA:
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, y):]
			for x := 0; x < w; x++ {
				out[i], out[i+1], out[i+2] = row[x*4], row[x*4+1], row[x*4+2]
				i += 3
			}
		}
	default:
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := img.At(x, y).RGBA()
				out[i], out[i+1], out[i+2] = byte(r>>8), byte(g>>8), byte(bl>>8)
				i += 3
			}
		}
	}
	return out
}
