package videoframe

import (
	"fmt"

	"github.com/tauraamui/xerror"
)

// BytesPerPixel of every decoded payload, packed R, G, B.
const BytesPerPixel = 3

type Encoding int

const (
	Unknown Encoding = iota
	RawRGB
	MotionJPEG
)

var fourCCs = map[Encoding]string{
	RawRGB:     "RGB3",
	MotionJPEG: "MJPG",
}

func (e Encoding) FourCC() string {
	if cc, ok := fourCCs[e]; ok {
		return cc
	}
	return "????"
}

func (e Encoding) String() string {
	switch e {
	case RawRGB:
		return "RawRGB"
	case MotionJPEG:
		return "MotionJPEG"
	default:
		return "Unknown"
	}
}

// EncodingFromFourCC maps a four character code onto an Encoding,
// anything unrecognised is Unknown.
func EncodingFromFourCC(cc string) Encoding {
	for e, c := range fourCCs {
		if c == cc {
			return e
		}
	}
	return Unknown
}

type Dimensions struct {
	W, H int
}

// Format describes a negotiated camera stream. It is immutable once
// negotiation has finished.
type Format struct {
	Width    uint32
	Height   uint32
	Encoding Encoding
}

func (f Format) Dimensions() Dimensions {
	return Dimensions{W: int(f.Width), H: int(f.Height)}
}

// FrameSize is the length of a decoded payload for this format.
func (f Format) FrameSize() int {
	return int(f.Width) * int(f.Height) * BytesPerPixel
}

func (f Format) Validate() error {
	if f.Width == 0 || f.Height == 0 {
		return xerror.Errorf("invalid frame geometry %dx%d", f.Width, f.Height)
	}
	return nil
}

func (f Format) String() string {
	return fmt.Sprintf("%dx%d %s", f.Width, f.Height, f.Encoding.FourCC())
}

// Params are the capture parameters reported by a device once configured.
type Params struct {
	FPS uint32
}

func (p Params) String() string {
	if p.FPS == 0 {
		return "fps: unknown"
	}
	return fmt.Sprintf("fps: %d", p.FPS)
}
