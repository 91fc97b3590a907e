package camera

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tauraamui/dualcam/pkg/video/videobackend"
	"github.com/tauraamui/dualcam/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

var ErrNoSupportedEncoding = errors.New("device accepts none of the supported encodings")

// CandidateEncodings are tried in order, direct RGB first since it needs
// no decoding.
var CandidateEncodings = []videoframe.Encoding{
	videoframe.RawRGB,
	videoframe.MotionJPEG,
}

// Negotiate configures dev for streaming. Every attempt forces the target
// resolution and only the encoding falls back. The returned format is the
// one the device reported after the winning attempt, callers must use its
// geometry rather than the requested one.
func Negotiate(dev videobackend.Device, width, height uint32) (videoframe.Format, error) {
	if width == 0 || height == 0 {
		current, err := dev.Format()
		if err != nil {
			return videoframe.Format{}, xerror.Errorf("unable to read current format of %s: %w", dev.Path(), err)
		}
		width, height = current.Width, current.Height
	}

	attempts := make([]string, 0, len(CandidateEncodings))
	for _, enc := range CandidateEncodings {
		requested := videoframe.Format{Width: width, Height: height, Encoding: enc}
		reported, err := attempt(dev, requested)
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("%s (%v)", requested, err))
			continue
		}
		if reported.Encoding != enc {
			attempts = append(attempts, fmt.Sprintf("%s (device chose %s)", requested, reported))
			continue
		}
		return reported, nil
	}

	return videoframe.Format{}, xerror.Errorf(
		"unable to negotiate %s, tried [%s]: %w", dev.Path(), strings.Join(attempts, ", "), ErrNoSupportedEncoding,
	)
}

func attempt(dev videobackend.Device, requested videoframe.Format) (videoframe.Format, error) {
	if err := dev.SetFormat(requested); err != nil {
		return videoframe.Format{}, err
	}
	reported, err := dev.Format()
	if err != nil {
		return videoframe.Format{}, err
	}
	if err := reported.Validate(); err != nil {
		return videoframe.Format{}, err
	}
	return reported, nil
}
