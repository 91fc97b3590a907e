package configdef

import (
	"errors"
	"fmt"

	"gopkg.in/dealancer/validate.v2"
)

var (
	ErrInvalidCameraCount = errors.New("exactly two cameras must be configured")
	ErrDuplicateDevice    = errors.New("camera devices must be unique")
)

type Camera struct {
	Device string `json:"device" validate:"empty=false"`
	FlipY  bool   `json:"flip_y"`
}

type Values struct {
	Debug       bool     `json:"debug"`
	Backend     string   `json:"backend" validate:"one_of=v4l2,opencv,mock"`
	Width       int      `json:"width" validate:"gte=1 & lte=7680"`
	Height      int      `json:"height" validate:"gte=1 & lte=4320"`
	FlipX       bool     `json:"flip_x"`
	Windowed    bool     `json:"windowed"`
	MetricsAddr string   `json:"metrics_addr"`
	Cameras     []Camera `json:"cameras"`
}

// RunValidate checks the struct tags first, then the rules spanning
// several fields.
func (v Values) RunValidate() error {
	if err := validate.Validate(&v); err != nil {
		return err
	}
	return v.Validate()
}

func (v Values) Validate() error {
	const validationErrorHeader = "validation failed: %w"
	if len(v.Cameras) != 2 {
		return fmt.Errorf(validationErrorHeader, ErrInvalidCameraCount)
	}
	if HasDupCameraDevices(v.Cameras) {
		return fmt.Errorf(validationErrorHeader, ErrDuplicateDevice)
	}
	return nil
}

func HasDupCameraDevices(cameras []Camera) bool {
	seen := map[string]struct{}{}
	for _, cam := range cameras {
		if _, ok := seen[cam.Device]; ok {
			return true
		}
		seen[cam.Device] = struct{}{}
	}
	return false
}
