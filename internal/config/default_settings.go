package config

import "github.com/tauraamui/dualcam/pkg/configdef"

type defaultSettingKey uint

const (
	BACKEND defaultSettingKey = 0x0
	WIDTH   defaultSettingKey = 0x1
	HEIGHT  defaultSettingKey = 0x2
	CAMERAS defaultSettingKey = 0x3
)

var defaultSettings = map[defaultSettingKey]interface{}{
	BACKEND: "v4l2",
	WIDTH:   1280,
	HEIGHT:  720,
	CAMERAS: []configdef.Camera{
		{Device: "/dev/video0"},
		{Device: "/dev/video2"},
	},
}

func defaultValues() configdef.Values {
	cameras := defaultSettings[CAMERAS].([]configdef.Camera)
	return configdef.Values{
		Backend: defaultSettings[BACKEND].(string),
		Width:   defaultSettings[WIDTH].(int),
		Height:  defaultSettings[HEIGHT].(int),
		Cameras: append([]configdef.Camera{}, cameras...),
	}
}

// Defaults are the values used when no config file exists.
func Defaults() configdef.Values {
	return defaultValues()
}
