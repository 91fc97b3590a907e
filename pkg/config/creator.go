package config

import (
	"github.com/tauraamui/dualcam/internal/config"
	"github.com/tauraamui/dualcam/pkg/configdef"
)

type Creator interface {
	configdef.Creator
}

func DefaultCreator() Creator {
	return config.DefaultCreator()
}
