package config

import (
	"github.com/tauraamui/dualcam/pkg/configdef"
)

func DefaultResolver() configdef.Resolver {
	return defaultResolver{}
}

type defaultResolver struct{}

func (d defaultResolver) Resolve() (configdef.Values, error) {
	return load()
}

// ResolvePath reports where the config file is read from.
func ResolvePath() (string, error) {
	return resolveConfigPath()
}
