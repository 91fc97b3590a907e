package config

import (
	"github.com/tauraamui/dualcam/internal/config"
	"github.com/tauraamui/dualcam/pkg/configdef"
)

type Resolver interface {
	Load() (configdef.Values, error)
}

func DefaultResolver() Resolver {
	return defaultResolver{resolver: config.DefaultResolver()}
}

type defaultResolver struct {
	resolver configdef.Resolver
}

func (d defaultResolver) Load() (configdef.Values, error) {
	return d.resolver.Resolve()
}
