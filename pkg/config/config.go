package config

import (
	"context"

	"github.com/tauraamui/dualcam/internal/config"
	"github.com/tauraamui/dualcam/pkg/configdef"
)

type CreateResolver interface {
	configdef.CreateResolver
}

func DefaultCreateResolver() CreateResolver {
	return config.DefaultCreateResolver()
}

// Path reports the file the config is loaded from.
func Path() (string, error) {
	return config.ResolvePath()
}

// Defaults returns the values used when no config file exists.
func Defaults() configdef.Values {
	return config.Defaults()
}

// Watch blocks until ctx is done, calling onChange with every valid edit.
func Watch(ctx context.Context, onChange func(configdef.Values)) error {
	return config.Watch(ctx, onChange)
}
