package config

import (
	"github.com/tauraamui/dualcam/pkg/configdef"
	"github.com/tauraamui/dualcam/pkg/log"
)

func DefaultCreator() configdef.Creator {
	return defaultCreator{}
}

type defaultCreator struct{}

func (d defaultCreator) Create() error {
	path, err := create()
	if err != nil {
		return err
	}
	log.Info("Created default config at %s", path)
	return nil
}

func DefaultCreateResolver() configdef.CreateResolver {
	return defaultCreateResolver{}
}

type defaultCreateResolver struct {
	defaultCreator
	defaultResolver
}
