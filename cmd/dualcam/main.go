package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tacusci/logging/v2"
	"github.com/tauraamui/dualcam/pkg/config"
	"github.com/tauraamui/dualcam/pkg/configdef"
	"github.com/tauraamui/dualcam/pkg/display"
	"github.com/tauraamui/dualcam/pkg/log"
	"github.com/tauraamui/dualcam/pkg/metrics"
	"github.com/tauraamui/dualcam/pkg/timing"
	"github.com/tauraamui/dualcam/pkg/video/videobackend"
	"github.com/tauraamui/dualcam/pkg/viewer"
)

const (
	name     = "dualcam"
	levelEnv = "DUALCAM_LOGGING_LEVEL"
)

func initConfig() error {
	err := config.DefaultCreator().Create()
	if err != nil {
		if !errors.Is(err, configdef.ErrConfigAlreadyExists) {
			return err
		}
		log.Error(err.Error())
		return nil
	}
	path, err := config.Path()
	if err != nil {
		return err
	}
	fmt.Printf("Wrote default config to %s\n", path)
	return nil
}

func run(values configdef.Values) error {
	m := metrics.New()
	probe := timing.New(m)
	server := viewer.NewServer(values, videobackend.Resolve(values.Backend), m, probe)

	if errs := server.Connect(); len(errs) > 0 {
		for _, err := range errs {
			log.Error(err.Error())
		}
		<-server.Shutdown()
		return errs[0]
	}

	for _, cam := range server.Cameras() {
		fmt.Printf("%s: %s, format: %s, %s\n", cam.Title(), cam.Path(), cam.Format(), cam.Params())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	server.SetupProcesses()
	server.RunProcesses()

	if len(values.MetricsAddr) > 0 {
		go func() {
			if err := m.Serve(ctx, values.MetricsAddr); err != nil {
				log.Error("Metrics endpoint stopped: %v", err)
			}
		}()
	}

	go func() {
		if err := config.Watch(ctx, server.ApplyConfig); err != nil {
			log.Debug("Not watching config for changes: %v", err)
		}
	}()

	window := display.NewWindow(display.Settings{
		Title:    name,
		Windowed: values.Windowed,
		Width:    values.Width,
		Height:   values.Height,
	}, server.Compositor(), probe)
	err := window.RunWithCancel(ctx)

	// the status line has no trailing newline
	fmt.Print("\n")
	log.Info("Shutting down...")
	cancel()
	<-server.Shutdown()
	return err
}

func loadConfig(args []string) (configdef.Values, error) {
	values, err := config.DefaultResolver().Load()
	if err != nil {
		return configdef.Values{}, err
	}
	return applyFlags(args, values)
}

// applyConfigLevel switches to debug logging when the config asks for it
// and the environment did not pick a level.
func applyConfigLevel(values configdef.Values, envLevel string) {
	if values.Debug && len(envLevel) == 0 {
		log.SetLevel("debug")
	}
}

func init() {
	logging.CallbackLabelLevel = 5
	logging.ColorLogLevelLabelOnly = true
	log.SetLevel(strings.ToLower(os.Getenv(levelEnv)))
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "init-config" {
		if err := initConfig(); err != nil {
			logging.Error(err.Error()) //nolint
			os.Exit(1)
		}
		return
	}

	values, err := loadConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		logging.Error(err.Error()) //nolint
		os.Exit(1)
	}

	applyConfigLevel(values, os.Getenv(levelEnv))

	if err := run(values); err != nil {
		logging.Error(err.Error()) //nolint
		os.Exit(1)
	}
}
