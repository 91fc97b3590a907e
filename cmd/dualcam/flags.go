package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/tauraamui/dualcam/pkg/configdef"
	"github.com/tauraamui/xerror"
)

// applyFlags overrides the loaded config with command line options.
// Positional arguments are the camera device paths, in order, and may be
// mixed with flags.
func applyFlags(args []string, values configdef.Values) (configdef.Values, error) {
	return applyFlagsTo(flag.CommandLine.Output(), args, values)
}

func applyFlagsTo(output io.Writer, args []string, values configdef.Values) (configdef.Values, error) {
	cameras := make([]configdef.Camera, 2)
	copy(cameras, values.Cameras)

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] [camera1] [camera2]\n       %s init-config\n", name, name)
		fs.PrintDefaults()
	}
	fs.IntVar(&values.Width, "width", values.Width, "requested capture width")
	fs.IntVar(&values.Height, "height", values.Height, "requested capture height")
	fs.BoolVar(&cameras[0].FlipY, "camera1-flip-y", cameras[0].FlipY, "flip camera 1 vertically")
	fs.BoolVar(&cameras[1].FlipY, "camera2-flip-y", cameras[1].FlipY, "flip camera 2 vertically")
	fs.BoolVar(&values.FlipX, "flip-x", values.FlipX, "mirror both cameras horizontally")
	fs.StringVar(&values.Backend, "backend", values.Backend, "capture backend: v4l2, opencv or mock")
	fs.BoolVar(&values.Windowed, "windowed", values.Windowed, "open a window instead of going fullscreen")
	fs.StringVar(&values.MetricsAddr, "metrics-addr", values.MetricsAddr, "serve prometheus metrics on this address")

	var positional []string
	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return configdef.Values{}, err
		}
		rest = fs.Args()
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		rest = rest[1:]
	}

	if len(positional) > len(cameras) {
		return configdef.Values{}, xerror.Errorf("expected at most %d camera devices, got %d", len(cameras), len(positional))
	}
	for i, device := range positional {
		cameras[i].Device = device
	}
	values.Cameras = cameras

	if err := values.RunValidate(); err != nil {
		return configdef.Values{}, err
	}
	return values, nil
}
