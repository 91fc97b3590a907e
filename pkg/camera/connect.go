package camera

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tauraamui/dualcam/pkg/log"
	"github.com/tauraamui/dualcam/pkg/video/videobackend"
	"github.com/tauraamui/dualcam/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

type Connection interface {
	UUID() string
	Title() string
	Path() string
	Format() videoframe.Format
	Params() videoframe.Params
	Settings() Settings
	Claim() (videobackend.Device, error)
	Close() error
}

type connection struct {
	uuid    string
	title   string
	format  videoframe.Format
	params  videoframe.Params
	sett    Settings
	mu      sync.Mutex
	claimed bool
	closed  bool
	dev     videobackend.Device
}

func (c *connection) UUID() string {
	return c.uuid
}

func (c *connection) Title() string {
	return c.title
}

func (c *connection) Path() string {
	return c.dev.Path()
}

func (c *connection) Format() videoframe.Format {
	return c.format
}

func (c *connection) Params() videoframe.Params {
	return c.params
}

func (c *connection) Settings() Settings {
	return c.sett
}

// Claim hands the negotiated device over to its capture worker, it
// succeeds exactly once.
func (c *connection) Claim() (videobackend.Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, xerror.Errorf("camera [%s] is closed", c.title)
	}
	if c.claimed {
		return nil, xerror.Errorf("camera [%s] device already claimed", c.title)
	}
	c.claimed = true
	return c.dev, nil
}

func (c *connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.dev.Close()
}

func connect(ctx context.Context, title, addr string, settings Settings, backend videobackend.Backend) (Connection, error) {
	dev, err := backend.Open(ctx, addr)
	if err != nil {
		return nil, xerror.Errorf("Unable to connect to camera [%s]: %w", title, err)
	}

	format, err := Negotiate(dev, settings.Width, settings.Height)
	if err != nil {
		dev.Close()
		return nil, xerror.Errorf("Unable to connect to camera [%s]: %w", title, err)
	}

	params, err := dev.Params()
	if err != nil {
		log.Warn("Camera [%s] did not report capture parameters: %v", title, err)
	}

	log.Info("Camera [%s] device: %s, format: %s, %s", title, addr, format, params)

	return &connection{
		uuid:   uuid.NewString(),
		title:  title,
		format: format,
		params: params,
		sett:   settings,
		dev:    dev,
	}, nil
}

func Connect(title, addr string, settings Settings, backend videobackend.Backend) (Connection, error) {
	return connect(context.Background(), title, addr, settings, backend)
}

func ConnectWithCancel(cancel context.Context, title, addr string, settings Settings, backend videobackend.Backend) (Connection, error) {
	return connect(cancel, title, addr, settings, backend)
}
