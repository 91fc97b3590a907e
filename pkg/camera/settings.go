package camera

// Settings are what the viewer asks of one camera. Width and Height are
// forced onto the device during negotiation, zero keeps the device's
// current geometry.
type Settings struct {
	Width  uint32
	Height uint32
	FlipY  bool
}
