//go:build !opengl

package compute

// OpenGLDevice is unavailable in builds without the opengl tag.
type OpenGLDevice struct{}

func NewOpenGLDevice() *OpenGLDevice { return &OpenGLDevice{} }

func (d *OpenGLDevice) Name() string                             { return "opengl (disabled)" }
func (d *OpenGLDevice) Available() bool                          { return false }
func (d *OpenGLDevice) Upload(*Frame) error                      { return ErrDeviceUnavailable }
func (d *OpenGLDevice) Dispatch(Pass, Params) error              { return ErrDeviceUnavailable }
func (d *OpenGLDevice) ReadTemperature([]float32) error          { return ErrDeviceUnavailable }
func (d *OpenGLDevice) ReadQuantity([]float32) error             { return ErrDeviceUnavailable }
func (d *OpenGLDevice) ReadReactions() ([]ReactionRecord, error) { return nil, ErrDeviceUnavailable }
func (d *OpenGLDevice) Cleanup()                                 {}
