package ddgi

import (
	"github.com/Carmen-Shannon/oxy-ddgi/engine/camera"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer"
)

// FrameContext is what the host hands the volume each frame for the camera being rendered.
type FrameContext struct {
	// Camera supplies the view-projection used by the probe visualization.
	Camera camera.Camera
	// Target is the host's color and depth attachments, used by passes that draw.
	Target renderer.RenderTarget
}
