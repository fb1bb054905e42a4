package sun_shaft

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/command"
)

// Extraction selects how the mask of shaft-casting pixels is produced.
// It is one of DepthThreshold, SkyboxClear or SolidColorClear.
type Extraction interface {
	// Pass returns the shader pass that produces the mask.
	Pass() command.Pass

	fmt.Stringer

	isExtraction()
}

// DepthThreshold marks pixels whose scene depth is beyond Threshold, i.e. the far background.
// The camera must render a depth texture; the orchestrator requests it every frame.
type DepthThreshold struct {
	Threshold float32
}

// SkyboxClear marks pixels that match the camera's skybox.
type SkyboxClear struct{}

// SolidColorClear marks pixels that match a solid background color.
type SolidColorClear struct {
	Color common.Color
}

func (DepthThreshold) Pass() command.Pass  { return command.PassDepthExtract }
func (SkyboxClear) Pass() command.Pass     { return command.PassBackgroundExtract }
func (SolidColorClear) Pass() command.Pass { return command.PassBackgroundExtract }

func (e DepthThreshold) String() string  { return fmt.Sprintf("depth(%g)", e.Threshold) }
func (SkyboxClear) String() string       { return "skybox" }
func (e SolidColorClear) String() string { return fmt.Sprintf("solid(%v)", [4]float32(e.Color)) }

func (DepthThreshold) isExtraction()  {}
func (SkyboxClear) isExtraction()     {}
func (SolidColorClear) isExtraction() {}
