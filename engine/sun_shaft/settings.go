package sun_shaft

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/command"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MinIterations and MaxIterations bound RadialBlurIterations after Normalize.
	MinIterations = 1
	MaxIterations = 4

	// DefaultDepthThreshold is the linear depth beyond which a pixel counts as background.
	DefaultDepthThreshold = 0.99
)

// ResolutionDivider is the integer factor the working buffers are downscaled by.
type ResolutionDivider int

const (
	ResolutionHigh   ResolutionDivider = 1
	ResolutionNormal ResolutionDivider = 2
	ResolutionLow    ResolutionDivider = 4
)

func (d ResolutionDivider) valid() bool {
	return d == ResolutionHigh || d == ResolutionNormal || d == ResolutionLow
}

func (d ResolutionDivider) String() string {
	switch d {
	case ResolutionHigh:
		return "high"
	case ResolutionNormal:
		return "normal"
	case ResolutionLow:
		return "low"
	default:
		return fmt.Sprintf("divider(%d)", int(d))
	}
}

// ParseResolutionDivider accepts "high", "normal", "low" or the divider itself ("1", "2", "4").
func ParseResolutionDivider(s string) (ResolutionDivider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "1":
		return ResolutionHigh, nil
	case "normal", "2":
		return ResolutionNormal, nil
	case "low", "4":
		return ResolutionLow, nil
	}
	return 0, fmt.Errorf("%w: %q", errUnknownDivider, s)
}

// BlendMode is the operator used to combine the shafts with the frame.
type BlendMode int

const (
	// BlendScreen lightens without pushing bright areas past white.
	BlendScreen BlendMode = iota

	// BlendAdd adds the shafts on top of the frame.
	BlendAdd
)

// Pass returns the composite pass implementing the blend mode.
func (m BlendMode) Pass() command.Pass {
	if m == BlendAdd {
		return command.PassAdd
	}
	return command.PassScreen
}

func (m BlendMode) String() string {
	if m == BlendAdd {
		return "add"
	}
	return "screen"
}

// ParseBlendMode accepts "screen" or "add".
func ParseBlendMode(s string) (BlendMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "screen":
		return BlendScreen, nil
	case "add":
		return BlendAdd, nil
	}
	return 0, fmt.Errorf("%w: %q", errUnknownBlendMode, s)
}

// Settings holds the parameters of one frame of the effect.
// The orchestrator reads it as an immutable snapshot; the color, threshold and
// opacity values are forwarded to the shader passes without interpretation.
type Settings struct {
	// SunWorldPosition is the world-space sun. The zero vector means "viewport center".
	SunWorldPosition mgl32.Vec3

	// MaxRadius limits how far from the sun the extracted mask reaches, in viewport units.
	MaxRadius float32

	// BlurRadius is the base sample offset of the radial blur.
	BlurRadius float32

	// RadialBlurIterations is the number of blur rounds, two passes each.
	RadialBlurIterations int

	ResolutionDivider ResolutionDivider
	Extraction        Extraction
	BlendMode         BlendMode

	SunColor       common.Color
	SunIntensity   float32
	ColorThreshold common.Color
	Opacity        float32
}

// DefaultSettings returns the stock configuration of the effect.
func DefaultSettings() Settings {
	return Settings{
		MaxRadius:            0.75,
		BlurRadius:           2.5,
		RadialBlurIterations: 2,
		ResolutionDivider:    ResolutionNormal,
		Extraction:           DepthThreshold{Threshold: DefaultDepthThreshold},
		BlendMode:            BlendScreen,
		SunColor:             common.White,
		SunIntensity:         1.15,
		ColorThreshold:       common.NewColor(0.87, 0.74, 0.65, 1),
		Opacity:              1,
	}
}

// Normalize returns a copy of s that the orchestrator can run as-is.
// Iterations are clamped to [MinIterations, MaxIterations], an unsupported
// divider falls back to ResolutionNormal and a missing extraction mode to DepthThreshold.
// This is the only place settings are validated; the render stages trust their input.
func (s Settings) Normalize() Settings {
	s.RadialBlurIterations = common.Clamp(s.RadialBlurIterations, MinIterations, MaxIterations)
	if !s.ResolutionDivider.valid() {
		s.ResolutionDivider = ResolutionNormal
	}
	if s.Extraction == nil {
		s.Extraction = DepthThreshold{Threshold: DefaultDepthThreshold}
	}
	if s.BlendMode != BlendAdd {
		s.BlendMode = BlendScreen
	}
	return s
}

// settingsFile is the JSON representation of Settings.
// Pointer fields distinguish "absent" from zero so absent keys keep their defaults.
type settingsFile struct {
	SunPosition     *[3]float32 `json:"sun_position"`
	MaxRadius       *float32    `json:"max_radius"`
	BlurRadius      *float32    `json:"blur_radius"`
	Iterations      *int        `json:"radial_blur_iterations"`
	Resolution      *string     `json:"resolution"`
	Extraction      *string     `json:"extraction"`
	DepthThreshold  *float32    `json:"depth_threshold"`
	BackgroundColor *[4]float32 `json:"background_color"`
	BlendMode       *string     `json:"blend_mode"`
	SunColor        *[4]float32 `json:"sun_color"`
	SunIntensity    *float32    `json:"sun_intensity"`
	ColorThreshold  *[4]float32 `json:"color_threshold"`
	Opacity         *float32    `json:"opacity"`
}

// LoadSettings reads a JSON settings file on top of DefaultSettings and normalizes the result.
//
// Parameters:
//   - path: the JSON file to read
//
// Returns:
//   - Settings: the normalized settings
//   - error: if the file cannot be read or holds an unknown enum value
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	return ParseSettings(data)
}

// ParseSettings decodes JSON settings on top of DefaultSettings and normalizes the result.
//
// Parameters:
//   - data: the JSON document
//
// Returns:
//   - Settings: the normalized settings
//   - error: if the document is malformed or holds an unknown enum value
func ParseSettings(data []byte) (Settings, error) {
	var f settingsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}

	s := DefaultSettings()
	if f.SunPosition != nil {
		s.SunWorldPosition = mgl32.Vec3(*f.SunPosition)
	}
	if f.MaxRadius != nil {
		s.MaxRadius = *f.MaxRadius
	}
	if f.BlurRadius != nil {
		s.BlurRadius = *f.BlurRadius
	}
	if f.Iterations != nil {
		s.RadialBlurIterations = *f.Iterations
	}
	if f.Resolution != nil {
		d, err := ParseResolutionDivider(*f.Resolution)
		if err != nil {
			return Settings{}, err
		}
		s.ResolutionDivider = d
	}
	if f.BlendMode != nil {
		m, err := ParseBlendMode(*f.BlendMode)
		if err != nil {
			return Settings{}, err
		}
		s.BlendMode = m
	}
	if f.SunColor != nil {
		s.SunColor = common.Color(*f.SunColor)
	}
	if f.SunIntensity != nil {
		s.SunIntensity = *f.SunIntensity
	}
	if f.ColorThreshold != nil {
		s.ColorThreshold = common.Color(*f.ColorThreshold)
	}
	if f.Opacity != nil {
		s.Opacity = *f.Opacity
	}

	mode := "depth"
	if f.Extraction != nil {
		mode = *f.Extraction
	}
	threshold := float32(DefaultDepthThreshold)
	if f.DepthThreshold != nil {
		threshold = *f.DepthThreshold
	}
	var background common.Color
	if f.BackgroundColor != nil {
		background = common.Color(*f.BackgroundColor)
	}
	ext, err := ParseExtraction(mode, threshold, background)
	if err != nil {
		return Settings{}, err
	}
	s.Extraction = ext

	return s.Normalize(), nil
}

// ParseExtraction builds an Extraction from its name: "depth", "skybox" or "solid".
//
// Parameters:
//   - mode: the extraction name
//   - depthThreshold: the threshold used by "depth"
//   - background: the color used by "solid"
//
// Returns:
//   - Extraction: the extraction variant
//   - error: if mode is unknown
func ParseExtraction(mode string, depthThreshold float32, background common.Color) (Extraction, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "depth":
		return DepthThreshold{Threshold: depthThreshold}, nil
	case "skybox":
		return SkyboxClear{}, nil
	case "solid", "color":
		return SolidColorClear{Color: background}, nil
	}
	return nil, fmt.Errorf("%w: %q", errUnknownExtraction, mode)
}
