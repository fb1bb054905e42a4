package main

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/sun_shaft"
	"go.uber.org/zap"
)

var errInvalidVector = errors.New("invalid vector")

// options are the flags shared by every command.
type options struct {
	settingsPath string
	depthPath    string
	logPath      string
	verbose      bool

	backend string
	workers int
	width   int
	stereo  float64

	// sun is the sun position in viewport coordinates, empty to use the settings file.
	sun string

	resolution     string
	extraction     string
	blend          string
	iterations     int
	blurRadius     float64
	maxRadius      float64
	intensity      float64
	opacity        float64
	depthThreshold float64
	sunColor       string
	colorThreshold string
	background     string
}

func (o *options) register(fs *flag.FlagSet) {
	d := sun_shaft.DefaultSettings()

	fs.StringVar(&o.settingsPath, "settings", "", "JSON settings file, overridden by explicit flags")
	fs.StringVar(&o.depthPath, "depth", "", "OpenEXR depth image, linear depth in [0, 1] in the first channel")
	fs.StringVar(&o.logPath, "log", "", "write logs to this file instead of stderr")
	fs.BoolVar(&o.verbose, "v", false, "verbose development logging")

	fs.StringVar(&o.backend, "backend", "auto", "renderer backend: auto, gpu or software")
	fs.IntVar(&o.workers, "workers", 0, "software renderer workers (0 = one per CPU)")
	fs.IntVar(&o.width, "width", 0, "resize the input to this width before rendering (0 = keep)")
	fs.Float64Var(&o.stereo, "stereo", 0, "render a stereo pair with this eye separation (0 = mono)")

	fs.StringVar(&o.sun, "sun", "", "sun position in the viewport as x,y in [0, 1], origin at the bottom left")

	fs.StringVar(&o.resolution, "resolution", d.ResolutionDivider.String(), "working resolution: high, normal or low")
	fs.StringVar(&o.extraction, "extraction", "depth", "mask extraction: depth, skybox or solid")
	fs.StringVar(&o.blend, "blend", d.BlendMode.String(), "composite mode: screen or add")
	fs.IntVar(&o.iterations, "iterations", d.RadialBlurIterations, "radial blur iterations")
	fs.Float64Var(&o.blurRadius, "blur-radius", float64(d.BlurRadius), "radial blur sample offset")
	fs.Float64Var(&o.maxRadius, "max-radius", float64(d.MaxRadius), "mask falloff radius around the sun")
	fs.Float64Var(&o.intensity, "intensity", float64(d.SunIntensity), "sun intensity")
	fs.Float64Var(&o.opacity, "opacity", float64(d.Opacity), "composite opacity")
	fs.Float64Var(&o.depthThreshold, "depth-threshold", sun_shaft.DefaultDepthThreshold, "depth above which pixels count as sky")
	fs.StringVar(&o.sunColor, "sun-color", formatColor(d.SunColor), "sun color as r,g,b[,a]")
	fs.StringVar(&o.colorThreshold, "threshold", formatColor(d.ColorThreshold), "color threshold as r,g,b[,a]")
	fs.StringVar(&o.background, "background", "0,0,0,1", "background color of the solid extraction as r,g,b[,a]")
}

// settings loads the settings file, if any, and applies the flags that were set explicitly.
func (o *options) settings(fs *flag.FlagSet) (sun_shaft.Settings, error) {
	s := sun_shaft.DefaultSettings()
	if o.settingsPath != "" {
		loaded, err := sun_shaft.LoadSettings(o.settingsPath)
		if err != nil {
			return sun_shaft.Settings{}, err
		}
		s = loaded
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	// Without a settings file every flag default applies.
	all := o.settingsPath == ""

	var err error
	if all || set["resolution"] {
		if s.ResolutionDivider, err = sun_shaft.ParseResolutionDivider(o.resolution); err != nil {
			return sun_shaft.Settings{}, err
		}
	}
	if all || set["blend"] {
		if s.BlendMode, err = sun_shaft.ParseBlendMode(o.blend); err != nil {
			return sun_shaft.Settings{}, err
		}
	}
	if all || set["iterations"] {
		s.RadialBlurIterations = o.iterations
	}
	if all || set["blur-radius"] {
		s.BlurRadius = float32(o.blurRadius)
	}
	if all || set["max-radius"] {
		s.MaxRadius = float32(o.maxRadius)
	}
	if all || set["intensity"] {
		s.SunIntensity = float32(o.intensity)
	}
	if all || set["opacity"] {
		s.Opacity = float32(o.opacity)
	}
	if all || set["sun-color"] {
		if s.SunColor, err = parseColor(o.sunColor); err != nil {
			return sun_shaft.Settings{}, fmt.Errorf("-sun-color: %w", err)
		}
	}
	if all || set["threshold"] {
		if s.ColorThreshold, err = parseColor(o.colorThreshold); err != nil {
			return sun_shaft.Settings{}, fmt.Errorf("-threshold: %w", err)
		}
	}

	if all || set["extraction"] || set["depth-threshold"] || set["background"] {
		mode, threshold, background := extractionParams(s.Extraction)
		if all || set["extraction"] {
			mode = o.extraction
		}
		if all || set["depth-threshold"] {
			threshold = float32(o.depthThreshold)
		}
		if all || set["background"] {
			if background, err = parseColor(o.background); err != nil {
				return sun_shaft.Settings{}, fmt.Errorf("-background: %w", err)
			}
		}
		if s.Extraction, err = sun_shaft.ParseExtraction(mode, threshold, background); err != nil {
			return sun_shaft.Settings{}, err
		}
	}

	return s.Normalize(), nil
}

// sunPoint parses -sun. ok is false when the flag was not given.
func (o *options) sunPoint() (x, y float32, ok bool, err error) {
	if o.sun == "" {
		return 0, 0, false, nil
	}
	v, err := parseVector(o.sun, 2, 2)
	if err != nil {
		return 0, 0, false, fmt.Errorf("-sun: %w", err)
	}
	return v[0], v[1], true, nil
}

// logger builds the zap logger selected by -v and -log.
func (o *options) logger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if o.verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	if o.logPath != "" {
		cfg.OutputPaths = []string{o.logPath}
		cfg.ErrorOutputPaths = []string{o.logPath}
	}
	return cfg.Build()
}

// extractionParams splits an extraction back into the arguments of sun_shaft.ParseExtraction.
func extractionParams(e sun_shaft.Extraction) (mode string, threshold float32, background common.Color) {
	threshold = sun_shaft.DefaultDepthThreshold
	switch ext := e.(type) {
	case sun_shaft.DepthThreshold:
		return "depth", ext.Threshold, background
	case sun_shaft.SkyboxClear:
		return "skybox", threshold, background
	case sun_shaft.SolidColorClear:
		return "solid", threshold, ext.Color
	}
	return "depth", threshold, background
}

// parseVector parses between minLen and maxLen comma-separated floats.
func parseVector(s string, minLen, maxLen int) ([]float32, error) {
	parts := strings.Split(s, ",")
	if len(parts) < minLen || len(parts) > maxLen {
		return nil, fmt.Errorf("%w: %q has %d components", errInvalidVector, s, len(parts))
	}
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", errInvalidVector, s, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// parseColor accepts r,g,b or r,g,b,a. Alpha defaults to 1.
func parseColor(s string) (common.Color, error) {
	v, err := parseVector(s, 3, 4)
	if err != nil {
		return common.Color{}, err
	}
	c := common.Color{v[0], v[1], v[2], 1}
	if len(v) == 4 {
		c[3] = v[3]
	}
	return c, nil
}

func formatColor(c common.Color) string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return strings.Join(parts, ",")
}
