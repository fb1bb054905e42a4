package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/sun_shaft"
)

func parseOptions(t *testing.T, args ...string) (*options, *flag.FlagSet) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	o := &options{}
	o.register(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return o, fs
}

func TestSettingsDefaults(t *testing.T) {
	o, fs := parseOptions(t)
	got, err := o.settings(fs)
	if err != nil {
		t.Fatalf("settings() error = %v", err)
	}
	want := sun_shaft.DefaultSettings().Normalize()
	if got.BlendMode != want.BlendMode || got.ResolutionDivider != want.ResolutionDivider ||
		got.RadialBlurIterations != want.RadialBlurIterations || got.BlurRadius != want.BlurRadius ||
		got.SunColor != want.SunColor || got.ColorThreshold != want.ColorThreshold {
		t.Errorf("settings() = %+v, want %+v", got, want)
	}
	if d, ok := got.Extraction.(sun_shaft.DepthThreshold); !ok || d.Threshold != sun_shaft.DefaultDepthThreshold {
		t.Errorf("Extraction = %v, want depth(%g)", got.Extraction, sun_shaft.DefaultDepthThreshold)
	}
}

func TestSettingsFlags(t *testing.T) {
	o, fs := parseOptions(t,
		"-blend", "add",
		"-resolution", "low",
		"-iterations", "9",
		"-sun-color", "1,0.5,0",
		"-extraction", "solid",
		"-background", "0.1,0.2,0.3,1",
	)
	got, err := o.settings(fs)
	if err != nil {
		t.Fatalf("settings() error = %v", err)
	}
	if got.BlendMode != sun_shaft.BlendAdd {
		t.Errorf("BlendMode = %s, want add", got.BlendMode)
	}
	if got.ResolutionDivider != sun_shaft.ResolutionLow {
		t.Errorf("ResolutionDivider = %s, want low", got.ResolutionDivider)
	}
	if got.RadialBlurIterations != sun_shaft.MaxIterations {
		t.Errorf("RadialBlurIterations = %d, want %d", got.RadialBlurIterations, sun_shaft.MaxIterations)
	}
	if want := (common.Color{1, 0.5, 0, 1}); got.SunColor != want {
		t.Errorf("SunColor = %v, want %v", got.SunColor, want)
	}
	solid, ok := got.Extraction.(sun_shaft.SolidColorClear)
	if !ok {
		t.Fatalf("Extraction = %v, want solid", got.Extraction)
	}
	if want := (common.Color{0.1, 0.2, 0.3, 1}); solid.Color != want {
		t.Errorf("background = %v, want %v", solid.Color, want)
	}
}

func TestSettingsFileWithOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	doc := `{"blend_mode": "add", "radial_blur_iterations": 3, "extraction": "skybox"}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	o, fs := parseOptions(t, "-settings", path, "-iterations", "1")
	got, err := o.settings(fs)
	if err != nil {
		t.Fatalf("settings() error = %v", err)
	}
	if got.BlendMode != sun_shaft.BlendAdd {
		t.Errorf("BlendMode = %s, want add from the file", got.BlendMode)
	}
	if got.RadialBlurIterations != 1 {
		t.Errorf("RadialBlurIterations = %d, want 1 from the flag", got.RadialBlurIterations)
	}
	if _, ok := got.Extraction.(sun_shaft.SkyboxClear); !ok {
		t.Errorf("Extraction = %v, want skybox from the file", got.Extraction)
	}
}

func TestSettingsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"blend", []string{"-blend", "multiply"}},
		{"resolution", []string{"-resolution", "3"}},
		{"extraction", []string{"-extraction", "stencil"}},
		{"color components", []string{"-sun-color", "1,1"}},
		{"color value", []string{"-threshold", "1,x,1"}},
		{"settings file", []string{"-settings", filepath.Join(t.TempDir(), "missing.json")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, fs := parseOptions(t, tt.args...)
			if _, err := o.settings(fs); err == nil {
				t.Errorf("settings() error = nil, want an error")
			}
		})
	}
}

func TestSunPoint(t *testing.T) {
	o, _ := parseOptions(t, "-sun", "0.25, 0.75")
	x, y, ok, err := o.sunPoint()
	if err != nil || !ok || x != 0.25 || y != 0.75 {
		t.Errorf("sunPoint() = %v, %v, %v, %v, want 0.25, 0.75, true, nil", x, y, ok, err)
	}

	o, _ = parseOptions(t)
	if _, _, ok, err := o.sunPoint(); ok || err != nil {
		t.Errorf("sunPoint() ok, err = %v, %v, want false, nil", ok, err)
	}
}

func TestFormatColorRoundTrip(t *testing.T) {
	c := common.Color{0.87, 0.74, 0.65, 1}
	got, err := parseColor(formatColor(c))
	if err != nil {
		t.Fatalf("parseColor() error = %v", err)
	}
	if got != c {
		t.Errorf("parseColor(formatColor()) = %v, want %v", got, c)
	}
}
