package sun_shaft

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/renderer/command"
	"github.com/go-gl/mathgl/mgl32"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(s *Settings)
		wantIterations int
		wantDivider    ResolutionDivider
	}{
		{"defaults untouched", func(s *Settings) {}, 2, ResolutionNormal},
		{"zero iterations", func(s *Settings) { s.RadialBlurIterations = 0 }, 1, ResolutionNormal},
		{"negative iterations", func(s *Settings) { s.RadialBlurIterations = -3 }, 1, ResolutionNormal},
		{"too many iterations", func(s *Settings) { s.RadialBlurIterations = 9 }, 4, ResolutionNormal},
		{"unsupported divider", func(s *Settings) { s.ResolutionDivider = 3 }, 2, ResolutionNormal},
		{"low divider kept", func(s *Settings) { s.ResolutionDivider = ResolutionLow }, 2, ResolutionLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			got := s.Normalize()
			if got.RadialBlurIterations != tt.wantIterations {
				t.Errorf("RadialBlurIterations = %d, want %d", got.RadialBlurIterations, tt.wantIterations)
			}
			if got.ResolutionDivider != tt.wantDivider {
				t.Errorf("ResolutionDivider = %s, want %s", got.ResolutionDivider, tt.wantDivider)
			}
		})
	}

	var empty Settings
	if _, ok := empty.Normalize().Extraction.(DepthThreshold); !ok {
		t.Errorf("Normalize() of empty settings extraction = %v, want depth", empty.Normalize().Extraction)
	}
}

func TestBlendModePass(t *testing.T) {
	if got := BlendScreen.Pass(); got != command.PassScreen {
		t.Errorf("BlendScreen.Pass() = %s, want screen", got)
	}
	if got := BlendAdd.Pass(); got != command.PassAdd {
		t.Errorf("BlendAdd.Pass() = %s, want add", got)
	}
}

func TestParseSettings(t *testing.T) {
	doc := []byte(`{
		"sun_position": [10, 20, -30],
		"radial_blur_iterations": 7,
		"resolution": "low",
		"blend_mode": "add",
		"extraction": "solid",
		"background_color": [0.2, 0.3, 0.4, 1],
		"sun_intensity": 0.5
	}`)

	s, err := ParseSettings(doc)
	if err != nil {
		t.Fatalf("ParseSettings() error = %v", err)
	}
	if s.SunWorldPosition != (mgl32.Vec3{10, 20, -30}) {
		t.Errorf("SunWorldPosition = %v", s.SunWorldPosition)
	}
	if s.RadialBlurIterations != MaxIterations {
		t.Errorf("RadialBlurIterations = %d, want clamped %d", s.RadialBlurIterations, MaxIterations)
	}
	if s.ResolutionDivider != ResolutionLow || s.BlendMode != BlendAdd {
		t.Errorf("ResolutionDivider, BlendMode = %s, %s, want low, add", s.ResolutionDivider, s.BlendMode)
	}
	if got, ok := s.Extraction.(SolidColorClear); !ok || got.Color != common.NewColor(0.2, 0.3, 0.4, 1) {
		t.Errorf("Extraction = %v, want solid background color", s.Extraction)
	}
	if s.SunIntensity != 0.5 {
		t.Errorf("SunIntensity = %v, want 0.5", s.SunIntensity)
	}
	if s.BlurRadius != 2.5 || s.MaxRadius != 0.75 {
		t.Errorf("absent keys changed defaults: blur %v, max radius %v", s.BlurRadius, s.MaxRadius)
	}
}

func TestParseSettingsErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", `{"opacity":`},
		{"unknown blend", `{"blend_mode": "multiply"}`},
		{"unknown resolution", `{"resolution": "ultra"}`},
		{"unknown extraction", `{"extraction": "stencil"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSettings([]byte(tt.doc)); err == nil {
				t.Errorf("ParseSettings(%s) error = nil, want error", tt.doc)
			}
		})
	}
}

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shafts.json")
	if err := os.WriteFile(path, []byte(`{"extraction": "depth", "depth_threshold": 0.5}`), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if got, ok := s.Extraction.(DepthThreshold); !ok || got.Threshold != 0.5 {
		t.Errorf("Extraction = %v, want depth(0.5)", s.Extraction)
	}

	if _, err := LoadSettings(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("LoadSettings(missing) error = nil, want error")
	}
}
