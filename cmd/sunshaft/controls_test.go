package main

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-sunshafts/engine/sun_shaft"
	"github.com/gdamore/tcell/v2"
)

func TestAdjust(t *testing.T) {
	base := sun_shaft.DefaultSettings().Normalize()

	tests := []struct {
		name   string
		action action
		check  func(s sun_shaft.Settings) bool
	}{
		{"toggle blend", actionToggleBlend, func(s sun_shaft.Settings) bool { return s.BlendMode == sun_shaft.BlendAdd }},
		{"more iterations", actionMoreIterations, func(s sun_shaft.Settings) bool { return s.RadialBlurIterations == base.RadialBlurIterations+1 }},
		{"fewer iterations", actionFewerIterations, func(s sun_shaft.Settings) bool { return s.RadialBlurIterations == base.RadialBlurIterations-1 }},
		{"wider blur", actionWiderBlur, func(s sun_shaft.Settings) bool { return s.BlurRadius == base.BlurRadius+blurStep }},
		{"low resolution", actionResolutionLow, func(s sun_shaft.Settings) bool { return s.ResolutionDivider == sun_shaft.ResolutionLow }},
		{"cycle extraction", actionCycleExtraction, func(s sun_shaft.Settings) bool {
			_, ok := s.Extraction.(sun_shaft.SkyboxClear)
			return ok
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := adjust(base, tt.action)
			if !ok {
				t.Fatalf("adjust() ok = false, want true")
			}
			if !tt.check(got) {
				t.Errorf("adjust() = %+v", got)
			}
		})
	}
}

func TestAdjustNormalizes(t *testing.T) {
	s := sun_shaft.DefaultSettings()
	s.RadialBlurIterations = sun_shaft.MaxIterations
	got, _ := adjust(s, actionMoreIterations)
	if got.RadialBlurIterations != sun_shaft.MaxIterations {
		t.Errorf("RadialBlurIterations = %d, want %d", got.RadialBlurIterations, sun_shaft.MaxIterations)
	}

	s.BlurRadius = 0.2
	got, _ = adjust(s, actionNarrowerBlur)
	if got.BlurRadius != 0 {
		t.Errorf("BlurRadius = %v, want 0", got.BlurRadius)
	}
}

func TestCycleExtractionWraps(t *testing.T) {
	s := sun_shaft.DefaultSettings().Normalize()
	for range 3 {
		s, _ = adjust(s, actionCycleExtraction)
	}
	d, ok := s.Extraction.(sun_shaft.DepthThreshold)
	if !ok || d.Threshold != sun_shaft.DefaultDepthThreshold {
		t.Errorf("Extraction = %v, want depth(%g)", s.Extraction, sun_shaft.DefaultDepthThreshold)
	}
}

func TestAdjustIgnoresOtherActions(t *testing.T) {
	for _, a := range []action{actionNone, actionQuit, actionToggleEffect, actionSunLeft} {
		if _, ok := adjust(sun_shaft.DefaultSettings(), a); ok {
			t.Errorf("adjust(%d) ok = true, want false", a)
		}
	}
}

func TestMoveSun(t *testing.T) {
	tests := []struct {
		name         string
		x, y         float32
		action       action
		wantX, wantY float32
		wantOK       bool
	}{
		{"right", 0.5, 0.5, actionSunRight, 0.5 + sunStep, 0.5, true},
		{"down", 0.5, 0.5, actionSunDown, 0.5, 0.5 - sunStep, true},
		{"clamped", sunMin, sunMax, actionSunLeft, sunMin, sunMax, true},
		{"not a move", 0.5, 0.5, actionToggleBlend, 0.5, 0.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := moveSun(tt.x, tt.y, tt.action)
			if !near(x, tt.wantX) || !near(y, tt.wantY) || ok != tt.wantOK {
				t.Errorf("moveSun() = %v, %v, %v, want %v, %v, %v", x, y, ok, tt.wantX, tt.wantY, tt.wantOK)
			}
		})
	}
}

func TestTerminalAction(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want action
	}{
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), actionQuit},
		{"arrow", tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), actionSunUp},
		{"rune", tcell.NewEventKey(tcell.KeyRune, 'b', tcell.ModNone), actionToggleBlend},
		{"unbound rune", tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone), actionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := terminalAction(tt.ev); got != tt.want {
				t.Errorf("terminalAction() = %d, want %d", got, tt.want)
			}
		})
	}
}
