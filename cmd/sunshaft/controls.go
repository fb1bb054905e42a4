package main

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-sunshafts/common"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/sun_shaft"
)

// action is one interactive command shared by the terminal and window previews.
type action int

const (
	actionNone action = iota
	actionQuit
	actionToggleEffect
	actionToggleBlend
	actionCycleExtraction
	actionMoreIterations
	actionFewerIterations
	actionWiderBlur
	actionNarrowerBlur
	actionResolutionHigh
	actionResolutionNormal
	actionResolutionLow
	actionSunLeft
	actionSunRight
	actionSunUp
	actionSunDown
)

const (
	// sunStep is how far one key press moves the sun, in viewport units.
	sunStep = 0.025

	// The sun may leave the viewport by half its size in every direction.
	sunMin = -0.5
	sunMax = 1.5

	blurStep = 0.5
)

// keyActions maps window key codes to actions.
var keyActions = map[uint32]action{
	common.KeySpace: actionToggleEffect,
	common.KeyB:     actionToggleBlend,
	common.KeyD:     actionCycleExtraction,
	common.KeyEqual: actionMoreIterations,
	common.KeyMinus: actionFewerIterations,
	common.KeyW:     actionWiderBlur,
	common.KeyS:     actionNarrowerBlur,
	common.Key1:     actionResolutionHigh,
	common.Key2:     actionResolutionNormal,
	common.Key4:     actionResolutionLow,
	common.KeyLeft:  actionSunLeft,
	common.KeyRight: actionSunRight,
	common.KeyUp:    actionSunUp,
	common.KeyDown:  actionSunDown,
}

// runeActions maps terminal characters to actions.
var runeActions = map[rune]action{
	'q': actionQuit,
	' ': actionToggleEffect,
	'b': actionToggleBlend,
	'd': actionCycleExtraction,
	'+': actionMoreIterations,
	'=': actionMoreIterations,
	'-': actionFewerIterations,
	'w': actionWiderBlur,
	's': actionNarrowerBlur,
	'1': actionResolutionHigh,
	'2': actionResolutionNormal,
	'4': actionResolutionLow,
}

const helpText = "arrows sun  space on/off  b blend  d extraction  +/- iterations  w/s blur  1/2/4 resolution"

// adjust applies a settings action to s. ok is false for actions that do not change settings.
func adjust(s sun_shaft.Settings, a action) (out sun_shaft.Settings, ok bool) {
	switch a {
	case actionToggleBlend:
		if s.BlendMode == sun_shaft.BlendAdd {
			s.BlendMode = sun_shaft.BlendScreen
		} else {
			s.BlendMode = sun_shaft.BlendAdd
		}
	case actionCycleExtraction:
		mode, threshold, background := extractionParams(s.Extraction)
		next := map[string]string{"depth": "skybox", "skybox": "solid", "solid": "depth"}[mode]
		ext, err := sun_shaft.ParseExtraction(next, threshold, background)
		if err != nil {
			return s, false
		}
		s.Extraction = ext
	case actionMoreIterations:
		s.RadialBlurIterations++
	case actionFewerIterations:
		s.RadialBlurIterations--
	case actionWiderBlur:
		s.BlurRadius += blurStep
	case actionNarrowerBlur:
		s.BlurRadius = max(0, s.BlurRadius-blurStep)
	case actionResolutionHigh:
		s.ResolutionDivider = sun_shaft.ResolutionHigh
	case actionResolutionNormal:
		s.ResolutionDivider = sun_shaft.ResolutionNormal
	case actionResolutionLow:
		s.ResolutionDivider = sun_shaft.ResolutionLow
	default:
		return s, false
	}
	return s.Normalize(), true
}

// moveSun applies a sun movement action to a viewport position.
func moveSun(x, y float32, a action) (float32, float32, bool) {
	switch a {
	case actionSunLeft:
		x -= sunStep
	case actionSunRight:
		x += sunStep
	case actionSunUp:
		y += sunStep
	case actionSunDown:
		y -= sunStep
	default:
		return x, y, false
	}
	return common.Clamp(x, sunMin, sunMax), common.Clamp(y, sunMin, sunMax), true
}

// handle applies a to the session. It reports whether the frame must be rendered again.
func (ss *session) handle(a action) bool {
	if a == actionToggleEffect {
		ss.enabled = !ss.enabled
		return true
	}
	if x, y, ok := moveSun(ss.sunX, ss.sunY, a); ok {
		ss.pointSunAt(x, y)
		return true
	}
	if s, ok := adjust(ss.shafts.Settings(), a); ok {
		ss.shafts.SetSettings(s)
		return true
	}
	return false
}

// status summarizes the session for a status line or window title.
func (ss *session) status() string {
	if !ss.enabled {
		return fmt.Sprintf("sun shafts off [%s]", ss.renderer.BackendType())
	}
	s := ss.shafts.Settings()
	return fmt.Sprintf("sun (%.2f, %.2f)  %s  %s  iterations %d  blur %.1f  %s [%s]",
		ss.sunX, ss.sunY, s.Extraction, s.BlendMode, s.RadialBlurIterations, s.BlurRadius,
		s.ResolutionDivider, ss.renderer.BackendType())
}
