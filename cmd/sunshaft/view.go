package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-sunshafts/engine/camera"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/profiler"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/window"
	"go.uber.org/zap"
)

func runView(args []string) error {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	var o options
	o.register(fs)
	width := fs.Int("window-width", 1280, "initial window width")
	height := fs.Int("window-height", 720, "initial window height")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: sunshaft view [options] <image>")
		fmt.Fprintln(fs.Output(), "\nMouse: left drag moves the sun, right drag turns the camera, wheel changes the blur radius.")
		fmt.Fprintln(fs.Output(), "Keys: "+helpText+"  esc quit")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if o.backend == "software" {
		return errors.New("view presents through WebGPU, use render or preview for the software backend")
	}
	o.stereo = 0

	logger, err := o.logger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	win, err := window.NewWindow(
		window.WithTitle("sunshaft "+fs.Arg(0)),
		window.WithSize(*width, *height),
		window.WithSizeLimits(160, 90, 7680, 4320),
		window.WithCloseOnEscape(true),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	prof := profiler.NewProfiler(profiler.WithLogger(logger), profiler.WithUpdateInterval(2*time.Second))
	ss, err := openSession(&o, fs, logger, prof, win)
	if err != nil {
		return err
	}
	defer ss.release()

	ctx := context.Background()
	var runErr error
	dirty := true
	dragging := false
	looking := false
	var lastX, lastY int32

	// stop records err; the window is closed from the update callback, outside event dispatch.
	stop := func(err error) {
		if runErr == nil {
			runErr = err
		}
	}

	win.SetMouseDownCallback(func(b window.MouseButton, x, y int32) {
		switch b {
		case window.MouseButtonLeft:
			dragging = true
			ss.pointSunAt(win.CursorViewport(x, y))
			dirty = true
		case window.MouseButtonRight:
			looking = true
			lastX, lastY = x, y
		}
	})
	win.SetMouseUpCallback(func(b window.MouseButton, x, y int32) {
		switch b {
		case window.MouseButtonLeft:
			dragging = false
		case window.MouseButtonRight:
			looking = false
		}
	})
	win.SetMouseMoveCallback(func(x, y int32) {
		if dragging {
			ss.pointSunAt(win.CursorViewport(x, y))
			dirty = true
		}
		if looking {
			ss.look(float32(x-lastX), float32(y-lastY))
			lastX, lastY = x, y
			dirty = true
		}
	})
	win.SetScrollCallback(func(delta float32) {
		a := actionWiderBlur
		if delta < 0 {
			a = actionNarrowerBlur
		}
		dirty = ss.handle(a) || dirty
	})
	win.SetKeyDownCallback(func(key uint32) {
		if a, ok := keyActions[key]; ok {
			dirty = ss.handle(a) || dirty
		}
	})
	win.SetResizeCallback(func(w, h int) {
		if w == 0 || h == 0 {
			return
		}
		if err := ss.renderer.Resize(w, h); err != nil {
			stop(fmt.Errorf("failed to resize surface: %w", err))
		}
	})
	win.SetUpdateCallback(func() {
		if runErr != nil {
			_ = win.Close()
			return
		}
		if dirty {
			if err := ss.render(ctx); err != nil {
				stop(err)
				_ = win.Close()
				return
			}
			win.SetTitle("sunshaft  " + ss.status())
			dirty = false
		}
		if err := ss.renderer.Present(ss.colors[camera.EyeMono]); err != nil {
			logger.Warn("present failed", zap.Error(err))
		}
		prof.Tick()
	})

	win.ProcessMessages()
	return runErr
}
