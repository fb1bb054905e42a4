package main

import (
	"context"
	"flag"
	"fmt"
	"image"

	"github.com/Carmen-Shannon/oxy-sunshafts/engine/camera"
	"github.com/gdamore/tcell/v2"
	"github.com/mrjoshuak/go-openexr/exr"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
)

// previewWidth is the default render width of the terminal preview.
const previewWidth = 320

func runPreview(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	var o options
	o.register(fs)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: sunshaft preview [options] <image>")
		fmt.Fprintln(fs.Output(), "\nKeys: "+helpText+"  q quit")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if o.width == 0 {
		o.width = previewWidth
	}
	// The stereo pair cannot be shown in one terminal.
	o.stereo = 0

	// The screen owns the terminal, so logs only go to -log.
	logger := zap.NewNop()
	if o.logPath != "" {
		l, err := o.logger()
		if err != nil {
			return err
		}
		defer l.Sync()
		logger = l
	}

	ss, err := openSession(&o, fs, logger, nil, nil)
	if err != nil {
		return err
	}
	defer ss.release()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	ctx := context.Background()
	dirty := true
	for {
		if dirty {
			if err := drawPreview(ctx, screen, ss); err != nil {
				return err
			}
			dirty = false
		}

		ev, ok := <-events
		if !ok {
			return nil
		}
		switch ev := ev.(type) {
		case *tcell.EventResize:
			screen.Sync()
			dirty = true
		case *tcell.EventKey:
			a := terminalAction(ev)
			if a == actionQuit {
				return nil
			}
			if ss.handle(a) {
				dirty = true
			}
		}
	}
}

// terminalAction maps a terminal key event to an action.
func terminalAction(ev *tcell.EventKey) action {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return actionQuit
	case tcell.KeyLeft:
		return actionSunLeft
	case tcell.KeyRight:
		return actionSunRight
	case tcell.KeyUp:
		return actionSunUp
	case tcell.KeyDown:
		return actionSunDown
	case tcell.KeyRune:
		return runeActions[ev.Rune()]
	}
	return actionNone
}

// drawPreview renders a frame and draws it with half-block cells, two pixels per cell.
// The last row holds the status line.
func drawPreview(ctx context.Context, screen tcell.Screen, ss *session) error {
	if err := ss.render(ctx); err != nil {
		return err
	}
	frame, err := ss.image(camera.EyeMono)
	if err != nil {
		return err
	}

	cols, rows := screen.Size()
	screen.Clear()
	if rows > 1 {
		drawHalfBlocks(screen, fitToCells(frame, cols, rows-1))
	}
	drawText(screen, 0, rows-1, ss.status(), tcell.StyleDefault.Reverse(true))
	screen.Show()
	return nil
}

// fitToCells scales the frame to cover cols x rows cells, keeping its aspect ratio.
// Terminal cells are roughly twice as tall as wide, which the half blocks compensate.
func fitToCells(frame *exr.RGBAImage, cols, rows int) *image.RGBA {
	b := frame.Bounds()
	w, h := cols, cols*b.Dy()/max(1, b.Dx())
	if h > rows*2 {
		w, h = rows*2*b.Dx()/max(1, b.Dy()), rows*2
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(1, w), max(1, h)))
	src := toRGBA64(frame)
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

func drawHalfBlocks(screen tcell.Screen, img *image.RGBA) {
	b := img.Bounds()
	for y := 0; y < b.Dy(); y += 2 {
		for x := 0; x < b.Dx(); x++ {
			top := img.RGBAAt(x, y)
			bottom := top
			if y+1 < b.Dy() {
				bottom = img.RGBAAt(x, y+1)
			}
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			screen.SetContent(x, y/2, '▀', nil, style)
		}
	}
}

func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}
