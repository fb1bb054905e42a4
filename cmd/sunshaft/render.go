package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/Carmen-Shannon/oxy-sunshafts/engine/camera"
	"github.com/Carmen-Shannon/oxy-sunshafts/engine/profiler"
	"go.uber.org/zap"
)

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	var o options
	o.register(fs)
	output := fs.String("o", "", "output image (.png, .jpg or .exr, stereo needs .exr)")
	frames := fs.Int("frames", 1, "render the frame this many times and report timings")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: sunshaft render [options] -o out.png <image>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *output == "" {
		return errors.New("missing output file, use -o")
	}

	logger, err := o.logger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	prof := profiler.NewProfiler(profiler.WithLogger(logger), profiler.WithUpdateInterval(time.Second))
	ss, err := openSession(&o, fs, logger, prof, nil)
	if err != nil {
		return err
	}
	defer ss.release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	n := max(1, *frames)
	start := time.Now()
	for range n {
		if err := ss.render(ctx); err != nil {
			return err
		}
		prof.Tick()
	}
	elapsed := time.Since(start)
	logger.Info("rendered",
		zap.Int("frames", n),
		zap.Duration("elapsed", elapsed),
		zap.Duration("per_frame", elapsed/time.Duration(n)),
	)

	if o.stereo > 0 {
		left, err := ss.image(camera.EyeLeft)
		if err != nil {
			return err
		}
		right, err := ss.image(camera.EyeRight)
		if err != nil {
			return err
		}
		return saveStereo(*output, left, right)
	}

	out, err := ss.image(camera.EyeMono)
	if err != nil {
		return err
	}
	return saveImage(*output, out)
}
