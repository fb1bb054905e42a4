// sunshaft applies the sun shaft post effect to still images.
//
// Usage:
//
//	sunshaft render  [options] -o out.png in.png
//	sunshaft preview [options] in.png
//	sunshaft view    [options] in.png
//
// render writes the composited frame to a PNG, JPEG or OpenEXR file. preview
// shows the frame in the terminal and view opens a window rendered through
// WebGPU. All commands accept the same effect options; run a command with -h
// to list them. Effect settings can also be read from a JSON file with
// -settings, in which case flags given on the command line take precedence.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

var commands = map[string]func(args []string) error{
	"render":  runRender,
	"preview": runPreview,
	"view":    runView,
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	name, args := os.Args[1], os.Args[2:]
	if name == "-h" || name == "--help" || name == "help" {
		usage(os.Stdout)
		return
	}

	run, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "sunshaft: unknown command %q\n", name)
		usage(os.Stderr)
		os.Exit(2)
	}

	if err := run(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "sunshaft %s: %v\n", name, err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: sunshaft <command> [options] <image>")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  render   render the effect into an image file (-o)")
	fmt.Fprintln(w, "  preview  interactive preview in the terminal")
	fmt.Fprintln(w, "  view     interactive preview in a window (WebGPU)")
	fmt.Fprintln(w, "\nRun 'sunshaft <command> -h' for the options of a command.")
}
