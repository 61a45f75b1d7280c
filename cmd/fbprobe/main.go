//go:build linux

// fbprobe prints the geometry and format a framebuffer device reports,
// and whether page flipping and vsync are usable on it. Run it on a
// new target before wiring up the launcher.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/e7canasta/videopipe/fbdev"
	"github.com/e7canasta/videopipe/gfx"
	"github.com/e7canasta/videopipe/pixel"
)

func main() {
	device := flag.String("device", fbdev.DefaultDevice, "framebuffer device node")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Probe with a small RGB565 frame first, then 32 bpp if the panel
	// rejects 16 bpp. Init fails on a depth mismatch, which is itself
	// the answer we want.
	backend := fbdev.New(*device, log)
	format := pixel.RGB565
	display, err := backend.Init(160, 144, format)
	if err != nil {
		format = pixel.XRGB8888
		display, err = backend.Init(160, 144, format)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fbprobe: %v\n", err)
		os.Exit(1)
	}
	defer display.Close()

	fmt.Printf("device:  %s\n", *device)
	fmt.Printf("format:  %s\n", format)
	if fb, ok := display.(gfx.FramebufferAccess); ok {
		if buf, pitch, ok := fb.Framebuffer(); ok {
			fmt.Printf("pitch:   %d bytes\n", pitch)
			fmt.Printf("buffer:  %d bytes mapped\n", len(buf))
		}
	}
	if vc, ok := display.(gfx.VSyncControl); ok {
		fmt.Printf("vsync:   %v\n", vc.SupportsVSync())
	}
}
