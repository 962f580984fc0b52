package main

import (
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/Zyko0/go-sdl3/bin/binimg"
	"github.com/Zyko0/go-sdl3/bin/binsdl"
	"github.com/Zyko0/go-sdl3/bin/binttf"

	"github.com/pe-ge/cda/engine"
	"github.com/pe-ge/cda/screen"
)

// openScreen loads the bundled SDL libraries and opens the stimulus window.
// The returned func closes the window and unloads the libraries.
func openScreen(cfg engine.Config, logger *log.Logger) (*screen.Window, func(), error) {
	sdlLib := binsdl.Load()
	imgLib := binimg.Load()
	ttfLib := binttf.Load()
	unload := func() {
		ttfLib.Unload()
		imgLib.Unload()
		sdlLib.Unload()
	}

	quit, err := screen.Init()
	if err != nil {
		unload()
		return nil, nil, err
	}
	win, err := screen.Open(cfg)
	if err != nil {
		quit()
		unload()
		return nil, nil, err
	}

	if rate := win.RefreshRate(); math.Abs(rate-cfg.FrameRate) > 1 {
		logger.Printf("warning: display refreshes at %.2f Hz but durations assume %.2f Hz", rate, cfg.FrameRate)
	}
	return win, func() {
		win.Close()
		quit()
		unload()
	}, nil
}

// openTrigger opens the DLP-IO8-G box. Without a device, or when the box
// does not answer, the run goes on with a no-op trigger.
func openTrigger(cfg engine.Config, device string, logger *log.Logger) (engine.Trigger, func()) {
	if device == "" {
		return engine.NopTrigger{}, func() {}
	}
	dlp, err := engine.NewDLPIO8G(device, cfg.DLPBaudrate)
	if err != nil {
		logger.Printf("warning: trigger box unavailable, running without triggers: %v", err)
		return engine.NopTrigger{}, func() {}
	}
	return dlp, func() { _ = dlp.Close() }
}

// openRegistry opens the session index. A failure only costs the index.
func openRegistry(path string, logger *log.Logger) *engine.Registry {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Printf("warning: session registry disabled: %v", err)
		return nil
	}
	reg, err := engine.OpenRegistry(path)
	if err != nil {
		logger.Printf("warning: session registry disabled: %v", err)
		return nil
	}
	return reg
}
