package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/pflag"

	"github.com/andewx/meshvk"
	"github.com/andewx/meshvk/assets"
	"github.com/andewx/meshvk/display"
)

func init() {
	// glfw and the vulkan loader must stay on the main thread
	runtime.LockOSThread()
}

type flags struct {
	config  string
	assets  string
	debug   bool
	backend string
	width   int
	height  int
	texture string
}

func parseFlags(args []string) (flags, *pflag.FlagSet, error) {
	var f flags
	fs := pflag.NewFlagSet("meshvk", pflag.ContinueOnError)
	fs.StringVarP(&f.config, "config", "c", "", "TOML config file")
	fs.StringVar(&f.assets, "assets", ".", "directory shader and texture paths are relative to")
	fs.BoolVarP(&f.debug, "debug", "d", false, "enable validation layers and the debug report callback")
	fs.StringVar(&f.backend, "backend", "", "rendering backend: vulkan or null")
	fs.IntVar(&f.width, "width", 0, "initial window width")
	fs.IntVar(&f.height, "height", 0, "initial window height")
	fs.StringVar(&f.texture, "texture", "", "texture image path")
	err := fs.Parse(args)
	return f, fs, err
}

//loadConfig layers the command line over the config file over the defaults
func loadConfig(f flags, fs *pflag.FlagSet) (meshvk.Config, error) {
	cfg := meshvk.DefaultConfig()
	if f.config != "" {
		var err error
		if cfg, err = meshvk.LoadConfig(f.config); err != nil {
			return cfg, err
		}
	}
	if fs.Changed("debug") {
		cfg.Vulkan.Validation = f.debug
	}
	if f.backend != "" {
		cfg.Backend = f.backend
	}
	if f.width > 0 {
		cfg.Window.Width = f.width
	}
	if f.height > 0 {
		cfg.Window.Height = f.height
	}
	if f.texture != "" {
		cfg.Assets.Texture = f.texture
	}
	return cfg, cfg.Validate()
}

func main() {
	f, fs, err := parseFlags(os.Args[1:])
	if err == pflag.ErrHelp {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg, err := loadConfig(f, fs)
	if err != nil {
		meshvk.Fatal("", err)
	}

	logger, err := meshvk.NewLogger(cfg.LogDir)
	if err != nil {
		meshvk.Fatal("", err)
	}
	defer logger.Close()

	if err := run(cfg, assets.NewSource(f.assets), logger); err != nil {
		meshvk.Fatal(cfg.LogDir, err, func() { logger.Close() })
	}
}

func run(cfg meshvk.Config, src meshvk.AssetSource, logger *meshvk.Logger) error {
	if err := display.Init(); err != nil {
		return err
	}
	defer display.Terminate()

	win, err := display.NewWindow(display.Options{
		Width:     cfg.Window.Width,
		Height:    cfg.Window.Height,
		Title:     cfg.Window.Title,
		Resizable: cfg.Window.Resizable,
	})
	if err != nil {
		return err
	}
	defer win.Close()

	backend, err := meshvk.NewBackend(cfg, win, src, logger)
	if err != nil {
		return err
	}
	width, height := win.DrawableSize()
	if err := backend.Initialize(width, height); err != nil {
		backend.Shutdown()
		return err
	}
	runErr := meshvk.Run(backend, win)
	if err := backend.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
