package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/phinze/vkeybd/internal/asset"
	"github.com/phinze/vkeybd/internal/config"
	"github.com/phinze/vkeybd/internal/coordinator"
	"github.com/phinze/vkeybd/internal/device"
	"github.com/phinze/vkeybd/internal/host/sdlhost"
	"github.com/phinze/vkeybd/internal/scancode"
	"github.com/phinze/vkeybd/internal/session"
)

var (
	version    = "0.1.0"
	dirFlag    = flag.String("dir", "", "Directory holding vkeybd_<size>.{bmp,png,svg,def}")
	configFlag = flag.String("config", "", "Configuration file (default <dir>/"+config.FileName+")")
	width      = flag.Int("width", 640, "Window width")
	height     = flag.Int("height", 480, "Window height")
	background = flag.String("background", "", "Image shown in the window under the overlay")
	hotkeyName = flag.String("hotkey", "f12", "Key that opens the overlay")
	openNow    = flag.Bool("open", false, "Open the overlay at startup")
	showVer    = flag.Bool("version", false, "Show version")
)

func init() {
	// SDL calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("vkeybd version %s\n", version)
		return
	}

	log.SetPrefix("vkeybd: ")

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	hotkey, ok := scancode.Lookup(*hotkeyName)
	if !ok {
		log.Fatalf("Unknown hotkey %q", *hotkeyName)
	}

	h, err := sdlhost.New("vkeybd", *width, *height)
	if err != nil {
		log.Fatalf("Failed to open window: %v", err)
	}
	defer h.Close()

	if *background != "" {
		img, err := asset.Load(*background)
		if err != nil {
			log.Printf("Failed to load background: %v", err)
		} else if err := h.Fill(img); err != nil {
			log.Printf("Failed to draw background: %v", err)
		}
	}

	var kb device.Keyboard = h
	if cfg.Device == config.DeviceUinput {
		u, err := device.NewUinput("vkeybd")
		if err != nil {
			log.Printf("Failed to create uinput keyboard, using SDL: %v", err)
		} else {
			defer u.Close()
			kb = u
		}
	}

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
	}()

	ctrl := session.New(cfg, kb)
	coord := coordinator.New(h, ctrl, coordinator.Options{
		Hotkey: int(hotkey.Code),
		Watch:  cfg.Watch,
		Debug:  cfg.Debug,
	})
	if *openNow {
		coord.RequestOpen()
	}

	log.Printf("Keyboards from %s, press %s to open", cfg.Dir, hotkey.Label)
	if err := coord.Start(ctx); err != nil {
		log.Printf("Main loop failed: %v", err)
	}
	coord.Stop()
	log.Println("Exiting...")
}

// loadConfig resolves the keyboard directory and reads the configuration
// file. The -dir flag wins over the file's dir setting.
func loadConfig() (config.Config, error) {
	dir, err := config.ResolveDir(*dirFlag)
	if err != nil {
		return config.Config{}, err
	}

	path := *configFlag
	if path == "" {
		path = filepath.Join(dir, config.FileName)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if *dirFlag != "" || cfg.Dir == "" {
		cfg.Dir = dir
	}
	return cfg, cfg.Validate()
}
