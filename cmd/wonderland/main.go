package main

import (
	"flag"
	"log"
	"runtime"

	"wonderland/internal/logger"
	"wonderland/internal/util"
	"wonderland/pkg/config"
	"wonderland/pkg/engine"
)

func init() {
	// GLFW requires the program to be running on the main thread
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	watch := flag.Bool("watch", true, "Reload tunable settings when the configuration file changes")
	flag.Parse()

	cfg := config.DefaultConfig()
	if util.FileExists(*configPath) {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	} else {
		log.Printf("No configuration at %s, using defaults", *configPath)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.Log.Level)
	if cfg.Log.File != "" {
		var err error
		appLog, err = logger.NewMultiLogger(cfg.Log.Level, cfg.Log.File)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
	}
	defer appLog.Close()
	appLog.Info("Starting Wonderland...")

	watchPath := ""
	if *watch {
		watchPath = *configPath
	}

	app, err := engine.NewEngine(cfg, watchPath, appLog)
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}

	appLog.Info("Engine initialized, starting main loop...")
	app.Run()
}
