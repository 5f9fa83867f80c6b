package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/livelab/backend/internal/config"
	"github.com/livelab/backend/internal/frontend"
	"github.com/livelab/backend/internal/mock"
	"github.com/livelab/backend/internal/robot"
	"github.com/livelab/backend/internal/session"
	"github.com/livelab/backend/internal/ws"
)

func main() {
	mockMode := flag.Bool("mock", false, "Use a simulated rig instead of serial hardware")
	devMode := flag.Bool("dev", false, "Development mode (serve frontend from filesystem)")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}

	store := robot.NewCalibrationStore(cfg.Robot.CalibrationDir)
	bridge := ws.NewBridge(cfg.Telemetry.QueueSize)

	buses := session.FeetechFactory
	if *mockMode {
		log.Println("Starting in mock mode (simulated rig)")
		if err := mock.SeedCalibrations(cfg.Robot.CalibrationDir); err != nil {
			log.Fatalf("Failed to seed mock calibrations: %v", err)
		}
		buses = func(port string, torque bool) robot.Bus {
			return mock.NewBus(port)
		}
	}

	runner := session.NewRunner(session.RunnerConfig{
		CalibrationSourceDir: cfg.Robot.CalibrationSourceDir,
		DatasetRoot:          cfg.Dataset.Root,
		TeleopHz:             cfg.Robot.TeleopHz,
		TelemetryInterval:    cfg.Telemetry.Interval,
	}, store, buses, bridge)

	controller := session.NewController(runner, bridge)

	frontendDir := ""
	if *devMode {
		exe, _ := os.Executable()
		frontendDir = filepath.Join(filepath.Dir(exe), "..", "..", "frontend")
		// If running with go run, the exe path is in a temp dir, use CWD instead
		if _, err := os.Stat(frontendDir); os.IsNotExist(err) {
			cwd, _ := os.Getwd()
			frontendDir = filepath.Join(cwd, "..", "frontend")
		}
	}

	// Embedded frontend handler: when built with -tags embed, serves from
	// the binary. Otherwise falls back to serving from the filesystem.
	var embeddedHandler http.Handler
	if !*devMode {
		embeddedHandler = frontend.Handler()
		if embeddedHandler == nil {
			cwd, _ := os.Getwd()
			fallback := filepath.Join(cwd, "..", "frontend")
			if _, err := os.Stat(fallback); err == nil {
				log.Printf("No embedded frontend, falling back to: %s", fallback)
				embeddedHandler = http.FileServer(http.Dir(fallback))
			}
		}
	}

	server := ws.NewServer(controller, bridge, store, frontendDir, *devMode, embeddedHandler, cfg.Server.AllowedOrigins, cfg.Server.AuthToken)

	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		controller.Shutdown()
		bridge.Shutdown()
		os.Exit(0)
	}()

	if err := ws.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
