package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Robot     RobotConfig     `yaml:"robot"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Dataset   DatasetConfig   `yaml:"dataset"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AuthToken      string   `yaml:"auth_token"`
}

type RobotConfig struct {
	// CalibrationDir is the root of the calibration store, laid out as
	// <dir>/{teleoperators,robots}/<device>/<id>.json.
	CalibrationDir string `yaml:"calibration_dir"`
	// CalibrationSourceDir holds uploaded calibration files to copy
	// into the store when a requested id is absent.
	CalibrationSourceDir string `yaml:"calibration_source_dir"`
	TeleopHz             int    `yaml:"teleop_hz"`
}

type TelemetryConfig struct {
	// Interval caps the joint broadcast cadence.
	Interval  time.Duration `yaml:"interval"`
	QueueSize int           `yaml:"queue_size"`
}

type DatasetConfig struct {
	Root string `yaml:"root"`
}

func defaultConfig() *Config {
	home, _ := os.UserHomeDir()
	cache := filepath.Join(home, ".cache", "huggingface", "lerobot")

	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "127.0.0.1",
		},
		Robot: RobotConfig{
			CalibrationDir: filepath.Join(cache, "calibration"),
			TeleopHz:       60,
		},
		Telemetry: TelemetryConfig{
			Interval:  50 * time.Millisecond,
			QueueSize: 256,
		},
		Dataset: DatasetConfig{
			Root: filepath.Join(cache, "datasets"),
		},
	}
}

// Load reads a config file, applying defaults for unset fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault reads a config file, falling back to defaults when the
// file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	return cfg, err
}
