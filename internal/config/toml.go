// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Game   GameConfig   `toml:"game"`
	Sensor SensorConfig `toml:"sensor"`
	Remote RemoteConfig `toml:"remote"`
	Log    LogConfig    `toml:"log"`
}

// GameConfig maps round settings.
type GameConfig struct {
	Category *string `toml:"category"`
	PrepTime *int    `toml:"prep-time"`
	PlayTime *int    `toml:"play-time"`
}

// SensorConfig maps gesture detection settings.
type SensorConfig struct {
	Source              *string   `toml:"source"`
	TiltThreshold       *float64  `toml:"tilt-threshold"`
	NeutralBand         *float64  `toml:"neutral-band"`
	NoiseThreshold      *float64  `toml:"noise-threshold"`
	CalibrationInterval *Duration `toml:"calibration-interval"`
	Window              *int      `toml:"window"`
	Buffer              *int      `toml:"buffer"`
}

// RemoteConfig maps the phone bridge listener.
type RemoteConfig struct {
	Bind    *string `toml:"bind"`
	Port    *int    `toml:"port"`
	TLSCert *string `toml:"tls-cert"`
	TLSKey  *string `toml:"tls-key"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
