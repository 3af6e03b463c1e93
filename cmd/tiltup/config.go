package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tiltup/internal/config"
	"github.com/verte-zerg/tiltup/internal/orientation"
	"github.com/verte-zerg/tiltup/internal/remote"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *config.Duration) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = value.Duration
}

func defaultConfigTemplate() string {
	th := orientation.DefaultThresholds()
	return fmt.Sprintf(`# tiltup configuration
# Uncomment a value to enable it. CLI flags override config values.

[game]
# category = %q          # Category slug (see: tiltup categories)
# prep-time = %d               # Seconds of preparation
# play-time = %d              # Seconds of play

[sensor]
# source = %q          # keyboard, remote or none
# tilt-threshold = %.1f        # Degrees past which a tilt counts
# neutral-band = %.1f          # Degrees around level that re-arm gestures
# noise-threshold = %.1f       # Maximum movement while calibrating
# calibration-interval = %q
# window = %d                  # Readings per calibration check
# buffer = %d                 # Readings kept

[remote]
# bind = %q
# port = %d
# tls-cert = ""
# tls-key = ""

[log]
# level = %q
# file = "-"                  # Path, or - for stderr
`,
		defaultCategory,
		defaultPrepTime,
		defaultPlayTime,
		defaultSource,
		th.Tilt,
		th.Neutral,
		th.Noise,
		orientation.DefaultCalibrationInterval.String(),
		th.Window,
		th.Buffer,
		remote.DefaultBind,
		remote.DefaultPort,
		defaultLogLevel,
	)
}

func validateSettings(s settings) error {
	if s.game.PrepTime < 0 {
		return fmt.Errorf("--prep-time must be >= 0")
	}
	if s.game.PlayTime <= 0 {
		return fmt.Errorf("--play-time must be > 0")
	}
	if s.words == "" && strings.TrimSpace(s.game.Category) == "" {
		return fmt.Errorf("--category must not be empty")
	}
	switch s.sensor.Source {
	case sourceKeyboard, sourceRemote, sourceNone:
	default:
		return fmt.Errorf("--sensor must be one of %s, %s, %s", sourceKeyboard, sourceRemote, sourceNone)
	}
	if s.sensor.TiltThreshold <= 0 || s.sensor.TiltThreshold > 90 {
		return fmt.Errorf("--tilt-threshold must be between 0 and 90")
	}
	if s.sensor.NeutralBand <= 0 || s.sensor.NeutralBand >= s.sensor.TiltThreshold {
		return fmt.Errorf("--neutral-band must be > 0 and < --tilt-threshold")
	}
	if s.sensor.NoiseThreshold <= 0 {
		return fmt.Errorf("--noise-threshold must be > 0")
	}
	if s.sensor.CalibrationInterval <= 0 {
		return fmt.Errorf("--calibration-interval must be > 0")
	}
	if s.sensor.Window < 2 {
		return fmt.Errorf("--window must be >= 2")
	}
	if s.sensor.Buffer < s.sensor.Window {
		return fmt.Errorf("--buffer must be >= --window")
	}
	if s.remote.Port < 1 || s.remote.Port > 65535 {
		return fmt.Errorf("--port must be between 1 and 65535")
	}
	if (s.remote.TLSCert == "") != (s.remote.TLSKey == "") {
		return fmt.Errorf("--tls-cert and --tls-key must be set together")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(s.logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", s.logLevel, err)
	}
	return nil
}
