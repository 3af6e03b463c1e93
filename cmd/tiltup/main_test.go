package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tiltup/internal/catalog"
	"github.com/verte-zerg/tiltup/internal/config"
	"github.com/verte-zerg/tiltup/internal/model"
	"github.com/verte-zerg/tiltup/internal/orientation"
)

func validSettings() settings {
	th := orientation.DefaultThresholds()
	return settings{
		game: model.GameConfig{Category: "movies", PrepTime: 5, PlayTime: 30, Tick: time.Second},
		sensor: model.SensorConfig{
			Source:              sourceKeyboard,
			TiltThreshold:       th.Tilt,
			NeutralBand:         th.Neutral,
			NoiseThreshold:      th.Noise,
			CalibrationInterval: orientation.DefaultCalibrationInterval,
			Window:              th.Window,
			Buffer:              th.Buffer,
		},
		remote:   model.RemoteConfig{Bind: "127.0.0.1", Port: 8642},
		logLevel: "info",
	}
}

func TestValidateSettings(t *testing.T) {
	require.NoError(t, validateSettings(validSettings()))

	cases := map[string]func(*settings){
		"play-time":    func(s *settings) { s.game.PlayTime = 0 },
		"prep-time":    func(s *settings) { s.game.PrepTime = -1 },
		"sensor":       func(s *settings) { s.sensor.Source = "gyro" },
		"neutral-band": func(s *settings) { s.sensor.NeutralBand = 75 },
		"tilt":         func(s *settings) { s.sensor.TiltThreshold = 120 },
		"window":       func(s *settings) { s.sensor.Window = 1 },
		"buffer":       func(s *settings) { s.sensor.Buffer = 2 },
		"port":         func(s *settings) { s.remote.Port = 70000 },
		"tls":          func(s *settings) { s.remote.TLSCert = "cert.pem" },
		"log-level":    func(s *settings) { s.logLevel = "loud" },
		"interval":     func(s *settings) { s.sensor.CalibrationInterval = 0 },
		"category":     func(s *settings) { s.game.Category = " " },
	}
	for name, mutate := range cases {
		s := validSettings()
		mutate(&s)
		assert.Error(t, validateSettings(s), name)
	}
}

func TestConfigFileMergesUnderFlags(t *testing.T) {
	// Given: a config file setting the category and play time
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := config.DefaultConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	body := "[game]\ncategory = \"animals\"\nplay-time = 45\n\n[sensor]\ncalibration-interval = \"250ms\"\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	// When: the play time is also given on the command line
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--play-time", "60"}))
	s, err := loadSettings(cmd)
	require.NoError(t, err)

	// Then: the flag wins and the file fills the rest
	assert.Equal(t, "animals", s.game.Category)
	assert.Equal(t, 60, s.game.PlayTime)
	assert.Equal(t, 250*time.Millisecond, s.sensor.CalibrationInterval)
	assert.Equal(t, defaultPrepTime, s.game.PrepTime)
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var cfg config.FileConfig
	_, err := toml.Decode(defaultConfigTemplate(), &cfg)
	require.NoError(t, err)

	var lines []string
	for _, line := range strings.Split(defaultConfigTemplate(), "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			line = strings.TrimPrefix(line, "# ")
		}
		lines = append(lines, line)
	}
	uncommented := strings.Join(lines, "\n")
	_, err = toml.Decode(uncommented, &cfg)
	require.NoError(t, err)
	require.NotNil(t, cfg.Sensor.CalibrationInterval)
	assert.Equal(t, orientation.DefaultCalibrationInterval, cfg.Sensor.CalibrationInterval.Duration)
	require.NotNil(t, cfg.Game.Category)
	assert.Equal(t, defaultCategory, *cfg.Game.Category)
}

func TestBuildSensor(t *testing.T) {
	s := validSettings()

	rig, err := buildSensor(s, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, rig.sensor)
	assert.NotNil(t, rig.ui.Simulator)
	assert.Nil(t, rig.bridge)

	s.sensor.Source = sourceNone
	rig, err = buildSensor(s, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, rig.sensor)
}

func TestBuildRemoteSensor(t *testing.T) {
	s := validSettings()
	s.sensor.Source = sourceRemote
	s.remote.Port = 0

	rig, err := buildSensor(s, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rig.listener.Close() })

	assert.NotNil(t, rig.sensor)
	assert.NotNil(t, rig.bridge)
	assert.True(t, strings.HasPrefix(rig.ui.RemoteURL, "http://127.0.0.1:"))
	assert.NotEmpty(t, rig.ui.RemoteQR)
}

func TestResolveCategory(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	s := validSettings()
	category, err := resolveCategory(s)
	require.NoError(t, err)
	assert.Equal(t, "movies", category.Slug)

	s.game.Category = "nope"
	_, err = resolveCategory(s)
	assert.ErrorIs(t, err, catalog.ErrUnknownCategory)

	path := filepath.Join(t.TempDir(), "party-words.txt")
	require.NoError(t, os.WriteFile(path, []byte("One\nTwo\n"), 0o644))
	s.words = path
	category, err = resolveCategory(s)
	require.NoError(t, err)
	assert.Equal(t, "Party Words", category.Name)
	assert.Equal(t, []string{"One", "Two"}, category.WordList)
}

func TestSetupLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tiltup.log")

	logger, closeLog, err := setupLogger("debug", path)
	require.NoError(t, err)
	logger.Debug().Str("session_id", "s1").Msg("hello")
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "session_id=s1")
}

func TestCategoriesCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	catDir := config.DefaultCategoryDir()
	require.NoError(t, os.MkdirAll(catDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(catDir, "animals.txt"), []byte("Cat\nDog\n"), 0o644))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"categories"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "movies   Movies (13 words)")
	assert.Contains(t, out.String(), "animals  Animals (2 words)")
}
