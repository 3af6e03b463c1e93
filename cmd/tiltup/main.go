// Package main provides the CLI entrypoint for tiltup.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tiltup/internal/catalog"
	"github.com/verte-zerg/tiltup/internal/config"
	"github.com/verte-zerg/tiltup/internal/model"
	"github.com/verte-zerg/tiltup/internal/orientation"
	"github.com/verte-zerg/tiltup/internal/remote"
	"github.com/verte-zerg/tiltup/internal/session"
	"github.com/verte-zerg/tiltup/internal/stats"
	"github.com/verte-zerg/tiltup/internal/tui"
)

const (
	defaultCategory = "movies"
	defaultPrepTime = 5
	defaultPlayTime = 30
	defaultSource   = sourceKeyboard
	defaultLogLevel = "info"

	sourceKeyboard = "keyboard"
	sourceRemote   = "remote"
	sourceNone     = "none"
)

var (
	playCategory string
	playWords    string
	playPrepTime int
	playPlayTime int

	sensorSource        string
	sensorTilt          float64
	sensorNeutral       float64
	sensorNoise         float64
	sensorCalibInterval time.Duration
	sensorWindow        int
	sensorBuffer        int

	remoteBind    string
	remotePort    int
	remoteTLSCert string
	remoteTLSKey  string

	logLevel string
	logFile  string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := orientation.DefaultThresholds()
	rootCmd := &cobra.Command{
		Use:           "tiltup",
		Short:         "Tilt-to-answer word guessing game",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	flags := rootCmd.Flags()
	flags.StringVar(&playCategory, "category", defaultCategory, "category slug to play (see: tiltup categories)")
	flags.StringVar(&playWords, "words", "", "play an ad-hoc word list file (one entry per line)")
	flags.IntVar(&playPrepTime, "prep-time", defaultPrepTime, "seconds of preparation before the round")
	flags.IntVar(&playPlayTime, "play-time", defaultPlayTime, "seconds of play")
	flags.StringVar(&sensorSource, "sensor", defaultSource, "orientation source: keyboard, remote or none")
	flags.Float64Var(&sensorTilt, "tilt-threshold", defaults.Tilt, "degrees past which a tilt counts as a gesture")
	flags.Float64Var(&sensorNeutral, "neutral-band", defaults.Neutral, "degrees around level that re-arm gestures")
	flags.Float64Var(&sensorNoise, "noise-threshold", defaults.Noise, "maximum movement in degrees while calibrating")
	flags.DurationVar(&sensorCalibInterval, "calibration-interval", orientation.DefaultCalibrationInterval, "time between calibration checks")
	flags.IntVar(&sensorWindow, "window", defaults.Window, "readings inspected per calibration check")
	flags.IntVar(&sensorBuffer, "buffer", defaults.Buffer, "readings kept in the rolling buffer")
	flags.StringVar(&remoteBind, "bind", remote.DefaultBind, "address the phone bridge listens on")
	flags.IntVar(&remotePort, "port", remote.DefaultPort, "port the phone bridge listens on")
	flags.StringVar(&remoteTLSCert, "tls-cert", "", "TLS certificate for the phone bridge")
	flags.StringVar(&remoteTLSKey, "tls-key", "", "TLS key for the phone bridge")
	flags.StringVar(&logLevel, "log-level", defaultLogLevel, "log level: debug, info, warn, error, disabled")
	flags.StringVar(&logFile, "log-file", "", "log file path, or - for stderr (default: XDG state dir)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCategoriesCmd())

	return rootCmd
}

// settings is everything a round needs, after merging the config file
// under the command line.
type settings struct {
	game     model.GameConfig
	sensor   model.SensorConfig
	remote   model.RemoteConfig
	words    string
	logLevel string
	logFile  string
}

func loadSettings(cmd *cobra.Command) (settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "category", &playCategory, fileCfg.Game.Category)
	applyIntConfig(cmd, "prep-time", &playPrepTime, fileCfg.Game.PrepTime)
	applyIntConfig(cmd, "play-time", &playPlayTime, fileCfg.Game.PlayTime)
	applyStringConfig(cmd, "sensor", &sensorSource, fileCfg.Sensor.Source)
	applyFloatConfig(cmd, "tilt-threshold", &sensorTilt, fileCfg.Sensor.TiltThreshold)
	applyFloatConfig(cmd, "neutral-band", &sensorNeutral, fileCfg.Sensor.NeutralBand)
	applyFloatConfig(cmd, "noise-threshold", &sensorNoise, fileCfg.Sensor.NoiseThreshold)
	applyDurationConfig(cmd, "calibration-interval", &sensorCalibInterval, fileCfg.Sensor.CalibrationInterval)
	applyIntConfig(cmd, "window", &sensorWindow, fileCfg.Sensor.Window)
	applyIntConfig(cmd, "buffer", &sensorBuffer, fileCfg.Sensor.Buffer)
	applyStringConfig(cmd, "bind", &remoteBind, fileCfg.Remote.Bind)
	applyIntConfig(cmd, "port", &remotePort, fileCfg.Remote.Port)
	applyStringConfig(cmd, "tls-cert", &remoteTLSCert, fileCfg.Remote.TLSCert)
	applyStringConfig(cmd, "tls-key", &remoteTLSKey, fileCfg.Remote.TLSKey)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-file", &logFile, fileCfg.Log.File)

	s := settings{
		game: model.GameConfig{
			Category: playCategory,
			PrepTime: playPrepTime,
			PlayTime: playPlayTime,
			Tick:     time.Second,
		},
		sensor: model.SensorConfig{
			Source:              sensorSource,
			TiltThreshold:       sensorTilt,
			NeutralBand:         sensorNeutral,
			NoiseThreshold:      sensorNoise,
			CalibrationInterval: sensorCalibInterval,
			Window:              sensorWindow,
			Buffer:              sensorBuffer,
		},
		remote: model.RemoteConfig{
			Bind:    remoteBind,
			Port:    remotePort,
			TLSCert: remoteTLSCert,
			TLSKey:  remoteTLSKey,
		},
		words:    playWords,
		logLevel: logLevel,
		logFile:  logFile,
	}
	if err := validateSettings(s); err != nil {
		return settings{}, err
	}
	return s, nil
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	logger, closeLog, err := setupLogger(cfg.logLevel, cfg.logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	category, err := resolveCategory(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rig, err := buildSensor(cfg, logger)
	if err != nil {
		return err
	}
	bridgeDone := make(chan error, 1)
	if rig.bridge != nil {
		go func() { bridgeDone <- rig.bridge.Serve(ctx, rig.listener) }()
	} else {
		close(bridgeDone)
	}

	machine := session.New(ctx, category, cfg.game,
		session.WithLogger(logger.With().Str("component", "session").Logger()),
		session.WithSensor(rig.sensor),
	)
	if rig.bridge != nil {
		unsubscribe := machine.Subscribe(rig.bridge.Broadcast)
		defer unsubscribe()
	}

	ui := tui.NewModel(machine, rig.ui)
	program := tea.NewProgram(ui, tea.WithAltScreen())
	_, runErr := program.Run()

	final := machine.State()
	machine.Close()
	cancel()
	if err := <-bridgeDone; err != nil {
		logErrf("phone bridge stopped: %v\n", err)
	}
	if runErr != nil {
		return fmt.Errorf("failed to run TUI: %w", runErr)
	}
	return stats.WriteSummary(cmd.OutOrStdout(), final, false)
}

func resolveCategory(cfg settings) (model.Category, error) {
	if cfg.words != "" {
		category, err := catalog.FromWordFile(cfg.words)
		if err != nil {
			return model.Category{}, err
		}
		return category, nil
	}
	cat, err := catalog.Load(config.DefaultCategoryDir())
	if err != nil {
		return model.Category{}, fmt.Errorf("failed to load categories: %w", err)
	}
	category, err := cat.Get(cfg.game.Category)
	if errors.Is(err, catalog.ErrUnknownCategory) {
		logErrln("Run: tiltup categories")
	}
	return category, err
}

// sensorRig is the orientation plumbing chosen by --sensor.
type sensorRig struct {
	sensor   *orientation.Sensor
	bridge   *remote.Bridge
	listener net.Listener
	ui       tui.Options
}

func buildSensor(cfg settings, logger zerolog.Logger) (sensorRig, error) {
	detector := orientation.NewDetector(orientation.ThresholdsFrom(cfg.sensor))
	opts := []orientation.Option{
		orientation.WithInterval(cfg.sensor.CalibrationInterval),
		orientation.WithLogger(logger.With().Str("component", "sensor").Logger()),
	}

	switch cfg.sensor.Source {
	case sourceKeyboard:
		source := orientation.NewChanSource(cfg.sensor.Buffer)
		return sensorRig{
			sensor: orientation.NewSensor(detector, orientation.AlwaysGranted{}, source, opts...),
			ui:     tui.Options{Simulator: tui.NewSimulator(source)},
		}, nil
	case sourceRemote:
		bridge := remote.New(cfg.remote, remote.WithLogger(logger.With().Str("component", "remote").Logger()))
		ln, err := bridge.Listen()
		if err != nil {
			return sensorRig{}, err
		}
		qr, err := bridge.QR()
		if err != nil {
			logger.Warn().Err(err).Msg("qr code unavailable")
		}
		return sensorRig{
			sensor:   orientation.NewSensor(detector, bridge.Permission(), bridge, opts...),
			bridge:   bridge,
			listener: ln,
			ui:       tui.Options{RemoteURL: bridge.URL(), RemoteQR: qr},
		}, nil
	default:
		return sensorRig{}, nil
	}
}
