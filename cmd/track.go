package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chordtracker/chordtracker/configs"
	"github.com/chordtracker/chordtracker/internal/app"
	"github.com/chordtracker/chordtracker/internal/ui"
	"github.com/chordtracker/chordtracker/pkg/logging"
	"github.com/chordtracker/chordtracker/pkg/player"
)

var trackCmd = &cobra.Command{
	Use:   "track [file]",
	Short: "Open the GUI and analyze an audio file",
	Long: `Open the Chord Tracker window. If a file is given it is loaded and
analyzed immediately; otherwise use the OPEN button or the O key.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	cfg, err := configs.LoadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	logger := logging.NewLogger(effectiveLogLevel())

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	// A missing output device degrades to a silent session; the analysis
	// side of the app keeps working.
	var device player.Device
	if device, err = player.NewOtoDevice(cfg.Audio.SampleRate, 2); err != nil {
		logger.Warn("audio output unavailable, playback disabled", logging.Fields{
			"error": err.Error(),
		})
		device = nil
	}
	engine := player.NewEngine(device, logger)
	defer engine.Close()
	engine.SetVolume(cfg.Playback.Volume)

	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	return ui.New(application, engine, cfg, logger).Run(path)
}
