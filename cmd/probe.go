package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chordtracker/chordtracker/configs"
	"github.com/chordtracker/chordtracker/pkg/audio"
	"github.com/chordtracker/chordtracker/pkg/logging"
)

var probeTimeout time.Duration

var probeCmd = &cobra.Command{
	Use:   "probe [file]",
	Short: "Decode an audio file and print its properties",
	Long: `Decode the file without running any analysis and report container
format, sample rate, channel layout, duration and basic level statistics.
Useful to check whether a file is loadable before a full analysis.`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", time.Minute,
		"timeout for decoding")
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := configs.LoadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	logger := logging.NewLogger(effectiveLogLevel())
	loader := audio.NewLoader(cfg.Audio.SampleRate, logger)

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	info, wave, err := loader.Probe(ctx, args[0])
	if err != nil {
		return err
	}

	peak, rms := levelStats(wave)

	if cfg.OutputFormat == "json" {
		out, err := json.MarshalIndent(map[string]any{
			"info": info,
			"peak": peak,
			"rms":  rms,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "path\t%s\n", info.Path)
	fmt.Fprintf(w, "format\t%s\n", info.Format)
	fmt.Fprintf(w, "sample rate\t%d Hz\n", info.SampleRate)
	fmt.Fprintf(w, "channels\t%d\n", info.Channels)
	fmt.Fprintf(w, "frames\t%d\n", info.Frames)
	fmt.Fprintf(w, "duration\t%s\n", info.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "peak\t%.4f\n", peak)
	fmt.Fprintf(w, "rms\t%.4f\n", rms)
	return w.Flush()
}

func levelStats(w *audio.Waveform) (peak, rms float64) {
	samples := w.Samples()
	if len(samples) == 0 {
		return 0, 0
	}
	var sum float64
	for _, s := range samples {
		v := math.Abs(float64(s))
		if v > peak {
			peak = v
		}
		sum += v * v
	}
	return peak, math.Sqrt(sum / float64(len(samples)))
}
