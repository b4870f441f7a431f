package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/chordtracker/chordtracker/configs"
	"github.com/chordtracker/chordtracker/internal/app"
	"github.com/chordtracker/chordtracker/internal/timeline"
	"github.com/chordtracker/chordtracker/pkg/logging"
)

var (
	analyzeTimeout     time.Duration
	analyzeMinDuration time.Duration
	analyzeBatchSize   int
	analyzeKeys        bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Run chord estimation headless and print the timeline",
	Long: `Decode the file, extract CQT features, run the chord model and print
the resulting chord timeline without opening a window. Output format follows
the global --output flag (table, json, yaml, csv).`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 10*time.Minute,
		"overall timeout for the analysis")
	analyzeCmd.Flags().DurationVar(&analyzeMinDuration, "min-duration", 0,
		"minimum chord interval duration (overrides config when set)")
	analyzeCmd.Flags().IntVar(&analyzeBatchSize, "batch-size", 0,
		"inference batch size (overrides config when set)")
	analyzeCmd.Flags().BoolVar(&analyzeKeys, "keys", false,
		"include the estimated key timeline in the output")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := configs.LoadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("min-duration") {
		cfg.Timeline.MinDuration = analyzeMinDuration
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.Model.BatchSize = analyzeBatchSize
	}
	logger := logging.NewLogger(effectiveLogLevel())

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	result, err := application.AnalyzeFile(ctx, args[0])
	if err != nil {
		return err
	}

	tl := result.Timeline
	if !analyzeKeys {
		trimmed := *tl
		trimmed.Keys = nil
		tl = &trimmed
	}
	return printTimeline(os.Stdout, tl, cfg.OutputFormat)
}

// printTimeline renders the timeline in the requested format. The key
// timeline is included in every format when present; runAnalyze strips it
// unless --keys is set.
func printTimeline(out io.Writer, tl *timeline.Result, format string) error {
	switch format {
	case "json":
		raw, err := json.MarshalIndent(tl, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(raw))
	case "yaml":
		raw, err := yaml.Marshal(tl)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(raw))
	case "csv":
		w := csv.NewWriter(out)
		if err := w.Write([]string{"start", "end", "chord"}); err != nil {
			return err
		}
		for _, iv := range tl.Chords {
			record := []string{
				strconv.FormatFloat(iv.Start, 'f', 3, 64),
				strconv.FormatFloat(iv.End, 'f', 3, 64),
				iv.Chord,
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		if len(tl.Keys) > 0 {
			if err := w.Write([]string{"start", "end", "key"}); err != nil {
				return err
			}
			for _, kv := range tl.Keys {
				record := []string{
					strconv.FormatFloat(kv.Start, 'f', 3, 64),
					strconv.FormatFloat(kv.End, 'f', 3, 64),
					kv.Key,
				}
				if err := w.Write(record); err != nil {
					return err
				}
			}
		}
		w.Flush()
		return w.Error()
	case "table":
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "START\tEND\tCHORD")
		for _, iv := range tl.Chords {
			fmt.Fprintf(w, "%.3f\t%.3f\t%s\n", iv.Start, iv.End, iv.Chord)
		}
		if len(tl.Keys) > 0 {
			fmt.Fprintln(w, "\nSTART\tEND\tKEY")
			for _, kv := range tl.Keys {
				fmt.Fprintf(w, "%.3f\t%.3f\t%s\n", kv.Start, kv.End, kv.Key)
			}
		}
		return w.Flush()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
	return nil
}
