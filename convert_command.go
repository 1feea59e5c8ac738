package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"animvid/config"
	"animvid/decoder"
	"animvid/encoder"
	"animvid/history"
	"animvid/job"
	"animvid/logger"
	"animvid/models"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const (
	minCLIQuality = 18
	maxCLIQuality = 30
	maxCLIFPS     = 60
)

type convertOptions struct {
	fps        int
	format     string
	quality    int
	resolution string
	outputDir  string
	combine    bool
	save       bool
	noHistory  bool
}

func newConvertCommand(settingsPath *string) *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert <file>...",
		Short: "Convert animated images to video or GIF",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := resolveSettings(cmd, *settingsPath, opts)
			if err != nil {
				return err
			}
			if opts.save {
				if err := config.SaveSettings(*settingsPath, settings); err != nil {
					return err
				}
				logger.Infof("Saved settings to %s", *settingsPath)
			}

			jobSettings, err := settings.JobSettings()
			if err != nil {
				return err
			}
			jobSettings.Combine = opts.combine
			j := models.ConversionJob{Inputs: absPaths(args), Settings: jobSettings}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			encoder.Default.RegisterDefaults(config.GetFFmpegBinary())
			runner := job.NewRunner(decoder.Imaging{}, encoder.Default)
			if !opts.noHistory {
				if store, err := history.Open(config.GetHistoryDBPath()); err != nil {
					logger.Warnf("History not recorded: %v", err)
				} else {
					defer store.Close()
					runner.Recorder = store
				}
			}

			res, err := runWithProgress(ctx, runner, j, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			if res.Outcome() == models.OutcomeFailure {
				if res.Err != nil {
					return res.Err
				}
				return errors.New(res.Summary())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.fps, "fps", 0, "Frame rate (1-60)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: mp4, mkv, webm, mov or gif")
	cmd.Flags().IntVarP(&opts.quality, "quality", "q", 0, "Video quality as CRF (18-30, lower is better)")
	cmd.Flags().StringVarP(&opts.resolution, "resolution", "r", "", `"Same Resolution", 480p, 720p, 1080p, 4K or WxH`)
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Output directory")
	cmd.Flags().BoolVar(&opts.combine, "combine", false, "Concatenate all inputs into one output")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Save the given settings as the new defaults")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not record the job in the history database")

	return cmd
}

// resolveSettings applies the flags the user set on top of the persisted
// settings.
func resolveSettings(cmd *cobra.Command, settingsPath string, opts convertOptions) (config.Settings, error) {
	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return settings, err
	}

	flags := cmd.Flags()
	if flags.Changed("fps") {
		if opts.fps < 1 || opts.fps > maxCLIFPS {
			return settings, fmt.Errorf("--fps must be within 1..%d", maxCLIFPS)
		}
		settings.FPS = opts.fps
	}
	if flags.Changed("format") {
		f, err := models.ParseFormat(opts.format)
		if err != nil {
			return settings, err
		}
		settings.Format = string(f)
	}
	if flags.Changed("quality") {
		if opts.quality < minCLIQuality || opts.quality > maxCLIQuality {
			return settings, fmt.Errorf("--quality must be within %d..%d", minCLIQuality, maxCLIQuality)
		}
		settings.Quality = opts.quality
	}
	if flags.Changed("resolution") {
		r, err := models.ParseResolution(opts.resolution)
		if err != nil {
			return settings, err
		}
		settings.Resolution = r.String()
	}
	if flags.Changed("output") {
		abs, err := filepath.Abs(opts.outputDir)
		if err != nil {
			return settings, err
		}
		settings.OutputDir = abs
	}
	return settings, nil
}

func runWithProgress(ctx context.Context, runner *job.Runner, j models.ConversionJob, w io.Writer) (models.Result, error) {
	const steps = 1000
	bar := progressbar.NewOptions(steps,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetDescription("starting"),
		progressbar.OptionClearOnFinish(),
	)

	events := make(chan models.Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range events {
			switch e.Kind {
			case models.EventAdvisory:
				bar.Clear()
				fmt.Fprintf(w, "note: %s\n", e.Message)
			case models.EventSourceError:
				bar.Clear()
				fmt.Fprintf(w, "error: %s\n", e.Message)
			case models.EventDone:
				bar.Set(int(e.Fraction * steps))
				bar.Finish()
				continue
			}
			bar.Describe(e.Stage)
			bar.Set(int(e.Fraction * steps))
		}
	}()

	res, err := runner.Run(ctx, j, events)
	close(events)
	<-done
	return res, err
}

func printResult(w io.Writer, res models.Result) {
	for _, out := range res.Outputs {
		fmt.Fprintf(w, "%s (%d frames)\n", out.Path, out.FrameCount)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "failed: %s: %s\n", e.Source, e.Error)
	}
	fmt.Fprintln(w, res.Summary())
}

func absPaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			out[i] = abs
		} else {
			out[i] = p
		}
	}
	return out
}
