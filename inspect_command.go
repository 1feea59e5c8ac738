package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"animvid/config"
	"animvid/decoder"
	"animvid/models"
	"animvid/normalize"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newInspectCommand(settingsPath *string) *cobra.Command {
	var fps int
	var resolution string

	cmd := &cobra.Command{
		Use:   "inspect <file>...",
		Short: "Show frame count, size and duration of animated images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings(*settingsPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("fps") {
				fps = settings.FPS
			}
			if !cmd.Flags().Changed("resolution") {
				resolution = settings.Resolution
			}
			policy, err := models.ParseResolution(resolution)
			if err != nil {
				return err
			}
			return inspectFiles(cmd.Context(), cmd.OutOrStdout(), decoder.Imaging{}, args, fps, policy)
		},
	}
	cmd.Flags().IntVar(&fps, "fps", 0, "Frame rate used for the duration column")
	cmd.Flags().StringVarP(&resolution, "resolution", "r", "", "Resolution policy used for the output column")
	return cmd
}

func inspectFiles(ctx context.Context, w io.Writer, d decoder.Decoder, paths []string, fps int, policy models.ResolutionPolicy) error {
	var rows [][]string
	var totalFrames int
	var totalBytes int64
	for _, p := range paths {
		src, err := decoder.Inspect(ctx, d, p)
		if err != nil {
			rows = append(rows, []string{p, "-", "-", "-", "-", "-", err.Error()})
			continue
		}
		tw, th := normalize.Target(policy, src.Width, src.Height)
		rows = append(rows, []string{
			src.Path,
			humanize.Bytes(uint64(src.SizeBytes)),
			strconv.Itoa(src.FrameCount),
			fmt.Sprintf("%dx%d", src.Width, src.Height),
			fmt.Sprintf("%dx%d", tw, th),
			playDuration(src.FrameCount, fps).String(),
			"",
		})
		totalFrames += src.FrameCount
		totalBytes += src.SizeBytes
	}

	fmt.Fprintln(w, renderTable(
		[]string{"File", "Size", "Frames", "Native", "Output", "Duration", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
	fmt.Fprintf(w, "%d file(s), %s frames, %s at %d fps\n",
		len(paths), humanize.Comma(int64(totalFrames)), humanize.Bytes(uint64(totalBytes)), fps)
	return nil
}

func playDuration(frames, fps int) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(fps)
}
