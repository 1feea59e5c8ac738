package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"animvid/config"
	"animvid/history"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var jobID, prefix string
	var prune int

	cmd := &cobra.Command{
		Use:       "history <success|failures>",
		Short:     "List finished conversion jobs",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"success", "failures"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := history.ParseKind(args[0])
			if err != nil {
				return err
			}
			store, err := history.Open(config.GetHistoryDBPath())
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if prune > 0 {
				n, err := store.CleanupOldRecords(ageInDays(prune))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "removed %d record(s)\n", n)
			}
			if jobID != "" {
				rec, err := store.Get(kind, jobID)
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("no %s record for job %s", kind, jobID)
				}
				printRecord(out, *rec)
				return nil
			}

			records, err := store.List(kind, prefix)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderHistory(records))
			return nil
		},
	}
	cmd.Flags().StringVar(&jobID, "job", "", "Show one job in detail")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Only jobs whose id starts with this")
	cmd.Flags().IntVar(&prune, "prune", 0, "Remove records older than this many days first")
	return cmd
}

func renderHistory(records []history.Record) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.JobID,
			humanize.Time(rec.Timestamp),
			string(rec.Outcome),
			rec.Summary,
			strconv.Itoa(len(rec.Outputs)),
		})
	}
	return renderTable(
		[]string{"Job", "When", "Outcome", "Summary", "Outputs"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}

func printRecord(w io.Writer, rec history.Record) {
	fmt.Fprintf(w, "Job:      %s\n", rec.JobID)
	fmt.Fprintf(w, "Finished: %s (%s)\n", rec.Timestamp.Format("2006-01-02 15:04:05"), humanize.Time(rec.Timestamp))
	fmt.Fprintf(w, "Outcome:  %s, %s\n", rec.Outcome, rec.Summary)
	if rec.LastStage != "" {
		fmt.Fprintf(w, "Stage:    %s\n", rec.LastStage)
	}
	if rec.Error != "" {
		fmt.Fprintf(w, "Error:    %s\n", rec.Error)
	}
	for _, out := range rec.Outputs {
		fmt.Fprintf(w, "Output:   %s (%d frames)\n", out.Path, out.FrameCount)
	}
	for _, e := range rec.Errors {
		fmt.Fprintf(w, "Failed:   %s: %s\n", e.Source, e.Error)
	}
	for _, a := range rec.Advisories {
		fmt.Fprintf(w, "Note:     %s\n", a)
	}
}

func ageInDays(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
