package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"drumviz/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded render runs",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					statusText(run),
					humanize.Time(run.StartedAt),
					elapsedText(run),
					strconv.Itoa(run.FrameCount),
					sizeText(run.OutputBytes),
					fmt.Sprintf("%d/%d", run.SubstitutedCount, run.SegmentCount),
					filepath.Base(run.OutputPath),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Status", "Started", "Elapsed", "Frames", "Size", "Silent", "Output"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show one run and its segment diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := resolveRun(cmd, store, args[0])
			if err != nil {
				return err
			}
			diags, err := store.Diagnostics(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run:       %s\n", run.ID)
			fmt.Fprintf(out, "Status:    %s\n", statusText(run))
			fmt.Fprintf(out, "Output:    %s\n", run.OutputPath)
			if run.ConfigPath != "" {
				fmt.Fprintf(out, "Config:    %s\n", run.ConfigPath)
			}
			fmt.Fprintf(out, "Started:   %s (%s)\n", run.StartedAt.Local().Format(time.DateTime), humanize.Time(run.StartedAt))
			fmt.Fprintf(out, "Elapsed:   %s\n", elapsedText(run))
			fmt.Fprintf(out, "Segments:  %d (%d silent)\n", run.SegmentCount, run.SubstitutedCount)
			if run.Status == history.StatusSucceeded {
				fmt.Fprintf(out, "Frames:    %d (%.2fs)\n", run.FrameCount, run.DurationSeconds)
				fmt.Fprintf(out, "Size:      %s\n", sizeText(run.OutputBytes))
			}
			if run.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:     %s\n", run.ErrorMessage)
			}
			if len(diags) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(diags))
			for _, d := range diags {
				rows = append(rows, []string{strconv.Itoa(d.SegmentIndex + 1), d.Source, d.Message})
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderTable([]string{"Segment", "Source", "Diagnostic"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft}))
			return nil
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs that started before a cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d %s older than %s\n", removed, pluralRuns(removed), olderThan)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age cutoff")
	return cmd
}

// resolveRun accepts a full run ID or a unique prefix of one.
func resolveRun(cmd *cobra.Command, store *history.Store, id string) (*history.Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("run id is required")
	}
	run, err := store.Get(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if run != nil {
		return run, nil
	}
	runs, err := store.List(cmd.Context(), 0)
	if err != nil {
		return nil, err
	}
	var matches []*history.Run
	for _, r := range runs {
		if strings.HasPrefix(r.ID, id) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("run %s not found", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("run prefix %s is ambiguous (%d matches)", id, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func statusText(run *history.Run) string {
	if run.Status == history.StatusFailed && run.ErrorKind != "" {
		return fmt.Sprintf("%s (%s)", run.Status, run.ErrorKind)
	}
	return string(run.Status)
}

func elapsedText(run *history.Run) string {
	if run.FinishedAt == nil {
		return "-"
	}
	return run.Elapsed().Round(time.Millisecond).String()
}

func sizeText(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(n))
}

func pluralRuns(n int64) string {
	if n == 1 {
		return "run"
	}
	return "runs"
}
