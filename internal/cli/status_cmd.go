package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"rizesync/internal/storage"
)

const statusTimeLayout = "2006-01-02 15:04:05"

func newStatusCmd(g *globalFlags) *cobra.Command {
	var (
		limit   int
		runID   string
		noteKey string
		kind    string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent sync runs and the notes they wrote",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup(cmd, nil)
			if err != nil {
				return err
			}
			if cfg.LedgerPath == "" {
				return errors.New("sync ledger is disabled (ledger_path is empty)")
			}

			ctx := commandContext(cmd)
			repo, err := InitLedger(ctx, logger, cfg.LedgerPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			out := cmd.OutOrStdout()
			if noteKey != "" {
				n, err := repo.LatestNote(ctx, kind, noteKey)
				if errors.Is(err, storage.ErrNoteNotFound) {
					fmt.Fprintf(out, "Note %s %s was never synced.\n", kind, noteKey)
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Last synced %s in run %s:\n", localTime(n.SyncedAt), n.RunID)
				return printNotes(out, []storage.NoteSync{n})
			}

			runs, err := repo.RecentRuns(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No sync runs recorded yet.")
				return nil
			}
			if err := printRuns(out, runs); err != nil {
				return err
			}

			if runID == "" {
				runID = runs[0].ID
			}
			notes, err := repo.NotesForRun(ctx, runID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nNotes of run %s:\n", runID)
			return printNotes(out, notes)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "Show the notes of this run instead of the latest one")
	cmd.Flags().StringVar(&noteKey, "note", "", "Show the last outcome of one note, e.g. 2026-10-18 or 2026-W42")
	cmd.Flags().StringVar(&kind, "kind", "daily", "Note kind for --note: daily or weekly")

	return cmd
}

func printRuns(w io.Writer, runs []storage.SyncRun) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tMODE\tSTARTED\tFINISHED\tWRITTEN\tSKIPPED\tFAILED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.Mode, localTime(r.StartedAt), localTime(r.FinishedAt),
			r.NotesWritten, r.NotesSkipped, r.NotesFailed)
	}
	return tw.Flush()
}

func printNotes(w io.Writer, notes []storage.NoteSync) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tKIND\tNOTE\tDAYS\tWORK\tFOCUS\tERROR")
	for _, n := range notes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%ds\t%ds\t%s\n",
			n.Status, n.Kind, n.NoteKey, n.DaysWithData,
			n.WorkSeconds, n.FocusSeconds, n.Error)
	}
	return tw.Flush()
}

func localTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(statusTimeLayout)
}
