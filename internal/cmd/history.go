package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/TheApexWu/suzerain/internal/display"
)

// NewHistoryCommand creates the 'suzerain history' command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous classifications",
		Long: `History lists cached analysis runs for the current user, newest first.
--prune keeps only the newest N runs.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().IntP("limit", "n", 10, "number of runs to show (0 for all)")
	cmd.Flags().Int("prune", -1, "delete all but the newest N runs")
	cmd.Flags().Bool("json", false, "print as JSON")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	limit, _ := cmd.Flags().GetInt("limit")
	prune, _ := cmd.Flags().GetInt("prune")
	asJSON, _ := cmd.Flags().GetBool("json")

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	user := cfg.ResolveUserID()

	if prune >= 0 {
		deleted, err := st.Prune(ctx, user, prune)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Pruned %d runs, kept the newest %d.\n", deleted, prune)
		return nil
	}

	entries, err := st.History(ctx, user, limit)
	if err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("encode history: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintf(out, "No runs recorded for %s. Run 'suzerain analyze' first.\n", user)
		return nil
	}

	colored := display.ColorEnabled(out)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tARCHETYPE\tCONFIDENCE\tTRUST\tSOPH\tVARIANCE\tSESSIONS\tEVENTS")
	for _, e := range entries {
		archetype := display.ArchetypeLabel(e.Archetype, colored)
		if e.Archetype == "" {
			archetype = e.Status
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%d\t%d\n",
			e.ComputedAt.Local().Format(time.DateTime), archetype, e.Confidence,
			e.Trust, e.Sophistication, e.Variance, e.Sessions, e.Events)
	}
	return tw.Flush()
}
