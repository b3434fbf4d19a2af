package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheApexWu/suzerain/internal/share"
	"github.com/TheApexWu/suzerain/internal/store"
)

// NewShareCommand creates the 'suzerain share' command
func NewShareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Preview or send your anonymous governance profile",
		Long: `Share builds an anonymous aggregate of your cached classification:
counts, rates and the archetype. No commands, paths, project names or
session ids are included, and the payload is checked against a strict
schema before anything is sent.

Without flags the payload is only printed. Use --confirm to send it.
Payloads that fail to send are kept and retried on the next share.`,
		Args: cobra.NoArgs,
		RunE: runShare,
	}

	cmd.Flags().Bool("preview", false, "print the payload without sending (default)")
	cmd.Flags().Bool("confirm", false, "send the payload to the configured endpoint")
	cmd.MarkFlagsMutuallyExclusive("preview", "confirm")

	return cmd
}

func runShare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd, cfg)
	out := cmd.OutOrStdout()
	confirm, _ := cmd.Flags().GetBool("confirm")

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	rec, err := st.Latest(ctx, cfg.ResolveUserID())
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no classification cached, run 'suzerain analyze' first")
	}
	if err != nil {
		return err
	}

	payload, err := share.FromReport(&rec.Report, Version)
	if err != nil {
		return err
	}

	if !confirm {
		data, err := payload.JSON()
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		fmt.Fprintln(out, string(data))
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Nothing was sent. Run 'suzerain share --confirm' to send this to %s\n", cfg.Share.Endpoint)
		return nil
	}

	if err := shareReport(ctx, cfg, log, &rec.Report); err != nil {
		return fmt.Errorf("share profile: %w", err)
	}
	label := payload.Classification.Archetype
	if label == "" {
		label = payload.Classification.Status
	}
	fmt.Fprintf(out, "Shared profile (%s, %d sessions).\n", label, payload.Summary.Sessions)
	return nil
}
