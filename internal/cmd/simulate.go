package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TheApexWu/suzerain/internal/features"
	"github.com/TheApexWu/suzerain/internal/simulation"
)

// NewSimulateCommand creates the 'suzerain simulate' command
func NewSimulateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate [persona...]",
		Short: "Check the classifier against synthetic personas",
		Long: `Simulate generates sessions for built-in personas, classifies each
session and the persona as a whole, and reports how often the expected
archetype is recovered. With no persona arguments every persona runs.

--out writes the synthetic sessions as Claude Code JSONL so they can be fed
back through 'suzerain analyze --logs-dir'.`,
		RunE: runSimulate,
	}

	cmd.Flags().Bool("list", false, "list the built-in personas")
	cmd.Flags().Int("sessions", 50, "sessions to generate per persona")
	cmd.Flags().Uint64("seed", 42, "random seed")
	cmd.Flags().String("out", "", "write sessions as JSONL under this directory")
	cmd.Flags().Bool("json", false, "print recovery results as JSON")

	return cmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if list, _ := cmd.Flags().GetBool("list"); list {
		printPersonas(out)
		return nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd, cfg)

	n, _ := cmd.Flags().GetInt("sessions")
	seed, _ := cmd.Flags().GetUint64("seed")
	outDir, _ := cmd.Flags().GetString("out")
	asJSON, _ := cmd.Flags().GetBool("json")

	personas, err := selectPersonas(args)
	if err != nil {
		return err
	}

	results := make([]simulation.Recovery, 0, len(personas))
	for i, p := range personas {
		sim, err := simulation.New(p, simulation.WithSeed(seed), simulation.WithToolClasses(cfg.Features.ToolClasses))
		if err != nil {
			return err
		}
		sessions, err := sim.Simulate(n)
		if err != nil {
			return err
		}
		if outDir != "" {
			files, err := simulation.WriteJSONL(outDir, sessions)
			if err != nil {
				return err
			}
			log.LogDebug(fmt.Sprintf("%s: wrote %d session files", p.Key, files))
		}

		plain := make([]features.Session, len(sessions))
		for j, s := range sessions {
			plain[j] = s.Session
		}
		results = append(results, simulation.EvaluateWith(cfg, p, plain))
		log.LogProgress("Simulating", i+1, len(personas))
	}

	if asJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	printRecovery(out, results)
	if outDir != "" {
		fmt.Fprintf(out, "\nSessions written to %s\n", outDir)
	}
	return nil
}

func selectPersonas(keys []string) ([]simulation.Persona, error) {
	if len(keys) == 0 {
		return simulation.Personas(), nil
	}
	personas := make([]simulation.Persona, 0, len(keys))
	for _, key := range keys {
		p, ok := simulation.LookupPersona(key)
		if !ok {
			return nil, fmt.Errorf("unknown persona %q, see 'suzerain simulate --list'", key)
		}
		personas = append(personas, p)
	}
	return personas, nil
}

func printPersonas(out io.Writer) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tEXPECTED\tDESCRIPTION")
	for _, p := range simulation.Personas() {
		expected := string(p.ExpectedArchetype)
		if expected == "" {
			expected = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Key, p.Name, expected, p.Description)
	}
	tw.Flush()
}

func printRecovery(out io.Writer, results []simulation.Recovery) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PERSONA\tEXPECTED\tMODAL\tAGREEMENT\tUSER\tRECOVERED")
	for _, r := range results {
		expected, agreement, recovered := "-", "-", "-"
		if r.Expected != "" {
			expected = string(r.Expected)
			agreement = fmt.Sprintf("%.0f%%", 100*r.Agreement)
			recovered = "no"
			if r.UserRecovered() {
				recovered = "yes"
			}
		}
		user := string(r.User.Archetype)
		if !r.User.IsClassified() {
			user = "insufficient"
		}
		modal := string(r.Modal())
		if modal == "" {
			modal = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Persona, expected, modal, agreement, user, recovered)
	}
	tw.Flush()
}
