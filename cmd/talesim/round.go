package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"talesim/internal/chronicle"
	"talesim/internal/sim"
	"talesim/internal/worldfile"
)

func (a *app) roundCmd() *cobra.Command {
	var rounds int
	var seed uint64
	var archive string
	cmd := &cobra.Command{
		Use:   "round",
		Short: "Run rounds of simulation and print the world and narrative",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("rounds") {
				rounds = a.cfg.Rounds
			}
			if rounds < 0 {
				return fmt.Errorf("--rounds must not be negative")
			}
			if archive == "" {
				archive = a.cfg.Resolve(a.cfg.Chronicle.Archive)
			}
			return a.runRounds(cmd, rounds, a.seed(cmd, seed), archive)
		},
	}
	cmd.Flags().IntVarP(&rounds, "rounds", "n", 1, "Number of rounds to run")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (default from config, else random)")
	cmd.Flags().StringVar(&archive, "archive", "", "Directory to append round records to")
	return cmd
}

func (a *app) runRounds(cmd *cobra.Command, rounds int, seed uint64, archive string) error {
	sc, d, err := a.loadScenario(cmd)
	if err != nil {
		return err
	}

	results := sim.Run(sc, sim.NewRand(seed), rounds, d)
	a.logger.Debug("rounds resolved", "rounds", len(results), "seed", seed)

	if archive != "" {
		w := chronicle.NewWriter(archive, seed)
		for _, res := range results {
			if err := w.Write(sim.Record(seed, res)); err != nil {
				w.Close()
				return fmt.Errorf("archiving round %d: %w", res.Number, err)
			}
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("closing archive: %w", err)
		}
		a.logger.Info("archived rounds", "path", w.Path(), "rounds", len(results))
	}

	out := cmd.OutOrStdout()
	if err := worldfile.Write(out, sc); err != nil {
		return err
	}
	fmt.Fprintln(out, "---")
	for _, res := range results {
		for _, msg := range res.Messages {
			fmt.Fprintln(out, msg)
		}
	}
	return nil
}
