package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"talesim/internal/sim"
	"talesim/internal/worldfile"
)

func (a *app) tryEventCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "try-event <event> <slot>:<actor>...",
		Short: "Fire an event with manually chosen actors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assignments, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}

			sc, d, err := a.loadScenario(cmd)
			if err != nil {
				return err
			}
			msg, err := sim.TryEvent(sc, args[0], assignments, d)
			if err != nil {
				if errors.Is(err, sim.ErrUnknownEvent) {
					return fmt.Errorf("%w; the events are [%s]", err, strings.Join(sc.Events.Names(), ", "))
				}
				return err
			}

			out := cmd.OutOrStdout()
			if err := worldfile.Write(out, sc); err != nil {
				return err
			}
			fmt.Fprintln(out, "---")
			fmt.Fprintln(out, msg)
			return nil
		},
	}
}

// parseAssignments reads slot:actor pairs. A slot may be named once.
func parseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		slot, actor, ok := strings.Cut(pair, ":")
		if !ok || slot == "" || actor == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected slot:actor", pair)
		}
		if _, dup := out[slot]; dup {
			return nil, fmt.Errorf("slot %s is assigned more than once", slot)
		}
		out[slot] = actor
	}
	return out, nil
}

func (a *app) tryEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "try-events",
		Short: "Render every event once, ignoring predicates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, d, err := a.loadScenario(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range sim.TryEvents(sc.Clone(), d) {
				fmt.Fprintln(out, f.Message)
			}
			return nil
		},
	}
}
