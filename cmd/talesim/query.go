package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"talesim/internal/sim"
)

func (a *app) queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Inspect the world from the CLI",
	}
	cmd.AddCommand(a.queryActorCmd())
	cmd.AddCommand(a.queryRelationsCmd())
	return cmd
}

func (a *app) queryActorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actor <key>",
		Short: "Display an actor and its properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, _, err := a.loadScenario(cmd)
			if err != nil {
				return err
			}
			w := sc.World
			actor, ok := w.Actors.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", sim.ErrUnknownActor, args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Key: %s\n", args[0])
			fmt.Fprintf(out, "Name: %s\n", actor.Name)
			if p := w.Pronouns.Name(actor.Pronouns); p != "" {
				fmt.Fprintf(out, "Pronouns: %s\n", p)
			}
			if attrs := actor.Attrs.Sorted(); len(attrs) > 0 {
				fmt.Fprintf(out, "Attributes: %s\n", strings.Join(attrs, ", "))
			}
			if len(actor.Props) == 0 {
				return nil
			}
			fmt.Fprintln(out, "Properties:")
			for _, key := range slices.Sorted(maps.Keys(actor.Props)) {
				fmt.Fprintf(out, "  %s: %s\n", key, actor.Props[key])
			}
			return nil
		},
	}
}

func (a *app) queryRelationsCmd() *cobra.Command {
	var relation string
	cmd := &cobra.Command{
		Use:   "relations <key>",
		Short: "List the relations an actor takes part in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, _, err := a.loadScenario(cmd)
			if err != nil {
				return err
			}
			w := sc.World
			id, ok := w.Actors.Lookup(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", sim.ErrUnknownActor, args[0])
			}

			var lines []string
			for name, rel := range w.Relations.All() {
				if relation != "" && name != relation {
					continue
				}
				for _, e := range rel.Edges() {
					switch {
					case !rel.Directional && e.Left == id:
						lines = append(lines, fmt.Sprintf("%s -- %s -- %s", args[0], name, w.ActorKey(e.Right)))
					case rel.Directional && e.Left == id:
						lines = append(lines, fmt.Sprintf("%s -> %s -> %s", args[0], name, w.ActorKey(e.Right)))
					case rel.Directional && e.Right == id:
						lines = append(lines, fmt.Sprintf("%s <- %s <- %s", args[0], name, w.ActorKey(e.Left)))
					}
				}
			}

			out := cmd.OutOrStdout()
			if len(lines) == 0 {
				fmt.Fprintf(out, "No relations found for %q.\n", args[0])
				return nil
			}
			slices.Sort(lines)
			for _, line := range slices.Compact(lines) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&relation, "relation", "", "Only this relation")
	return cmd
}
