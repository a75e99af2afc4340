package main

import (
	"github.com/spf13/cobra"

	"talesim/internal/worldfile"
)

func (a *app) catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat",
		Short: "Read the world and write it back out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, _, err := a.loadScenario(cmd)
			if err != nil {
				return err
			}
			return worldfile.Write(cmd.OutOrStdout(), sc)
		},
	}
}
