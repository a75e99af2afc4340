package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"talesim/internal/mcp"
)

// stdin carries the protocol, so the world must come from a file.
var errNoWorldForServe = errors.New("serve needs a world file via --world or the config")

func (a *app) serveCmd() *cobra.Command {
	var seed uint64
	var index string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if a.worldPath == "-" || (a.worldPath == "" && a.cfg.World == "") {
				return errNoWorldForServe
			}
			sc, _, err := a.loadScenario(cmd)
			if err != nil {
				return err
			}
			vocab, err := a.vocabulary("")
			if err != nil {
				return err
			}

			db, err := a.openIndex(ctx, index)
			if err != nil {
				return err
			}
			defer db.Close(ctx)

			server := mcp.NewServer(sc, a.seed(cmd, seed), db, version)
			if vocab != nil {
				server.UseVocabulary(vocab)
			}
			a.logger.Info("serving over stdio")
			return server.Run(ctx, &sdk.StdioTransport{})
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (default from config, else random)")
	cmd.Flags().StringVar(&index, "index", "", "Chronicle index DSN (default from config)")
	return cmd
}
