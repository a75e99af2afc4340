package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"talesim/internal/config"
)

const sampleWorld = `pronouns {
  he: he him his himself present
  she: she her her herself present
  they: they them their themselves present
}
players {
  ada: Ada(she)[smith, mood:calm]
  bram: Bram(he)[farmer, mood:calm]
  cy: Cy(they)[farmer]
}
relations {
  friends: undir {
  }
  owes: dir {
  }
}
world [spring]
events {
  meet: { needs {
    a: []
    b: []
  } rel { !a:friends:b +a:friends:b } chance 2/2 message {$a meets $b at the well. <(a)S> [(a)present=smiles/past=smiled].} }
  lend: { needs {
    giver: [mood:calm]
    taker: [farmer]
  } rel { giver:friends:taker +taker:owes:giver } chance 1/3 message {$giver lends $taker a plough.} }
  storm: { world [spring]+[stormy] chance 1/4 message {A storm rolls over the hills.} }
}
`

func initCmd() *cobra.Command {
	var projectName string
	var dir string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new talesim project",
		Args:  cobra.NoArgs,
		// Nothing to configure before the config exists.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(dir, projectName)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to create the project in")
	return cmd
}

func runInit(dir, projectName string) error {
	configPath := filepath.Join(dir, config.DefaultFile)
	worldPath := filepath.Join(dir, "world.tales")
	for _, p := range []string{configPath, worldPath} {
		if _, err := os.Stat(p); err == nil {
			return fmt.Errorf("%s already exists", p)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	configContents := fmt.Sprintf(`project: %s
version: 1
world: ./world.tales
rounds: 1

log:
  level: info
  format: text

chronicle:
  archive: ./chronicle
  index: "sqlite://:memory:"
`, projectName)
	if err := os.WriteFile(configPath, []byte(configContents), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.WriteFile(worldPath, []byte(sampleWorld), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", worldPath, err)
	}
	return nil
}
