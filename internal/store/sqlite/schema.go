package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS rounds (
		number      INTEGER PRIMARY KEY,
		seed        TEXT NOT NULL,
		events      TEXT NOT NULL DEFAULT '[]',
		messages    TEXT NOT NULL DEFAULT '[]',
		recorded_at TEXT DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS messages (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		round    INTEGER NOT NULL REFERENCES rounds(number) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		event    TEXT NOT NULL,
		message  TEXT NOT NULL,
		CONSTRAINT uq_message_position UNIQUE (round, position)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_round ON messages (round);
	CREATE INDEX IF NOT EXISTS idx_messages_event ON messages (event);

	CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
		message,
		event UNINDEXED,
		round UNINDEXED
	);
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}
	return nil
}

// splitStatements cuts ddl at semicolons ending a line. The schema has no
// trigger bodies, so no statement spans an inner semicolon.
func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
