package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"talesim/internal/store"
)

// RecordRound stores rec, replacing any earlier record with the same round
// number. Each non-empty message is indexed for full-text search.
func (c *Client) RecordRound(ctx context.Context, rec store.RoundRecord) error {
	events := rec.Events
	if events == nil {
		events = []store.FiredEvent{}
	}
	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("marshaling events: %w", err)
	}
	messages := rec.Messages
	if messages == nil {
		messages = []string{}
	}
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshaling messages: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages_fts WHERE round = ?`, rec.Number); err != nil {
		return fmt.Errorf("clearing search index for round %d: %w", rec.Number, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE round = ?`, rec.Number); err != nil {
		return fmt.Errorf("clearing messages for round %d: %w", rec.Number, err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO rounds (number, seed, events, messages)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (number) DO UPDATE SET
		seed = excluded.seed,
		events = excluded.events,
		messages = excluded.messages,
		recorded_at = datetime('now')
	`, rec.Number, strconv.FormatUint(rec.Seed, 10), string(eventsJSON), string(messagesJSON))
	if err != nil {
		return fmt.Errorf("upserting round %d: %w", rec.Number, err)
	}

	for pos, fe := range rec.Events {
		if fe.Message == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (round, position, event, message) VALUES (?, ?, ?, ?)`,
			rec.Number, pos, fe.Event, fe.Message); err != nil {
			return fmt.Errorf("inserting message %d of round %d: %w", pos, rec.Number, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages_fts (message, event, round) VALUES (?, ?, ?)`,
			fe.Message, fe.Event, rec.Number); err != nil {
			return fmt.Errorf("indexing message %d of round %d: %w", pos, rec.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing round %d: %w", rec.Number, err)
	}
	c.logger.Debug("recorded round", "round", rec.Number, "events", len(rec.Events))
	return nil
}

func (c *Client) GetRound(ctx context.Context, number int) (*store.RoundRecord, error) {
	var seed, eventsJSON, messagesJSON string
	err := c.db.QueryRowContext(ctx,
		`SELECT seed, events, messages FROM rounds WHERE number = ?`, number,
	).Scan(&seed, &eventsJSON, &messagesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("round %d: %w", number, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting round %d: %w", number, err)
	}

	rec := &store.RoundRecord{Number: number}
	if rec.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return nil, fmt.Errorf("parsing seed of round %d: %w", number, err)
	}
	if err := json.Unmarshal([]byte(eventsJSON), &rec.Events); err != nil {
		return nil, fmt.Errorf("unmarshaling events of round %d: %w", number, err)
	}
	if err := json.Unmarshal([]byte(messagesJSON), &rec.Messages); err != nil {
		return nil, fmt.Errorf("unmarshaling messages of round %d: %w", number, err)
	}
	return rec, nil
}

func (c *Client) ListRounds(ctx context.Context) ([]store.RoundSummary, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT number, seed, json_array_length(events), json_array_length(messages)
	FROM rounds
	ORDER BY number ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing rounds: %w", err)
	}
	defer rows.Close()

	summaries := []store.RoundSummary{}
	for rows.Next() {
		var s store.RoundSummary
		var seed string
		if err := rows.Scan(&s.Number, &seed, &s.Events, &s.Messages); err != nil {
			return nil, fmt.Errorf("scanning round: %w", err)
		}
		if s.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
			return nil, fmt.Errorf("parsing seed of round %d: %w", s.Number, err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rounds: %w", err)
	}
	return summaries, nil
}
