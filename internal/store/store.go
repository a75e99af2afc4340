// Package store defines the chronicle index: a queryable record of the
// rounds a simulation has run.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	RecordRound(ctx context.Context, rec RoundRecord) error
	GetRound(ctx context.Context, number int) (*RoundRecord, error)
	ListRounds(ctx context.Context) ([]RoundSummary, error)
	Search(ctx context.Context, query, eventName string, limit int) ([]SearchResult, error)

	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}
