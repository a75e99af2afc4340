package sqlite

import (
	"context"
	"errors"
	"testing"

	"talesim/internal/store"
)

func TestConvertWebsearchToFTS5(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple term",
			input:    "knight",
			expected: "knight",
		},
		{
			name:     "multiple terms",
			input:    "brave knight",
			expected: "brave AND knight",
		},
		{
			name:     "explicit OR",
			input:    "knight OR squire",
			expected: "knight OR squire",
		},
		{
			name:     "negation",
			input:    "knight -dragon",
			expected: "knight NOT dragon",
		},
		{
			name:     "phrase with other term",
			input:    `"brave knight" castle`,
			expected: `"brave knight" AND castle`,
		},
		{
			name:     "prefix search",
			input:    "knig*",
			expected: "knig*",
		},
		{
			name:     "complex query",
			input:    `"brave knight" -dragon castle OR tower`,
			expected: `"brave knight" NOT dragon AND castle OR tower`,
		},
		{
			name:     "phrase after operator",
			input:    `castle OR "brave knight"`,
			expected: `castle OR "brave knight"`,
		},
		{
			name:     "lowercase operator",
			input:    "knight not dragon",
			expected: "knight NOT dragon",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := convertWebsearchToFTS5(tt.input)
			if result != tt.expected {
				t.Errorf("convertWebsearchToFTS5(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func openMemory(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	c, err := New(ctx, "sqlite://:memory:", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close(ctx) })
	if err := c.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return c
}

func sampleRound(number int, messages ...string) store.RoundRecord {
	rec := store.RoundRecord{Seed: 1<<63 + 5, Number: number}
	for _, m := range messages {
		rec.Events = append(rec.Events, store.FiredEvent{
			Event:   "greet",
			Slots:   map[string]string{"a": "alice"},
			Message: m,
		})
		if m != "" {
			rec.Messages = append(rec.Messages, m)
		}
	}
	return rec
}

func TestRecordAndGetRound(t *testing.T) {
	ctx := context.Background()
	c := openMemory(t)

	rec := sampleRound(1, "Alice greets the brave knight.", "")
	if err := c.RecordRound(ctx, rec); err != nil {
		t.Fatalf("RecordRound: %v", err)
	}

	got, err := c.GetRound(ctx, 1)
	if err != nil {
		t.Fatalf("GetRound: %v", err)
	}
	if got.Seed != rec.Seed {
		t.Errorf("seed = %d, want %d", got.Seed, rec.Seed)
	}
	if len(got.Events) != 2 || got.Events[0].Slots["a"] != "alice" {
		t.Errorf("events = %+v", got.Events)
	}
	if len(got.Messages) != 1 {
		t.Errorf("messages = %v, want one", got.Messages)
	}

	if _, err := c.GetRound(ctx, 9); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetRound(9) error = %v, want ErrNotFound", err)
	}
}

func TestRecordRoundReplaces(t *testing.T) {
	ctx := context.Background()
	c := openMemory(t)

	if err := c.RecordRound(ctx, sampleRound(1, "The knight rides out.")); err != nil {
		t.Fatal(err)
	}
	if err := c.RecordRound(ctx, sampleRound(1, "The baker sings.")); err != nil {
		t.Fatal(err)
	}
	if err := c.RecordRound(ctx, sampleRound(2, "A knight returns.", "Rain falls.")); err != nil {
		t.Fatal(err)
	}

	rounds, err := c.ListRounds(ctx)
	if err != nil {
		t.Fatalf("ListRounds: %v", err)
	}
	if len(rounds) != 2 {
		t.Fatalf("got %d rounds, want 2", len(rounds))
	}
	if rounds[1].Number != 2 || rounds[1].Events != 2 || rounds[1].Messages != 2 {
		t.Errorf("round 2 summary = %+v", rounds[1])
	}

	hits, err := c.Search(ctx, "knight", "", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Round != 2 {
		t.Errorf("hits = %+v, want only round 2", hits)
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	c := openMemory(t)

	rec := sampleRound(3, "The brave knight meets a dragon.", "The knight eats bread.")
	rec.Events[1].Event = "feast"
	if err := c.RecordRound(ctx, rec); err != nil {
		t.Fatal(err)
	}

	hits, err := c.Search(ctx, "knight -dragon", "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Event != "feast" {
		t.Errorf("hits = %+v", hits)
	}

	hits, err = c.Search(ctx, "knight", "greet", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Message != "The brave knight meets a dragon." {
		t.Errorf("filtered hits = %+v", hits)
	}
	if hits[0].Snippet == "" {
		t.Error("expected a snippet")
	}

	if _, err := c.Search(ctx, "  ", "", 10); err == nil {
		t.Error("expected an error for an empty query")
	}
}

func TestRunSQL(t *testing.T) {
	ctx := context.Background()
	c := openMemory(t)
	if err := c.RecordRound(ctx, sampleRound(4, "One.", "Two.")); err != nil {
		t.Fatal(err)
	}

	rows, err := c.RunSQL(ctx, "SELECT event, message FROM messages WHERE round = ? ORDER BY position", map[string]any{"1": 4})
	if err != nil {
		t.Fatalf("RunSQL: %v", err)
	}
	if len(rows) != 2 || rows[1]["message"] != "Two." {
		t.Errorf("rows = %v", rows)
	}

	for _, q := range []string{
		"DELETE FROM rounds",
		"SELECT 1; DROP TABLE rounds",
		"",
	} {
		if _, err := c.RunSQL(ctx, q, nil); !errors.Is(err, ErrNotReadOnly) {
			t.Errorf("RunSQL(%q) error = %v, want ErrNotReadOnly", q, err)
		}
	}
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn    string
		path   string
		memory bool
		err    bool
	}{
		{dsn: "sqlite://:memory:", path: ":memory:", memory: true},
		{dsn: "sqlite://chronicle.db", path: "./chronicle.db"},
		{dsn: "sqlite:///var/lib/talesim/index.db", path: "/var/lib/talesim/index.db"},
		{dsn: "sqlite://idx.db?_pragma=cache_size(100)", path: "./idx.db?_pragma=cache_size(100)"},
		{dsn: "postgres://localhost/x", err: true},
		{dsn: "sqlite://", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			path, memory, err := parseDSN(tt.dsn)
			if tt.err {
				if err == nil {
					t.Fatalf("parseDSN(%q) succeeded, want error", tt.dsn)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDSN(%q): %v", tt.dsn, err)
			}
			if path != tt.path || memory != tt.memory {
				t.Errorf("parseDSN(%q) = %q, %v; want %q, %v", tt.dsn, path, memory, tt.path, tt.memory)
			}
		})
	}
}
