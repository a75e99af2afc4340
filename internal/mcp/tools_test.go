package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"talesim/internal/config"
	"talesim/internal/sim"
	"talesim/internal/store"
	"talesim/internal/worldfile"
)

const village = `
pronouns {
  she: she her her herself present
}
players {
  alice: Alice(she)[knight, mood:calm]
  bob: Bob()[]
}
relations {
  friends: undir { alice bob }
  fears: dir { bob alice }
}
world []
events {
  wave: { needs {
    a: []
  } chance 2/1 message {$a waves.} }
  rain: { world []+[wet] message {It rains.} }
}
`

type mockStore struct {
	recorded []store.RoundRecord

	searchResult []store.SearchResult
	searchErr    error

	lastQuery string
	lastEvent string
	lastLimit int
}

func (m *mockStore) Close(ctx context.Context) error        { return nil }
func (m *mockStore) EnsureSchema(ctx context.Context) error { return nil }

func (m *mockStore) RecordRound(ctx context.Context, rec store.RoundRecord) error {
	m.recorded = append(m.recorded, rec)
	return nil
}

func (m *mockStore) GetRound(ctx context.Context, number int) (*store.RoundRecord, error) {
	return nil, store.ErrNotFound
}

func (m *mockStore) ListRounds(ctx context.Context) ([]store.RoundSummary, error) {
	return nil, nil
}

func (m *mockStore) Search(ctx context.Context, query, eventName string, limit int) ([]store.SearchResult, error) {
	m.lastQuery = query
	m.lastEvent = eventName
	m.lastLimit = limit
	return m.searchResult, m.searchErr
}

func (m *mockStore) RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	return nil, nil
}

func newTestServer(t *testing.T, db store.Store) *Server {
	t.Helper()
	sc, err := worldfile.Parse(strings.NewReader(village), nil)
	if err != nil {
		t.Fatalf("parsing world: %v", err)
	}
	return NewServer(sc, 5, db, "test")
}

func TestGetWorld(t *testing.T) {
	server := newTestServer(t, nil)

	_, output, err := server.handleGetWorld(context.Background(), nil, GetWorldInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output.Text, "alice: Alice(she)[knight, mood:calm]") {
		t.Fatalf("unexpected world text:\n%s", output.Text)
	}
}

func TestListActors(t *testing.T) {
	server := newTestServer(t, nil)

	_, output, err := server.handleListActors(context.Background(), nil, ListActorsInput{Attribute: "knight"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Actors) != 1 || output.Actors[0].Key != "alice" || output.Actors[0].Pronouns != "she" {
		t.Fatalf("unexpected list output: %+v", output)
	}

	_, output, _ = server.handleListActors(context.Background(), nil, ListActorsInput{})
	if len(output.Actors) != 2 {
		t.Fatalf("expected every actor without a filter, got %+v", output)
	}
}

func TestGetActor(t *testing.T) {
	server := newTestServer(t, nil)

	_, output, err := server.handleGetActor(context.Background(), nil, GetActorInput{Key: "bob"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []RelationOutput{
		{Relation: "fears", Other: "alice", Direction: "outgoing"},
		{Relation: "friends", Other: "alice", Direction: "mutual"},
	}
	if len(output.Relations) != len(want) {
		t.Fatalf("relations = %+v, want %+v", output.Relations, want)
	}
	for i := range want {
		if output.Relations[i] != want[i] {
			t.Errorf("relation %d = %+v, want %+v", i, output.Relations[i], want[i])
		}
	}

	_, _, err = server.handleGetActor(context.Background(), nil, GetActorInput{Key: "zed"})
	if !errors.Is(err, sim.ErrUnknownActor) {
		t.Fatalf("expected ErrUnknownActor, got %v", err)
	}
}

func TestListEvents(t *testing.T) {
	server := newTestServer(t, nil)

	_, output, err := server.handleListEvents(context.Background(), nil, ListEventsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Events) != 2 || output.Events[0].Name != "rain" || output.Events[1].Slots[0] != "a" {
		t.Fatalf("unexpected events output: %+v", output)
	}
}

func TestRunRoundRecords(t *testing.T) {
	db := &mockStore{}
	server := newTestServer(t, db)

	_, output, err := server.handleRunRound(context.Background(), nil, RunRoundInput{Rounds: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Rounds) != 2 || output.Rounds[1].Round != 2 {
		t.Fatalf("unexpected rounds output: %+v", output)
	}
	if len(output.Rounds[0].Messages) != 3 {
		t.Fatalf("expected both waves and the rain, got %v", output.Rounds[0].Messages)
	}

	_, output, _ = server.handleRunRound(context.Background(), nil, RunRoundInput{})
	if output.Rounds[0].Round != 3 {
		t.Fatalf("round numbering should continue across calls, got %d", output.Rounds[0].Round)
	}
	if len(db.recorded) != 3 || db.recorded[0].Seed != 5 {
		t.Fatalf("unexpected records: %+v", db.recorded)
	}

	if _, _, err := server.handleRunRound(context.Background(), nil, RunRoundInput{Rounds: maxRoundsPerCall + 1}); err == nil {
		t.Fatalf("expected an error for too many rounds")
	}
}

func TestTryEvent(t *testing.T) {
	server := newTestServer(t, nil)

	_, output, err := server.handleTryEvent(context.Background(), nil, TryEventInput{Event: "wave", Slots: map[string]string{"a": "bob"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Message != "Bob waves." {
		t.Fatalf("message = %q", output.Message)
	}

	_, _, err = server.handleTryEvent(context.Background(), nil, TryEventInput{Event: "dance"})
	if !errors.Is(err, sim.ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestSearchChronicle(t *testing.T) {
	db := &mockStore{
		searchResult: []store.SearchResult{{Round: 4, Event: "wave", Message: "Bob waves.", Snippet: "Bob **waves**.", Score: 1.5}},
	}
	server := newTestServer(t, db)

	_, output, err := server.handleSearchChronicle(context.Background(), nil, SearchChronicleInput{Query: "waves", Event: "wave", Limit: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Results) != 1 || output.Results[0].Round != 4 {
		t.Fatalf("unexpected search output: %+v", output)
	}
	if db.lastQuery != "waves" || db.lastEvent != "wave" || db.lastLimit != 3 {
		t.Fatalf("unexpected search params")
	}

	if _, _, err := newTestServer(t, nil).handleSearchChronicle(context.Background(), nil, SearchChronicleInput{Query: "x"}); err == nil {
		t.Fatalf("expected an error without an index")
	}
}

func TestValidateWorld(t *testing.T) {
	server := newTestServer(t, nil)

	_, output, err := server.handleValidateWorld(context.Background(), nil, ValidateWorldInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Errors) != 0 || len(output.Warnings) != 1 || output.Warnings[0].Code != "missing_pronouns" {
		t.Fatalf("unexpected report: %+v", output)
	}

	server.UseVocabulary(&config.Vocabulary{Version: 1})
	_, output, _ = server.handleValidateWorld(context.Background(), nil, ValidateWorldInput{})
	if len(output.Warnings) < 2 {
		t.Fatalf("expected vocabulary warnings, got %+v", output.Warnings)
	}
}
