package mcp

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"talesim/internal/diag"
	"talesim/internal/registry"
	"talesim/internal/sim"
	"talesim/internal/store"
	"talesim/internal/validate"
	"talesim/internal/world"
	"talesim/internal/worldfile"
)

const maxRoundsPerCall = 100

type GetWorldInput struct{}

type GetWorldOutput struct {
	Text string `json:"text"`
}

type ListActorsInput struct {
	Attribute string `json:"attribute,omitempty" jsonschema:"only actors carrying this attribute"`
}

type ActorSummaryOutput struct {
	Key        string   `json:"key"`
	Name       string   `json:"name"`
	Pronouns   string   `json:"pronouns,omitempty"`
	Attributes []string `json:"attributes"`
}

type ListActorsOutput struct {
	Actors []ActorSummaryOutput `json:"actors"`
}

type GetActorInput struct {
	Key string `json:"key" jsonschema:"actor key"`
}

// RelationOutput is one edge seen from an actor. Direction is outgoing or
// incoming for directed relations and mutual otherwise.
type RelationOutput struct {
	Relation  string `json:"relation"`
	Other     string `json:"other"`
	Direction string `json:"direction"`
}

type ActorOutput struct {
	Key        string            `json:"key"`
	Name       string            `json:"name"`
	Pronouns   string            `json:"pronouns,omitempty"`
	Attributes []string          `json:"attributes"`
	Properties map[string]string `json:"properties"`
	Relations  []RelationOutput  `json:"relations"`
}

type ListEventsInput struct{}

type EventOutput struct {
	Name         string   `json:"name"`
	Slots        []string `json:"slots"`
	Multiplicity int      `json:"multiplicity"`
	Unlikeliness int      `json:"unlikeliness"`
}

type ListEventsOutput struct {
	Events []EventOutput `json:"events"`
}

type RunRoundInput struct {
	Rounds int `json:"rounds,omitempty" jsonschema:"number of rounds to run, default 1"`
}

type RoundOutput struct {
	Round    int      `json:"round"`
	Messages []string `json:"messages"`
}

type IssueOutput struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

type RunRoundOutput struct {
	Rounds      []RoundOutput `json:"rounds"`
	Diagnostics []IssueOutput `json:"diagnostics,omitempty"`
}

type TryEventInput struct {
	Event string            `json:"event" jsonschema:"event name"`
	Slots map[string]string `json:"slots,omitempty" jsonschema:"actor key for every slot of the event"`
}

type TryEventOutput struct {
	Message     string        `json:"message"`
	Diagnostics []IssueOutput `json:"diagnostics,omitempty"`
}

type SearchChronicleInput struct {
	Query string `json:"query" jsonschema:"search terms"`
	Event string `json:"event,omitempty" jsonschema:"restrict to one event"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results"`
}

type SearchResultOutput struct {
	Round   int     `json:"round"`
	Event   string  `json:"event"`
	Message string  `json:"message"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

type SearchChronicleOutput struct {
	Results []SearchResultOutput `json:"results"`
}

type ValidateWorldInput struct{}

type ValidateWorldOutput struct {
	Errors   []IssueOutput `json:"errors"`
	Warnings []IssueOutput `json:"warnings"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_world",
		Description: "Return the current world in world-file syntax",
	}, s.handleGetWorld)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_actors",
		Description: "List actors with optional attribute filter",
	}, s.handleListActors)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_actor",
		Description: "Retrieve an actor with its properties and relations",
	}, s.handleGetActor)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_events",
		Description: "List events with their slots and chance",
	}, s.handleListEvents)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "run_round",
		Description: "Run one or more rounds and return the narrative",
	}, s.handleRunRound)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "try_event",
		Description: "Fire an event with explicit actors, ignoring its predicates",
	}, s.handleTryEvent)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_chronicle",
		Description: "Search the messages of rounds run in this session",
	}, s.handleSearchChronicle)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "validate_world",
		Description: "Check the world for consistency problems",
	}, s.handleValidateWorld)
}

func (s *Server) handleGetWorld(ctx context.Context, req *sdk.CallToolRequest, input GetWorldInput) (*sdk.CallToolResult, GetWorldOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := worldfile.Write(&buf, s.sc); err != nil {
		return nil, GetWorldOutput{}, err
	}
	return nil, GetWorldOutput{Text: buf.String()}, nil
}

func (s *Server) handleListActors(ctx context.Context, req *sdk.CallToolRequest, input ListActorsInput) (*sdk.CallToolResult, ListActorsOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.sc.World
	actors := make([]ActorSummaryOutput, 0, w.Actors.Len())
	for key, a := range w.Actors.All() {
		if input.Attribute != "" && !a.Attrs.Has(input.Attribute) {
			continue
		}
		actors = append(actors, actorSummary(w, key, a))
	}
	return nil, ListActorsOutput{Actors: actors}, nil
}

func (s *Server) handleGetActor(ctx context.Context, req *sdk.CallToolRequest, input GetActorInput) (*sdk.CallToolResult, ActorOutput, error) {
	if input.Key == "" {
		return nil, ActorOutput{}, fmt.Errorf("key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.sc.World
	id, ok := w.Actors.Lookup(input.Key)
	if !ok {
		return nil, ActorOutput{}, fmt.Errorf("%w: %s", sim.ErrUnknownActor, input.Key)
	}
	a, _ := w.Actor(id)

	summary := actorSummary(w, input.Key, a)
	out := ActorOutput{
		Key:        summary.Key,
		Name:       summary.Name,
		Pronouns:   summary.Pronouns,
		Attributes: summary.Attributes,
		Properties: maps.Clone(a.Props),
		Relations:  []RelationOutput{},
	}
	if out.Properties == nil {
		out.Properties = map[string]string{}
	}
	for name, rel := range w.Relations.All() {
		out.Relations = append(out.Relations, relationsOf(w, name, rel, id)...)
	}
	return nil, out, nil
}

func (s *Server) handleListEvents(ctx context.Context, req *sdk.CallToolRequest, input ListEventsInput) (*sdk.CallToolResult, ListEventsOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]EventOutput, 0, s.sc.Events.Len())
	for name, ev := range s.sc.Events.All() {
		events = append(events, EventOutput{
			Name:         name,
			Slots:        nonNil(ev.SlotNames()),
			Multiplicity: ev.Multiplicity,
			Unlikeliness: ev.Unlikeliness,
		})
	}
	return nil, ListEventsOutput{Events: events}, nil
}

func (s *Server) handleRunRound(ctx context.Context, req *sdk.CallToolRequest, input RunRoundInput) (*sdk.CallToolResult, RunRoundOutput, error) {
	n := input.Rounds
	if n == 0 {
		n = 1
	}
	if n < 0 || n > maxRoundsPerCall {
		return nil, RunRoundOutput{}, fmt.Errorf("rounds must be between 1 and %d", maxRoundsPerCall)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := diag.New(nil)
	results := sim.RunFrom(s.round+1, s.sc, s.rng, n, d)
	s.round += n

	out := RunRoundOutput{Rounds: make([]RoundOutput, 0, len(results)), Diagnostics: issuesOutput(d.Issues())}
	for _, res := range results {
		out.Rounds = append(out.Rounds, RoundOutput{Round: res.Number, Messages: nonNil(res.Messages)})
		if s.db != nil {
			if err := s.db.RecordRound(ctx, sim.Record(s.seed, res)); err != nil {
				return nil, out, fmt.Errorf("recording round %d: %w", res.Number, err)
			}
		}
	}
	return nil, out, nil
}

func (s *Server) handleTryEvent(ctx context.Context, req *sdk.CallToolRequest, input TryEventInput) (*sdk.CallToolResult, TryEventOutput, error) {
	if input.Event == "" {
		return nil, TryEventOutput{}, fmt.Errorf("event is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := diag.New(nil)
	msg, err := sim.TryEvent(s.sc, input.Event, input.Slots, d)
	if err != nil {
		return nil, TryEventOutput{}, err
	}
	return nil, TryEventOutput{Message: msg, Diagnostics: issuesOutput(d.Issues())}, nil
}

func (s *Server) handleSearchChronicle(ctx context.Context, req *sdk.CallToolRequest, input SearchChronicleInput) (*sdk.CallToolResult, SearchChronicleOutput, error) {
	if input.Query == "" {
		return nil, SearchChronicleOutput{}, fmt.Errorf("query is required")
	}
	if s.db == nil {
		return nil, SearchChronicleOutput{}, fmt.Errorf("no chronicle index is configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.db.Search(ctx, input.Query, input.Event, input.Limit)
	if err != nil {
		return nil, SearchChronicleOutput{}, err
	}
	output := make([]SearchResultOutput, 0, len(results))
	for _, r := range results {
		output = append(output, searchResultOutput(r))
	}
	return nil, SearchChronicleOutput{Results: output}, nil
}

func (s *Server) handleValidateWorld(ctx context.Context, req *sdk.CallToolRequest, input ValidateWorldInput) (*sdk.CallToolResult, ValidateWorldOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := validate.Run(s.sc, s.vocab)
	return nil, ValidateWorldOutput{
		Errors:   nonNil(issuesOutput(report.Errors())),
		Warnings: nonNil(issuesOutput(report.Warnings())),
	}, nil
}

func actorSummary(w *world.World, key string, a *world.Actor) ActorSummaryOutput {
	return ActorSummaryOutput{
		Key:        key,
		Name:       a.Name,
		Pronouns:   w.Pronouns.Name(a.Pronouns),
		Attributes: nonNil(a.Attrs.Sorted()),
	}
}

func relationsOf(w *world.World, name string, rel *world.Relation, id registry.ID) []RelationOutput {
	var out []RelationOutput
	seen := make(map[string]bool)
	for _, e := range rel.Edges() {
		var other, dir string
		switch id {
		case e.Left:
			other, dir = w.ActorKey(e.Right), "outgoing"
		case e.Right:
			other, dir = w.ActorKey(e.Left), "incoming"
		default:
			continue
		}
		if !rel.Directional {
			dir = "mutual"
		}
		if other == "" || seen[other+" "+dir] {
			continue
		}
		seen[other+" "+dir] = true
		out = append(out, RelationOutput{Relation: name, Other: other, Direction: dir})
	}
	slices.SortFunc(out, func(a, b RelationOutput) int {
		return cmp.Or(cmp.Compare(a.Other, b.Other), cmp.Compare(a.Direction, b.Direction))
	})
	return out
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func issuesOutput(issues []diag.Issue) []IssueOutput {
	if len(issues) == 0 {
		return nil
	}
	out := make([]IssueOutput, 0, len(issues))
	for _, issue := range issues {
		out = append(out, IssueOutput{Severity: string(issue.Severity), Code: issue.Code, Message: issue.Message})
	}
	return out
}

func searchResultOutput(r store.SearchResult) SearchResultOutput {
	return SearchResultOutput{
		Round:   r.Round,
		Event:   r.Event,
		Message: r.Message,
		Snippet: r.Snippet,
		Score:   r.Score,
	}
}
