package store

// FiredEvent is one binding of a round: the event, its slot assignments by
// actor key, and the rendered message (possibly empty).
type FiredEvent struct {
	Event   string            `json:"event"`
	Slots   map[string]string `json:"slots,omitempty"`
	Message string            `json:"message,omitempty"`
}

type RoundRecord struct {
	Seed     uint64       `json:"seed"`
	Number   int          `json:"round"`
	Events   []FiredEvent `json:"events"`
	Messages []string     `json:"messages"`
}

type RoundSummary struct {
	Seed     uint64
	Number   int
	Events   int
	Messages int
}

type SearchResult struct {
	Round   int
	Event   string
	Message string
	Score   float64
	Snippet string
}
