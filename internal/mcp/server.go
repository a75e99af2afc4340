// Package mcp exposes a loaded scenario as MCP tools over a transport.
package mcp

import (
	"context"
	"math/rand/v2"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"talesim/internal/config"
	"talesim/internal/scenario"
	"talesim/internal/sim"
	"talesim/internal/store"
)

// Server owns the scenario for the life of the session. Tool handlers run
// one at a time, so the engine itself never sees concurrent calls.
type Server struct {
	mu    sync.Mutex
	sc    *scenario.Scenario
	seed  uint64
	rng   *rand.Rand
	round int
	vocab *config.Vocabulary

	db  store.Store
	mcp *sdk.Server
}

// NewServer serves sc. Rounds draw from a generator seeded with seed and
// are recorded in db when it is not nil.
func NewServer(sc *scenario.Scenario, seed uint64, db store.Store, version string) *Server {
	s := &Server{
		sc:   sc,
		seed: seed,
		rng:  sim.NewRand(seed),
		db:   db,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "talesim",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

// UseVocabulary enables the vocabulary checks of validate_world.
func (s *Server) UseVocabulary(v *config.Vocabulary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vocab = v
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
