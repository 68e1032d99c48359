// Package agent turns host observations into searches. It owns one distance
// cache per match so concurrent matches never share path results.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/brensch/lantern/distance"
	"github.com/brensch/lantern/game"
	"github.com/brensch/lantern/rules"
	"github.com/brensch/lantern/search"
)

// TeamName is reported to hosts that ask who is playing.
const TeamName = "Team rusty lantern"

var ErrIllegalMove = errors.New("search returned an illegal move")

// DefaultMaxMatches bounds the match table when Config.MaxMatches is zero.
const DefaultMaxMatches = 64

type Config struct {
	Search search.Config
	// CacheSize is the per-match distance cache capacity. Zero means
	// distance.DefaultCacheSize.
	CacheSize int
	// MaxMatches is how many matches keep a cache at once. Past it the least
	// recently played match is dropped, as if it had ended.
	MaxMatches int
}

var DefaultConfig = Config{Search: search.DefaultConfig, CacheSize: distance.DefaultCacheSize, MaxMatches: DefaultMaxMatches}

// Decision is a search result together with the state it was searched from.
type Decision struct {
	search.Decision
	State game.State
	Cache distance.CacheStats
}

type match struct {
	walls *game.Walls
	cache *distance.Cache
}

// Agent answers move requests for any number of concurrent matches.
type Agent struct {
	config Config
	logger *slog.Logger

	// mu makes the lookup and replacement in cacheFor one step.
	mu      sync.Mutex
	matches *lru.Cache[string, *match]
}

func New(config Config, logger *slog.Logger) *Agent {
	if config.CacheSize <= 0 {
		config.CacheSize = distance.DefaultCacheSize
	}
	if config.MaxMatches <= 0 {
		config.MaxMatches = DefaultMaxMatches
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &Agent{config: config, logger: logger}
	// The size is positive so NewWithEvict cannot fail.
	a.matches, _ = lru.NewWithEvict(config.MaxMatches, a.dropped)
	return a
}

// dropped runs for every match leaving the table, ended or evicted.
func (a *Agent) dropped(id string, m *match) {
	st := m.cache.Stats()
	a.logger.Info("match dropped", "match_id", id, "cache_hits", st.Hits, "cache_misses", st.Misses, "cache_len", st.Len)
}

func (a *Agent) Config() Config { return a.config }

// cacheFor returns the match cache, replacing it when the maze changed under
// the same id.
func (a *Agent) cacheFor(id string, walls *game.Walls) (*distance.Cache, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if m, ok := a.matches.Get(id); ok && m.walls.Equal(walls) {
		return m.cache, nil
	}
	cache, err := distance.NewGridCache(walls, a.config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("match %q: %w", id, err)
	}
	a.matches.Add(id, &match{walls: walls, cache: cache})
	return cache, nil
}

// StartMatch prepares the distance cache for a match ahead of its first move.
func (a *Agent) StartMatch(snap *Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	_, err := a.cacheFor(snap.MatchID, snap.walls())
	return err
}

// EndMatch drops everything held for the match.
func (a *Agent) EndMatch(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.matches.Remove(id)
}

// Matches returns the number of matches holding a cache.
func (a *Agent) Matches() int {
	return a.matches.Len()
}

// Holds reports whether the match still has a cache.
func (a *Agent) Holds(id string) bool {
	return a.matches.Contains(id)
}

// Move searches the snapshot and returns the chosen destination of the acting
// bot. It is safe to call concurrently, including for the same match.
func (a *Agent) Move(ctx context.Context, snap *Snapshot) (Decision, error) {
	if err := snap.Validate(); err != nil {
		return Decision{}, err
	}
	state := NewState(snap)

	cache, err := a.cacheFor(snap.MatchID, state.Walls)
	if err != nil {
		return Decision{}, err
	}

	d, err := search.NewSearcher(a.config.Search, cache).FindBestMove(ctx, state)
	if err != nil {
		return Decision{}, fmt.Errorf("match %q round %d bot %d: %w", snap.MatchID, snap.Round, state.MeID, err)
	}
	if !rules.IsLegal(state, d.Move) {
		return Decision{}, fmt.Errorf("%w: %v from %v", ErrIllegalMove, d.Move, state.Bots[state.MeID])
	}

	a.logger.Debug("move",
		"match_id", snap.MatchID,
		"round", snap.Round,
		"bot", state.MeID,
		"from", state.Bots[state.MeID],
		"to", d.Move,
		"value", d.Value,
		"nodes", d.Stats.Nodes,
		"cutoffs", d.Stats.Cutoffs,
		"timed_out", d.Stats.TimedOut,
		"elapsed", d.Stats.Elapsed,
	)
	return Decision{Decision: d, State: state, Cache: cache.Stats()}, nil
}
