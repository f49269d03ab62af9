// Package scenario implements the scenario handlers. Each handler mutates the
// ERP/MES demo database through a repository.Gateway inside the transaction
// the caller opened for it.
package scenario

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-mes-scenarios/internal/catalog"
	"github.com/pesio-ai/be-mes-scenarios/internal/repository"
)

// Random is the single source of randomness handlers draw from.
type Random interface {
	// IntN returns a value in [0, n).
	IntN(n int) int
	// Perm returns a random permutation of [0, n).
	Perm(n int) []int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandom returns a Random safe for concurrent use. A zero seed draws a
// seed from the runtime.
func NewRandom(seed uint64) Random {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func (l *lockedRand) Perm(n int) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Perm(n)
}

// Env is the per-invocation context handed to every handler.
type Env struct {
	TenantID string
	Now      time.Time
	Rand     Random
	Log      zerolog.Logger
}

// Today returns Now truncated to midnight in its own location.
func (e *Env) Today() time.Time {
	return time.Date(e.Now.Year(), e.Now.Month(), e.Now.Day(), 0, 0, 0, 0, e.Now.Location())
}

// intBetween returns a value in [lo, hi].
func (e *Env) intBetween(lo, hi int) int {
	return lo + e.Rand.IntN(hi-lo+1)
}

// RunFunc executes one scenario. The returned map becomes the result payload.
type RunFunc func(ctx context.Context, gw repository.Gateway, env *Env, p catalog.Params) (map[string]any, error)

// Handler binds a scenario id to its implementation.
type Handler struct {
	ID   string
	Name string
	Run  RunFunc
}
