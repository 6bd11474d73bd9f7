package persona

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"fly-voice/internal/domain"
)

// Rules replies from a static keyword table. It is safe for concurrent use.
type Rules struct {
	groups   []Group
	fallback []string

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRules(seed uint64) *Rules {
	return NewRulesWithTable(DefaultGroups, DefaultFallback, seed)
}

func NewRulesWithTable(groups []Group, fallback []string, seed uint64) *Rules {
	lowered := make([]Group, len(groups))
	for i, g := range groups {
		kw := make([]string, len(g.Keywords))
		for j, k := range g.Keywords {
			kw[j] = strings.ToLower(k)
		}
		lowered[i] = Group{Name: g.Name, Keywords: kw, Responses: g.Responses}
	}
	return &Rules{
		groups:   lowered,
		fallback: fallback,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (r *Rules) Name() string {
	return "rules"
}

// Match returns the name of the first group whose keyword appears in text,
// or "" when nothing matches.
func (r *Rules) Match(text string) string {
	g := r.match(text)
	if g == nil {
		return ""
	}
	return g.Name
}

func (r *Rules) match(text string) *Group {
	lower := strings.ToLower(text)
	for i := range r.groups {
		for _, kw := range r.groups[i].Keywords {
			if strings.Contains(lower, kw) {
				return &r.groups[i]
			}
		}
	}
	return nil
}

func (r *Rules) Reply(_ context.Context, history []domain.Message) (string, error) {
	text := domain.LastUserText(history)
	if text == "" {
		return "", fmt.Errorf("%w: no user message", domain.ErrInvalidInput)
	}

	pool := r.fallback
	if g := r.match(text); g != nil {
		pool = g.Responses
	}
	if len(pool) == 0 {
		return "", fmt.Errorf("empty response pool")
	}

	r.mu.Lock()
	idx := r.rng.IntN(len(pool))
	r.mu.Unlock()

	return pool[idx], nil
}
