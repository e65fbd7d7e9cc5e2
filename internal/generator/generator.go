// Package generator randomizes exercise layouts.
package generator

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/nihongo/internal/model"
)

// Generator shuffles tiles, options and pair columns.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic Generator.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Perm returns a random permutation of [0, n).
func (g *Generator) Perm(n int) []int {
	return g.rnd.Perm(n)
}

// Shuffle returns a shuffled copy of words.
func (g *Generator) Shuffle(words []string) []string {
	out := append([]string(nil), words...)
	g.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// ShuffleOptions returns a shuffled copy of options.
func (g *Generator) ShuffleOptions(options []model.ChallengeOption) []model.ChallengeOption {
	out := append([]model.ChallengeOption(nil), options...)
	g.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Tiles builds the pool for an ordering exercise: the challenge words plus
// up to extra distractors drawn from candidates, shuffled together.
// Candidates already among the words are skipped.
func (g *Generator) Tiles(words, candidates []string, extra int) []string {
	used := make(map[string]struct{}, len(words))
	for _, w := range words {
		used[w] = struct{}{}
	}
	pool := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := used[c]; ok || c == "" {
			continue
		}
		used[c] = struct{}{}
		pool = append(pool, c)
	}
	tiles := append([]string(nil), words...)
	for i := 0; i < extra && len(pool) > 0; i++ {
		idx := g.rnd.Intn(len(pool))
		tiles = append(tiles, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return g.Shuffle(tiles)
}
