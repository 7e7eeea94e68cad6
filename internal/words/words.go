// internal/words/words.go
//
// Mystery-word pool for building decks.
//
// Responsibilities:
//   - Load the pool once at process start, from WORDS_FILE or the embedded default list.
//   - Normalise entries (trim, lowercase, drop comments and duplicates).
//   - Hand each new game a freshly shuffled sample without touching storage again.
//
// Constraints:
//   • A pool must hold at least game.PoolSize distinct words (13 cards × 5 words).
//   • A loaded Pool is immutable and safe for concurrent use.

package words

import (
	"bufio"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/justone/assets"
	"github.com/robalobadob/justone/internal/apperr"
	"github.com/robalobadob/justone/internal/game"
)

// Source supplies shuffled word samples for new decks.
type Source interface {
	Sample(n int) ([]string, error)
}

// Pool is an immutable list of distinct candidate words.
type Pool struct {
	words []string

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// Load reads the pool from path, or the embedded default when path is empty.
func Load(path string) (*Pool, error) {
	var (
		list []string
		err  error
	)
	if path == "" {
		list, err = assets.DefaultWords()
	} else {
		list, err = readWordFile(path)
	}
	if err != nil {
		return nil, apperr.Invalid("read word pool: %v", err)
	}
	return FromList(list)
}

// FromList builds a pool from list after normalising it.
func FromList(list []string) (*Pool, error) {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, w := range list {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	if len(out) < game.PoolSize {
		return nil, apperr.Invalid("word pool has %d distinct words, need at least %d", len(out), game.PoolSize)
	}
	return &Pool{
		words: out,
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}, nil
}

// readWordFile loads one word per line from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

// Len returns the number of distinct words in the pool.
func (p *Pool) Len() int { return len(p.words) }

// Sample returns n distinct words in random order.
func (p *Pool) Sample(n int) ([]string, error) {
	if n > len(p.words) {
		return nil, apperr.Invalid("requested %d words from a pool of %d", n, len(p.words))
	}
	p.mu.Lock()
	perm := p.rng.Perm(len(p.words))
	p.mu.Unlock()

	out := make([]string, n)
	for i := range out {
		out[i] = p.words[perm[i]]
	}
	return out, nil
}
