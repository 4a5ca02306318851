// Package render turns accepted bound programs into literal question text.
// Rendering is purely lexical: the text carries no information beyond what
// the bound program encodes, and cannot alter the answer.
package render

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/catalog"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/program"
)

// PatternPolicy selects among a template's text patterns. The tie-break rule
// is configurable rather than hard-coded; PolicyRoundRobin is the default.
type PatternPolicy uint8

const (
	// PolicyRoundRobin cycles through the template's patterns in order,
	// spreading usage evenly across the run.
	PolicyRoundRobin PatternPolicy = iota
	// PolicyRandom picks a pattern from the per-instance seeded source.
	PolicyRandom
)

var (
	slotRe      = regexp.MustCompile(`<([A-Za-z_][A-Za-z0-9_]*)>`)
	agreementRe = regexp.MustCompile(`\{([^{}|]*)\|([^{}|]*)\}`)
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithPatternPolicy overrides the pattern selection policy.
func WithPatternPolicy(p PatternPolicy) Option {
	return func(r *Renderer) { r.policy = p }
}

// Renderer produces question text from bound programs. Safe for concurrent
// use; the only mutable state is the round-robin cursor per render key.
type Renderer struct {
	lexicon Lexicon
	policy  PatternPolicy

	mu      sync.Mutex
	cursors map[string]int
}

// New creates a renderer over the given synonym dictionary (may be nil for
// no synonym substitution).
func New(lexicon Lexicon, opts ...Option) *Renderer {
	r := &Renderer{
		lexicon: lexicon,
		cursors: make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render produces the question text for one accepted instance. The seed
// drives pattern choice (under PolicyRandom) and synonym choice; rendering
// the same binding with the same seed twice yields identical text. The key
// scopes round-robin rotation: callers pass one key per scene, so which
// pattern a scene gets never depends on how scenes interleave across
// workers.
func (r *Renderer) Render(key string, tpl *catalog.Template, binding map[string]string, answer program.Value, seed int64) (string, error) {
	rng := rand.New(rand.NewSource(seed))

	text := r.pickPattern(key, tpl, rng)

	var missing string
	text = slotRe.ReplaceAllStringFunc(text, func(m string) string {
		name := slotRe.FindStringSubmatch(m)[1]
		v, ok := binding[name]
		if !ok {
			missing = name
			return m
		}
		return v
	})
	if missing != "" {
		return "", fmt.Errorf("template %q: no binding for slot <%s>", tpl.ID, missing)
	}

	text = applyAgreement(text, answer)
	text = r.applySynonyms(text, rng)
	return text, nil
}

func (r *Renderer) pickPattern(key string, tpl *catalog.Template, rng *rand.Rand) string {
	if len(tpl.Patterns) == 1 {
		return tpl.Patterns[0]
	}
	if r.policy == PolicyRandom {
		return tpl.Patterns[rng.Intn(len(tpl.Patterns))]
	}
	ck := key + "\x00" + tpl.ID
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.cursors[ck]
	if !ok {
		i = startIndex(ck, len(tpl.Patterns))
	}
	r.cursors[ck] = (i + 1) % len(tpl.Patterns)
	return tpl.Patterns[i]
}

// startIndex staggers where rotation begins for a key, so scenes that only
// ever render a template once still spread across its patterns.
func startIndex(key string, n int) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}

// applyAgreement resolves {singular|plural} segments. The agreement count is
// the program's answer when it is an integer; any other answer type reads as
// plural, which is what the authored patterns expect.
func applyAgreement(text string, answer program.Value) string {
	count := 2
	if answer.Type == program.TypeInteger {
		count = answer.Int
	}
	return agreementRe.ReplaceAllStringFunc(text, func(m string) string {
		parts := agreementRe.FindStringSubmatch(m)
		if count == 1 {
			return parts[1]
		}
		return parts[2]
	})
}

// applySynonyms replaces each whole-word occurrence of a canonical lexicon
// entry with a pseudo-randomly chosen alternative. Canonical entries are
// visited in sorted order so rng consumption is stable.
func (r *Renderer) applySynonyms(text string, rng *rand.Rand) string {
	for _, canonical := range r.lexicon.canonicals() {
		alternatives := r.lexicon[canonical]
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(canonical) + `\b`)
		text = re.ReplaceAllStringFunc(text, func(string) string {
			return alternatives[rng.Intn(len(alternatives))]
		})
	}
	return text
}

// Describe returns a short human-readable form of a binding, used in logs.
func Describe(binding map[string]string) string {
	if len(binding) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(binding))
	for _, k := range sortedKeys(binding) {
		parts = append(parts, k+"="+binding[k])
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
