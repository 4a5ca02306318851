package render

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Lexicon maps a canonical word or phrase to its interchangeable surface
// alternatives. The canonical form itself is a valid alternative only if it
// appears in its own list.
type Lexicon map[string][]string

// ParseLexicon reads a synonym dictionary from YAML:
//
//	thing: [thing, object]
//	sound: [sound, tone]
func ParseLexicon(r io.Reader) (Lexicon, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("decode lexicon: %w", err)
	}
	for canonical, alternatives := range lex {
		if len(alternatives) == 0 {
			return nil, fmt.Errorf("lexicon entry %q has no alternatives", canonical)
		}
	}
	return lex, nil
}

// LoadLexiconFile reads a synonym dictionary from disk.
func LoadLexiconFile(path string) (Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexicon file: %w", err)
	}
	defer f.Close()
	return ParseLexicon(f)
}

// canonicals returns the dictionary keys in sorted order so substitution
// order, and therefore rng consumption, is reproducible.
func (l Lexicon) canonicals() []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
