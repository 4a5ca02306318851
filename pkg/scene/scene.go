package scene

import (
	"fmt"
	"sort"
)

// Entity is one object in a scene: a stable identifier plus a map of
// attribute name -> attribute value. All values come from finite,
// modality-specific domains (color/shape for images, instrument/note for
// audio); the engine never interprets them beyond string equality.
type Entity struct {
	ID         string            `json:"id" yaml:"id"`
	Attributes map[string]string `json:"attributes" yaml:"attributes"`
}

// Relationship is a labeled directed edge between two entities.
// The label is spatial ("left_of") or temporal ("before") depending on the
// modality; structurally they are identical.
type Relationship struct {
	From  string `json:"from_id" yaml:"from_id"`
	To    string `json:"to_id" yaml:"to_id"`
	Label string `json:"label" yaml:"label"`
}

// Scene is the read-only in-memory view of one scene graph.
// Build one with New (or Load); the index structures assume the entity and
// relationship slices are not mutated afterwards.
type Scene struct {
	ID            string         `json:"id" yaml:"id"`
	Entities      []Entity       `json:"entities" yaml:"entities"`
	Relationships []Relationship `json:"relationships" yaml:"relationships"`

	byID    map[string]int
	related map[string]map[int][]int // label -> from index -> to indices
}

// New validates the raw scene data and builds lookup indexes.
// Returns an *IncompleteError when the graph is internally inconsistent.
func New(id string, entities []Entity, relationships []Relationship) (*Scene, error) {
	s := &Scene{
		ID:            id,
		Entities:      entities,
		Relationships: relationships,
		byID:          make(map[string]int, len(entities)),
		related:       make(map[string]map[int][]int),
	}

	for i, e := range entities {
		if e.ID == "" {
			return nil, &IncompleteError{SceneID: id, Reason: fmt.Sprintf("entity %d has no id", i)}
		}
		if _, dup := s.byID[e.ID]; dup {
			return nil, &IncompleteError{SceneID: id, Reason: fmt.Sprintf("duplicate entity id %q", e.ID)}
		}
		if len(e.Attributes) == 0 {
			return nil, &IncompleteError{SceneID: id, Reason: fmt.Sprintf("entity %q has no attributes", e.ID)}
		}
		s.byID[e.ID] = i
	}

	for _, r := range relationships {
		from, ok := s.byID[r.From]
		if !ok {
			return nil, &IncompleteError{SceneID: id, Reason: fmt.Sprintf("relationship references unknown entity %q", r.From)}
		}
		to, ok := s.byID[r.To]
		if !ok {
			return nil, &IncompleteError{SceneID: id, Reason: fmt.Sprintf("relationship references unknown entity %q", r.To)}
		}
		if from == to {
			return nil, &IncompleteError{SceneID: id, Reason: fmt.Sprintf("entity %q relates to itself", r.From)}
		}
		if r.Label == "" {
			return nil, &IncompleteError{SceneID: id, Reason: fmt.Sprintf("relationship %q -> %q has no label", r.From, r.To)}
		}
		byFrom, ok := s.related[r.Label]
		if !ok {
			byFrom = make(map[int][]int)
			s.related[r.Label] = byFrom
		}
		byFrom[from] = append(byFrom[from], to)
	}

	// Ascending index order so lookups are deterministic regardless of the
	// order edges were listed in.
	for _, byFrom := range s.related {
		for _, tos := range byFrom {
			sort.Ints(tos)
		}
	}

	return s, nil
}

// Len returns the number of entities.
func (s *Scene) Len() int { return len(s.Entities) }

// Entity returns the entity at index i.
func (s *Scene) Entity(i int) Entity { return s.Entities[i] }

// Index returns the index of the entity with the given id, or -1.
func (s *Scene) Index(id string) int {
	i, ok := s.byID[id]
	if !ok {
		return -1
	}
	return i
}

// Related returns the indices of entities reachable from entity i over an
// edge with the given label, in ascending index order. Missing labels yield
// an empty result, not an error; label vocabulary is checked at load time.
func (s *Scene) Related(i int, label string) []int {
	byFrom, ok := s.related[label]
	if !ok {
		return nil
	}
	return byFrom[i]
}

// Labels returns every relationship label present in the scene, sorted.
func (s *Scene) Labels() []string {
	labels := make([]string, 0, len(s.related))
	for l := range s.related {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// AttributeNames returns every attribute name used by at least one entity,
// sorted.
func (s *Scene) AttributeNames() []string {
	seen := make(map[string]struct{})
	for _, e := range s.Entities {
		for name := range e.Attributes {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Values returns the distinct values of the given attribute across the
// scene, in first-appearance order over the entity sequence. The order is
// stable so candidate enumeration stays reproducible.
func (s *Scene) Values(attribute string) []string {
	var values []string
	seen := make(map[string]struct{})
	for _, e := range s.Entities {
		v, ok := e.Attributes[attribute]
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}

// CheckVocabulary verifies that every attribute name and relationship label
// in the scene is known to the given vocabulary. Scenes that fail this check
// are skipped by the orchestrator rather than aborting the run.
func (s *Scene) CheckVocabulary(attributes, labels map[string]struct{}) error {
	for _, e := range s.Entities {
		for name := range e.Attributes {
			if _, ok := attributes[name]; !ok {
				return &IncompleteError{SceneID: s.ID, Reason: fmt.Sprintf("entity %q uses unknown attribute %q", e.ID, name)}
			}
		}
	}
	for _, r := range s.Relationships {
		if _, ok := labels[r.Label]; !ok {
			return &IncompleteError{SceneID: s.ID, Reason: fmt.Sprintf("unknown relationship label %q", r.Label)}
		}
	}
	return nil
}
