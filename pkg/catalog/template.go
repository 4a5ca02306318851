// Package catalog loads authored question templates into an immutable
// in-memory form. Loading is fail-fast: any malformed template aborts with a
// *MalformedError before a single search starts, rather than being silently
// skipped.
package catalog

import (
	"fmt"
	"regexp"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/program"
)

// ParamKind declares the domain a free parameter is drawn from.
type ParamKind string

const (
	// KindAttributeValue binds to one value of a named attribute present in
	// the scene.
	KindAttributeValue ParamKind = "attribute_value"
	// KindRelation binds to one relationship label present in the scene.
	KindRelation ParamKind = "relation"
	// KindEntity binds to any remaining entity id (entities already claimed
	// by another entity parameter are excluded).
	KindEntity ParamKind = "entity"
)

// Param is one free parameter slot of a template.
type Param struct {
	Name      string
	Kind      ParamKind
	Attribute string // required for KindAttributeValue
}

// ConstraintKind names a node-level acceptance rule checked during search.
type ConstraintKind string

const (
	// ConstraintShrinks requires the node's result set to be strictly
	// smaller than its first child's, so filters that are no-ops against
	// the current candidate set are rejected.
	ConstraintShrinks ConstraintKind = "shrinks"
	// ConstraintNonEmpty requires a non-empty result set.
	ConstraintNonEmpty ConstraintKind = "nonempty"
	// ConstraintMinSize / ConstraintMaxSize bound the node's result: the
	// set cardinality for ObjectSet nodes, the value itself for Integer
	// nodes.
	ConstraintMinSize ConstraintKind = "min_size"
	ConstraintMaxSize ConstraintKind = "max_size"
)

// Constraint attaches an acceptance rule to a labeled program node.
type Constraint struct {
	Node  string // label of the governed node
	Kind  ConstraintKind
	Value int // bound for min_size/max_size
}

// Template pairs one or more surface text patterns with a typed program
// skeleton. Templates are immutable after Load.
type Template struct {
	ID          string
	Family      string
	Patterns    []string
	Params      []Param
	Program     *program.Node
	Constraints []Constraint
}

// Catalog is the loaded template set plus the attribute/relation vocabulary
// the run recognizes.
type Catalog struct {
	Templates []*Template

	attributes map[string]struct{}
	relations  map[string]struct{}
}

// Template returns the template with the given id, or nil.
func (c *Catalog) Template(id string) *Template {
	for _, t := range c.Templates {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Attributes returns the recognized attribute-name vocabulary.
func (c *Catalog) Attributes() map[string]struct{} { return c.attributes }

// Relations returns the recognized relationship-label vocabulary.
func (c *Catalog) Relations() map[string]struct{} { return c.relations }

var slotPattern = regexp.MustCompile(`<([A-Za-z_][A-Za-z0-9_]*)>`)

// validate runs the load-time checks for one template.
func (t *Template) validate() error {
	if t.ID == "" {
		return &MalformedError{TemplateID: "?", Reason: "template has no id"}
	}
	if len(t.Patterns) == 0 {
		return &MalformedError{TemplateID: t.ID, Reason: "template has no text patterns"}
	}
	if t.Program == nil {
		return &MalformedError{TemplateID: t.ID, Reason: "template has no program"}
	}

	if _, err := program.Check(t.Program); err != nil {
		return &MalformedError{TemplateID: t.ID, Reason: fmt.Sprintf("ill-typed program: %v", err)}
	}

	declared := make(map[string]Param, len(t.Params))
	for _, p := range t.Params {
		if p.Name == "" {
			return &MalformedError{TemplateID: t.ID, Reason: "parameter with empty name"}
		}
		if _, dup := declared[p.Name]; dup {
			return &MalformedError{TemplateID: t.ID, Reason: fmt.Sprintf("parameter %q declared twice", p.Name)}
		}
		switch p.Kind {
		case KindAttributeValue:
			if p.Attribute == "" {
				return &MalformedError{TemplateID: t.ID, Reason: fmt.Sprintf("parameter %q needs an attribute", p.Name)}
			}
		case KindRelation, KindEntity:
		default:
			return &MalformedError{TemplateID: t.ID, Reason: fmt.Sprintf("parameter %q has unknown kind %q", p.Name, p.Kind)}
		}
		declared[p.Name] = p
	}

	used := make(map[string]struct{})
	for _, name := range t.Program.Params() {
		if _, ok := declared[name]; !ok {
			return &MalformedError{TemplateID: t.ID, Reason: fmt.Sprintf("program references undeclared parameter %q", name)}
		}
		used[name] = struct{}{}
	}
	for name := range declared {
		if _, ok := used[name]; !ok {
			return &MalformedError{TemplateID: t.ID, Reason: fmt.Sprintf("parameter %q never used by the program", name)}
		}
	}

	// Every declared parameter must have a slot in every pattern, and every
	// slot must name a declared parameter.
	for _, pattern := range t.Patterns {
		slots := make(map[string]struct{})
		for _, m := range slotPattern.FindAllStringSubmatch(pattern, -1) {
			slots[m[1]] = struct{}{}
		}
		for name := range slots {
			if _, ok := declared[name]; !ok {
				return &MalformedError{TemplateID: t.ID, Reason: fmt.Sprintf("pattern %q has slot <%s> with no matching parameter", pattern, name)}
			}
		}
		for name := range declared {
			if _, ok := slots[name]; !ok {
				return &MalformedError{TemplateID: t.ID, Reason: fmt.Sprintf("pattern %q is missing slot <%s>", pattern, name)}
			}
		}
	}

	for _, c := range t.Constraints {
		switch c.Kind {
		case ConstraintShrinks, ConstraintNonEmpty, ConstraintMinSize, ConstraintMaxSize:
		default:
			return &MalformedError{TemplateID: t.ID, Reason: fmt.Sprintf("unknown constraint kind %q", c.Kind)}
		}
		if c.Node == "" {
			return &MalformedError{TemplateID: t.ID, Reason: fmt.Sprintf("constraint %q names no node", c.Kind)}
		}
		node := t.Program.Find(c.Node)
		if node == nil {
			return &MalformedError{TemplateID: t.ID, Reason: fmt.Sprintf("constraint %q names unknown node %q", c.Kind, c.Node)}
		}
		if c.Kind == ConstraintShrinks && node.Op.Arity() == 0 {
			return &MalformedError{TemplateID: t.ID, Reason: fmt.Sprintf("shrinks constraint on leaf node %q", c.Node)}
		}
	}

	return nil
}
