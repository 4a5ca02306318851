// Package synth binds template parameters to concrete scene values through
// depth-first backtracking, consulting the interpreter at every step so that
// ill-typed or degenerate bindings are pruned before whole programs are
// evaluated. Exhaustion is a normal outcome, not a failure: a (scene,
// template) pair that admits no valid binding simply yields zero instances.
package synth

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/catalog"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/interp"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/program"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/scene"
)

// ErrExhausted signals that the attempt budget was consumed, or every
// binding enumerated, without (another) valid instance. Callers treat it as
// "zero more instances for this pair" and move on.
var ErrExhausted = errors.New("search exhausted")

// DefaultBudget bounds the number of tentative bindings tried per (scene,
// template) pair when no explicit budget is configured.
const DefaultBudget = 2000

// Instance is one accepted binding: the bound program plus its stable
// answer. Instances are cheap, throwaway values; only the ones the
// controller accepts survive into output records.
type Instance struct {
	TemplateID string
	Family     string
	Binding    map[string]string
	Program    *program.Node
	Answer     program.Value
}

// PruneStats counts why candidates were discarded, for observability.
type PruneStats struct {
	EvalFailures         int
	ConstraintViolations int
}

// Option configures a Search.
type Option func(*Search)

// WithBudget overrides the attempt budget.
func WithBudget(n int) Option {
	return func(s *Search) {
		if n > 0 {
			s.budget = n
		}
	}
}

// Search enumerates valid instances of one template against one scene.
// The backtracking state is an explicit frame stack rather than call-stack
// recursion, so deep templates cannot overflow and the traversal order is
// exactly the template's declared parameter order.
type Search struct {
	scene  *scene.Scene
	tpl    *catalog.Template
	rng    *rand.Rand
	budget int

	frames  []*frame
	started bool
	done    bool

	attempts int
	pruned   PruneStats
}

// frame holds one parameter's shuffled candidate list and a cursor into it.
// The currently bound candidate is candidates[next-1].
type frame struct {
	param      catalog.Param
	candidates []string
	next       int
}

// New creates a search over (scene, template). The seed fully determines the
// candidate ordering; two searches with the same inputs and seed enumerate
// identical instance sequences.
func New(sc *scene.Scene, tpl *catalog.Template, seed int64, opts ...Option) *Search {
	s := &Search{
		scene:  sc,
		tpl:    tpl,
		rng:    rand.New(rand.NewSource(seed)),
		budget: DefaultBudget,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attempts returns the number of tentative bindings tried so far.
func (s *Search) Attempts() int { return s.attempts }

// Pruned returns the prune counters.
func (s *Search) Pruned() PruneStats { return s.pruned }

// Next produces the next valid instance, or ErrExhausted when the budget or
// the candidate space runs out. It resumes where the previous call left off,
// so rejected instances (duplicates, balance overflow) cost nothing beyond
// the bindings already explored.
func (s *Search) Next() (*Instance, error) {
	if s.done {
		return nil, ErrExhausted
	}

	if !s.started {
		s.started = true
		if len(s.tpl.Params) == 0 {
			// Nothing to bind; the skeleton either stands as-is or not.
			s.done = true
			binding := map[string]string{}
			if err := s.check(binding); err != nil {
				return nil, ErrExhausted
			}
			inst, err := s.finish(binding)
			if err != nil {
				return nil, ErrExhausted
			}
			return inst, nil
		}
		s.push(0)
	}

	for len(s.frames) > 0 {
		f := s.frames[len(s.frames)-1]

		if f.next >= len(f.candidates) {
			// Backtrack.
			s.frames = s.frames[:len(s.frames)-1]
			continue
		}

		if s.attempts >= s.budget {
			s.done = true
			return nil, ErrExhausted
		}
		s.attempts++
		f.next++

		binding := s.binding()
		if err := s.check(binding); err != nil {
			continue
		}

		if len(s.frames) < len(s.tpl.Params) {
			s.push(len(s.frames))
			continue
		}

		inst, err := s.finish(binding)
		if err != nil {
			continue
		}
		return inst, nil
	}

	s.done = true
	return nil, ErrExhausted
}

// finish binds and fully evaluates the program for a complete binding.
func (s *Search) finish(binding map[string]string) (*Instance, error) {
	bound, err := s.tpl.Program.Bind(binding)
	if err != nil {
		return nil, err
	}
	answer, err := interp.Evaluate(bound, s.scene)
	if err != nil {
		s.pruned.EvalFailures++
		return nil, err
	}
	copied := make(map[string]string, len(binding))
	for k, v := range binding {
		copied[k] = v
	}
	return &Instance{
		TemplateID: s.tpl.ID,
		Family:     s.tpl.Family,
		Binding:    copied,
		Program:    bound,
		Answer:     answer,
	}, nil
}

// binding collects the currently committed candidate of every frame.
func (s *Search) binding() map[string]string {
	b := make(map[string]string, len(s.frames))
	for _, f := range s.frames {
		if f.next > 0 {
			b[f.param.Name] = f.candidates[f.next-1]
		}
	}
	return b
}

// push opens the frame for parameter i, enumerating its candidates from the
// declared domain given the bindings committed so far, in an order drawn
// from the search's seeded source.
func (s *Search) push(i int) {
	p := s.tpl.Params[i]
	candidates := s.candidates(p)

	shuffled := make([]string, len(candidates))
	for j, k := range s.rng.Perm(len(candidates)) {
		shuffled[j] = candidates[k]
	}
	s.frames = append(s.frames, &frame{param: p, candidates: shuffled})
}

func (s *Search) candidates(p catalog.Param) []string {
	switch p.Kind {
	case catalog.KindAttributeValue:
		return s.scene.Values(p.Attribute)
	case catalog.KindRelation:
		return s.scene.Labels()
	case catalog.KindEntity:
		taken := make(map[string]struct{})
		for _, f := range s.frames {
			if f.param.Kind == catalog.KindEntity && f.next > 0 {
				taken[f.candidates[f.next-1]] = struct{}{}
			}
		}
		var out []string
		for _, e := range s.scene.Entities {
			if _, busy := taken[e.ID]; !busy {
				out = append(out, e.ID)
			}
		}
		return out
	default:
		return nil
	}
}

// check evaluates every fully bound subtree under the partial binding and
// applies the template's node constraints to the ones that have values.
// Any interpreter failure or constraint violation prunes the candidate.
func (s *Search) check(binding map[string]string) error {
	values := make(map[*program.Node]program.Value)

	var walk func(n *program.Node) error
	walk = func(n *program.Node) error {
		for _, c := range n.Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		if !n.FullyBound(binding) {
			return nil
		}
		bound, err := n.Bind(binding)
		if err != nil {
			return err
		}
		v, err := interp.Evaluate(bound, s.scene)
		if err != nil {
			s.pruned.EvalFailures++
			return err
		}
		values[n] = v
		return nil
	}
	if err := walk(s.tpl.Program); err != nil {
		return err
	}

	for _, c := range s.tpl.Constraints {
		node := s.tpl.Program.Find(c.Node)
		v, ok := values[node]
		if !ok {
			continue // subtree still has free parameters
		}
		if err := checkConstraint(c, node, v, values); err != nil {
			s.pruned.ConstraintViolations++
			return err
		}
	}
	return nil
}

func checkConstraint(c catalog.Constraint, node *program.Node, v program.Value, values map[*program.Node]program.Value) error {
	size, err := constraintSize(v)
	if err != nil {
		return err
	}
	switch c.Kind {
	case catalog.ConstraintNonEmpty:
		if size < 1 {
			return fmt.Errorf("node %q: empty result", c.Node)
		}
	case catalog.ConstraintMinSize:
		if size < c.Value {
			return fmt.Errorf("node %q: size %d below %d", c.Node, size, c.Value)
		}
	case catalog.ConstraintMaxSize:
		if size > c.Value {
			return fmt.Errorf("node %q: size %d above %d", c.Node, size, c.Value)
		}
	case catalog.ConstraintShrinks:
		input, ok := values[node.Children[0]]
		if !ok {
			return nil
		}
		inputSize, err := constraintSize(input)
		if err != nil {
			return err
		}
		if size >= inputSize {
			return fmt.Errorf("node %q: result size %d did not shrink input %d", c.Node, size, inputSize)
		}
	}
	return nil
}

// constraintSize maps a value onto the quantity constraints are written
// against: cardinality for sets, the value itself for integers.
func constraintSize(v program.Value) (int, error) {
	switch v.Type {
	case program.TypeObjectSet:
		return len(v.Set), nil
	case program.TypeInteger:
		return v.Int, nil
	default:
		return 0, fmt.Errorf("constraint on %s node", v.Type)
	}
}
