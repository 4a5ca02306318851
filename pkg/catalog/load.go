package catalog

import (
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/program"
)

// Raw mirror of the authored template file. The file is parsed into generic
// maps first and decoded through mapstructure, so YAML and JSON sources go
// through one code path.
type rawCatalog struct {
	Vocabulary rawVocabulary `mapstructure:"vocabulary"`
	Templates  []rawTemplate `mapstructure:"templates"`
}

type rawVocabulary struct {
	Attributes []string `mapstructure:"attributes"`
	Relations  []string `mapstructure:"relations"`
}

type rawTemplate struct {
	ID          string          `mapstructure:"id"`
	Family      string          `mapstructure:"family"`
	Text        []string        `mapstructure:"text"`
	Params      []rawParam      `mapstructure:"params"`
	Program     *rawNode        `mapstructure:"program"`
	Constraints []rawConstraint `mapstructure:"constraints"`
}

type rawParam struct {
	Name      string `mapstructure:"name"`
	Kind      string `mapstructure:"kind"`
	Attribute string `mapstructure:"attribute"`
}

type rawNode struct {
	Op       string    `mapstructure:"op"`
	Label    string    `mapstructure:"label"`
	Args     []string  `mapstructure:"args"`
	Children []rawNode `mapstructure:"children"`
}

type rawConstraint struct {
	Node  string `mapstructure:"node"`
	Kind  string `mapstructure:"kind"`
	Value int    `mapstructure:"value"`
}

// Parse reads a template catalog from YAML (or JSON; YAML is a superset for
// our purposes). Any malformed template fails the whole load.
func Parse(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var generic map[string]any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	var raw rawCatalog
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &raw,
		WeaklyTypedInput: true, // numeric args in YAML arrive as ints
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(generic); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	return build(&raw)
}

// LoadFile reads a template catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func build(raw *rawCatalog) (*Catalog, error) {
	if len(raw.Templates) == 0 {
		return nil, &MalformedError{TemplateID: "?", Reason: "catalog has no templates"}
	}

	cat := &Catalog{
		attributes: make(map[string]struct{}),
		relations:  make(map[string]struct{}),
	}
	for _, a := range raw.Vocabulary.Attributes {
		cat.attributes[a] = struct{}{}
	}
	for _, r := range raw.Vocabulary.Relations {
		cat.relations[r] = struct{}{}
	}

	seen := make(map[string]struct{}, len(raw.Templates))
	for _, rt := range raw.Templates {
		if _, dup := seen[rt.ID]; dup && rt.ID != "" {
			return nil, &MalformedError{TemplateID: rt.ID, Reason: "duplicate template id"}
		}
		seen[rt.ID] = struct{}{}

		tpl, err := buildTemplate(&rt)
		if err != nil {
			return nil, err
		}
		cat.Templates = append(cat.Templates, tpl)
		cat.absorb(tpl)
	}
	return cat, nil
}

func buildTemplate(rt *rawTemplate) (*Template, error) {
	tpl := &Template{
		ID:       rt.ID,
		Family:   rt.Family,
		Patterns: rt.Text,
	}
	if tpl.Family == "" {
		tpl.Family = tpl.ID
	}

	for _, rp := range rt.Params {
		tpl.Params = append(tpl.Params, Param{
			Name:      rp.Name,
			Kind:      ParamKind(rp.Kind),
			Attribute: rp.Attribute,
		})
	}

	if rt.Program != nil {
		node, err := buildNode(rt.Program)
		if err != nil {
			return nil, &MalformedError{TemplateID: rt.ID, Reason: err.Error()}
		}
		tpl.Program = node
	}

	for _, rc := range rt.Constraints {
		tpl.Constraints = append(tpl.Constraints, Constraint{
			Node:  rc.Node,
			Kind:  ConstraintKind(rc.Kind),
			Value: rc.Value,
		})
	}

	if err := tpl.validate(); err != nil {
		return nil, err
	}
	return tpl, nil
}

func buildNode(rn *rawNode) (*program.Node, error) {
	op, err := program.ParseOp(rn.Op)
	if err != nil {
		return nil, err
	}
	node := &program.Node{Op: op, Label: rn.Label}
	for _, a := range rn.Args {
		node.Args = append(node.Args, program.ParseArg(a))
	}
	for i := range rn.Children {
		child, err := buildNode(&rn.Children[i])
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// absorb folds the attribute names and relation labels a template mentions
// into the catalog vocabulary, so the scene check recognizes everything the
// templates can ask about even without an explicit vocabulary section.
func (c *Catalog) absorb(tpl *Template) {
	for _, p := range tpl.Params {
		if p.Kind == KindAttributeValue {
			c.attributes[p.Attribute] = struct{}{}
		}
	}
	var walk func(n *program.Node)
	walk = func(n *program.Node) {
		switch n.Op {
		case program.OpFilter, program.OpQuery, program.OpSame:
			if len(n.Args) > 0 && n.Args[0].Param == "" {
				c.attributes[n.Args[0].Literal] = struct{}{}
			}
		case program.OpRelate:
			if len(n.Args) > 0 && n.Args[0].Param == "" {
				c.relations[n.Args[0].Literal] = struct{}{}
			}
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(tpl.Program)
}
