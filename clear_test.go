package clear_test

import (
	"context"
	"strings"
	"testing"

	clear "github.com/J3rome/CLEAR-AQA-Dataset-Generator"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/balance"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/catalog"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/interp"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/ports"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/render"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/scene"
)

const templateYAML = `
vocabulary:
  attributes: [color, shape]
  relations: [left_of, right_of]
templates:
  - id: count_color
    family: counting
    text:
      - "How many <c> things are there?"
      - "What number of things are <c>?"
    params:
      - name: c
        kind: attribute_value
        attribute: color
    program:
      op: count
      children:
        - op: filter
          label: filtered
          args: [color, "$c"]
          children:
            - op: scene
    constraints:
      - node: filtered
        kind: nonempty
  - id: query_left
    family: querying
    text: ["What color is the thing left of the <s>?"]
    params:
      - name: s
        kind: attribute_value
        attribute: shape
    program:
      op: query
      args: [color]
      children:
        - op: unique
          children:
            - op: relate
              args: [right_of]
              children:
                - op: unique
                  children:
                    - op: filter
                      args: [shape, "$s"]
                      children:
                        - op: scene
`

const sceneJSON = `{
  "scenes": [
    {
      "id": "scene_0",
      "entities": [
        {"id": "a", "attributes": {"color": "red", "shape": "cube"}},
        {"id": "b", "attributes": {"color": "blue", "shape": "sphere"}},
        {"id": "c", "attributes": {"color": "red", "shape": "cylinder"}}
      ],
      "relationships": [
        {"from_id": "a", "to_id": "b", "label": "left_of"},
        {"from_id": "a", "to_id": "c", "label": "left_of"},
        {"from_id": "b", "to_id": "c", "label": "left_of"},
        {"from_id": "b", "to_id": "a", "label": "right_of"},
        {"from_id": "c", "to_id": "a", "label": "right_of"},
        {"from_id": "c", "to_id": "b", "label": "right_of"}
      ]
    },
    {
      "id": "scene_1",
      "entities": [
        {"id": "a", "attributes": {"color": "green", "shape": "cube"}},
        {"id": "b", "attributes": {"color": "green", "shape": "cube"}}
      ],
      "relationships": [
        {"from_id": "a", "to_id": "b", "label": "left_of"},
        {"from_id": "b", "to_id": "a", "label": "right_of"}
      ]
    }
  ]
}`

func TestEngine_Integration(t *testing.T) {
	cat, err := catalog.Parse(strings.NewReader(templateYAML))
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	scenes, bad, err := scene.Parse(strings.NewReader(sceneJSON))
	if err != nil {
		t.Fatalf("Failed to load scenes: %v", err)
	}
	if len(bad) != 0 {
		t.Fatalf("Unexpected malformed scenes: %v", bad)
	}

	engine, err := clear.New(cat,
		clear.WithSeed(42),
		clear.WithMaxPerPair(2),
		clear.WithLexicon(render.Lexicon{"things": {"things", "objects"}}),
	)
	if err != nil {
		t.Fatalf("Failed to build engine: %v", err)
	}

	records, report, err := engine.Generate(context.Background(), scenes)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(records) == 0 {
		t.Fatal("Expected records, got 0")
	}
	if report.Records != len(records) {
		t.Errorf("Report says %d records, engine returned %d", report.Records, len(records))
	}
	if report.Scenes != 2 {
		t.Errorf("Expected 2 scenes in report, got %d", report.Scenes)
	}
	if report.Seed != 42 {
		t.Errorf("Expected seed 42 in report, got %d", report.Seed)
	}
	if report.RunID == "" {
		t.Error("Expected a run id")
	}

	byID := map[string]*scene.Scene{}
	for _, sc := range scenes {
		byID[sc.ID] = sc
	}
	for _, rec := range records {
		if rec.Question == "" {
			t.Errorf("Record %s/%s has empty question text", rec.SceneID, rec.TemplateID)
		}
		v, err := interp.Evaluate(rec.Program, byID[rec.SceneID])
		if err != nil {
			t.Errorf("Record %s/%s does not re-evaluate: %v", rec.SceneID, rec.TemplateID, err)
			continue
		}
		if v.Answer() != rec.Answer {
			t.Errorf("Record %s/%s answers %q, re-evaluation says %q",
				rec.SceneID, rec.TemplateID, rec.Answer, v.Answer())
		}
	}

	// scene_1 is monochrome, so query_left over its only shape has two
	// candidates for unique() and must simply yield nothing, not an error.
	for _, rec := range records {
		if rec.SceneID == "scene_1" && rec.Family == "querying" {
			t.Errorf("Unexpected querying record for scene_1: %q", rec.Question)
		}
	}
}

func TestEngine_Targets(t *testing.T) {
	cat, err := catalog.Parse(strings.NewReader(templateYAML))
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	scenes, _, err := scene.Parse(strings.NewReader(sceneJSON))
	if err != nil {
		t.Fatalf("Failed to load scenes: %v", err)
	}

	engine, err := clear.New(cat,
		clear.WithSeed(7),
		clear.WithTargets(balance.Targets{
			ports.Bucket{Family: "counting", Answer: "2"}: 0.01,
		}),
		clear.WithTolerance(0),
	)
	if err != nil {
		t.Fatalf("Failed to build engine: %v", err)
	}

	records, report, err := engine.Generate(context.Background(), scenes)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(records) == 0 {
		t.Fatal("Expected records, got 0")
	}
	if len(report.Buckets) == 0 {
		t.Error("Expected bucket tallies in report")
	}
}
