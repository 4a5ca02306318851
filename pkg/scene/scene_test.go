package scene_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/scene"
)

func testScene(t *testing.T) *scene.Scene {
	t.Helper()
	s, err := scene.New("s1",
		[]scene.Entity{
			{ID: "a", Attributes: map[string]string{"color": "red", "shape": "cube"}},
			{ID: "b", Attributes: map[string]string{"color": "blue", "shape": "sphere"}},
			{ID: "c", Attributes: map[string]string{"color": "red", "shape": "sphere"}},
		},
		[]scene.Relationship{
			{From: "a", To: "c", Label: "left_of"},
			{From: "a", To: "b", Label: "left_of"},
			{From: "b", To: "c", Label: "left_of"},
		},
	)
	require.NoError(t, err)
	return s
}

func TestNew_Validation(t *testing.T) {
	entity := func(id string) scene.Entity {
		return scene.Entity{ID: id, Attributes: map[string]string{"color": "red"}}
	}

	t.Run("Duplicate Entity ID", func(t *testing.T) {
		_, err := scene.New("s", []scene.Entity{entity("a"), entity("a")}, nil)
		var incomplete *scene.IncompleteError
		require.ErrorAs(t, err, &incomplete)
		assert.Equal(t, "s", incomplete.SceneID)
	})

	t.Run("Empty Attributes", func(t *testing.T) {
		_, err := scene.New("s", []scene.Entity{{ID: "a"}}, nil)
		var incomplete *scene.IncompleteError
		assert.ErrorAs(t, err, &incomplete)
	})

	t.Run("Unknown Relationship Endpoint", func(t *testing.T) {
		_, err := scene.New("s", []scene.Entity{entity("a")},
			[]scene.Relationship{{From: "a", To: "ghost", Label: "left_of"}})
		var incomplete *scene.IncompleteError
		assert.ErrorAs(t, err, &incomplete)
	})

	t.Run("Self Relation", func(t *testing.T) {
		_, err := scene.New("s", []scene.Entity{entity("a")},
			[]scene.Relationship{{From: "a", To: "a", Label: "left_of"}})
		var incomplete *scene.IncompleteError
		assert.ErrorAs(t, err, &incomplete)
	})
}

func TestScene_Related(t *testing.T) {
	s := testScene(t)

	// Edges a->c and a->b were listed out of index order; lookups come back
	// ascending regardless.
	assert.Equal(t, []int{1, 2}, s.Related(s.Index("a"), "left_of"))
	assert.Empty(t, s.Related(s.Index("c"), "left_of"))
	assert.Empty(t, s.Related(s.Index("a"), "right_of"))
}

func TestScene_Values(t *testing.T) {
	s := testScene(t)

	// First-appearance order over the entity sequence.
	assert.Equal(t, []string{"red", "blue"}, s.Values("color"))
	assert.Equal(t, []string{"cube", "sphere"}, s.Values("shape"))
	assert.Empty(t, s.Values("material"))
}

func TestScene_Vocabulary(t *testing.T) {
	s := testScene(t)

	attrs := map[string]struct{}{"color": {}, "shape": {}}
	labels := map[string]struct{}{"left_of": {}}
	assert.NoError(t, s.CheckVocabulary(attrs, labels))

	t.Run("Unknown Attribute", func(t *testing.T) {
		err := s.CheckVocabulary(map[string]struct{}{"color": {}}, labels)
		var incomplete *scene.IncompleteError
		assert.ErrorAs(t, err, &incomplete)
	})

	t.Run("Unknown Label", func(t *testing.T) {
		err := s.CheckVocabulary(attrs, map[string]struct{}{"before": {}})
		var incomplete *scene.IncompleteError
		assert.ErrorAs(t, err, &incomplete)
	})
}
