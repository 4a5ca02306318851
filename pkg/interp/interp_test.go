package interp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/interp"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/program"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/scene"
)

func node(op program.Op, args []string, children ...*program.Node) *program.Node {
	n := &program.Node{Op: op, Children: children}
	for _, a := range args {
		n.Args = append(n.Args, program.ParseArg(a))
	}
	return n
}

// Three objects left to right: a red cube, a blue sphere, a red sphere.
func testScene(t *testing.T) *scene.Scene {
	t.Helper()
	s, err := scene.New("s1",
		[]scene.Entity{
			{ID: "obj_0", Attributes: map[string]string{"shape": "cube", "color": "red"}},
			{ID: "obj_1", Attributes: map[string]string{"shape": "sphere", "color": "blue"}},
			{ID: "obj_2", Attributes: map[string]string{"shape": "sphere", "color": "red"}},
		},
		[]scene.Relationship{
			{From: "obj_0", To: "obj_1", Label: "left_of"},
			{From: "obj_0", To: "obj_2", Label: "left_of"},
			{From: "obj_1", To: "obj_2", Label: "left_of"},
			{From: "obj_1", To: "obj_0", Label: "right_of"},
			{From: "obj_2", To: "obj_0", Label: "right_of"},
			{From: "obj_2", To: "obj_1", Label: "right_of"},
		},
	)
	require.NoError(t, err)
	return s
}

func eval(t *testing.T, n *program.Node) program.Value {
	t.Helper()
	v, err := interp.Evaluate(n, testScene(t))
	require.NoError(t, err)
	return v
}

func TestEvaluate_CountFilter(t *testing.T) {
	v := eval(t, node(program.OpCount, nil,
		node(program.OpFilter, []string{"color", "red"},
			node(program.OpScene, nil))))

	assert.Equal(t, program.TypeInteger, v.Type)
	assert.Equal(t, 2, v.Int)
	assert.Equal(t, "2", v.Answer())
}

func TestEvaluate_ExistNestedFilter(t *testing.T) {
	v := eval(t, node(program.OpExist, nil,
		node(program.OpFilter, []string{"shape", "sphere"},
			node(program.OpFilter, []string{"color", "red"},
				node(program.OpScene, nil)))))

	assert.True(t, v.Bool)
	assert.Equal(t, "true", v.Answer())
}

func TestEvaluate_QueryRelate(t *testing.T) {
	// "What color is the thing right of the blue sphere?" -> red
	v := eval(t, node(program.OpQuery, []string{"color"},
		node(program.OpUnique, nil,
			node(program.OpRelate, []string{"left_of"},
				node(program.OpUnique, nil,
					node(program.OpFilter, []string{"color", "blue"},
						node(program.OpScene, nil)))))))

	assert.Equal(t, "red", v.Answer())
}

func TestEvaluate_UniqueCardinality(t *testing.T) {
	_, err := interp.Evaluate(node(program.OpUnique, nil,
		node(program.OpFilter, []string{"color", "red"},
			node(program.OpScene, nil))), testScene(t))

	var evalErr *interp.EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, interp.ReasonCardinality, evalErr.Reason)
	assert.Equal(t, program.OpUnique, evalErr.Op)
}

func TestEvaluate_QueryUnknownAttribute(t *testing.T) {
	_, err := interp.Evaluate(node(program.OpQuery, []string{"material"},
		node(program.OpUnique, nil,
			node(program.OpFilter, []string{"shape", "cube"},
				node(program.OpScene, nil)))), testScene(t))

	var evalErr *interp.EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, interp.ReasonUnknownAttribute, evalErr.Reason)
}

func TestEvaluate_SetOps(t *testing.T) {
	red := node(program.OpFilter, []string{"color", "red"}, node(program.OpScene, nil))
	sphere := node(program.OpFilter, []string{"shape", "sphere"}, node(program.OpScene, nil))

	t.Run("Union", func(t *testing.T) {
		v := eval(t, node(program.OpUnion, nil, red, sphere))
		assert.Equal(t, []int{0, 1, 2}, v.Set)
	})

	t.Run("Intersect", func(t *testing.T) {
		v := eval(t, node(program.OpIntersect, nil, red, sphere))
		assert.Equal(t, []int{2}, v.Set)
	})
}

func TestEvaluate_Same(t *testing.T) {
	// Other objects with the same color as the red cube: the red sphere only.
	v := eval(t, node(program.OpSame, []string{"color"},
		node(program.OpUnique, nil,
			node(program.OpFilter, []string{"shape", "cube"},
				node(program.OpScene, nil)))))

	assert.Equal(t, []int{2}, v.Set)
}

func TestEvaluate_Comparisons(t *testing.T) {
	countOf := func(attr, val string) *program.Node {
		return node(program.OpCount, nil,
			node(program.OpFilter, []string{attr, val}, node(program.OpScene, nil)))
	}

	t.Run("Equal Integer", func(t *testing.T) {
		v := eval(t, node(program.OpEqual, []string{"integer"},
			countOf("color", "red"), countOf("shape", "sphere")))
		assert.True(t, v.Bool)
	})

	t.Run("Greater Than", func(t *testing.T) {
		v := eval(t, node(program.OpGreaterThan, nil,
			countOf("shape", "sphere"), countOf("shape", "cube")))
		assert.True(t, v.Bool)
	})

	t.Run("Less Than", func(t *testing.T) {
		v := eval(t, node(program.OpLessThan, nil,
			countOf("shape", "sphere"), countOf("shape", "cube")))
		assert.False(t, v.Bool)
	})

	t.Run("Equal Attribute", func(t *testing.T) {
		queryColor := func(shape string) *program.Node {
			return node(program.OpQuery, []string{"color"},
				node(program.OpUnique, nil,
					node(program.OpFilter, []string{"shape", shape},
						node(program.OpScene, nil))))
		}
		v := eval(t, node(program.OpEqual, []string{"attribute_value"},
			queryColor("cube"),
			node(program.OpQuery, []string{"color"},
				node(program.OpUnique, nil,
					node(program.OpFilter, []string{"color", "blue"},
						node(program.OpScene, nil))))))
		assert.False(t, v.Bool)
	})
}

func TestEvaluate_UnboundParameter(t *testing.T) {
	_, err := interp.Evaluate(node(program.OpFilter, []string{"color", "$c"},
		node(program.OpScene, nil)), testScene(t))

	var evalErr *interp.EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, interp.ReasonIllFormed, evalErr.Reason)
}
