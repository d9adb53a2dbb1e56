package filter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func relational(op RelationalOp, field, value string, not bool) *Expression {
	return &Expression{
		Type:  TypeRelational,
		Op:    op,
		Not:   not,
		Left:  Operand{Value: field},
		Right: Operand{Value: value},
	}
}

func logical(op LogicalOp, children ...*Expression) *Expression {
	return &Expression{Type: TypeLogical, LogicalOp: op, Children: children}
}

func TestEvaluate_Relational(t *testing.T) {
	article := map[string]string{
		"title": "Breaking News",
		"link":  "https://example.com/a",
	}

	tests := []struct {
		name string
		expr *Expression
		want bool
	}{
		{"eq exact", relational(OpEq, "title", "Breaking News", false), true},
		{"eq case insensitive", relational(OpEq, "title", "breaking news", false), true},
		{"eq mismatch", relational(OpEq, "title", "Other", false), false},
		{"eq negated", relational(OpEq, "title", "Breaking News", true), false},
		{"contains", relational(OpContains, "title", "news", false), true},
		{"contains negated on match", relational(OpContains, "title", "News", true), false},
		{"contains missing field", relational(OpContains, "author", "x", false), false},
		{"matches", relational(OpMatches, "link", `^https://`, false), true},
		{"matches case insensitive", relational(OpMatches, "title", "BREAKING", false), true},
		{"matches bad pattern is false", relational(OpMatches, "title", "(unclosed", false), false},
		{"matches bad pattern negated stays false", relational(OpMatches, "title", "(unclosed", true), false},
		{"unknown op", relational("BETWEEN", "title", "x", false), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(tc.expr, article))
		})
	}
}

func TestEvaluate_Logical(t *testing.T) {
	article := map[string]string{"title": "Hello World"}

	pass := relational(OpContains, "title", "hello", false)
	fail := relational(OpContains, "title", "absent", false)

	tests := []struct {
		name string
		expr *Expression
		want bool
	}{
		{"and empty is vacuously true", logical(OpAnd), true},
		{"or empty is false", logical(OpOr), false},
		{"and all pass", logical(OpAnd, pass, pass), true},
		{"and one fails", logical(OpAnd, pass, fail), false},
		{"or one passes", logical(OpOr, fail, pass), true},
		{"or none pass", logical(OpOr, fail, fail), false},
		{"nested", logical(OpAnd, pass, logical(OpOr, fail, pass)), true},
		{"unknown logical op", &Expression{Type: TypeLogical, LogicalOp: "XOR"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(tc.expr, article))
		})
	}
}

func TestEvaluate_NilAlwaysPasses(t *testing.T) {
	assert.True(t, Evaluate(nil, map[string]string{"title": "anything"}))
	assert.True(t, Evaluate(nil, nil))
}

func TestEvaluate_MalformedNodeIsFalse(t *testing.T) {
	assert.False(t, Evaluate(&Expression{Type: "WEIRD"}, map[string]string{}))
}

func TestExpression_UnmarshalNormalizesLegacyOps(t *testing.T) {
	raw := `{
		"type": "LOGICAL",
		"op": "AND",
		"children": [
			{"type": "RELATIONAL", "op": "NOT_EQ", "left": {"value": "title"}, "right": {"value": "spam"}},
			{"type": "RELATIONAL", "op": "NOT_CONTAIN", "left": {"value": "title"}, "right": {"value": "ads"}}
		]
	}`

	var expr Expression
	require.NoError(t, json.Unmarshal([]byte(raw), &expr))
	require.Len(t, expr.Children, 2)

	assert.Equal(t, OpEq, expr.Children[0].Op)
	assert.True(t, expr.Children[0].Not)
	assert.Equal(t, OpContains, expr.Children[1].Op)
	assert.True(t, expr.Children[1].Not)

	// Legacy negations behave as modern {op, not:true}.
	assert.True(t, Evaluate(&expr, map[string]string{"title": "fine article"}))
	assert.False(t, Evaluate(&expr, map[string]string{"title": "spam"}))
	assert.False(t, Evaluate(&expr, map[string]string{"title": "buy ads now"}))
}

func TestExpression_UnmarshalRejectsUnknownType(t *testing.T) {
	var expr Expression
	err := json.Unmarshal([]byte(`{"type": "TERNARY", "op": "EQ"}`), &expr)
	require.Error(t, err)
}

func TestExpression_MarshalRoundTrip(t *testing.T) {
	original := logical(OpOr,
		relational(OpContains, "title", "go", false),
		relational(OpEq, "author", "alice", true),
	)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Expression
	require.NoError(t, json.Unmarshal(data, &decoded))

	article := map[string]string{"title": "going places", "author": "bob"}
	assert.Equal(t, Evaluate(original, article), Evaluate(&decoded, article))
	assert.Equal(t, OpOr, decoded.LogicalOp)
	require.Len(t, decoded.Children, 2)
	assert.True(t, decoded.Children[1].Not)
}
