// Package filter implements the boolean expression trees that gate
// article delivery per medium.
package filter

import (
	"encoding/json"
	"fmt"
)

// ExpressionType discriminates the two node kinds of a filter tree.
type ExpressionType string

const (
	TypeRelational ExpressionType = "RELATIONAL"
	TypeLogical    ExpressionType = "LOGICAL"
)

// Operators on relational nodes.
type RelationalOp string

const (
	OpEq       RelationalOp = "EQ"
	OpContains RelationalOp = "CONTAINS"
	OpMatches  RelationalOp = "MATCHES"

	// Legacy encodings, normalized to {op, not:true} at decode time.
	legacyOpNotEq      RelationalOp = "NOT_EQ"
	legacyOpNotContain RelationalOp = "NOT_CONTAIN"
)

// Operators on logical nodes.
type LogicalOp string

const (
	OpAnd LogicalOp = "AND"
	OpOr  LogicalOp = "OR"
)

// Operand is one side of a relational node. Left names an article
// field; Right holds the literal to compare against.
type Operand struct {
	Value string `json:"value"`
}

// Expression is one node of a filter tree. Exactly one of the two
// shapes is populated, discriminated by Type: relational nodes carry
// Op/Not/Left/Right, logical nodes carry LogicalOp/Children. Leaves
// are always relational; only logical nodes have children.
type Expression struct {
	Type ExpressionType

	// Relational
	Op    RelationalOp
	Not   bool
	Left  Operand
	Right Operand

	// Logical
	LogicalOp LogicalOp
	Children  []*Expression
}

type expressionJSON struct {
	Type     ExpressionType     `json:"type"`
	Op       string             `json:"op"`
	Not      bool               `json:"not,omitempty"`
	Left     *Operand           `json:"left,omitempty"`
	Right    *Operand           `json:"right,omitempty"`
	Children []*json.RawMessage `json:"children,omitempty"`
}

// UnmarshalJSON decodes a filter tree from its wire form. The legacy
// NOT_EQ and NOT_CONTAIN operators are rewritten to {op, not: true}
// here so evaluation only ever sees the normalized operator set.
func (e *Expression) UnmarshalJSON(data []byte) error {
	var raw expressionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode filter expression: %w", err)
	}

	*e = Expression{Type: raw.Type}

	switch raw.Type {
	case TypeRelational:
		op := RelationalOp(raw.Op)
		not := raw.Not
		switch op {
		case legacyOpNotEq:
			op, not = OpEq, true
		case legacyOpNotContain:
			op, not = OpContains, true
		}
		e.Op = op
		e.Not = not
		if raw.Left != nil {
			e.Left = *raw.Left
		}
		if raw.Right != nil {
			e.Right = *raw.Right
		}
	case TypeLogical:
		e.LogicalOp = LogicalOp(raw.Op)
		e.Children = make([]*Expression, 0, len(raw.Children))
		for _, childRaw := range raw.Children {
			if childRaw == nil {
				continue
			}
			var child Expression
			if err := json.Unmarshal(*childRaw, &child); err != nil {
				return err
			}
			e.Children = append(e.Children, &child)
		}
	default:
		return fmt.Errorf("unknown filter expression type %q", raw.Type)
	}

	return nil
}

// MarshalJSON emits the normalized wire form.
func (e *Expression) MarshalJSON() ([]byte, error) {
	raw := expressionJSON{Type: e.Type}

	switch e.Type {
	case TypeLogical:
		raw.Op = string(e.LogicalOp)
		raw.Children = make([]*json.RawMessage, 0, len(e.Children))
		for _, child := range e.Children {
			b, err := json.Marshal(child)
			if err != nil {
				return nil, err
			}
			msg := json.RawMessage(b)
			raw.Children = append(raw.Children, &msg)
		}
	default:
		raw.Op = string(e.Op)
		raw.Not = e.Not
		left, right := e.Left, e.Right
		raw.Left = &left
		raw.Right = &right
	}

	return json.Marshal(raw)
}
