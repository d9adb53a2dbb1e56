package filter

import (
	"regexp"
	"strings"
)

// Evaluate walks the tree against one article's fields and reports
// whether the article passes. It is pure and total: a nil expression
// always passes, a malformed node evaluates to false, and it never
// panics regardless of input.
func Evaluate(expr *Expression, fields map[string]string) bool {
	if expr == nil {
		return true
	}

	switch expr.Type {
	case TypeRelational:
		return evaluateRelational(expr, fields)
	case TypeLogical:
		return evaluateLogical(expr, fields)
	default:
		return false
	}
}

func evaluateRelational(expr *Expression, fields map[string]string) bool {
	// Missing fields compare as the empty string.
	reference := fields[expr.Left.Value]

	var matched bool
	switch expr.Op {
	case OpEq:
		matched = strings.EqualFold(reference, expr.Right.Value)
	case OpContains:
		matched = strings.Contains(strings.ToLower(reference), strings.ToLower(expr.Right.Value))
	case OpMatches:
		re, err := regexp.Compile("(?i)" + expr.Right.Value)
		if err != nil {
			return false
		}
		matched = re.MatchString(reference)
	default:
		return false
	}

	if expr.Not {
		return !matched
	}
	return matched
}

func evaluateLogical(expr *Expression, fields map[string]string) bool {
	switch expr.LogicalOp {
	case OpAnd:
		// Vacuously true on no children.
		for _, child := range expr.Children {
			if !Evaluate(child, fields) {
				return false
			}
		}
		return true
	case OpOr:
		for _, child := range expr.Children {
			if Evaluate(child, fields) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
