package readiness

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// VarsFunc supplies the variables an expression is evaluated against. It is
// called on every evaluation so that live sensor values are visible.
type VarsFunc func() map[string]cty.Value

// Expression is a predicate written as an HCL expression, for example
// `battery.voltage < 20`.
type Expression struct {
	src  string
	expr hcl.Expression
	vars VarsFunc
}

// NewExpression parses src and checks that every variable it references is
// provided by vars.
func NewExpression(src string, vars VarsFunc) (*Expression, error) {
	if vars == nil {
		return nil, errors.New("expression predicate requires a variables source")
	}
	expr, diags := hclsyntax.ParseExpression([]byte(src), "predicate.hcl", hcl.Pos{Line: 1, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse expression %q: %w", src, diags)
	}

	known := vars()
	for _, traversal := range expr.Variables() {
		if _, ok := known[traversal.RootName()]; !ok {
			return nil, fmt.Errorf("expression %q references unknown variable %q", src, traversal.RootName())
		}
	}
	return &Expression{src: src, expr: expr, vars: vars}, nil
}

// String returns the expression source.
func (e *Expression) String() string { return e.src }

// Due implements task.Predicate.
func (e *Expression) Due(context.Context) (bool, error) {
	val, diags := e.expr.Value(&hcl.EvalContext{Variables: e.vars()})
	if diags.HasErrors() {
		return false, fmt.Errorf("failed to evaluate %q: %w", e.src, diags)
	}
	val, err := convert.Convert(val, cty.Bool)
	if err != nil {
		return false, fmt.Errorf("expression %q is not a bool: %w", e.src, err)
	}
	if val.IsNull() || !val.IsKnown() {
		return false, fmt.Errorf("expression %q has no value", e.src)
	}
	return val.True(), nil
}
