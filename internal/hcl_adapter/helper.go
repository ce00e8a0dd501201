package hcl_adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/intellisat/internal/ctxlog"
)

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder populates omitted optional fields with non-nil,
// zero-width expression objects, so a simple nil check is insufficient.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}

	// A real attribute occupies bytes in the file, while a placeholder for an
	// omitted optional attribute has a zero-width range.
	exprRange := expr.Range()
	isDefined := exprRange.End.Byte > exprRange.Start.Byte

	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", exprRange.String(),
		"is_defined", isDefined,
	)
	return isDefined
}

// decoder decodes optional attributes into their targets, leaving the target
// untouched when the attribute is absent. The first error sticks.
type decoder struct {
	ctx     context.Context
	evalCtx *hcl.EvalContext
	block   string
	err     error
}

func (d *decoder) value(expr hcl.Expression, name string, dst any) {
	if d.err != nil || !isExprDefined(d.ctx, expr, name) {
		return
	}
	if diags := gohcl.DecodeExpression(expr, d.evalCtx, dst); diags.HasErrors() {
		d.err = fmt.Errorf("%s.%s: %w", d.block, name, diags)
	}
}

// float decodes a number into a freshly allocated target, so an explicit
// zero stays apart from an omitted attribute.
func (d *decoder) float(expr hcl.Expression, name string, dst **float64) {
	if d.err != nil || !isExprDefined(d.ctx, expr, name) {
		return
	}
	var v float64
	if diags := gohcl.DecodeExpression(expr, d.evalCtx, &v); diags.HasErrors() {
		d.err = fmt.Errorf("%s.%s: %w", d.block, name, diags)
		return
	}
	*dst = &v
}

func (d *decoder) duration(expr hcl.Expression, name string, dst *time.Duration) {
	var raw string
	before := d.err
	d.value(expr, name, &raw)
	if d.err != before || raw == "" {
		return
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		d.err = fmt.Errorf("%s.%s: %s: %w", d.block, name, expr.Range(), err)
		return
	}
	*dst = parsed
}
