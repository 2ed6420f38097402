package zonemeter

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// MetricRow is one row of a metrics-mode summary block: a label and an
// expression evaluated per column against that column's Stats.
//
// Variables: Sum, Count, Min, Max, Mean (nil when absent), MinDate, MaxDate,
// Days (days in month), ID, Col. Example: "Mean ?? 0", "Sum / Days".
type MetricRow struct {
	Label string `yaml:"label" json:"label"`
	Expr  string `yaml:"expr" json:"expr"`
}

// DefaultMetricRows are the rows used when none are configured.
func DefaultMetricRows() []MetricRow {
	return []MetricRow{
		{Label: "最大日用水量", Expr: "Max"},
		{Label: "最小日用水量", Expr: "Min"},
		{Label: "日均用水量", Expr: "Mean"},
		{Label: "有效天数", Expr: "Count"},
	}
}

// ExpressionEvaluator evaluates metric expressions.
type ExpressionEvaluator interface {
	Evaluate(expression string, env map[string]any) (any, error)
}

// exprEvaluator implements ExpressionEvaluator using expr-lang/expr.
type exprEvaluator struct {
	cache sync.Map // expression string → compiled *vm.Program
}

// NewExpressionEvaluator creates a new expression evaluator backed by expr-lang/expr.
func NewExpressionEvaluator() ExpressionEvaluator {
	return &exprEvaluator{}
}

func (e *exprEvaluator) Evaluate(expression string, env map[string]any) (any, error) {
	if expression == "" {
		return nil, nil
	}
	program, err := e.compile(expression)
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", expression, err)
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("evaluate expression %q: %w", expression, err)
	}
	return result, nil
}

// compile builds an untyped program: the same expression runs against stats
// where Min/Max/Mean are sometimes nil, so types are not pinned at compile time.
func (e *exprEvaluator) compile(expression string) (*vm.Program, error) {
	if cached, ok := e.cache.Load(expression); ok {
		return cached.(*vm.Program), nil
	}
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	e.cache.Store(expression, program)
	return program, nil
}

// CompileCheck reports a syntax error in expression without running it.
func CompileCheck(expression string) error {
	_, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	return err
}

// statsEnv exposes a column's Stats to metric expressions.
func statsEnv(st Stats) map[string]any {
	env := map[string]any{
		"ID":      st.ID,
		"Col":     st.Col,
		"Sum":     st.Sum,
		"Count":   st.Count,
		"Days":    DaysIn(st.Year, st.Month),
		"Min":     nil,
		"Max":     nil,
		"Mean":    nil,
		"MinDate": nil,
		"MaxDate": nil,
	}
	if st.Min != nil {
		env["Min"] = st.Min.Value
		env["MinDate"] = st.Min.Day
	}
	if st.Max != nil {
		env["Max"] = st.Max.Value
		env["MaxDate"] = st.Max.Day
	}
	if st.Mean != nil {
		env["Mean"] = *st.Mean
	}
	return env
}
