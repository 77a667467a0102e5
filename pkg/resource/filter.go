package resource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ErrInvalidFilter is returned when a filter expression does not compile.
var ErrInvalidFilter = errors.New("invalid filter")

// Filter is a compiled boolean expression over a Summary, for example
//
//	resource_type == "EC2Instance" && name startsWith "i-"
type Filter struct {
	source  string
	program *vm.Program
}

// CompileFilter compiles src. An empty source yields a filter that matches
// everything.
func CompileFilter(src string) (*Filter, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return &Filter{}, nil
	}
	program, err := expr.Compile(src, expr.Env(Summary{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidFilter, src, err)
	}
	return &Filter{source: src, program: program}, nil
}

// String returns the filter source.
func (f *Filter) String() string { return f.source }

// Match reports whether s satisfies the filter.
func (f *Filter) Match(s Summary) (bool, error) {
	if f == nil || f.program == nil {
		return true, nil
	}
	out, err := expr.Run(f.program, s)
	if err != nil {
		return false, fmt.Errorf("evaluate filter %q: %w", f.source, err)
	}
	return out.(bool), nil
}

// Apply returns the summaries that satisfy the filter.
func (f *Filter) Apply(items []Summary) ([]Summary, error) {
	if f == nil || f.program == nil {
		return items, nil
	}
	out := make([]Summary, 0, len(items))
	for _, s := range items {
		ok, err := f.Match(s)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, s)
		}
	}
	return out, nil
}
