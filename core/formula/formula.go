// Package formula defines measure formulas and the registry that orders and
// validates them.
//
// A formula produces one metric. It reads other metrics only through the
// Ref handles it declared when it was built; an undeclared read fails the
// formula. NewRegistry checks every declared dependency, orders formulas so
// producers run before their readers, and dry-runs each formula on an empty
// component so undeclared reads surface before any refresh.
package formula

import (
	"errors"
	"fmt"

	"github.com/huangsam/livemeasure/core/issues"
	"github.com/huangsam/livemeasure/core/rating"
	"github.com/huangsam/livemeasure/schema"
)

var (
	// ErrUndeclaredDependency is recorded when a formula reads a metric it did not declare.
	ErrUndeclaredDependency = errors.New("undeclared dependency")
	// ErrUnknownDependency is returned when a dependency is neither computed nor an input.
	ErrUnknownDependency = errors.New("unknown dependency")
	// ErrDuplicateMetric is returned when two formulas produce the same metric.
	ErrDuplicateMetric = errors.New("metric computed by more than one formula")
	// ErrCycle is returned when formula dependencies form a cycle.
	ErrCycle = errors.New("dependency cycle")
)

// Ref is a handle to a metric a formula depends on.
type Ref struct {
	key string
}

// Dep returns the handle of a metric.
func Dep(key string) Ref {
	return Ref{key: key}
}

// Key returns the metric key behind the handle.
func (r Ref) Key() string {
	return r.key
}

// Context is what a formula sees while it runs on one component.
type Context interface {
	Component() schema.Component
	Grid() rating.Grid
	// Value returns the value of a declared dependency on the current component.
	Value(ref Ref) (float64, bool)
	// LeakValue returns the variation of a declared dependency on the current component.
	LeakValue(ref Ref) (float64, bool)
	SetValue(v float64)
	SetLeakValue(v float64)
	SetRating(r rating.Rating)
	SetLeakRating(r rating.Rating)
}

// ComputeFunc computes the formula metric for the current component.
type ComputeFunc func(ctx Context, counter *issues.Counter) error

// Formula computes one metric.
type Formula struct {
	metric  string
	onLeak  bool
	deps    []Ref
	compute ComputeFunc
}

// New builds a formula. Leak formulas only run when the project has a leak period.
func New(metric string, onLeak bool, compute ComputeFunc, deps ...Ref) Formula {
	return Formula{metric: metric, onLeak: onLeak, deps: deps, compute: compute}
}

// Metric returns the key of the produced metric.
func (f Formula) Metric() string {
	return f.metric
}

// OnLeak reports whether the formula is restricted to the leak period.
func (f Formula) OnLeak() bool {
	return f.onLeak
}

// Dependencies returns the keys of the declared dependencies.
func (f Formula) Dependencies() []string {
	keys := make([]string, len(f.deps))
	for i, d := range f.deps {
		keys[i] = d.key
	}
	return keys
}

func (f Formula) declares(ref Ref) bool {
	if ref.key == f.metric {
		return true
	}
	for _, d := range f.deps {
		if d == ref {
			return true
		}
	}
	return false
}

// ComputeError annotates a failed formula with the metric and component.
type ComputeError struct {
	Metric    string
	Component string
	Err       error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("fail to compute %s on %s: %v", e.Metric, e.Component, e.Err)
}

func (e *ComputeError) Unwrap() error {
	return e.Err
}
