package formula

import (
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/livemeasure/core/issues"
	"github.com/huangsam/livemeasure/core/rating"
	"github.com/huangsam/livemeasure/schema"
)

// Cells is the measure storage formulas read and write. *matrix.Matrix satisfies it.
type Cells interface {
	GetMeasure(componentUUID, metricKey string) (schema.LiveMeasure, bool, error)
	SetValue(componentUUID, metricKey string, value float64) error
	SetLeakValue(componentUUID, metricKey string, variation float64) error
}

// Registry is a validated, dependency-ordered set of formulas.
type Registry struct {
	formulas []Formula
	inputs   []string
}

// NewRegistry validates the formulas and sorts them so every formula runs
// after the formulas it depends on. Inputs are metrics read by formulas but
// written by analysis, such as development cost.
func NewRegistry(inputs []string, formulas ...Formula) (*Registry, error) {
	byMetric := make(map[string]int, len(formulas))
	for i, f := range formulas {
		if f.compute == nil {
			return nil, fmt.Errorf("formula %s has no compute function", f.metric)
		}
		if _, dup := byMetric[f.metric]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMetric, f.metric)
		}
		byMetric[f.metric] = i
	}
	inputSet := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		inputSet[in] = struct{}{}
	}
	for _, f := range formulas {
		for _, d := range f.deps {
			_, computed := byMetric[d.key]
			_, input := inputSet[d.key]
			if !computed && !input {
				return nil, fmt.Errorf("%w: %s depends on %s", ErrUnknownDependency, f.metric, d.key)
			}
		}
	}

	ordered, err := topoSort(formulas, byMetric)
	if err != nil {
		return nil, err
	}
	r := &Registry{formulas: ordered, inputs: append([]string(nil), inputs...)}
	if err := r.probe(); err != nil {
		return nil, err
	}
	return r, nil
}

// topoSort orders formulas depth-first, keeping registration order among
// formulas that do not depend on each other.
func topoSort(formulas []Formula, byMetric map[string]int) ([]Formula, error) {
	const (
		white = iota
		gray
		black
	)
	state := make([]int, len(formulas))
	ordered := make([]Formula, 0, len(formulas))
	var path []string

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("%w: %s -> %s", ErrCycle, strings.Join(path, " -> "), formulas[i].metric)
		}
		state[i] = gray
		path = append(path, formulas[i].metric)
		for _, d := range formulas[i].deps {
			j, ok := byMetric[d.key]
			if !ok || j == i {
				continue
			}
			if err := visit(j); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[i] = black
		ordered = append(ordered, formulas[i])
		return nil
	}

	for i := range formulas {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

// probe runs every formula once on an empty file so reads of undeclared
// metrics are rejected at construction.
func (r *Registry) probe() error {
	component := schema.Component{UUID: "probe", Key: "probe", Qualifier: schema.FileQualifier, UUIDPath: "."}
	counter := issues.NewCounter(nil)
	for _, f := range r.formulas {
		err := runOne(f, probeCells{}, component, rating.DefaultGrid, counter)
		if errors.Is(err, ErrUndeclaredDependency) {
			return err
		}
	}
	return nil
}

// Formulas returns the formulas in evaluation order.
func (r *Registry) Formulas() []Formula {
	return append([]Formula(nil), r.formulas...)
}

// Metrics returns every metric the registry reads or writes.
func (r *Registry) Metrics() []string {
	seen := map[string]struct{}{}
	var keys []string
	add := func(k string) {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for _, in := range r.inputs {
		add(in)
	}
	for _, f := range r.formulas {
		add(f.metric)
		for _, d := range f.deps {
			add(d.key)
		}
	}
	return keys
}

// Run evaluates the formulas on one component. Leak formulas are skipped when
// withLeak is false. The first failure stops the run and is returned as a
// *ComputeError.
func (r *Registry) Run(cells Cells, component schema.Component, grid rating.Grid, counter *issues.Counter, withLeak bool) error {
	for _, f := range r.formulas {
		if f.onLeak && !withLeak {
			continue
		}
		if err := runOne(f, cells, component, grid, counter); err != nil {
			return &ComputeError{Metric: f.metric, Component: component.Key, Err: err}
		}
	}
	return nil
}

func runOne(f Formula, cells Cells, component schema.Component, grid rating.Grid, counter *issues.Counter) (err error) {
	s := &scope{cells: cells, component: component, grid: grid, formula: f}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	if err := f.compute(s, counter); err != nil {
		return err
	}
	return s.err
}

// scope is the Context of one formula on one component.
type scope struct {
	cells     Cells
	component schema.Component
	grid      rating.Grid
	formula   Formula
	err       error
}

func (s *scope) Component() schema.Component {
	return s.component
}

func (s *scope) Grid() rating.Grid {
	return s.grid
}

func (s *scope) Value(ref Ref) (float64, bool) {
	row, ok := s.read(ref)
	if !ok || row.Value == nil {
		return 0, false
	}
	return *row.Value, true
}

func (s *scope) LeakValue(ref Ref) (float64, bool) {
	row, ok := s.read(ref)
	if !ok || row.Variation == nil {
		return 0, false
	}
	return *row.Variation, true
}

func (s *scope) read(ref Ref) (schema.LiveMeasure, bool) {
	if !s.formula.declares(ref) {
		s.fail(fmt.Errorf("%w: %s reads %s", ErrUndeclaredDependency, s.formula.metric, ref.key))
		return schema.LiveMeasure{}, false
	}
	row, ok, err := s.cells.GetMeasure(s.component.UUID, ref.key)
	if err != nil {
		s.fail(err)
		return schema.LiveMeasure{}, false
	}
	return row, ok
}

func (s *scope) SetValue(v float64) {
	s.fail(s.cells.SetValue(s.component.UUID, s.formula.metric, v))
}

func (s *scope) SetLeakValue(v float64) {
	s.fail(s.cells.SetLeakValue(s.component.UUID, s.formula.metric, v))
}

func (s *scope) SetRating(r rating.Rating) {
	s.SetValue(float64(r))
}

func (s *scope) SetLeakRating(r rating.Rating) {
	s.SetLeakValue(float64(r))
}

// fail keeps the first error.
func (s *scope) fail(err error) {
	if err != nil && s.err == nil {
		s.err = err
	}
}

type probeCells struct{}

func (probeCells) GetMeasure(string, string) (schema.LiveMeasure, bool, error) {
	return schema.LiveMeasure{}, false, nil
}

func (probeCells) SetValue(string, string, float64) error { return nil }

func (probeCells) SetLeakValue(string, string, float64) error { return nil }
