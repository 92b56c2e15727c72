package scenario

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/roach88/changeoracle/internal/describe"
	"github.com/roach88/changeoracle/internal/filter"
	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/pathgen"
	"github.com/roach88/changeoracle/internal/record"
)

// Compiled is a scenario ready to run against a machine.
type Compiled struct {
	Scenario Scenario

	// Target is nil when the scenario lists Steps.
	Target filter.Target
	Filter filter.Filter
	Steps  []model.Event

	// Dictionary is DefaultDictionary extended with the scenario's macros.
	Dictionary describe.Dictionary
}

// Compile turns a validated scenario into predicates.
//
// Expressions are compiled and then evaluated once against the initial state
// of m, so a misspelled field or a non-boolean result is reported here and
// not in the middle of a search.
func Compile(m *model.Machine, s Scenario) (*Compiled, error) {
	if err := s.Validate(); err != nil {
		return nil, &CompileError{Scenario: s.Name, Err: err}
	}

	c := &Compiled{
		Scenario:   s,
		Dictionary: dictionary(s.Macros),
	}

	if len(s.Steps) > 0 {
		for _, name := range s.Steps {
			e := model.Event(name)
			if _, ok := model.SpecOf(e); !ok {
				return nil, &CompileError{Scenario: s.Name, Field: "steps", Err: &model.UnknownEventError{Event: e}}
			}
			c.Steps = append(c.Steps, e)
		}
		return c, nil
	}

	target, err := compileTarget(m, s.Target)
	if err != nil {
		return nil, &CompileError{Scenario: s.Name, Field: "target", Err: err}
	}
	c.Target = target

	f, err := compileFilter(m, s.Filter)
	if err != nil {
		return nil, &CompileError{Scenario: s.Name, Field: "filter", Err: err}
	}
	c.Filter = f
	return c, nil
}

// Options returns the generator options the scenario implies.
func (c *Compiled) Options() []pathgen.Option {
	opts := []pathgen.Option{pathgen.WithName(c.Scenario.Name)}
	if c.Filter != nil {
		opts = append(opts, pathgen.WithFilter(c.Filter))
	}
	if c.Scenario.MaxDepth > 0 {
		opts = append(opts, pathgen.WithMaxDepth(c.Scenario.MaxDepth))
	}
	if c.Scenario.MaxStates > 0 {
		opts = append(opts, pathgen.WithMaxStates(c.Scenario.MaxStates))
	}
	if c.Scenario.Equivalence == EquivalenceKey {
		opts = append(opts, pathgen.WithEquivalence(pathgen.ByKey))
	}
	return opts
}

// Generate produces the scenario's paths and checks them against Expect.
// Extra options are applied after the scenario's own.
func (c *Compiled) Generate(m *model.Machine, extra ...pathgen.Option) (paths []pathgen.Path, err error) {
	defer recoverEval(&err)

	if len(c.Steps) > 0 {
		p, err := pathgen.FromEvents(m, c.Steps...)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", c.Scenario.Name, err)
		}
		paths = []pathgen.Path{p}
	} else {
		opts := append(c.Options(), extra...)
		paths, err = pathgen.Generate(m, c.Target, opts...)
		if err != nil {
			return nil, err
		}
	}

	if err := c.Check(paths); err != nil {
		return paths, err
	}
	return paths, nil
}

// Check compares paths with the scenario's expectations.
func (c *Compiled) Check(paths []pathgen.Path) error {
	exp := c.Scenario.Expect
	minPaths := exp.MinPaths
	if minPaths == 0 {
		minPaths = 1
	}
	if len(paths) < minPaths {
		return &ExpectationError{Scenario: c.Scenario.Name, Message: fmt.Sprintf("got %d paths, want at least %d", len(paths), minPaths)}
	}
	if exp.MaxPaths > 0 && len(paths) > exp.MaxPaths {
		return &ExpectationError{Scenario: c.Scenario.Name, Message: fmt.Sprintf("got %d paths, want at most %d", len(paths), exp.MaxPaths)}
	}
	if exp.Paths == nil {
		return nil
	}
	if len(paths) != len(exp.Paths) {
		return &ExpectationError{Scenario: c.Scenario.Name, Message: fmt.Sprintf("got %d paths, want exactly %d", len(paths), len(exp.Paths))}
	}
	for i, p := range paths {
		got := describe.Trace(p.Events(), nil)
		want := describe.Trace(toEvents(exp.Paths[i]), nil)
		if got != want {
			return &ExpectationError{Scenario: c.Scenario.Name, Message: fmt.Sprintf("path %d is %q, want %q", i, got, want)}
		}
	}
	return nil
}

func toEvents(names []string) []model.Event {
	out := make([]model.Event, len(names))
	for i, n := range names {
		out[i] = model.Event(n)
	}
	return out
}

func dictionary(macros map[string]string) describe.Dictionary {
	out := make(describe.Dictionary, len(describe.DefaultDictionary)+len(macros))
	for k, v := range describe.DefaultDictionary {
		out[k] = v
	}
	for k, v := range macros {
		out[k] = v
	}
	return out
}

// compileExpr compiles an expression against the function set. The result
// type is checked by run.
func compileExpr(source string) (*exprvm.Program, error) {
	env := environment(model.New().Initial(), "", &evalState{})
	program, err := exprlang.Compile(source, exprlang.Env(env))
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", source, err)
	}
	return program, nil
}

// run evaluates program in s. Schema errors are re-raised as panics so the
// path generator reports them as model faults; any other failure panics
// with an *EvalError.
func run(program *exprvm.Program, source string, s model.State, e model.Event) bool {
	es := &evalState{}
	out, err := exprlang.Run(program, environment(s, e, es))
	if err != nil {
		es.schemaPanic()
		panic(&EvalError{Expression: source, Err: err})
	}
	b, ok := out.(bool)
	if !ok {
		panic(&EvalError{Expression: source, Err: fmt.Errorf("result is %T, not bool", out)})
	}
	return b
}

// evalOnce evaluates once on the initial state and converts any panic from run
// back into an error.
func evalOnce(fn func()) (err error) {
	defer recoverEval(&err)
	defer record.Recover(&err)
	fn()
	return nil
}

func compileTarget(m *model.Machine, source string) (filter.Target, error) {
	program, err := compileExpr(source)
	if err != nil {
		return nil, err
	}
	target := func(s model.State) bool {
		return run(program, source, s, "")
	}
	if err := evalOnce(func() { target(m.Initial()) }); err != nil {
		return nil, err
	}
	return target, nil
}

func compileFilter(m *model.Machine, spec FilterSpec) (filter.Filter, error) {
	var parts []filter.Filter
	if len(spec.WithEvents) > 0 {
		events, err := knownEvents(spec.WithEvents)
		if err != nil {
			return nil, err
		}
		parts = append(parts, filter.WithEvents(events...))
	}
	if len(spec.SkipEvents) > 0 {
		events, err := knownEvents(spec.SkipEvents)
		if err != nil {
			return nil, err
		}
		parts = append(parts, filter.SkipEvents(events...))
	}
	if len(spec.WithActors) > 0 {
		actors, err := knownActors(spec.WithActors)
		if err != nil {
			return nil, err
		}
		parts = append(parts, filter.WithActors(actors...))
	}
	if len(spec.SkipActors) > 0 {
		actors, err := knownActors(spec.SkipActors)
		if err != nil {
			return nil, err
		}
		parts = append(parts, filter.SkipActors(actors...))
	}
	for i, mx := range spec.Max {
		var f filter.Filter
		err := evalOnce(func() { f = filter.Max(m, mx.Limit, record.Patch(mx.Match)) })
		if err != nil {
			return nil, fmt.Errorf("max[%d]: %w", i, err)
		}
		parts = append(parts, f)
	}
	if spec.When != "" {
		program, err := compileExpr(spec.When)
		if err != nil {
			return nil, err
		}
		when := func(s model.State, e model.Event) bool {
			return run(program, spec.When, s, e)
		}
		initial := m.Initial()
		if err := evalOnce(func() { when(initial, model.Do) }); err != nil {
			return nil, err
		}
		parts = append(parts, when)
	}
	if len(parts) == 0 {
		return filter.None, nil
	}
	return filter.And(parts...), nil
}

func knownEvents(names []string) ([]model.Event, error) {
	out := make([]model.Event, len(names))
	for i, n := range names {
		e := model.Event(n)
		if _, ok := model.SpecOf(e); !ok {
			return nil, &model.UnknownEventError{Event: e}
		}
		out[i] = e
	}
	return out, nil
}

func knownActors(names []string) ([]model.Actor, error) {
	out := make([]model.Actor, len(names))
	for i, n := range names {
		a := model.Actor(n)
		found := false
		for _, known := range model.Actors {
			if a == known {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown actor %q", n)
		}
		out[i] = a
	}
	return out, nil
}
