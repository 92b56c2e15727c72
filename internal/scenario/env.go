package scenario

import (
	"errors"
	"fmt"

	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/record"
)

// Expression functions. The names avoid expr's operators and builtins
// ("not", "matches", "count", "len").
const (
	fnIs       = "is"
	fnIsNot    = "isNot"
	fnIsAny    = "isAny"
	fnGlobalIs = "globalIs"
	fnCount    = "numberOf"
	fnLabel    = "label"
)

// evalState records the first schema error raised while an expression ran.
// expr turns function errors into its own error type, so the original is
// kept here to be re-raised as a panic the path generator understands.
type evalState struct {
	schema error
}

func (es *evalState) fail(err error) error {
	if es.schema == nil {
		es.schema = err
	}
	return err
}

// environment binds the expression functions to s. event is empty for
// targets; DO is bound as the event it resolves to.
func environment(s model.State, event model.Event, es *evalState) map[string]any {
	ctx := s.Context
	return map[string]any{
		fnIs: func(args ...any) (any, error) {
			patches, err := patchArgs(fnIs, args, es)
			if err != nil {
				return nil, err
			}
			return record.Is(patches...)(ctx), nil
		},
		fnIsNot: func(args ...any) (any, error) {
			patches, err := patchArgs(fnIsNot, args, es)
			if err != nil {
				return nil, err
			}
			return record.Not(patches...)(ctx), nil
		},
		fnIsAny: func(args ...any) (any, error) {
			patches, err := patchArgs(fnIsAny, args, es)
			if err != nil {
				return nil, err
			}
			return record.IsAny(patches...)(ctx), nil
		},
		fnGlobalIs: func(args ...any) (any, error) {
			patches, err := toPatches(fnGlobalIs, args)
			if err != nil {
				return nil, err
			}
			for _, p := range patches {
				if err := record.CheckGlobal(p); err != nil {
					return nil, es.fail(err)
				}
			}
			return record.GlobalIs(patches...)(ctx), nil
		},
		fnCount: func(args ...any) (any, error) {
			patches, err := patchArgs(fnCount, args, es)
			if err != nil {
				return nil, err
			}
			if len(patches) != 1 {
				return nil, fmt.Errorf("%s takes exactly one pattern", fnCount)
			}
			return record.Count(patches[0])(ctx), nil
		},
		fnLabel: func(args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("%s takes exactly one label path", fnLabel)
			}
			path, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("%s: label path must be a string, got %T", fnLabel, args[0])
			}
			return s.Matches(path), nil
		},
		"time":    ctx.Time,
		"cursor":  int(ctx.Cursor),
		"changes": ctx.Len(),
		"actor":   string(s.Actor),
		"event":   string(model.Resolve(s, event)),
		"creates": string(model.Creates(s, event)),
	}
}

// patchArgs converts and schema-checks Change patches.
func patchArgs(fn string, args []any, es *evalState) ([]record.Patch, error) {
	patches, err := toPatches(fn, args)
	if err != nil {
		return nil, err
	}
	for _, p := range patches {
		if err := record.Check(p); err != nil {
			return nil, es.fail(err)
		}
	}
	return patches, nil
}

func toPatches(fn string, args []any) ([]record.Patch, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s needs at least one pattern", fn)
	}
	out := make([]record.Patch, len(args))
	for i, a := range args {
		m, ok := a.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: argument %d must be a map, got %T", fn, i, a)
		}
		out[i] = record.Patch(m)
	}
	return out, nil
}

// schemaPanic re-raises a recorded schema error so record.Recover sees it.
func (es *evalState) schemaPanic() {
	var se *record.SchemaError
	if errors.As(es.schema, &se) {
		panic(se)
	}
}
