package record

import "reflect"

// Cond is a predicate over a Context.
type Cond func(Context) bool

// Action is a pure Context transformer.
type Action func(Context) Context

// merge folds patches into one; a field named twice takes the last value.
func merge(patches []Patch) Patch {
	out := Patch{}
	for _, p := range patches {
		for k, v := range p {
			out[k] = v
		}
	}
	return out
}

// Is holds when every field of every patch equals the cursor Change's value.
// A field named in more than one patch is checked against its last value.
func Is(patches ...Patch) Cond {
	bs := changeSchema.mustCompile(merge(patches))
	return func(c Context) bool {
		rec := reflect.ValueOf(c.Current())
		for _, b := range bs {
			if !b.matches(rec) {
				return false
			}
		}
		return true
	}
}

// Not holds unless some field of some patch equals the cursor Change's value.
// For a single-field patch it is the complement of Is.
func Not(patches ...Patch) Cond {
	cond := IsAny(patches...)
	return func(c Context) bool {
		return !cond(c)
	}
}

// IsAny holds when at least one field across the patches matches.
func IsAny(patches ...Patch) Cond {
	sets := make([][]binding, len(patches))
	for i, p := range patches {
		sets[i] = changeSchema.mustCompile(p)
	}
	return func(c Context) bool {
		rec := reflect.ValueOf(c.Current())
		for _, bs := range sets {
			for _, b := range bs {
				if b.matches(rec) {
					return true
				}
			}
		}
		return false
	}
}

// GlobalIs is Is addressed at the Global record.
func GlobalIs(patches ...Patch) Cond {
	bs := globalSchema.mustCompile(merge(patches))
	return func(c Context) bool {
		rec := reflect.ValueOf(c.Global)
		for _, b := range bs {
			if !b.matches(rec) {
				return false
			}
		}
		return true
	}
}

// And holds when every cond holds. Evaluation stops at the first false.
func And(conds ...Cond) Cond {
	return func(c Context) bool {
		for _, cond := range conds {
			if !cond(c) {
				return false
			}
		}
		return true
	}
}

// Or holds when any cond holds.
func Or(conds ...Cond) Cond {
	return func(c Context) bool {
		for _, cond := range conds {
			if cond(c) {
				return true
			}
		}
		return false
	}
}

// Negate inverts cond.
func Negate(cond Cond) Cond {
	return func(c Context) bool {
		return !cond(c)
	}
}

// All is the generic conjunction used for predicates of any single argument
// type, such as (state, event) pairs bundled by a caller.
func All[T any](preds ...func(T) bool) func(T) bool {
	return func(v T) bool {
		for _, p := range preds {
			if !p(v) {
				return false
			}
		}
		return true
	}
}

// Set returns an action that stores patch into the cursor Change.
// Every field is validated before anything is written.
func Set(patch Patch) Action {
	bs := changeSchema.mustCompile(patch)
	return func(c Context) Context {
		return c.Replace(c.Cursor, apply(c.Current(), bs))
	}
}

// SetFunc returns an action that stores value(c) into field of the cursor
// Change. The field name is validated once; the value's kind on each call.
func SetFunc(field string, value func(Context) any) Action {
	idx, ok := changeSchema.index[field]
	if !ok {
		panic(&SchemaError{Record: changeSchema.name, Field: field})
	}
	typ := changeSchema.typ.Field(idx).Type
	return func(c Context) Context {
		v, err := coerce(typ, value(c))
		if err != nil {
			panic(&SchemaError{Record: changeSchema.name, Field: field, Reason: err.Error()})
		}
		return c.Replace(c.Cursor, apply(c.Current(), []binding{{name: field, index: idx, value: v}}))
	}
}

// SetAt returns an action that stores patch into the Change with id.
func SetAt(id Ref, patch Patch) Action {
	return SetOn(patch)(id)
}

// SetOn validates patch once and returns a constructor for actions storing
// it into the Change with a given id.
func SetOn(patch Patch) func(Ref) Action {
	bs := changeSchema.mustCompile(patch)
	return func(id Ref) Action {
		return func(c Context) Context {
			ch, err := c.At(id)
			if err != nil {
				panic(err)
			}
			return c.Replace(id, apply(ch, bs))
		}
	}
}

// SetGlobal returns an action that stores patch into the Global record.
func SetGlobal(patch Patch) Action {
	bs := globalSchema.mustCompile(patch)
	return func(c Context) Context {
		c.Global = apply(c.Global, bs)
		return c
	}
}

// Then chains actions left to right.
func Then(actions ...Action) Action {
	return func(c Context) Context {
		for _, a := range actions {
			c = a(c)
		}
		return c
	}
}

// Matches reports whether ch holds every field of patch.
func Matches(ch Change, patch Patch) bool {
	bs := changeSchema.mustCompile(patch)
	rec := reflect.ValueOf(ch)
	for _, b := range bs {
		if !b.matches(rec) {
			return false
		}
	}
	return true
}

// Count returns a function counting the Changes that hold every field of patch.
func Count(patch Patch) func(Context) int {
	bs := changeSchema.mustCompile(patch)
	return func(c Context) int {
		n := 0
		for _, ch := range c.Changes {
			rec := reflect.ValueOf(ch)
			ok := true
			for _, b := range bs {
				if !b.matches(rec) {
					ok = false
					break
				}
			}
			if ok {
				n++
			}
		}
		return n
	}
}
