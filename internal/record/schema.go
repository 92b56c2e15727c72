package record

import (
	"fmt"
	"reflect"
	"sort"
)

// Patch names schema fields and the values to compare against or store.
type Patch map[string]any

// schema is the declared field set of one record type, read from `field` tags.
type schema struct {
	name   string
	typ    reflect.Type
	index  map[string]int
	fields []string // declaration order
}

var (
	changeSchema = newSchema("Change", reflect.TypeOf(Change{}))
	globalSchema = newSchema("Global", reflect.TypeOf(Global{}))
)

func newSchema(name string, t reflect.Type) *schema {
	s := &schema{name: name, typ: t, index: make(map[string]int)}
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("field")
		if tag == "" {
			continue
		}
		s.index[tag] = i
		s.fields = append(s.fields, tag)
	}
	return s
}

// ChangeFields returns the Change schema field names in declaration order.
func ChangeFields() []string {
	return append([]string(nil), changeSchema.fields...)
}

// GlobalFields returns the Global schema field names in declaration order.
func GlobalFields() []string {
	return append([]string(nil), globalSchema.fields...)
}

// Check validates every field of p against the Change schema.
func Check(p Patch) error {
	_, err := changeSchema.compile(p)
	return err
}

// CheckGlobal validates every field of p against the Global schema.
func CheckGlobal(p Patch) error {
	_, err := globalSchema.compile(p)
	return err
}

// binding is one validated (field, value) pair.
type binding struct {
	name  string
	index int
	value reflect.Value
}

// compile validates p and converts its values to the schema's field types.
// Keys are visited in sorted order so the first reported error is stable.
func (s *schema) compile(p Patch) ([]binding, error) {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]binding, 0, len(keys))
	for _, k := range keys {
		idx, ok := s.index[k]
		if !ok {
			return nil, &SchemaError{Record: s.name, Field: k}
		}
		v, err := coerce(s.typ.Field(idx).Type, p[k])
		if err != nil {
			return nil, &SchemaError{Record: s.name, Field: k, Reason: err.Error()}
		}
		out = append(out, binding{name: k, index: idx, value: v})
	}
	return out, nil
}

// mustCompile is compile for predicate and action constructors.
func (s *schema) mustCompile(p Patch) []binding {
	b, err := s.compile(p)
	if err != nil {
		panic(err)
	}
	return b
}

// matches reports whether the field of rec named by b holds b's value.
func (b binding) matches(rec reflect.Value) bool {
	return rec.Field(b.index).Interface() == b.value.Interface()
}

// apply returns rec with every binding stored.
func apply[T any](rec T, bs []binding) T {
	v := reflect.ValueOf(&rec).Elem()
	for _, b := range bs {
		v.Field(b.index).Set(b.value)
	}
	return rec
}

// toMap returns rec as a map of field name to a JSON-friendly value.
func (s *schema) toMap(rec any) map[string]any {
	v := reflect.ValueOf(rec)
	out := make(map[string]any, len(s.fields))
	for _, name := range s.fields {
		f := v.Field(s.index[name])
		switch f.Kind() {
		case reflect.String:
			out[name] = f.String()
		case reflect.Bool:
			out[name] = f.Bool()
		case reflect.Int, reflect.Int64, reflect.Int32:
			out[name] = int(f.Int())
		default:
			out[name] = f.Interface()
		}
	}
	return out
}

// coerce converts val to the field type t. Only same-kind conversions are
// allowed: an int never becomes a string and a string never becomes a bool.
func coerce(t reflect.Type, val any) (reflect.Value, error) {
	v := reflect.ValueOf(val)
	if !v.IsValid() {
		return reflect.Value{}, fmt.Errorf("nil value")
	}
	switch t.Kind() {
	case reflect.Bool:
		if v.Kind() == reflect.Bool {
			return v.Convert(t), nil
		}
	case reflect.String:
		if v.Kind() == reflect.String {
			return v.Convert(t), nil
		}
	case reflect.Int, reflect.Int64, reflect.Int32:
		switch v.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return v.Convert(t), nil
		case reflect.Float64:
			// YAML and expr produce float64 for integer literals.
			f := v.Float()
			if f == float64(int64(f)) {
				return reflect.ValueOf(int64(f)).Convert(t), nil
			}
		}
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", val, t)
}
