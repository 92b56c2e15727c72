package scenario

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/changeoracle/internal/model"
	"github.com/roach88/changeoracle/internal/record"
)

func TestLoad(t *testing.T) {
	scenarios, err := Load("testdata/lifecycle.yaml")
	require.NoError(t, err)
	require.Len(t, scenarios, 4)

	s := scenarios[0]
	assert.Equal(t, "enact-header", s.Name)
	assert.Equal(t, []string{"QA_RESOLVE", "TICK_TIME", "ENACT"}, s.Filter.WithEvents)
	require.Len(t, s.Filter.Max, 1)
	assert.Equal(t, 1, s.Filter.Max[0].Limit)
	assert.Equal(t, "SOLUTION", s.Filter.Max[0].Match["type"])
	assert.Equal(t, 8, s.MaxDepth)
	assert.Equal(t, "enactHeader", s.Macros["QA_RESOLVE > TICK_TIME > ENACT"])

	assert.Equal(t, []string{"FUND_ETH", "QA_RESOLVE"}, scenarios[3].Steps)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestParseRejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte(`
scenarios:
  - name: a
    target: 'is({funded: true})'
    depth: 3
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "depth")
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", `scenarios: []`, "non-empty"},
		{"no name", "scenarios:\n  - target: 'true'\n", "name is required"},
		{"neither target nor steps", "scenarios:\n  - name: a\n", "exactly one"},
		{"both target and steps", "scenarios:\n  - name: a\n    target: 'true'\n    steps: [DO]\n", "exactly one"},
		{"bad equivalence", "scenarios:\n  - name: a\n    target: 'true'\n    equivalence: labels\n", "equivalence"},
		{"negative limit", "scenarios:\n  - name: a\n    target: 'true'\n    filter:\n      max: [{limit: -1, match: {funded: true}}]\n", "limit"},
		{"empty match", "scenarios:\n  - name: a\n    target: 'true'\n    filter:\n      max: [{limit: 1}]\n", "match is required"},
		{"max below min", "scenarios:\n  - name: a\n    target: 'true'\n    expect: {min_paths: 3, max_paths: 2}\n", "max_paths"},
		{"duplicate", "scenarios:\n  - name: a\n    target: 'true'\n  - name: a\n    steps: [DO]\n", "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompileRejectsUnknownFieldInTarget(t *testing.T) {
	_, err := Compile(model.New(), Scenario{Name: "typo", Target: `is({fundd: true})`})

	require.Error(t, err)
	assert.True(t, IsCompileError(err))
	assert.True(t, record.IsSchemaError(err))
}

func TestCompileRejectsUnknownFieldInMax(t *testing.T) {
	_, err := Compile(model.New(), Scenario{
		Name:   "typo",
		Target: `is({funded: true})`,
		Filter: FilterSpec{Max: []MaxSpec{{Limit: 1, Match: map[string]any{"kind": "SOLUTION"}}}},
	})

	require.Error(t, err)
	assert.True(t, record.IsSchemaError(err))
}

func TestCompileRejectsNonBoolean(t *testing.T) {
	_, err := Compile(model.New(), Scenario{Name: "count", Target: `numberOf({type: "HEADER"})`})

	require.Error(t, err)
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "target", ce.Field)
}

func TestCompileRejectsUnknownNames(t *testing.T) {
	m := model.New()

	_, err := Compile(m, Scenario{Name: "a", Steps: []string{"FLY"}})
	var ue *model.UnknownEventError
	assert.True(t, errors.As(err, &ue))

	_, err = Compile(m, Scenario{Name: "b", Target: "true", Filter: FilterSpec{SkipEvents: []string{"FLY"}}})
	assert.True(t, errors.As(err, &ue))

	_, err = Compile(m, Scenario{Name: "c", Target: "true", Filter: FilterSpec{WithActors: []string{"auditor"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auditor")
}

func TestCompileRejectsBadArguments(t *testing.T) {
	_, err := Compile(model.New(), Scenario{Name: "a", Target: `is()`})
	require.Error(t, err)
	assert.False(t, record.IsSchemaError(err))
}

func TestCompileMergesMacros(t *testing.T) {
	c, err := Compile(model.New(), Scenario{
		Name:   "a",
		Target: "true",
		Macros: map[string]string{"CLAIM > EXIT": "leave"},
	})
	require.NoError(t, err)

	assert.Equal(t, "leave", c.Dictionary["CLAIM > EXIT"])
	assert.Equal(t, "resolveAndEnact", c.Dictionary["QA_RESOLVE > TICK_TIME > ENACT"])
}
