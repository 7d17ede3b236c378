package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate_FindCallers(t *testing.T) {
	t.Parallel()
	tr, err := Translate("who calls fetchUser")
	require.NoError(t, err)
	assert.Equal(t, "find-callers", tr.Template)
	assert.Equal(t, []string{"fetchUser"}, tr.Args)
	assert.False(t, tr.Passthrough())
	assert.GreaterOrEqual(t, tr.Confidence, 0.9)

	cypher, err := tr.Query.Render()
	require.NoError(t, err)
	assert.Contains(t, cypher, "REFERENCES")
	assert.Equal(t, "fetchUser", tr.Query.Params()["name"])
}

func TestTranslate_Passthrough(t *testing.T) {
	t.Parallel()
	raw := "MATCH (n) RETURN n LIMIT 5"
	tr, err := Translate(raw)
	require.NoError(t, err)
	assert.True(t, tr.Passthrough())
	assert.Equal(t, raw, tr.Raw)
	assert.Empty(t, tr.Template)
	assert.True(t, tr.Query.Empty())
}

func TestTranslate_ArgumentCasePreserved(t *testing.T) {
	t.Parallel()
	tr, err := Translate("WHO CALLS FetchUser")
	require.NoError(t, err)
	assert.Equal(t, "find-callers", tr.Template)
	assert.Equal(t, []string{"FetchUser"}, tr.Args)
}

func TestTranslate_WhitespaceCollapsed(t *testing.T) {
	t.Parallel()
	tr, err := Translate("  who   calls\tfetchUser  ")
	require.NoError(t, err)
	assert.Equal(t, "find-callers", tr.Template)
	assert.Equal(t, []string{"fetchUser"}, tr.Args)
}

func TestTranslate_Phrases(t *testing.T) {
	t.Parallel()
	cases := []struct {
		input    string
		template string
		args     []string
	}{
		{"callers of parse", "find-callers", []string{"parse"}},
		{"what does main call", "find-callees", []string{"main"}},
		{"call graph of main depth 4", "find-call-graph-with-depth", []string{"main", "4"}},
		{"call graph for main", "find-call-graph-with-depth", []string{"main"}},
		{"unused exports", "find-unused-exports", nil},
		{"what extends BaseService", "find-extends", []string{"BaseService"}},
		{"who implements Repo", "find-implementations", []string{"Repo"}},
		{"members of class UserService", "find-class-members", []string{"UserService"}},
		{"list all classes", "find-classes", nil},
		{"what does src/api.ts import", "find-imports", []string{"src/api.ts"}},
		{"exports of src/api.ts", "find-exports", []string{"src/api.ts"}},
		{"dependencies of src/api.ts", "find-dependencies", []string{"src/api.ts"}},
		{"who depends on src/models.ts", "find-dependents", []string{"src/models.ts"}},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			tr, err := Translate(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.template, tr.Template)
			assert.Equal(t, tc.args, tr.Args)
			assert.False(t, tr.Passthrough())
		})
	}
}

func TestTranslate_EmptyInput(t *testing.T) {
	t.Parallel()
	for _, input := range []string{"", "   ", "\t \n"} {
		_, err := Translate(input)
		var synErr *SyntaxError
		require.ErrorAs(t, err, &synErr, "input %q", input)
	}
}

func TestTranslate_InvalidDepthPropagates(t *testing.T) {
	t.Parallel()
	_, err := Translate("call graph of main depth 99")
	var synErr *SyntaxError
	require.ErrorAs(t, err, &synErr)
}
