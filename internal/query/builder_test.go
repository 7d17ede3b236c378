package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Render(t *testing.T) {
	t.Parallel()
	q := New().
		Match("(s:Symbol {name: $name})").
		Where("s.exported").
		Return("s.name AS name").
		OrderBy("name").
		Limit(10).
		Param("name", "fetchUser")

	cypher, err := q.Render()
	require.NoError(t, err)
	assert.Equal(t,
		"MATCH (s:Symbol {name: $name})\nWHERE s.exported\nRETURN s.name AS name\nORDER BY name\nLIMIT 10",
		cypher,
	)
	assert.Equal(t, map[string]any{"name": "fetchUser"}, q.Params())
}

func TestBuilder_Immutable(t *testing.T) {
	t.Parallel()
	base := New().Match("(n)")
	withReturn := base.Return("n")
	withOther := base.Return("count(n) AS total")

	_, err := base.Render()
	assert.Error(t, err, "base must be unaffected by derived queries")

	a, err := withReturn.Render()
	require.NoError(t, err)
	b, err := withOther.Render()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	withParam := base.Param("k", 1)
	assert.Empty(t, base.Params())
	assert.Equal(t, map[string]any{"k": 1}, withParam.Params())
}

func TestBuilder_RenderErrors(t *testing.T) {
	t.Parallel()
	var synErr *SyntaxError

	_, err := New().Return("n").Render()
	require.ErrorAs(t, err, &synErr)

	_, err = New().Match("(n)").Render()
	require.ErrorAs(t, err, &synErr)

	assert.True(t, New().Empty())
	assert.False(t, New().Match("(n)").Empty())
}
