package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_AddModifyUnchanged(t *testing.T) {
	t.Parallel()
	previous := map[string]string{"a.ts": "h1", "b.ts": "h2"}
	current := map[string]string{"a.ts": "h1", "b.ts": "h3", "c.ts": "h4"}

	c, err := Diff(previous, current)
	require.NoError(t, err)

	assert.Equal(t, []string{"c.ts"}, c.Added)
	assert.Equal(t, []string{"b.ts"}, c.Modified)
	assert.Empty(t, c.Deleted)
	assert.Equal(t, []string{"a.ts"}, c.Unchanged)
	assert.Equal(t, []string{"b.ts", "c.ts"}, c.NeedsRescan())
}

func TestDiff_AllDeleted(t *testing.T) {
	t.Parallel()
	c, err := Diff(map[string]string{"a.ts": "h1"}, map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.ts"}, c.Deleted)
	assert.Empty(t, c.Added)
	assert.Empty(t, c.Modified)
	assert.Empty(t, c.Unchanged)
	assert.Empty(t, c.NeedsRescan())
	assert.False(t, c.Empty())
}

func TestDiff_BothEmpty(t *testing.T) {
	t.Parallel()
	c, err := Diff(map[string]string{}, nil)
	require.NoError(t, err)
	assert.True(t, c.Empty())
}

func TestDiff_RenameIsDeletePlusAdd(t *testing.T) {
	t.Parallel()
	c, err := Diff(
		map[string]string{"old/name.ts": "h1"},
		map[string]string{"new/name.ts": "h1"},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"new/name.ts"}, c.Added)
	assert.Equal(t, []string{"old/name.ts"}, c.Deleted)
	assert.Empty(t, c.Modified)
}

// TestDiff_Partition checks that the four categories partition the union of
// both maps' keys exactly, with no key in two categories.
func TestDiff_Partition(t *testing.T) {
	t.Parallel()
	previous := map[string]string{
		"a.ts": "1", "b.ts": "2", "c.ts": "3", "d.ts": "4",
	}
	current := map[string]string{
		"b.ts": "2", "c.ts": "changed", "d.ts": "4", "e.ts": "5", "f.ts": "6",
	}

	c, err := Diff(previous, current)
	require.NoError(t, err)

	union := map[string]bool{}
	for k := range previous {
		union[k] = true
	}
	for k := range current {
		union[k] = true
	}

	seen := map[string]int{}
	for _, group := range [][]string{c.Added, c.Modified, c.Deleted, c.Unchanged} {
		for _, path := range group {
			seen[path]++
		}
	}

	assert.Len(t, seen, len(union))
	for path, count := range seen {
		assert.Equal(t, 1, count, "path %s appears in %d categories", path, count)
		assert.True(t, union[path])
	}
}

func TestDiff_MalformedInput(t *testing.T) {
	t.Parallel()

	_, err := Diff(map[string]string{"": "h1"}, nil)
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "previous", inputErr.Map)

	_, err = Diff(nil, map[string]string{"a.ts": ""})
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "current", inputErr.Map)
}
