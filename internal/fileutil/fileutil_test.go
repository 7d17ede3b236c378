package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashBytes_Deterministic(t *testing.T) {
	t.Parallel()
	a := HashBytes([]byte("export const x = 1\n"))
	b := HashBytes([]byte("export const x = 1\n"))
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c := HashBytes([]byte("export const x = 2\n"))
	assert.NotEqual(t, a, c)
}

func TestHashFile_MatchesHashBytes(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "a.ts")
	content := []byte("function f() {}\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	got, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, HashBytes(content), got)
}

func TestHashFile_Missing(t *testing.T) {
	t.Parallel()
	_, err := HashFile(filepath.Join(t.TempDir(), "missing.ts"))
	assert.Error(t, err)
}

func TestCountLines(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  string
		want LineStats
	}{
		{
			name: "mixed",
			src:  "// header\n\nconst a = 1\nconst b = 2\n",
			want: LineStats{Total: 4, Code: 2, Comment: 1, Blank: 1},
		},
		{
			name: "block comment span",
			src:  "/*\n multi\n line\n*/\ncode()\n",
			want: LineStats{Total: 5, Code: 1, Comment: 4},
		},
		{
			name: "hash comments",
			src:  "# one\n# two\nvalue\n",
			want: LineStats{Total: 3, Code: 1, Comment: 2},
		},
		{
			name: "empty",
			src:  "",
			want: LineStats{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountLines([]byte(tt.src)))
		})
	}
}
