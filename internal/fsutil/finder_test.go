package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/widgetgrid/internal/testutil"
)

func TestFindFilesByExtension(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"a.hcl":        "",
		"nested/b.hcl": "",
		"nested/c.yml": "",
		"d.txt":        "",
	})

	got, err := FindFilesByExtension([]string{
		filepath.Join(root, "a.hcl"),
		root,
		filepath.Join(root, "missing"),
	}, ".hcl", ".yml")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.hcl"),
		filepath.Join(root, "nested", "b.hcl"),
		filepath.Join(root, "nested", "c.yml"),
	}, got)
}

func TestFindFilesByExtension_SingleFileFiltered(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{"x.yaml": ""})

	got, err := FindFilesByExtension([]string{filepath.Join(root, "x.yaml")}, ".hcl")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindFilesByExtension_RequiresExtensions(t *testing.T) {
	assert.Panics(t, func() { _, _ = FindFilesByExtension(nil) })
}
