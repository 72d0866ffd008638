package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/dicetree/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("d20", dsl.D(20).MustBuild()))

	node, err := r.Lookup("d20")
	require.NoError(t, err)
	assert.Equal(t, "d20", node.String())

	_, err = r.Lookup("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, r.Register("", dsl.D(6).MustBuild()))
	assert.Error(t, r.Register("empty", nil))
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("stats", dsl.Of(3).D(6).MustBuild()))
	require.NoError(t, r.Register("attack", dsl.D(20).MustBuild()))

	assert.Equal(t, []string{"attack", "stats"}, r.Names())
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_LoadDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	write("attack.yaml", "kind: die\nsides: 20\n")
	write("damage.json", `{"kind": "sum", "items": [{"kind": "die", "sides": 8}, 3]}`)
	write("notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o700))

	r := NewRegistry()
	n, err := r.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"attack", "damage"}, r.Names())

	damage, err := r.Lookup("damage")
	require.NoError(t, err)
	assert.Equal(t, 4, damage.Min())
	assert.Equal(t, 11, damage.Max())
}

func TestRegistry_LoadDirRejectsBadDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("kind: die\n"), 0o600))

	_, err := NewRegistry().LoadDir(dir)
	assert.ErrorContains(t, err, "broken.yaml")

	_, err = NewRegistry().LoadDir(filepath.Join(dir, "absent"))
	assert.Error(t, err)
}
