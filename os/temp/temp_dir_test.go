package temp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHierarchy(t *testing.T) {
	root, err := TempDirDefault()
	require.NoError(t, err)
	defer root.Remove()

	s, err := root.FixedDir("session.1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root.Dir, "session.1"), s.Dir)

	// Fixed directories may be requested again.
	again, err := root.FixedDir("session.1")
	require.NoError(t, err)
	assert.Equal(t, s.Dir, again.Dir)

	f, err := s.TempFile("stage-")
	require.NoError(t, err)
	f.Close()
	assert.Equal(t, s.Dir, filepath.Dir(f.Name()))

	for _, bad := range []string{"", ".", "..", "a/b"} {
		_, err := root.FixedDir(bad)
		assert.Error(t, err, bad)
	}

	require.NoError(t, root.Remove())
	_, err = os.Stat(root.Dir)
	assert.True(t, os.IsNotExist(err))
}

func TestAt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	d, err := At(dir)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(d.Dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
