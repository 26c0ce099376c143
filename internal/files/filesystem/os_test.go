package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_RootedWriteAndRead(t *testing.T) {
	root := t.TempDir()
	provider := NewRootedOSFileSystem(root)

	require.NoError(t, provider.MkdirAll("Assets/Data"))
	require.NoError(t, provider.WriteFile("Assets/Data/Monster_Goblin.asset", []byte("type: Monster\n")))

	onDisk, err := os.ReadFile(filepath.Join(root, "Assets", "Data", "Monster_Goblin.asset"))
	require.NoError(t, err)
	assert.Equal(t, "type: Monster\n", string(onDisk))

	content, err := provider.ReadFile("Assets/Data/Monster_Goblin.asset")
	require.NoError(t, err)
	assert.Equal(t, "type: Monster\n", string(content))
}

func TestOSFileSystem_AbsolutePathIgnoresRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "table.csv")
	require.NoError(t, os.WriteFile(file, []byte("a,b\n"), 0644))

	provider := NewRootedOSFileSystem(t.TempDir())
	content, err := provider.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(content))
}

func TestOSFileSystem_StatMissing(t *testing.T) {
	provider := NewRootedOSFileSystem(t.TempDir())
	_, err := provider.Stat("nope.asset")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.False(t, Exists(provider, "nope.asset"))
}

func TestOSFileSystem_OpenRejectsFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0644))

	_, err := NewRootedOSFileSystem(root).Open("a.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestOSFileSystem_WalkRelativePaths(t *testing.T) {
	root := t.TempDir()
	provider := NewRootedOSFileSystem(root)
	require.NoError(t, provider.MkdirAll("Assets/nested"))
	require.NoError(t, provider.WriteFile("Assets/a.asset", []byte("a")))
	require.NoError(t, provider.WriteFile("Assets/nested/b.asset", []byte("b")))

	dir, err := provider.Open("Assets")
	require.NoError(t, err)

	var files []string
	require.NoError(t, dir.Walk(func(f File, err error) error {
		if err != nil {
			return err
		}
		if !f.Info().IsDir() {
			files = append(files, f.RelativePath())
		}
		return nil
	}))
	assert.ElementsMatch(t, []string{"a.asset", "nested/b.asset"}, files)
}
