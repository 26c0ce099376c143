package filestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/csvasset/internal/files/filesystem"
	"github.com/vvka-141/csvasset/pkg/csvasset"
)

func TestStore_LoadIfExists_Missing(t *testing.T) {
	s := New(filesystem.NewMemoryFileSystem("/project"), nil)

	rec, err := s.LoadIfExists(context.Background(), "Assets/Monster_Goblin.asset")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStore_CommitAndReload(t *testing.T) {
	ctx := context.Background()
	mfs := filesystem.NewMemoryFileSystem("/project")
	s := New(mfs, nil)

	require.NoError(t, s.EnsureFolder(ctx, "Assets/Data"))
	rec := s.CreateBlank("game.Monster")
	rec.Set("name", "Goblin")
	rec.Set("hp", int64(10))
	require.NoError(t, s.RegisterNew(ctx, rec, "Assets/Data/Monster_Goblin.asset"))
	require.NoError(t, s.CommitBatch(ctx))
	assert.False(t, rec.Dirty())

	data, err := mfs.ReadFile("Assets/Data/Monster_Goblin.asset")
	require.NoError(t, err)
	assert.Contains(t, string(data), "type: game.Monster")
	assert.Contains(t, string(data), "name: Goblin")

	fresh := New(mfs, nil)
	loaded, err := fresh.LoadIfExists(ctx, "Assets/Data/Monster_Goblin.asset")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, csvasset.TypeID("game.Monster"), loaded.Type)
	assert.Equal(t, "Goblin", loaded.Fields["name"])
	assert.Equal(t, 10, loaded.Fields["hp"])
}

func TestStore_LoadIfExists_ReturnsStagedInstance(t *testing.T) {
	ctx := context.Background()
	s := New(filesystem.NewMemoryFileSystem("/project"), nil)

	rec := s.CreateBlank("game.Monster")
	require.NoError(t, s.RegisterNew(ctx, rec, "a.asset"))

	again, err := s.LoadIfExists(ctx, "a.asset")
	require.NoError(t, err)
	assert.Same(t, rec, again)
}

func TestStore_CommitOnlyDirtyExisting(t *testing.T) {
	ctx := context.Background()
	mfs := filesystem.NewMemoryFileSystem("/project")
	mfs.AddFile("a.asset", "type: game.Monster\nfields:\n  name: A\n")
	mfs.AddFile("b.asset", "type: game.Monster\nfields:\n  name: B\n")
	s := New(mfs, nil)

	a, err := s.LoadIfExists(ctx, "a.asset")
	require.NoError(t, err)
	b, err := s.LoadIfExists(ctx, "b.asset")
	require.NoError(t, err)

	a.Set("name", "A2")
	s.MarkDirty(a)
	b.Set("name", "B2") // not marked dirty

	require.NoError(t, s.CommitBatch(ctx))

	dataA, _ := mfs.ReadFile("a.asset")
	dataB, _ := mfs.ReadFile("b.asset")
	assert.Contains(t, string(dataA), "A2")
	assert.NotContains(t, string(dataB), "B2")
}

func TestStore_EmptyCommit(t *testing.T) {
	ctx := context.Background()
	s := New(filesystem.NewMemoryFileSystem("/project"), nil)
	assert.NoError(t, s.CommitBatch(ctx))
	assert.NoError(t, s.RefreshIndex(ctx))
}

func TestStore_RefreshIndex(t *testing.T) {
	ctx := context.Background()
	mfs := filesystem.NewMemoryFileSystem("/project")
	mfs.AddFile("Assets/old.asset", "type: game.Item\nfields: {}\n")
	mfs.AddFile("Assets/broken.asset", ": : :")
	mfs.AddFile("Assets/readme.txt", "not an asset")
	s := New(mfs, nil)

	rec := s.CreateBlank("game.Monster")
	require.NoError(t, s.RegisterNew(ctx, rec, "Assets/new.asset"))
	require.NoError(t, s.CommitBatch(ctx))
	require.NoError(t, s.RefreshIndex(ctx))

	index, err := ReadIndex(mfs)
	require.NoError(t, err)
	assert.Equal(t, []IndexEntry{
		{Location: "Assets/new.asset", Type: "game.Monster"},
		{Location: "Assets/old.asset", Type: "game.Item"},
	}, index.Assets)

	n, err := s.Count(ctx, "game.Monster")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_CountWithoutIndex(t *testing.T) {
	s := New(filesystem.NewMemoryFileSystem("/project"), nil)
	n, err := s.Count(context.Background(), "game.Monster")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_LoadIfExists_Corrupt(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/project")
	mfs.AddFile("bad.asset", "fields: {}\n")
	s := New(mfs, nil)

	_, err := s.LoadIfExists(context.Background(), "bad.asset")
	assert.ErrorContains(t, err, "missing type")
}

func TestStore_OSFileSystem(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := New(filesystem.NewRootedOSFileSystem(root), nil)

	require.NoError(t, s.EnsureFolder(ctx, "Assets"))
	rec := s.CreateBlank("game.Monster")
	rec.Set("speed", float32(1.5))
	require.NoError(t, s.RegisterNew(ctx, rec, "Assets/x.asset"))
	require.NoError(t, s.CommitBatch(ctx))
	require.NoError(t, s.RefreshIndex(ctx))

	index, err := ReadIndex(filesystem.NewRootedOSFileSystem(root))
	require.NoError(t, err)
	require.Len(t, index.Assets, 1)
	assert.Equal(t, "Assets/x.asset", index.Assets[0].Location)
}
