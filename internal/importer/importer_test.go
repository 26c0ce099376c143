package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/csvasset/internal/files/filesystem"
	"github.com/vvka-141/csvasset/internal/logging"
	"github.com/vvka-141/csvasset/internal/schema"
	"github.com/vvka-141/csvasset/internal/store/filestore"
	"github.com/vvka-141/csvasset/internal/store/sqlitestore"
	"github.com/vvka-141/csvasset/pkg/csvasset"
)

const monsterID csvasset.TypeID = "game.data.Monster"

func monsterRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	rt, err := schema.NewRecordType(monsterID, []csvasset.FieldDescriptor{
		{Name: "name", Kind: csvasset.KindText, TypeName: "string"},
		{Name: "hp", Kind: csvasset.KindInteger, TypeName: "int"},
		{Name: "speed", Kind: csvasset.KindFloat32, TypeName: "float"},
		{Name: "boss", Kind: csvasset.KindBoolean, TypeName: "bool"},
		{Name: "loot", Kind: csvasset.KindUnsupported, TypeName: "List<Item>"},
	})
	require.NoError(t, err)

	empty, err := schema.NewRecordType("game.data.Marker", nil)
	require.NoError(t, err)

	reg := schema.NewRegistry()
	require.NoError(t, reg.RegisterAll([]*schema.RecordType{rt, empty}))
	return reg
}

type fixture struct {
	fs    *filesystem.MemoryFileSystem
	store *filestore.Store
	imp   *Importer
}

func newFixture(t *testing.T, csv string, opts ...Option) *fixture {
	t.Helper()
	mfs := filesystem.NewMemoryFileSystem("/project")
	mfs.AddFile("data/monsters.csv", csv)
	st := filestore.New(mfs, nil)
	return &fixture{
		fs:    mfs,
		store: st,
		imp:   New(mfs, monsterRegistry(t), st, logging.NewNullLogger(), opts...),
	}
}

func request(typeID csvasset.TypeID) csvasset.ImportRequest {
	return csvasset.ImportRequest{
		FilePath:   "data/monsters.csv",
		TypeID:     typeID,
		SaveFolder: "Assets/Monsters",
	}
}

func reload(t *testing.T, mfs *filesystem.MemoryFileSystem, location string) *csvasset.Record {
	t.Helper()
	rec, err := filestore.New(mfs, nil).LoadIfExists(context.Background(), location)
	require.NoError(t, err)
	require.NotNil(t, rec, "expected record at %s", location)
	return rec
}

func TestRun_CreatesOneRecordPerRow(t *testing.T) {
	f := newFixture(t, "name,hp,speed,boss\nGoblin,10,1.5,false\nOrc,30,0.75,true\nDragon,500,2,TRUE\n")

	report, err := f.imp.Run(context.Background(), request(monsterID))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, 3, report.Upserted())
	assert.Equal(t, []string{
		"Assets/Monsters/Monster_Goblin.asset",
		"Assets/Monsters/Monster_Orc.asset",
		"Assets/Monsters/Monster_Dragon.asset",
	}, report.Created)
	assert.Empty(t, report.Updated)
	assert.Empty(t, report.Warnings)
	assert.True(t, report.Committed)

	dragon := reload(t, f.fs, "Assets/Monsters/Monster_Dragon.asset")
	assert.Equal(t, monsterID, dragon.Type)
	assert.Equal(t, "Dragon", dragon.Fields["name"])
	assert.Equal(t, 500, dragon.Fields["hp"])
	assert.Equal(t, true, dragon.Fields["boss"])

	index, err := filestore.ReadIndex(f.fs)
	require.NoError(t, err)
	assert.Len(t, index.Assets, 3)
}

func TestRun_IndexTemplate(t *testing.T) {
	f := newFixture(t, "name,hp\nA,1\nB,2\n")
	req := request(monsterID)
	req.IdentityTemplate = "{type}_{index}"

	report, err := f.imp.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Assets/Monsters/Monster_000.asset",
		"Assets/Monsters/Monster_001.asset",
	}, report.Created)
}

func TestRun_NameColumn(t *testing.T) {
	f := newFixture(t, "id,name,hp\n7,Goblin,1\n8,Orc\n9\n")
	req := request(monsterID)
	req.NameColumn = 1

	report, err := f.imp.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Assets/Monsters/Monster_Goblin.asset",
		"Assets/Monsters/Monster_Orc.asset",
		"Assets/Monsters/Monster_Unnamed.asset",
	}, report.Created)
}

func TestRun_GUIDTemplate(t *testing.T) {
	n := 0
	guids := func() string {
		n++
		return fmt.Sprintf("%032x", n)
	}
	f := newFixture(t, "name\nSlime\nSlime\n", WithGUIDSource(guids))
	req := request(monsterID)
	req.IdentityTemplate = "{column}_{guid}"

	report, err := f.imp.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Assets/Monsters/Slime_00000000000000000000000000000001.asset",
		"Assets/Monsters/Slime_00000000000000000000000000000002.asset",
	}, report.Created)
}

func TestRun_ReimportCreatesNothing(t *testing.T) {
	f := newFixture(t, "name,hp\nGoblin,10\nOrc,30\n")
	_, err := f.imp.Run(context.Background(), request(monsterID))
	require.NoError(t, err)

	f.fs.AddFile("data/monsters.csv", "name,hp\nGoblin,11\nOrc,31\n")
	second := New(f.fs, monsterRegistry(t), filestore.New(f.fs, nil), logging.NewNullLogger())
	report, err := second.Run(context.Background(), request(monsterID))
	require.NoError(t, err)

	assert.Empty(t, report.Created)
	assert.Equal(t, []string{
		"Assets/Monsters/Monster_Goblin.asset",
		"Assets/Monsters/Monster_Orc.asset",
	}, report.Updated)
	assert.Equal(t, 11, reload(t, f.fs, "Assets/Monsters/Monster_Goblin.asset").Fields["hp"])
}

func TestRun_CollidingIdentitiesUpdateOneRecord(t *testing.T) {
	f := newFixture(t, "name,hp,boss\nGoblin,10,true\nGoblin,20\n")

	report, err := f.imp.Run(context.Background(), request(monsterID))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Rows)
	assert.Equal(t, []string{"Assets/Monsters/Monster_Goblin.asset"}, report.Created)
	assert.Empty(t, report.Updated)

	rec := reload(t, f.fs, "Assets/Monsters/Monster_Goblin.asset")
	assert.Equal(t, 20, rec.Fields["hp"], "last row wins")
	assert.Equal(t, true, rec.Fields["boss"], "short second row keeps earlier value")
}

func TestRun_CoercionFailureKeepsPriorValue(t *testing.T) {
	f := newFixture(t, "name,hp,boss\nGoblin,abc,true\n")
	f.fs.AddFile("Assets/Monsters/Monster_Goblin.asset",
		"type: game.data.Monster\nfields:\n  hp: 10\n  boss: false\n")

	report, err := f.imp.Run(context.Background(), request(monsterID))
	require.NoError(t, err)

	require.Len(t, report.Warnings, 1)
	w := report.Warnings[0]
	assert.Equal(t, 0, w.Row)
	assert.Equal(t, "hp", w.Field)
	assert.Equal(t, "abc", w.Cell)
	assert.ErrorIs(t, w, csvasset.ErrCoercion)

	rec := reload(t, f.fs, "Assets/Monsters/Monster_Goblin.asset")
	assert.Equal(t, 10, rec.Fields["hp"])
	assert.Equal(t, true, rec.Fields["boss"], "later columns are still assigned")
}

func TestRun_UnknownAndUnsupportedColumnsAreIgnored(t *testing.T) {
	f := newFixture(t, "name,colour,loot,hp\nGoblin,green,sword,5\n")

	report, err := f.imp.Run(context.Background(), request(monsterID))
	require.NoError(t, err)
	assert.Empty(t, report.Warnings)

	rec := reload(t, f.fs, "Assets/Monsters/Monster_Goblin.asset")
	assert.Equal(t, 5, rec.Fields["hp"])
	assert.NotContains(t, rec.Fields, "colour")
	assert.NotContains(t, rec.Fields, "loot")
}

func TestRun_ShortAndLongRows(t *testing.T) {
	f := newFixture(t, "name,hp,boss\nGoblin\nOrc,3,true,extra,cells\n")

	report, err := f.imp.Run(context.Background(), request(monsterID))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Upserted())

	goblin := reload(t, f.fs, "Assets/Monsters/Monster_Goblin.asset")
	assert.Equal(t, map[string]any{"name": "Goblin"}, goblin.Fields)

	orc := reload(t, f.fs, "Assets/Monsters/Monster_Orc.asset")
	assert.Equal(t, 3, orc.Fields["hp"])
	assert.Equal(t, true, orc.Fields["boss"])
}

func TestRun_EmptyTextCellIsAssigned(t *testing.T) {
	f := newFixture(t, "hp,name\n1,\n")
	req := request(monsterID)
	req.IdentityTemplate = "{type}_{index}"

	_, err := f.imp.Run(context.Background(), req)
	require.NoError(t, err)

	rec := reload(t, f.fs, "Assets/Monsters/Monster_000.asset")
	assert.Equal(t, "", rec.Fields["name"])
}

func TestRun_HeaderOnly(t *testing.T) {
	f := newFixture(t, "name,hp\n")

	report, err := f.imp.Run(context.Background(), request(monsterID))
	require.NoError(t, err)
	assert.Zero(t, report.Rows)
	assert.Zero(t, report.Upserted())
	assert.True(t, report.Committed)
}

func TestRun_ZeroFieldType(t *testing.T) {
	f := newFixture(t, "name,hp\nA,1\n")

	report, err := f.imp.Run(context.Background(), request("game.data.Marker"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Assets/Monsters/Marker_A.asset"}, report.Created)

	rec := reload(t, f.fs, "Assets/Monsters/Marker_A.asset")
	assert.Empty(t, rec.Fields)
}

func TestRun_ShortTypeName(t *testing.T) {
	f := newFixture(t, "name\nA\n")
	report, err := f.imp.Run(context.Background(), request("Monster"))
	require.NoError(t, err)
	assert.Equal(t, monsterID, report.Type)
}

func TestRun_TypeCollisionReusesRecord(t *testing.T) {
	f := newFixture(t, "name,hp\nGoblin,4\n")
	f.fs.AddFile("Assets/Monsters/Monster_Goblin.asset", "type: game.data.Item\nfields:\n  weight: 2\n")

	report, err := f.imp.Run(context.Background(), request(monsterID))
	require.NoError(t, err)
	assert.Equal(t, []string{"Assets/Monsters/Monster_Goblin.asset"}, report.Updated)

	rec := reload(t, f.fs, "Assets/Monsters/Monster_Goblin.asset")
	assert.Equal(t, csvasset.TypeID("game.data.Item"), rec.Type)
	assert.Equal(t, 4, rec.Fields["hp"])
	assert.Equal(t, 2, rec.Fields["weight"])
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	f := newFixture(t, "name,hp\nGoblin,1\n")
	req := request(monsterID)
	req.DryRun = true

	report, err := f.imp.Run(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, report.Committed)
	assert.Equal(t, []string{"Assets/Monsters/Monster_Goblin.asset"}, report.Created)
	assert.False(t, filesystem.Exists(f.fs, "Assets/Monsters"))
	assert.False(t, filesystem.Exists(f.fs, filestore.IndexFile))
}

func TestRun_LoadErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		path string
	}{
		{name: "missing file", path: "data/missing.csv"},
		{name: "empty file", csv: "", path: "data/monsters.csv"},
		{name: "blank lines only", csv: "\n  \n\r\n", path: "data/monsters.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.csv)
			req := request(monsterID)
			req.FilePath = tt.path

			report, err := f.imp.Run(context.Background(), req)
			assert.Nil(t, report)
			assert.ErrorIs(t, err, csvasset.ErrLoad)

			var le *csvasset.LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.path, le.Path)
			assert.False(t, filesystem.Exists(f.fs, "Assets/Monsters"))
		})
	}
}

func TestRun_UnknownType(t *testing.T) {
	f := newFixture(t, "name\nA\n")
	_, err := f.imp.Run(context.Background(), request("game.data.Nope"))
	assert.ErrorIs(t, err, csvasset.ErrUnknownType)
}

func TestRun_InvalidRequest(t *testing.T) {
	f := newFixture(t, "name\nA\n")
	req := request(monsterID)
	req.NameColumn = -1
	_, err := f.imp.Run(context.Background(), req)
	assert.ErrorIs(t, err, csvasset.ErrInvalidConfig)
}

func TestRun_DefaultsApplied(t *testing.T) {
	f := newFixture(t, "name\nA\n")
	report, err := f.imp.Run(context.Background(), csvasset.ImportRequest{
		FilePath: "data/monsters.csv",
		TypeID:   monsterID,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Assets/ScriptableObjects/Monster_A.asset"}, report.Created)
}

// failingStore fails the step named by failOn.
type failingStore struct {
	*filestore.Store
	failOn     string
	nilRecords bool
}

var errBoom = errors.New("disk full")

func (s *failingStore) CommitBatch(ctx context.Context) error {
	if s.failOn == "commit" {
		return errBoom
	}
	return s.Store.CommitBatch(ctx)
}

func (s *failingStore) RefreshIndex(ctx context.Context) error {
	if s.failOn == "refresh" {
		return errBoom
	}
	return s.Store.RefreshIndex(ctx)
}

func (s *failingStore) LoadIfExists(ctx context.Context, location string) (*csvasset.Record, error) {
	if s.failOn == "load" {
		return nil, errBoom
	}
	return s.Store.LoadIfExists(ctx, location)
}

func (s *failingStore) CreateBlank(typeID csvasset.TypeID) *csvasset.Record {
	if s.nilRecords {
		return nil
	}
	return s.Store.CreateBlank(typeID)
}

func (s *failingStore) RegisterNew(ctx context.Context, rec *csvasset.Record, location string) error {
	if rec == nil {
		return nil
	}
	return s.Store.RegisterNew(ctx, rec, location)
}

func TestRun_CommitFailures(t *testing.T) {
	for _, step := range []string{"commit", "refresh"} {
		t.Run(step, func(t *testing.T) {
			mfs := filesystem.NewMemoryFileSystem("/project")
			mfs.AddFile("data/monsters.csv", "name,hp\nGoblin,1\nOrc,2\n")
			st := &failingStore{Store: filestore.New(mfs, nil), failOn: step}
			imp := New(mfs, monsterRegistry(t), st, logging.NewNullLogger())

			report, err := imp.Run(context.Background(), request(monsterID))
			require.Error(t, err)
			assert.ErrorIs(t, err, csvasset.ErrCommit)
			assert.ErrorIs(t, err, errBoom)

			var ce *csvasset.CommitError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, 2, ce.Pending)

			require.NotNil(t, report)
			assert.False(t, report.Committed)
			assert.Equal(t, 2, report.Rows)
		})
	}
}

func TestRun_StoreLookupFailure(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/project")
	mfs.AddFile("data/monsters.csv", "name\nGoblin\n")
	st := &failingStore{Store: filestore.New(mfs, nil), failOn: "load"}
	imp := New(mfs, monsterRegistry(t), st, logging.NewNullLogger())

	_, err := imp.Run(context.Background(), request(monsterID))
	assert.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, csvasset.ErrCommit)
}

func TestRun_AssignmentPanicBecomesWarning(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/project")
	mfs.AddFile("data/monsters.csv", "name,hp\nGoblin,1\n")
	st := &failingStore{Store: filestore.New(mfs, nil), nilRecords: true}
	imp := New(mfs, monsterRegistry(t), st, logging.NewNullLogger())

	report, err := imp.Run(context.Background(), request(monsterID))
	require.NoError(t, err)
	require.Len(t, report.Warnings, 2)
	for _, w := range report.Warnings {
		assert.ErrorIs(t, w, csvasset.ErrAssign)
	}
	assert.Equal(t, "name", report.Warnings[0].Field)
	assert.Equal(t, "hp", report.Warnings[1].Field)
}

func TestRun_WarningsAreLogged(t *testing.T) {
	var buf safeBuffer
	mfs := filesystem.NewMemoryFileSystem("/project")
	mfs.AddFile("data/monsters.csv", "name,speed\nGoblin,fast\n")
	imp := New(mfs, monsterRegistry(t), filestore.New(mfs, nil), logging.NewWriterLogger(&buf, false))

	_, err := imp.Run(context.Background(), request(monsterID))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `[WARN] row 0 [speed] = "fast"`)
}

func TestNew_PanicsOnNilDependencies(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/project")
	reg := schema.NewRegistry()
	st := filestore.New(mfs, nil)
	log := logging.NewNullLogger()

	assert.Panics(t, func() { New(nil, reg, st, log) })
	assert.Panics(t, func() { New(mfs, nil, st, log) })
	assert.Panics(t, func() { New(mfs, reg, nil, log) })
	assert.Panics(t, func() { New(mfs, reg, st, nil) })
}

func TestRun_ByteOrderMarkHeader(t *testing.T) {
	f := newFixture(t, "\ufeffname,hp\nGoblin,10\n")

	report, err := f.imp.Run(context.Background(), request(monsterID))
	require.NoError(t, err)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, []string{"Assets/Monsters/Monster_Goblin.asset"}, report.Created)

	rec := reload(t, f.fs, "Assets/Monsters/Monster_Goblin.asset")
	assert.Equal(t, "Goblin", rec.Fields["name"])
	assert.Equal(t, 10, rec.Fields["hp"])
}

func TestRun_PaddedCellsAreTrimmedForScalars(t *testing.T) {
	f := newFixture(t, "name,hp,boss\nGoblin, 10, true\n")

	report, err := f.imp.Run(context.Background(), request(monsterID))
	require.NoError(t, err)
	assert.Empty(t, report.Warnings)

	rec := reload(t, f.fs, "Assets/Monsters/Monster_Goblin.asset")
	assert.Equal(t, 10, rec.Fields["hp"])
	assert.Equal(t, true, rec.Fields["boss"])
}

func TestRun_NonFiniteFloatIsAWarning(t *testing.T) {
	ctx := context.Background()
	mfs := filesystem.NewMemoryFileSystem("/project")
	mfs.AddFile("data/monsters.csv", "name,hp,speed\nGoblin,10,1.5\nOrc,20,NaN\n")

	st, err := sqlitestore.Open(ctx, filepath.Join(t.TempDir(), "assets.db"), "", nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	report, err := New(mfs, monsterRegistry(t), st, logging.NewNullLogger()).Run(ctx, request(monsterID))
	require.NoError(t, err)
	assert.True(t, report.Committed)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, 1, report.Warnings[0].Row)
	assert.Equal(t, "speed", report.Warnings[0].Field)
	assert.ErrorIs(t, report.Warnings[0], csvasset.ErrCoercion)

	n, err := st.Count(ctx, monsterID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, report.Stored)

	orc, err := st.LoadIfExists(ctx, "Assets/Monsters/Monster_Orc.asset")
	require.NoError(t, err)
	require.NotNil(t, orc)
	assert.NotContains(t, orc.Fields, "speed")
}

func TestRun_IdentityOutsideSaveFolderIsSkipped(t *testing.T) {
	f := newFixture(t, "name,hp\n../../../escaped,1\nGoblin,2\n")
	req := request(monsterID)
	req.IdentityTemplate = "{column}"

	report, err := f.imp.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Rows)
	assert.Equal(t, []string{"Assets/Monsters/Goblin.asset"}, report.Created)
	require.Len(t, report.Warnings, 1)
	w := report.Warnings[0]
	assert.Equal(t, 0, w.Row)
	assert.Equal(t, "name", w.Field)
	assert.Equal(t, "../../../escaped", w.Cell)
	assert.ErrorIs(t, w, csvasset.ErrUnsafeIdentity)

	assert.False(t, filesystem.Exists(f.fs, "../escaped.asset"))
	assert.False(t, filesystem.Exists(f.fs, "escaped.asset"))
}

func TestRun_LogsStoredCount(t *testing.T) {
	var out safeBuffer
	mfs := filesystem.NewMemoryFileSystem("/project")
	mfs.AddFile("data/monsters.csv", "name,hp\nGoblin,1\nOrc,2\n")
	imp := New(mfs, monsterRegistry(t), filestore.New(mfs, nil), logging.NewWriterLogger(&out, true))

	report, err := imp.Run(context.Background(), request(monsterID))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Stored)
	assert.Contains(t, out.String(), "Store holds 2 game.data.Monster record(s)")
}

func TestRun_DryRunLeavesStoredUnknown(t *testing.T) {
	f := newFixture(t, "name\nGoblin\n")
	req := request(monsterID)
	req.DryRun = true

	report, err := f.imp.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, -1, report.Stored)
}
