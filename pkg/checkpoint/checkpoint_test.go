package checkpoint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"twcrawler/pkg/logger"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	logger.SetLogger(logger.NewNopLogger())
	t.Cleanup(func() { logger.SetLogger(nil) })
	return NewManagerAt(filepath.Join(t.TempDir(), "seed.checkpoint.json"))
}

func TestCreateAndLoad(t *testing.T) {
	mgr := newTestManager(t)

	cp, err := mgr.Create(783214, "output2.txt")
	require.NoError(t, err)
	assert.Equal(t, []int64{783214}, cp.Frontier)
	assert.Equal(t, CurrentVersion, cp.Version)
	assert.True(t, mgr.Exists())

	loaded, err := mgr.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, int64(783214), loaded.SeedID)
	assert.Equal(t, "output2.txt", loaded.OutputFile)
	assert.Equal(t, []int64{783214}, loaded.Frontier)
	assert.Zero(t, loaded.Expanded)
}

func TestLoadMissing(t *testing.T) {
	mgr := newTestManager(t)

	cp, err := mgr.Load()
	assert.NoError(t, err)
	assert.Nil(t, cp)
	assert.False(t, mgr.Exists())
}

func TestRecordExpansion(t *testing.T) {
	mgr := newTestManager(t)

	cp, err := mgr.Create(1, "out.txt")
	require.NoError(t, err)

	frontier := []int64{2, 3}
	require.NoError(t, mgr.RecordExpansion(cp, frontier, 2))
	// Later changes to the caller's slice must not leak in
	frontier[0] = 99

	require.NoError(t, mgr.RecordExpansion(cp, []int64{3}, 0))

	loaded, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, loaded.Frontier)
	assert.Equal(t, 2, loaded.Expanded)
	assert.Equal(t, 2, loaded.SurvivorsTotal)
	assert.False(t, loaded.UpdatedAt.Before(loaded.CreatedAt))
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	mgr := newTestManager(t)
	_, err := mgr.Create(1, "out.txt")
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Dir(mgr.Path()))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), e.Name())
	}
}

func TestLoadRejectsCorruptAndFutureFiles(t *testing.T) {
	mgr := newTestManager(t)

	require.NoError(t, os.WriteFile(mgr.Path(), []byte("{not json"), 0644))
	_, err := mgr.Load()
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(mgr.Path(), []byte(`{"seed_id":1,"version":99}`), 0644))
	_, err = mgr.Load()
	assert.ErrorContains(t, err, "newer than supported")
}

func TestDelete(t *testing.T) {
	mgr := newTestManager(t)
	_, err := mgr.Create(1, "out.txt")
	require.NoError(t, err)

	require.NoError(t, mgr.Delete())
	assert.False(t, mgr.Exists())
	// Deleting again is fine
	assert.NoError(t, mgr.Delete())
}

func TestNewManagerUsesXDGDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_DATA_HOME", dir)
	xdg.Reload()

	mgr, err := NewManager(42)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "twcrawler", "checkpoints", "42.checkpoint.json"), mgr.Path())
}
