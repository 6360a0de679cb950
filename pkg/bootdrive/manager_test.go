package bootdrive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bootpe/pluginmart/pkg/mode"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func makeCloudPE(t *testing.T, root, version string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cloud-pe"), 0o755))
	config := `{"pe":{"version":"` + version + `"}}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "cloud-pe", "config.json"), []byte(config), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Cloud-PE.iso"), []byte("iso"), 0o644))
}

func rootsOf(paths ...string) func() []string {
	return func() []string { return paths }
}

func TestCloudPEDiscovery(t *testing.T) {
	drive := t.TempDir()
	plain := t.TempDir()
	makeCloudPE(t, drive, "1.5.2")

	mgr := NewManagerWithRoots(mode.CloudPE, rootsOf(plain, drive), quietLogger())

	drives := mgr.Drives()
	require.Len(t, drives, 1)
	assert.Equal(t, drive, drives[0].Root)
	assert.Equal(t, "1.5.2", drives[0].Version)
}

func TestCloudPERequiresBothMarkers(t *testing.T) {
	root := t.TempDir()
	// config.json without the ISO is not a boot drive.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cloud-pe"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cloud-pe", "config.json"), []byte(`{"pe":{"version":"1.0"}}`), 0o644))

	mgr := NewManagerWithRoots(mode.CloudPE, rootsOf(root), quietLogger())
	assert.Empty(t, mgr.Drives())
}

func TestCloudPEUnreadableVersionSkipsDrive(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cloud-pe"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cloud-pe", "config.json"), []byte("not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Cloud-PE.iso"), []byte("iso"), 0o644))

	mgr := NewManagerWithRoots(mode.CloudPE, rootsOf(root), quietLogger())
	assert.Empty(t, mgr.Drives())
}

func TestHotPEDiscovery(t *testing.T) {
	native := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(native, "HotPEModule"), 0o755))

	compatible := t.TempDir()
	makeCloudPE(t, compatible, "2.0")

	mgr := NewManagerWithRoots(mode.HotPE, rootsOf(native, compatible), quietLogger())

	drives := mgr.Drives()
	require.Len(t, drives, 2)
	assert.Equal(t, "HotPE", drives[0].Version)
	assert.Equal(t, "Cloud-PE (HotPE compatible)", drives[1].Version)
}

func TestEdgelessDiscovery(t *testing.T) {
	native := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(native, "Edgeless", "Resource"), 0o755))

	compatible := t.TempDir()
	makeCloudPE(t, compatible, "2.0")

	mgr := NewManagerWithRoots(mode.Edgeless, rootsOf(native, compatible), quietLogger())

	drives := mgr.Drives()
	require.Len(t, drives, 2)
	assert.Equal(t, "Edgeless", drives[0].Version)
	assert.Equal(t, "Cloud-PE (Edgeless compatible)", drives[1].Version)
}

func TestCurrentSelection(t *testing.T) {
	drive := t.TempDir()
	makeCloudPE(t, drive, "1.0")

	mgr := NewManagerWithRoots(mode.CloudPE, rootsOf(drive), quietLogger())

	_, ok := mgr.CurrentRoot()
	assert.False(t, ok)

	mgr.SetCurrent(drive)
	root, ok := mgr.CurrentRoot()
	assert.True(t, ok)
	assert.Equal(t, drive, root)
}

func TestReloadPicksUpNewDrives(t *testing.T) {
	root := t.TempDir()
	mgr := NewManagerWithRoots(mode.HotPE, rootsOf(root), quietLogger())
	assert.Empty(t, mgr.Drives())

	require.NoError(t, os.MkdirAll(filepath.Join(root, "HotPEModule"), 0o755))
	mgr.Reload()
	assert.Len(t, mgr.Drives(), 1)
}
