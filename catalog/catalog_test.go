package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalogDir(t *testing.T, achievements, areas string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "achievements.json"), []byte(achievements), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "areas.json"), []byte(areas), 0o644))
	return dir
}

const testAreas = `{"areas": [{"id": 1, "name": "General", "icon": "star"}]}`

func TestLoadAssignsSequentialIDs(t *testing.T) {
	dir := writeCatalogDir(t, `{"achievements": [
		{"name": "First", "points": 10, "areaId": 1},
		{"name": "Second", "points": 20, "areaId": 1}
	]}`, testAreas)

	cat, err := Load(dir)
	require.NoError(t, err)

	achievements := cat.Achievements()
	require.Len(t, achievements, 2)
	assert.Equal(t, 1, achievements[0].ID)
	assert.Equal(t, 2, achievements[1].ID)
}

func TestLoadKeepsExplicitCleanIDs(t *testing.T) {
	dir := writeCatalogDir(t, `{"achievements": [
		{"id": 1, "name": "First", "points": 10, "areaId": 1},
		{"id": 2, "name": "Second", "points": 20, "areaId": 1}
	]}`, testAreas)

	cat, err := Load(dir)
	require.NoError(t, err)

	first, ok := cat.Get(1)
	require.True(t, ok)
	assert.Equal(t, "First", first.Name)
}

func TestLoadReassignsDuplicateIDs(t *testing.T) {
	dir := writeCatalogDir(t, `{"achievements": [
		{"id": 7, "name": "First", "points": 10, "areaId": 1},
		{"id": 7, "name": "Second", "points": 20, "areaId": 1}
	]}`, testAreas)

	cat, err := Load(dir)
	require.NoError(t, err)

	achievements := cat.Achievements()
	assert.Equal(t, 1, achievements[0].ID)
	assert.Equal(t, 2, achievements[1].ID)
}

func TestLoadMissingFiles(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestLoadBadJSON(t *testing.T) {
	dir := writeCatalogDir(t, `{"achievements": [`, testAreas)
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestPointsFor(t *testing.T) {
	dir := writeCatalogDir(t, `{"achievements": [
		{"name": "First", "points": 10, "areaId": 1},
		{"name": "Second", "points": 20, "areaId": 1},
		{"name": "Third", "points": 30, "areaId": 1}
	]}`, testAreas)

	cat, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 60, cat.PointsFor([]int{1, 2, 3}))
	assert.Equal(t, 40, cat.PointsFor([]int{1, 3}))
	assert.Zero(t, cat.PointsFor(nil))

	// Unknown ids contribute nothing.
	assert.Equal(t, 10, cat.PointsFor([]int{1, 99}))
}

func TestAreas(t *testing.T) {
	dir := writeCatalogDir(t, `{"achievements": []}`, testAreas)

	cat, err := Load(dir)
	require.NoError(t, err)

	areas := cat.Areas()
	require.Len(t, areas, 1)
	assert.Equal(t, "General", areas[0].Name)
}

func TestAccessorsReturnCopies(t *testing.T) {
	dir := writeCatalogDir(t, `{"achievements": [
		{"name": "First", "points": 10, "areaId": 1}
	]}`, testAreas)

	cat, err := Load(dir)
	require.NoError(t, err)

	cat.Achievements()[0].Name = "Mutated"
	assert.Equal(t, "First", cat.Achievements()[0].Name)
}
