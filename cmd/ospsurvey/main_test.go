package main

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Merlito456/ospsurveyengine/internal/common"
)

func runCLI(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand(&out, &errOut)
	cmd.SetArgs(append([]string{"--data-dir", dataDir, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeJPEG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for x := 0; x < 64; x++ {
		for y := 0; y < 48; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 5), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	path := filepath.Join(dir, "shot.jpg")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestInit_CreatesDefaultProject(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Device ID: ")
	assert.Contains(t, out, "Project: ACTIVE OSP PROJECT (0 records)")
	assert.FileExists(t, filepath.Join(dir, "survey.db"))
}

func TestRecord_AddListEditDelete(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "record", "add", "14.5995", "120.9842", "--notes", "leaning")
	require.NoError(t, err)
	assert.Contains(t, out, "Added POLE-001")

	_, err = runCLI(t, dir, "record", "add", "14.6", "120.99", "--name", "JUNCTION A")
	require.NoError(t, err)

	out, err = runCLI(t, dir, "record", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "POLE-001")
	assert.Contains(t, out, "JUNCTION A")
	assert.Contains(t, out, "leaning")

	_, err = runCLI(t, dir, "record", "edit", "pole-001", "--notes", "replaced")
	require.NoError(t, err)
	out, err = runCLI(t, dir, "record", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "replaced")

	out, err = runCLI(t, dir, "record", "delete", "POLE-001", "JUNCTION A")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 2 record(s)")

	out, err = runCLI(t, dir, "record", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No survey records")
}

func TestRecord_InvalidInput(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "record", "add", "north", "120")
	require.Error(t, err)

	_, err = runCLI(t, dir, "record", "add", "91", "120")
	assert.ErrorIs(t, err, common.ErrInvalidCoordinates)

	_, err = runCLI(t, dir, "record", "delete", "NOPE")
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}

func TestProjectSet_OnlyChangedFields(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "project", "set", "--site", "NORTH LOOP")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "project", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Site: NORTH LOOP")
	assert.Contains(t, out, "Organization: FIELD OPERATIONS")
	assert.Contains(t, out, "Group: SURVEY GROUP 1")
}

func TestPhoto_AddReviewGetDelete(t *testing.T) {
	dir := t.TempDir()
	img := writeJPEG(t, t.TempDir())

	_, err := runCLI(t, dir, "record", "add", "14.5995", "120.9842")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "photo", "add", "POLE-001", img, "--lat", "14.5995", "--lng", "120.9842")
	require.NoError(t, err)
	assert.Contains(t, out, "VERIFIED: 0.0m FROM PIN")

	_, err = runCLI(t, dir, "photo", "review", "POLE-001", "1", "passed", "--remarks", "clear")
	require.NoError(t, err)

	out, err = runCLI(t, dir, "photo", "list", "POLE-001")
	require.NoError(t, err)
	assert.Contains(t, out, "PASSED")
	assert.Contains(t, out, "clear")

	_, err = runCLI(t, dir, "photo", "review", "POLE-001", "1", "maybe")
	assert.ErrorIs(t, err, common.ErrInvalidQAStatus)

	target := filepath.Join(t.TempDir(), "full.jpg")
	_, err = runCLI(t, dir, "photo", "get", "POLE-001", "1", "-o", target)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	_, err = jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	_, err = runCLI(t, dir, "photo", "delete", "POLE-001", "1")
	require.NoError(t, err)
	_, err = runCLI(t, dir, "photo", "get", "POLE-001", "1")
	assert.ErrorIs(t, err, common.ErrPhotoNotFound)
}

func TestPhotoAdd_RequiresBothCoordinates(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "record", "add", "1", "2")
	require.NoError(t, err)

	_, err = runCLI(t, dir, "photo", "add", "POLE-001", "x.jpg", "--lat", "1")
	require.Error(t, err)
}

func TestExport_DeliversToDirectory(t *testing.T) {
	dir := t.TempDir()
	exportDir := t.TempDir()

	_, err := runCLI(t, dir, "export", "--export-dir", exportDir)
	assert.ErrorIs(t, err, common.ErrNothingToExport)

	_, err = runCLI(t, dir, "record", "add", "14.5995", "120.9842")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "export", "--export-dir", exportDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported ACTIVE OSP PROJECT_OSP_EXPORT.zip via directory")
	assert.Contains(t, out, "Records: 1, photos: 0")
	assert.FileExists(t, filepath.Join(exportDir, "ACTIVE OSP PROJECT_OSP_EXPORT.zip"))
}

func TestReset_RequiresConfirmation(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "record", "add", "1", "2")
	require.NoError(t, err)

	_, err = runCLI(t, dir, "reset")
	require.Error(t, err)

	out, err := runCLI(t, dir, "record", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "POLE-001")

	_, err = runCLI(t, dir, "reset", "--yes")
	require.NoError(t, err)
	out, err = runCLI(t, dir, "record", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No survey records")
}

func TestStatus_ShowsCounts(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "record", "add", "1", "2")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Records")
	assert.Contains(t, out, "saved")
	assert.Contains(t, out, "inactive")
}

func TestActivate_WithoutValidatorFails(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "activate", "abc-123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID")
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Build version: N/A")
}
