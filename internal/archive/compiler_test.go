package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Merlito456/ospsurveyengine/internal/clock"
	"github.com/Merlito456/ospsurveyengine/internal/common"
	"github.com/Merlito456/ospsurveyengine/internal/logging"
	"github.com/Merlito456/ospsurveyengine/internal/models"
	"github.com/Merlito456/ospsurveyengine/internal/storage"
)

type memBlobs struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemBlobs() *memBlobs { return &memBlobs{data: map[string][]byte{}} }

func (m *memBlobs) Put(_ context.Context, id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = data
	return nil
}

func (m *memBlobs) Get(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.data[id], nil
}

func (m *memBlobs) Has(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[id]
	return ok, nil
}

func (m *memBlobs) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *memBlobs) List(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memBlobs) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = map[string][]byte{}
	return nil
}

var t0 = time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)

func unzip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = b
	}
	return out
}

func entryNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func surveyDoc() *models.Project {
	alt := 12.5
	return &models.Project{
		ID:               "p1",
		SiteName:         "Makati North",
		OrganizationName: "FIELD OPERATIONS",
		GroupName:        "SURVEY GROUP 1",
		Records: []models.SurveyRecord{
			{
				ID: "r1", Name: "POLE-001", Latitude: 14.5995, Longitude: 120.9842, Altitude: &alt,
				Notes: "leaning",
				Photos: []models.Photo{
					{ID: "ph1", Status: models.QAPassed, HasBlob: true},
					{ID: "ph2", Status: models.QAPending, HasBlob: true},
				},
			},
			{
				ID: "r2", Name: "POLE-002", Latitude: 14.6, Longitude: 120.99,
				Photos: []models.Photo{{ID: "ph3", Status: models.QARetake, HasBlob: true}},
			},
		},
	}
}

func seeded() *memBlobs {
	b := newMemBlobs()
	b.data["ph1"] = []byte("jpeg-one")
	b.data["ph2"] = []byte("jpeg-two")
	b.data["ph3"] = []byte("jpeg-three")
	return b
}

func TestCompile_Layout(t *testing.T) {
	c := NewCompiler(seeded(), clock.Fake(t0), 2, logging.Nop())

	res, err := c.Compile(context.Background(), surveyDoc())
	require.NoError(t, err)

	assert.Equal(t, "Makati North_2024-03-09T10-30-00", res.Root)
	assert.Equal(t, "Makati North_OSP_EXPORT.zip", res.FileName)
	assert.Equal(t, 2, res.Records)
	assert.Equal(t, 3, res.Photos)
	assert.Equal(t, 0, res.Missing)

	root := res.Root + "/"
	assert.Equal(t, []string{
		root,
		root + "Makati North_REPORT.kmz",
		root + "PROJECT_SUMMARY.txt",
		root + "POLES/",
		root + "POLES/POLE-001/",
		root + "POLES/POLE-001/metadata.txt",
		root + "POLES/POLE-001/PHOTO_1.jpg",
		root + "POLES/POLE-001/PHOTO_2.jpg",
		root + "POLES/POLE-002/",
		root + "POLES/POLE-002/metadata.txt",
		root + "POLES/POLE-002/PHOTO_1.jpg",
	}, entryNames(t, res.Data))

	files := unzip(t, res.Data)
	assert.Equal(t, []byte("jpeg-two"), files[root+"POLES/POLE-001/PHOTO_2.jpg"])
	assert.Contains(t, string(files[root+"POLES/POLE-001/metadata.txt"]), "ALT: 12.5")

	kmz := unzip(t, files[root+"Makati North_REPORT.kmz"])
	assert.Equal(t, []byte("jpeg-one"), kmz["images/POLE-001_IMG_1.jpg"])
	assert.Equal(t, []byte("jpeg-three"), kmz["images/POLE-002_IMG_1.jpg"])
	kmlText := string(kmz["doc.kml"])
	assert.Contains(t, kmlText, "<name>Makati North</name>")
	assert.Contains(t, kmlText, "120.9842,14.5995,12.5")
	assert.Contains(t, kmlText, "images/POLE-001_IMG_2.jpg")
}

func TestCompile_SingleRecordScenario(t *testing.T) {
	doc := &models.Project{
		ID:       "p1",
		SiteName: "SITE",
		Records: []models.SurveyRecord{{
			ID: "r1", Name: "POLE-001", Latitude: 14.5995, Longitude: 120.9842,
			Notes: "ok", Photos: []models.Photo{},
		}},
	}
	c := NewCompiler(newMemBlobs(), clock.Fake(t0), 0, logging.Nop())

	res, err := c.Compile(context.Background(), doc)
	require.NoError(t, err)
	files := unzip(t, res.Data)
	root := res.Root + "/"

	assert.Contains(t, string(files[root+"PROJECT_SUMMARY.txt"]), "POLE COUNT: 1")

	meta := string(files[root+"POLES/POLE-001/metadata.txt"])
	assert.Contains(t, meta, "LAT: 14.5995")
	assert.Contains(t, meta, "LNG: 120.9842")
	assert.Contains(t, meta, "NOTES: ok")

	kmlText := string(unzip(t, files[root+"SITE_REPORT.kmz"])["doc.kml"])
	assert.Equal(t, 1, strings.Count(kmlText, "<Placemark>"))
	assert.Contains(t, kmlText, "<name>POLE-001</name>")
	assert.Contains(t, kmlText, "<coordinates>120.9842,14.5995</coordinates>")
}

func TestCompile_EmptyDocumentIsValid(t *testing.T) {
	c := NewCompiler(newMemBlobs(), clock.Fake(t0), 0, logging.Nop())

	res, err := c.Compile(context.Background(), &models.Project{ID: "p", SiteName: ""})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Root, FallbackName+"_"))

	files := unzip(t, res.Data)
	kmlText := string(unzip(t, files[res.Root+"/Unknown_REPORT.kmz"])["doc.kml"])
	assert.Contains(t, kmlText, "<Document>")
	assert.NotContains(t, kmlText, "<Placemark>")
	assert.Contains(t, string(files[res.Root+"/PROJECT_SUMMARY.txt"]), "POLE COUNT: 0")
}

func TestCompile_DeterministicAcrossClock(t *testing.T) {
	blobs := seeded()
	first, err := NewCompiler(blobs, clock.Fake(t0), 1, logging.Nop()).Compile(context.Background(), surveyDoc())
	require.NoError(t, err)
	second, err := NewCompiler(blobs, clock.Fake(t0.Add(26*time.Hour)), 8, logging.Nop()).Compile(context.Background(), surveyDoc())
	require.NoError(t, err)

	require.NotEqual(t, first.Root, second.Root)

	a := stripRoot(unzip(t, first.Data), first.Root)
	b := stripRoot(unzip(t, second.Data), second.Root)
	require.Equal(t, len(a), len(b))

	for name, data := range a {
		if name == "PROJECT_SUMMARY.txt" {
			assert.Equal(t, withoutDate(data), withoutDate(b[name]))
			continue
		}
		assert.Equal(t, data, b[name], name)
	}
}

func TestCompile_SameClockIsByteIdentical(t *testing.T) {
	blobs := seeded()
	c := NewCompiler(blobs, clock.Fake(t0), 3, logging.Nop())

	first, err := c.Compile(context.Background(), surveyDoc())
	require.NoError(t, err)
	second, err := c.Compile(context.Background(), surveyDoc())
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
}

func stripRoot(files map[string][]byte, root string) map[string][]byte {
	out := make(map[string][]byte, len(files))
	for name, data := range files {
		out[strings.TrimPrefix(name, root+"/")] = data
	}
	return out
}

func withoutDate(summary []byte) string {
	var keep []string
	for _, line := range strings.Split(string(summary), "\n") {
		if !strings.HasPrefix(line, "DATE: ") {
			keep = append(keep, line)
		}
	}
	return strings.Join(keep, "\n")
}

func TestCompile_MissingBlobIsSkipped(t *testing.T) {
	blobs := seeded()
	delete(blobs.data, "ph2")
	c := NewCompiler(blobs, clock.Fake(t0), 0, logging.Nop())

	res, err := c.Compile(context.Background(), surveyDoc())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Missing)

	files := unzip(t, res.Data)
	root := res.Root + "/"
	assert.Contains(t, files, root+"POLES/POLE-001/PHOTO_1.jpg")
	assert.NotContains(t, files, root+"POLES/POLE-001/PHOTO_2.jpg")
	assert.Contains(t, files, root+"POLES/POLE-002/PHOTO_1.jpg")

	kmz := unzip(t, files[root+"Makati North_REPORT.kmz"])
	assert.NotContains(t, kmz, "images/POLE-001_IMG_2.jpg")
	assert.NotContains(t, string(kmz["doc.kml"]), "POLE-001_IMG_2.jpg")
}

func TestCompile_UnflaggedPhotoNotFetched(t *testing.T) {
	blobs := seeded()
	doc := surveyDoc()
	doc.Records[1].Photos[0].HasBlob = false
	c := NewCompiler(blobs, clock.Fake(t0), 0, logging.Nop())

	res, err := c.Compile(context.Background(), doc)
	require.NoError(t, err)
	assert.NotContains(t, unzip(t, res.Data), res.Root+"/POLES/POLE-002/PHOTO_1.jpg")
}

func TestCompile_StorageFailureAborts(t *testing.T) {
	blobs := seeded()
	blobs.err = errors.New("database is closed")
	c := NewCompiler(blobs, clock.Fake(t0), 0, logging.Nop())

	_, err := c.Compile(context.Background(), surveyDoc())
	require.ErrorIs(t, err, common.ErrArchiveCompile)
}

func TestCompile_CorruptBlobIsSkipped(t *testing.T) {
	blobs := seeded()
	blobs.err = common.ErrBlobCorrupt
	c := NewCompiler(blobs, clock.Fake(t0), 0, logging.Nop())

	res, err := c.Compile(context.Background(), surveyDoc())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Missing)
}

func TestCompile_FolderCollisionFirstWins(t *testing.T) {
	doc := &models.Project{
		SiteName: "S",
		Records: []models.SurveyRecord{
			{ID: "a", Name: "POLE:7", Notes: "first", Photos: []models.Photo{}},
			{ID: "b", Name: "POLE/7", Notes: "second", Photos: []models.Photo{}},
		},
	}
	c := NewCompiler(newMemBlobs(), clock.Fake(t0), 0, logging.Nop())

	res, err := c.Compile(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Collisions)

	files := unzip(t, res.Data)
	assert.Contains(t, string(files[res.Root+"/POLES/POLE-7/metadata.txt"]), "NOTES: first")
}

func TestCompile_WithSQLiteBlobStore(t *testing.T) {
	ctx := context.Background()
	repos, err := storage.InitDatabase(ctx, filepath.Join(t.TempDir(), "survey.db"))
	require.NoError(t, err)
	defer repos.Close()

	require.NoError(t, repos.Blobs.Put(ctx, "ph1", []byte("jpeg-one")))
	require.NoError(t, repos.Blobs.Put(ctx, "ph3", []byte("jpeg-three")))

	res, err := NewCompiler(repos.Blobs, clock.Fake(t0), 0, logging.Nop()).Compile(ctx, surveyDoc())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Missing)
}
