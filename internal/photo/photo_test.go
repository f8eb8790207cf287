package photo

import (
	"bytes"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Merlito456/ospsurveyengine/internal/models"
)

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 40, G: 120, B: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) image.Point {
	t.Helper()
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img.Bounds().Size()
}

var pin = models.SurveyRecord{ID: "r1", Name: "POLE-001", Latitude: 14.5995, Longitude: 120.9842}

func TestProcess_ResizesBothTiers(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	res, err := Process(testJPEG(t, 3000, 1500), pin, Options{Now: now})
	require.NoError(t, err)

	assert.Equal(t, image.Pt(2048, 1024), decodeSize(t, res.Full))
	assert.Equal(t, image.Pt(120, 60), decodeSize(t, res.Preview))
	assert.Equal(t, 2048, res.Width)
	assert.Equal(t, now, res.CapturedAt)
	assert.Nil(t, res.Location)
	assert.Equal(t, "COORDINATE MATCH", res.Verification)
	assert.Less(t, len(res.Preview), len(res.Full))
}

func TestProcess_SmallImageNotUpscaled(t *testing.T) {
	res, err := Process(testJPEG(t, 640, 480), pin, Options{})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(640, 480), decodeSize(t, res.Full))
	assert.Equal(t, image.Pt(120, 90), decodeSize(t, res.Preview))
}

func TestProcess_UsesSuppliedLocation(t *testing.T) {
	loc := &models.Location{Latitude: 14.5996, Longitude: 120.9842}

	res, err := Process(testJPEG(t, 200, 200), pin, Options{Location: loc})
	require.NoError(t, err)
	assert.Equal(t, loc, res.Location)
	assert.Equal(t, "VERIFIED: 11.1m FROM PIN", res.Verification)
}

func TestProcess_RejectsGarbage(t *testing.T) {
	_, err := Process([]byte("not an image"), pin, Options{})
	require.ErrorIs(t, err, ErrDecode)
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name string
		loc  *models.Location
		want string
	}{
		{"no location", nil, "COORDINATE MATCH"},
		{"same point", &models.Location{Latitude: 14.5995, Longitude: 120.9842}, "VERIFIED: 0.0m FROM PIN"},
		{"kilometre range", &models.Location{Latitude: 14.6125, Longitude: 120.9842}, "VERIFIED: 1.45km FROM PIN"},
		{"out of range", &models.Location{Latitude: 14.6895, Longitude: 120.9842}, "OUT OF RANGE: 10.0km OFFSET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Verify(pin, tt.loc))
		})
	}
}
