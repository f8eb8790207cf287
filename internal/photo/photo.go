// Package photo turns a raw camera capture into the two tiers stored by
// the engine: a small inline preview and a full-resolution JPEG blob.
package photo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/Merlito456/ospsurveyengine/internal/models"
)

const (
	FullMaxDimension    = 2048
	FullQuality         = 90
	PreviewMaxDimension = 120
	PreviewQuality      = 60

	// VerifyRadius is the largest capture offset still counted as on site.
	VerifyRadius = 2000.0
)

var ErrDecode = errors.New("photo: cannot decode image")

// Options supplies capture context that the image itself may lack.
type Options struct {
	// Location overrides any GPS position found in EXIF.
	Location *models.Location
	// Now is used when the image carries no capture time.
	Now time.Time
}

// Result is a processed capture.
type Result struct {
	Full         []byte
	Preview      []byte
	CapturedAt   time.Time
	Location     *models.Location
	Verification string
	Width        int
	Height       int
}

// Process decodes raw, applies EXIF orientation, and produces the full and
// preview JPEG tiers along with a distance check against rec's pin.
func Process(raw []byte, rec models.SurveyRecord, opts Options) (*Result, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	res := &Result{CapturedAt: opts.Now, Location: opts.Location}
	readExif(raw, res)

	full := imaging.Fit(img, FullMaxDimension, FullMaxDimension, imaging.Lanczos)
	res.Width, res.Height = full.Bounds().Dx(), full.Bounds().Dy()
	if res.Full, err = encode(full, FullQuality); err != nil {
		return nil, err
	}

	preview := imaging.Fit(full, PreviewMaxDimension, PreviewMaxDimension, imaging.Linear)
	if res.Preview, err = encode(preview, PreviewQuality); err != nil {
		return nil, err
	}

	res.Verification = Verify(rec, res.Location)
	return res, nil
}

func encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("photo: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// readExif fills capture time and, unless already set, location. Images
// without EXIF are common and not an error.
func readExif(raw []byte, res *Result) {
	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return
	}
	if t, err := x.DateTime(); err == nil && !t.IsZero() {
		res.CapturedAt = t
	}
	if res.Location == nil {
		if lat, lng, err := x.LatLong(); err == nil && models.ValidCoordinates(lat, lng) {
			res.Location = &models.Location{Latitude: lat, Longitude: lng}
		}
	}
}

// Distance returns the great-circle distance in meters between the pin of
// rec and loc.
func Distance(rec models.SurveyRecord, loc models.Location) float64 {
	return geo.DistanceHaversine(
		orb.Point{rec.Longitude, rec.Latitude},
		orb.Point{loc.Longitude, loc.Latitude},
	)
}

// Verify renders the capture-offset remark shown with the photo.
func Verify(rec models.SurveyRecord, loc *models.Location) string {
	if loc == nil {
		return "COORDINATE MATCH"
	}
	d := Distance(rec, *loc)
	switch {
	case d > VerifyRadius:
		return fmt.Sprintf("OUT OF RANGE: %.1fkm OFFSET", d/1000)
	case d < 1000:
		return fmt.Sprintf("VERIFIED: %.1fm FROM PIN", d)
	default:
		return fmt.Sprintf("VERIFIED: %.2fkm FROM PIN", d/1000)
	}
}
