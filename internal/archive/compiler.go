package archive

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Merlito456/ospsurveyengine/internal/clock"
	"github.com/Merlito456/ospsurveyengine/internal/common"
	"github.com/Merlito456/ospsurveyengine/internal/logging"
	"github.com/Merlito456/ospsurveyengine/internal/models"
	"github.com/Merlito456/ospsurveyengine/internal/repositories/blobs"
)

const (
	MimeType          = "application/zip"
	DefaultConcurrent = 4

	rootTimeLayout = "2006-01-02T15-04-05"
)

// Result is a compiled archive ready for delivery.
type Result struct {
	// Root is the top-level folder inside the archive.
	Root string
	// FileName is the suggested name of the container file.
	FileName string
	Data     []byte

	Records int
	Photos  int
	// Missing counts photos whose full-resolution blob was unavailable.
	Missing int
	// Collisions counts records skipped under POLES because an earlier
	// record claimed the same sanitized folder name.
	Collisions int
}

type Compiler struct {
	blobs       blobs.Repository
	clock       clock.Clock
	concurrency int
	logger      logging.Logger
}

func NewCompiler(repo blobs.Repository, clk clock.Clock, concurrency int, logger logging.Logger) *Compiler {
	if concurrency <= 0 {
		concurrency = DefaultConcurrent
	}
	return &Compiler{
		blobs:       repo,
		clock:       clk,
		concurrency: concurrency,
		logger:      logger.With("component", "archive"),
	}
}

// FileName is the suggested container name for a site.
func FileName(site string) string {
	return Sanitize(site) + "_OSP_EXPORT.zip"
}

// Compile builds the archive for doc. Missing or corrupt blobs are skipped
// and counted; any other storage or serialization failure aborts the
// attempt without side effects.
func (c *Compiler) Compile(ctx context.Context, doc *models.Project) (*Result, error) {
	now := c.clock.Now()
	site := Sanitize(doc.SiteName)
	res := &Result{
		Root:     site + "_" + now.UTC().Format(rootTimeLayout),
		FileName: FileName(doc.SiteName),
		Records:  len(doc.Records),
		Photos:   doc.PhotoCount(),
	}

	fetched, err := c.fetch(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrArchiveCompile, err)
	}
	for _, rec := range fetched {
		for _, data := range rec {
			if data == nil {
				res.Missing++
			}
		}
	}

	data, err := c.assemble(ctx, doc, fetched, res, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrArchiveCompile, err)
	}
	res.Data = data

	c.logger.Info(ctx, "archive compiled",
		"root", res.Root, "records", res.Records, "photos", res.Photos,
		"missing", res.Missing, "bytes", len(data))
	return res, nil
}

// fetch loads every full-resolution image concurrently. The result is
// indexed [record][photo] in document order; nil marks an unavailable
// image.
func (c *Compiler) fetch(ctx context.Context, doc *models.Project) ([][][]byte, error) {
	out := make([][][]byte, len(doc.Records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, r := range doc.Records {
		out[i] = make([][]byte, len(r.Photos))
		for j, ph := range r.Photos {
			if !ph.HasBlob {
				continue
			}
			g.Go(func() error {
				data, err := c.blobs.Get(gctx, ph.ID)
				switch {
				case errors.Is(err, common.ErrBlobCorrupt):
					c.logger.Warn(gctx, "skipping corrupt blob", "photo", ph.ID)
					return nil
				case err != nil:
					return err
				case data == nil:
					c.logger.Warn(gctx, "blob missing for photo", "photo", ph.ID, "record", r.Name)
					return nil
				}
				out[i][j] = data
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Compiler) assemble(ctx context.Context, doc *models.Project, fetched [][][]byte, res *Result, now time.Time) ([]byte, error) {
	kmz, err := buildKMZ(doc, fetched)
	if err != nil {
		return nil, err
	}

	zc := newContainer()
	root := res.Root
	site := Sanitize(doc.SiteName)

	if _, err := zc.file(root+"/"+site+"_REPORT.kmz", kmz, zipStore); err != nil {
		return nil, err
	}
	if _, err := zc.file(root+"/PROJECT_SUMMARY.txt", summary(doc, now), zipDeflate); err != nil {
		return nil, err
	}
	if err := zc.dir(root + "/POLES"); err != nil {
		return nil, err
	}

	for i, r := range doc.Records {
		folder := root + "/POLES/" + Sanitize(r.Name)
		ok, err := zc.file(folder+"/metadata.txt", recordMetadata(r), zipDeflate)
		if err != nil {
			return nil, err
		}
		if !ok {
			res.Collisions++
			c.logger.Warn(ctx, "record folder already taken, skipping", "record", r.ID, "folder", folder)
			continue
		}
		for j, data := range fetched[i] {
			if data == nil {
				continue
			}
			if _, err := zc.file(fmt.Sprintf("%s/PHOTO_%d.jpg", folder, j+1), data, zipStore); err != nil {
				return nil, err
			}
		}
	}
	return zc.bytes()
}

func summary(doc *models.Project, now time.Time) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PROJECT: %s\n", doc.SiteName)
	fmt.Fprintf(&sb, "UNIT: %s\n", doc.OrganizationName)
	fmt.Fprintf(&sb, "GROUP: %s\n", doc.GroupName)
	fmt.Fprintf(&sb, "DATE: %s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "POLE COUNT: %d\n", len(doc.Records))
	return []byte(sb.String())
}

func recordMetadata(r models.SurveyRecord) []byte {
	notes := r.Notes
	if notes == "" {
		notes = "None"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "POLE ID: %s\n", r.Name)
	fmt.Fprintf(&sb, "RECORD ID: %s\n", r.ID)
	fmt.Fprintf(&sb, "LAT: %s\n", formatCoord(r.Latitude))
	fmt.Fprintf(&sb, "LNG: %s\n", formatCoord(r.Longitude))
	if r.Altitude != nil {
		fmt.Fprintf(&sb, "ALT: %s\n", formatCoord(*r.Altitude))
	}
	fmt.Fprintf(&sb, "PHOTOS: %d\n", len(r.Photos))
	fmt.Fprintf(&sb, "NOTES: %s\n", notes)
	return []byte(sb.String())
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
