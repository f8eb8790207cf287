package archive

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/twpayne/go-kml"

	"github.com/Merlito456/ospsurveyengine/internal/models"
)

// kmzImage is one image packed into the KMZ under images/.
type kmzImage struct {
	path string
	data []byte
}

// buildKML renders one placemark per record. images[i] lists the KMZ
// image paths embedded for record i.
func buildKML(doc *models.Project, images [][]string) ([]byte, error) {
	d := kml.Document(kml.Name(doc.SiteName))
	for i, r := range doc.Records {
		alt := 0.0
		if r.Altitude != nil {
			alt = *r.Altitude
		}
		d.Add(kml.Placemark(
			kml.Name(r.Name),
			kml.Description(placemarkDescription(r, images[i])),
			kml.Point(kml.Coordinates(kml.Coordinate{Lon: r.Longitude, Lat: r.Latitude, Alt: alt})),
		))
	}

	var buf bytes.Buffer
	if err := kml.KML(d).WriteIndent(&buf, "", "  "); err != nil {
		return nil, fmt.Errorf("render kml: %w", err)
	}
	return buf.Bytes(), nil
}

func placemarkDescription(r models.SurveyRecord, images []string) string {
	var sb strings.Builder
	for _, p := range images {
		fmt.Fprintf(&sb, `<img src="%s" width="400"/><br/>`, html.EscapeString(p))
	}
	sb.WriteString("<p>")
	sb.WriteString(html.EscapeString(r.Notes))
	sb.WriteString("</p>")
	return sb.String()
}

// buildKMZ packs doc.kml and its images into a nested zip.
func buildKMZ(doc *models.Project, fetched [][][]byte) ([]byte, error) {
	c := newContainer()

	images := make([][]string, len(doc.Records))
	var files []kmzImage
	claimed := map[string]bool{}
	for i, r := range doc.Records {
		safe := Sanitize(r.Name)
		for j, data := range fetched[i] {
			if data == nil {
				continue
			}
			p := fmt.Sprintf("images/%s_IMG_%d.jpg", safe, j+1)
			if claimed[p] {
				continue
			}
			claimed[p] = true
			images[i] = append(images[i], p)
			files = append(files, kmzImage{path: p, data: data})
		}
	}

	kmlData, err := buildKML(doc, images)
	if err != nil {
		return nil, err
	}
	if _, err := c.file("doc.kml", kmlData, zipDeflate); err != nil {
		return nil, err
	}
	for _, f := range files {
		if _, err := c.file(f.path, f.data, zipStore); err != nil {
			return nil, err
		}
	}
	return c.bytes()
}
