package archive

import (
	"bytes"
	"fmt"
	"path"
	"time"

	"github.com/klauspost/compress/zip"
)

const (
	zipStore   = zip.Store
	zipDeflate = zip.Deflate
)

// entryTime is stamped on every entry so output depends only on content.
var entryTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// container is a zip writer that creates parent directory entries on
// demand and keeps the first entry written under any given name.
type container struct {
	buf  bytes.Buffer
	zw   *zip.Writer
	seen map[string]bool
}

func newContainer() *container {
	c := &container{seen: map[string]bool{}}
	c.zw = zip.NewWriter(&c.buf)
	return c
}

// dir adds a directory entry (and its parents) if not yet present.
func (c *container) dir(name string) error {
	name = path.Clean(name)
	if name == "." || name == "/" {
		return nil
	}
	if c.seen[name+"/"] {
		return nil
	}
	if err := c.dir(path.Dir(name)); err != nil {
		return err
	}
	c.seen[name+"/"] = true
	_, err := c.zw.CreateHeader(&zip.FileHeader{
		Name:     name + "/",
		Method:   zip.Store,
		Modified: entryTime,
	})
	if err != nil {
		return fmt.Errorf("zip dir %s: %w", name, err)
	}
	return nil
}

// file writes data under name. It reports false when name was already
// taken, in which case nothing is written.
func (c *container) file(name string, data []byte, method uint16) (bool, error) {
	if c.seen[name] {
		return false, nil
	}
	if err := c.dir(path.Dir(name)); err != nil {
		return false, err
	}
	c.seen[name] = true

	w, err := c.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   method,
		Modified: entryTime,
	})
	if err != nil {
		return false, fmt.Errorf("zip create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return false, fmt.Errorf("zip write %s: %w", name, err)
	}
	return true, nil
}

func (c *container) bytes() ([]byte, error) {
	if err := c.zw.Close(); err != nil {
		return nil, fmt.Errorf("zip close: %w", err)
	}
	return c.buf.Bytes(), nil
}
