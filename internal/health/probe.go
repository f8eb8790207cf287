// Package health reports how full the volume holding the data directory
// is. Results feed the status display and a soft warning; they never gate
// saving or exporting.
package health

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

var ErrUnsupported = errors.New("storage probe not supported on this platform")

// Estimate is a point-in-time view of the volume.
type Estimate struct {
	Quota     uint64
	Used      uint64
	Available uint64
}

// Percent returns Used as a share of Quota in the range 0..100.
func (e Estimate) Percent() float64 {
	if e.Quota == 0 {
		return 0
	}
	return float64(e.Used) / float64(e.Quota) * 100
}

func (e Estimate) String() string {
	return fmt.Sprintf("%s of %s used (%.1f%%)", humanize.IBytes(e.Used), humanize.IBytes(e.Quota), e.Percent())
}

// Prober returns the current estimate for path.
type Prober func(ctx context.Context, path string) (Estimate, error)

// Probe inspects the filesystem containing path.
func Probe(ctx context.Context, path string) (Estimate, error) {
	if err := ctx.Err(); err != nil {
		return Estimate{}, err
	}
	return statfs(path)
}
