//go:build linux || darwin || freebsd

package health

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func statfs(path string) (Estimate, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Estimate{}, fmt.Errorf("statfs %s: %w", path, err)
	}
	bsize := uint64(st.Bsize)
	total := uint64(st.Blocks) * bsize
	free := uint64(st.Bfree) * bsize
	return Estimate{
		Quota:     total,
		Used:      total - free,
		Available: uint64(st.Bavail) * bsize,
	}, nil
}
