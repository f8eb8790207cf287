package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// cancelExitCode is the status a share command uses to signal that the
// user dismissed it (128 + SIGINT).
const cancelExitCode = 130

// DirectoryChannel writes the payload directly into a chosen directory,
// replacing an existing file of the same name.
type DirectoryChannel struct {
	Dir string

	mu   sync.Mutex
	last string
}

func (c *DirectoryChannel) Name() string { return "directory" }

func (c *DirectoryChannel) Deliver(_ context.Context, data []byte, name, _ string) (Outcome, error) {
	if c.Dir == "" {
		return Delivered, ErrUnavailable
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return Delivered, err
	}

	tmp, err := os.CreateTemp(c.Dir, "."+name+".*.part")
	if err != nil {
		return Delivered, err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return Delivered, err
	}
	if err := tmp.Close(); err != nil {
		return Delivered, err
	}
	dst := filepath.Join(c.Dir, name)
	if err := os.Rename(tmpName, dst); err != nil {
		return Delivered, err
	}
	c.setLast(dst)
	return Delivered, nil
}

func (c *DirectoryChannel) setLast(p string) {
	c.mu.Lock()
	c.last = p
	c.mu.Unlock()
}

func (c *DirectoryChannel) LastLocation() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// CommandChannel hands the payload to an external share command. The
// archive is written to a temp file whose path is appended to Command;
// the name and MIME type are exported as OSP_EXPORT_NAME and
// OSP_EXPORT_MIME. Exit status 130 means the user cancelled.
type CommandChannel struct {
	Command []string
}

func (c *CommandChannel) Name() string { return "share" }

func (c *CommandChannel) Deliver(ctx context.Context, data []byte, name, mimeType string) (Outcome, error) {
	if len(c.Command) == 0 || strings.TrimSpace(c.Command[0]) == "" {
		return Delivered, ErrUnavailable
	}

	dir, err := os.MkdirTemp("", "osp-share-")
	if err != nil {
		return Delivered, err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	payload := filepath.Join(dir, name)
	if err := os.WriteFile(payload, data, 0o600); err != nil {
		return Delivered, err
	}

	args := append(append([]string{}, c.Command[1:]...), payload)
	cmd := exec.CommandContext(ctx, c.Command[0], args...)
	cmd.Env = append(os.Environ(), "OSP_EXPORT_NAME="+name, "OSP_EXPORT_MIME="+mimeType)

	out, err := cmd.CombinedOutput()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return Delivered, nil
	case errors.As(err, &exitErr) && exitErr.ExitCode() == cancelExitCode:
		return Cancelled, nil
	case errors.Is(err, exec.ErrNotFound):
		return Delivered, fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		return Delivered, fmt.Errorf("share command: %w: %s", err, strings.TrimSpace(string(out)))
	}
}

// DownloadChannel is the universal fallback. It saves into Dir under a
// name that does not clobber earlier downloads ("x.zip", "x (1).zip", ...).
type DownloadChannel struct {
	Dir string

	mu   sync.Mutex
	last string
}

func (c *DownloadChannel) Name() string { return "download" }

const maxDownloadSuffix = 1000

func (c *DownloadChannel) Deliver(_ context.Context, data []byte, name, _ string) (Outcome, error) {
	dir := c.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Delivered, err
		}
		dir = filepath.Join(home, "Downloads")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Delivered, err
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 0; i < maxDownloadSuffix; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", base, i, ext)
		}
		dst := filepath.Join(dir, candidate)

		f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return Delivered, err
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(dst)
			return Delivered, err
		}
		if err := f.Close(); err != nil {
			return Delivered, err
		}

		c.mu.Lock()
		c.last = dst
		c.mu.Unlock()
		return Delivered, nil
	}
	return Delivered, fmt.Errorf("no free file name for %s in %s", name, dir)
}

func (c *DownloadChannel) LastLocation() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
