package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Merlito456/ospsurveyengine/internal/app"
	"github.com/Merlito456/ospsurveyengine/internal/common"
	"github.com/Merlito456/ospsurveyengine/internal/config"
	"github.com/Merlito456/ospsurveyengine/internal/models"
)

type commandContext struct {
	out    io.Writer
	errOut io.Writer
}

func newCommandContext(out, errOut io.Writer) *commandContext {
	return &commandContext{out: out, errOut: errOut}
}

// withApp opens the store for the duration of fn and always flushes the
// live document afterwards.
func (c *commandContext) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) (err error) {
	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.NewApp(ctx, cfg, app.Options{LogOutput: c.errOut})
	if err != nil {
		return err
	}
	defer func() {
		// the final flush must run even when ctx was cancelled by a signal
		err = errors.Join(err, a.Close(context.WithoutCancel(ctx)))
	}()

	return fn(ctx, a)
}

func (c *commandContext) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// findRecord resolves ref as a record id or, case-insensitively, a name.
func findRecord(p *models.Project, ref string) (*models.SurveyRecord, error) {
	if r := p.Record(ref); r != nil {
		return r, nil
	}
	for i := range p.Records {
		if strings.EqualFold(p.Records[i].Name, ref) {
			return &p.Records[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", common.ErrRecordNotFound, ref)
}

// findPhoto resolves ref as a photo id or a 1-based position in r.
func findPhoto(r *models.SurveyRecord, ref string) (*models.Photo, error) {
	if ph := r.Photo(ref); ph != nil {
		return ph, nil
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(r.Photos) {
		return &r.Photos[n-1], nil
	}
	return nil, fmt.Errorf("%w: %s", common.ErrPhotoNotFound, ref)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
