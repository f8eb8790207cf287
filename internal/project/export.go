package project

import (
	"context"
	"errors"

	"github.com/Merlito456/ospsurveyengine/internal/archive"
	"github.com/Merlito456/ospsurveyengine/internal/common"
	"github.com/Merlito456/ospsurveyengine/internal/export"
)

// ExportReport summarises a finished export.
type ExportReport struct {
	Archive *archive.Result
	Receipt export.Receipt
}

// Export compiles the live document and delivers it. Compilation reads the
// in-memory snapshot, so pending unsaved edits are included.
func (s *Session) Export(ctx context.Context) (*ExportReport, error) {
	if s.compiler == nil || s.dispatcher == nil {
		return nil, errors.New("export not configured")
	}
	doc := s.Project()
	if len(doc.Records) == 0 {
		return nil, common.ErrNothingToExport
	}

	res, err := s.compiler.Compile(ctx, doc)
	if err != nil {
		return nil, err
	}
	if res.Missing > 0 {
		s.logger.Warn(ctx, "photos unavailable in export", "count", res.Missing)
	}

	receipt, err := s.dispatcher.Dispatch(ctx, res.Data, res.FileName, archive.MimeType)
	if err != nil {
		return &ExportReport{Archive: res}, err
	}
	return &ExportReport{Archive: res, Receipt: receipt}, nil
}
