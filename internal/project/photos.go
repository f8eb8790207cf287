package project

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Merlito456/ospsurveyengine/internal/common"
	"github.com/Merlito456/ospsurveyengine/internal/models"
	"github.com/Merlito456/ospsurveyengine/internal/photo"
)

// AddPhoto processes raw, stores the full-resolution tier as a blob and
// appends the photo to the record. loc is the capture position, if known.
func (s *Session) AddPhoto(ctx context.Context, recordID string, raw []byte, loc *models.Location) (models.Photo, error) {
	rec := s.Project().Record(recordID)
	if rec == nil {
		return models.Photo{}, fmt.Errorf("%w: %s", common.ErrRecordNotFound, recordID)
	}

	res, err := photo.Process(raw, *rec, photo.Options{Location: loc, Now: s.clock.Now().UTC()})
	if err != nil {
		return models.Photo{}, err
	}

	ph := models.Photo{
		ID:              uuid.NewString(),
		Preview:         res.Preview,
		CapturedAt:      res.CapturedAt,
		Status:          models.QAPending,
		CaptureLocation: res.Location,
		Verification:    res.Verification,
	}
	if err := s.blobs.Put(ctx, ph.ID, res.Full); err != nil {
		return models.Photo{}, fmt.Errorf("store photo: %w", err)
	}
	ph.HasBlob = true

	err = s.mutate(func(p *models.Project) error {
		r := p.Record(recordID)
		if r == nil {
			return fmt.Errorf("%w: %s", common.ErrRecordNotFound, recordID)
		}
		r.Photos = append(r.Photos, ph)
		return nil
	})
	if err != nil {
		s.deleteBlobs(ctx, []string{ph.ID})
		return models.Photo{}, err
	}
	s.logger.Debug(ctx, "photo added", "record", recordID, "photo", ph.ID, "bytes", len(res.Full))
	return ph, nil
}

// SetPhotoReview records the QA outcome of a photo.
func (s *Session) SetPhotoReview(recordID, photoID string, status models.QAStatus, remarks string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", common.ErrInvalidQAStatus, status)
	}
	return s.mutate(func(p *models.Project) error {
		ph, err := findPhoto(p, recordID, photoID)
		if err != nil {
			return err
		}
		ph.Status = status
		ph.Remarks = remarks
		return nil
	})
}

// DeletePhoto removes the photo and its blob.
func (s *Session) DeletePhoto(ctx context.Context, recordID, photoID string) error {
	err := s.mutate(func(p *models.Project) error {
		if _, err := findPhoto(p, recordID, photoID); err != nil {
			return err
		}
		r := p.Record(recordID)
		kept := r.Photos[:0]
		for _, ph := range r.Photos {
			if ph.ID != photoID {
				kept = append(kept, ph)
			}
		}
		r.Photos = kept
		return nil
	})
	if err != nil {
		return err
	}
	s.deleteBlobs(ctx, []string{photoID})
	return nil
}

// FullImage returns the full-resolution image of a photo.
func (s *Session) FullImage(ctx context.Context, photoID string) ([]byte, error) {
	data, err := s.blobs.Get(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", common.ErrPhotoNotFound, photoID)
	}
	return data, nil
}

func findPhoto(p *models.Project, recordID, photoID string) (*models.Photo, error) {
	r := p.Record(recordID)
	if r == nil {
		return nil, fmt.Errorf("%w: %s", common.ErrRecordNotFound, recordID)
	}
	ph := r.Photo(photoID)
	if ph == nil {
		return nil, fmt.Errorf("%w: %s", common.ErrPhotoNotFound, photoID)
	}
	return ph, nil
}
