// Package project is the single mutator of the live survey document. Every
// edit clones the current document, applies the change, and hands the copy
// to the autosave controller.
package project

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Merlito456/ospsurveyengine/internal/archive"
	"github.com/Merlito456/ospsurveyengine/internal/autosave"
	"github.com/Merlito456/ospsurveyengine/internal/clock"
	"github.com/Merlito456/ospsurveyengine/internal/common"
	"github.com/Merlito456/ospsurveyengine/internal/export"
	"github.com/Merlito456/ospsurveyengine/internal/logging"
	"github.com/Merlito456/ospsurveyengine/internal/models"
	"github.com/Merlito456/ospsurveyengine/internal/repositories/blobs"
	"github.com/Merlito456/ospsurveyengine/internal/repositories/documents"
)

const (
	DefaultDocumentKey = "current_project"

	DefaultSiteName     = "ACTIVE OSP PROJECT"
	DefaultOrganization = "FIELD OPERATIONS"
	DefaultGroup        = "SURVEY GROUP 1"
)

// Options wires a Session to its stores and collaborators.
type Options struct {
	Documents   documents.Repository
	Blobs       blobs.Repository
	DocumentKey string
	// Wipe, when set, removes the document and all blobs atomically.
	// Otherwise Reset deletes them one store at a time.
	Wipe func(ctx context.Context, key string) error

	AutosaveDelay time.Duration
	Compiler      *archive.Compiler
	Dispatcher    *export.Dispatcher
	Clock         clock.Clock
	Logger        logging.Logger
}

type Session struct {
	docs       documents.Repository
	blobs      blobs.Repository
	key        string
	wipe       func(ctx context.Context, key string) error
	autosave   *autosave.Controller
	compiler   *archive.Compiler
	dispatcher *export.Dispatcher
	clock      clock.Clock
	logger     logging.Logger

	mu sync.Mutex
}

// Open loads the stored document, or creates and persists the default
// project when none exists.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.DocumentKey == "" {
		opts.DocumentKey = DefaultDocumentKey
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}

	s := &Session{
		docs:       opts.Documents,
		blobs:      opts.Blobs,
		key:        opts.DocumentKey,
		wipe:       opts.Wipe,
		autosave:   autosave.New(opts.Documents, opts.DocumentKey, opts.AutosaveDelay, opts.Clock, opts.Logger),
		compiler:   opts.Compiler,
		dispatcher: opts.Dispatcher,
		clock:      opts.Clock,
		logger:     opts.Logger.With("component", "project"),
	}

	doc, err := s.docs.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if doc != nil {
		normalize(doc)
		s.autosave.Load(doc)
		s.logger.Debug(ctx, "project loaded", "id", doc.ID, "records", len(doc.Records))
		return s, nil
	}

	s.autosave.Update(s.newProject())
	if err := s.autosave.Flush(ctx); err != nil {
		s.logger.Warn(ctx, "initial save failed, will retry", "error", err)
	}
	return s, nil
}

func (s *Session) newProject() *models.Project {
	return &models.Project{
		ID:               uuid.NewString(),
		SiteName:         DefaultSiteName,
		OrganizationName: DefaultOrganization,
		GroupName:        DefaultGroup,
		Records:          []models.SurveyRecord{},
	}
}

// normalize replaces nil collections so stored and fresh documents look
// the same to callers.
func normalize(p *models.Project) {
	if p.Records == nil {
		p.Records = []models.SurveyRecord{}
	}
	for i := range p.Records {
		if p.Records[i].Photos == nil {
			p.Records[i].Photos = []models.Photo{}
		}
	}
}

// Project returns the live document. Callers must not modify it.
func (s *Session) Project() *models.Project { return s.autosave.Current() }

func (s *Session) State() autosave.State { return s.autosave.State() }

// OnStateChange forwards autosave state transitions to f.
func (s *Session) OnStateChange(f func(autosave.State)) { s.autosave.OnStateChange(f) }

// Flush forces any pending change to the document store.
func (s *Session) Flush(ctx context.Context) error { return s.autosave.Flush(ctx) }

// Close flushes pending changes. The session must not be used afterwards.
func (s *Session) Close(ctx context.Context) error { return s.autosave.Close(ctx) }

func (s *Session) mutate(fn func(p *models.Project) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.autosave.Current().Clone()
	if err := fn(next); err != nil {
		return err
	}
	s.autosave.Update(next)
	return nil
}

// ProjectInfo holds the editable project header fields.
type ProjectInfo struct {
	SiteName         string
	OrganizationName string
	GroupName        string
}

func (s *Session) UpdateProject(info ProjectInfo) error {
	return s.mutate(func(p *models.Project) error {
		p.SiteName = info.SiteName
		p.OrganizationName = info.OrganizationName
		p.GroupName = info.GroupName
		return nil
	})
}

// AddRecord appends a survey record at the given position. Its name is
// POLE-NNN numbered by position.
func (s *Session) AddRecord(lat, lng float64, alt *float64) (models.SurveyRecord, error) {
	var rec models.SurveyRecord
	if !models.ValidCoordinates(lat, lng) {
		return rec, fmt.Errorf("%w: %v,%v", common.ErrInvalidCoordinates, lat, lng)
	}
	err := s.mutate(func(p *models.Project) error {
		rec = models.SurveyRecord{
			ID:        uuid.NewString(),
			Name:      fmt.Sprintf("POLE-%03d", len(p.Records)+1),
			Latitude:  lat,
			Longitude: lng,
			CreatedAt: s.clock.Now().UTC(),
			Photos:    []models.Photo{},
		}
		if alt != nil {
			a := *alt
			rec.Altitude = &a
		}
		p.Records = append(p.Records, rec)
		return nil
	})
	return rec, err
}

// RecordPatch carries the fields to change; nil fields are left alone.
type RecordPatch struct {
	Name      *string
	Latitude  *float64
	Longitude *float64
	Altitude  *float64
	Notes     *string
}

func (s *Session) UpdateRecord(id string, patch RecordPatch) error {
	return s.mutate(func(p *models.Project) error {
		r := p.Record(id)
		if r == nil {
			return fmt.Errorf("%w: %s", common.ErrRecordNotFound, id)
		}
		lat, lng := r.Latitude, r.Longitude
		if patch.Latitude != nil {
			lat = *patch.Latitude
		}
		if patch.Longitude != nil {
			lng = *patch.Longitude
		}
		if !models.ValidCoordinates(lat, lng) {
			return fmt.Errorf("%w: %v,%v", common.ErrInvalidCoordinates, lat, lng)
		}
		r.Latitude, r.Longitude = lat, lng
		if patch.Name != nil {
			r.Name = *patch.Name
		}
		if patch.Altitude != nil {
			a := *patch.Altitude
			r.Altitude = &a
		}
		if patch.Notes != nil {
			r.Notes = *patch.Notes
		}
		return nil
	})
}

// DeleteRecords removes the records and their photos. Their blobs are
// deleted best-effort; leftovers are reclaimed by CollectGarbage.
func (s *Session) DeleteRecords(ctx context.Context, ids ...string) (int, error) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	var orphaned []string
	removed := 0
	err := s.mutate(func(p *models.Project) error {
		kept := p.Records[:0]
		for _, r := range p.Records {
			if !drop[r.ID] {
				kept = append(kept, r)
				continue
			}
			removed++
			for _, ph := range r.Photos {
				if ph.HasBlob {
					orphaned = append(orphaned, ph.ID)
				}
			}
		}
		if removed == 0 {
			return fmt.Errorf("%w: %v", common.ErrRecordNotFound, ids)
		}
		p.Records = kept
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.deleteBlobs(ctx, orphaned)
	return removed, nil
}

func (s *Session) deleteBlobs(ctx context.Context, ids []string) {
	for _, id := range ids {
		if err := s.blobs.Delete(ctx, id); err != nil {
			s.logger.Warn(ctx, "blob delete failed, left for gc", "photo", id, "error", err)
		}
	}
}

// Repair clears the blob flag of photos whose blob is gone and returns how
// many were fixed.
func (s *Session) Repair(ctx context.Context) (int, error) {
	missing := map[string]bool{}
	for _, id := range s.Project().BlobIDs() {
		ok, err := s.blobs.Has(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("check blob %s: %w", id, err)
		}
		if !ok {
			missing[id] = true
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	fixed := 0
	err := s.mutate(func(p *models.Project) error {
		for i := range p.Records {
			for j := range p.Records[i].Photos {
				ph := &p.Records[i].Photos[j]
				if ph.HasBlob && missing[ph.ID] {
					ph.HasBlob = false
					fixed++
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info(ctx, "repaired photo references", "count", fixed)
	return fixed, nil
}

// CollectGarbage deletes blobs no photo refers to and returns how many were
// removed.
func (s *Session) CollectGarbage(ctx context.Context) (int, error) {
	referenced := map[string]bool{}
	for _, r := range s.Project().Records {
		for _, ph := range r.Photos {
			referenced[ph.ID] = true
		}
	}

	ids, err := s.blobs.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list blobs: %w", err)
	}
	var errs []error
	n := 0
	for _, id := range ids {
		if referenced[id] {
			continue
		}
		if err := s.blobs.Delete(ctx, id); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	if n > 0 {
		s.logger.Info(ctx, "collected orphaned blobs", "count", n)
	}
	return n, errors.Join(errs...)
}

// Reset discards the document and every blob and starts a fresh default
// project. Config entries survive.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.wipe != nil {
		err = s.wipe(ctx, s.key)
	} else {
		err = errors.Join(s.docs.Delete(ctx, s.key), s.blobs.Clear(ctx))
	}
	if err != nil {
		return fmt.Errorf("reset project: %w", err)
	}

	fresh := s.newProject()
	s.autosave.Update(fresh)
	s.logger.Info(ctx, "project reset", "id", fresh.ID)
	return s.autosave.Flush(ctx)
}
