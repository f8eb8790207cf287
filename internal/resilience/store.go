// Package resilience composes the primary transactional config tier with
// the secondary flat-file tier into one logical store.
//
// Reads consult the primary first and fall back to the secondary; whichever
// tier is missing a value is healed from the tier that has it. Writes go to
// both tiers synchronously. The layer is meant for small config entries
// only; the project document and blobs never pass through it.
package resilience

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Merlito456/ospsurveyengine/internal/common"
	"github.com/Merlito456/ospsurveyengine/internal/logging"
)

// Tier is one byte-valued key/value backend. Get on a missing key returns
// (nil, nil).
type Tier interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type Store struct {
	primary   Tier
	secondary Tier
	logger    logging.Logger
}

func NewStore(primary, secondary Tier, logger logging.Logger) *Store {
	return &Store{primary: primary, secondary: secondary, logger: logger.With("component", "dualtier")}
}

// Get returns the value under key, or (nil, nil) when neither tier has it.
// A failing primary is treated as empty; an error is returned only when
// both tiers fail.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	pv, perr := s.primary.Get(ctx, key)
	if perr != nil {
		s.logger.Warn(ctx, "primary tier read failed, using secondary", "key", key, "error", perr)
	}

	sv, serr := s.secondary.Get(ctx, key)
	if serr != nil {
		s.logger.Warn(ctx, "secondary tier read failed", "key", key, "error", serr)
	}

	if perr != nil && serr != nil {
		return nil, fmt.Errorf("config[%s]: %w", key, errors.Join(common.ErrStorageUnavailable, perr, serr))
	}

	switch {
	case pv != nil:
		if serr == nil && !bytes.Equal(pv, sv) {
			if err := s.secondary.Set(ctx, key, pv); err != nil {
				s.logger.Warn(ctx, "heal secondary tier failed", "key", key, "error", err)
			} else {
				s.logger.Debug(ctx, "healed secondary tier", "key", key)
			}
		}
		return pv, nil
	case sv != nil:
		if perr == nil {
			if err := s.primary.Set(ctx, key, sv); err != nil {
				s.logger.Warn(ctx, "heal primary tier failed", "key", key, "error", err)
			} else {
				s.logger.Info(ctx, "healed primary tier from secondary", "key", key)
			}
		}
		return sv, nil
	default:
		return nil, nil
	}
}

// Set writes value to both tiers. A secondary failure is logged only. A
// primary failure is tolerated when the secondary accepted the value, since
// the next read heals the primary.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	perr := s.primary.Set(ctx, key, value)
	if perr != nil {
		s.logger.Warn(ctx, "primary tier write failed", "key", key, "error", perr)
	}
	serr := s.secondary.Set(ctx, key, value)
	if serr != nil {
		s.logger.Warn(ctx, "secondary tier write failed", "key", key, "error", serr)
	}

	if perr != nil && serr != nil {
		return fmt.Errorf("config[%s]: %w", key, errors.Join(common.ErrStorageUnavailable, perr, serr))
	}
	return nil
}

// Delete removes key from both tiers.
func (s *Store) Delete(ctx context.Context, key string) error {
	return errors.Join(s.primary.Delete(ctx, key), s.secondary.Delete(ctx, key))
}

// GetJSON decodes the value under key into v. It reports false when the key
// is absent.
func GetJSON[T any](ctx context.Context, s *Store, key string) (T, bool, error) {
	var v T
	raw, err := s.Get(ctx, key)
	if err != nil || raw == nil {
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode config[%s]: %w", key, err)
	}
	return v, true, nil
}

// PutJSON encodes v and writes it to both tiers.
func PutJSON[T any](ctx context.Context, s *Store, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode config[%s]: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
