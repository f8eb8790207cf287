// Package entitlement keeps the device identity and subscription state in
// the dual-tier config store. Code validity is decided by an external
// CodeValidator; this package only records the outcome.
package entitlement

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Merlito456/ospsurveyengine/internal/clock"
	"github.com/Merlito456/ospsurveyengine/internal/logging"
	"github.com/Merlito456/ospsurveyengine/internal/resilience"
)

const (
	KeyDeviceID      = "osp_survey_pro_device_id"
	KeyExpiry        = "osp_survey_pro_expiry"
	KeyConsumedCodes = "osp_survey_pro_consumed_keys"

	SubscriptionPeriod = 30 * 24 * time.Hour

	deviceIDLength = 6
	deviceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// CodeValidator decides whether an activation code is valid for a device.
type CodeValidator interface {
	Validate(code, deviceID string) bool
}

// ValidatorFunc adapts a function to CodeValidator.
type ValidatorFunc func(code, deviceID string) bool

func (f ValidatorFunc) Validate(code, deviceID string) bool { return f(code, deviceID) }

type ActivationResult string

const (
	Success     ActivationResult = "SUCCESS"
	Invalid     ActivationResult = "INVALID"
	AlreadyUsed ActivationResult = "ALREADY_USED"
)

type Status struct {
	Active   bool
	DaysLeft int
	Expiry   time.Time
}

type Service struct {
	store     *resilience.Store
	validator CodeValidator
	clock     clock.Clock
	logger    logging.Logger
}

func NewService(store *resilience.Store, validator CodeValidator, clk clock.Clock, logger logging.Logger) *Service {
	return &Service{store: store, validator: validator, clock: clk, logger: logger.With("component", "entitlement")}
}

// DeviceID returns the persistent device id, generating one on first use.
// The value is always written back so both tiers carry it.
func (s *Service) DeviceID(ctx context.Context) (string, error) {
	id, ok, err := resilience.GetJSON[string](ctx, s.store, KeyDeviceID)
	if err != nil {
		return "", err
	}
	if !ok || id == "" {
		id = newDeviceID()
		s.logger.Info(ctx, "generated device id", "device", id)
	}
	if err := resilience.PutJSON(ctx, s.store, KeyDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}

func newDeviceID() string {
	u := uuid.New()
	var sb strings.Builder
	for i := 0; i < deviceIDLength; i++ {
		sb.WriteByte(deviceAlphabet[int(u[i])%len(deviceAlphabet)])
	}
	return sb.String()
}

// Status reports whether the subscription is active. A missing or
// unreadable expiry counts as inactive.
func (s *Service) Status(ctx context.Context) (Status, error) {
	ms, ok, err := resilience.GetJSON[int64](ctx, s.store, KeyExpiry)
	if err != nil {
		s.logger.Warn(ctx, "expiry unreadable", "error", err)
		return Status{}, nil
	}
	if !ok {
		return Status{}, nil
	}

	expiry := time.UnixMilli(ms)
	remaining := expiry.Sub(s.clock.Now())
	if remaining < 0 {
		return Status{Expiry: expiry}, nil
	}
	days := int(math.Ceil(remaining.Hours() / 24))
	return Status{Active: true, DaysLeft: days, Expiry: expiry}, nil
}

// Activate redeems code for this device. A code can be redeemed once.
func (s *Service) Activate(ctx context.Context, code string) (ActivationResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	device, err := s.DeviceID(ctx)
	if err != nil {
		return "", err
	}
	used, _, err := resilience.GetJSON[[]string](ctx, s.store, KeyConsumedCodes)
	if err != nil {
		return "", err
	}
	if slices.Contains(used, code) {
		return AlreadyUsed, nil
	}
	if s.validator == nil || !s.validator.Validate(code, device) {
		return Invalid, nil
	}

	expiry := s.clock.Now().Add(SubscriptionPeriod)
	if err := resilience.PutJSON(ctx, s.store, KeyExpiry, expiry.UnixMilli()); err != nil {
		return "", fmt.Errorf("store expiry: %w", err)
	}
	if err := resilience.PutJSON(ctx, s.store, KeyConsumedCodes, append(used, code)); err != nil {
		return "", fmt.Errorf("store consumed code: %w", err)
	}
	s.logger.Info(ctx, "subscription activated", "device", device, "expiry", expiry.UTC())
	return Success, nil
}
