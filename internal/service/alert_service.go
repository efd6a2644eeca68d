package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"surveillance-service/internal/identity"
	"surveillance-service/internal/model"
	"surveillance-service/internal/repository"
)

// AlertStore is the persistence surface AlertService needs. Satisfied by
// repository.AlertRepository.
type AlertStore interface {
	Create(ctx context.Context, alert *model.Alert) error
	GetByID(ctx context.Context, id string) (*model.Alert, error)
	UpdateOpen(ctx context.Context, id string, fields map[string]interface{}) (int64, error)
	List(ctx context.Context, filter repository.AlertListFilter) ([]model.Alert, error)
	Resolve(ctx context.Context, id string, resolvedBy *string, at time.Time) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

const counterAlert = "alert"

type AlertService struct {
	alerts    AlertStore
	cameras   CameraStore
	sequences SequenceAllocator
	log       zerolog.Logger
	now       func() time.Time
}

func NewAlertService(alerts AlertStore, cameras CameraStore, sequences SequenceAllocator, log zerolog.Logger) *AlertService {
	return &AlertService{
		alerts:    alerts,
		cameras:   cameras,
		sequences: sequences,
		log:       log,
		now:       time.Now,
	}
}

type CreateAlertInput struct {
	Type        model.AlertType
	CameraID    string
	Severity    *model.AlertSeverity
	Description string
	Confidence  *float64
	ImagePath   *string
}

func (s *AlertService) Create(ctx context.Context, input CreateAlertInput) (*model.Alert, error) {
	if input.Type == "" || input.CameraID == "" {
		return nil, fmt.Errorf("%w: type and camera_id are required", ErrValidation)
	}
	if !input.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown alert type %q", ErrValidation, input.Type)
	}

	severity := model.AlertSeverityLow
	if input.Severity != nil {
		if !input.Severity.Valid() {
			return nil, fmt.Errorf("%w: unknown severity %q", ErrValidation, *input.Severity)
		}
		severity = *input.Severity
	}

	confidence := 0.0
	if input.Confidence != nil {
		if *input.Confidence < 0 || *input.Confidence > 100 {
			return nil, fmt.Errorf("%w: got %v", ErrInvalidConfidence, *input.Confidence)
		}
		confidence = *input.Confidence
	}

	// The camera must exist at creation time. After that the reference is
	// weak: deleting the camera later leaves the alert dangling on purpose.
	if _, err := s.cameras.GetByID(ctx, input.CameraID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: camera %s does not exist", ErrValidation, input.CameraID)
		}
		return nil, err
	}

	seq, err := s.sequences.Next(ctx, counterAlert)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	alert := &model.Alert{
		ID:             identity.Format(identity.KindAlert, seq),
		SequenceNumber: seq,
		Type:           input.Type,
		Severity:       severity,
		Status:         model.AlertStatusOpen,
		Description:    input.Description,
		CameraID:       input.CameraID,
		Confidence:     confidence,
		ImagePath:      input.ImagePath,
		CreatedTime:    s.now(),
	}

	if err := s.alerts.Create(ctx, alert); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.log.Error().Str("alert_id", alert.ID).Msg("identity collision on alert create")
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIdentity, alert.ID)
		}
		return nil, err
	}

	s.log.Info().
		Str("alert_id", alert.ID).
		Str("camera_id", alert.CameraID).
		Str("type", string(alert.Type)).
		Msg("alert created")
	return alert, nil
}

func (s *AlertService) Get(ctx context.Context, id string) (*model.Alert, error) {
	alert, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return alert, nil
}

func (s *AlertService) List(ctx context.Context, filter repository.AlertListFilter) ([]model.Alert, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *filter.Status)
	}
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown alert type %q", ErrValidation, *filter.Type)
	}
	if filter.Severity != nil && !filter.Severity.Valid() {
		return nil, fmt.Errorf("%w: unknown severity %q", ErrValidation, *filter.Severity)
	}
	return s.alerts.List(ctx, filter)
}

// Resolve is the single authoritative open->resolved transition. It is
// idempotent: resolving an already-resolved alert returns the record with
// its original resolved_time and resolved_by untouched. actor carries the
// resolver attribution; a system principal records a null resolver.
func (s *AlertService) Resolve(ctx context.Context, id string, actor model.Principal) (*model.Alert, error) {
	rows, err := s.alerts.Resolve(ctx, id, actor.ResolverID(), s.now())
	if err != nil {
		return nil, err
	}

	alert, getErr := s.Get(ctx, id)
	if getErr != nil {
		return nil, getErr
	}

	if rows > 0 {
		s.log.Info().Str("alert_id", id).Msg("alert resolved")
	}
	return alert, nil
}

type UpdateAlertInput struct {
	Type        *model.AlertType
	Severity    *model.AlertSeverity
	Description *string
	Confidence  *float64
	ImagePath   *string
	Status      *model.AlertStatus
	ResolvedBy  *string
}

// Update merges free-form fields. Status is special: a resolved patch routes
// through the same transition as Resolve (stamping resolved_time at this
// call and defaulting resolved_by to the acting principal), reopening a
// resolved alert is rejected, and resolver attribution cannot be patched
// independently of the transition.
func (s *AlertService) Update(ctx context.Context, id string, input UpdateAlertInput, actor model.Principal) (*model.Alert, error) {
	alert, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Status != nil && !input.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *input.Status)
	}
	if input.Status == nil && input.ResolvedBy != nil {
		return nil, fmt.Errorf("%w: resolved_by can only be set while resolving", ErrValidation)
	}
	if input.Status != nil && *input.Status == model.AlertStatusOpen && alert.Status == model.AlertStatusResolved {
		return nil, fmt.Errorf("%w: alert %s is already resolved", ErrInvalidTransition, id)
	}
	if alert.Status == model.AlertStatusResolved &&
		(input.Type != nil || input.Severity != nil || input.Description != nil ||
			input.Confidence != nil || input.ImagePath != nil) {
		return nil, fmt.Errorf("%w: resolved alerts are terminal", ErrInvalidTransition)
	}

	fields := map[string]interface{}{}
	if input.Type != nil {
		if !input.Type.Valid() {
			return nil, fmt.Errorf("%w: unknown alert type %q", ErrValidation, *input.Type)
		}
		fields["type"] = *input.Type
	}
	if input.Severity != nil {
		if !input.Severity.Valid() {
			return nil, fmt.Errorf("%w: unknown severity %q", ErrValidation, *input.Severity)
		}
		fields["severity"] = *input.Severity
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.Confidence != nil {
		if *input.Confidence < 0 || *input.Confidence > 100 {
			return nil, fmt.Errorf("%w: got %v", ErrInvalidConfidence, *input.Confidence)
		}
		fields["confidence"] = *input.Confidence
	}
	if input.ImagePath != nil {
		fields["image_path"] = *input.ImagePath
	}

	// Column-scoped write guarded on status = open. A resolve committing
	// after the read above cannot be rewound: the guard misses and the
	// resolved row stays exactly as the resolver left it.
	if len(fields) > 0 {
		rows, err := s.alerts.UpdateOpen(ctx, id, fields)
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			if _, getErr := s.Get(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("%w: alert %s is no longer open", ErrInvalidTransition, id)
		}
	}

	if input.Status != nil && *input.Status == model.AlertStatusResolved {
		if input.ResolvedBy != nil {
			actor = model.Principal{UserID: *input.ResolvedBy}
		}
		return s.Resolve(ctx, id, actor)
	}

	return s.Get(ctx, id)
}

// Delete hard-deletes the alert; the referenced camera is untouched.
func (s *AlertService) Delete(ctx context.Context, id string) error {
	rows, err := s.alerts.Delete(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	s.log.Info().Str("alert_id", id).Msg("alert deleted")
	return nil
}

// CameraName resolves the weak camera reference for display. A deleted
// camera resolves to "unknown camera" rather than an error.
func (s *AlertService) CameraName(ctx context.Context, alert *model.Alert) string {
	camera, err := s.cameras.GetByID(ctx, alert.CameraID)
	if err != nil {
		return "unknown camera"
	}
	return camera.Name
}
