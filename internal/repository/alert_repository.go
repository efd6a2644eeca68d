package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"surveillance-service/internal/model"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(ctx context.Context, alert *model.Alert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *AlertRepository) GetByID(ctx context.Context, id string) (*model.Alert, error) {
	var alert model.Alert
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&alert).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// UpdateOpen writes only the given columns and only while the alert is still
// open. A resolve landing between the caller's read and this write turns the
// statement into a no-op (RowsAffected == 0) instead of rewriting the row
// with stale resolution fields.
func (r *AlertRepository) UpdateOpen(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Alert{}).
		Where("id = ? AND status = ?", id, model.AlertStatusOpen).
		Updates(fields)
	return result.RowsAffected, result.Error
}

type AlertListFilter struct {
	Status   *model.AlertStatus
	Type     *model.AlertType
	Severity *model.AlertSeverity
	CameraID *string
	Limit    int
	Offset   int
}

func (r *AlertRepository) List(ctx context.Context, filter AlertListFilter) ([]model.Alert, error) {
	var alerts []model.Alert
	query := r.db.WithContext(ctx).Model(&model.Alert{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Severity != nil {
		query = query.Where("severity = ?", *filter.Severity)
	}
	if filter.CameraID != nil {
		query = query.Where("camera_id = ?", *filter.CameraID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	if err := query.Order("created_time DESC").Find(&alerts).Error; err != nil {
		return nil, err
	}

	return alerts, nil
}

// Resolve performs the open->resolved transition as a conditional single-row
// update. Under concurrent resolve attempts only the first caller matches the
// status guard; everyone else gets RowsAffected == 0 and observes the
// already-resolved row unchanged.
func (r *AlertRepository) Resolve(ctx context.Context, id string, resolvedBy *string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Alert{}).
		Where("id = ? AND status = ?", id, model.AlertStatusOpen).
		Updates(map[string]interface{}{
			"status":        model.AlertStatusResolved,
			"resolved_time": at,
			"resolved_by":   resolvedBy,
		})
	return result.RowsAffected, result.Error
}

func (r *AlertRepository) Delete(ctx context.Context, id string) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Alert{})
	return result.RowsAffected, result.Error
}
