package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"surveillance-service/internal/model"
)

type CameraRepository struct {
	db *gorm.DB
}

func NewCameraRepository(db *gorm.DB) *CameraRepository {
	return &CameraRepository{db: db}
}

func (r *CameraRepository) Create(ctx context.Context, camera *model.Camera) error {
	return r.db.WithContext(ctx).Create(camera).Error
}

func (r *CameraRepository) GetByID(ctx context.Context, id string) (*model.Camera, error) {
	var camera model.Camera
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&camera).Error
	if err != nil {
		return nil, err
	}
	return &camera, nil
}

func (r *CameraRepository) List(ctx context.Context) ([]model.Camera, error) {
	var cameras []model.Camera
	if err := r.db.WithContext(ctx).Order("sequence_number ASC").Find(&cameras).Error; err != nil {
		return nil, err
	}
	return cameras, nil
}

// UpdateFields writes only the given columns, leaving status and the
// last_available_time stamp to SetStatus. Returns the number of rows touched
// (0 means the id does not exist).
func (r *CameraRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Camera{}).Where("id = ?", id).Updates(fields)
	return result.RowsAffected, result.Error
}

// SetStatus flips the status in a single row update. availableAt is stamped
// only for transitions to online; offline keeps the previous value so the
// column keeps recording the last time the camera was actually available.
// Returns the number of rows touched (0 means the id does not exist).
func (r *CameraRepository) SetStatus(ctx context.Context, id string, status model.CameraStatus, availableAt *time.Time) (int64, error) {
	updates := map[string]interface{}{"status": status}
	if availableAt != nil {
		updates["last_available_time"] = *availableAt
	}
	result := r.db.WithContext(ctx).Model(&model.Camera{}).Where("id = ?", id).Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *CameraRepository) Delete(ctx context.Context, id string) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Camera{})
	return result.RowsAffected, result.Error
}
