package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"surveillance-service/internal/identity"
	"surveillance-service/internal/model"
)

// SequenceAllocator issues strictly increasing sequence values per named
// counter. Satisfied by repository.CounterRepository.
type SequenceAllocator interface {
	Next(ctx context.Context, name string) (int64, error)
}

// CameraStore is the persistence surface CameraService needs. Satisfied by
// repository.CameraRepository.
type CameraStore interface {
	Create(ctx context.Context, camera *model.Camera) error
	GetByID(ctx context.Context, id string) (*model.Camera, error)
	List(ctx context.Context) ([]model.Camera, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (int64, error)
	SetStatus(ctx context.Context, id string, status model.CameraStatus, availableAt *time.Time) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

const (
	counterCamera = "camera"

	// DefaultNearRadiusMeters applies when a proximity query omits the radius.
	DefaultNearRadiusMeters = 5000.0
)

type CameraService struct {
	cameras   CameraStore
	sequences SequenceAllocator
	log       zerolog.Logger
	now       func() time.Time
}

func NewCameraService(cameras CameraStore, sequences SequenceAllocator, log zerolog.Logger) *CameraService {
	return &CameraService{
		cameras:   cameras,
		sequences: sequences,
		log:       log,
		now:       time.Now,
	}
}

type CreateCameraInput struct {
	Name      string
	BankName  string
	District  string
	Province  string
	Branch    string
	Address   string
	Latitude  *float64
	Longitude *float64
	Status    *model.CameraStatus
	StreamURL *string
}

func (s *CameraService) Create(ctx context.Context, input CreateCameraInput) (*model.Camera, error) {
	// All validation happens before any sequence is allocated so a rejected
	// request burns neither a counter value nor a partial row.
	if input.Name == "" || input.BankName == "" || input.District == "" ||
		input.Province == "" || input.Branch == "" || input.Address == "" {
		return nil, fmt.Errorf("%w: name, bank_name, district, province, branch and address are required", ErrValidation)
	}
	if input.Latitude == nil || input.Longitude == nil {
		return nil, fmt.Errorf("%w: latitude and longitude are required", ErrValidation)
	}

	status := model.CameraStatusOnline
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *input.Status)
		}
		status = *input.Status
	}

	seq, err := s.sequences.Next(ctx, counterCamera)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	camera := &model.Camera{
		ID:                identity.Format(identity.KindCamera, seq),
		SequenceNumber:    seq,
		Name:              input.Name,
		BankName:          input.BankName,
		District:          input.District,
		Province:          input.Province,
		Branch:            input.Branch,
		Address:           input.Address,
		Location:          model.Location{Latitude: *input.Latitude, Longitude: *input.Longitude},
		Status:            status,
		LastAvailableTime: s.now(),
		StreamURL:         input.StreamURL,
	}

	if err := s.cameras.Create(ctx, camera); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Sequencing guarantees uniqueness; a collision here means the
			// counter store and the camera table disagree.
			s.log.Error().Str("camera_id", camera.ID).Msg("identity collision on camera create")
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIdentity, camera.ID)
		}
		return nil, err
	}

	s.log.Info().Str("camera_id", camera.ID).Int64("seq", seq).Msg("camera created")
	return camera, nil
}

func (s *CameraService) Get(ctx context.Context, id string) (*model.Camera, error) {
	camera, err := s.cameras.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return camera, nil
}

func (s *CameraService) List(ctx context.Context) ([]model.Camera, error) {
	return s.cameras.List(ctx)
}

// SetStatus accepts exactly online/offline. Going online stamps
// last_available_time; going offline leaves it alone so it keeps recording
// the last instant the camera was reachable.
func (s *CameraService) SetStatus(ctx context.Context, id string, status model.CameraStatus) (*model.Camera, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var availableAt *time.Time
	if status == model.CameraStatusOnline {
		now := s.now()
		availableAt = &now
	}

	rows, err := s.cameras.SetStatus(ctx, id, status, availableAt)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNotFound
	}

	return s.Get(ctx, id)
}

type UpdateCameraInput struct {
	Name      *string
	BankName  *string
	District  *string
	Province  *string
	Branch    *string
	Address   *string
	Latitude  *float64
	Longitude *float64
	StreamURL *string
}

// Update merges non-identity fields as a column-scoped write, so a status
// transition landing in between is never overwritten with stale values. A
// partial coordinate update recomputes the location, keeping the omitted
// axis from the stored record.
func (s *CameraService) Update(ctx context.Context, id string, input UpdateCameraInput) (*model.Camera, error) {
	camera, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Name != nil {
		fields["name"] = *input.Name
	}
	if input.BankName != nil {
		fields["bank_name"] = *input.BankName
	}
	if input.District != nil {
		fields["district"] = *input.District
	}
	if input.Province != nil {
		fields["province"] = *input.Province
	}
	if input.Branch != nil {
		fields["branch"] = *input.Branch
	}
	if input.Address != nil {
		fields["address"] = *input.Address
	}
	if input.Latitude != nil || input.Longitude != nil {
		location := camera.Location
		if input.Latitude != nil {
			location.Latitude = *input.Latitude
		}
		if input.Longitude != nil {
			location.Longitude = *input.Longitude
		}
		fields["latitude"] = location.Latitude
		fields["longitude"] = location.Longitude
	}
	if input.StreamURL != nil {
		fields["stream_url"] = *input.StreamURL
	}

	if len(fields) == 0 {
		return camera, nil
	}

	rows, err := s.cameras.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// FindNear returns cameras within radiusMeters of the given point using
// spherical distance. A zero or negative radius falls back to the default.
func (s *CameraService) FindNear(ctx context.Context, lat, lng, radiusMeters float64) ([]model.Camera, error) {
	if radiusMeters <= 0 {
		radiusMeters = DefaultNearRadiusMeters
	}

	cameras, err := s.cameras.List(ctx)
	if err != nil {
		return nil, err
	}

	nearby := make([]model.Camera, 0, len(cameras))
	for _, camera := range cameras {
		if haversine(lat, lng, camera.Location.Latitude, camera.Location.Longitude) <= radiusMeters {
			nearby = append(nearby, camera)
		}
	}
	return nearby, nil
}

// Delete hard-deletes the camera. Alerts referencing it are weak references
// and stay in place; reads resolve the dangling id downstream.
func (s *CameraService) Delete(ctx context.Context, id string) error {
	rows, err := s.cameras.Delete(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	s.log.Info().Str("camera_id", id).Msg("camera deleted")
	return nil
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadius * c
}
