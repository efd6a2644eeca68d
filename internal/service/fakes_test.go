package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"gorm.io/gorm"

	"surveillance-service/internal/client"
	"surveillance-service/internal/model"
	"surveillance-service/internal/repository"
)

// fakeAllocator hands out sequences per counter name under a lock, mirroring
// the atomic upsert contract of the real counter repository.
type fakeAllocator struct {
	mu   sync.Mutex
	seqs map[string]int64
	fail bool
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{seqs: make(map[string]int64)}
}

func (f *fakeAllocator) Next(ctx context.Context, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, fmt.Errorf("counter store down")
	}
	f.seqs[name]++
	return f.seqs[name], nil
}

type fakeCameraStore struct {
	mu          sync.Mutex
	cameras     map[string]model.Camera
	beforeWrite func()
}

func newFakeCameraStore() *fakeCameraStore {
	return &fakeCameraStore{cameras: make(map[string]model.Camera)}
}

func (f *fakeCameraStore) Create(ctx context.Context, camera *model.Camera) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.cameras[camera.ID]; exists {
		return gorm.ErrDuplicatedKey
	}
	f.cameras[camera.ID] = *camera
	return nil
}

func (f *fakeCameraStore) GetByID(ctx context.Context, id string) (*model.Camera, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	camera, ok := f.cameras[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &camera, nil
}

func (f *fakeCameraStore) List(ctx context.Context) ([]model.Camera, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cameras := make([]model.Camera, 0, len(f.cameras))
	for _, camera := range f.cameras {
		cameras = append(cameras, camera)
	}
	return cameras, nil
}

func (f *fakeCameraStore) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	if f.beforeWrite != nil {
		f.beforeWrite()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	camera, ok := f.cameras[id]
	if !ok {
		return 0, nil
	}
	for column, value := range fields {
		switch column {
		case "name":
			camera.Name = value.(string)
		case "bank_name":
			camera.BankName = value.(string)
		case "district":
			camera.District = value.(string)
		case "province":
			camera.Province = value.(string)
		case "branch":
			camera.Branch = value.(string)
		case "address":
			camera.Address = value.(string)
		case "latitude":
			camera.Location.Latitude = value.(float64)
		case "longitude":
			camera.Location.Longitude = value.(float64)
		case "stream_url":
			url := value.(string)
			camera.StreamURL = &url
		}
	}
	f.cameras[id] = camera
	return 1, nil
}

func (f *fakeCameraStore) SetStatus(ctx context.Context, id string, status model.CameraStatus, availableAt *time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	camera, ok := f.cameras[id]
	if !ok {
		return 0, nil
	}
	camera.Status = status
	if availableAt != nil {
		camera.LastAvailableTime = *availableAt
	}
	f.cameras[id] = camera
	return 1, nil
}

func (f *fakeCameraStore) Delete(ctx context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cameras[id]; !ok {
		return 0, nil
	}
	delete(f.cameras, id)
	return 1, nil
}

type fakeAlertStore struct {
	mu          sync.Mutex
	alerts      map[string]model.Alert
	beforeWrite func()
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{alerts: make(map[string]model.Alert)}
}

func (f *fakeAlertStore) Create(ctx context.Context, alert *model.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.alerts[alert.ID]; exists {
		return gorm.ErrDuplicatedKey
	}
	f.alerts[alert.ID] = *alert
	return nil
}

func (f *fakeAlertStore) GetByID(ctx context.Context, id string) (*model.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, ok := f.alerts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &alert, nil
}

// UpdateOpen mimics the conditional column write: fields apply only while
// the alert still matches the open guard.
func (f *fakeAlertStore) UpdateOpen(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	if f.beforeWrite != nil {
		f.beforeWrite()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, ok := f.alerts[id]
	if !ok || alert.Status != model.AlertStatusOpen {
		return 0, nil
	}
	for column, value := range fields {
		switch column {
		case "type":
			alert.Type = value.(model.AlertType)
		case "severity":
			alert.Severity = value.(model.AlertSeverity)
		case "description":
			alert.Description = value.(string)
		case "confidence":
			alert.Confidence = value.(float64)
		case "image_path":
			path := value.(string)
			alert.ImagePath = &path
		}
	}
	f.alerts[id] = alert
	return 1, nil
}

func (f *fakeAlertStore) List(ctx context.Context, filter repository.AlertListFilter) ([]model.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	alerts := make([]model.Alert, 0, len(f.alerts))
	for _, alert := range f.alerts {
		if filter.Status != nil && alert.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && alert.Type != *filter.Type {
			continue
		}
		if filter.Severity != nil && alert.Severity != *filter.Severity {
			continue
		}
		if filter.CameraID != nil && alert.CameraID != *filter.CameraID {
			continue
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

// Resolve mimics the conditional single-row update: only an open alert
// matches the guard, so a second resolve is a no-op.
func (f *fakeAlertStore) Resolve(ctx context.Context, id string, resolvedBy *string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, ok := f.alerts[id]
	if !ok || alert.Status != model.AlertStatusOpen {
		return 0, nil
	}
	alert.Status = model.AlertStatusResolved
	alert.ResolvedTime = &at
	alert.ResolvedBy = resolvedBy
	f.alerts[id] = alert
	return 1, nil
}

func (f *fakeAlertStore) Delete(ctx context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.alerts[id]; !ok {
		return 0, nil
	}
	delete(f.alerts, id)
	return 1, nil
}

type fakeUpstream struct {
	healthy   bool
	cameras   []client.UpstreamCamera
	status    *client.UpstreamCameraStatus
	fetchErr  error
	streamErr error
	stream    *http.Response
	probes    int
}

func (f *fakeUpstream) Healthy(ctx context.Context) bool {
	f.probes++
	return f.healthy
}

func (f *fakeUpstream) ListCameras(ctx context.Context) ([]client.UpstreamCamera, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.cameras, nil
}

func (f *fakeUpstream) CameraStatus(ctx context.Context, cameraID string) (*client.UpstreamCameraStatus, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.status, nil
}

func (f *fakeUpstream) OpenStream(ctx context.Context, cameraID string) (*http.Response, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return f.stream, nil
}
