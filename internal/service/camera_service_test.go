package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"surveillance-service/internal/model"
)

func newTestCameraService(store *fakeCameraStore, alloc *fakeAllocator) *CameraService {
	return NewCameraService(store, alloc, zerolog.Nop())
}

func validCameraInput() CreateCameraInput {
	lat, lng := 13.7563, 100.5018
	return CreateCameraInput{
		Name:      "ATM Front",
		BankName:  "First National",
		District:  "Pathum Wan",
		Province:  "Bangkok",
		Branch:    "Siam Square",
		Address:   "979 Rama I Rd",
		Latitude:  &lat,
		Longitude: &lng,
	}
}

func TestCameraCreateAssignsIdentityAndDefaults(t *testing.T) {
	ctx := context.Background()
	store := newFakeCameraStore()
	alloc := newFakeAllocator()
	svc := newTestCameraService(store, alloc)
	alloc.seqs["camera"] = 6 // next allocation returns 7

	camera, err := svc.Create(ctx, validCameraInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if camera.ID != "ATM_Cam_07" {
		t.Errorf("expected id ATM_Cam_07, got %q", camera.ID)
	}
	if camera.SequenceNumber != 7 {
		t.Errorf("expected sequence 7, got %d", camera.SequenceNumber)
	}
	if camera.Status != model.CameraStatusOnline {
		t.Errorf("expected default status online, got %q", camera.Status)
	}
	if camera.LastAvailableTime.IsZero() {
		t.Error("expected last_available_time to be stamped on create")
	}
}

func TestCameraCreateMissingFieldsRejectedBeforeAllocation(t *testing.T) {
	ctx := context.Background()
	store := newFakeCameraStore()
	alloc := newFakeAllocator()
	svc := newTestCameraService(store, alloc)

	input := validCameraInput()
	input.BankName = ""

	if _, err := svc.Create(ctx, input); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if alloc.seqs["camera"] != 0 {
		t.Error("rejected create must not burn a sequence")
	}
	if len(store.cameras) != 0 {
		t.Error("rejected create must not persist a camera")
	}
}

func TestCameraCreateAllocatorDownSurfacesStorageUnavailable(t *testing.T) {
	ctx := context.Background()
	store := newFakeCameraStore()
	alloc := newFakeAllocator()
	alloc.fail = true
	svc := newTestCameraService(store, alloc)

	if _, err := svc.Create(ctx, validCameraInput()); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if len(store.cameras) != 0 {
		t.Error("no camera may be persisted without an allocated identity")
	}
}

func TestCameraConcurrentCreatesAllocateDistinctSequences(t *testing.T) {
	ctx := context.Background()
	store := newFakeCameraStore()
	alloc := newFakeAllocator()
	svc := newTestCameraService(store, alloc)

	const workers = 20
	ids := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			camera, err := svc.Create(ctx, validCameraInput())
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			ids <- camera.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate identity allocated: %s", id)
		}
		seen[id] = true
	}
	if len(seen) != workers {
		t.Fatalf("expected %d distinct identities, got %d", workers, len(seen))
	}
}

func TestCameraSetStatusRejectsUnknownValues(t *testing.T) {
	ctx := context.Background()
	store := newFakeCameraStore()
	svc := newTestCameraService(store, newFakeAllocator())

	camera, err := svc.Create(ctx, validCameraInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.SetStatus(ctx, camera.ID, "degraded"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	stored, _ := store.GetByID(ctx, camera.ID)
	if stored.Status != model.CameraStatusOnline {
		t.Errorf("stored status changed on invalid input: %q", stored.Status)
	}
}

func TestCameraSetStatusOnlineStampsAvailability(t *testing.T) {
	ctx := context.Background()
	store := newFakeCameraStore()
	svc := newTestCameraService(store, newFakeAllocator())

	camera, err := svc.Create(ctx, validCameraInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	createdAvailable := camera.LastAvailableTime

	// Offline leaves the availability stamp alone.
	offline, err := svc.SetStatus(ctx, camera.ID, model.CameraStatusOffline)
	if err != nil {
		t.Fatalf("set offline: %v", err)
	}
	if !offline.LastAvailableTime.Equal(createdAvailable) {
		t.Error("offline transition must not touch last_available_time")
	}

	later := createdAvailable.Add(time.Hour)
	svc.now = func() time.Time { return later }

	online, err := svc.SetStatus(ctx, camera.ID, model.CameraStatusOnline)
	if err != nil {
		t.Fatalf("set online: %v", err)
	}
	if !online.LastAvailableTime.Equal(later) {
		t.Errorf("online transition must stamp last_available_time, got %v want %v", online.LastAvailableTime, later)
	}
}

func TestCameraUpdatePreservesOmittedCoordinate(t *testing.T) {
	ctx := context.Background()
	store := newFakeCameraStore()
	svc := newTestCameraService(store, newFakeAllocator())

	camera, err := svc.Create(ctx, validCameraInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newLat := 14.0
	updated, err := svc.Update(ctx, camera.ID, UpdateCameraInput{Latitude: &newLat})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Location.Latitude != newLat {
		t.Errorf("latitude not updated: %v", updated.Location.Latitude)
	}
	if updated.Location.Longitude != camera.Location.Longitude {
		t.Errorf("longitude must be preserved from the existing record, got %v", updated.Location.Longitude)
	}
}

func TestCameraFindNearUsesDefaultRadius(t *testing.T) {
	ctx := context.Background()
	store := newFakeCameraStore()
	svc := newTestCameraService(store, newFakeAllocator())

	near := validCameraInput()
	if _, err := svc.Create(ctx, near); err != nil {
		t.Fatalf("create near: %v", err)
	}

	farLat, farLng := 18.7883, 98.9853 // Chiang Mai, several hundred km away
	far := validCameraInput()
	far.Name = "Far ATM"
	far.Latitude = &farLat
	far.Longitude = &farLng
	if _, err := svc.Create(ctx, far); err != nil {
		t.Fatalf("create far: %v", err)
	}

	found, err := svc.FindNear(ctx, 13.7563, 100.5018, 0)
	if err != nil {
		t.Fatalf("find near: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected exactly the nearby camera within the default radius, got %d", len(found))
	}
	if found[0].Name != "ATM Front" {
		t.Errorf("unexpected camera matched: %q", found[0].Name)
	}
}

func TestCameraDeleteIsHardAndNotFoundAfter(t *testing.T) {
	ctx := context.Background()
	store := newFakeCameraStore()
	svc := newTestCameraService(store, newFakeAllocator())

	camera, err := svc.Create(ctx, validCameraInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, camera.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, camera.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, camera.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeated delete, got %v", err)
	}
}

func TestCameraUpdateDoesNotClobberConcurrentStatusChange(t *testing.T) {
	ctx := context.Background()
	store := newFakeCameraStore()
	svc := newTestCameraService(store, newFakeAllocator())

	camera, err := svc.Create(ctx, validCameraInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// The detection service reports the camera offline between Update's
	// read and its write-back.
	store.beforeWrite = func() {
		if rows, err := store.SetStatus(ctx, camera.ID, model.CameraStatusOffline, nil); err != nil || rows != 1 {
			t.Fatalf("interleaved status change: rows=%d err=%v", rows, err)
		}
	}

	name := "Main Branch Entrance 2"
	updated, err := svc.Update(ctx, camera.ID, UpdateCameraInput{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Name != name {
		t.Errorf("expected renamed camera, got %q", updated.Name)
	}
	if updated.Status != model.CameraStatusOffline {
		t.Errorf("status transition must survive the field update, got %q", updated.Status)
	}
	if !updated.LastAvailableTime.Equal(camera.LastAvailableTime) {
		t.Errorf("last_available_time must survive the field update, got %v", updated.LastAvailableTime)
	}
}
