package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"surveillance-service/internal/client"
)

// UpstreamFeed is the detection-service surface FeedService proxies.
// Satisfied by client.DetectorClient.
type UpstreamFeed interface {
	Healthy(ctx context.Context) bool
	ListCameras(ctx context.Context) ([]client.UpstreamCamera, error)
	CameraStatus(ctx context.Context, cameraID string) (*client.UpstreamCameraStatus, error)
	OpenStream(ctx context.Context, cameraID string) (*http.Response, error)
}

// FeedService fronts the upstream detection service. Read paths (camera
// list, per-camera status) degrade to a fixed mock dataset when the upstream
// is unreachable so the dashboard never renders an empty state during an
// outage. Video is never mocked: the stream path fails fast instead.
type FeedService struct {
	upstream UpstreamFeed
	cameras  CameraStore
	log      zerolog.Logger
	now      func() time.Time
}

func NewFeedService(upstream UpstreamFeed, cameras CameraStore, log zerolog.Logger) *FeedService {
	return &FeedService{
		upstream: upstream,
		cameras:  cameras,
		log:      log,
		now:      time.Now,
	}
}

// tryUpstreamElseMock is the single fallback branch shared by every read
// path: probe, fetch, and on any failure substitute the mock.
func tryUpstreamElseMock[T any](ctx context.Context, s *FeedService, op string, fetch func(context.Context) (T, error), mock func() T) T {
	if s.upstream.Healthy(ctx) {
		value, err := fetch(ctx)
		if err == nil {
			return value
		}
		s.log.Warn().Err(err).Str("op", op).Msg("upstream fetch failed, serving mock data")
	} else {
		s.log.Warn().Str("op", op).Msg("upstream unreachable, serving mock data")
	}
	return mock()
}

// ListCameras returns the upstream camera list verbatim, or the mock list
// when the upstream is down. It never returns an empty result on outage.
func (s *FeedService) ListCameras(ctx context.Context) []client.UpstreamCamera {
	return tryUpstreamElseMock(ctx, s, "list_cameras",
		s.upstream.ListCameras,
		mockCameraList,
	)
}

// CameraStatus returns the upstream per-camera status, or a deterministic
// mock when the upstream is down. The camera id must resolve in the
// registry first.
func (s *FeedService) CameraStatus(ctx context.Context, cameraID string) (*client.UpstreamCameraStatus, error) {
	if err := s.resolveCamera(ctx, cameraID); err != nil {
		return nil, err
	}

	status := tryUpstreamElseMock(ctx, s, "camera_status",
		func(ctx context.Context) (*client.UpstreamCameraStatus, error) {
			return s.upstream.CameraStatus(ctx, cameraID)
		},
		func() *client.UpstreamCameraStatus {
			return mockCameraStatus(cameraID, s.now())
		},
	)
	return status, nil
}

// OpenVideo opens the upstream video stream for passthrough. Unlike the
// read paths there is no mock branch: fabricated video frames are useless,
// so an unreachable upstream fails fast with ErrServiceUnavailable. The
// caller owns the response body; cancelling ctx closes the upstream request.
func (s *FeedService) OpenVideo(ctx context.Context, cameraID string) (*http.Response, error) {
	if err := s.resolveCamera(ctx, cameraID); err != nil {
		return nil, err
	}

	if !s.upstream.Healthy(ctx) {
		return nil, fmt.Errorf("%w: video cannot be served for camera %s", ErrServiceUnavailable, cameraID)
	}

	resp, err := s.upstream.OpenStream(ctx, cameraID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	return resp, nil
}

func (s *FeedService) resolveCamera(ctx context.Context, cameraID string) error {
	if _, err := s.cameras.GetByID(ctx, cameraID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
