package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"surveillance-service/internal/config"
)

// DetectorClient talks to the upstream AI detection service that owns the
// physical camera feeds: a root health endpoint, a camera list endpoint, a
// per-camera status endpoint and a per-camera raw video endpoint.
type DetectorClient struct {
	baseURL       string
	healthTimeout time.Duration
	httpClient    *http.Client
	streamClient  *http.Client
}

type UpstreamCamera struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type UpstreamCameraStatus struct {
	CameraID  string    `json:"camera_id"`
	Status    string    `json:"status"`
	LastFrame time.Time `json:"last_frame"`
	Alerts    []string  `json:"alerts"`
}

func NewDetectorClient(cfg *config.Config) *DetectorClient {
	return &DetectorClient{
		baseURL:       strings.TrimRight(cfg.Detector.BaseURL, "/"),
		healthTimeout: cfg.Detector.HealthTimeout,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		// No client timeout on the stream path: video playback is
		// long-lived and is cancelled through the request context instead.
		streamClient: &http.Client{},
	}
}

// Healthy probes the upstream root endpoint. It enforces its own timeout
// regardless of the caller's deadline, re-checks on every call, and never
// returns an error: any timeout, connection failure or non-2xx response is
// simply "not reachable".
func (c *DetectorClient) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *DetectorClient) ListCameras(ctx context.Context) ([]UpstreamCamera, error) {
	body, err := c.get(ctx, "/cameras")
	if err != nil {
		return nil, err
	}

	var cameras []UpstreamCamera
	if err := json.Unmarshal(body, &cameras); err != nil {
		return nil, fmt.Errorf("failed to parse camera list: %w", err)
	}
	return cameras, nil
}

func (c *DetectorClient) CameraStatus(ctx context.Context, cameraID string) (*UpstreamCameraStatus, error) {
	body, err := c.get(ctx, "/cameras/"+url.PathEscape(cameraID)+"/status")
	if err != nil {
		return nil, err
	}

	var status UpstreamCameraStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to parse camera status: %w", err)
	}
	return &status, nil
}

// OpenStream opens the upstream per-camera video endpoint and hands the raw
// response to the caller for byte-level passthrough. The caller owns
// resp.Body and must close it; cancelling ctx aborts the upstream request,
// which is how client disconnects propagate.
func (c *DetectorClient) OpenStream(ctx context.Context, cameraID string) (*http.Response, error) {
	u, err := url.Parse(c.baseURL + "/cameras/" + url.PathEscape(cameraID) + "/video")
	if err != nil {
		return nil, fmt.Errorf("invalid detector service URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open video stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("detector service returned status %d for video stream", resp.StatusCode)
	}
	return resp, nil
}

func (c *DetectorClient) get(ctx context.Context, path string) ([]byte, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid detector service URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector service returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
