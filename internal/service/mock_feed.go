package service

import (
	"time"

	"surveillance-service/internal/client"
)

// The mock dataset served while the detection service is down. IDs and
// names are fixed so repeated outage responses stay stable for the UI.
func mockCameraList() []client.UpstreamCamera {
	return []client.UpstreamCamera{
		{ID: "ATM_Cam_01", Name: "Main Branch Entrance", Status: "online"},
		{ID: "ATM_Cam_02", Name: "Main Branch ATM Lobby", Status: "online"},
		{ID: "ATM_Cam_03", Name: "Downtown Branch ATM", Status: "online"},
	}
}

func mockCameraStatus(cameraID string, now time.Time) *client.UpstreamCameraStatus {
	return &client.UpstreamCameraStatus{
		CameraID:  cameraID,
		Status:    "online",
		LastFrame: now,
		Alerts:    []string{},
	}
}
