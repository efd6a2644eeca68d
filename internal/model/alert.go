package model

import "time"

type AlertType string

const (
	AlertTypeNormalFace AlertType = "normal face"
	AlertTypeWithHelmet AlertType = "with helmet"
	AlertTypeWithMask   AlertType = "with mask"
)

func (t AlertType) Valid() bool {
	return t == AlertTypeNormalFace || t == AlertTypeWithHelmet || t == AlertTypeWithMask
}

type AlertSeverity string

const (
	AlertSeverityLow    AlertSeverity = "low"
	AlertSeverityMedium AlertSeverity = "medium"
	AlertSeverityHigh   AlertSeverity = "high"
)

func (s AlertSeverity) Valid() bool {
	return s == AlertSeverityLow || s == AlertSeverityMedium || s == AlertSeverityHigh
}

type AlertStatus string

const (
	AlertStatusOpen     AlertStatus = "open"
	AlertStatusResolved AlertStatus = "resolved"
)

func (s AlertStatus) Valid() bool {
	return s == AlertStatusOpen || s == AlertStatusResolved
}

// Alert.CameraID is a weak reference: the camera must exist when the alert
// is created, but deleting the camera afterwards leaves the alert in place.
type Alert struct {
	ID             string        `gorm:"type:varchar(64);primaryKey" json:"id"`
	SequenceNumber int64         `gorm:"not null;uniqueIndex" json:"sequence_number"`
	Type           AlertType     `gorm:"type:alert_type;not null" json:"type"`
	Severity       AlertSeverity `gorm:"type:alert_severity;not null;default:low" json:"severity"`
	Status         AlertStatus   `gorm:"type:alert_status;not null;default:open" json:"status"`
	Description    string        `gorm:"type:text" json:"description"`
	CameraID       string        `gorm:"type:varchar(64);not null;index" json:"camera_id"`
	Confidence     float64       `gorm:"not null;default:0" json:"confidence"`
	ImagePath      *string       `gorm:"type:text" json:"image_path,omitempty"`
	CreatedTime    time.Time     `gorm:"autoCreateTime" json:"created_time"`
	ResolvedTime   *time.Time    `json:"resolved_time"`
	ResolvedBy     *string       `gorm:"type:varchar(64)" json:"resolved_by"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Alert) TableName() string {
	return "alerts"
}
