package model

import "time"

type CameraStatus string

const (
	CameraStatusOnline  CameraStatus = "online"
	CameraStatusOffline CameraStatus = "offline"
)

func (s CameraStatus) Valid() bool {
	return s == CameraStatusOnline || s == CameraStatusOffline
}

type Location struct {
	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`
}

type Camera struct {
	ID                string       `gorm:"type:varchar(64);primaryKey" json:"id"`
	SequenceNumber    int64        `gorm:"not null;uniqueIndex" json:"sequence_number"`
	Name              string       `gorm:"type:varchar(255);not null" json:"name"`
	BankName          string       `gorm:"type:varchar(255);not null" json:"bank_name"`
	District          string       `gorm:"type:varchar(255);not null" json:"district"`
	Province          string       `gorm:"type:varchar(255);not null" json:"province"`
	Branch            string       `gorm:"type:varchar(255);not null" json:"branch"`
	Address           string       `gorm:"type:text;not null" json:"address"`
	Location          Location     `gorm:"embedded" json:"location"`
	Status            CameraStatus `gorm:"type:camera_status;not null;default:online" json:"status"`
	LastAvailableTime time.Time    `gorm:"not null" json:"last_available_time"`
	StreamURL         *string      `gorm:"type:text" json:"stream_url,omitempty"`
	CreatedAt         time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Camera) TableName() string {
	return "cameras"
}
