package model

import "time"

type User struct {
	ID             string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	SequenceNumber int64     `gorm:"not null;uniqueIndex" json:"sequence_number"`
	Email          string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	PasswordHash   string    `gorm:"type:varchar(255);not null" json:"-"`
	Role           string    `gorm:"type:varchar(32);not null;default:operator" json:"role"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
