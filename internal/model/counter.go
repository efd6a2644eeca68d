package model

import "time"

// Counter stores the last issued value for named monotonic sequences.
// Rows are created lazily on first allocation and never deleted.
type Counter struct {
	Name      string    `gorm:"type:varchar(64);primaryKey" json:"name"`
	Seq       int64     `gorm:"not null" json:"seq"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Counter) TableName() string {
	return "counters"
}
