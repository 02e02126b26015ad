package models

import "time"

// SchoolClass groups the students an assignment is issued to.
type SchoolClass struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:64;not null" json:"name"`
	Section   string    `gorm:"size:16" json:"section"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
