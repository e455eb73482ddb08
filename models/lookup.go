package models

import "time"

// CardLookup caches the identification result for a normalized title.
type CardLookup struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Key       string `gorm:"column:lookup_key;size:255;not null;uniqueIndex"` // normalized query text
	Payload   []byte `gorm:"not null"`                                        // JSON encoded match result
	Hits      int64  `gorm:"not null;default:0"`
}
