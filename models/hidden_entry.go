package models

import "time"

// HiddenEntry is an outstanding item in single-claim mode. The row is deleted by the first finder.
type HiddenEntry struct {
	ItemID    string    `gorm:"primaryKey;type:varchar(32)" json:"item_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
