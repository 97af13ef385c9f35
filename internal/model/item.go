package model

import "time"

// Item is a catalog entry. IDs are caller-supplied and unique; AddedOn is
// set once at creation and never updated.
type Item struct {
	ItemID      string    `gorm:"column:item_id;primaryKey;size:64" json:"item_id"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Description string    `gorm:"size:512" json:"description"`
	AddedOn     time.Time `gorm:"column:added_on;not null;<-:create" json:"added_on"`
}
