package model

import "time"

// SlotStatus is the occupancy state of a sub-compartment.
type SlotStatus string

const (
	StatusEmpty    SlotStatus = "Empty"
	StatusOccupied SlotStatus = "Occupied"
)

// SubCompartment is a single storage slot inside a box. Its identity is the
// place string, always derived from (box_id, sub_id) and never supplied
// independently by callers.
//
// Invariant: ItemID is non-nil iff Status is Occupied.
type SubCompartment struct {
	Place     string     `gorm:"column:place;primaryKey;size:32" json:"place"`
	BoxID     string     `gorm:"column:box_id;index;size:16;not null" json:"box_id"`
	SubID     string     `gorm:"column:sub_id;size:16;not null" json:"sub_id"`
	ItemID    *string    `gorm:"column:item_id;size:64" json:"item_id"`
	Status    SlotStatus `gorm:"size:16;not null" json:"status"`
	CreatedAt time.Time  `json:"-"`
	UpdatedAt time.Time  `json:"-"`
}
