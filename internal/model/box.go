package model

import "time"

// Box represents a physical container positioned on the storage grid.
type Box struct {
	BoxID      string    `gorm:"column:box_id;primaryKey;size:16" json:"box_id"`
	ColumnName string    `gorm:"size:32;not null" json:"column_name"`
	RowNumber  int       `gorm:"not null" json:"row_number"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`

	// Associations
	SubCompartments []SubCompartment `gorm:"foreignKey:BoxID" json:"-"`
}
