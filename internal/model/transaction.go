package model

import "time"

// TranAction is the direction of an occupancy transition.
type TranAction string

const (
	ActionAdded     TranAction = "added"
	ActionRetrieved TranAction = "retrieved"
)

// Transaction is one immutable ledger entry. Rows are appended by the
// allocation engine inside the same database transaction as the slot
// mutation they record, and are never updated or deleted.
type Transaction struct {
	TranID int64      `gorm:"column:tran_id;primaryKey;autoIncrement" json:"tran_id"`
	ItemID string     `gorm:"column:item_id;index;size:64;not null" json:"item_id"`
	Place  string     `gorm:"size:32;not null" json:"place"`
	Action TranAction `gorm:"size:16;not null" json:"action"`
	Time   time.Time  `gorm:"not null" json:"time"`
}
