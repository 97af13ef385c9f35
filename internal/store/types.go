package store

import (
	"time"

	"asrs-inventory-backend/internal/model"
)

// SlotLocation is an occupied slot joined with its box's grid position.
// Results are ordered column-wise: column name, then row number, then
// sub-slot id, all ascending.
type SlotLocation struct {
	Place      string  `json:"place"`
	BoxID      string  `json:"box_id"`
	SubID      string  `json:"sub_id"`
	ItemID     *string `json:"item_id,omitempty"`
	ColumnName string  `json:"column_name"`
	RowNumber  int     `json:"row_number"`
}

// TransactionRecord is a ledger entry joined with the item's catalog name.
// ItemName is nil when the item has since been deleted from the catalog.
type TransactionRecord struct {
	TranID   int64            `json:"tran_id"`
	ItemID   string           `json:"item_id"`
	ItemName *string          `json:"item_name"`
	Place    string           `json:"place"`
	Action   model.TranAction `json:"action"`
	Time     time.Time        `json:"time"`
}

// ItemAvailability is a catalog item with its current occupied-slot count.
type ItemAvailability struct {
	ItemID         string `json:"item_id"`
	Name           string `json:"name"`
	AvailableCount int64  `json:"available_count"`
}

// TranSort selects the ordering and filtering applied to a ledger listing.
type TranSort string

const (
	SortIDAsc         TranSort = "id_asc"
	SortNewestFirst   TranSort = "newest_first"
	SortAddedOnly     TranSort = "added_only"
	SortRetrievedOnly TranSort = "retrieved_only"
)

// DefaultLedgerLimit caps ledger listings when the caller does not supply a
// positive limit.
const DefaultLedgerLimit = 100
