package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"

	"asrs-inventory-backend/internal/model"
	"asrs-inventory-backend/internal/place"
)

// Occupancy is the durable state of every slot, addressable by place, with
// grid-ordered scans. All mutations become visible only when the enclosing
// Atomic scope commits.
type Occupancy interface {
	GetSubCompartment(ctx context.Context, place string) (*model.SubCompartment, error)
	ListSubCompartments(ctx context.Context) ([]model.SubCompartment, error)
	CreateSubCompartment(ctx context.Context, boxID, subID string, itemID *string, status model.SlotStatus) (*model.SubCompartment, error)
	UpdateSlotStatus(ctx context.Context, plc string, status model.SlotStatus, itemID *string) (int64, error)
	DeleteSubCompartment(ctx context.Context, plc string) (int64, error)
	ListBoxesWithCapacity(ctx context.Context) ([]model.Box, error)
	UpsertOccupied(ctx context.Context, plc, boxID, subID, itemID string) (created bool, err error)
	ClearSlot(ctx context.Context, plc string) (int64, error)
	FindOccupiedByItem(ctx context.Context, itemID string, limit int) ([]SlotLocation, error)
}

// Ledger is the append-only record of occupancy transitions. Entries are
// written only by the allocation engine and never updated or deleted.
type Ledger interface {
	AppendTransaction(ctx context.Context, itemID, plc string, action model.TranAction, at time.Time) (int64, error)
	ListTransactions(ctx context.Context, sort TranSort, limit int) ([]TransactionRecord, error)
	GetTransactionByID(ctx context.Context, tranID int64) (*TransactionRecord, error)
	ListTransactionsByItem(ctx context.Context, itemID string) ([]TransactionRecord, error)
}

// Catalog is box and item identity lifecycle plus the read-only lookups the
// allocation engine and the API consult.
type Catalog interface {
	CreateBox(ctx context.Context, boxID, columnName string, rowNumber int) (*model.Box, error)
	GetBox(ctx context.Context, boxID string) (*model.Box, error)
	ListBoxes(ctx context.Context) ([]model.Box, error)
	DeleteBox(ctx context.Context, boxID string) error
	BoxExists(ctx context.Context, boxID string) (bool, error)

	CreateItem(ctx context.Context, itemID, name, description string) (*model.Item, error)
	GetItem(ctx context.Context, itemID string) (*model.Item, error)
	ListItems(ctx context.Context) ([]model.Item, error)
	DeleteItem(ctx context.Context, itemID string) error
	ItemIDExists(ctx context.Context, itemID string) (bool, error)
	ListAvailableItems(ctx context.Context) ([]ItemAvailability, error)
	ItemLocations(ctx context.Context, itemID string) ([]SlotLocation, error)
}

// Store groups every database operation behind one injected handle. Atomic
// runs fn against a transaction-scoped Store; everything fn does commits or
// rolls back as a single unit.
type Store interface {
	Occupancy
	Ledger
	Catalog

	Atomic(ctx context.Context, fn func(Store) error) error
	DB() *gorm.DB
}

// gormStore implements Store using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

func fmtInt(n int64) string { return strconv.FormatInt(n, 10) }

func (s *gormStore) Atomic(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// --- Occupancy ---

func (s *gormStore) GetSubCompartment(ctx context.Context, plc string) (*model.SubCompartment, error) {
	var sc model.SubCompartment
	err := s.db.WithContext(ctx).First(&sc, "place = ?", plc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "subcompartment", ID: plc}
	}
	if err != nil {
		return nil, storageErr("get subcompartment", err)
	}
	return &sc, nil
}

func (s *gormStore) ListSubCompartments(ctx context.Context) ([]model.SubCompartment, error) {
	var scs []model.SubCompartment
	if err := s.db.WithContext(ctx).Find(&scs).Error; err != nil {
		return nil, storageErr("list subcompartments", err)
	}
	return scs, nil
}

func (s *gormStore) CreateSubCompartment(ctx context.Context, boxID, subID string, itemID *string, status model.SlotStatus) (*model.SubCompartment, error) {
	if err := place.ValidateComponents(boxID, subID); err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}
	if status == model.StatusOccupied && itemID == nil {
		return nil, &ValidationError{Msg: "item id is required for Occupied status"}
	}
	if status == model.StatusEmpty {
		itemID = nil
	}
	sc := model.SubCompartment{
		Place:  place.Derive(boxID, subID),
		BoxID:  boxID,
		SubID:  subID,
		ItemID: itemID,
		Status: status,
	}
	err := s.db.WithContext(ctx).Create(&sc).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, &ConflictError{Msg: "subcompartment " + sc.Place + " already exists"}
	}
	if err != nil {
		return nil, storageErr("create subcompartment", err)
	}
	return &sc, nil
}

func (s *gormStore) UpdateSlotStatus(ctx context.Context, plc string, status model.SlotStatus, itemID *string) (int64, error) {
	if status == model.StatusOccupied && itemID == nil {
		return 0, &ValidationError{Msg: "item id is required for Occupied status"}
	}
	if status == model.StatusEmpty {
		itemID = nil
	}
	res := s.db.WithContext(ctx).Model(&model.SubCompartment{}).
		Where("place = ?", plc).
		Updates(map[string]any{"status": status, "item_id": itemID})
	if res.Error != nil {
		return 0, storageErr("update slot status", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *gormStore) DeleteSubCompartment(ctx context.Context, plc string) (int64, error) {
	res := s.db.WithContext(ctx).Delete(&model.SubCompartment{}, "place = ?", plc)
	if res.Error != nil {
		return 0, storageErr("delete subcompartment", res.Error)
	}
	return res.RowsAffected, nil
}

// ListBoxesWithCapacity returns every box that still has room: at least one
// Empty slot, or no slot rows recorded at all. Deduplicated by box_id.
func (s *gormStore) ListBoxesWithCapacity(ctx context.Context) ([]model.Box, error) {
	var boxes []model.Box
	err := s.db.WithContext(ctx).
		Table("boxes").
		Select("DISTINCT boxes.box_id, boxes.column_name, boxes.row_number").
		Joins("LEFT JOIN sub_compartments sc ON sc.box_id = boxes.box_id").
		Where("sc.status = ? OR sc.place IS NULL", model.StatusEmpty).
		Order("boxes.box_id ASC").
		Scan(&boxes).Error
	if err != nil {
		return nil, storageErr("list boxes with capacity", err)
	}
	return boxes, nil
}

// UpsertOccupied marks a slot occupied by itemID, creating the row when the
// place has never been seen. An existing Occupied row is a conflict, never
// an overwrite. The update path is compare-and-set on status so a racing
// placement that commits first turns this one into a conflict too.
func (s *gormStore) UpsertOccupied(ctx context.Context, plc, boxID, subID, itemID string) (bool, error) {
	db := s.db.WithContext(ctx)

	var existing model.SubCompartment
	err := db.First(&existing, "place = ?", plc).Error
	switch {
	case err == nil:
		if existing.Status == model.StatusOccupied {
			return false, &SlotConflictError{Place: plc}
		}
		res := db.Model(&model.SubCompartment{}).
			Where("place = ? AND status = ?", plc, model.StatusEmpty).
			Updates(map[string]any{"item_id": itemID, "status": model.StatusOccupied})
		if res.Error != nil {
			return false, storageErr("occupy slot", res.Error)
		}
		if res.RowsAffected == 0 {
			// A concurrent placement won between our read and the update.
			return false, &SlotConflictError{Place: plc}
		}
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		sc := model.SubCompartment{
			Place:  plc,
			BoxID:  boxID,
			SubID:  subID,
			ItemID: &itemID,
			Status: model.StatusOccupied,
		}
		if err := db.Create(&sc).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return false, &SlotConflictError{Place: plc}
			}
			return false, storageErr("create occupied slot", err)
		}
		return true, nil
	default:
		return false, storageErr("read slot", err)
	}
}

// ClearSlot frees an occupied slot. The status predicate makes the clear
// exclusive: a slot already freed by a concurrent withdrawal affects zero
// rows, which the engine treats as a signal to abort its whole batch.
func (s *gormStore) ClearSlot(ctx context.Context, plc string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.SubCompartment{}).
		Where("place = ? AND status = ?", plc, model.StatusOccupied).
		Updates(map[string]any{"status": model.StatusEmpty, "item_id": nil})
	if res.Error != nil {
		return 0, storageErr("clear slot", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *gormStore) FindOccupiedByItem(ctx context.Context, itemID string, limit int) ([]SlotLocation, error) {
	q := s.db.WithContext(ctx).
		Table("sub_compartments sc").
		Select("sc.place, sc.box_id, sc.sub_id, sc.item_id, b.column_name, b.row_number").
		Joins("JOIN boxes b ON b.box_id = sc.box_id").
		Where("sc.item_id = ? AND sc.status = ?", itemID, model.StatusOccupied).
		Order("b.column_name ASC, b.row_number ASC, sc.sub_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var locs []SlotLocation
	if err := q.Scan(&locs).Error; err != nil {
		return nil, storageErr("find occupied by item", err)
	}
	return locs, nil
}

// --- Ledger ---

func (s *gormStore) AppendTransaction(ctx context.Context, itemID, plc string, action model.TranAction, at time.Time) (int64, error) {
	tran := model.Transaction{
		ItemID: itemID,
		Place:  plc,
		Action: action,
		Time:   at,
	}
	if err := s.db.WithContext(ctx).Create(&tran).Error; err != nil {
		return 0, storageErr("append transaction", err)
	}
	return tran.TranID, nil
}

func (s *gormStore) ledgerQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("transactions t").
		Select("t.tran_id, t.item_id, i.name AS item_name, t.place, t.action, t.time").
		Joins("LEFT JOIN items i ON i.item_id = t.item_id")
}

func (s *gormStore) ListTransactions(ctx context.Context, sort TranSort, limit int) ([]TransactionRecord, error) {
	if limit <= 0 {
		limit = DefaultLedgerLimit
	}
	q := s.ledgerQuery(ctx)
	switch sort {
	case SortNewestFirst:
		q = q.Order("t.time DESC")
	case SortAddedOnly:
		q = q.Where("t.action = ?", model.ActionAdded).Order("t.tran_id ASC")
	case SortRetrievedOnly:
		q = q.Where("t.action = ?", model.ActionRetrieved).Order("t.tran_id ASC")
	default:
		q = q.Order("t.tran_id ASC")
	}
	var recs []TransactionRecord
	if err := q.Limit(limit).Scan(&recs).Error; err != nil {
		return nil, storageErr("list transactions", err)
	}
	return recs, nil
}

func (s *gormStore) GetTransactionByID(ctx context.Context, tranID int64) (*TransactionRecord, error) {
	var recs []TransactionRecord
	if err := s.ledgerQuery(ctx).Where("t.tran_id = ?", tranID).Limit(1).Scan(&recs).Error; err != nil {
		return nil, storageErr("get transaction", err)
	}
	if len(recs) == 0 {
		return nil, &NotFoundError{Kind: "transaction", ID: fmtInt(tranID)}
	}
	return &recs[0], nil
}

func (s *gormStore) ListTransactionsByItem(ctx context.Context, itemID string) ([]TransactionRecord, error) {
	var recs []TransactionRecord
	err := s.ledgerQuery(ctx).
		Where("t.item_id = ?", itemID).
		Order("t.time DESC").
		Scan(&recs).Error
	if err != nil {
		return nil, storageErr("list transactions by item", err)
	}
	return recs, nil
}

// --- Catalog: boxes ---

func (s *gormStore) CreateBox(ctx context.Context, boxID, columnName string, rowNumber int) (*model.Box, error) {
	box := model.Box{BoxID: boxID, ColumnName: columnName, RowNumber: rowNumber}
	err := s.db.WithContext(ctx).Create(&box).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, &ConflictError{Msg: "box " + boxID + " already exists"}
	}
	if err != nil {
		return nil, storageErr("create box", err)
	}
	return &box, nil
}

func (s *gormStore) GetBox(ctx context.Context, boxID string) (*model.Box, error) {
	var box model.Box
	err := s.db.WithContext(ctx).First(&box, "box_id = ?", boxID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "box", ID: boxID}
	}
	if err != nil {
		return nil, storageErr("get box", err)
	}
	return &box, nil
}

func (s *gormStore) ListBoxes(ctx context.Context) ([]model.Box, error) {
	var boxes []model.Box
	if err := s.db.WithContext(ctx).Order("box_id ASC").Find(&boxes).Error; err != nil {
		return nil, storageErr("list boxes", err)
	}
	return boxes, nil
}

// DeleteBox refuses to delete a box while slot rows still reference it, so
// occupancy state never dangles.
func (s *gormStore) DeleteBox(ctx context.Context, boxID string) error {
	return s.Atomic(ctx, func(txs Store) error {
		tx := txs.DB()
		var refs int64
		if err := tx.Model(&model.SubCompartment{}).Where("box_id = ?", boxID).Count(&refs).Error; err != nil {
			return storageErr("count box references", err)
		}
		if refs > 0 {
			return &ConflictError{Msg: "box " + boxID + " still has subcompartments"}
		}
		res := tx.Delete(&model.Box{}, "box_id = ?", boxID)
		if res.Error != nil {
			return storageErr("delete box", res.Error)
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Kind: "box", ID: boxID}
		}
		return nil
	})
}

func (s *gormStore) BoxExists(ctx context.Context, boxID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Box{}).Where("box_id = ?", boxID).Count(&count).Error; err != nil {
		return false, storageErr("check box exists", err)
	}
	return count > 0, nil
}

// --- Catalog: items ---

func (s *gormStore) CreateItem(ctx context.Context, itemID, name, description string) (*model.Item, error) {
	item := model.Item{
		ItemID:      itemID,
		Name:        name,
		Description: description,
		AddedOn:     time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Create(&item).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, &ConflictError{Msg: "item " + itemID + " already exists"}
	}
	if err != nil {
		return nil, storageErr("create item", err)
	}
	return &item, nil
}

func (s *gormStore) GetItem(ctx context.Context, itemID string) (*model.Item, error) {
	var item model.Item
	err := s.db.WithContext(ctx).First(&item, "item_id = ?", itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "item", ID: itemID}
	}
	if err != nil {
		return nil, storageErr("get item", err)
	}
	return &item, nil
}

func (s *gormStore) ListItems(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	if err := s.db.WithContext(ctx).Order("item_id ASC").Find(&items).Error; err != nil {
		return nil, storageErr("list items", err)
	}
	return items, nil
}

// DeleteItem refuses to delete an item while occupied slots still hold it.
func (s *gormStore) DeleteItem(ctx context.Context, itemID string) error {
	return s.Atomic(ctx, func(txs Store) error {
		tx := txs.DB()
		var refs int64
		err := tx.Model(&model.SubCompartment{}).
			Where("item_id = ? AND status = ?", itemID, model.StatusOccupied).
			Count(&refs).Error
		if err != nil {
			return storageErr("count item references", err)
		}
		if refs > 0 {
			return &ConflictError{Msg: "item " + itemID + " still occupies subcompartments"}
		}
		res := tx.Delete(&model.Item{}, "item_id = ?", itemID)
		if res.Error != nil {
			return storageErr("delete item", res.Error)
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Kind: "item", ID: itemID}
		}
		return nil
	})
}

func (s *gormStore) ItemIDExists(ctx context.Context, itemID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Item{}).Where("item_id = ?", itemID).Count(&count).Error; err != nil {
		return false, storageErr("check item exists", err)
	}
	return count > 0, nil
}

func (s *gormStore) ListAvailableItems(ctx context.Context) ([]ItemAvailability, error) {
	var avail []ItemAvailability
	err := s.db.WithContext(ctx).
		Table("items i").
		Select("i.item_id, i.name, COUNT(*) AS available_count").
		Joins("JOIN sub_compartments sc ON sc.item_id = i.item_id").
		Where("sc.status = ?", model.StatusOccupied).
		Group("i.item_id, i.name").
		Order("i.name ASC").
		Scan(&avail).Error
	if err != nil {
		return nil, storageErr("list available items", err)
	}
	return avail, nil
}

func (s *gormStore) ItemLocations(ctx context.Context, itemID string) ([]SlotLocation, error) {
	return s.FindOccupiedByItem(ctx, itemID, 0)
}
