// Package engine implements the slot-allocation state machine. Place and
// Withdraw are the only paths that mutate occupancy state, and each one
// couples its slot mutations with its ledger appends inside a single
// database transaction.
package engine

import (
	"context"
	"strings"
	"time"

	"asrs-inventory-backend/internal/model"
	"asrs-inventory-backend/internal/place"
	"asrs-inventory-backend/internal/store"
)

// Notifier receives movement events after a successful commit. Dispatch
// must not block the calling request for long; it is never part of the
// transaction.
type Notifier interface {
	Dispatch(event MovementEvent)
}

// MovementEvent describes one committed occupancy transition.
type MovementEvent struct {
	ItemID string           `json:"item_id"`
	Place  string           `json:"place"`
	Action model.TranAction `json:"action"`
	Time   time.Time        `json:"time"`
}

// Options controls engine policy.
type Options struct {
	// StrictExistence rejects placements that reference an unknown box or
	// item instead of silently creating slot rows for them.
	StrictExistence bool
}

// Engine orchestrates placements and withdrawals against the store.
type Engine struct {
	store    store.Store
	opts     Options
	notifier Notifier
	now      func() time.Time
}

// New creates an allocation engine. notifier may be nil.
func New(s store.Store, opts Options, notifier Notifier) *Engine {
	return &Engine{
		store:    s,
		opts:     opts,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PlaceResult reports a successful placement. Action is "created" when the
// slot row did not exist before the call and "updated" when a previously
// Empty row was reused.
type PlaceResult struct {
	Place  string `json:"place"`
	Action string `json:"action"`
	Status string `json:"status"`
	ItemID string `json:"item_id"`
	TranID int64  `json:"transaction_id"`
}

// FreedLocation is one slot freed by a withdrawal, with the ledger entry
// that recorded it.
type FreedLocation struct {
	Place      string `json:"place"`
	ColumnName string `json:"column_name"`
	RowNumber  int    `json:"row_number"`
	SubID      string `json:"sub_id"`
	TranID     int64  `json:"transaction_id"`
}

// WithdrawResult reports a successful withdrawal. Locations preserves the
// column-wise selection order, which is also the ledger append order.
type WithdrawResult struct {
	ItemID    string          `json:"item_id"`
	Quantity  int             `json:"quantity"`
	Locations []FreedLocation `json:"locations"`
}

// Place stores one unit of itemID into the slot identified by
// (boxID, subID). The slot row is created on first use; an Empty row is
// reoccupied; an Occupied row is a conflict and leaves no trace in the
// ledger.
func (e *Engine) Place(ctx context.Context, boxID, subID, itemID string) (*PlaceResult, error) {
	boxID = strings.TrimSpace(boxID)
	subID = strings.TrimSpace(subID)
	itemID = strings.TrimSpace(itemID)
	if err := place.ValidateComponents(boxID, subID); err != nil {
		return nil, &store.ValidationError{Msg: err.Error()}
	}
	if itemID == "" {
		return nil, &store.ValidationError{Msg: "item id must not be empty"}
	}
	if e.opts.StrictExistence {
		if err := e.checkExistence(ctx, boxID, itemID); err != nil {
			return nil, err
		}
	}

	plc := place.Derive(boxID, subID)
	now := e.now()

	var res PlaceResult
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		created, err := tx.UpsertOccupied(ctx, plc, boxID, subID, itemID)
		if err != nil {
			return err
		}
		tranID, err := tx.AppendTransaction(ctx, itemID, plc, model.ActionAdded, now)
		if err != nil {
			return err
		}
		action := "updated"
		if created {
			action = "created"
		}
		res = PlaceResult{
			Place:  plc,
			Action: action,
			Status: string(model.StatusOccupied),
			ItemID: itemID,
			TranID: tranID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.dispatch(MovementEvent{ItemID: itemID, Place: plc, Action: model.ActionAdded, Time: now})
	return &res, nil
}

// Withdraw frees up to quantity occupied slots holding itemID, exhausting
// the grid column-wise: column name, then row number, then sub-slot id,
// ascending. The batch is all-or-nothing; fewer available slots than
// requested abort it before any mutation.
func (e *Engine) Withdraw(ctx context.Context, itemID string, quantity int) (*WithdrawResult, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, &store.ValidationError{Msg: "item id must not be empty"}
	}
	if quantity <= 0 {
		return nil, &store.ValidationError{Msg: "quantity must be positive"}
	}

	now := e.now()

	var res WithdrawResult
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		slots, err := tx.FindOccupiedByItem(ctx, itemID, quantity)
		if err != nil {
			return err
		}
		if len(slots) < quantity {
			return &store.InsufficientStockError{Available: len(slots), Requested: quantity}
		}

		freed := make([]FreedLocation, 0, len(slots))
		for _, slot := range slots {
			affected, err := tx.ClearSlot(ctx, slot.Place)
			if err != nil {
				return err
			}
			if affected == 0 {
				// Lost the slot to a concurrent withdrawal; give up the
				// whole batch rather than free a different slot.
				return &store.SlotConflictError{Place: slot.Place}
			}
			tranID, err := tx.AppendTransaction(ctx, itemID, slot.Place, model.ActionRetrieved, now)
			if err != nil {
				return err
			}
			freed = append(freed, FreedLocation{
				Place:      slot.Place,
				ColumnName: slot.ColumnName,
				RowNumber:  slot.RowNumber,
				SubID:      slot.SubID,
				TranID:     tranID,
			})
		}
		res = WithdrawResult{ItemID: itemID, Quantity: len(freed), Locations: freed}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.dispatch(MovementEvent{ItemID: itemID, Place: joinPlaces(res.Locations), Action: model.ActionRetrieved, Time: now})
	return &res, nil
}

func (e *Engine) checkExistence(ctx context.Context, boxID, itemID string) error {
	ok, err := e.store.BoxExists(ctx, boxID)
	if err != nil {
		return err
	}
	if !ok {
		return &store.NotFoundError{Kind: "box", ID: boxID}
	}
	ok, err = e.store.ItemIDExists(ctx, itemID)
	if err != nil {
		return err
	}
	if !ok {
		return &store.NotFoundError{Kind: "item", ID: itemID}
	}
	return nil
}

func (e *Engine) dispatch(event MovementEvent) {
	if e.notifier != nil {
		e.notifier.Dispatch(event)
	}
}

func joinPlaces(locs []FreedLocation) string {
	places := make([]string, len(locs))
	for i, l := range locs {
		places[i] = l.Place
	}
	return strings.Join(places, ",")
}
