package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"asrs-inventory-backend/internal/model"
	"asrs-inventory-backend/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Box{},
		&model.Item{},
		&model.SubCompartment{},
		&model.Transaction{},
	))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return store.NewGormStore(db)
}

func seedCatalog(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	for _, b := range []struct {
		id, col string
		row     int
	}{
		{"A1", "A", 1},
		{"A2", "A", 2},
		{"B1", "B", 1},
	} {
		_, err := s.CreateBox(ctx, b.id, b.col, b.row)
		require.NoError(t, err)
	}
	_, err := s.CreateItem(ctx, "X", "crates", "")
	require.NoError(t, err)
}

func ledgerCount(t *testing.T, s store.Store) int {
	t.Helper()
	recs, err := s.ListTransactions(context.Background(), store.SortIDAsc, 0)
	require.NoError(t, err)
	return len(recs)
}

// recordingNotifier captures dispatched movement events.
type recordingNotifier struct {
	events []MovementEvent
}

func (n *recordingNotifier) Dispatch(event MovementEvent) {
	n.events = append(n.events, event)
}

func TestPlaceLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCatalog(t, s)
	notifier := &recordingNotifier{}
	eng := New(s, Options{StrictExistence: true}, notifier)

	res, err := eng.Place(ctx, "A1", "x", "X")
	require.NoError(t, err)
	assert.Equal(t, "A1x", res.Place)
	assert.Equal(t, "created", res.Action)
	assert.Equal(t, "X", res.ItemID)
	assert.NotZero(t, res.TranID)
	assert.Equal(t, 1, ledgerCount(t, s))
	require.Len(t, notifier.events, 1)
	assert.Equal(t, model.ActionAdded, notifier.events[0].Action)

	// Same place again: conflict, no ledger entry, no notification.
	_, err = eng.Place(ctx, "A1", "x", "X")
	var conflict *store.SlotConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 1, ledgerCount(t, s))
	assert.Len(t, notifier.events, 1)

	// Withdraw then re-place: the row exists and is Empty, so "updated".
	_, err = eng.Withdraw(ctx, "X", 1)
	require.NoError(t, err)

	res, err = eng.Place(ctx, "A1", "x", "X")
	require.NoError(t, err)
	assert.Equal(t, "updated", res.Action)
	assert.Equal(t, 3, ledgerCount(t, s))
}

func TestPlaceValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCatalog(t, s)
	eng := New(s, Options{}, nil)

	var validation *store.ValidationError
	_, err := eng.Place(ctx, "", "x", "X")
	assert.ErrorAs(t, err, &validation)
	_, err = eng.Place(ctx, "A1", "", "X")
	assert.ErrorAs(t, err, &validation)
	_, err = eng.Place(ctx, "A1", "x", " ")
	assert.ErrorAs(t, err, &validation)
	_, err = eng.Place(ctx, "A123", "x", "X")
	assert.ErrorAs(t, err, &validation)

	assert.Equal(t, 0, ledgerCount(t, s), "validation failures never reach the ledger")
}

func TestPlaceExistencePolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("strict rejects unknown box and item", func(t *testing.T) {
		s := newTestStore(t)
		seedCatalog(t, s)
		eng := New(s, Options{StrictExistence: true}, nil)

		var notFound *store.NotFoundError
		_, err := eng.Place(ctx, "Z9", "x", "X")
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "box", notFound.Kind)

		_, err = eng.Place(ctx, "A1", "x", "ghost")
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "item", notFound.Kind)

		assert.Equal(t, 0, ledgerCount(t, s))
	})

	t.Run("lenient places into unregistered boxes", func(t *testing.T) {
		s := newTestStore(t)
		seedCatalog(t, s)
		eng := New(s, Options{StrictExistence: false}, nil)

		res, err := eng.Place(ctx, "Z9", "x", "ghost")
		require.NoError(t, err)
		assert.Equal(t, "created", res.Action)
	})
}

func TestWithdrawOrderingDeterminism(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCatalog(t, s)
	eng := New(s, Options{StrictExistence: true}, nil)

	// Occupied slots: (A,1,a), (A,1,b), (A,2,a), (B,1,a) all holding X,
	// placed out of priority order.
	for _, slot := range []struct{ box, sub string }{
		{"B1", "a"}, {"A1", "b"}, {"A2", "a"}, {"A1", "a"},
	} {
		_, err := eng.Place(ctx, slot.box, slot.sub, "X")
		require.NoError(t, err)
	}

	res, err := eng.Withdraw(ctx, "X", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Quantity)
	require.Len(t, res.Locations, 3)
	assert.Equal(t, "A1a", res.Locations[0].Place)
	assert.Equal(t, "A1b", res.Locations[1].Place)
	assert.Equal(t, "A2a", res.Locations[2].Place)

	// Ledger append order matches the selection order.
	recs, err := s.ListTransactions(ctx, store.SortRetrievedOnly, 0)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "A1a", recs[0].Place)
	assert.Equal(t, "A1b", recs[1].Place)
	assert.Equal(t, "A2a", recs[2].Place)

	// The remaining slot is the lowest-priority one.
	left, err := s.FindOccupiedByItem(ctx, "X", 0)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "B1a", left[0].Place)
}

func TestWithdrawInsufficientStockIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCatalog(t, s)
	notifier := &recordingNotifier{}
	eng := New(s, Options{StrictExistence: true}, notifier)

	_, err := eng.Place(ctx, "A1", "a", "X")
	require.NoError(t, err)
	_, err = eng.Place(ctx, "A1", "b", "X")
	require.NoError(t, err)
	before := ledgerCount(t, s)
	notifier.events = nil

	_, err = eng.Withdraw(ctx, "X", 5)
	var insufficient *store.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Available)
	assert.Equal(t, 5, insufficient.Requested)

	locs, err := s.FindOccupiedByItem(ctx, "X", 0)
	require.NoError(t, err)
	assert.Len(t, locs, 2, "both slots stay Occupied")
	assert.Equal(t, before, ledgerCount(t, s), "no ledger entry is written")
	assert.Empty(t, notifier.events)
}

func TestWithdrawValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCatalog(t, s)
	eng := New(s, Options{}, nil)

	var validation *store.ValidationError
	_, err := eng.Withdraw(ctx, "", 1)
	assert.ErrorAs(t, err, &validation)
	_, err = eng.Withdraw(ctx, "X", 0)
	assert.ErrorAs(t, err, &validation)
	_, err = eng.Withdraw(ctx, "X", -3)
	assert.ErrorAs(t, err, &validation)
}

// failingAppendStore wraps a Store and injects a ledger failure after a set
// number of successful appends inside an Atomic scope.
type failingAppendStore struct {
	store.Store
	failAfter int
	appends   int
}

func (f *failingAppendStore) Atomic(ctx context.Context, fn func(store.Store) error) error {
	return f.Store.Atomic(ctx, func(tx store.Store) error {
		return fn(&failingAppendTx{Store: tx, parent: f})
	})
}

type failingAppendTx struct {
	store.Store
	parent *failingAppendStore
}

func (t *failingAppendTx) AppendTransaction(ctx context.Context, itemID, plc string, action model.TranAction, at time.Time) (int64, error) {
	if t.parent.appends >= t.parent.failAfter {
		return 0, errors.New("injected ledger failure")
	}
	t.parent.appends++
	return t.Store.AppendTransaction(ctx, itemID, plc, action, at)
}

func TestWithdrawRollsBackWholeBatchOnFailure(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCatalog(t, s)
	setup := New(s, Options{StrictExistence: true}, nil)

	for _, sub := range []string{"a", "b", "c"} {
		_, err := setup.Place(ctx, "A1", sub, "X")
		require.NoError(t, err)
	}
	before := ledgerCount(t, s)

	// The second retrieved-entry append fails mid-batch.
	flaky := &failingAppendStore{Store: s, failAfter: 1}
	eng := New(flaky, Options{StrictExistence: true}, nil)

	_, err := eng.Withdraw(ctx, "X", 3)
	require.Error(t, err)

	locs, err := s.FindOccupiedByItem(ctx, "X", 0)
	require.NoError(t, err)
	assert.Len(t, locs, 3, "every slot clear must be rolled back")
	assert.Equal(t, before, ledgerCount(t, s), "every ledger append must be rolled back")
}

// contestedClearStore wraps a Store so clearing one chosen place reports
// zero affected rows, the way a concurrent withdrawal that already freed
// the slot would.
type contestedClearStore struct {
	store.Store
	stolen string
}

func (c *contestedClearStore) Atomic(ctx context.Context, fn func(store.Store) error) error {
	return c.Store.Atomic(ctx, func(tx store.Store) error {
		return fn(&contestedClearTx{Store: tx, stolen: c.stolen})
	})
}

type contestedClearTx struct {
	store.Store
	stolen string
}

func (t *contestedClearTx) ClearSlot(ctx context.Context, plc string) (int64, error) {
	if plc == t.stolen {
		return 0, nil
	}
	return t.Store.ClearSlot(ctx, plc)
}

func TestWithdrawAbortsWhenSlotAlreadyFreed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCatalog(t, s)
	setup := New(s, Options{StrictExistence: true}, nil)

	for _, sub := range []string{"a", "b"} {
		_, err := setup.Place(ctx, "A1", sub, "X")
		require.NoError(t, err)
	}
	before := ledgerCount(t, s)

	// The second slot is lost to a competing withdrawal mid-batch.
	contested := &contestedClearStore{Store: s, stolen: "A1b"}
	eng := New(contested, Options{StrictExistence: true}, nil)

	_, err := eng.Withdraw(ctx, "X", 2)
	var conflict *store.SlotConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "A1b", conflict.Place)

	// The batch must not fall back to freeing a different slot, and the
	// first clear must be rolled back with it.
	sc, err := s.GetSubCompartment(ctx, "A1a")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOccupied, sc.Status)
	assert.Equal(t, before, ledgerCount(t, s))
}

func TestPlaceRollsBackSlotOnLedgerFailure(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCatalog(t, s)

	flaky := &failingAppendStore{Store: s, failAfter: 0}
	eng := New(flaky, Options{StrictExistence: true}, nil)

	_, err := eng.Place(ctx, "A1", "x", "X")
	require.Error(t, err)

	_, err = s.GetSubCompartment(ctx, "A1x")
	assert.ErrorIs(t, err, store.ErrNotFound, "the slot row must not survive the rollback")
	assert.Equal(t, 0, ledgerCount(t, s))
}

func TestLedgerCompleteness(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCatalog(t, s)
	eng := New(s, Options{StrictExistence: true}, nil)

	for _, sub := range []string{"a", "b", "c", "d"} {
		_, err := eng.Place(ctx, "A1", sub, "X")
		require.NoError(t, err)
	}
	_, err := eng.Withdraw(ctx, "X", 4)
	require.NoError(t, err)

	added, err := s.ListTransactions(ctx, store.SortAddedOnly, 0)
	require.NoError(t, err)
	retrieved, err := s.ListTransactions(ctx, store.SortRetrievedOnly, 0)
	require.NoError(t, err)
	assert.Len(t, added, 4, "one added entry per placement")
	assert.Len(t, retrieved, 4, "one retrieved entry per freed slot")
}
