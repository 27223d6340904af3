package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spendlog/internal/amqp"
	"spendlog/internal/core"
	"spendlog/internal/storage"
	"spendlog/internal/store"
	"spendlog/internal/utils"
)

type change struct {
	kind amqp.ChangeType
	id   string
}

type fakePublisher struct {
	mu      sync.Mutex
	changes []change
	err     error
	closed  bool
}

func (f *fakePublisher) PublishExpenseChange(_ context.Context, kind amqp.ChangeType, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, change{kind, id})
	return f.err
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

type readOnlySlot struct{}

func (readOnlySlot) Get(context.Context, string) ([]byte, error) { return nil, storage.ErrNotFound }
func (readOnlySlot) Put(context.Context, string, []byte) error   { return errors.New("read-only") }

func newTestService(t *testing.T) (*ExpenseService, *fakePublisher) {
	t.Helper()
	clock := &utils.MockClock{FixedNow: time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)}
	st := store.New(context.Background(), storage.NewMemory(), store.WithClock(clock))
	pub := &fakePublisher{}
	return NewExpenseService(st, pub, clock), pub
}

func TestCreateExpenseNormalizesAndPublishes(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	got, err := svc.CreateExpense(ctx, core.Expense{Title: "  Lunch ", Amount: "12,50", Date: "2024-03-14", Category: "Groceries"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.Title != "Lunch" || got.Amount != "12.50" || got.Category != core.CategoryOthers {
		t.Fatalf("unexpected expense: %+v", got)
	}
	if len(pub.changes) != 1 || pub.changes[0] != (change{amqp.ChangeCreated, got.ID}) {
		t.Fatalf("unexpected changes: %+v", pub.changes)
	}
	if s := svc.Stats(); s.Total.String() != "12.5" || s.MonthTotal.String() != "12.5" {
		t.Fatalf("unexpected stats: total=%s month=%s", s.Total, s.MonthTotal)
	}
}

func TestCreateExpenseRejectsInvalidInput(t *testing.T) {
	svc, pub := newTestService(t)
	cases := []core.Expense{
		{Title: "", Amount: "1", Date: "2024-03-14"},
		{Title: "a", Amount: "-1", Date: "2024-03-14"},
		{Title: "a", Amount: "1", Date: "14/03/2024"},
	}
	for i, e := range cases {
		if _, err := svc.CreateExpense(context.Background(), e); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d expected ErrInvalidInput, got %v", i, err)
		}
	}
	if len(svc.ListExpenses(core.Filter{})) != 0 || len(pub.changes) != 0 {
		t.Fatalf("invalid input must not change anything")
	}
}

func TestUpdateExpense(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	created, _ := svc.CreateExpense(ctx, core.Expense{Title: "Taxi", Amount: "20", Date: "2024-03-01", Category: core.CategoryTravel})

	amount := core.Amount("25")
	updated, err := svc.UpdateExpense(ctx, created.ID, core.Patch{Amount: &amount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Amount != "25" || updated.Title != "Taxi" {
		t.Fatalf("unexpected update: %+v", updated)
	}
	if pub.changes[len(pub.changes)-1] != (change{amqp.ChangeUpdated, created.ID}) {
		t.Fatalf("expected update notification, got %+v", pub.changes)
	}

	if _, err := svc.UpdateExpense(ctx, "missing", core.Patch{Amount: &amount}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	blank := " "
	if _, err := svc.UpdateExpense(ctx, created.ID, core.Patch{Title: &blank}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateRacingDeleteNeverReturnsEmptyRecord(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	amount := core.Amount("5")

	for i := 0; i < 100; i++ {
		created, _ := svc.CreateExpense(ctx, core.Expense{Title: "Taxi", Amount: "20", Date: "2024-03-01", Category: core.CategoryTravel})

		var (
			wg        sync.WaitGroup
			updated   core.Expense
			updateErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			updated, updateErr = svc.UpdateExpense(ctx, created.ID, core.Patch{Amount: &amount})
		}()
		go func() {
			defer wg.Done()
			_ = svc.DeleteExpense(ctx, created.ID)
		}()
		wg.Wait()

		if updateErr == nil && (updated.ID != created.ID || updated.Title != "Taxi") {
			t.Fatalf("update reported success with %+v", updated)
		}
		if updateErr != nil && !errors.Is(updateErr, ErrNotFound) {
			t.Fatalf("unexpected error: %v", updateErr)
		}
	}
}

func TestDeleteExpenseIsIdempotent(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	created, _ := svc.CreateExpense(ctx, core.Expense{Title: "Gift", Amount: "30", Date: "2024-03-02", Category: core.CategoryShopping})

	if err := svc.DeleteExpense(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteExpense(ctx, created.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := svc.GetExpense(created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if len(pub.changes) != 2 || pub.changes[1].kind != amqp.ChangeDeleted {
		t.Fatalf("expected exactly one delete notification, got %+v", pub.changes)
	}
}

func TestPersistFailureIsReportedButApplied(t *testing.T) {
	st := store.New(context.Background(), readOnlySlot{})
	svc := NewExpenseService(st, nil, nil)

	created, err := svc.CreateExpense(context.Background(), core.Expense{Title: "Tea", Amount: "2", Date: "2024-03-14", Category: core.CategoryFood})
	if !errors.Is(err, store.ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
	if _, err := svc.GetExpense(created.ID); err != nil {
		t.Fatalf("expense should be kept in memory: %v", err)
	}
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	svc, pub := newTestService(t)
	pub.err = errors.New("broker down")

	if _, err := svc.CreateExpense(context.Background(), core.Expense{Title: "Tea", Amount: "2", Date: "2024-03-14"}); err != nil {
		t.Fatalf("publish failure leaked: %v", err)
	}
}

func TestSummaryAndClose(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	_, _ = svc.CreateExpense(ctx, core.Expense{Title: "Rice", Amount: "10", Date: "2024-03-10", Category: core.CategoryFood})
	_, _ = svc.CreateExpense(ctx, core.Expense{Title: "Train", Amount: "40", Date: "2024-02-10", Category: core.CategoryTravel})

	v := svc.Summary(core.Filter{Category: core.CategoryFood})
	if len(v.Expenses) != 1 || v.FilteredTotal.String() != "10" {
		t.Fatalf("unexpected filtered view: %+v", v)
	}
	if v.Stats.Total.String() != "50" || v.Stats.TopCategory != core.CategoryTravel {
		t.Fatalf("stats must cover every record: %+v", v.Stats)
	}

	if err := svc.Close(); err != nil || !pub.closed {
		t.Fatalf("close: err=%v closed=%v", err, pub.closed)
	}
}
