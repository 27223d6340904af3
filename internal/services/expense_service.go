package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"spendlog/internal/amqp"
	"spendlog/internal/analytics"
	"spendlog/internal/core"
	"spendlog/internal/store"
	"spendlog/internal/utils"
)

var (
	// ErrNotFound is returned when no expense has the requested id.
	ErrNotFound = errors.New("expense not found")
	// ErrInvalidInput wraps the validation failure of a create or update.
	ErrInvalidInput = errors.New("invalid expense")
)

// Publisher announces expense changes to other processes.
type Publisher interface {
	PublishExpenseChange(ctx context.Context, kind amqp.ChangeType, id string) error
}

// ExpenseService validates input, applies it to the store and announces
// the change. Persistence failures come back wrapped in store.ErrPersist
// together with the applied result.
type ExpenseService struct {
	store     *store.Store
	publisher Publisher
	clock     utils.Clock
}

// NewExpenseService wires a service. publisher may be nil.
func NewExpenseService(st *store.Store, publisher Publisher, clock utils.Clock) *ExpenseService {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &ExpenseService{
		store:     st,
		publisher: publisher,
		clock:     clock,
	}
}

// CreateExpense validates e and adds it. The category is normalized to a
// known one and the amount to dot-decimal notation.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.Title = strings.TrimSpace(e.Title)
	e.Amount = normalizeAmount(e.Amount)
	e.Date = strings.TrimSpace(e.Date)
	e.Category = core.NormalizeCategory(e.Category)
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	created, err := s.store.Add(ctx, e)
	if err != nil && !errors.Is(err, store.ErrPersist) {
		return core.Expense{}, err
	}
	if err != nil {
		slog.WarnContext(ctx, "Expense created but not saved", "id", created.ID, "error", err)
	}

	s.publish(ctx, amqp.ChangeCreated, created.ID)
	return created, err
}

// UpdateExpense applies patch to the expense with id and returns the result.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id string, patch core.Patch) (core.Expense, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	if patch.Amount != nil {
		amount := normalizeAmount(*patch.Amount)
		patch.Amount = &amount
	}
	if patch.Category != nil {
		category := core.NormalizeCategory(*patch.Category)
		patch.Category = &category
	}
	if err := patch.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	updated, found, err := s.store.Update(ctx, id, patch)
	if !found {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		slog.WarnContext(ctx, "Expense updated but not saved", "id", id, "error", err)
	}

	s.publish(ctx, amqp.ChangeUpdated, id)
	return updated, err
}

// DeleteExpense removes the expense with id. Deleting an unknown id
// succeeds and announces nothing.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) error {
	removed, err := s.store.Delete(ctx, id)
	if !removed {
		slog.DebugContext(ctx, "Delete of unknown expense ignored", "id", id)
		return nil
	}
	if err != nil {
		slog.WarnContext(ctx, "Expense deleted but not saved", "id", id, "error", err)
	}
	s.publish(ctx, amqp.ChangeDeleted, id)
	return err
}

func (s *ExpenseService) GetExpense(id string) (core.Expense, error) {
	e, ok := s.store.GetByID(id)
	if !ok {
		return core.Expense{}, ErrNotFound
	}
	return e, nil
}

// ListExpenses returns the filtered records, newest first.
func (s *ExpenseService) ListExpenses(f core.Filter) []core.Expense {
	return analytics.Query(s.store.All(), f)
}

// Stats summarizes every record relative to the current month.
func (s *ExpenseService) Stats() core.Stats {
	return analytics.Stats(s.store.All(), s.clock.Now())
}

// Summary returns the filtered list together with the unfiltered stats.
func (s *ExpenseService) Summary(f core.Filter) analytics.View {
	return analytics.Summarize(s.store.All(), f, s.clock.Now())
}

// ImportExpenses appends previously saved records without validating them.
func (s *ExpenseService) ImportExpenses(ctx context.Context, records []core.Expense) (int, error) {
	n, err := s.store.Import(ctx, records)
	if err != nil {
		return n, err
	}
	slog.InfoContext(ctx, "Imported expenses", "added", n, "skipped", len(records)-n)
	return n, nil
}

func (s *ExpenseService) publish(ctx context.Context, kind amqp.ChangeType, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseChange(ctx, kind, id); err != nil {
		// The change is already applied; consumers catch up on the next one.
		slog.ErrorContext(ctx, "Failed to publish expense change", "id", id, "type", kind, "error", err)
	}
}

// Close releases the publisher connection.
func (s *ExpenseService) Close() error {
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}

func normalizeAmount(a core.Amount) core.Amount {
	return core.Amount(strings.Replace(strings.TrimSpace(string(a)), ",", ".", 1))
}
