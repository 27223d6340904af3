package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Fixed category set. Records may carry any string; display falls back to Others.
const (
	CategoryFood          = "Food"
	CategoryTravel        = "Travel"
	CategoryBills         = "Bills"
	CategoryShopping      = "Shopping"
	CategoryEntertainment = "Entertainment"
	CategoryOthers        = "Others"

	// CategoryAll is the filter value meaning "no category filter".
	CategoryAll = "all"
)

// DateLayout is the calendar date format used in records and filters.
const DateLayout = "2006-01-02"

const maxTitleLength = 200

type (
	// Expense is one user-entered spending entry.
	Expense struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Amount    Amount `json:"amount"`
		Date      string `json:"date"`
		Category  string `json:"category"`
		CreatedAt string `json:"createdAt"`
	}

	// Patch carries the replaceable fields of an Expense. Nil fields are left unchanged.
	Patch struct {
		Title    *string
		Amount   *Amount
		Date     *string
		Category *string
	}

	// Filter selects a subset of records. Zero value matches everything.
	Filter struct {
		Category string `json:"category"`
		Date     string `json:"date,omitempty"`
		Search   string `json:"search,omitempty"`
	}
)

var (
	ErrEmptyTitle    = errors.New("empty title")
	ErrTitleTooLong  = errors.New("title too long (max 200 characters)")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// Categories returns the fixed category set in display order.
func Categories() []string {
	return []string{
		CategoryFood,
		CategoryTravel,
		CategoryBills,
		CategoryShopping,
		CategoryEntertainment,
		CategoryOthers,
	}
}

// IsKnownCategory reports whether c belongs to the fixed set.
func IsKnownCategory(c string) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// NormalizeCategory maps unknown categories to Others.
func NormalizeCategory(c string) string {
	c = strings.TrimSpace(c)
	if IsKnownCategory(c) {
		return c
	}
	return CategoryOthers
}

// ParseDate parses an ISO-like calendar date. Full RFC 3339 timestamps are
// accepted and reduced to their calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// Validate checks a record before it crosses the service boundary.
// The store itself never calls it.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(e.Title) > maxTitleLength {
		return ErrTitleTooLong
	}
	if _, err := ParseAmount(string(e.Amount)); err != nil {
		return err
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// Apply returns a copy of e with the non-nil patch fields replaced.
func (p Patch) Apply(e Expense) Expense {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	return e
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Amount == nil && p.Date == nil && p.Category == nil
}

// Validate checks the fields the patch replaces.
func (p Patch) Validate() error {
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return ErrEmptyTitle
		}
		if utf8.RuneCountInString(*p.Title) > maxTitleLength {
			return ErrTitleTooLong
		}
	}
	if p.Amount != nil {
		if _, err := ParseAmount(string(*p.Amount)); err != nil {
			return err
		}
	}
	if p.Date != nil {
		if _, err := time.Parse(DateLayout, *p.Date); err != nil {
			return ErrInvalidDate
		}
	}
	return nil
}

// Matches reports whether e passes every predicate of the filter.
func (f Filter) Matches(e Expense) bool {
	if f.Category != "" && f.Category != CategoryAll && e.Category != f.Category {
		return false
	}
	if f.Date != "" && e.Date != f.Date {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// IsZero reports whether the filter selects every record.
func (f Filter) IsZero() bool {
	return (f.Category == "" || f.Category == CategoryAll) && f.Date == "" && f.Search == ""
}
