package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// NoCategory is the top category reported when there is nothing to rank.
const NoCategory = "-"

// TrendMonths is the length of the trend series.
const TrendMonths = 6

// CategoryTotal is an amount aggregated by category name.
type CategoryTotal struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// TrendPoint is the total spent in one calendar month.
type TrendPoint struct {
	Label string          `json:"label"`
	Year  int             `json:"year"`
	Month time.Month      `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// Stats summarizes the full record set.
type Stats struct {
	Total          decimal.Decimal `json:"total"`
	MonthTotal     decimal.Decimal `json:"monthTotal"`
	TopCategory    string          `json:"topCategory"`
	CategoryTotals []CategoryTotal `json:"categoryTotals"`
	Trend          []TrendPoint    `json:"trend"`
}

// CategoryTotal returns the total for name, or zero when it does not appear.
func (s Stats) CategoryTotal(name string) decimal.Decimal {
	for _, ct := range s.CategoryTotals {
		if ct.Name == name {
			return ct.Amount
		}
	}
	return decimal.Zero
}
