package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"spendlog/internal/core"
)

type yearMonth struct {
	year  int
	month time.Month
}

// Stats summarizes every record relative to now: grand total, total for
// now's calendar month, per-category totals in first-seen order, the top
// category and a six-month trend ending at now's month.
//
// Unparseable amounts count as zero; records with unparseable dates count
// towards Total and their category but never towards a month.
func Stats(records []core.Expense, now time.Time) core.Stats {
	total := decimal.Zero
	byMonth := make(map[yearMonth]decimal.Decimal)
	byCategory := make(map[string]int)
	categories := []core.CategoryTotal{}

	for _, e := range records {
		amount := e.Amount.Decimal()
		total = total.Add(amount)

		i, ok := byCategory[e.Category]
		if !ok {
			i = len(categories)
			byCategory[e.Category] = i
			categories = append(categories, core.CategoryTotal{Name: e.Category, Amount: decimal.Zero})
		}
		categories[i].Amount = categories[i].Amount.Add(amount)

		if d, err := core.ParseDate(e.Date); err == nil {
			key := yearMonth{d.Year(), d.Month()}
			byMonth[key] = byMonth[key].Add(amount)
		}
	}

	current := yearMonth{now.Year(), now.Month()}
	return core.Stats{
		Total:          total,
		MonthTotal:     byMonth[current],
		TopCategory:    topCategory(categories),
		CategoryTotals: categories,
		Trend:          trend(byMonth, now),
	}
}

// topCategory picks the strictly largest positive total; the first seen wins ties.
func topCategory(categories []core.CategoryTotal) string {
	top := core.NoCategory
	best := decimal.Zero
	for _, ct := range categories {
		if ct.Amount.GreaterThan(best) {
			best = ct.Amount
			top = ct.Name
		}
	}
	return top
}

func trend(byMonth map[yearMonth]decimal.Decimal, now time.Time) []core.TrendPoint {
	points := make([]core.TrendPoint, 0, core.TrendMonths)
	for i := core.TrendMonths - 1; i >= 0; i-- {
		first := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		key := yearMonth{first.Year(), first.Month()}
		points = append(points, core.TrendPoint{
			Label: first.Month().String()[:3],
			Year:  key.year,
			Month: key.month,
			Total: byMonth[key],
		})
	}
	return points
}

// View is a filtered list together with the global statistics.
type View struct {
	Expenses      []core.Expense
	FilteredTotal decimal.Decimal
	Stats         core.Stats
}

// Summarize runs Query and Stats over the same records. Stats ignore the
// filter; FilteredTotal sums only the listed records.
func Summarize(records []core.Expense, f core.Filter, now time.Time) View {
	list := Query(records, f)
	filtered := decimal.Zero
	for _, e := range list {
		filtered = filtered.Add(e.Amount.Decimal())
	}
	return View{
		Expenses:      list,
		FilteredTotal: filtered,
		Stats:         Stats(records, now),
	}
}
