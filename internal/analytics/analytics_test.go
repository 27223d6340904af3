package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlog/internal/core"
)

var now = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func sample() []core.Expense {
	return []core.Expense{
		{ID: "1", Title: "Coffee run", Amount: "4.50", Date: "2024-03-02", Category: core.CategoryFood},
		{ID: "2", Title: "Bus fare", Amount: "2", Date: "2024-03-10", Category: core.CategoryTravel},
		{ID: "3", Title: "Electricity", Amount: "60", Date: "2024-02-01", Category: core.CategoryBills},
		{ID: "4", Title: "Groceries", Amount: "35.25", Date: "2023-10-20", Category: core.CategoryFood},
		{ID: "5", Title: "Old flight", Amount: "300", Date: "2023-09-30", Category: core.CategoryTravel},
		{ID: "6", Title: "Mystery", Amount: "oops", Date: "2024-03-11", Category: "Pets"},
	}
}

func ids(list []core.Expense) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.ID
	}
	return out
}

func TestQuery_NoFilterSortsByDateDescending(t *testing.T) {
	got := Query(sample(), core.Filter{})

	require.Len(t, got, 6)
	assert.Equal(t, []string{"6", "2", "1", "3", "4", "5"}, ids(got))
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Date, got[i].Date)
	}
}

func TestQuery_CategoryIsSubsetOfUnfiltered(t *testing.T) {
	all := Query(sample(), core.Filter{})
	food := Query(sample(), core.Filter{Category: core.CategoryFood})

	assert.Equal(t, []string{"1", "4"}, ids(food))
	for _, e := range food {
		assert.Equal(t, core.CategoryFood, e.Category)
		assert.Contains(t, all, e)
	}
	assert.Len(t, Query(sample(), core.Filter{Category: core.CategoryAll}), 6)
}

func TestQuery_SearchIsCaseInsensitive(t *testing.T) {
	got := Query(sample(), core.Filter{Search: "coffee"})
	assert.Equal(t, []string{"1"}, ids(got))

	got = Query(sample(), core.Filter{Search: "BUS"})
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestQuery_DateAndCombinedFilters(t *testing.T) {
	assert.Equal(t, []string{"3"}, ids(Query(sample(), core.Filter{Date: "2024-02-01"})))
	assert.Empty(t, Query(sample(), core.Filter{Date: "2024-02-01", Category: core.CategoryFood}))
	assert.Equal(t, []string{"4"}, ids(Query(sample(), core.Filter{Category: core.CategoryFood, Search: "groc"})))
}

func TestQuery_UndatedRecordsSortLastAndInputUntouched(t *testing.T) {
	in := []core.Expense{
		{ID: "a", Date: "someday"},
		{ID: "b", Date: "2024-01-01"},
		{ID: "c", Date: "2024-01-01"},
		{ID: "d", Date: "2024-05-01"},
	}
	got := Query(in, core.Filter{})

	assert.Equal(t, []string{"d", "b", "c", "a"}, ids(got))
	assert.Equal(t, "a", in[0].ID)

	got[0].Title = "changed"
	assert.Empty(t, in[3].Title)
}

func TestStats_Empty(t *testing.T) {
	s := Stats(nil, now)

	assert.True(t, s.Total.IsZero())
	assert.True(t, s.MonthTotal.IsZero())
	assert.Equal(t, core.NoCategory, s.TopCategory)
	assert.Empty(t, s.CategoryTotals)
	require.Len(t, s.Trend, core.TrendMonths)
	for _, p := range s.Trend {
		assert.True(t, p.Total.IsZero(), p.Label)
	}
}

func TestStats_TwoRecordExample(t *testing.T) {
	records := []core.Expense{
		{Amount: "100", Date: "2024-01-05", Category: core.CategoryFood},
		{Amount: "50", Date: "2024-01-10", Category: core.CategoryTravel},
	}

	s := Stats(records, now)

	assert.Equal(t, "150", s.Total.String())
	assert.Equal(t, "100", s.CategoryTotal(core.CategoryFood).String())
	assert.Equal(t, "50", s.CategoryTotal(core.CategoryTravel).String())
	assert.Len(t, s.CategoryTotals, 2)
	assert.Equal(t, core.CategoryFood, s.TopCategory)
}

func TestStats_Sample(t *testing.T) {
	s := Stats(sample(), now)

	assert.Equal(t, "401.75", s.Total.String())
	assert.Equal(t, "6.5", s.MonthTotal.String())
	assert.Equal(t, core.CategoryTravel, s.TopCategory)

	names := make([]string, len(s.CategoryTotals))
	for i, ct := range s.CategoryTotals {
		names[i] = ct.Name
	}
	assert.Equal(t, []string{"Food", "Travel", "Bills", "Pets"}, names)
	assert.True(t, s.CategoryTotal("Pets").IsZero())

	labels := make([]string, len(s.Trend))
	totals := make([]string, len(s.Trend))
	for i, p := range s.Trend {
		labels[i] = p.Label
		totals[i] = p.Total.String()
	}
	assert.Equal(t, []string{"Oct", "Nov", "Dec", "Jan", "Feb", "Mar"}, labels)
	assert.Equal(t, []string{"35.25", "0", "0", "0", "60", "6.5"}, totals)
	assert.Equal(t, 2023, s.Trend[0].Year)
	assert.Equal(t, 2024, s.Trend[5].Year)
}

func TestStats_TopCategoryTieKeepsFirstSeen(t *testing.T) {
	records := []core.Expense{
		{Amount: "10", Category: core.CategoryShopping},
		{Amount: "10", Category: core.CategoryBills},
	}
	assert.Equal(t, core.CategoryShopping, Stats(records, now).TopCategory)
}

func TestStats_ZeroTotalsHaveNoTopCategory(t *testing.T) {
	records := []core.Expense{{Amount: "0", Category: core.CategoryFood}, {Amount: "x", Category: core.CategoryBills}}
	assert.Equal(t, core.NoCategory, Stats(records, now).TopCategory)
}

func TestStats_TrendCrossesYearBoundary(t *testing.T) {
	jan := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
	records := []core.Expense{
		{Amount: "5", Date: "2024-08-31"},
		{Amount: "7", Date: "2024-12-31"},
		{Amount: "11", Date: "2025-01-01"},
	}

	s := Stats(records, jan)

	require.Len(t, s.Trend, 6)
	assert.Equal(t, "Aug", s.Trend[0].Label)
	assert.Equal(t, "5", s.Trend[0].Total.String())
	assert.Equal(t, "Dec", s.Trend[4].Label)
	assert.Equal(t, "7", s.Trend[4].Total.String())
	assert.Equal(t, "11", s.Trend[5].Total.String())
	assert.Equal(t, "11", s.MonthTotal.String())
}

func TestSummarize(t *testing.T) {
	v := Summarize(sample(), core.Filter{Category: core.CategoryFood}, now)

	assert.Equal(t, []string{"1", "4"}, ids(v.Expenses))
	assert.Equal(t, "39.75", v.FilteredTotal.String())
	assert.Equal(t, "401.75", v.Stats.Total.String())
}
