package http

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spendlog/internal/core"
)

var categoryIcons = map[string]string{
	core.CategoryFood:          "ri-restaurant-line",
	core.CategoryTravel:        "ri-car-line",
	core.CategoryBills:         "ri-home-wifi-line",
	core.CategoryShopping:      "ri-shopping-bag-3-line",
	core.CategoryEntertainment: "ri-movie-line",
	core.CategoryOthers:        "ri-grid-line",
}

var categoryColors = map[string]string{
	core.CategoryFood:          "#ef4444",
	core.CategoryTravel:        "#0ea5e9",
	core.CategoryBills:         "#d97706",
	core.CategoryShopping:      "#ec4899",
	core.CategoryEntertainment: "#6366f1",
	core.CategoryOthers:        "#6b7280",
}

// categoryIcon returns the icon class for c, falling back to Others.
func categoryIcon(c string) string {
	if icon, ok := categoryIcons[c]; ok {
		return icon
	}
	return categoryIcons[core.CategoryOthers]
}

func categoryColor(c string) string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return "#cbd5e1"
}

// formatINR renders d as rupees with Indian digit grouping, e.g. ₹1,23,456.50.
func formatINR(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.IsNegative() && !d.Round(2).IsZero() {
		b.WriteByte('-')
	}
	b.WriteString("₹")
	if len(intPart) > 3 {
		head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		// Leading group may be one or two digits, the rest are pairs.
		first := len(head) % 2
		if first == 0 {
			first = 2
		}
		b.WriteString(head[:first])
		for i := first; i < len(head); i += 2 {
			b.WriteByte(',')
			b.WriteString(head[i : i+2])
		}
		b.WriteByte(',')
		intPart = tail
	}
	b.WriteString(intPart)
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// formatDate renders a YYYY-MM-DD date as "Jan 5, 2024"; other input is
// returned unchanged.
func formatDate(s string) string {
	t, err := time.Parse(core.DateLayout, s)
	if err != nil {
		return s
	}
	return t.Format("Jan 2, 2006")
}

type expenseRow struct {
	ID        string
	Title     string
	Amount    string
	RawAmount string
	Date      string
	DateLabel string
	Category  string
	Icon      string
}

func newExpenseRow(e core.Expense) expenseRow {
	return expenseRow{
		ID:        e.ID,
		Title:     e.Title,
		Amount:    formatINR(e.Amount.Decimal()),
		RawAmount: string(e.Amount),
		Date:      e.Date,
		DateLabel: formatDate(e.Date),
		Category:  e.Category,
		Icon:      categoryIcon(e.Category),
	}
}

type summaryView struct {
	Total       string
	MonthTotal  string
	TopCategory string
	TopIcon     string
}

func newSummaryView(s core.Stats) summaryView {
	v := summaryView{
		Total:       formatINR(s.Total),
		MonthTotal:  formatINR(s.MonthTotal),
		TopCategory: s.TopCategory,
	}
	if s.TopCategory != core.NoCategory {
		v.TopIcon = categoryIcon(s.TopCategory)
	}
	return v
}

type listView struct {
	Rows          []expenseRow
	FilteredTotal string
	Filter        core.Filter
}

type chartSeries struct {
	Labels  []string  `json:"labels"`
	Amounts []float64 `json:"amounts"`
	Colors  []string  `json:"colors,omitempty"`
}

// statsResponse is the JSON shape the dashboard charts read.
type statsResponse struct {
	Total        string      `json:"total"`
	MonthTotal   string      `json:"monthTotal"`
	TopCategory  string      `json:"topCategory"`
	CategoryData chartSeries `json:"categoryData"`
	TrendData    chartSeries `json:"trendData"`
}

func newStatsResponse(s core.Stats) statsResponse {
	resp := statsResponse{
		Total:        s.Total.String(),
		MonthTotal:   s.MonthTotal.String(),
		TopCategory:  s.TopCategory,
		CategoryData: chartSeries{Labels: []string{}, Amounts: []float64{}, Colors: []string{}},
		TrendData:    chartSeries{Labels: []string{}, Amounts: []float64{}},
	}
	for _, ct := range s.CategoryTotals {
		resp.CategoryData.Labels = append(resp.CategoryData.Labels, ct.Name)
		resp.CategoryData.Amounts = append(resp.CategoryData.Amounts, ct.Amount.InexactFloat64())
		resp.CategoryData.Colors = append(resp.CategoryData.Colors, categoryColor(ct.Name))
	}
	for _, p := range s.Trend {
		resp.TrendData.Labels = append(resp.TrendData.Labels, p.Label)
		resp.TrendData.Amounts = append(resp.TrendData.Amounts, p.Total.InexactFloat64())
	}
	return resp
}
