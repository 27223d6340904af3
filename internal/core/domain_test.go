package core

import (
	"strings"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-01-05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"2024-12-31T23:30:00+02:00", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"05/01/2024", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for i, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok && (err != nil || !got.Equal(tc.want)) {
			t.Fatalf("case %d expected %v, got %v (err=%v)", i, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestNormalizeCategory(t *testing.T) {
	if got := NormalizeCategory("Food"); got != CategoryFood {
		t.Fatalf("expected Food, got %s", got)
	}
	if got := NormalizeCategory(" Travel "); got != CategoryTravel {
		t.Fatalf("expected Travel, got %s", got)
	}
	for _, in := range []string{"", "Groceries", "food"} {
		if got := NormalizeCategory(in); got != CategoryOthers {
			t.Fatalf("%q expected Others, got %s", in, got)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{Title: "ok", Amount: "10.50", Date: "2024-01-05", Category: CategoryFood}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	hindi := Expense{Title: strings.Repeat("क", 200), Amount: "1", Date: "2024-01-05"}
	if err := hindi.Validate(); err != nil {
		t.Fatalf("200 multibyte characters should pass, got %v", err)
	}
	long := strings.Repeat("क", 201)
	if err := (Patch{Title: &long}).Validate(); err != ErrTitleTooLong {
		t.Fatalf("expected ErrTitleTooLong for 201 characters, got %v", err)
	}

	bads := []Expense{
		{Title: "", Amount: "1", Date: "2024-01-05"},
		{Title: "   ", Amount: "1", Date: "2024-01-05"},
		{Title: strings.Repeat("a", 201), Amount: "1", Date: "2024-01-05"},
		{Title: "a", Amount: "abc", Date: "2024-01-05"},
		{Title: "a", Amount: "-3", Date: "2024-01-05"},
		{Title: "a", Amount: "1", Date: "2024-13-01"},
		{Title: "a", Amount: "1", Date: ""},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestPatchApplyReplacesOnlyGivenFields(t *testing.T) {
	orig := Expense{ID: "1", Title: "Coffee", Amount: "3", Date: "2024-01-05", Category: CategoryFood, CreatedAt: "t"}
	title := "Lunch"
	amount := Amount("12")

	got := Patch{Title: &title, Amount: &amount}.Apply(orig)

	want := Expense{ID: "1", Title: "Lunch", Amount: "12", Date: "2024-01-05", Category: CategoryFood, CreatedAt: "t"}
	if got != want {
		t.Fatalf("unexpected patch result: %+v", got)
	}
	if orig.Title != "Coffee" {
		t.Fatalf("apply must not modify its input")
	}
	if !(Patch{}).IsEmpty() || (Patch{Title: &title}).IsEmpty() {
		t.Fatalf("IsEmpty mismatch")
	}
}

func TestFilterMatches(t *testing.T) {
	e := Expense{Title: "Coffee run", Date: "2024-01-05", Category: CategoryFood}
	cases := []struct {
		f    Filter
		want bool
	}{
		{Filter{}, true},
		{Filter{Category: CategoryAll}, true},
		{Filter{Category: CategoryFood}, true},
		{Filter{Category: CategoryTravel}, false},
		{Filter{Date: "2024-01-05"}, true},
		{Filter{Date: "2024-01-06"}, false},
		{Filter{Search: "COFFEE"}, true},
		{Filter{Search: "bus"}, false},
		{Filter{Category: CategoryFood, Date: "2024-01-05", Search: "run"}, true},
	}
	for i, tc := range cases {
		if got := tc.f.Matches(e); got != tc.want {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, got)
		}
	}
}
