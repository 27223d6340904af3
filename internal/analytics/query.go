// Package analytics derives views and statistics from the expense list.
// Every function is pure: it reads its input and never retains or mutates it.
package analytics

import (
	"sort"
	"time"

	"spendlog/internal/core"
)

// Query returns the records matching f, most recent date first. Records with
// an unparseable date sort after every dated record. Equal dates keep their
// relative input order.
func Query(records []core.Expense, f core.Filter) []core.Expense {
	type keyed struct {
		e     core.Expense
		date  time.Time
		dated bool
	}

	matched := make([]keyed, 0, len(records))
	for _, e := range records {
		if !f.Matches(e) {
			continue
		}
		d, err := core.ParseDate(e.Date)
		matched = append(matched, keyed{e: e, date: d, dated: err == nil})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.dated != b.dated {
			return a.dated
		}
		return a.date.After(b.date)
	})

	out := make([]core.Expense, len(matched))
	for i, k := range matched {
		out[i] = k.e
	}
	return out
}
