package http

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"spendlog/internal/core"
	"spendlog/internal/log"
	"spendlog/internal/services"
	"spendlog/internal/store"
)

type indexView struct {
	Categories []string
	Today      string
	Summary    summaryView
	List       listView
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r.URL.Query())
	v := s.svc.Summary(f)

	data := indexView{
		Categories: core.Categories(),
		Today:      s.clock.Now().Format(core.DateLayout),
		Summary:    newSummaryView(v.Stats),
		List:       newListView(v.Expenses, v.FilteredTotal, f),
	}
	s.render(w, r, "index.html", data)
}

// handleExpenseList renders the filtered list partial.
func (s *Server) handleExpenseList(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r.URL.Query())
	v := s.svc.Summary(f)
	s.render(w, r, "expense_list", newListView(v.Expenses, v.FilteredTotal, f))
}

// handleSummary renders the cards for total, this month and top category.
// They always cover every record, whatever the list filter.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "summary", newSummaryView(s.svc.Stats()))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	in, err := parseExpenseInput(r)
	if err != nil {
		s.writeBadBody(w, r, err)
		return
	}

	created, err := s.svc.CreateExpense(r.Context(), in.Expense())
	if !s.mutationSucceeded(w, r, err, log.OpCreate) {
		return
	}
	log.LogExpenseChange(r.Context(), log.OpCreate, created.ID, created.Title, string(created.Amount), created.Category, created.Date)

	if wantsJSON(r) {
		writeJSON(w, r, http.StatusCreated, created)
		return
	}
	b := NewHTMXResponse().
		TriggerExpenseChange(EventExpenseCreated, created.ID).
		TriggerFormReset()
	notify(b, err, "Expense added: "+created.Title)
	b.Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	in, err := parseExpenseInput(r)
	if err != nil {
		s.writeBadBody(w, r, err)
		return
	}

	updated, err := s.svc.UpdateExpense(r.Context(), id, in.Patch())
	if !s.mutationSucceeded(w, r, err, log.OpUpdate) {
		return
	}
	log.LogExpenseChange(r.Context(), log.OpUpdate, updated.ID, updated.Title, string(updated.Amount), updated.Category, updated.Date)

	if wantsJSON(r) {
		writeJSON(w, r, http.StatusOK, updated)
		return
	}
	b := NewHTMXResponse().
		TriggerExpenseChange(EventExpenseUpdated, updated.ID).
		TriggerFormReset()
	notify(b, err, "Expense updated: "+updated.Title)
	b.Write(w)
}

// handleDeleteExpense is idempotent: deleting an unknown id succeeds.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := s.svc.DeleteExpense(r.Context(), id)
	if !s.mutationSucceeded(w, r, err, log.OpDelete) {
		return
	}
	log.LogExpenseChange(r.Context(), log.OpDelete, id, "", "", "", "")

	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	b := NewHTMXResponse().TriggerExpenseChange(EventExpenseDeleted, id)
	notify(b, err, "Expense deleted")
	b.Write(w)
}

// mutationSucceeded writes the error response for err and reports false,
// unless err is nil or only a persistence warning.
func (s *Server) mutationSucceeded(w http.ResponseWriter, r *http.Request, err error, op string) bool {
	if err == nil || errors.Is(err, store.ErrPersist) {
		return true
	}

	var (
		status int
		msg    string
		page   func(string) *HTMXResponseBuilder
	)
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		status, msg, page = http.StatusUnprocessableEntity, validationMessage(err), UnprocessableEntityError
	case errors.Is(err, services.ErrNotFound):
		status, msg, page = http.StatusNotFound, "Expense not found", NotFoundError
	default:
		log.LogError(r.Context(), "Expense "+op+" failed", err, op)
		status, msg, page = http.StatusInternalServerError, "Something went wrong, please try again.", InternalServerError
	}

	if wantsJSON(r) {
		writeJSONError(w, r, status, msg)
		return false
	}
	page(msg).Write(w)
	return false
}

func (s *Server) writeBadBody(w http.ResponseWriter, r *http.Request, err error) {
	msg := "Invalid request body"
	if errors.Is(err, errBodyTooLarge) {
		msg = "Request body too large"
	}
	if wantsJSON(r) {
		writeJSONError(w, r, http.StatusBadRequest, msg)
		return
	}
	BadRequestError(msg).Write(w)
}

// notify adds the success notification, or a warning when the change
// could not be saved.
func notify(b *HTMXResponseBuilder, err error, success string) {
	if errors.Is(err, store.ErrPersist) {
		b.TriggerWarningNotification("Change applied but could not be saved")
		return
	}
	b.TriggerSuccessNotification(success)
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyTitle):
		return "Please enter a title"
	case errors.Is(err, core.ErrTitleTooLong):
		return "Title is too long"
	case errors.Is(err, core.ErrInvalidAmount):
		return "Please enter a valid amount"
	case errors.Is(err, core.ErrInvalidDate):
		return "Please enter a valid date"
	default:
		return "Invalid expense"
	}
}

// wantsJSON reports whether the client sent or asked for JSON. HTMX
// requests always get HTML.
func wantsJSON(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func newListView(items []core.Expense, total decimal.Decimal, f core.Filter) listView {
	v := listView{
		Rows:          make([]expenseRow, len(items)),
		FilteredTotal: formatINR(total),
		Filter:        f,
	}
	for i, e := range items {
		v.Rows[i] = newExpenseRow(e)
	}
	return v
}

// render executes a template into a buffer first so a failure never
// leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.LogError(r.Context(), "Template execution failed", err, log.OpRender)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
