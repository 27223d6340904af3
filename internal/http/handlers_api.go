package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"spendlog/internal/core"
	"spendlog/internal/log"
	"spendlog/internal/services"
	"spendlog/internal/store"
)

// maxImportBytes bounds an import upload; saved lists are far smaller.
const maxImportBytes = 10 << 20

type expenseListResponse struct {
	Expenses      []core.Expense `json:"expenses"`
	Count         int            `json:"count"`
	FilteredTotal string         `json:"filteredTotal"`
	Filter        core.Filter    `json:"filter"`
}

// handleAPIListExpenses returns the filtered, sorted list.
func (s *Server) handleAPIListExpenses(w http.ResponseWriter, r *http.Request) {
	f := parseFilter(r.URL.Query())
	v := s.svc.Summary(f)

	items := v.Expenses
	if items == nil {
		items = []core.Expense{}
	}
	writeJSON(w, r, http.StatusOK, expenseListResponse{
		Expenses:      items,
		Count:         len(items),
		FilteredTotal: v.FilteredTotal.String(),
		Filter:        f,
	})
}

func (s *Server) handleAPIGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.GetExpense(mux.Vars(r)["id"])
	if errors.Is(err, services.ErrNotFound) {
		writeJSONError(w, r, http.StatusNotFound, "expense not found")
		return
	}
	writeJSON(w, r, http.StatusOK, e)
}

// handleAPIStats returns the aggregates in the shape the charts consume.
func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, newStatsResponse(s.svc.Stats()))
}

type importResponse struct {
	Imported int  `json:"imported"`
	Saved    bool `json:"saved"`
}

// handleAPIImport appends a saved JSON array of expenses to the running
// store. Records whose id is already present are skipped.
func (s *Server) handleAPIImport(w http.ResponseWriter, r *http.Request) {
	var records []core.Expense
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err := dec.Decode(&records); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "body must be a JSON array of expenses")
		return
	}

	n, err := s.svc.ImportExpenses(r.Context(), records)
	if err != nil && !errors.Is(err, store.ErrPersist) {
		log.LogError(r.Context(), "Import failed", err, log.OpImport)
		writeJSONError(w, r, http.StatusInternalServerError, "import failed")
		return
	}
	writeJSON(w, r, http.StatusOK, importResponse{Imported: n, Saved: err == nil})
}
