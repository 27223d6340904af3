package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"spendlog/internal/core"
)

// maxBodyBytes bounds every request body the server reads.
const maxBodyBytes = 64 << 10

var errBodyTooLarge = errors.New("request body too large")

// RequestBodyParser reads a JSON object or a form-encoded body once and
// exposes its fields uniformly.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse decodes the body. Content starting with '{' is JSON, anything else
// is treated as a form.
func (p *RequestBodyParser) Parse() error {
	if p.err != nil {
		return p.err
	}
	trimmed := strings.TrimSpace(string(p.body))
	if strings.HasPrefix(trimmed, "{") {
		p.err = json.Unmarshal([]byte(trimmed), &p.jsonData)
		return p.err
	}
	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Has reports whether key was sent, even with an empty value.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		v, ok := p.jsonData[key]
		return ok && v != nil
	}
	_, ok := p.formData[key]
	return ok
}

// Get returns the sanitized value of key.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		return sanitizeInput(stringValue(p.jsonData[key]))
	}
	return sanitizeInput(p.formData.Get(key))
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

// expenseInput holds the fields a client sent; nil means absent.
type expenseInput struct {
	Title    *string
	Amount   *string
	Date     *string
	Category *string
}

func parseExpenseInput(r *http.Request) (expenseInput, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return expenseInput{}, err
	}

	var in expenseInput
	field := func(key string) *string {
		if !p.Has(key) {
			return nil
		}
		v := p.Get(key)
		return &v
	}
	in.Title = field("title")
	in.Amount = field("amount")
	in.Date = field("date")
	in.Category = field("category")
	return in, nil
}

// Expense returns the input as a new record; absent fields are empty.
func (in expenseInput) Expense() core.Expense {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	return core.Expense{
		Title:    deref(in.Title),
		Amount:   core.Amount(deref(in.Amount)),
		Date:     deref(in.Date),
		Category: deref(in.Category),
	}
}

// Patch returns the input as a partial update.
func (in expenseInput) Patch() core.Patch {
	p := core.Patch{Title: in.Title, Date: in.Date, Category: in.Category}
	if in.Amount != nil {
		a := core.Amount(*in.Amount)
		p.Amount = &a
	}
	return p
}

// parseFilter reads category, date and search from the query string.
// A date that is not YYYY-MM-DD is ignored.
func parseFilter(q url.Values) core.Filter {
	f := core.Filter{
		Category: sanitizeInput(q.Get("category")),
		Date:     sanitizeInput(q.Get("date")),
		Search:   sanitizeInput(q.Get("search")),
	}
	if f.Category == "" {
		f.Category = core.CategoryAll
	}
	if f.Date != "" {
		if _, err := core.ParseDate(f.Date); err != nil || len(f.Date) != len(core.DateLayout) {
			f.Date = ""
		}
	}
	return f
}

// sanitizeInput trims and drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
