package log

import (
	"context"
	"log/slog"
	"net/http"
)

// Middleware puts a request-scoped HTTP logger into the request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	l := logger.WithComponent(ComponentHTTP)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), l)))
		})
	}
}

// LogHTTPEnd logs request completion at a level derived from the status.
func LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 500 {
		level = slog.LevelError
	} else if statusCode >= 400 {
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPResponse(r.Method, r.URL.Path, statusCode, durationMs).
		WithClientIP(clientIP)
	if r.URL.RawQuery != "" {
		fields[FieldQuery] = r.URL.RawQuery
	}

	FromContext(ctx).Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogExpenseChange logs a successful mutation of an expense.
func LogExpenseChange(ctx context.Context, op, id, title, amount, category, date string) {
	fields := NewFields().
		WithOperation(op).
		WithExpense(id, title, amount, category, date)
	FromContext(ctx).InfoContext(ctx, "Expense "+op+"d", fields.ToSlice()...)
}

// LogError logs err with the operation that produced it.
func LogError(ctx context.Context, msg string, err error, op string) {
	fields := NewFields().WithOperation(op).WithError(err)
	FromContext(ctx).ErrorContext(ctx, msg, fields.ToSlice()...)
}
