package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pizzastore/api/internal/apperr"
	"github.com/pizzastore/api/internal/service"
	"github.com/shopspring/decimal"
)

// maxBodyBytes caps request bodies; carts are small.
const maxBodyBytes = 1 << 20

// Catalog column widths (VARCHAR).
const (
	maxNameLen     = 100
	maxCategoryLen = 50
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// decodeJSON decodes the request body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apperr.Write(w, r, apperr.BadRequest("invalid request body"))
		return false
	}
	return true
}

// urlUUID parses a chi path parameter, writing a 400 naming what when it is
// not a UUID.
func urlUUID(w http.ResponseWriter, r *http.Request, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		apperr.Write(w, r, apperr.BadRequest("invalid "+what+" ID"))
		return uuid.Nil, false
	}
	return id, true
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// isDataException reports a value that does not fit its column: string too
// long (22001) or numeric out of range (22003).
func isDataException(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "22001" || pgErr.Code == "22003")
}

// checkLength returns a 400 when v has more than limit characters.
func checkLength(field, v string, limit int) *apperr.Error {
	if utf8.RuneCountInString(v) > limit {
		return apperr.BadRequest(field + " must be at most " + strconv.Itoa(limit) + " characters")
	}
	return nil
}

var (
	errNegativePrice = errors.New("negative price")
	errPriceTooLarge = errors.New("price too large")
)

// parsePrice accepts a JSON number or numeric string and returns it as a
// NUMERIC with 2 decimals.
func parsePrice(n json.Number) (pgtype.Numeric, error) {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return pgtype.Numeric{}, err
	}
	if d.IsNegative() {
		return pgtype.Numeric{}, errNegativePrice
	}
	if d.Round(2).GreaterThan(service.MaxPrice) {
		return pgtype.Numeric{}, errPriceTooLarge
	}
	var out pgtype.Numeric
	if err := out.Scan(d.StringFixed(2)); err != nil {
		return pgtype.Numeric{}, err
	}
	return out, nil
}

// priceError turns a parsePrice failure into a 400 for field.
func priceError(field string, err error) *apperr.Error {
	if errors.Is(err, errNegativePrice) {
		return apperr.BadRequest(field + " must be >= 0")
	}
	if errors.Is(err, errPriceTooLarge) {
		return apperr.BadRequest(field + " must be <= " + service.MaxPrice.StringFixed(2))
	}
	return apperr.BadRequest("invalid " + field)
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	s, ok := val.(string)
	if !ok {
		return "0.00"
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func toText(s *string) pgtype.Text {
	if s == nil || *s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

// optionalString tells an absent JSON field apart from an explicit null.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// merge returns the new column value: unchanged when absent, NULL when null
// or empty.
func (o optionalString) merge(current pgtype.Text) pgtype.Text {
	if !o.Set {
		return current
	}
	return toText(o.Value)
}
