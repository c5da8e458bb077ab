// Package diary provides durable, date-keyed storage for diary entries.
// Each calendar date owns at most one entry; writes fully overwrite the
// previous content and deletes are idempotent.
package diary

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
)

// Common errors for diary storage operations.
var (
	// ErrInvalidDate is returned when a date key is not a valid YYYY-MM-DD date.
	ErrInvalidDate = errors.New("invalid date: must be YYYY-MM-DD")
	// ErrInvalidMonth is returned when a month listing is requested outside 1..12.
	ErrInvalidMonth = errors.New("invalid year/month")
	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("diary store is closed")
)

// PreviewLength is the number of runes included in a day-cell preview.
const PreviewLength = 20

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidDate reports whether date is a well-formed, real calendar date.
func ValidDate(date string) bool {
	if !dateRe.MatchString(date) {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

// Store abstracts diary entry persistence.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save creates or fully overwrites the entry at date and returns a
	// backend-specific identifier for the stored entry (file path, key,
	// document path). Returns ErrInvalidDate before any mutation when the
	// date key is malformed.
	Save(ctx context.Context, date, content string) (string, error)

	// Get returns the stored content for date. The second return value is
	// false when no entry exists; empty content with true is a valid,
	// distinct state.
	Get(ctx context.Context, date string) (string, bool, error)

	// Delete hard-removes the entry at date. Deleting a missing entry is a
	// no-op.
	Delete(ctx context.Context, date string) error

	// ListMonth projects every calendar day of (year, month) into a day
	// cell with an existence flag and a content preview.
	ListMonth(ctx context.Context, year, month int) (*MonthProjection, error)

	// Close releases any resources held by the store.
	Close() error
}

// DayCell is one calendar day in a month projection.
type DayCell struct {
	Date     string `json:"date"`
	HasEntry bool   `json:"hasEntry"`
	Preview  string `json:"preview"`
}

// MonthProjection is a derived, never-persisted view of one month.
// Days always holds exactly daysIn(year, month) cells in calendar order.
type MonthProjection struct {
	Year  int       `json:"year"`
	Month int       `json:"month"`
	Days  []DayCell `json:"days"`
}

// Preview collapses all whitespace runs in content to single spaces and
// returns the first PreviewLength runes.
func Preview(content string) string {
	s := strings.Join(strings.Fields(content), " ")
	runes := []rune(s)
	if len(runes) > PreviewLength {
		runes = runes[:PreviewLength]
	}
	return string(runes)
}

// daysIn returns the number of calendar days in (year, month).
func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// monthDates returns every date key of (year, month) in calendar order.
func monthDates(year, month int) []string {
	n := daysIn(year, month)
	dates := make([]string, 0, n)
	for d := 1; d <= n; d++ {
		dates = append(dates, time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.UTC).Format("2006-01-02"))
	}
	return dates
}

// projectMonth builds a month projection by resolving each day through get.
// Shared by store implementations that read one entry at a time.
func projectMonth(ctx context.Context, year, month int, get func(ctx context.Context, date string) (string, bool, error)) (*MonthProjection, error) {
	if month < 1 || month > 12 || year < 1 {
		return nil, ErrInvalidMonth
	}

	dates := monthDates(year, month)
	days := make([]DayCell, 0, len(dates))
	for _, date := range dates {
		content, ok, err := get(ctx, date)
		if err != nil {
			return nil, err
		}
		cell := DayCell{Date: date}
		if ok {
			cell.HasEntry = true
			cell.Preview = Preview(content)
		}
		days = append(days, cell)
	}

	return &MonthProjection{Year: year, Month: month, Days: days}, nil
}
