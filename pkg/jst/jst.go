// Package jst converts timestamps to Japan Standard Time at the presentation edge.
//
// Stored timestamps are UTC. Conversion happens once, when a value is rendered
// or bucketed into a calendar key. Japan has no daylight saving time, so a
// fixed +09:00 zone is exact.
package jst

import (
	"fmt"
	"time"
)

// Offset is the fixed distance between UTC and JST
const Offset = 9 * time.Hour

// Zone is the JST location
var Zone = time.FixedZone("JST", int(Offset/time.Second))

// ToJST returns the same instant expressed in JST. Applying it twice is a no-op.
func ToJST(t time.Time) time.Time {
	return t.In(Zone)
}

// Now returns the current instant in JST
func Now() time.Time {
	return time.Now().In(Zone)
}

// DateKey returns the JST calendar day of t
func DateKey(t time.Time) (year, month, day int) {
	y, m, d := ToJST(t).Date()
	return y, int(m), d
}

// MonthKey returns "YYYY-MM" for the JST month of t
func MonthKey(t time.Time) string {
	y, m, _ := DateKey(t)
	return FormatMonth(y, m)
}

func FormatMonth(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// ParseMonth parses "YYYY-MM"
func ParseMonth(s string) (year, month int, err error) {
	t, err := time.ParseInLocation("2006-01", s, Zone)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return t.Year(), int(t.Month()), nil
}

// StartOfDay returns JST midnight of the day containing t, as a UTC instant
func StartOfDay(t time.Time) time.Time {
	y, m, d := ToJST(t).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, Zone).UTC()
}

// ParseDate parses "YYYY-MM-DD" (or RFC3339) as a JST calendar day and returns its midnight in UTC
func ParseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, Zone); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return StartOfDay(t), nil
}

// FormatDate renders the JST calendar day of t as "YYYY-MM-DD"
func FormatDate(t time.Time) string {
	return ToJST(t).Format("2006-01-02")
}

// StampDefaults fills zero creation and update times with now
func StampDefaults(created, updated *time.Time, now time.Time) {
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil && updated.IsZero() {
		*updated = now
	}
}

// Time renders as RFC3339 in JST when marshalled to JSON
type Time struct {
	time.Time
}

// Wrap converts t for a response payload
func Wrap(t time.Time) Time {
	return Time{Time: t}
}

// WrapPtr is Wrap for optional timestamps
func WrapPtr(t *time.Time) *Time {
	if t == nil {
		return nil
	}
	w := Wrap(*t)
	return &w
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + ToJST(t.Time).Format(time.RFC3339) + `"`), nil
}

func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(`"`+time.RFC3339+`"`, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
