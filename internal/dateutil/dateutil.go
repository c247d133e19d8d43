package dateutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ISODate is the canonical calendar-date layout used across the pipeline.
const ISODate = "2006-01-02"

const (
	gregorianLayout = "02 Jan 2006"
	feedLayout      = "Mon, 02 Jan 2006 15:04:05 -0700"
)

// ErrUnparsable marks any date token the normalizer could not resolve.
// Callers treat the record's issue date as absent rather than guess.
var ErrUnparsable = errors.New("unparsable date")

var chineseMonths = map[string]time.Month{
	"一":  time.January,
	"二":  time.February,
	"三":  time.March,
	"四":  time.April,
	"五":  time.May,
	"六":  time.June,
	"七":  time.July,
	"八":  time.August,
	"九":  time.September,
	"十":  time.October,
	"十一": time.November,
	"十二": time.December,
}

// HKLocation resolves the Hong Kong timezone, falling back to a fixed
// UTC+8 zone when the tz database is not available.
func HKLocation() *time.Location {
	if loc, err := time.LoadLocation("Asia/Hong_Kong"); err == nil {
		return loc
	}
	return time.FixedZone("HKT", 8*60*60)
}

// NowHK returns the current time on the Hong Kong clock. Upstream sites
// publish against that calendar, so "today" means today in Hong Kong.
func NowHK() time.Time {
	return time.Now().In(HKLocation())
}

// ParseISO parses a canonical YYYY-MM-DD date in the Hong Kong timezone.
func ParseISO(value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(ISODate, strings.TrimSpace(value), HKLocation())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsable, value)
	}
	return parsed, nil
}

// ParseGregorian parses textual dates like "04 Jul 2025".
func ParseGregorian(value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(gregorianLayout, strings.TrimSpace(value), HKLocation())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsable, value)
	}
	return parsed, nil
}

// MonthNumber resolves a locale month token to a calendar month. The token
// may carry a trailing month ideograph and holds either an Arabic numeral
// (1-12) or one of the twelve canonical Chinese numerals.
func MonthNumber(token string) (time.Month, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(token), "月")
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty month token", ErrUnparsable)
	}

	if numeric, err := strconv.Atoi(trimmed); err == nil {
		if numeric < 1 || numeric > 12 {
			return 0, fmt.Errorf("%w: month %d out of range", ErrUnparsable, numeric)
		}
		return time.Month(numeric), nil
	}

	if month, ok := chineseMonths[trimmed]; ok {
		return month, nil
	}
	return 0, fmt.Errorf("%w: month token %q", ErrUnparsable, token)
}

// ParseSplitDate assembles a date from separate day, month and year tokens,
// as presented by card-style listing pages. Day and year must convert to
// integers and the assembled triple must be a real calendar date.
func ParseSplitDate(day, monthToken, year string) (time.Time, error) {
	dayNum, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: day %q", ErrUnparsable, day)
	}

	month, err := MonthNumber(monthToken)
	if err != nil {
		return time.Time{}, err
	}

	yearNum, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: year %q", ErrUnparsable, year)
	}

	// time.Date silently normalizes overflowing components, so check that
	// the assembled date still carries the requested day.
	assembled := time.Date(yearNum, month, dayNum, 0, 0, 0, 0, HKLocation())
	if assembled.Day() != dayNum || assembled.Month() != month || assembled.Year() != yearNum {
		return time.Time{}, fmt.Errorf("%w: %s-%d-%d is not a calendar date", ErrUnparsable, year, month, dayNum)
	}
	return assembled, nil
}

// ParseFeedTimestamp parses RFC-822-style feed timestamps such as
// "Thu, 26 Jun 2025 11:00:00 -0400". Only the calendar date matters
// downstream; the offset is not preserved past normalization.
func ParseFeedTimestamp(value string) (time.Time, error) {
	parsed, err := time.Parse(feedLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsable, value)
	}
	return parsed, nil
}

// FormatISO re-emits a timestamp as the canonical calendar date.
func FormatISO(value time.Time) string {
	return value.Format(ISODate)
}
