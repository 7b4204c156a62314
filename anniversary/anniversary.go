// Package anniversary holds the pure date logic: parsing and validating
// stored anniversary dates and deciding whether a record is due for its
// yearly announcement at a given instant.
package anniversary

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/powpow420-boom/HRTversaryBot/models"
)

// Anniversary date format used in the anniversary database.
const (
	DateFormat  = "DD/MM/YYYY"
	DateExample = "25/12/2020"
	dateLayout  = "02/01/2006"
)

// AnnounceHour is the local hour (24h clock) at which announcements fire.
// The checker ticks once an hour, so exactly one tick per local day lands
// on this hour.
const AnnounceHour = 9

var (
	ErrInvalidDate           = errors.New("invalid anniversary date")
	ErrUnresolvableTimezone  = errors.New("unresolvable timezone")
	ErrUnresolvableStartDate = errors.New("unresolvable start date")
)

var dateRe = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// ParseDate validates and parses a DD/MM/YYYY anniversary date. Both the
// textual shape (two-digit day and month, four-digit year) and calendar
// validity are checked, so 31/02/2020 is rejected while 29/02/2020 is not.
func ParseDate(s string) (time.Time, error) {
	if !dateRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q is not %v", ErrInvalidDate, s, DateFormat)
	}
	date, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, s, err)
	}
	return date, nil
}

// ValidateTimezone checks that the given name resolves to an IANA zone.
func ValidateTimezone(tz string) error {
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("%w: %q", ErrUnresolvableTimezone, tz)
	}
	return nil
}

// IsDue reports whether the record's announcement should fire now: the
// day and month of the local calendar date in the record's timezone match
// the stored day and month (year ignored) and the local hour is
// AnnounceHour. A 29/02 anniversary only matches in leap years; it is
// never carried to 28/02 or 01/03.
func IsDue(rec models.Anniversary, now time.Time) (bool, error) {
	loc, err := time.LoadLocation(rec.Timezone)
	if err != nil {
		return false, fmt.Errorf("%w: %q: %v", ErrUnresolvableTimezone, rec.Timezone, err)
	}

	date, err := ParseDate(rec.AnniversaryDate)
	if err != nil {
		return false, err
	}

	local := now.In(loc)
	if local.Day() != date.Day() || local.Month() != date.Month() {
		return false, nil
	}
	return local.Hour() == AnnounceHour, nil
}

// Years returns the number of whole calendar years between the record's
// origin year and the current year in the record's own timezone, so the
// count always agrees with the date the announcement matched on.
func Years(rec models.Anniversary, now time.Time) (int, error) {
	loc, err := time.LoadLocation(rec.Timezone)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrUnresolvableTimezone, rec.Timezone, err)
	}

	date, err := ParseDate(rec.AnniversaryDate)
	if err != nil {
		return 0, err
	}

	return now.In(loc).Year() - date.Year(), nil
}

// StartDate resolves the record's stored date to midnight in its own
// timezone, for display as an absolute instant.
func StartDate(rec models.Anniversary) (time.Time, error) {
	loc, err := time.LoadLocation(rec.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrUnresolvableStartDate, rec.Timezone, err)
	}

	date, err := ParseDate(rec.AnniversaryDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrUnresolvableStartDate, err)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc), nil
}
