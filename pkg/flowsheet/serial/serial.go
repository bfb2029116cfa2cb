// Package serial converts spreadsheet serial day counts to calendar dates and back.
//
// The conversion is pure integer arithmetic on the proleptic Gregorian
// calendar; no time zone or wall clock is involved. The 1900 date system
// keeps the spreadsheet convention that serial 60 is the nonexistent
// 1900-02-29, so every serial in range maps to exactly one Date and back.
package serial

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// System identifies the workbook date system.
type System int

const (
	// System1900 counts from 1900-01-01 as serial 1 (the Windows default).
	System1900 System = iota
	// System1904 counts from 1904-01-01 as serial 0.
	System1904
)

// ErrOutOfRange is returned for serials or dates outside the supported range.
var ErrOutOfRange = errors.New("serial: date out of range")

// ErrInvalidDate is returned for calendar dates that do not exist.
var ErrInvalidDate = errors.New("serial: invalid calendar date")

const (
	// MaxSerial1900 is 9999-12-31 in the 1900 system.
	MaxSerial1900 = 2958465
	// MaxSerial1904 is 9999-12-31 in the 1904 system.
	MaxSerial1904 = 2957003

	phantomLeapDay = 60
)

var (
	days1899Dec30 = daysFromCivil(1899, 12, 30)
	days1900Jan01 = daysFromCivil(1900, 1, 1)
	days1900Mar01 = daysFromCivil(1900, 3, 1)
	days1904Jan01 = daysFromCivil(1904, 1, 1)
)

// Date is a calendar date without time of day.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// String returns the date as yyyy-mm-dd.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Valid reports whether the date exists in the Gregorian calendar.
func (d Date) Valid() bool {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return false
	}
	return d.Day <= daysIn(d.Year, d.Month)
}

// Format renders the date with a time layout such as "2006/01/02".
// The 1900 phantom leap day has no time.Time equivalent and renders as String.
func (d Date) Format(layout string) string {
	if !d.Valid() {
		return d.String()
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC).Format(layout)
}

// ToDate converts a 1900-system serial; see System.ToDate.
func ToDate(serial float64) (Date, error) {
	return System1900.ToDate(serial)
}

// FromDate converts a date to a 1900-system serial; see System.FromDate.
func FromDate(d Date) (float64, error) {
	return System1900.FromDate(d)
}

// ToDate converts a serial day count to its calendar date. The fractional
// part (time of day) is discarded.
func (s System) ToDate(serial float64) (Date, error) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return Date{}, fmt.Errorf("%w: %v", ErrOutOfRange, serial)
	}
	n := int64(math.Floor(serial))
	switch s {
	case System1904:
		if n < 0 || n > MaxSerial1904 {
			return Date{}, fmt.Errorf("%w: %v", ErrOutOfRange, serial)
		}
		return civilFromDays(days1904Jan01 + n), nil
	default:
		if n < 1 || n > MaxSerial1900 {
			return Date{}, fmt.Errorf("%w: %v", ErrOutOfRange, serial)
		}
		switch {
		case n == phantomLeapDay:
			return Date{Year: 1900, Month: 2, Day: 29}, nil
		case n < phantomLeapDay:
			return civilFromDays(days1900Jan01 + n - 1), nil
		default:
			return civilFromDays(days1899Dec30 + n), nil
		}
	}
}

// FromDate converts a calendar date to its serial day count. It is the
// exact inverse of ToDate for every date in range.
func (s System) FromDate(d Date) (float64, error) {
	if s == System1900 && d == (Date{Year: 1900, Month: 2, Day: 29}) {
		return phantomLeapDay, nil
	}
	if !d.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidDate, d)
	}
	days := daysFromCivil(int64(d.Year), int64(d.Month), int64(d.Day))
	var n int64
	switch s {
	case System1904:
		n = days - days1904Jan01
		if n < 0 || n > MaxSerial1904 {
			return 0, fmt.Errorf("%w: %s", ErrOutOfRange, d)
		}
	default:
		if days < days1900Mar01 {
			n = days - days1900Jan01 + 1
		} else {
			n = days - days1899Dec30
		}
		if n < 1 || n > MaxSerial1900 {
			return 0, fmt.Errorf("%w: %s", ErrOutOfRange, d)
		}
	}
	return float64(n), nil
}

// Format renders a serial with a time layout in the given date system.
func Format(serial float64, s System, layout string) (string, error) {
	d, err := s.ToDate(serial)
	if err != nil {
		return "", err
	}
	return d.Format(layout), nil
}

// ParseDate reads dates written as yyyy-mm-dd, yyyy/mm/dd or yyyy.mm.dd;
// month and day may omit the leading zero.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '/' || r == '.'
	})
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	var nums [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		nums[i] = v
	}
	d := Date{Year: nums[0], Month: nums[1], Day: nums[2]}
	if !d.Valid() {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

func daysIn(year, month int) int {
	switch month {
	case 2:
		if isLeap(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// daysFromCivil returns the number of days since 1970-01-01.
func daysFromCivil(y, m, d int64) int64 {
	if m <= 2 {
		y--
	}
	era := floorDiv(y, 400)
	yoe := y - era*400
	mp := (m + 9) % 12
	doy := (153*mp+2)/5 + d - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

func civilFromDays(z int64) Date {
	z += 719468
	era := floorDiv(z, 146097)
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	m := mp + 3
	if m > 12 {
		m -= 12
	}
	if m <= 2 {
		y++
	}
	return Date{Year: int(y), Month: int(m), Day: int(d)}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
