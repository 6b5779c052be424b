package automation

import (
	"fmt"
	"math"
	"time"
)

// VT_DATE values are serials: whole days since 1899-12-30 plus the time of
// day as a fraction. For negative serials the fraction still counts forward
// from midnight, so -1.25 is 1899-12-29 06:00.
//
// Conversions go through a calendar breakdown in a caller-supplied location
// (time.Local by default), so results depend on the local timezone rules,
// including DST gaps. That matches how Automation providers store dates:
// as local wall-clock time with no zone attached.

const (
	msPerDay = 24 * 60 * 60 * 1000

	minDateSerial = -657434.0 // 0100-01-01
	maxDateSerial = 2958466.0 // 10000-01-01, exclusive
)

var oleEpochDays = daysFromCivil(1899, 12, 30)

// SystemTime is the calendar breakdown of a date serial.
type SystemTime struct {
	Year        int
	Month       int
	Day         int
	Hour        int
	Minute      int
	Second      int
	Millisecond int
}

// SerialToSystemTime splits a date serial into its calendar fields,
// rounding to the nearest millisecond.
func SerialToSystemTime(serial float64) (SystemTime, error) {
	if math.IsNaN(serial) || serial <= minDateSerial-1 || serial >= maxDateSerial {
		return SystemTime{}, fmt.Errorf("%w: serial %v", ErrInvalidDate, serial)
	}
	days := math.Trunc(serial)
	ms := int64(math.Round(math.Abs(serial-days) * msPerDay))
	civil := oleEpochDays + int64(days)
	if ms >= msPerDay {
		ms -= msPerDay
		civil++
	}
	y, m, d := civilFromDays(civil)
	st := SystemTime{
		Year:        y,
		Month:       m,
		Day:         d,
		Hour:        int(ms / 3600000),
		Minute:      int(ms / 60000 % 60),
		Second:      int(ms / 1000 % 60),
		Millisecond: int(ms % 1000),
	}
	if st.Year < 100 || st.Year > 9999 {
		return SystemTime{}, fmt.Errorf("%w: year %d", ErrInvalidDate, st.Year)
	}
	return st, nil
}

// SystemTimeToSerial is the inverse of SerialToSystemTime.
func SystemTimeToSerial(st SystemTime) (float64, error) {
	if st.Year < 100 || st.Year > 9999 ||
		st.Month < 1 || st.Month > 12 ||
		st.Day < 1 || st.Day > daysIn(st.Year, st.Month) ||
		st.Hour < 0 || st.Hour > 23 ||
		st.Minute < 0 || st.Minute > 59 ||
		st.Second < 0 || st.Second > 59 ||
		st.Millisecond < 0 || st.Millisecond > 999 {
		return 0, fmt.Errorf("%w: %+v", ErrInvalidDate, st)
	}
	days := daysFromCivil(st.Year, st.Month, st.Day) - oleEpochDays
	ms := ((st.Hour*60+st.Minute)*60+st.Second)*1000 + st.Millisecond
	frac := float64(ms) / msPerDay
	if days < 0 {
		return float64(days) - frac, nil
	}
	return float64(days) + frac, nil
}

// TimeFromSerial converts a date serial to an instant, reading the calendar
// fields as wall-clock time in loc (time.Local when nil).
func TimeFromSerial(serial float64, loc *time.Location) (time.Time, error) {
	st, err := SerialToSystemTime(serial)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Date(st.Year, time.Month(st.Month), st.Day,
		st.Hour, st.Minute, st.Second, st.Millisecond*int(time.Millisecond), loc), nil
}

// SerialFromTime converts an instant to a date serial using its wall-clock
// fields in loc (time.Local when nil). Sub-millisecond precision is dropped.
func SerialFromTime(t time.Time, loc *time.Location) (float64, error) {
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	return SystemTimeToSerial(SystemTime{
		Year:        lt.Year(),
		Month:       int(lt.Month()),
		Day:         lt.Day(),
		Hour:        lt.Hour(),
		Minute:      lt.Minute(),
		Second:      lt.Second(),
		Millisecond: lt.Nanosecond() / int(time.Millisecond),
	})
}

// daysFromCivil returns the proleptic Gregorian day number of y-m-d
// relative to 1970-01-01.
func daysFromCivil(y, m, d int) int64 {
	if m <= 2 {
		y--
	}
	era := floorDiv(int64(y), 400)
	yoe := int64(y) - era*400
	mp := int64((m + 9) % 12)
	doy := (153*mp+2)/5 + int64(d) - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

func civilFromDays(z int64) (y, m, d int) {
	z += 719468
	era := floorDiv(z, 146097)
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d = int(doy - (153*mp+2)/5 + 1)
	m = int((mp+2)%12 + 1)
	y = int(yoe + era*400)
	if m <= 2 {
		y++
	}
	return y, m, d
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func daysIn(y, m int) int {
	switch m {
	case 2:
		if y%4 == 0 && (y%100 != 0 || y%400 == 0) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	}
	return 31
}
