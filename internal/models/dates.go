package models

import (
	"time"

	"gorm.io/datatypes"
)

// DateOf truncates t to its calendar day, kept as midnight UTC so that the
// day survives drivers that scan times back in UTC.
func DateOf(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func Today() datatypes.Date {
	return DateOf(time.Now())
}

func dayKey(d datatypes.Date) int {
	y, m, day := time.Time(d).UTC().Date()
	return y*10000 + int(m)*100 + day
}

// DateBefore compares two dates by calendar day only.
func DateBefore(a, b datatypes.Date) bool {
	return dayKey(a) < dayKey(b)
}

func DateAfter(a, b datatypes.Date) bool {
	return dayKey(a) > dayKey(b)
}
