package employee

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	shiftRangeRegex = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*-\s*(\d{1,2}):(\d{2})`)
	shiftHoursRegex = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// ParseShiftHours extracts a shift length in hours from free text such as
// "10 hrs", "8.5h" or "09:00-18:00". ok is false when the text carries no number.
func ParseShiftHours(text string) (hours float64, ok bool, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false, nil
	}

	if m := shiftRangeRegex.FindStringSubmatch(text); m != nil {
		start, err1 := clockMinutes(m[1], m[2])
		end, err2 := clockMinutes(m[3], m[4])
		if err1 != nil || err2 != nil {
			return 0, false, ErrInvalidShiftText
		}
		minutes := end - start
		if minutes < 0 {
			minutes += 24 * 60
		}
		if minutes == 0 {
			return 0, false, ErrInvalidShiftText
		}
		return float64(minutes) / 60, true, nil
	}

	token := shiftHoursRegex.FindString(text)
	if token == "" {
		return 0, false, nil
	}
	hours, err = strconv.ParseFloat(token, 64)
	if err != nil || hours <= 0 || hours > 24 {
		return 0, false, ErrInvalidShiftText
	}
	return hours, true, nil
}

func clockMinutes(h, m string) (int, error) {
	t, err := time.Parse("15:04", h+":"+m)
	if err != nil {
		// single digit hours
		t, err = time.Parse("3:04", h+":"+m)
		if err != nil {
			return 0, err
		}
	}
	return t.Hour()*60 + t.Minute(), nil
}
