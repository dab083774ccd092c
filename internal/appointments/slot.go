package appointments

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Slot-date keys are "D_M_Y" strings without leading zeros, e.g. "5_6_2024".
// Slot times are free-form strings ("10:00 AM") compared by exact match;
// no time normalization is performed anywhere.

// SlotDateKey formats a calendar date as a slot-date key.
func SlotDateKey(t time.Time) string {
	return fmt.Sprintf("%d_%d_%d", t.Day(), int(t.Month()), t.Year())
}

// ValidSlotDate reports whether key is a well-formed slot-date key. It
// rejects leading zeros so "05_6_2024" and "5_6_2024" cannot coexist as
// distinct keys for the same day.
func ValidSlotDate(key string) bool {
	parts := strings.Split(key, "_")
	if len(parts) != 3 {
		return false
	}
	day, ok := slotDatePart(parts[0])
	if !ok || day < 1 || day > 31 {
		return false
	}
	month, ok := slotDatePart(parts[1])
	if !ok || month < 1 || month > 12 {
		return false
	}
	year, ok := slotDatePart(parts[2])
	if !ok || year < 1970 || year > 9999 {
		return false
	}
	return true
}

func slotDatePart(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
