package form

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the display format for dates chosen in the calendar.
const DateLayout = "January 2, 2006"

// InputLayout is the format dates are typed in.
const InputLayout = "2006-01-02"

// FormatDate renders a picked date for display. The zero time renders as
// "Pick a date".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "Pick a date"
	}
	return t.Format(DateLayout)
}

// ParseDate parses a typed date (YYYY-MM-DD).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(InputLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

// MaskPhone keeps the last four digits: "(•••) •••-4321".
func MaskPhone(phone string) string {
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) < 4 {
		return "(•••) •••-••••"
	}
	return "(•••) •••-" + string(digits[len(digits)-4:])
}

// MaskEmail keeps the first letter of the mailbox and the domain:
// "a•••@example.com".
func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "•••"
	}
	return email[:1] + "•••" + email[at:]
}

// MaskAccount keeps the last four characters of an account number.
func MaskAccount(acct string) string {
	if len(acct) <= 4 {
		return acct
	}
	return strings.Repeat("•", 4) + acct[len(acct)-4:]
}
