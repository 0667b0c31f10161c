package alerts

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"feedback-backend/internal/models"
)

// MaxMessageLength is the longest body an SMS provider accepts (10 segments)
const MaxMessageLength = 1600

func FormatSubject(fb *models.Feedback) string {
	if loc := fb.DisplayLocation(); loc != "" {
		return fmt.Sprintf("Negative %s feedback: %s", strings.ToLower(string(fb.Source)), loc)
	}
	return fmt.Sprintf("Negative %s feedback", strings.ToLower(string(fb.Source)))
}

// FormatMessage renders a human readable summary of fb of at most
// MaxMessageLength characters
func FormatMessage(fb *models.Feedback) string {
	var b strings.Builder
	b.WriteString("NEGATIVE FEEDBACK ALERT\n")
	fmt.Fprintf(&b, "Source: %s\n", fb.Source)

	if fb.Severity != "" {
		fmt.Fprintf(&b, "Severity: %s\n", fb.Severity)
	}
	if fb.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", fb.Category)
	}
	if r := fb.PrimaryRating(); r != nil {
		fmt.Fprintf(&b, "Rating: %d/5\n", *r)
	}
	if loc := fb.DisplayLocation(); loc != "" {
		fmt.Fprintf(&b, "Location: %s\n", loc)
	}
	if fb.FeedbackArea != "" && fb.FeedbackArea != fb.ContextLoc {
		fmt.Fprintf(&b, "Area: %s\n", fb.FeedbackArea)
	}
	if fb.ContextGuestName != "" {
		fmt.Fprintf(&b, "Guest: %s\n", fb.ContextGuestName)
	}
	if !fb.Timestamp.IsZero() {
		fmt.Fprintf(&b, "Received: %s\n", fb.Timestamp.UTC().Format(time.RFC3339))
	}
	if comment := fb.PrimaryComment(); comment != "" {
		fmt.Fprintf(&b, "Comment: %s\n", comment)
	}

	return truncate(strings.TrimRight(b.String(), "\n"), MaxMessageLength)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
