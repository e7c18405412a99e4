// Package retention holds the due-date, classification and analytics rules
// for client rebooking. Everything here is pure: callers load the records
// and pass the rule table explicitly.
package retention

import (
	"time"

	"retentionflow-backend/utils"
)

// DefaultDueSoonWindow is the forward window, in days, used by Classify when
// no window is configured.
const DefaultDueSoonWindow = 7

// ComputeNextDue returns lastVisit plus intervalDays calendar days.
func ComputeNextDue(lastVisit time.Time, intervalDays int) time.Time {
	return utils.DateOnly(lastVisit).AddDate(0, 0, intervalDays)
}

// DaysUntilDue is the signed calendar-day offset of nextDue from today.
// Negative means overdue.
func DaysUntilDue(nextDue, today time.Time) int {
	return utils.DaysBetween(today, nextDue)
}

type Bucket string

const (
	BucketOverdue  Bucket = "overdue"
	BucketDueToday Bucket = "due_today"
	BucketDueSoon  Bucket = "due_soon"
	BucketNotDue   Bucket = "not_due"
)

// Classify buckets a day offset. A window below zero is treated as zero.
func Classify(daysUntilDue, window int) Bucket {
	if window < 0 {
		window = 0
	}
	switch {
	case daysUntilDue < 0:
		return BucketOverdue
	case daysUntilDue == 0:
		return BucketDueToday
	case daysUntilDue <= window:
		return BucketDueSoon
	default:
		return BucketNotDue
	}
}
