package retention

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"retentionflow-backend/models"
)

// FallbackExpectedInterval is assumed for categories that have no rule when
// computing retention.
const FallbackExpectedInterval = 30

// RuleTable maps a service category to its return interval in days.
type RuleTable map[string]int

// NewRuleTable indexes rules by service type.
func NewRuleTable(rules []models.ServiceRule) RuleTable {
	return lo.Associate(rules, func(r models.ServiceRule) (string, int) {
		return r.ServiceType, r.IntervalDays
	})
}

func (t RuleTable) Interval(category string) (int, bool) {
	days, ok := t[category]
	return days, ok
}

// ExpectedInterval is the interval used by analytics. Unknown categories
// fall back to FallbackExpectedInterval.
func (t RuleTable) ExpectedInterval(category string) int {
	if days, ok := t[category]; ok && days >= 1 {
		return days
	}
	return FallbackExpectedInterval
}

// NextDueFor derives the next-due date of a client. It returns nil when
// lastVisit is absent or the category has no rule.
func (t RuleTable) NextDueFor(category string, lastVisit *time.Time) *time.Time {
	if lastVisit == nil {
		return nil
	}
	days, ok := t.Interval(category)
	if !ok {
		return nil
	}
	due := ComputeNextDue(*lastVisit, days)
	return &due
}

// ValidateInterval rejects intervals shorter than one day.
func ValidateInterval(days int) error {
	if days < 1 {
		return fmt.Errorf("interval must be at least 1 day, got %d", days)
	}
	return nil
}
