package retention

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"retentionflow-backend/models"
	"retentionflow-backend/utils"
)

// ReturnTolerance is the multiple of the expected interval within which a
// client still counts as returning.
const ReturnTolerance = 1.5

type RetentionStats struct {
	Returning   int     `json:"returning_clients"`
	Total       int     `json:"total_clients"`
	RatePercent float64 `json:"retention_rate"`
}

type ServiceStat struct {
	ServiceType  string  `json:"service_type"`
	Count        int     `json:"count"`
	AvgCycleDays float64 `json:"average_cycle_days"`
}

type StylistStat struct {
	Stylist      string  `json:"stylist"`
	Count        int     `json:"client_count"`
	AvgCycleDays float64 `json:"average_cycle_days"`
}

type MissedFollowup struct {
	ClientID    uuid.UUID `json:"client_id"`
	ClientName  string    `json:"client_name"`
	ServiceType string    `json:"service_type"`
	NextDue     time.Time `json:"next_due"`
	Stylist     *string   `json:"stylist"`
	DaysOverdue int       `json:"days_overdue"`
}

// cycle is one client's observed interval between last visit and next due.
type cycle struct {
	client models.Client
	days   int
}

func cycles(clients []models.Client) []cycle {
	return lo.FilterMap(clients, func(c models.Client, _ int) (cycle, bool) {
		if c.LastVisit == nil || c.NextDue == nil {
			return cycle{}, false
		}
		return cycle{client: c, days: utils.DaysBetween(*c.LastVisit, *c.NextDue)}, true
	})
}

// RetentionRate counts clients whose cycle is positive and within
// ReturnTolerance times the expected interval. Clients lacking either date
// are left out of both counts.
func RetentionRate(clients []models.Client, rules RuleTable) RetentionStats {
	valid := cycles(clients)
	returning := lo.CountBy(valid, func(cy cycle) bool {
		expected := float64(rules.ExpectedInterval(cy.client.ServiceType))
		return cy.days > 0 && float64(cy.days) <= ReturnTolerance*expected
	})

	stats := RetentionStats{Returning: returning, Total: len(valid)}
	if stats.Total > 0 {
		stats.RatePercent = round1(float64(returning) / float64(stats.Total) * 100)
	}
	return stats
}

// ServiceBreakdown averages cycle length per service category.
func ServiceBreakdown(clients []models.Client) []ServiceStat {
	groups := groupCycles(cycles(clients), func(cy cycle) (string, bool) {
		return cy.client.ServiceType, true
	})
	out := make([]ServiceStat, 0, len(groups))
	for _, g := range groups {
		out = append(out, ServiceStat{ServiceType: g.key, Count: g.count, AvgCycleDays: g.avg()})
	}
	return out
}

// StylistPerformance averages cycle length per assigned stylist. Clients
// without a stylist are skipped.
func StylistPerformance(clients []models.Client) []StylistStat {
	groups := groupCycles(cycles(clients), func(cy cycle) (string, bool) {
		name := cy.client.StylistName()
		return name, name != ""
	})
	out := make([]StylistStat, 0, len(groups))
	for _, g := range groups {
		out = append(out, StylistStat{Stylist: g.key, Count: g.count, AvgCycleDays: g.avg()})
	}
	return out
}

// MissedFollowups lists clients past their due date that never received a
// sent followup, most overdue first.
func MissedFollowups(clients []models.Client, followups []models.Followup, today time.Time) []MissedFollowup {
	reached := lo.Associate(
		lo.Filter(followups, func(f models.Followup, _ int) bool { return f.Status == models.FollowupSent }),
		func(f models.Followup) (uuid.UUID, struct{}) { return f.ClientID, struct{}{} },
	)

	missed := lo.FilterMap(clients, func(c models.Client, _ int) (MissedFollowup, bool) {
		if c.NextDue == nil {
			return MissedFollowup{}, false
		}
		overdue := utils.DaysBetween(*c.NextDue, today)
		if overdue <= 0 {
			return MissedFollowup{}, false
		}
		if _, ok := reached[c.ID]; ok {
			return MissedFollowup{}, false
		}
		return MissedFollowup{
			ClientID:    c.ID,
			ClientName:  c.Name,
			ServiceType: c.ServiceType,
			NextDue:     utils.DateOnly(*c.NextDue),
			Stylist:     c.Stylist,
			DaysOverdue: overdue,
		}, true
	})

	sort.SliceStable(missed, func(i, j int) bool {
		if missed[i].DaysOverdue != missed[j].DaysOverdue {
			return missed[i].DaysOverdue > missed[j].DaysOverdue
		}
		return missed[i].ClientName < missed[j].ClientName
	})
	return missed
}

type cycleGroup struct {
	key       string
	count     int
	totalDays int
}

func (g cycleGroup) avg() float64 {
	if g.count == 0 {
		return 0
	}
	return round1(float64(g.totalDays) / float64(g.count))
}

// groupCycles aggregates positive cycles by key, ordered by count descending
// and then by key.
func groupCycles(all []cycle, keyOf func(cycle) (string, bool)) []cycleGroup {
	byKey := map[string]*cycleGroup{}
	for _, cy := range all {
		if cy.days <= 0 {
			continue
		}
		key, ok := keyOf(cy)
		if !ok {
			continue
		}
		g, exists := byKey[key]
		if !exists {
			g = &cycleGroup{key: key}
			byKey[key] = g
		}
		g.count++
		g.totalDays += cy.days
	}

	groups := lo.Map(lo.Values(byKey), func(g *cycleGroup, _ int) cycleGroup { return *g })
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].key < groups[j].key
	})
	return groups
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
