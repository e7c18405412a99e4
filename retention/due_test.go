package retention

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestComputeNextDue(t *testing.T) {
	assert.Equal(t, date("2025-01-31"), ComputeNextDue(date("2025-01-01"), 30))
	assert.Equal(t, date("2025-03-01"), ComputeNextDue(date("2025-01-30"), 30))
	assert.Equal(t, date("2024-03-01"), ComputeNextDue(date("2024-02-28"), 2))
}

func TestComputeNextDueRoundTrip(t *testing.T) {
	start := date("2024-01-01")
	for offset := 0; offset < 400; offset += 37 {
		last := start.AddDate(0, 0, offset)
		for _, interval := range []int{1, 7, 30, 42, 90, 365} {
			due := ComputeNextDue(last, interval)
			assert.Equal(t, interval, DaysUntilDue(due, last), "last=%s interval=%d", last, interval)
		}
	}
}

func TestDaysUntilDueIgnoresClockAndZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// The US switches to daylight time on 2025-03-09.
	today := time.Date(2025, 3, 8, 23, 30, 0, 0, ny)
	due := time.Date(2025, 3, 10, 0, 15, 0, 0, ny)
	assert.Equal(t, 2, DaysUntilDue(due, today))
	assert.Equal(t, -2, DaysUntilDue(today, due))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		days int
		want Bucket
	}{
		{-30, BucketOverdue},
		{-1, BucketOverdue},
		{0, BucketDueToday},
		{1, BucketDueSoon},
		{7, BucketDueSoon},
		{8, BucketNotDue},
		{120, BucketNotDue},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.days, DefaultDueSoonWindow), "days=%d", tc.days)
	}
}

func TestClassifyCustomWindow(t *testing.T) {
	assert.Equal(t, BucketDueSoon, Classify(14, 14))
	assert.Equal(t, BucketNotDue, Classify(1, 0))
	assert.Equal(t, BucketNotDue, Classify(1, -3))
}

func TestScenarioDueTodayThenOverdue(t *testing.T) {
	rules := RuleTable{"Haircut": 30}
	last := date("2025-01-01")

	due := rules.NextDueFor("Haircut", &last)
	if assert.NotNil(t, due) {
		assert.Equal(t, date("2025-01-31"), *due)
		assert.Equal(t, BucketDueToday, Classify(DaysUntilDue(*due, date("2025-01-31")), DefaultDueSoonWindow))
		assert.Equal(t, -5, DaysUntilDue(*due, date("2025-02-05")))
		assert.Equal(t, BucketOverdue, Classify(-5, DefaultDueSoonWindow))
	}
}
