package retention

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"retentionflow-backend/models"
)

func TestRuleTable(t *testing.T) {
	rules := NewRuleTable([]models.ServiceRule{
		{ServiceType: "Color", IntervalDays: 42},
		{ServiceType: "Haircut", IntervalDays: 30},
	})

	days, ok := rules.Interval("Color")
	assert.True(t, ok)
	assert.Equal(t, 42, days)

	_, ok = rules.Interval("Perm")
	assert.False(t, ok)
	assert.Equal(t, FallbackExpectedInterval, rules.ExpectedInterval("Perm"))
	assert.Equal(t, 30, rules.ExpectedInterval("Haircut"))
}

func TestNextDueForAbsentInputs(t *testing.T) {
	rules := RuleTable{"Haircut": 30}
	last := date("2025-01-01")

	assert.Nil(t, rules.NextDueFor("Haircut", nil))
	assert.Nil(t, rules.NextDueFor("Perm", &last))
}

func TestValidateInterval(t *testing.T) {
	assert.NoError(t, ValidateInterval(1))
	assert.NoError(t, ValidateInterval(365))
	assert.Error(t, ValidateInterval(0))
	assert.Error(t, ValidateInterval(-4))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusNone, models.FollowupPending))
	assert.True(t, CanTransition(StatusNone, models.FollowupSent))
	assert.True(t, CanTransition(models.FollowupPending, models.FollowupOverdue))
	assert.True(t, CanTransition(models.FollowupPending, models.FollowupSent))
	assert.True(t, CanTransition(models.FollowupOverdue, models.FollowupSent))

	assert.False(t, CanTransition(StatusNone, models.FollowupOverdue))
	assert.False(t, CanTransition(models.FollowupOverdue, models.FollowupPending))
	assert.False(t, CanTransition(models.FollowupSent, models.FollowupPending))
	assert.False(t, CanTransition(models.FollowupSent, models.FollowupOverdue))
}
