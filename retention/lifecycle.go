package retention

import "retentionflow-backend/models"

// StatusNone stands for a followup that does not exist yet.
const StatusNone models.FollowupStatus = ""

var transitions = map[models.FollowupStatus][]models.FollowupStatus{
	StatusNone:             {models.FollowupPending, models.FollowupSent},
	models.FollowupPending: {models.FollowupOverdue, models.FollowupSent},
	models.FollowupOverdue: {models.FollowupSent},
}

// CanTransition reports whether a followup may move from one status to
// another. Sent is terminal.
func CanTransition(from, to models.FollowupStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
