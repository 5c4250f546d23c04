package calculator

import (
	"github.com/HorusGoul/trizum-sub001/internal/models"
)

// CalculateLogStatsBetweenTwoUsers computes the directional net flow between
// user and otherUser:
//
//	diff = Σ PaidFor[otherUser] where PaidBy == user
//	     - Σ PaidFor[user]      where PaidBy == otherUser
//
// Positive means otherUser owes user. Other participants of the same expense
// are ignored. A user compared with themself always yields zero.
func CalculateLogStatsBetweenTwoUsers(user, otherUser string, inputs []ExpenseInput) models.LogStats {
	if user == otherUser {
		return models.LogStats{}
	}

	var diff int64
	for _, in := range inputs {
		switch in.PaidBy {
		case user:
			diff += in.PaidFor[otherUser]
		case otherUser:
			diff -= in.PaidFor[user]
		}
	}
	return models.LogStats{DiffUnsplitted: diff}
}

// CalculateLogStatsOfUser aggregates the pairwise diffs of user against every
// other user. UserOwes and OwedToUser are always non-negative.
// Balance is left at zero; the balance aggregator fills it in.
func CalculateLogStatsOfUser(user string, otherUsers []string, inputs []ExpenseInput) models.UserStats {
	stats := models.UserStats{
		Diffs: make(map[string]models.LogStats, len(otherUsers)),
	}

	for _, other := range otherUsers {
		if other == user {
			continue
		}
		ls := CalculateLogStatsBetweenTwoUsers(user, other, inputs)
		stats.Diffs[other] = ls

		switch {
		case ls.DiffUnsplitted < 0:
			stats.UserOwes += -ls.DiffUnsplitted
		case ls.DiffUnsplitted > 0:
			stats.OwedToUser += ls.DiffUnsplitted
		}
	}

	return stats
}
