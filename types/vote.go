package types

// Vote is a single for/against ballot cast by a user on a referendum.
type Vote struct {
	ID           int        `json:"id"`
	ReferendumID int        `json:"referendum_id"`
	UserID       int        `json:"user_id"`
	Value        bool       `json:"vote_value"`
	VotedAt      *Timestamp `json:"voted_at,omitempty"`
}

// VoteCreate is the payload for POST /votes/.
type VoteCreate struct {
	ReferendumID int  `json:"referendum_id"`
	Value        bool `json:"vote_value"`
}

// Tally counts for and against votes.
func Tally(votes []Vote) (votesFor, votesAgainst int) {
	for _, v := range votes {
		if v.Value {
			votesFor++
		} else {
			votesAgainst++
		}
	}
	return votesFor, votesAgainst
}

// HasVoted reports whether userID appears among votes.
func HasVoted(votes []Vote, userID int) bool {
	for _, v := range votes {
		if v.UserID == userID {
			return true
		}
	}
	return false
}
