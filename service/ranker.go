package service

import (
	"sort"

	"skillswap/model"
)

// Candidate status when the requester has no record toward it
const CandidateStatusNew = "new"

// RankedCandidate one entry of the ranked potential matches list
type RankedCandidate struct {
	User       model.UserSummary `json:"user"`
	Score      float64           `json:"score"`
	TeachMatch float64           `json:"teach_match"`
	LearnMatch float64           `json:"learn_match"`
	Overlap    Overlap           `json:"overlap"`
	Status     string            `json:"status"` // requester's record toward the candidate, or "new"
}

// Rank scores every candidate from the requester's perspective, keeps those with
// a positive score and sorts by score desc, lastActive desc, id asc.
func Rank(requester *model.UserProfile, pool []model.UserProfile) []RankedCandidate {
	vocab := NewVocabulary(requester.TeachSubjects, requester.LearnSubjects)
	for i := range pool {
		vocab.Add(pool[i].TeachSubjects, pool[i].LearnSubjects)
	}

	ranked := make([]RankedCandidate, 0, len(pool))
	for i := range pool {
		candidate := &pool[i]
		if candidate.ID == requester.ID {
			continue
		}
		c := ScoreWith(vocab, requester, candidate)
		if c.Score <= 0 {
			continue
		}
		ranked = append(ranked, RankedCandidate{
			User:       candidate.Summary(),
			Score:      c.Score,
			TeachMatch: c.TeachMatch,
			LearnMatch: c.LearnMatch,
			Overlap:    c.Overlap,
			Status:     CandidateStatusNew,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.User.LastActive.Equal(b.User.LastActive) {
			return a.User.LastActive.After(b.User.LastActive)
		}
		return a.User.ID.String() < b.User.ID.String()
	})
	return ranked
}
