package service

import (
	"math"

	"skillswap/model"
)

// Overlap subjects shared between the requester and a candidate
type Overlap struct {
	TheyTeach []string `json:"they_teach"` // candidate teaches, requester wants to learn
	TheyLearn []string `json:"they_learn"` // candidate wants to learn, requester teaches
}

// Compatibility score of a candidate from the requester's perspective
type Compatibility struct {
	Score      float64 `json:"score"`
	TeachMatch float64 `json:"teach_match"`
	LearnMatch float64 `json:"learn_match"`
	Overlap    Overlap `json:"overlap"`
}

// CosineSimilarity of two equally sized vectors. A zero vector scores 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// float rounding can leave 1.0000000000000002
	return math.Max(0, math.Min(1, sim))
}

// Score compatibility of b for requester a, over a vocabulary built from both users
func Score(a, b *model.UserProfile) Compatibility {
	vocab := NewVocabulary(a.TeachSubjects, a.LearnSubjects, b.TeachSubjects, b.LearnSubjects)
	return ScoreWith(vocab, a, b)
}

// ScoreWith same as Score over a caller supplied vocabulary that covers both users.
// The result does not depend on the vocabulary order.
func ScoreWith(vocab *Vocabulary, a, b *model.UserProfile) Compatibility {
	teachMatch := CosineSimilarity(vocab.Vectorize(a.LearnSubjects), vocab.Vectorize(b.TeachSubjects))
	learnMatch := CosineSimilarity(vocab.Vectorize(a.TeachSubjects), vocab.Vectorize(b.LearnSubjects))

	return Compatibility{
		Score:      (teachMatch + learnMatch) / 2,
		TeachMatch: teachMatch,
		LearnMatch: learnMatch,
		Overlap: Overlap{
			TheyTeach: intersectSubjects(b.TeachSubjects, a.LearnSubjects),
			TheyLearn: intersectSubjects(b.LearnSubjects, a.TeachSubjects),
		},
	}
}

// intersectSubjects names from list that also appear in other, in list order, deduplicated
func intersectSubjects(list, other model.SubjectList) []string {
	wanted := make(map[string]struct{}, len(other))
	for _, skill := range other {
		if term := NormalizeSubject(skill.Subject); term != "" {
			wanted[term] = struct{}{}
		}
	}

	out := []string{}
	seen := make(map[string]struct{})
	for _, skill := range list {
		term := NormalizeSubject(skill.Subject)
		if _, ok := wanted[term]; !ok {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}
