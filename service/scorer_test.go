package service

import (
	"math/rand"
	"testing"

	"skillswap/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profile(teach, learn model.SubjectList) *model.UserProfile {
	return &model.UserProfile{
		ID:              uuid.New(),
		TeachSubjects:   teach,
		LearnSubjects:   learn,
		Status:          model.UserStatusOnline,
		ProfileComplete: true,
	}
}

func TestNormalizeSubject(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Math", "math"},
		{"  Machine   Learning ", "machine learning"},
		{"GO\tLang", "go lang"},
		{"   ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSubject(tt.in), "input %q", tt.in)
	}
}

func TestVocabulary_Vectorize(t *testing.T) {
	vocab := NewVocabulary(
		model.SubjectList{{Subject: "Math", Level: 4}, {Subject: " ", Level: 3}},
		model.SubjectList{{Subject: "physics", Level: 2}, {Subject: "MATH", Level: 1}},
	)
	require.Equal(t, []string{"math", "physics"}, vocab.Terms())
	assert.Equal(t, 2, vocab.Len())
	assert.Equal(t, 1, vocab.Index("  Physics"))
	assert.Equal(t, -1, vocab.Index("chemistry"))

	vec := vocab.Vectorize(model.SubjectList{
		{Subject: "math", Level: 2},
		{Subject: "Math ", Level: 3}, // duplicate keeps the highest level
		{Subject: "chemistry", Level: 5},
		{Subject: "", Level: 5},
	})
	assert.Equal(t, []float64{3, 0}, vec)

	clamped := vocab.Vectorize(model.SubjectList{{Subject: "math", Level: 0}, {Subject: "physics", Level: 9}})
	assert.Equal(t, []float64{1, 5}, clamped)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{0, 2}, []float64{0, 5}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{3, 4}))
	assert.Equal(t, 0.0, CosineSimilarity([]float64{}, []float64{}))
	assert.Equal(t, 0.0, CosineSimilarity([]float64{1}, []float64{1, 2}))
	assert.LessOrEqual(t, CosineSimilarity([]float64{1, 1, 1}, []float64{1, 1, 1}), 1.0)
}

func TestScore_ComplementaryPair(t *testing.T) {
	a := profile(model.SubjectList{{Subject: "Math", Level: 4}}, model.SubjectList{{Subject: "Physics", Level: 2}})
	b := profile(model.SubjectList{{Subject: "Physics", Level: 5}}, model.SubjectList{{Subject: "Math", Level: 3}})

	c := Score(a, b)
	assert.InDelta(t, 1.0, c.TeachMatch, 1e-9)
	assert.InDelta(t, 1.0, c.LearnMatch, 1e-9)
	assert.InDelta(t, 1.0, c.Score, 1e-9)
	assert.Equal(t, []string{"physics"}, c.Overlap.TheyTeach)
	assert.Equal(t, []string{"math"}, c.Overlap.TheyLearn)
}

func TestScore_EmptyListsScoreZero(t *testing.T) {
	a := profile(model.SubjectList{{Subject: "Math", Level: 5}}, nil)
	b := profile(nil, nil)

	c := Score(a, b)
	assert.Equal(t, 0.0, c.TeachMatch)
	assert.Equal(t, 0.0, c.LearnMatch)
	assert.Equal(t, 0.0, c.Score)
	assert.Empty(t, c.Overlap.TheyTeach)
	assert.Empty(t, c.Overlap.TheyLearn)

	assert.Empty(t, Rank(a, []model.UserProfile{*b}))
}

func TestScore_NoSharedSubjectsMeansNoTeachMatch(t *testing.T) {
	a := profile(model.SubjectList{{Subject: "Go", Level: 3}}, model.SubjectList{{Subject: "Piano", Level: 2}})
	b := profile(model.SubjectList{{Subject: "Guitar", Level: 4}}, model.SubjectList{{Subject: "Rust", Level: 1}})

	c := Score(a, b)
	assert.Equal(t, 0.0, c.TeachMatch)
	assert.Equal(t, 0.0, c.LearnMatch)
}

func TestScore_CyclicChainIsAsymmetric(t *testing.T) {
	a := profile(model.SubjectList{{Subject: "X", Level: 3}}, model.SubjectList{{Subject: "Z", Level: 3}})
	b := profile(model.SubjectList{{Subject: "Y", Level: 3}}, model.SubjectList{{Subject: "X", Level: 3}})
	c := profile(model.SubjectList{{Subject: "Z", Level: 3}}, model.SubjectList{{Subject: "Y", Level: 3}})

	ab := Score(a, b)
	assert.Greater(t, ab.Score, 0.0)
	assert.Equal(t, 1.0, ab.LearnMatch) // A teaches what B learns
	assert.Equal(t, 0.0, ab.TeachMatch) // B does not teach what A learns

	ba := Score(b, a)
	assert.Equal(t, 1.0, ba.TeachMatch)
	assert.Equal(t, 0.0, ba.LearnMatch)
	assert.NotEqual(t, ab.TeachMatch, ba.TeachMatch)

	bc := Score(b, c)
	assert.Greater(t, bc.Score, 0.0)
	assert.Equal(t, 1.0, bc.LearnMatch)

	ca := Score(c, a)
	assert.Greater(t, ca.Score, 0.0)
	assert.Equal(t, 1.0, ca.LearnMatch)
}

func TestScoreWith_VocabularyOrderDoesNotMatter(t *testing.T) {
	a := profile(
		model.SubjectList{{Subject: "Math", Level: 4}, {Subject: "Art", Level: 2}},
		model.SubjectList{{Subject: "Physics", Level: 2}, {Subject: "Chess", Level: 5}},
	)
	b := profile(
		model.SubjectList{{Subject: "Physics", Level: 5}, {Subject: "Chess", Level: 1}},
		model.SubjectList{{Subject: "Math", Level: 3}, {Subject: "Music", Level: 4}},
	)

	forward := ScoreWith(NewVocabulary(a.TeachSubjects, a.LearnSubjects, b.TeachSubjects, b.LearnSubjects), a, b)
	backward := ScoreWith(NewVocabulary(b.LearnSubjects, b.TeachSubjects, a.LearnSubjects, a.TeachSubjects), a, b)
	assert.InDelta(t, forward.Score, backward.Score, 1e-12)
	assert.InDelta(t, forward.Score, Score(a, b).Score, 1e-12)
}

func TestScore_RangeProperty(t *testing.T) {
	subjects := []string{"math", "physics", "go", "piano", "chess", "art", "Math ", " GO"}
	rng := rand.New(rand.NewSource(42))
	randomList := func() model.SubjectList {
		n := rng.Intn(5)
		list := make(model.SubjectList, 0, n)
		for i := 0; i < n; i++ {
			list = append(list, model.SubjectSkill{Subject: subjects[rng.Intn(len(subjects))], Level: rng.Intn(8) - 1})
		}
		return list
	}

	for i := 0; i < 500; i++ {
		a := profile(randomList(), randomList())
		b := profile(randomList(), randomList())
		c := Score(a, b)
		require.GreaterOrEqual(t, c.Score, 0.0)
		require.LessOrEqual(t, c.Score, 1.0)
		require.InDelta(t, (c.TeachMatch+c.LearnMatch)/2, c.Score, 1e-12)
	}
}
