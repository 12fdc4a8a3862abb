package service

import (
	"strings"

	"skillswap/model"
)

const (
	minSkillLevel = 1
	maxSkillLevel = 5
)

// NormalizeSubject lowercases, trims and collapses inner whitespace.
// Returns "" for blank names.
func NormalizeSubject(subject string) string {
	return strings.Join(strings.Fields(strings.ToLower(subject)), " ")
}

func clampLevel(level int) int {
	if level < minSkillLevel {
		return minSkillLevel
	}
	if level > maxSkillLevel {
		return maxSkillLevel
	}
	return level
}

// Vocabulary ordered set of normalized subject names shared by the vectors being compared
type Vocabulary struct {
	terms []string
	index map[string]int
}

// NewVocabulary builds the union of subject names in first-seen order
func NewVocabulary(lists ...model.SubjectList) *Vocabulary {
	v := &Vocabulary{index: make(map[string]int)}
	v.Add(lists...)
	return v
}

// Add appends subjects not yet in the vocabulary
func (v *Vocabulary) Add(lists ...model.SubjectList) {
	for _, list := range lists {
		for _, skill := range list {
			term := NormalizeSubject(skill.Subject)
			if term == "" {
				continue
			}
			if _, ok := v.index[term]; ok {
				continue
			}
			v.index[term] = len(v.terms)
			v.terms = append(v.terms, term)
		}
	}
}

func (v *Vocabulary) Len() int {
	return len(v.terms)
}

// Terms copy of the vocabulary in index order
func (v *Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// Index position of subject, -1 if absent
func (v *Vocabulary) Index(subject string) int {
	if i, ok := v.index[NormalizeSubject(subject)]; ok {
		return i
	}
	return -1
}

// Vectorize maps a subject list onto the vocabulary.
// Element i holds the level of term i (1..5) or 0. Blank and unknown subjects
// are dropped; a subject listed twice keeps its highest level.
func (v *Vocabulary) Vectorize(list model.SubjectList) []float64 {
	vec := make([]float64, len(v.terms))
	for _, skill := range list {
		i := v.Index(skill.Subject)
		if i < 0 {
			continue
		}
		level := float64(clampLevel(skill.Level))
		if level > vec[i] {
			vec[i] = level
		}
	}
	return vec
}
