// Package termmodel implements the term-count probability model used to
// train and compare distributions of tagged tokens.
package termmodel

import (
	"fmt"
	"sort"
	"strings"
)

// Uncomputed is the probability of a term whose probability has not been
// computed since it was first pushed.
const Uncomputed = -1.0

// Entry holds the count and the last computed probability of one term.
type Entry struct {
	Count       int64   `yaml:"count"`
	Probability float64 `yaml:"probability"`
}

func (e Entry) String() string {
	return fmt.Sprintf("{C: %d && P: %v}", e.Count, e.Probability)
}

// Term is a named entry, used when the model is listed in order.
type Term struct {
	Term string
	Entry
}

// Model maintains term counts and their probabilities.
//
// Model is not safe for concurrent mutation: all PushTerm calls against one
// instance must come from a single writer.
type Model struct {
	terms map[string]*Entry
	total int64 // sum of all counts
}

// New creates an empty model.
func New() *Model {
	return &Model{terms: make(map[string]*Entry)}
}

// Restore builds a model from persisted entries. The total must equal the
// sum of the counts and every count must be at least 1.
func Restore(total int64, entries map[string]Entry) (*Model, error) {
	m := New()
	var sum int64
	for term, e := range entries {
		if e.Count < 1 {
			return nil, fmt.Errorf("term %q has count %d", term, e.Count)
		}
		sum += e.Count
		entry := e
		m.terms[term] = &entry
	}
	if sum != total {
		return nil, fmt.Errorf("total term count %d does not match sum of counts %d", total, sum)
	}
	m.total = total
	return m, nil
}

// PushTerm adds one occurrence of term. New terms start with count 1 and an
// uncomputed probability. Probabilities of existing entries are left as they
// are until ComputeProbabilities runs again.
func (m *Model) PushTerm(term string) {
	if e, ok := m.terms[term]; ok {
		e.Count++
	} else {
		m.terms[term] = &Entry{Count: 1, Probability: Uncomputed}
	}
	m.total++
}

// ComputeProbabilities sets every probability to count / total. It does
// nothing on an empty model.
func (m *Model) ComputeProbabilities() {
	if m.total == 0 {
		return
	}
	total := float64(m.total)
	for _, e := range m.terms {
		e.Probability = float64(e.Count) / total
	}
}

// TermProbability returns the stored probability of term, Uncomputed if it
// was never computed, or 0 if the term is absent.
func (m *Model) TermProbability(term string) float64 {
	if e, ok := m.terms[term]; ok {
		return e.Probability
	}
	return 0
}

// TermCount returns the count of term, zero if it is absent.
func (m *Model) TermCount(term string) int64 {
	if e, ok := m.terms[term]; ok {
		return e.Count
	}
	return 0
}

// Vocabulary returns the set of known terms.
func (m *Model) Vocabulary() map[string]struct{} {
	vocab := make(map[string]struct{}, len(m.terms))
	for t := range m.terms {
		vocab[t] = struct{}{}
	}
	return vocab
}

// Contains reports whether term has been pushed.
func (m *Model) Contains(term string) bool {
	_, ok := m.terms[term]
	return ok
}

// ModelSize returns the number of distinct terms.
func (m *Model) ModelSize() int {
	return len(m.terms)
}

// TotalTermCount returns the number of pushes since creation or load.
func (m *Model) TotalTermCount() int64 {
	return m.total
}

// Classify scores how similar other is to this model.
//
// Starting from 1, every term of other multiplies the score by the product
// of both models' probabilities when this model knows the term, and by
// 1 / (vocabulary size + total term count) of this model otherwise. The
// result is a similarity score, not a normalized probability; it shrinks
// quickly and underflows to zero for large vocabularies.
func (m *Model) Classify(other *Model) float64 {
	score := 1.0
	for term, theirs := range other.terms {
		if ours, ok := m.terms[term]; ok {
			score *= ours.Probability * theirs.Probability
		} else {
			score *= 1.0 / float64(int64(len(m.terms))+m.total)
		}
	}
	return score
}

// Reset removes every term and zeroes the total.
func (m *Model) Reset() {
	m.terms = make(map[string]*Entry)
	m.total = 0
}

// Terms returns all entries sorted by term.
func (m *Model) Terms() []Term {
	out := make([]Term, 0, len(m.terms))
	for t, e := range m.terms {
		out = append(out, Term{Term: t, Entry: *e})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Term < out[j].Term
	})
	return out
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	c := New()
	for t, e := range m.terms {
		entry := *e
		c.terms[t] = &entry
	}
	c.total = m.total
	return c
}

// String lists every term as "term => {C: count && P: probability}", one
// per line, sorted by term.
func (m *Model) String() string {
	var sb strings.Builder
	for _, t := range m.Terms() {
		sb.WriteString(t.Term)
		sb.WriteString(" => ")
		sb.WriteString(t.Entry.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
