// Package tagger provides the part-of-speech tagging collaborator. A tagger
// turns one normalized paragraph into space separated "token_TAG" units.
package tagger

import (
	"context"
	"regexp"
	"strings"
)

// Tagger annotates every whitespace separated token of text with a part of
// speech tag, keeping the input order.
type Tagger interface {
	Tag(ctx context.Context, text string) (string, error)
}

// Separator joins a token and its tag.
const Separator = "_"

type rule struct {
	pattern *regexp.Regexp
	tag     string
}

// Ordered: the first matching rule wins.
var defaultRules = []rule{
	{regexp.MustCompile(`^(?i:my|your|his|her|its|our|their|mine|yours|hers|ours|theirs)$`), "PRP$"},
	{regexp.MustCompile(`^(?i:i|me|you|he|him|she|it|we|us|they|them|myself|yourself|himself|herself|itself|ourselves|yourselves|themselves)$`), "PRP"},
	{regexp.MustCompile(`^(?i:a|an|the|this|that|these|those|every|each|some|any|no)$`), "DT"},
	{regexp.MustCompile(`^(?i:and|or|but|nor|yet)$`), "CC"},
	{regexp.MustCompile(`^(?i:in|on|at|by|for|from|to|with|of|about|into|over|under|after|before|between|through|during|as|since|until|while|because|although|if)$`), "IN"},
	{regexp.MustCompile(`^(?i:can|could|will|would|shall|should|may|might|must)$`), "MD"},
	{regexp.MustCompile(`^(?i:who|whom|what|which|whose)$`), "WP"},
	{regexp.MustCompile(`^(?i:when|where|why|how)$`), "WRB"},
	{regexp.MustCompile(`^(?i:is|has|does)$`), "VBZ"},
	{regexp.MustCompile(`^(?i:am|are|have|do)$`), "VBP"},
	{regexp.MustCompile(`^(?i:was|were|had|did)$`), "VBD"},
	{regexp.MustCompile(`^(?i:be)$`), "VB"},
	{regexp.MustCompile(`^(?i:been)$`), "VBN"},
	{regexp.MustCompile(`^(?i:being)$`), "VBG"},
	{regexp.MustCompile(`^(?i:not|very|also|never|always|often|too)$`), "RB"},
	{regexp.MustCompile(`^[0-9]+$`), "CD"},
	{regexp.MustCompile(`^[A-Z][a-z]+$`), "NNP"},
	{regexp.MustCompile(`^(?i:[a-z]+ly)$`), "RB"},
	{regexp.MustCompile(`^(?i:[a-z]+ing)$`), "VBG"},
	{regexp.MustCompile(`^(?i:[a-z]+ed)$`), "VBD"},
	{regexp.MustCompile(`^(?i:[a-z]+(?:est))$`), "JJS"},
	{regexp.MustCompile(`^(?i:[a-z]+(?:ous|ful|ive|able|ible|al|ic))$`), "JJ"},
	{regexp.MustCompile(`^(?i:[a-z]+[^s]s)$`), "NNS"},
}

// Rules is a dependency free, regexp based tagger. It only knows closed word
// classes and suffix heuristics, which is enough to pick out pronouns.
type Rules struct {
	rules      []rule
	defaultTag string
}

// NewRules creates a rule tagger with the built-in rule set.
func NewRules() *Rules {
	return &Rules{rules: defaultRules, defaultTag: "NN"}
}

// Tag implements Tagger.
func (r *Rules) Tag(ctx context.Context, text string) (string, error) {
	tokens := strings.Fields(text)
	units := make([]string, 0, len(tokens))

	for i, token := range tokens {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return "", err
			}
		}
		units = append(units, token+Separator+r.tagFor(token))
	}

	return strings.Join(units, " "), nil
}

func (r *Rules) tagFor(token string) string {
	for _, rl := range r.rules {
		if rl.pattern.MatchString(token) {
			return rl.tag
		}
	}
	return r.defaultTag
}

// KeepSuffixes returns the units of a tagged string that end in any of the
// suffixes, in order.
func KeepSuffixes(tagged string, suffixes []string) []string {
	var kept []string
	for _, unit := range strings.Fields(tagged) {
		for _, suffix := range suffixes {
			if strings.HasSuffix(unit, suffix) {
				kept = append(kept, unit)
				break
			}
		}
	}
	return kept
}
