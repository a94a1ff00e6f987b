// Package synth implements the Text Synthesizer (spec §4.9): eight
// deterministic, byte-identical canned-text blocks per variant, each
// carrying reliability-weighted citations back to the Evidence that backs
// it. Citations are labelled with their knowledge-base name and are not
// numbered. There is no natural-language generation; every sentence is
// assembled from fixed templates and structured fields.
package synth

import (
	"sort"

	"github.com/clinprec/svi/internal/domain"
)

// citationBook accumulates citations across all eight blocks in
// first-appearance order, so a repeat source yields the same Citation in
// every block of one bundle. No citation number is assigned: DisplayLabel is
// the source's knowledge-base name.
type citationBook struct {
	seen  map[string]domain.Citation
	order []string
}

func newCitationBook() *citationBook {
	return &citationBook{seen: make(map[string]domain.Citation)}
}

func (b *citationBook) add(src domain.Source) domain.Citation {
	key := src.KnowledgeBase + "|" + src.Version + "|" + src.RecordID
	if c, ok := b.seen[key]; ok {
		return c
	}
	c := domain.Citation{
		Source:          src,
		ReliabilityTier: src.Reliability,
		DisplayLabel:    src.KnowledgeBase,
		ExternalReference: src.RecordID,
	}
	b.seen[key] = c
	b.order = append(b.order, key)
	return c
}

// orderByReliability sorts Evidence by reliability tier (regulatory first),
// the ordering the Synthesizer weaves blocks in (spec §4.9).
func orderByReliability(ev []domain.Evidence) []domain.Evidence {
	out := make([]domain.Evidence, len(ev))
	copy(out, ev)
	sort.SliceStable(out, func(i, j int) bool {
		return bestReliability(out[i]) < bestReliability(out[j])
	})
	return out
}

func bestReliability(e domain.Evidence) domain.ReliabilityTier {
	best := domain.ReliabilityComputational
	for i, s := range e.Sources {
		if i == 0 || s.Reliability < best {
			best = s.Reliability
		}
	}
	return best
}

// citationsFor builds the ordered, deduplicated citation list for one block
// from the evidence cited in it, recording each source in book for
// cross-block numbering.
func citationsFor(book *citationBook, ev []domain.Evidence) []domain.Citation {
	var out []domain.Citation
	added := make(map[string]bool)
	for _, e := range orderByReliability(ev) {
		for _, s := range e.Sources {
			key := s.KnowledgeBase + "|" + s.Version + "|" + s.RecordID
			if added[key] {
				continue
			}
			added[key] = true
			out = append(out, book.add(s))
		}
	}
	return out
}

// minConfidence computes the confidence-propagation input for a block: the
// minimum confidence among its cited Evidence (spec §4.9 "Confidence
// propagation"). Evidence with no Sources (nothing cited) is excluded.
func minConfidence(ev []domain.Evidence) float64 {
	min := 1.0
	found := false
	for _, e := range ev {
		if len(e.Sources) == 0 {
			continue
		}
		found = true
		if e.Confidence < min {
			min = e.Confidence
		}
	}
	if !found {
		return 1.0
	}
	return min
}

// lowConfidenceQualifier is prefixed onto a block's body when its propagated
// confidence falls below the configured threshold (spec §4.9).
const lowConfidenceQualifier = "The evidence supporting this statement is limited; interpret with caution. "

const defaultConfidenceThreshold = 0.5

func applyConfidenceQualifier(body string, confidence, threshold float64) string {
	if confidence < threshold {
		return lowConfidenceQualifier + body
	}
	return body
}

// discordantQualifier is appended when any cited Evidence is flagged
// Conflict (spec §4.9 "Discordant evidence is reported with an explicit
// qualifier").
const discordantQualifier = " Sources disagree on this point; the classification reflects the best-supported direction."

func hasConflict(ev []domain.Evidence) bool {
	for _, e := range ev {
		if e.Conflict {
			return true
		}
	}
	return false
}

func applyDiscordanceQualifier(body string, ev []domain.Evidence) string {
	if hasConflict(ev) {
		return body + discordantQualifier
	}
	return body
}
