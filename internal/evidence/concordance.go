package evidence

import "github.com/clinprec/svi/internal/domain"

// baseConfidence is the starting single-source confidence for a reliability
// tier (spec §6.4: "1 source: the base confidence of that source's
// reliability tier"). Higher-reliability sources start closer to certain.
func baseConfidence(tier domain.ReliabilityTier) float64 {
	switch tier {
	case domain.ReliabilityRegulatory:
		return 0.99
	case domain.ReliabilityGuideline:
		return 0.95
	case domain.ReliabilityExpertCurated:
		return 0.90
	case domain.ReliabilityCommunityCurated:
		return 0.75
	default: // ReliabilityComputational
		return 0.60
	}
}

// concordanceFloor returns the minimum confidence the table in spec §6.4
// guarantees for the given distinct-source count, or 0 if fewer than two
// sources (no concordance boost applies).
func concordanceFloor(distinctSources int) float64 {
	switch {
	case distinctSources >= 4:
		return 0.99
	case distinctSources == 3:
		return 0.95
	case distinctSources == 2:
		return 0.85
	default:
		return 0
	}
}

// mergeConcordance groups raw mapped Evidence by clinical direction and
// merges each group sharing more than one distinct knowledge base into a
// single Evidence record with a confidence raised to the §6.4 floor. Evidence
// left singleton keeps its source's base confidence. Groups are then checked
// pairwise for oncogenic/benign discordance and flagged (spec §4.6).
func mergeConcordance(raw []domain.Evidence) []domain.Evidence {
	byDirection := map[domain.EvidenceDirection][]domain.Evidence{}
	for _, e := range raw {
		byDirection[e.Direction] = append(byDirection[e.Direction], e)
	}

	var out []domain.Evidence
	for direction, group := range byDirection {
		out = append(out, mergeDirectionGroup(direction, group)...)
	}

	flagDiscordance(out)
	return out
}

func mergeDirectionGroup(direction domain.EvidenceDirection, group []domain.Evidence) []domain.Evidence {
	distinctKBs := map[string]bool{}
	for _, e := range group {
		for _, s := range e.Sources {
			distinctKBs[s.KnowledgeBase] = true
		}
	}

	if len(distinctKBs) < 2 {
		for i := range group {
			if group[i].Confidence == 0 {
				if src, ok := group[i].TopSource(); ok {
					group[i].Confidence = baseConfidence(src.Reliability)
				}
			}
		}
		return group
	}

	merged := domain.Evidence{
		Direction: direction,
		Strength:  strongestStrength(group),
		Rationale: "concordant evidence from " + itoaInt(len(distinctKBs)) + " independent knowledge bases",
	}
	floor := concordanceFloor(len(distinctKBs))
	for _, e := range group {
		merged.Points += e.Points
		merged.Sources = append(merged.Sources, e.Sources...)
		if merged.Code == "" {
			merged.Code = e.Code
		}
		if e.CuratedLevel != "" {
			merged.CuratedLevel = e.CuratedLevel
			merged.CuratedCancerTypes = e.CuratedCancerTypes
		}
	}
	merged.Confidence = floor
	return []domain.Evidence{merged}
}

func strongestStrength(group []domain.Evidence) domain.EvidenceStrength {
	order := map[domain.EvidenceStrength]int{
		domain.StrengthVeryStrong: 4, domain.StrengthStrong: 3,
		domain.StrengthModerate: 2, domain.StrengthSupporting: 1,
	}
	best := domain.StrengthSupporting
	for _, e := range group {
		if order[e.Strength] > order[best] {
			best = e.Strength
		}
	}
	return best
}

// flagDiscordance marks every record in the pathogenic and benign buckets as
// conflicting when both buckets are non-empty: the variant has independent
// evidence pulling toward opposite conclusions (spec §4.6, §7 item 4).
func flagDiscordance(all []domain.Evidence) {
	var hasPathogenic, hasBenign bool
	for _, e := range all {
		switch e.Direction {
		case domain.DirectionSupportsPathogenic:
			hasPathogenic = true
		case domain.DirectionSupportsBenign:
			hasBenign = true
		}
	}
	if !hasPathogenic || !hasBenign {
		return
	}
	for i := range all {
		if all[i].Direction == domain.DirectionSupportsPathogenic || all[i].Direction == domain.DirectionSupportsBenign {
			all[i].Conflict = true
		}
	}
}

func itoaInt(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
