// Package hgvs provides the narrow slice of HGVS parsing the pipeline needs:
// chromosome normalization, used by the Normalizer, and protein-substitution
// decomposition (spec §3, §6.3). No pipeline component calls the
// protein-substitution parser; the knowledge-base lookups key on the raw
// HGVS protein string.
package hgvs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var proteinSubstitutionPattern = regexp.MustCompile(`^p\.([A-Z][a-z]{2})(\d+)([A-Z][a-z]{2}|\*|Ter)$`)

// aminoAcidCodes maps three-letter to one-letter amino acid codes.
var aminoAcidCodes = map[string]string{
	"Ala": "A", "Arg": "R", "Asn": "N", "Asp": "D", "Cys": "C",
	"Gln": "Q", "Glu": "E", "Gly": "G", "His": "H", "Ile": "I",
	"Leu": "L", "Lys": "K", "Met": "M", "Phe": "F", "Pro": "P",
	"Ser": "S", "Thr": "T", "Trp": "W", "Tyr": "Y", "Val": "V",
	"Ter": "*", "Stop": "*",
}

// chromosomeAliases maps "chr7"-style contig names to bare numeric/letter form.
var chromosomeAliases = map[string]string{
	"chr1": "1", "chr2": "2", "chr3": "3", "chr4": "4", "chr5": "5",
	"chr6": "6", "chr7": "7", "chr8": "8", "chr9": "9", "chr10": "10",
	"chr11": "11", "chr12": "12", "chr13": "13", "chr14": "14", "chr15": "15",
	"chr16": "16", "chr17": "17", "chr18": "18", "chr19": "19", "chr20": "20",
	"chr21": "21", "chr22": "22", "chrX": "X", "chrY": "Y", "chrM": "M", "chrMT": "M",
}

// NormalizeChromosome strips a "chr" prefix, matching the teacher's
// convention of treating "chr7" and "7" as the same contig.
func NormalizeChromosome(c string) string {
	if alias, ok := chromosomeAliases[c]; ok {
		return alias
	}
	return strings.TrimPrefix(c, "chr")
}

// ProteinSubstitution is a decomposed p.<ref><pos><alt> notation.
type ProteinSubstitution struct {
	RefAA    string // one-letter
	Position int
	AltAA    string // one-letter, "*" for nonsense
}

// String renders back the single-letter form, e.g. "V600E".
func (p ProteinSubstitution) String() string {
	return fmt.Sprintf("%s%d%s", p.RefAA, p.Position, p.AltAA)
}

// ParseProteinSubstitution decomposes an HGVS protein substitution such as
// "p.Val600Glu" into codon position and one-letter amino acids. It returns
// ok=false (not an error) for shapes it does not recognize — callers treat
// an unparsed HGVSp as "no codon-level evidence available", never fatal
// (spec §7, per-variant isolation).
func ParseProteinSubstitution(hgvsp string) (ProteinSubstitution, bool) {
	hgvsp = strings.TrimSpace(hgvsp)
	if idx := strings.Index(hgvsp, ":"); idx >= 0 {
		hgvsp = hgvsp[idx+1:]
	}
	m := proteinSubstitutionPattern.FindStringSubmatch(hgvsp)
	if m == nil {
		return ProteinSubstitution{}, false
	}
	ref, ok := aminoAcidCodes[m[1]]
	if !ok {
		return ProteinSubstitution{}, false
	}
	pos, err := strconv.Atoi(m[2])
	if err != nil {
		return ProteinSubstitution{}, false
	}
	alt := m[3]
	if alt != "*" {
		var ok2 bool
		alt, ok2 = aminoAcidCodes[alt]
		if !ok2 {
			return ProteinSubstitution{}, false
		}
	}
	return ProteinSubstitution{RefAA: ref, Position: pos, AltAA: alt}, true
}

// IsNonsense reports whether a parsed substitution introduces a premature
// stop codon.
func (p ProteinSubstitution) IsNonsense() bool {
	return p.AltAA == "*"
}
