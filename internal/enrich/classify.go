// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"strings"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// instructionPrefixes are leading phrases stripped from a query before
// classification. Only the first matching prefix is removed.
var instructionPrefixes = []string{
	"provide a review on ",
	"give me information about ",
	"tell me about ",
	"research ",
	"analyze ",
	"find drugs for ",
	"find treatments for ",
}

// separatorPhrases cut the query at the first qualifier clause. Only the
// first matching separator applies.
var separatorPhrases = []string{" including ", ", and ", " with ", " for "}

// drugSuffixes are INN stem endings that mark a single token as a drug name.
var drugSuffixes = []string{
	"mab", "nib", "vir", "stat", "pril", "ine", "olol",
	"azole", "mycin", "cycline", "floxacin", "cillin",
}

// knownDrugs is the allow-list of common drug names that carry no INN stem.
var knownDrugs = map[string]bool{
	"metformin": true, "aspirin": true, "ibuprofen": true, "paracetamol": true,
	"insulin": true, "warfarin": true, "heparin": true, "morphine": true,
	"codeine": true, "penicillin": true, "atorvastatin": true, "simvastatin": true,
	"omeprazole": true, "amoxicillin": true, "lisinopril": true, "levothyroxine": true,
	"azithromycin": true, "metoprolol": true, "amlodipine": true,
	"hydrochlorothiazide": true, "gabapentin": true, "sertraline": true,
}

// DetectInputType classifies a free-text query as naming a drug or a
// disease and extracts the entity name. Instruction prefixes and trailing
// qualifier clauses are stripped first. The first remaining token is a drug
// when it is on the allow-list or ends with an INN stem; otherwise the whole
// cleaned remainder is treated as a disease name.
func DetectInputType(query string) (types.InputType, string) {
	clean := strings.TrimSpace(query)

	lower := strings.ToLower(clean)
	for _, prefix := range instructionPrefixes {
		if strings.HasPrefix(lower, prefix) {
			clean = strings.TrimSpace(clean[len(prefix):])
			break
		}
	}

	lower = strings.ToLower(clean)
	for _, sep := range separatorPhrases {
		if idx := strings.Index(lower, sep); idx >= 0 {
			clean = strings.TrimSpace(clean[:idx])
			break
		}
	}

	fields := strings.Fields(clean)
	if len(fields) == 0 {
		return types.InputDisease, ""
	}
	word := strings.Trim(fields[0], ",.:;!?")
	wordLower := strings.ToLower(word)

	if knownDrugs[wordLower] {
		return types.InputDrug, word
	}
	for _, suffix := range drugSuffixes {
		if strings.HasSuffix(wordLower, suffix) {
			return types.InputDrug, word
		}
	}

	return types.InputDisease, clean
}
