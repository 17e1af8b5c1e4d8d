package detector

import (
	"strings"
)

// Classification is the strict-mode verdict for one normalized token.
type Classification struct {
	Accepted   bool
	Confidence float64
}

const (
	acceptThreshold = 0.6

	minTokenLen = 4
	maxTokenLen = 10

	idealLenMin = 4
	idealLenMax = 8
)

// stopWords are everyday words that are never character names. The list
// mixes Arabic function words with common English fillers since the
// extractor admits a Latin fallback.
var stopWords = map[string]bool{
	"في": true, "من": true, "الى": true, "على": true, "عن": true,
	"كيف": true, "متى": true, "اين": true, "ماذا": true, "لماذا": true,
	"هذا": true, "هذه": true, "ذلك": true, "تلك": true, "التي": true, "الذي": true,
	"عند": true, "مع": true, "حول": true, "بين": true, "خلف": true, "امام": true,
	"فوق": true, "تحت": true, "داخل": true, "خارج": true, "قبل": true, "بعد": true,
	"خلال": true, "اثناء": true, "هنا": true, "هناك": true, "حيث": true,
	"اسم": true, "كذا": true, "كذلك": true, "ايضا": true,
	"the": true, "and": true, "or": true, "in": true, "on": true, "at": true,
	"to": true, "for": true, "of": true, "with": true, "by": true, "from": true,
	"into": true, "through": true, "during": true,
}

// stopWordFragments penalize tokens that merely contain a function word.
var stopWordFragments = []string{
	"هذا", "هذه", "ذلك", "تلك", "التي", "الذي", "عند",
	"كيف", "متى", "اين", "ماذا", "اسم",
}

var nameEndings = []string{"كو", "كي", "تو", "رو", "مي", "ري"}

var nameInfixes = []string{"سا", "نا", "يو", "شي"}

// Classifier scores a normalized token for how likely it is to be a
// character name. The scorer is a tuned heuristic: false positives and
// negatives are expected, but the same input always yields the same verdict.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

func (c *Classifier) Classify(normalized string) Classification {
	runes := []rune(normalized)

	if len(runes) == 0 || !allCoreArabic(runes) || isAllDigits(runes) || stopWords[normalized] {
		return Classification{}
	}
	if len(runes) < minTokenLen || len(runes) > maxTokenLen {
		return Classification{}
	}

	score := 0.0

	if hasAnySuffix(normalized, nameEndings) || containsAny(normalized, nameInfixes) {
		score += 0.7
	}
	if len(runes) >= idealLenMin && len(runes) <= idealLenMax {
		// Typical name shape and typical name length each contribute.
		score += 0.5 + 0.5
	}
	if hasAnySuffix(normalized, []string{"ه", "ة", "ي", "و", "ا"}) {
		score += 0.6
	}
	if ratio := consonantRatio(runes); ratio >= 0.4 && ratio <= 0.7 {
		score += 0.4
	}
	if hasTripledRun(runes) {
		score -= 0.5
	}
	if containsAny(normalized, stopWordFragments) {
		score -= 0.8
	}
	if len(runes) >= 4 && len(runes) <= 6 {
		score += 0.3
	}

	confidence := clamp01(score)
	return Classification{
		Accepted:   confidence > acceptThreshold,
		Confidence: confidence,
	}
}

// allCoreArabic reports whether every rune falls in the base Arabic letter
// range; digits, Latin letters and diacritics all disqualify a token.
func allCoreArabic(runes []rune) bool {
	for _, r := range runes {
		if r < 'ا' || r > 'ي' {
			return false
		}
	}
	return true
}

func isAllDigits(runes []rune) bool {
	for _, r := range runes {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(runes) > 0
}

func consonantRatio(runes []rune) float64 {
	vowels := 0
	for _, r := range runes {
		switch r {
		case 'ا', 'و', 'ي':
			vowels++
		}
	}
	return float64(len(runes)-vowels) / float64(len(runes))
}

func hasTripledRun(runes []rune) bool {
	for i := 2; i < len(runes); i++ {
		if runes[i] == runes[i-1] && runes[i] == runes[i-2] {
			return true
		}
	}
	return false
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func containsAny(s string, fragments []string) bool {
	for _, fragment := range fragments {
		if strings.Contains(s, fragment) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
