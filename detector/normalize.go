package detector

import "strings"

var arabicFoldPairs = []struct {
	variants string
	folded   rune
}{
	{variants: "أإآا", folded: 'ا'},
	{variants: "ىي", folded: 'ي'},
	{variants: "ةه", folded: 'ه'},
	{variants: "ؤو", folded: 'و'},
	{variants: "ئء", folded: 'ء'},
	{variants: "كک", folded: 'ك'},
}

// Normalize folds Arabic letter variants to a canonical form and case-folds
// any Latin characters. Cache keys and classifier input both go through this.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		b.WriteRune(foldArabicRune(r))
	}
	return strings.ToLower(b.String())
}

func foldArabicRune(r rune) rune {
	for _, pair := range arabicFoldPairs {
		for _, variant := range pair.variants {
			if r == variant {
				return pair.folded
			}
		}
	}
	return r
}
