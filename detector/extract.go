package detector

import (
	"strings"
)

// CandidateToken is one word pulled out of a message's delimited span.
type CandidateToken struct {
	Text       string
	Position   int
	Confidence float64
}

const defaultDelimiter = '*'

var tokenSeparators = map[rune]bool{
	'/': true, '-': true, '|': true,
	'،': true, ',': true, '؛': true, ';': true, ':': true,
}

// Extractor pulls candidate tokens from the delimited span of a message.
// It performs no semantic filtering; every word in the span becomes a
// candidate with confidence 1.0.
type Extractor struct {
	delimiter rune
}

func NewExtractor(delimiter rune) *Extractor {
	if delimiter == 0 {
		delimiter = defaultDelimiter
	}
	return &Extractor{delimiter: delimiter}
}

func (e *Extractor) Extract(text string) []CandidateToken {
	spans := delimitedSpans(text, e.delimiter)
	if len(spans) == 0 {
		return nil
	}
	cleaned := cleanSpanContent(strings.Join(spans, " "))
	if strings.TrimSpace(cleaned) == "" {
		return nil
	}

	words := strings.FieldsFunc(cleaned, func(r rune) bool {
		return isSpaceRune(r) || tokenSeparators[r]
	})

	out := make([]CandidateToken, 0, len(words))
	for _, word := range words {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		out = append(out, CandidateToken{
			Text:       word,
			Position:   len(out),
			Confidence: 1.0,
		})
	}
	return out
}

// delimitedSpans returns the content of each paired delimiter span, in order.
// An unpaired trailing delimiter is ignored.
func delimitedSpans(text string, delimiter rune) []string {
	var spans []string
	var current strings.Builder
	inSpan := false
	for _, r := range text {
		if r == delimiter {
			if inSpan {
				if current.Len() > 0 {
					spans = append(spans, current.String())
				}
				current.Reset()
			}
			inSpan = !inSpan
			continue
		}
		if inSpan {
			current.WriteRune(r)
		}
	}
	return spans
}

// cleanSpanContent strips pictographic symbols and keeps only Arabic script,
// Latin letters and whitespace, collapsing runs of whitespace.
func cleanSpanContent(content string) string {
	var b strings.Builder
	b.Grow(len(content))
	lastSpace := false
	for _, r := range content {
		keep := isArabicScriptRune(r) || isLatinLetter(r)
		switch {
		case keep:
			b.WriteRune(r)
			lastSpace = false
		default:
			// Everything else (emoji, digits, punctuation) becomes a
			// single separating space.
			if !lastSpace && b.Len() > 0 {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func isArabicScriptRune(r rune) bool {
	switch {
	case r >= 0x0600 && r <= 0x06FF:
		return true
	case r >= 0x0750 && r <= 0x077F:
		return true
	case r >= 0x08A0 && r <= 0x08FF:
		return true
	case r >= 0xFB50 && r <= 0xFDFF:
		return true
	case r >= 0xFE70 && r <= 0xFEFF:
		return true
	}
	return false
}

func isLatinLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isSpaceRune(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', 0x00A0:
		return true
	}
	return false
}
