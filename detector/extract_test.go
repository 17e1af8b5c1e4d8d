package detector

import "testing"

func TestExtract_DelimitedSpansInOrder(t *testing.T) {
	e := NewExtractor('*')
	tokens := e.Extract("*a b* text *c*")
	if len(tokens) != 3 {
		t.Fatalf("Extract() returned %d tokens, want 3", len(tokens))
	}
	want := []string{"a", "b", "c"}
	for i, token := range tokens {
		if token.Text != want[i] {
			t.Fatalf("token[%d] = %q, want %q", i, token.Text, want[i])
		}
		if token.Position != i {
			t.Fatalf("token[%d].Position = %d, want %d", i, token.Position, i)
		}
		if token.Confidence != 1.0 {
			t.Fatalf("token[%d].Confidence = %v, want 1.0", i, token.Confidence)
		}
	}
}

func TestExtract_NoDelimitedSpan(t *testing.T) {
	e := NewExtractor('*')
	cases := []struct {
		text string
	}{
		{text: ""},
		{text: "plain text without markers"},
		{text: "dangling * marker"},
		{text: "**"},
	}
	for _, tc := range cases {
		if tokens := e.Extract(tc.text); len(tokens) != 0 {
			t.Fatalf("Extract(%q) = %v, want empty", tc.text, tokens)
		}
	}
}

func TestExtract_ArabicSeparatorsAndSymbols(t *testing.T) {
	e := NewExtractor('*')
	tokens := e.Extract("قتال *غوكو ضد فيجيتا* اليوم")
	want := []string{"غوكو", "ضد", "فيجيتا"}
	if len(tokens) != len(want) {
		t.Fatalf("Extract() returned %d tokens, want %d", len(tokens), len(want))
	}
	for i, token := range tokens {
		if token.Text != want[i] {
			t.Fatalf("token[%d] = %q, want %q", i, token.Text, want[i])
		}
	}
}

func TestExtract_SlashAndPipeSeparators(t *testing.T) {
	e := NewExtractor('*')
	tokens := e.Extract("*ناروتو/ساسكي|لوفي، زورو*")
	want := []string{"ناروتو", "ساسكي", "لوفي", "زورو"}
	if len(tokens) != len(want) {
		t.Fatalf("Extract() returned %d tokens, want %d: %v", len(tokens), len(want), tokens)
	}
	for i, token := range tokens {
		if token.Text != want[i] {
			t.Fatalf("token[%d] = %q, want %q", i, token.Text, want[i])
		}
	}
}

func TestExtract_StripsEmojiAndDigits(t *testing.T) {
	e := NewExtractor('*')
	tokens := e.Extract("*غوكو 🔥 123*")
	if len(tokens) != 1 {
		t.Fatalf("Extract() returned %d tokens, want 1: %v", len(tokens), tokens)
	}
	if tokens[0].Text != "غوكو" {
		t.Fatalf("token[0] = %q, want %q", tokens[0].Text, "غوكو")
	}
}

func TestNormalize_FoldsVariants(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "أحمد", want: "احمد"},
		{in: "على", want: "علي"},
		{in: "فاطمة", want: "فاطمه"},
		{in: "مؤمن", want: "مومن"},
		{in: "GOKU", want: "goku"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
