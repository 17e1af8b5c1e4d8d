package detector

import "testing"

func TestClassify_Deterministic(t *testing.T) {
	c := NewClassifier()
	inputs := []string{"غوكو", "ناروتو", "هناك", "ابج", "لوفي"}
	for _, input := range inputs {
		first := c.Classify(Normalize(input))
		second := c.Classify(Normalize(input))
		if first != second {
			t.Fatalf("Classify(%q) not deterministic: %+v vs %+v", input, first, second)
		}
	}
}

func TestClassify_AcceptsNameShapedTokens(t *testing.T) {
	c := NewClassifier()
	cases := []struct {
		token string
	}{
		{token: "غوكو"},
		{token: "ناروتو"},
		{token: "فيجيتا"},
	}
	for _, tc := range cases {
		got := c.Classify(Normalize(tc.token))
		if !got.Accepted {
			t.Fatalf("Classify(%q) = %+v, want accepted", tc.token, got)
		}
		if got.Confidence <= acceptThreshold || got.Confidence > 1.0 {
			t.Fatalf("Classify(%q).Confidence = %v, want in (%v, 1.0]", tc.token, got.Confidence, acceptThreshold)
		}
	}
}

func TestClassify_Rejections(t *testing.T) {
	c := NewClassifier()
	cases := []struct {
		name  string
		token string
	}{
		{name: "stop word", token: "هناك"},
		{name: "too short", token: "ابج"},
		{name: "too long", token: "ابتثجحخدذرزس"},
		{name: "latin letters", token: "goku"},
		{name: "digits", token: "1234"},
		{name: "mixed script", token: "غوكوx"},
	}
	for _, tc := range cases {
		got := c.Classify(Normalize(tc.token))
		if got.Accepted {
			t.Fatalf("%s: Classify(%q) accepted with confidence %v, want rejected", tc.name, tc.token, got.Confidence)
		}
	}
}

func TestClassify_TripledRunPenalty(t *testing.T) {
	c := NewClassifier()
	base := c.Classify("بترت")
	tripled := c.Classify("بتتت")
	if tripled.Confidence >= base.Confidence {
		t.Fatalf("tripled run confidence %v, want below %v", tripled.Confidence, base.Confidence)
	}
}

func TestClassify_ConfidenceClamped(t *testing.T) {
	c := NewClassifier()
	for _, token := range []string{"غوكو", "ساسكي", "هناك", "بوروتو"} {
		got := c.Classify(Normalize(token))
		if got.Confidence < 0 || got.Confidence > 1 {
			t.Fatalf("Classify(%q).Confidence = %v, want within [0,1]", token, got.Confidence)
		}
	}
}
