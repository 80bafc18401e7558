package recommender

import (
	"math"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := tokenize("The QUICK brown fox, a 4K-TV!")
	want := []string{"quick", "brown", "fox", "4k", "tv"}
	if len(got) != len(want) {
		t.Fatalf("tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtractTermsIncludesBigrams(t *testing.T) {
	terms := extractTerms("running shoes")
	found := map[string]bool{}
	for _, term := range terms {
		found[term] = true
	}
	for _, want := range []string{"running", "shoes", "running shoes"} {
		if !found[want] {
			t.Errorf("term %q missing from %v", want, terms)
		}
	}
}

func TestBigramsSkipStopWords(t *testing.T) {
	// "of" is removed before bigram construction, so the bigram bridges the
	// surviving tokens.
	terms := extractTerms("pair of shoes")
	for _, term := range terms {
		if term == "pair of" || term == "of shoes" {
			t.Errorf("stop word leaked into bigram %q", term)
		}
	}
	found := false
	for _, term := range terms {
		if term == "pair shoes" {
			found = true
		}
	}
	if !found {
		t.Errorf("bigram \"pair shoes\" missing from %v", terms)
	}
}

func TestVectorizerRowsAreUnitLength(t *testing.T) {
	v := newTFIDFVectorizer(maxVocabulary)
	rows := v.fitTransform([]string{
		"running shoes lightweight",
		"leather boots waterproof",
		"running jacket waterproof",
	})
	for i, row := range rows {
		if n := l2Norm(row); math.Abs(n-1) > 1e-9 {
			t.Errorf("row %d norm = %v, want 1", i, n)
		}
	}
}

func TestVectorizerVocabularyCap(t *testing.T) {
	v := newTFIDFVectorizer(3)
	v.fitTransform([]string{
		"alpha alpha alpha beta beta gamma delta",
	})
	if got := v.dims(); got != 3 {
		t.Errorf("vocabulary size = %d, want 3", got)
	}
	if _, ok := v.vocabulary["alpha"]; !ok {
		t.Error("most frequent term dropped by the cap")
	}
}

func TestTransformIgnoresUnknownTerms(t *testing.T) {
	v := newTFIDFVectorizer(maxVocabulary)
	v.fitTransform([]string{"running shoes", "leather boots"})

	vec := v.transform("quantum chromodynamics")
	for i, x := range vec {
		if x != 0 {
			t.Errorf("dimension %d = %v for out-of-vocabulary text", i, x)
		}
	}
}

func TestTransformBeforeFit(t *testing.T) {
	v := newTFIDFVectorizer(maxVocabulary)
	if vec := v.transform("anything"); vec != nil {
		t.Errorf("transform before fit = %v, want nil", vec)
	}
}

func TestIDFWeightsRareTermsHigher(t *testing.T) {
	v := newTFIDFVectorizer(maxVocabulary)
	v.fitTransform([]string{
		"shoes common",
		"shoes common",
		"shoes rare",
	})
	common := v.idf[v.vocabulary["common"]]
	rare := v.idf[v.vocabulary["rare"]]
	shoes := v.idf[v.vocabulary["shoes"]]
	if rare <= common {
		t.Errorf("idf(rare) = %v <= idf(common) = %v", rare, common)
	}
	if common <= shoes {
		t.Errorf("idf(common) = %v <= idf(shoes) = %v", common, shoes)
	}
}
