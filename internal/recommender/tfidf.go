package recommender

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// tfidfVectorizer turns documents into L2-normalized TF-IDF vectors over a
// vocabulary of unigrams and bigrams learned from the fit corpus.
//
// Tokenization lowercases, splits on non-alphanumeric runes, drops tokens
// shorter than two characters and English stop words, then forms bigrams from
// the remaining token stream. The vocabulary keeps the maxFeatures most
// frequent terms across the corpus (ties broken alphabetically), and IDF is
// smoothed: idf = ln((1+N)/(1+df)) + 1.
type tfidfVectorizer struct {
	maxFeatures int
	vocabulary  map[string]int
	idf         []float64
}

func newTFIDFVectorizer(maxFeatures int) *tfidfVectorizer {
	return &tfidfVectorizer{maxFeatures: maxFeatures}
}

func (v *tfidfVectorizer) dims() int { return len(v.vocabulary) }

// fitTransform learns the vocabulary and IDF weights from docs and returns
// their vector representations.
func (v *tfidfVectorizer) fitTransform(docs []string) [][]float64 {
	termCounts := make([]map[string]int, len(docs))
	corpusCount := make(map[string]int)
	docFreq := make(map[string]int)

	for i, doc := range docs {
		counts := make(map[string]int)
		for _, term := range extractTerms(doc) {
			counts[term]++
		}
		termCounts[i] = counts
		for term, c := range counts {
			corpusCount[term] += c
			docFreq[term]++
		}
	}

	terms := make([]string, 0, len(corpusCount))
	for term := range corpusCount {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if corpusCount[terms[i]] != corpusCount[terms[j]] {
			return corpusCount[terms[i]] > corpusCount[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if v.maxFeatures > 0 && len(terms) > v.maxFeatures {
		terms = terms[:v.maxFeatures]
	}
	sort.Strings(terms)

	v.vocabulary = make(map[string]int, len(terms))
	for idx, term := range terms {
		v.vocabulary[term] = idx
	}

	v.idf = make([]float64, len(terms))
	n := float64(len(docs))
	for idx, term := range terms {
		v.idf[idx] = smoothIDF(n, float64(docFreq[term]))
	}

	out := make([][]float64, len(docs))
	for i, counts := range termCounts {
		out[i] = v.vectorize(counts)
	}
	return out
}

// transform vectorizes a document against the fitted vocabulary. Terms
// outside the vocabulary are ignored; before any fit the result is empty.
func (v *tfidfVectorizer) transform(doc string) []float64 {
	if v.vocabulary == nil {
		return nil
	}
	counts := make(map[string]int)
	for _, term := range extractTerms(doc) {
		counts[term]++
	}
	return v.vectorize(counts)
}

func (v *tfidfVectorizer) vectorize(counts map[string]int) []float64 {
	vec := make([]float64, len(v.vocabulary))
	for term, c := range counts {
		if idx, ok := v.vocabulary[term]; ok {
			vec[idx] = float64(c) * v.idf[idx]
		}
	}
	normalize(vec)
	return vec
}

func smoothIDF(nDocs, docFreq float64) float64 {
	return math.Log((1+nDocs)/(1+docFreq)) + 1
}

func normalize(v []float64) {
	n := l2Norm(v)
	if n == 0 {
		return
	}
	for i := range v {
		v[i] /= n
	}
}

// extractTerms returns the unigrams and bigrams of a document after
// lowercasing, stop-word removal, and dropping single-character tokens.
func extractTerms(doc string) []string {
	tokens := tokenize(doc)
	terms := make([]string, 0, 2*len(tokens))
	for i, tok := range tokens {
		terms = append(terms, tok)
		if i+1 < len(tokens) {
			terms = append(terms, tok+" "+tokens[i+1])
		}
	}
	return terms
}

func tokenize(doc string) []string {
	fields := strings.FieldsFunc(strings.ToLower(doc), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) < 2 || stopWords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
