package recommender

import "math"

// cosineSimilarityMatrix computes pairwise cosine similarity between the rows
// of m. The result is square and symmetric with unit diagonal, except that a
// zero row has similarity 0 to everything, itself included.
func cosineSimilarityMatrix(m [][]float64) [][]float64 {
	norms := make([]float64, len(m))
	for i, row := range m {
		norms[i] = l2Norm(row)
	}
	sim := make([][]float64, len(m))
	for i := range m {
		sim[i] = make([]float64, len(m))
	}
	for i := range m {
		for j := i; j < len(m); j++ {
			if norms[i] == 0 || norms[j] == 0 {
				continue
			}
			s := dot(m[i], m[j]) / (norms[i] * norms[j])
			sim[i][j] = s
			sim[j][i] = s
		}
	}
	return sim
}

// transpose returns the cols x rows transpose of a rows x cols matrix.
func transpose(m [][]float64, cols int) [][]float64 {
	t := make([][]float64, cols)
	for j := range t {
		t[j] = make([]float64, len(m))
		for i := range m {
			t[j][i] = m[i][j]
		}
	}
	return t
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func l2Norm(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

// cosineSimilarity computes the cosine of two equal-length vectors, or 0 when
// either is the zero vector.
func cosineSimilarity(a, b []float64) float64 {
	na, nb := l2Norm(a), l2Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot(a, b) / (na * nb)
}
