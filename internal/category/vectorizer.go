package category

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

// ErrEmptyVocabulary is returned when no document contains a usable token.
var ErrEmptyVocabulary = errors.New("empty vocabulary: descriptions contain no usable tokens")

// tokenPattern matches runs of two or more letters, digits or underscores.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// sparseVector holds the non-zero entries of a feature vector, sorted by index.
type sparseVector struct {
	idx []int
	val []float64
}

func (v sparseVector) dot(w []float64) float64 {
	var sum float64
	for k, i := range v.idx {
		sum += v.val[k] * w[i]
	}
	return sum
}

func (v sparseVector) sqNorm() float64 {
	var sum float64
	for _, x := range v.val {
		sum += x * x
	}
	return sum
}

// Vectorizer turns a description into an L2-normalized TF-IDF vector over
// word unigrams and bigrams.
type Vectorizer struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
}

// terms lowercases and tokenizes text, returning unigrams followed by bigrams.
func terms(text string) []string {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, 2*len(tokens)-1)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

// fitVectorizer learns the vocabulary and smoothed IDF weights from docs.
func fitVectorizer(docs []string) (*Vectorizer, error) {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range terms(doc) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	vocab := make([]string, 0, len(df))
	for term := range df {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)

	n := float64(len(docs))
	v := &Vectorizer{
		Vocabulary: make(map[string]int, len(vocab)),
		IDF:        make([]float64, len(vocab)),
	}
	for i, term := range vocab {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return v, nil
}

// transform maps text onto the learned vocabulary. Unknown terms are ignored.
func (v *Vectorizer) transform(text string) sparseVector {
	counts := make(map[int]float64)
	for _, term := range terms(text) {
		if i, ok := v.Vocabulary[term]; ok {
			counts[i]++
		}
	}
	if len(counts) == 0 {
		return sparseVector{}
	}

	vec := sparseVector{
		idx: make([]int, 0, len(counts)),
		val: make([]float64, 0, len(counts)),
	}
	for i := range counts {
		vec.idx = append(vec.idx, i)
	}
	sort.Ints(vec.idx)

	var norm float64
	for _, i := range vec.idx {
		w := counts[i] * v.IDF[i]
		vec.val = append(vec.val, w)
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for k := range vec.val {
		vec.val[k] /= norm
	}
	return vec
}

// Features returns the size of the vocabulary.
func (v *Vectorizer) Features() int {
	return len(v.IDF)
}
