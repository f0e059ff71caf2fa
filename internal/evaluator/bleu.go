package evaluator

import (
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	maxOrder = 4
	// smoothing numerator for orders with no matching n-gram
	epsilon = 0.1
)

// Tokenize NFC-normalizes text and splits it on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(norm.NFC.String(text))
}

// BLEU is the smoothed sentence-level BLEU of hypothesis against a single
// reference, in [0, 1]. The maximum n-gram order shrinks to the shorter token
// count so short sentences are not scored zero, and orders without any
// matching n-gram are smoothed to epsilon over the candidate count.
func BLEU(reference, hypothesis string) float64 {
	ref, hyp := Tokenize(reference), Tokenize(hypothesis)
	if len(ref) == 0 || len(hyp) == 0 {
		return 0
	}

	order := min(maxOrder, len(ref), len(hyp))
	logSum, used := 0.0, 0
	for n := 1; n <= order; n++ {
		total := len(hyp) - n + 1
		if total <= 0 {
			continue
		}
		refCounts := ngrams(ref, n)
		matches := 0
		for gram, count := range ngrams(hyp, n) {
			matches += min(count, refCounts[gram])
		}

		p := float64(matches) / float64(total)
		if matches == 0 {
			p = epsilon / float64(total)
		}
		logSum += math.Log(p)
		used++
	}
	if used == 0 {
		return 0
	}

	score := brevityPenalty(len(ref), len(hyp)) * math.Exp(logSum/float64(used))
	return clip(score)
}

func ngrams(tokens []string, n int) map[string]int {
	counts := make(map[string]int, len(tokens))
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], "\x00")]++
	}
	return counts
}

func brevityPenalty(refLen, hypLen int) float64 {
	if hypLen >= refLen {
		return 1
	}
	return math.Exp(1 - float64(refLen)/float64(hypLen))
}

func clip(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
