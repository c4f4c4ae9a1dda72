// Package report summarizes cluster assignments against their source
// texts: which texts landed in each cluster and which words dominate it.
package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrInvalidStopWords is returned when a stop-word list contains empty or
// whitespace-only entries.
var ErrInvalidStopWords = errors.New("report: invalid stop words")

const (
	// topWordsKept is how many words are retained per cluster summary.
	topWordsKept = 20

	// topWordsRendered is how many of those the table renderer prints.
	topWordsRendered = 10

	// minWordLen filters out short tokens ("a", "of", "is") that carry no
	// cluster signal even without a stop-word list.
	minWordLen = 3
)

// WordCount is one word and its occurrence count within a cluster.
type WordCount struct {
	Word  string
	Count int
}

// ClusterSummary describes one cluster's text population.
type ClusterSummary struct {
	Cluster   int
	TopWords  []WordCount // at most topWordsKept entries, most frequent first
	TextCount int
}

// Analyzer maps texts to clusters and extracts per-cluster word
// frequencies. The zero value is usable with no stop words.
type Analyzer struct {
	stopWords map[string]struct{}
}

// NewAnalyzer creates an analyzer with the given stop words. Stop words
// must be non-empty after trimming; see SetStopWords.
func NewAnalyzer(stopWords []string) (*Analyzer, error) {
	a := &Analyzer{}
	if err := a.SetStopWords(stopWords); err != nil {
		return nil, err
	}
	return a, nil
}

// SetStopWords replaces the stop-word set. Words are lowercased before
// matching. Empty or whitespace-only entries make the whole list invalid.
func (a *Analyzer) SetStopWords(stopWords []string) error {
	set := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		trimmed := strings.TrimSpace(w)
		if trimmed == "" {
			return fmt.Errorf("%w: empty entry", ErrInvalidStopWords)
		}
		set[strings.ToLower(trimmed)] = struct{}{}
	}
	a.stopWords = set
	return nil
}

// Analyze groups texts by their cluster assignment and returns one summary
// per non-empty cluster, sorted by cluster ID. When the two slices differ
// in length, the extra tail entries are ignored.
func (a *Analyzer) Analyze(assignments []int, texts []string) []ClusterSummary {
	n := len(texts)
	if len(assignments) < n {
		n = len(assignments)
	}

	// Membership per cluster as a bitmap over text indices.
	members := make(map[int]*roaring.Bitmap)
	for i := 0; i < n; i++ {
		bm, ok := members[assignments[i]]
		if !ok {
			bm = roaring.New()
			members[assignments[i]] = bm
		}
		bm.Add(uint32(i))
	}

	summaries := make([]ClusterSummary, 0, len(members))
	for cluster, bm := range members {
		counts := make(map[string]int)
		it := bm.Iterator()
		for it.HasNext() {
			for _, word := range strings.Fields(strings.ToLower(texts[it.Next()])) {
				if utf8.RuneCountInString(word) < minWordLen {
					continue
				}
				if _, stopped := a.stopWords[word]; stopped {
					continue
				}
				counts[word]++
			}
		}

		summaries = append(summaries, ClusterSummary{
			Cluster:   cluster,
			TopWords:  topWords(counts, topWordsKept),
			TextCount: int(bm.GetCardinality()),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Cluster < summaries[j].Cluster
	})

	return summaries
}

// Render formats summaries as a readable table, one row per cluster with
// the leading words and their counts.
func Render(summaries []ClusterSummary) string {
	var sb strings.Builder
	sb.WriteString("cluster | texts | top words\n")
	for _, s := range summaries {
		words := s.TopWords
		if len(words) > topWordsRendered {
			words = words[:topWordsRendered]
		}
		parts := make([]string, len(words))
		for i, wc := range words {
			parts[i] = fmt.Sprintf("%s (%d)", wc.Word, wc.Count)
		}
		fmt.Fprintf(&sb, "%7d | %5d | %s\n", s.Cluster, s.TextCount, strings.Join(parts, ", "))
	}
	return sb.String()
}

// topWords returns the k most frequent words, ties broken alphabetically
// so output is deterministic.
func topWords(counts map[string]int, k int) []WordCount {
	words := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		words = append(words, WordCount{Word: w, Count: c})
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return words[i].Word < words[j].Word
	})
	if len(words) > k {
		words = words[:k]
	}
	return words
}
