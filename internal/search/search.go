// Package search provides fuzzy matching over article titles and the
// category vocabulary.
package search

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	sfuzzy "github.com/sahilm/fuzzy"

	"github.com/mmcdole/newsdash/internal/domain"
)

// Result is one article that matched a filter
type Result struct {
	Article        domain.Article
	Index          int   // position in the unfiltered list
	MatchedIndexes []int // title character positions that matched (for highlighting)
}

// ArticleIndex implements sahilm/fuzzy.Source over article titles
type ArticleIndex struct {
	articles    []domain.Article
	lowerTitles []string
}

// NewArticleIndex pre-computes the lowercase titles of articles
func NewArticleIndex(articles []domain.Article) *ArticleIndex {
	lower := make([]string, len(articles))
	for i, a := range articles {
		lower[i] = strings.ToLower(a.Title)
	}
	return &ArticleIndex{articles: articles, lowerTitles: lower}
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *ArticleIndex) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of articles (implements fuzzy.Source)
func (idx *ArticleIndex) Len() int { return len(idx.articles) }

// Filter returns the articles whose titles fuzzily match query, best first.
// An empty query returns every article in its original order.
func (idx *ArticleIndex) Filter(query string) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		results := make([]Result, len(idx.articles))
		for i, a := range idx.articles {
			results[i] = Result{Article: a, Index: i}
		}
		return results
	}

	matches := sfuzzy.FindFrom(strings.ToLower(query), idx)
	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{
			Article:        idx.articles[m.Index],
			Index:          m.Index,
			MatchedIndexes: runeIndexes(idx.lowerTitles[m.Index], m.MatchedIndexes),
		}
	}
	return results
}

// runeIndexes converts byte offsets into s to rune positions. Lowercasing
// maps rune to rune, so positions in the lowercase title hold for the original.
func runeIndexes(s string, offsets []int) []int {
	if len(offsets) == 0 {
		return offsets
	}
	want := make(map[int]bool, len(offsets))
	for _, o := range offsets {
		want[o] = true
	}

	out := make([]int, 0, len(offsets))
	pos := 0
	for offset := range s {
		if want[offset] {
			out = append(out, pos)
		}
		pos++
	}
	return out
}

// FilterArticles is a one-shot Filter over articles
func FilterArticles(query string, articles []domain.Article) []Result {
	return NewArticleIndex(articles).Filter(query)
}

// ResolveCategory maps user shorthand such as "tech" to a known category.
// Exact matches win, then prefixes, then the closest fuzzy match. Input that
// matches nothing is returned unchanged: unknown categories are passed to the
// API as-is.
func ResolveCategory(input string, categories []string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return input
	}

	lower := strings.ToLower(input)
	for _, c := range categories {
		if strings.ToLower(c) == lower {
			return c
		}
	}
	for _, c := range categories {
		if strings.HasPrefix(strings.ToLower(c), lower) {
			return c
		}
	}

	ranks := fuzzy.RankFindFold(input, categories)
	if len(ranks) == 0 {
		return input
	}
	sort.Stable(ranks)
	return ranks[0].Target
}
