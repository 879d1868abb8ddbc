// Package keywords learns which descriptive words a person is drawn to or
// put off by. Words are matched against two fixed vocabularies, visual and
// content, and accumulate a signed score and a hit count.
package keywords

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"unicode"
)

// Polarity decides whether matched keywords gain or lose score.
type Polarity string

const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
)

// Valid reports whether p is a known polarity.
func (p Polarity) Valid() bool { return p == Positive || p == Negative }

var visualVocabulary = vocabulary(
	// style and aesthetic
	"cinematic", "minimalist", "maximalist", "analog", "digital", "grit", "texture",
	"polish", "raw", "clean", "dirty", "smooth", "rough", "sharp", "soft",
	"saturated", "monochrome", "colorful", "muted", "bright", "dark",
	// layout and composition
	"grid", "organic", "structured", "scattered", "aligned", "asymmetric", "balanced",
	"dense", "sparse", "layered", "flat", "deep", "shallow",
	// motion and tempo
	"fast", "slow", "static", "dynamic", "jarring", "fluid", "staccato",
	"continuous", "interrupted", "flowing", "halting",
	// quality
	"crisp", "blurred", "focused", "diffused", "precise", "loose", "tight", "relaxed",
)

var contentVocabulary = vocabulary(
	// tone and voice
	"formal", "casual", "intimate", "distant", "warm", "cold", "serious", "playful",
	"earnest", "ironic", "direct", "indirect", "subtle", "explicit", "coded", "clear",
	// structure and form
	"linear", "nonlinear", "fragmented", "complete", "open", "closed", "ambiguous", "precise",
	"structured", "freeform", "systematic", "intuitive", "logical", "poetic",
	// approach
	"analytical", "narrative", "symbolic", "literal", "abstract", "concrete",
	"theoretical", "practical", "speculative", "grounded", "experimental", "traditional",
	// depth and complexity
	"simple", "complex", "shallow", "deep", "nuanced", "binary", "layered", "singular",
	"dense", "light", "heavy", "airy",
	// pacing and energy
	"fast", "slow", "urgent", "patient", "explosive", "gradual", "immediate", "delayed",
	"compressed", "expanded", "tight", "loose",
)

func vocabulary(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// Score is the learned standing of one keyword.
type Score struct {
	Score float64 `json:"score"`
	Count int     `json:"count"`
}

// Scores holds learned keywords per vocabulary.
type Scores struct {
	Visual  map[string]Score `json:"visual"`
	Content map[string]Score `json:"content"`
}

// NewScores returns empty scores.
func NewScores() Scores {
	return Scores{Visual: map[string]Score{}, Content: map[string]Score{}}
}

// Clone returns a deep copy.
func (s Scores) Clone() Scores {
	return Merge(s)
}

// Matches lists the keywords found in text per vocabulary.
type Matches struct {
	Visual  []string `json:"visual"`
	Content []string `json:"content"`
}

// Categorize finds vocabulary words in text. Matching is case-insensitive,
// punctuation separates words and words shorter than three letters are
// ignored. A word is reported once per occurrence.
func Categorize(text string) Matches {
	words := tokenize(text)
	return Matches{
		Visual:  extract(words, visualVocabulary),
		Content: extract(words, contentVocabulary),
	}
}

func tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', unicode.IsSpace(r):
			return r
		}
		return ' '
	}, strings.ToLower(text))
	fields := strings.Fields(cleaned)
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}

func extract(words []string, vocab map[string]struct{}) []string {
	var found []string
	for _, w := range words {
		if _, ok := vocab[w]; ok {
			found = append(found, w)
		}
	}
	for i := 0; i+1 < len(words); i++ {
		if _, ok := vocab[words[i]+" "+words[i+1]]; ok {
			found = append(found, words[i]+" "+words[i+1])
		}
	}
	return found
}

// Learn returns a copy of current with every keyword in text adjusted by
// weight, added for Positive and subtracted for Negative.
func Learn(current Scores, text string, weight float64, polarity Polarity) Scores {
	out := current.Clone()
	delta := weight
	if polarity == Negative {
		delta = -weight
	}
	m := Categorize(text)
	bump(out.Visual, m.Visual, delta)
	bump(out.Content, m.Content, delta)
	return out
}

func bump(dst map[string]Score, words []string, delta float64) {
	for _, w := range words {
		s := dst[w]
		s.Score += delta
		s.Count++
		dst[w] = s
	}
}

// Merge sums scores and counts across sets.
func Merge(sets ...Scores) Scores {
	out := NewScores()
	for _, s := range sets {
		for k, v := range s.Visual {
			cur := out.Visual[k]
			out.Visual[k] = Score{Score: cur.Score + v.Score, Count: cur.Count + v.Count}
		}
		for k, v := range s.Content {
			cur := out.Content[k]
			out.Content[k] = Score{Score: cur.Score + v.Score, Count: cur.Count + v.Count}
		}
	}
	return out
}

// Ranked is a keyword with its score.
type Ranked struct {
	Keyword string  `json:"keyword"`
	Score   float64 `json:"score"`
	Count   int     `json:"count"`
}

// Top returns up to limit keywords by descending score. Ties go
// alphabetically.
func Top(scores map[string]Score, limit int) []Ranked {
	out := make([]Ranked, 0, len(scores))
	for k, v := range scores {
		out = append(out, Ranked{Keyword: k, Score: v.Score, Count: v.Count})
	}
	slices.SortFunc(out, func(a, b Ranked) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Keyword, b.Keyword)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Summary lists ranked keywords per vocabulary.
type Summary struct {
	Visual  []Ranked `json:"visual"`
	Content []Ranked `json:"content"`
}

// Attracted returns the strongest positively scored keywords.
func Attracted(s Scores, limit int) Summary {
	keep := func(v Score) bool { return v.Score > 0 }
	return Summary{
		Visual:  Top(filter(s.Visual, keep), limit),
		Content: Top(filter(s.Content, keep), limit),
	}
}

// Repelled returns the most negatively scored keywords, reported with
// their magnitude.
func Repelled(s Scores, limit int) Summary {
	flip := func(in map[string]Score) []Ranked {
		neg := make(map[string]Score)
		for k, v := range in {
			if v.Score < 0 {
				neg[k] = Score{Score: math.Abs(v.Score), Count: v.Count}
			}
		}
		return Top(neg, limit)
	}
	return Summary{Visual: flip(s.Visual), Content: flip(s.Content)}
}

func filter(in map[string]Score, keep func(Score) bool) map[string]Score {
	out := make(map[string]Score)
	for k, v := range in {
		if keep(v) {
			out[k] = v
		}
	}
	return out
}

// Stats summarises a score set.
type Stats struct {
	Total    int `json:"totalKeywords"`
	Visual   int `json:"totalVisual"`
	Content  int `json:"totalContent"`
	Positive int `json:"positiveKeywords"`
	Negative int `json:"negativeKeywords"`
	Neutral  int `json:"neutralKeywords"`
}

// StatsOf counts keywords by vocabulary and sign.
func StatsOf(s Scores) Stats {
	st := Stats{Visual: len(s.Visual), Content: len(s.Content)}
	st.Total = st.Visual + st.Content
	for _, m := range []map[string]Score{s.Visual, s.Content} {
		for _, v := range m {
			switch {
			case v.Score > 0:
				st.Positive++
			case v.Score < 0:
				st.Negative++
			default:
				st.Neutral++
			}
		}
	}
	return st
}

// Profile is the reportable keyword view of a genome.
type Profile struct {
	Attracted Summary `json:"attracted"`
	Repelled  Summary `json:"repelled"`
	Stats     Stats   `json:"stats"`
}

// ProfileOf builds a Profile with up to limit keywords per list.
func ProfileOf(s Scores, limit int) Profile {
	return Profile{
		Attracted: Attracted(s, limit),
		Repelled:  Repelled(s, limit),
		Stats:     StatsOf(s),
	}
}
