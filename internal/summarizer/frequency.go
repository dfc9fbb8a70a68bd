package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	terminators = ".!?。！？…"
	// A line break after one of these closes a Korean sentence written
	// without a period, as in "A는 1이다".
	hangulEndings = "다요까죠음함"
)

// Particles are tried longest first.
var particles = []string{
	"에서는", "으로는", "에게서",
	"에서", "으로", "에게", "까지", "부터", "처럼", "보다", "이다", "이나", "라는",
	"은", "는", "이", "가", "을", "를", "의", "에", "와", "과", "도", "로", "만",
}

// FrequencySummarizer picks the sentences whose terms recur most across the
// corpus. It understands English and Korean: Hangul terms lose trailing
// particles so "고루틴은" and "고루틴을" count as one term.
// It builds the corpus blurb shown by /api/corpus and the chat client.
type FrequencySummarizer struct {
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
	}
}

// Summarize returns up to maxSentences sentences in source order, joined by a
// space. Blank text yields "".
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return "", nil
	}

	terms := make([][]string, len(sentences))
	freq := map[string]float64{}
	for i, sent := range sentences {
		terms[i] = s.terms(sent)
		for _, t := range terms[i] {
			if _, stop := s.stopwords[t]; !stop {
				freq[t]++
			}
		}
	}
	top := 0.0
	for _, v := range freq {
		top = max(top, v)
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, ts := range terms {
		var sum float64
		for _, t := range ts {
			sum += freq[t]
		}
		if top > 0 && len(ts) > 0 {
			sum /= top * math.Sqrt(float64(len(ts)))
		}
		ranked[i] = scored{i, sum}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	n := min(maxSentences, len(ranked))
	picked := make([]int, n)
	for i := range picked {
		picked[i] = ranked[i].idx
	}
	sort.Ints(picked)
	out := make([]string, n)
	for i, idx := range picked {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " "), nil
}

// splitSentences ends a sentence after a run of terminators, or at a line
// break that follows a Hangul sentence ending. Other line breaks stay inside
// the sentence so wrapped prose is kept whole.
func splitSentences(text string) []string {
	var (
		out      []string
		start    int
		prevTerm bool
		last     rune
	)
	flush := func(end int) {
		if sent := strings.TrimSpace(text[start:end]); sent != "" {
			out = append(out, sent)
		}
		start = end
	}
	for i, r := range text {
		term := strings.ContainsRune(terminators, r)
		switch {
		case prevTerm && !term:
			flush(i)
		case r == '\n' && strings.ContainsRune(hangulEndings, last):
			flush(i)
		}
		prevTerm = term
		if !unicode.IsSpace(r) {
			last = r
		}
	}
	flush(len(text))
	return out
}

func (s *FrequencySummarizer) terms(sentence string) []string {
	toks := s.tokenPattern.FindAllString(strings.ToLower(sentence), -1)
	for i, t := range toks {
		toks[i] = stripParticle(t)
	}
	return toks
}

// stripParticle removes one trailing Korean particle. What remains must be
// two runes long, or end in a non-Hangul letter as in "go는".
func stripParticle(tok string) string {
	for _, p := range particles {
		stem, ok := strings.CutSuffix(tok, p)
		if !ok || stem == "" {
			continue
		}
		r, _ := utf8.DecodeLastRuneInString(stem)
		if utf8.RuneCountInString(stem) >= 2 || !unicode.Is(unicode.Hangul, r) {
			return stem
		}
	}
	return tok
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"그리고", "그러나", "하지만", "또한", "또는", "및", "등", "그", "이", "저", "것", "수", "때", "있다", "없다", "한다", "된다", "합니다", "있습니다",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
