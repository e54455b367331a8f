package analytics

import (
	"strings"
	"unicode"
)

// polarityLexicon scores words in [-1, 1]. The list covers the vocabulary
// of feedback, reviews, and incident descriptions the suite scores.
var polarityLexicon = map[string]float64{
	"excellent":    1.0,
	"outstanding":  1.0,
	"great":        0.8,
	"good":         0.7,
	"positive":     0.6,
	"helpful":      0.6,
	"satisfied":    0.6,
	"happy":        0.6,
	"improved":     0.5,
	"stable":       0.4,
	"fine":         0.3,
	"adequate":     0.2,
	"mediocre":     -0.3,
	"slow":         -0.4,
	"poor":         -0.6,
	"unhappy":      -0.6,
	"disappointed": -0.6,
	"problem":      -0.6,
	"bad":          -0.7,
	"failure":      -0.8,
	"failed":       -0.8,
	"broken":       -0.8,
	"unacceptable": -0.9,
	"terrible":     -1.0,
	"awful":        -1.0,
	"fraud":        -1.0,
}

// negators flip the polarity of the following word.
var negators = map[string]bool{
	"not":   true,
	"no":    true,
	"never": true,
	"isnt":  true,
	"wasnt": true,
	"dont":  true,
}

// scoreSentiment returns the mean polarity of the scored words in the
// text, in [-1, 1]. Zero means neutral or no scorable words.
func scoreSentiment(text string) float64 {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	total := 0.0
	scored := 0
	negate := false
	for _, w := range words {
		if negators[w] {
			negate = true
			continue
		}
		if polarity, ok := polarityLexicon[w]; ok {
			if negate {
				polarity = -polarity
			}
			total += polarity
			scored++
		}
		negate = false
	}
	if scored == 0 {
		return 0
	}
	score := total / float64(scored)
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return score
}
