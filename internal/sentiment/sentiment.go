// Package sentiment screens post content with the VADER lexicon model and
// decides whether it may be published.
package sentiment

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/jonreiter/govader"
)

// RejectThreshold is the compound score at or below which content is rejected.
const RejectThreshold = -0.05

const (
	MessageRejected = "Your blog seems negative. Please add more constructive details."
	MessageAccepted = "Blog sentiment acceptable."
)

var disallowed = regexp.MustCompile(`[^a-zA-Z0-9\s]`)

type Verdict int

const (
	Accept Verdict = iota
	Reject
)

func (v Verdict) String() string {
	if v == Reject {
		return "reject"
	}
	return "accept"
}

// Scores is the polarity record attached to every post.
type Scores struct {
	Negative float64 `json:"neg"`
	Neutral  float64 `json:"neu"`
	Positive float64 `json:"pos"`
	Compound float64 `json:"compound"`
}

type Result struct {
	Scores  Scores
	Verdict Verdict
	Message string
}

// Classifier is safe for concurrent use; the lexicon is loaded once and
// only read afterwards.
type Classifier struct {
	analyzer  *govader.SentimentIntensityAnalyzer
	threshold float64
}

func NewClassifier() *Classifier {
	return &Classifier{
		analyzer:  govader.NewSentimentIntensityAnalyzer(),
		threshold: RejectThreshold,
	}
}

// Normalize lowercases text, strips everything but ASCII letters, digits and
// whitespace, and trims the result. Unicode whitespace becomes an ASCII space
// first so it still separates words.
func Normalize(text string) string {
	text = strings.Map(asciiSpace, strings.ToLower(text))
	text = disallowed.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func asciiSpace(r rune) rune {
	if unicode.IsSpace(r) {
		return ' '
	}
	return r
}

// VerdictFor applies the acceptance policy to a compound score.
func VerdictFor(compound, threshold float64) Verdict {
	if compound <= threshold {
		return Reject
	}
	return Accept
}

// Classify scores the normalized form of text. A fault inside the scorer is
// returned as an error rather than propagated.
func (c *Classifier) Classify(text string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = fmt.Errorf("sentiment scorer panicked: %v", r)
		}
	}()

	polarity := c.analyzer.PolarityScores(Normalize(text))
	scores := Scores{
		Negative: polarity.Negative,
		Neutral:  polarity.Neutral,
		Positive: polarity.Positive,
		Compound: polarity.Compound,
	}

	verdict := VerdictFor(scores.Compound, c.threshold)
	message := MessageAccepted
	if verdict == Reject {
		message = MessageRejected
	}
	return Result{Scores: scores, Verdict: verdict, Message: message}, nil
}
