package sentiment

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hello world 42", Normalize("  Hello, World! 42?? "))
	assert.Equal(t, "its great", Normalize("It's GREAT :)"))
	assert.Equal(t, "", Normalize("!!! ... ???"))
	assert.Equal(t, "i hate this", Normalize("I\u00a0hate\u2003this"))
	assert.Equal(t, "a b", Normalize("\u3000a\u2028b\u00a0"))
}

func TestClassifyRejectsUnicodeSeparatedContent(t *testing.T) {
	c := NewClassifier()

	for _, sep := range []string{"\u00a0", "\u2003", "\u3000"} {
		text := strings.Join([]string{"I", "hate", "this", "terrible", "experience"}, sep)
		res, err := c.Classify(text)
		require.NoError(t, err)
		assert.Equal(t, Reject, res.Verdict, "separator %q", sep)
	}
}

func TestVerdictForThreshold(t *testing.T) {
	assert.Equal(t, Reject, VerdictFor(-0.05, RejectThreshold), "boundary is inclusive")
	assert.Equal(t, Reject, VerdictFor(-0.9, RejectThreshold))
	assert.Equal(t, Accept, VerdictFor(-0.0499, RejectThreshold))
	assert.Equal(t, Accept, VerdictFor(0, RejectThreshold))
	assert.Equal(t, Accept, VerdictFor(0.8, RejectThreshold))
}

func TestClassifyRejectsNegativeContent(t *testing.T) {
	c := NewClassifier()

	res, err := c.Classify("I hate this terrible experience")
	require.NoError(t, err)

	assert.Equal(t, Reject, res.Verdict)
	assert.LessOrEqual(t, res.Scores.Compound, RejectThreshold)
	assert.Equal(t, MessageRejected, res.Message)
}

func TestClassifyAcceptsPositiveContent(t *testing.T) {
	c := NewClassifier()

	res, err := c.Classify("This was a great learning experience")
	require.NoError(t, err)

	assert.Equal(t, Accept, res.Verdict)
	assert.Greater(t, res.Scores.Compound, RejectThreshold)
	assert.Equal(t, MessageAccepted, res.Message)
}

func TestClassifyScoresAreBounded(t *testing.T) {
	c := NewClassifier()

	for _, text := range []string{"", "neutral statement about an office", "AMAZING!!! best ever", "awful awful awful"} {
		res, err := c.Classify(text)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Scores.Compound, -1.0, text)
		assert.LessOrEqual(t, res.Scores.Compound, 1.0, text)
	}
}

func TestClassifyIsDeterministicUnderConcurrency(t *testing.T) {
	c := NewClassifier()
	text := "The interview process was long but the team was friendly"

	want, err := c.Classify(text)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Result, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Classify(text)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestClassifyRecoversFromScorerFault(t *testing.T) {
	c := &Classifier{threshold: RejectThreshold}

	res, err := c.Classify("anything")

	assert.Error(t, err)
	assert.Equal(t, Result{}, res)
}
