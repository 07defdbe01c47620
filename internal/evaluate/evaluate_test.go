package evaluate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emotiondiary/internal/logging"
)

type fakePredictor map[string][]string

func (f fakePredictor) PredictTopK(ctx context.Context, text string, k int) ([]string, error) {
	labels, ok := f[text]
	if !ok {
		return nil, errors.New("unknown text")
	}
	if len(labels) > k {
		labels = labels[:k]
	}
	return labels, nil
}

var predictor = fakePredictor{
	"what a great day": {"joy", "excitement", "optimism"},
	"this is terrible": {"disappointment", "sadness", "anger"},
	"meh":              {"neutral", "boredom", "annoyance"},
}

func TestRead_ByHeaderName(t *testing.T) {
	in := "id,sentiment,tweet\n1,joy,what a great day\n2,anger,\"this is, terrible\"\n"
	rows, err := Read(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []Row{
		{Text: "what a great day", Label: "joy"},
		{Text: "this is, terrible", Label: "anger"},
	}, rows)
}

func TestRead_MissingColumn(t *testing.T) {
	_, err := Read(strings.NewReader("text,label\nhi,joy\n"))
	assert.Error(t, err)

	_, err = Read(strings.NewReader(""))
	assert.Error(t, err)
}

func TestTopK_AllCorrect(t *testing.T) {
	rows := []Row{
		{Text: "what a great day", Label: "joy"},
		{Text: "this is terrible", Label: "anger"},
	}
	rep := TopK(context.Background(), rows, predictor, 3, logging.Discard())

	assert.Equal(t, Report{Correct: 2, Total: 2}, rep)
	assert.Equal(t, 1.0, rep.Accuracy())
	assert.False(t, rep.Empty())
}

func TestTopK_MissesAndFailures(t *testing.T) {
	rows := []Row{
		{Text: "what a great day", Label: "joy"},
		{Text: "meh", Label: "joy"},
		{Text: "never seen", Label: "joy"},
		{Text: "this is terrible", Label: "anger"},
	}
	rep := TopK(context.Background(), rows, predictor, 3, logging.Discard())

	assert.Equal(t, 2, rep.Correct)
	assert.Equal(t, 4, rep.Total)
	assert.InDelta(t, 0.5, rep.Accuracy(), 1e-12)
}

func TestTopK_Empty(t *testing.T) {
	rep := TopK(context.Background(), nil, predictor, 3, logging.Discard())
	assert.True(t, rep.Empty())
	assert.Equal(t, 0.0, rep.Accuracy())
}

func TestEvaluateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tweets.csv")
	require.NoError(t, os.WriteFile(path, []byte("tweet,sentiment\nwhat a great day,joy\nthis is terrible,anger\n"), 0o600))

	rep, err := EvaluateFile(context.Background(), path, predictor, 3, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, 1.0, rep.Accuracy())
}

func TestEvaluateFile_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tweets.csv")
	require.NoError(t, os.WriteFile(path, []byte("tweet,sentiment\n"), 0o600))

	rep, err := EvaluateFile(context.Background(), path, predictor, 3, logging.Discard())
	require.NoError(t, err)
	assert.True(t, rep.Empty())
	assert.Equal(t, 0.0, rep.Accuracy())
}

func TestEvaluateFile_Missing(t *testing.T) {
	_, err := EvaluateFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), predictor, 3, logging.Discard())
	assert.ErrorIs(t, err, ErrInputNotFound)
}
