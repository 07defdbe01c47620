// Package evaluate measures how often the true label of a tweet appears among
// the classifier's top-k predictions.
package evaluate

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"

	"emotiondiary/internal/logging"
)

var ErrInputNotFound = errors.New("input file not found")

const (
	textColumn  = "tweet"
	labelColumn = "sentiment"
)

// Row is one labeled example.
type Row struct {
	Text  string
	Label string
}

// Predictor is satisfied by *classifier.Classifier.
type Predictor interface {
	PredictTopK(ctx context.Context, text string, k int) ([]string, error)
}

type Report struct {
	Correct int
	Total   int
}

// Accuracy is Correct/Total, or 0 when nothing was evaluated.
func (r Report) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Total)
}

// Empty reports whether the dataset had no rows.
func (r Report) Empty() bool {
	return r.Total == 0
}

// Read parses a CSV with a header row, picking the tweet and sentiment columns
// by name. Other columns are ignored.
func Read(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	textIdx, labelIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case textColumn:
			textIdx = i
		case labelColumn:
			labelIdx = i
		}
	}
	if textIdx < 0 || labelIdx < 0 {
		return nil, fmt.Errorf("header must contain %q and %q columns", textColumn, labelColumn)
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}
		if textIdx >= len(rec) || labelIdx >= len(rec) {
			return nil, fmt.Errorf("row %d has %d fields", line, len(rec))
		}
		rows = append(rows, Row{Text: rec[textIdx], Label: rec[labelIdx]})
	}
	return rows, nil
}

// TopK scores rows against predictor. A failed prediction counts as a miss.
func TopK(ctx context.Context, rows []Row, p Predictor, k int, log logging.Logger) Report {
	var rep Report
	for _, row := range rows {
		rep.Total++

		labels, err := p.PredictTopK(ctx, row.Text, k)
		if err != nil {
			log.Warn(ctx, "prediction failed", "text", row.Text, "error", err)
			continue
		}
		if slices.Contains(labels, row.Label) {
			rep.Correct++
		}
	}
	return rep
}

// EvaluateFile reads path and scores it. A missing file yields ErrInputNotFound.
func EvaluateFile(ctx context.Context, path string, p Predictor, k int, log logging.Logger) (Report, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Report{}, fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}
	if err != nil {
		return Report{}, err
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", path, err)
	}
	return TopK(ctx, rows, p, k, log), nil
}
