// Package classifier adapts the pretrained emotion model to the rest of the
// application. A Classifier is built once at startup and shared by every
// request; it holds no mutable state after Load returns.
package classifier

import (
	"context"
	"errors"
	"fmt"

	"emotiondiary/internal/logging"
)

var (
	ErrNotLoaded = errors.New("emotion analysis model not loaded")
	ErrNoResults = errors.New("no results from emotion model")
)

const warmupText = "Hello"

type Classifier struct {
	backend Backend
	loadErr error
	log     logging.Logger
}

// Load checks the backend with one warm-up inference. When that fails the
// returned Classifier is disabled for the lifetime of the process and every
// prediction reports ErrNotLoaded.
func Load(ctx context.Context, backend Backend, log logging.Logger) *Classifier {
	c := &Classifier{backend: backend, log: log}

	out, err := backend.Classify(ctx, warmupText)
	if err == nil && len(out) == 0 {
		err = ErrNoResults
	}
	if err != nil {
		c.loadErr = err
		log.Error(ctx, "error loading emotion analysis model", "error", err)
		return c
	}

	log.Info(ctx, "emotion analysis model loaded", "labels", len(out))
	return c
}

// Disabled returns a Classifier that never calls a backend.
func Disabled(reason error, log logging.Logger) *Classifier {
	if reason == nil {
		reason = ErrNotLoaded
	}
	return &Classifier{loadErr: reason, log: log}
}

// Ready reports whether the model loaded.
func (c *Classifier) Ready() bool {
	return c.loadErr == nil
}

// Prediction is the outcome of one Predict call: Scores on success, Err on
// failure. Exactly one of them is set.
type Prediction struct {
	Scores Scores
	Err    error
}

func (p Prediction) OK() bool {
	return p.Err == nil
}

// Message is the user-facing failure text, empty on success.
func (p Prediction) Message() string {
	if p.Err == nil {
		return ""
	}
	if errors.Is(p.Err, ErrNotLoaded) || errors.Is(p.Err, ErrNoResults) {
		return capitalize(p.Err.Error())
	}
	return fmt.Sprintf("An error occurred during emotion prediction: %v", p.Err)
}

// AsMap returns the mapping shown to the user: the scores, or a single entry
// under ErrorKey when the prediction failed.
func (p Prediction) AsMap() map[string]any {
	if p.Err != nil {
		return map[string]any{ErrorKey: p.Message()}
	}
	m := make(map[string]any, len(p.Scores))
	for k, v := range p.Scores {
		m[k] = v
	}
	return m
}

// Predict runs the model once on text. There is no caching and no retry.
func (c *Classifier) Predict(ctx context.Context, text string) Prediction {
	out, err := c.classify(ctx, text)
	if err != nil {
		return Prediction{Err: err}
	}
	return Prediction{Scores: FromList(out)}
}

// PredictTopK returns the k most likely labels for text.
func (c *Classifier) PredictTopK(ctx context.Context, text string, k int) ([]string, error) {
	out, err := c.classify(ctx, text)
	if err != nil {
		return nil, err
	}
	return TopK(out, k), nil
}

func (c *Classifier) classify(ctx context.Context, text string) ([]LabelScore, error) {
	if c.loadErr != nil {
		if errors.Is(c.loadErr, ErrNotLoaded) {
			return nil, c.loadErr
		}
		return nil, fmt.Errorf("%w: %v", ErrNotLoaded, c.loadErr)
	}

	c.log.Debug(ctx, "predicting emotions", "text", text)
	out, err := c.backend.Classify(ctx, text)
	if err != nil {
		c.log.Error(ctx, "error during emotion prediction", "error", err)
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoResults
	}
	return out, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
