// Command evaluate reports the top-3 accuracy of the emotion model against
// filtered_tweets.csv (columns tweet, sentiment) in the working directory.
//
// Usage:
//
//	evaluate
//
// The inference endpoint is configured the same way as the web server
// (INFERENCE_URL, INFERENCE_TOKEN, MODEL_NAME in the environment or .env).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"emotiondiary/internal/classifier"
	"emotiondiary/internal/config"
	"emotiondiary/internal/evaluate"
	"emotiondiary/internal/logging"
)

const topK = 3

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Can't load configuration: %s\n", err)
		os.Exit(1)
	}

	log := logging.New(os.Stderr, cfg.LogLevel)
	ctx := context.Background()

	clf := classifier.Load(ctx, classifier.NewHTTPBackend(cfg.InferenceURL, cfg.InferenceToken), log)
	run(ctx, os.Stdout, cfg.EvalCSV, clf, log)
}

func run(ctx context.Context, out io.Writer, path string, p evaluate.Predictor, log logging.Logger) {
	rep, err := evaluate.EvaluateFile(ctx, path, p, topK, log)
	if errors.Is(err, evaluate.ErrInputNotFound) {
		fmt.Fprintf(out, "Error: CSV file '%s' not found.\n", path)
		return
	}
	if err != nil {
		fmt.Fprintf(out, "Error: %s\n", err)
		return
	}

	fmt.Fprintln(out, "\n--- Top-3 Evaluation Results ---")
	if rep.Empty() {
		fmt.Fprintln(out, "No rows evaluated.")
	}
	fmt.Fprintf(out, "Accuracy: %.4f\n", rep.Accuracy())
}
