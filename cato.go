// Package cato evaluates untrusted compressed documents for
// decompression-bomb conditions before they reach a content-extraction
// pipeline.
//
// Cato inspects an archive's structural metadata (compression ratios, entry
// sizes, totals) without decompressing entry bodies, extracts recognizable
// nested entries to bounded temporary storage, and recursively re-evaluates
// them under hard depth and volume limits.
//
// # Basic Usage
//
// Create an evaluator and check a file:
//
//	ev, err := cato.NewEvaluator()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	outcome := ev.Evaluate("upload.xlsx")
//	if outcome.Flagged {
//	    fmt.Printf("rejected %s: %s\n", outcome.DisplayPath, outcome.Status)
//	}
//
// # Custom Limits
//
// Thresholds are a plain value injected at construction:
//
//	limits := policy.Default()
//	limits.MaxDepth = 3
//	ev, err := cato.NewEvaluator(cato.WithLimits(limits))
//
// Evaluate never returns an error and never panics on malformed input:
// every parser and I/O failure is classified into the outcome.
package cato

import (
	"fmt"
	"os"

	"github.com/praetorian-inc/cato/pkg/classify"
	"github.com/praetorian-inc/cato/pkg/evaluate"
	"github.com/praetorian-inc/cato/pkg/policy"
	"github.com/praetorian-inc/cato/pkg/types"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/praetorian-inc/cato" without subpackages.
type (
	// Outcome is the result of evaluating one file.
	Outcome = types.Outcome

	// Status is the terminal classification of an evaluation.
	Status = types.Status

	// Limits configures the ceilings the evaluator enforces.
	Limits = policy.Limits

	// Classifier decides whether a parser failure looks like an attack.
	Classifier = classify.Func
)

// Evaluator checks files and byte buffers for decompression bombs.
type Evaluator struct {
	engine *evaluate.Engine
	config *evaluatorConfig
}

// evaluatorConfig holds evaluator configuration.
type evaluatorConfig struct {
	limits     policy.Limits
	classifier classify.Func
}

// Option configures an Evaluator.
type Option func(*evaluatorConfig)

// WithLimits replaces the default limit policy.
func WithLimits(limits Limits) Option {
	return func(c *evaluatorConfig) {
		c.limits = limits
	}
}

// WithClassifier replaces the default parser-failure classifier. The default
// flags failures whose kind or message carries archive- or bomb-related
// vocabulary; supply your own Func for different behavior.
func WithClassifier(fn Classifier) Option {
	return func(c *evaluatorConfig) {
		c.classifier = fn
	}
}

// NewEvaluator creates an Evaluator with the given options.
//
// By default, the evaluator:
//   - Enforces the stock limits from policy.Default()
//   - Classifies parser failures with classify.Default()
func NewEvaluator(opts ...Option) (*Evaluator, error) {
	config := &evaluatorConfig{
		limits: policy.Default(),
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.limits.Validate(); err != nil {
		return nil, fmt.Errorf("invalid limits: %w", err)
	}

	return &Evaluator{
		engine: evaluate.New(config.limits, config.classifier),
		config: config,
	}, nil
}

// Evaluate inspects the file at path and returns exactly one outcome.
func (e *Evaluator) Evaluate(path string) Outcome {
	return e.engine.Evaluate(path)
}

// EvaluateBytes inspects an in-memory document. The filename supplies the
// extension the router needs and the name the outcome reports; the bytes are
// staged in a temporary file that is removed before this call returns.
func (e *Evaluator) EvaluateBytes(content []byte, filename string) Outcome {
	suffix := ""
	if ext := types.Extension(filename); ext != "" {
		suffix = "." + ext
	}

	tmp, err := os.CreateTemp("", "cato_*"+suffix)
	if err != nil {
		return Outcome{
			DisplayPath: filename,
			Flagged:     true,
			Status:      types.StatusIOError,
			Extension:   types.Extension(filename),
			Details:     "failed to stage document bytes: " + err.Error(),
			Cause:       err,
		}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return Outcome{
			DisplayPath: filename,
			Flagged:     true,
			Status:      types.StatusIOError,
			Extension:   types.Extension(filename),
			Details:     "failed to stage document bytes: " + err.Error(),
			Cause:       err,
		}
	}
	tmp.Close()

	return e.engine.EvaluateNamed(tmp.Name(), filename)
}

// Limits returns the evaluator's limit policy.
func (e *Evaluator) Limits() Limits {
	return e.config.limits
}
