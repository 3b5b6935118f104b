// Package recorder is the integration surface between an autonomous
// pipeline and the receipt ledger. Each Record method shapes one
// well-known operation kind into its compact ledger summary and appends
// a receipt for it; Record is the passthrough for everything else.
package recorder

import (
	"context"

	"github.com/roach88/tecp/internal/ledger"
	"github.com/roach88/tecp/internal/receipt"
)

// Recorder appends typed operation receipts to a ledger.
type Recorder struct {
	store *ledger.Store
}

// New creates a Recorder backed by the given store.
func New(store *ledger.Store) *Recorder {
	return &Recorder{store: store}
}

// Record appends a receipt for an arbitrary operation.
func (rec *Recorder) Record(ctx context.Context, op receipt.Operation, input, output receipt.Value) (receipt.Receipt, error) {
	return rec.store.Append(ctx, op, input, output)
}

// RecordDecision records an autonomous decision.
//
// The full decision document is the receipt's output payload; the ledger
// summary keeps only the confidence score and the chosen tech stack.
// Missing fields default to zero confidence and an empty stack, matching
// decisions produced before those fields existed.
func (rec *Recorder) RecordDecision(ctx context.Context, description string, decisions receipt.Object) (receipt.Receipt, error) {
	op := receipt.Decision{
		TechStack: map[string]string{},
	}
	if c, ok := decisions["confidence"]; ok {
		switch v := c.(type) {
		case receipt.Float:
			op.Confidence = float64(v)
		case receipt.Int:
			op.Confidence = float64(v)
		}
	}
	if stack, ok := decisions["tech_stack"].(receipt.Object); ok {
		for k, v := range stack {
			if s, ok := v.(receipt.String); ok {
				op.TechStack[k] = string(s)
			}
		}
	}
	return rec.store.Append(ctx, op, receipt.String(description), decisions)
}

// GenerationResult describes one code generation run.
type GenerationResult struct {
	Success     bool
	Files       []string
	ProjectName string
	Path        string
}

// RecordGeneration records a code generation run.
//
// The output payload is the generated project path; the summary carries
// the success flag, the file count and the project name.
func (rec *Recorder) RecordGeneration(ctx context.Context, description string, result GenerationResult) (receipt.Receipt, error) {
	name := result.ProjectName
	if name == "" {
		name = "unknown"
	}
	op := receipt.Generation{
		Success:     result.Success,
		FilesCount:  int64(len(result.Files)),
		ProjectName: name,
	}
	return rec.store.Append(ctx, op, receipt.String(description), receipt.String(result.Path))
}

// PredictionReport describes one prediction pass over a project.
type PredictionReport struct {
	NextFeatures            []string
	PotentialBugs           []string
	SecurityVulnerabilities []string
}

func (p PredictionReport) value() receipt.Value {
	return receipt.Object{
		"next_features":            stringArray(p.NextFeatures),
		"potential_bugs":           stringArray(p.PotentialBugs),
		"security_vulnerabilities": stringArray(p.SecurityVulnerabilities),
	}
}

// RecordPrediction records a prediction pass.
//
// The analyzed project path is the input payload and the full report is
// the output payload; the summary keeps only per-category counts.
func (rec *Recorder) RecordPrediction(ctx context.Context, projectPath string, predictions PredictionReport) (receipt.Receipt, error) {
	op := receipt.Prediction{
		NextFeatures:   int64(len(predictions.NextFeatures)),
		PotentialBugs:  int64(len(predictions.PotentialBugs)),
		SecurityIssues: int64(len(predictions.SecurityVulnerabilities)),
	}
	return rec.store.Append(ctx, op, receipt.String(projectPath), predictions.value())
}

// EvolutionReport describes one self-evolution cycle.
type EvolutionReport struct {
	Evolved      bool
	Generation   int64
	Improvements []string
}

func (e EvolutionReport) value() receipt.Value {
	return receipt.Object{
		"evolved":      receipt.Bool(e.Evolved),
		"generation":   receipt.Int(e.Generation),
		"improvements": stringArray(e.Improvements),
	}
}

// RecordEvolution records a self-evolution cycle. Evolution has no
// external input document, so the input payload is the fixed marker
// "self_analysis" and the full report is the output payload.
func (rec *Recorder) RecordEvolution(ctx context.Context, evolution EvolutionReport) (receipt.Receipt, error) {
	op := receipt.Evolution{
		Evolved:      evolution.Evolved,
		Generation:   evolution.Generation,
		Improvements: evolution.Improvements,
	}
	return rec.store.Append(ctx, op, receipt.String("self_analysis"), evolution.value())
}

func stringArray(items []string) receipt.Array {
	arr := make(receipt.Array, len(items))
	for i, item := range items {
		arr[i] = receipt.String(item)
	}
	return arr
}
