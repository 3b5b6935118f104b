package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/tecp/internal/ledger"
	"github.com/roach88/tecp/internal/receipt"
	"github.com/roach88/tecp/internal/testutil"
)

// scenarioEpoch is the instant scenario clocks start at. Every append
// and verification advances the clock by one second, so receipt
// timestamps (and therefore hashes) are fixed by the step sequence.
var scenarioEpoch = time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

// harnessVerifier is the identity logged when a verify step names none.
const harnessVerifier = "harness"

// StepVerification captures the outcome of one verify step.
type StepVerification struct {
	Index  int64                      `json:"index"`
	Result receipt.VerificationResult `json:"result"`
}

// Result is the outcome of an audit scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	Pass bool `json:"pass"`

	// RunToken identifies this run (from the scenario, or generated).
	RunToken string `json:"run_token"`

	// Receipts are the receipts as issued by the record steps, before
	// any tampering.
	Receipts []receipt.Receipt `json:"receipts"`

	// Chain is the stored chain after all steps, tampering included.
	Chain []receipt.Receipt `json:"chain"`

	// Verifications are the outcomes of the verify steps, in order.
	Verifications []StepVerification `json:"verifications,omitempty"`

	// Stats is the ledger summary after all steps.
	Stats receipt.Stats `json:"stats"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(runToken string) *Result {
	return &Result{
		Pass:     true,
		RunToken: runToken,
		Receipts: []receipt.Receipt{},
		Chain:    []receipt.Receipt{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes an audit scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with
// a deterministic clock so repeated runs produce identical chains.
//
// Execution flow:
//  1. Create fresh in-memory ledger
//  2. Execute steps in order (record / tamper / verify)
//  3. Capture the stored chain and ledger stats
//  4. Evaluate assertions against the final state
func Run(scenario *Scenario) (*Result, error) {
	store, err := ledger.Open(":memory:",
		ledger.WithClock(testutil.NewClock(scenarioEpoch, time.Second).Now),
		ledger.WithVerifier(harnessVerifier),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory ledger: %w", err)
	}
	defer store.Close()

	runToken := scenario.RunToken
	if runToken == "" {
		runToken = uuid.NewString()
	}

	result := NewResult(runToken)
	ctx := context.Background()

	for i, step := range scenario.Steps {
		switch {
		case step.Record != nil:
			if err := executeRecord(ctx, store, step.Record, result); err != nil {
				return nil, fmt.Errorf("steps[%d]: %w", i, err)
			}
		case step.Tamper != nil:
			if err := executeTamper(ctx, store, step.Tamper); err != nil {
				return nil, fmt.Errorf("steps[%d]: %w", i, err)
			}
		case step.Verify != nil:
			if err := executeVerify(ctx, store, step.Verify, result); err != nil {
				return nil, fmt.Errorf("steps[%d]: %w", i, err)
			}
		}
	}

	result.Stats, err = store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}

	for idx := int64(0); idx < result.Stats.TotalReceipts; idx++ {
		r, err := store.Receipt(ctx, idx)
		if err != nil {
			return nil, fmt.Errorf("failed to read stored chain: %w", err)
		}
		result.Chain = append(result.Chain, r)
	}

	evaluateAssertions(ctx, store, scenario.Assertions, result)

	return result, nil
}

// executeRecord appends one receipt from a record step.
func executeRecord(ctx context.Context, store *ledger.Store, step *RecordStep, result *Result) error {
	data, err := receipt.FromAny(mapOrEmpty(step.Data))
	if err != nil {
		return fmt.Errorf("record data: %w", err)
	}
	input, err := receipt.FromAny(step.Input)
	if err != nil {
		return fmt.Errorf("record input: %w", err)
	}
	output, err := receipt.FromAny(step.Output)
	if err != nil {
		return fmt.Errorf("record output: %w", err)
	}

	r, err := store.Append(ctx, receipt.Raw{Type: step.Type, Payload: data}, input, output)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}
	result.Receipts = append(result.Receipts, r)
	return nil
}

// executeTamper rewrites a stored receipt column directly, bypassing the
// ledger API the way an attacker with database access would.
func executeTamper(ctx context.Context, store *ledger.Store, step *TamperStep) error {
	if !tamperableFields[step.Field] {
		return fmt.Errorf("tamper: unknown field %q", step.Field)
	}

	rows, err := store.Query(ctx, `SELECT 1 FROM receipts WHERE chain_index = ?`, step.Index)
	if err != nil {
		return fmt.Errorf("tamper: %w", err)
	}
	exists := rows.Next()
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("tamper: %w", err)
	}
	rows.Close()
	if !exists {
		return fmt.Errorf("tamper: no receipt at chain index %d", step.Index)
	}

	_, err = store.DB().ExecContext(ctx,
		fmt.Sprintf("UPDATE receipts SET %s = ? WHERE chain_index = ?", step.Field),
		step.Value, step.Index,
	)
	if err != nil {
		return fmt.Errorf("tamper: %w", err)
	}
	return nil
}

// executeVerify verifies the stored receipt at a chain index and checks
// the step's expectation, if any.
func executeVerify(ctx context.Context, store *ledger.Store, step *VerifyStep, result *Result) error {
	stored, err := store.Receipt(ctx, step.Index)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	verifier := step.Verifier
	if verifier == "" {
		verifier = harnessVerifier
	}
	vr, err := store.Verify(ctx, stored.ReceiptHash, verifier)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	result.Verifications = append(result.Verifications, StepVerification{
		Index:  step.Index,
		Result: vr,
	})

	if step.ExpectValid != nil && vr.Valid != *step.ExpectValid {
		result.AddError(fmt.Sprintf(
			"verify step for index %d: valid = %v, expected %v",
			step.Index, vr.Valid, *step.ExpectValid))
	}
	return nil
}

// evaluateAssertions checks every assertion against the final state,
// collecting failures into the result.
func evaluateAssertions(ctx context.Context, store *ledger.Store, assertions []Assertion, result *Result) {
	for i, a := range assertions {
		switch a.Type {
		case AssertChainLength:
			if result.Stats.TotalReceipts != a.Count {
				result.AddError(fmt.Sprintf(
					"assertions[%d] chain_length: got %d receipts, expected %d",
					i, result.Stats.TotalReceipts, a.Count))
			}

		case AssertChainIntegrity:
			if result.Stats.ChainIntegrity != a.Integrity {
				result.AddError(fmt.Sprintf(
					"assertions[%d] chain_integrity: got %.2f, expected %.2f",
					i, result.Stats.ChainIntegrity, a.Integrity))
			}

		case AssertTypeCount:
			got := result.Stats.ByOperationType[a.Operation]
			if got != a.Count {
				result.AddError(fmt.Sprintf(
					"assertions[%d] type_count: got %d receipts of type %q, expected %d",
					i, got, a.Operation, a.Count))
			}

		case AssertReceiptValid:
			if a.Valid == nil {
				result.AddError(fmt.Sprintf(
					"assertions[%d] receipt_valid: no expected outcome set", i))
				continue
			}
			if a.Index >= int64(len(result.Chain)) {
				result.AddError(fmt.Sprintf(
					"assertions[%d] receipt_valid: no receipt at chain index %d",
					i, a.Index))
				continue
			}
			vr, err := store.Verify(ctx, result.Chain[a.Index].ReceiptHash, harnessVerifier)
			if err != nil {
				result.AddError(fmt.Sprintf(
					"assertions[%d] receipt_valid: verification failed: %v", i, err))
				continue
			}
			if vr.Valid != *a.Valid {
				result.AddError(fmt.Sprintf(
					"assertions[%d] receipt_valid: receipt %d valid = %v, expected %v",
					i, a.Index, vr.Valid, *a.Valid))
			}
		}
	}
}

func mapOrEmpty(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}
