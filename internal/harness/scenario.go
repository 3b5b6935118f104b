package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines an audit scenario for the receipt ledger.
// Scenarios record operations into a fresh ledger, optionally tamper
// with stored rows, and assert on the resulting chain.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RunToken is an optional fixed identifier for this run.
	// If empty, a random UUID is generated. Golden scenarios should
	// set an explicit token for deterministic snapshots.
	RunToken string `yaml:"run_token,omitempty"`

	// Steps are executed in order against the ledger.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final chain and stats.
	// Supported types: chain_length, chain_integrity, type_count, receipt_valid
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scenario action. Exactly one of the fields must be set.
type Step struct {
	// Record appends a receipt.
	Record *RecordStep `yaml:"record,omitempty"`

	// Tamper rewrites a stored receipt column behind the ledger's back.
	Tamper *TamperStep `yaml:"tamper,omitempty"`

	// Verify checks the receipt at a chain index.
	Verify *VerifyStep `yaml:"verify,omitempty"`
}

// RecordStep appends one receipt to the ledger.
type RecordStep struct {
	// Type is the operation type tag.
	Type string `yaml:"type"`

	// Data is the operation summary. Values are converted to ledger
	// values during execution.
	Data map[string]interface{} `yaml:"data,omitempty"`

	// Input is the operation input payload.
	Input interface{} `yaml:"input,omitempty"`

	// Output is the operation output payload.
	Output interface{} `yaml:"output,omitempty"`
}

// TamperStep simulates an attacker editing a stored receipt directly.
type TamperStep struct {
	// Index is the chain index of the receipt to edit.
	Index int64 `yaml:"index"`

	// Field is the receipt column to rewrite.
	Field string `yaml:"field"`

	// Value is the new column value.
	Value string `yaml:"value"`
}

// tamperableFields are the receipt columns a tamper step may rewrite.
// An explicit allowlist keeps scenario input out of SQL identifiers.
var tamperableFields = map[string]bool{
	"timestamp":      true,
	"operation_type": true,
	"operation_data": true,
	"input_hash":     true,
	"output_hash":    true,
	"previous_hash":  true,
	"receipt_hash":   true,
}

// VerifyStep verifies the receipt currently stored at a chain index.
type VerifyStep struct {
	// Index is the chain index of the receipt to verify.
	Index int64 `yaml:"index"`

	// Verifier is the identity logged on the verification record.
	Verifier string `yaml:"verifier,omitempty"`

	// ExpectValid, when set, asserts the verification outcome.
	ExpectValid *bool `yaml:"expect_valid,omitempty"`
}

// Assertion validates the final chain or stats.
type Assertion struct {
	// Type specifies the assertion type:
	// - "chain_length": total receipt count equals Count
	// - "chain_integrity": integrity percentage equals Integrity
	// - "type_count": receipts tagged Operation number Count
	// - "receipt_valid": verifying the receipt at Index yields Valid
	Type string `yaml:"type"`

	// Count is the expected count (chain_length, type_count).
	Count int64 `yaml:"count,omitempty"`

	// Integrity is the expected integrity percentage (chain_integrity).
	Integrity float64 `yaml:"integrity,omitempty"`

	// Operation is the operation type tag (type_count).
	Operation string `yaml:"operation,omitempty"`

	// Index is the chain index to verify (receipt_valid).
	Index int64 `yaml:"index,omitempty"`

	// Valid is the expected verification outcome (receipt_valid).
	Valid *bool `yaml:"valid,omitempty"`
}

// Assertion type constants.
const (
	AssertChainLength    = "chain_length"
	AssertChainIntegrity = "chain_integrity"
	AssertTypeCount      = "type_count"
	AssertReceiptValid   = "receipt_valid"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep checks that a step names exactly one action and that the
// action's required fields are set.
func validateStep(index int, step *Step) error {
	set := 0
	if step.Record != nil {
		set++
	}
	if step.Tamper != nil {
		set++
	}
	if step.Verify != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of record, tamper, verify is required", index)
	}

	switch {
	case step.Record != nil:
		if step.Record.Type == "" {
			return fmt.Errorf("steps[%d].record: type is required", index)
		}
	case step.Tamper != nil:
		if step.Tamper.Index < 0 {
			return fmt.Errorf("steps[%d].tamper: index must be non-negative", index)
		}
		if !tamperableFields[step.Tamper.Field] {
			return fmt.Errorf("steps[%d].tamper: unknown field %q", index, step.Tamper.Field)
		}
	case step.Verify != nil:
		if step.Verify.Index < 0 {
			return fmt.Errorf("steps[%d].verify: index must be non-negative", index)
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertChainLength:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for chain_length", index)
		}
	case AssertChainIntegrity:
		if a.Integrity < 0 || a.Integrity > 100 {
			return fmt.Errorf("assertions[%d]: integrity must be between 0 and 100", index)
		}
	case AssertTypeCount:
		if a.Operation == "" {
			return fmt.Errorf("assertions[%d]: operation is required for type_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for type_count", index)
		}
	case AssertReceiptValid:
		if a.Index < 0 {
			return fmt.Errorf("assertions[%d]: index must be non-negative for receipt_valid", index)
		}
		if a.Valid == nil {
			return fmt.Errorf("assertions[%d]: valid is required for receipt_valid", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
