package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tecp/internal/receipt"
)

// ChainSnapshot captures the stored chain and stats for a scenario run.
// Serialized with canonical JSON so golden comparison is byte-stable.
type ChainSnapshot struct {
	ScenarioName string
	RunToken     string
	Chain        []receipt.Receipt
	Stats        receipt.Stats
}

// value builds the canonical form of the snapshot. The chain entries
// carry the stored columns only; the derived datetime is omitted so the
// snapshot is exactly what the database holds.
func (s *ChainSnapshot) value() receipt.Object {
	chain := make(receipt.Array, len(s.Chain))
	for i, r := range s.Chain {
		body := r.Body()
		body["receipt_hash"] = receipt.String(r.ReceiptHash)
		chain[i] = body
	}

	byType := make(receipt.Object, len(s.Stats.ByOperationType))
	for opType, count := range s.Stats.ByOperationType {
		byType[opType] = receipt.Int(count)
	}

	return receipt.Object{
		"scenario_name": receipt.String(s.ScenarioName),
		"run_token":     receipt.String(s.RunToken),
		"chain":         chain,
		"stats": receipt.Object{
			"total_receipts":      receipt.Int(s.Stats.TotalReceipts),
			"verified_operations": receipt.Int(s.Stats.VerifiedOperations),
			"by_operation_type":   byType,
			"chain_integrity":     receipt.Float(s.Stats.ChainIntegrity),
		},
	}
}

// RunWithGolden executes a scenario and compares the stored chain
// against a golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files are the source of truth for expected chain output:
// a hash change here means the receipt format changed and every
// previously issued receipt is affected.
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the chain doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares a result's stored chain against a golden file.
// Useful when the result is also needed for further checks.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := ChainSnapshot{
		ScenarioName: scenarioName,
		RunToken:     result.RunToken,
		Chain:        result.Chain,
		Stats:        result.Stats,
	}

	chainJSON, err := receipt.MarshalCanonical(snapshot.value())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, chainJSON)

	return nil
}
