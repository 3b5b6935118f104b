package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tecp/internal/ledger"
	"github.com/roach88/tecp/internal/receipt"
	"github.com/roach88/tecp/internal/testutil"
)

func newTestRecorder(t *testing.T) (*Recorder, *ledger.Store) {
	t.Helper()

	clock := testutil.NewClock(time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), time.Second)
	store, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"), ledger.WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return New(store), store
}

func TestRecordDecision(t *testing.T) {
	rec, _ := newTestRecorder(t)
	ctx := context.Background()

	decisions := receipt.Object{
		"confidence": receipt.Float(0.9),
		"tech_stack": receipt.Object{
			"backend":  receipt.String("go"),
			"database": receipt.String("sqlite"),
		},
		"rationale": receipt.String("lowest operational cost"),
	}

	r, err := rec.RecordDecision(ctx, "choose storage backend", decisions)
	require.NoError(t, err)

	assert.Equal(t, receipt.OpDecision, r.OperationType)
	assert.Equal(t, `{"confidence":0.9,"tech_stack":{"backend":"go","database":"sqlite"}}`, r.OperationData)

	wantInput, err := receipt.PayloadHash(receipt.String("choose storage backend"))
	require.NoError(t, err)
	assert.Equal(t, wantInput, r.InputHash)

	// Output payload is the full decision document, summary fields and all
	wantOutput, err := receipt.PayloadHash(decisions)
	require.NoError(t, err)
	assert.Equal(t, wantOutput, r.OutputHash)
}

func TestRecordDecision_MissingFieldsDefault(t *testing.T) {
	rec, _ := newTestRecorder(t)

	r, err := rec.RecordDecision(context.Background(), "minimal", receipt.Object{})
	require.NoError(t, err)

	assert.Equal(t, `{"confidence":0,"tech_stack":{}}`, r.OperationData)
}

func TestRecordDecision_IntConfidence(t *testing.T) {
	rec, _ := newTestRecorder(t)

	r, err := rec.RecordDecision(context.Background(), "certain", receipt.Object{
		"confidence": receipt.Int(1),
	})
	require.NoError(t, err)

	assert.Equal(t, `{"confidence":1,"tech_stack":{}}`, r.OperationData)
}

func TestRecordGeneration(t *testing.T) {
	rec, _ := newTestRecorder(t)

	result := GenerationResult{
		Success:     true,
		Files:       []string{"main.go", "go.mod", "README.md"},
		ProjectName: "billing-api",
		Path:        "/tmp/generated/billing-api",
	}

	r, err := rec.RecordGeneration(context.Background(), "generate billing service", result)
	require.NoError(t, err)

	assert.Equal(t, receipt.OpGeneration, r.OperationType)
	assert.Equal(t, `{"files_count":3,"project_name":"billing-api","success":true}`, r.OperationData)

	wantOutput, err := receipt.PayloadHash(receipt.String("/tmp/generated/billing-api"))
	require.NoError(t, err)
	assert.Equal(t, wantOutput, r.OutputHash)
}

func TestRecordGeneration_UnknownProjectName(t *testing.T) {
	rec, _ := newTestRecorder(t)

	r, err := rec.RecordGeneration(context.Background(), "generate", GenerationResult{})
	require.NoError(t, err)

	assert.Equal(t, `{"files_count":0,"project_name":"unknown","success":false}`, r.OperationData)
}

func TestRecordPrediction(t *testing.T) {
	rec, _ := newTestRecorder(t)

	predictions := PredictionReport{
		NextFeatures:            []string{"export", "webhooks"},
		PotentialBugs:           []string{"race in cache refresh"},
		SecurityVulnerabilities: []string{},
	}

	r, err := rec.RecordPrediction(context.Background(), "/src/billing-api", predictions)
	require.NoError(t, err)

	assert.Equal(t, receipt.OpPrediction, r.OperationType)
	assert.Equal(t, `{"bugs_count":1,"next_features_count":2,"security_count":0}`, r.OperationData)

	wantInput, err := receipt.PayloadHash(receipt.String("/src/billing-api"))
	require.NoError(t, err)
	assert.Equal(t, wantInput, r.InputHash)

	wantOutput, err := receipt.PayloadHash(predictions.value())
	require.NoError(t, err)
	assert.Equal(t, wantOutput, r.OutputHash)
}

func TestRecordEvolution(t *testing.T) {
	rec, _ := newTestRecorder(t)

	evolution := EvolutionReport{
		Evolved:      true,
		Generation:   4,
		Improvements: []string{"faster planner", "smaller prompts"},
	}

	r, err := rec.RecordEvolution(context.Background(), evolution)
	require.NoError(t, err)

	assert.Equal(t, receipt.OpEvolution, r.OperationType)
	assert.Equal(t,
		`{"evolved":true,"generation":4,"improvements":["faster planner","smaller prompts"]}`,
		r.OperationData)

	// Evolution receipts carry the fixed self-analysis input marker
	wantInput, err := receipt.PayloadHash(receipt.String("self_analysis"))
	require.NoError(t, err)
	assert.Equal(t, wantInput, r.InputHash)
}

func TestRecorder_ReceiptsChainAcrossKinds(t *testing.T) {
	rec, store := newTestRecorder(t)
	ctx := context.Background()

	r0, err := rec.RecordDecision(ctx, "pick stack", receipt.Object{"confidence": receipt.Float(0.8)})
	require.NoError(t, err)
	r1, err := rec.RecordGeneration(ctx, "generate", GenerationResult{Success: true, ProjectName: "svc"})
	require.NoError(t, err)
	r2, err := rec.RecordPrediction(ctx, "/src/svc", PredictionReport{})
	require.NoError(t, err)
	r3, err := rec.RecordEvolution(ctx, EvolutionReport{Generation: 1})
	require.NoError(t, err)

	receipts := []receipt.Receipt{r0, r1, r2, r3}
	for i, r := range receipts {
		assert.Equal(t, int64(i), r.ChainIndex)
		if i > 0 {
			assert.Equal(t, receipts[i-1].ReceiptHash, r.PreviousHash)
		}

		result, err := store.Verify(ctx, r.ReceiptHash, "")
		require.NoError(t, err)
		assert.True(t, result.Valid, "receipt %d failed verification", i)
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalReceipts)
	assert.Equal(t, 100.0, stats.ChainIntegrity)
	assert.Equal(t, map[string]int64{
		receipt.OpDecision:   1,
		receipt.OpGeneration: 1,
		receipt.OpPrediction: 1,
		receipt.OpEvolution:  1,
	}, stats.ByOperationType)
}
