package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpochSecondsMicrosecondPrecision(t *testing.T) {
	ts := time.Date(2023, 11, 14, 22, 13, 20, 123456000, time.UTC)
	got := EpochSeconds(ts)
	assert.Equal(t, float64(1700000000123456)/1e6, got)
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "2023-11-14T22:13:20Z", FormatTimestamp(1700000000))
	assert.Equal(t, "2023-11-14T22:13:20.5Z", FormatTimestamp(1700000000.5))
}

func TestFormatTimestampRoundTrip(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 250000000, time.UTC)
	ts := EpochSeconds(now)
	assert.Equal(t, now.Format(time.RFC3339Nano), FormatTimestamp(ts))
}

func TestReceiptBodyFields(t *testing.T) {
	r := Receipt{
		ChainIndex:    5,
		Timestamp:     1700000000.25,
		OperationType: "prediction",
		OperationData: `{"bugs_count":1}`,
		InputHash:     MustPayloadHash(String("in")),
		OutputHash:    MustPayloadHash(String("out")),
		PreviousHash:  GenesisHash,
		ReceiptHash:   "ignored",
		Datetime:      "ignored",
	}

	body := r.Body()
	assert.Len(t, body, 7)
	assert.Equal(t, Int(5), body["chain_index"])
	assert.Equal(t, Float(1700000000.25), body["timestamp"])
	assert.Equal(t, String("prediction"), body["operation_type"])
	assert.Equal(t, String(`{"bugs_count":1}`), body["operation_data"])
	assert.Equal(t, String(r.InputHash), body["input_hash"])
	assert.Equal(t, String(r.OutputHash), body["output_hash"])
	assert.Equal(t, String(GenesisHash), body["previous_hash"])

	_, hasReceiptHash := body["receipt_hash"]
	assert.False(t, hasReceiptHash)
	_, hasDatetime := body["datetime"]
	assert.False(t, hasDatetime)
}

func TestReceiptComputeHashMatchesBodyHash(t *testing.T) {
	r := Receipt{
		ChainIndex:    0,
		Timestamp:     1700000000,
		OperationType: "test",
		OperationData: "Test operation",
		InputHash:     MustPayloadHash(String("test input")),
		OutputHash:    MustPayloadHash(String("test output")),
		PreviousHash:  GenesisHash,
	}

	direct, err := BodyHash(r.Body())
	require.NoError(t, err)

	computed, err := r.ComputeHash()
	require.NoError(t, err)
	assert.Equal(t, direct, computed)
}
