package receipt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAnyScalars(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected Value
	}{
		{"nil", nil, Null{}},
		{"string", "hello", String("hello")},
		{"bool", true, Bool(true)},
		{"int", 42, Int(42)},
		{"int64", int64(42), Int(42)},
		{"whole float", 42.0, Int(42)},
		{"fractional float", 0.5, Float(0.5)},
		{"json int", json.Number("42"), Int(42)},
		{"json float", json.Number("0.5"), Float(0.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFromAnyNested(t *testing.T) {
	got, err := FromAny(map[string]any{
		"stack": map[string]any{"backend": "go"},
		"files": []any{"main.go", "store.go"},
		"count": 2,
	})
	require.NoError(t, err)

	assert.Equal(t, Object{
		"stack": Object{"backend": String("go")},
		"files": Array{String("main.go"), String("store.go")},
		"count": Int(2),
	}, got)
}

func TestFromAnyRejectsUnsupportedTypes(t *testing.T) {
	_, err := FromAny(struct{}{})
	assert.Error(t, err)

	_, err = FromAny(map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}

func TestFromAnyLargeIntegerPrecision(t *testing.T) {
	// json.Number path must not lose precision above 2^53.
	got, err := FromAny(json.Number("9007199254740993"))
	require.NoError(t, err)
	assert.Equal(t, Int(9007199254740993), got)
}

func TestParseValue(t *testing.T) {
	got, err := ParseValue([]byte(`{"confidence":0.9,"tech_stack":{"db":"sqlite"}}`))
	require.NoError(t, err)

	assert.Equal(t, Object{
		"confidence": Float(0.9),
		"tech_stack": Object{"db": String("sqlite")},
	}, got)
}

func TestParseValueInvalidJSON(t *testing.T) {
	_, err := ParseValue([]byte(`{"unterminated`))
	assert.Error(t, err)
}

func TestToAnyRoundTrip(t *testing.T) {
	original := map[string]any{
		"name":  "demo",
		"count": int64(3),
		"ok":    true,
		"tags":  []any{"a", "b"},
	}

	v, err := FromAny(original)
	require.NoError(t, err)
	assert.Equal(t, original, ToAny(v))
}

func TestSortedKeysUTF16Order(t *testing.T) {
	// U+1D306 (surrogate pair in UTF-16) sorts before U+FB33 under
	// UTF-16 code unit order, opposite of UTF-8 byte order.
	obj := Object{
		"€":     Int(1), // euro sign
		"\U0001d306": Int(2), // tetragram for centre
		"דּ":     Int(3), // hebrew letter dalet with dagesh
		"a":          Int(4),
	}

	keys := obj.SortedKeys()
	assert.Equal(t, []string{"a", "€", "\U0001d306", "דּ"}, keys)
}

func TestOperationVariantTags(t *testing.T) {
	tests := []struct {
		op       Operation
		expected string
	}{
		{Decision{Confidence: 0.8}, "autonomous_decision"},
		{Generation{Success: true}, "code_generation"},
		{Prediction{}, "prediction"},
		{Evolution{Generation: 2}, "self_evolution"},
		{Raw{Type: "test", Payload: String("x")}, "test"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.op.OperationType())
	}
}

func TestOperationVariantData(t *testing.T) {
	d := Decision{
		Confidence: 0.92,
		TechStack:  map[string]string{"backend": "go", "db": "sqlite"},
	}
	dataJSON, err := MarshalCanonical(d.Data())
	require.NoError(t, err)
	assert.Equal(t,
		`{"confidence":0.92,"tech_stack":{"backend":"go","db":"sqlite"}}`,
		string(dataJSON))

	e := Evolution{Evolved: true, Generation: 3, Improvements: []string{"faster hashing"}}
	dataJSON, err = MarshalCanonical(e.Data())
	require.NoError(t, err)
	assert.Equal(t,
		`{"evolved":true,"generation":3,"improvements":["faster hashing"]}`,
		string(dataJSON))
}
