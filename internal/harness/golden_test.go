package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tecp/internal/receipt"
)

// TestGoldenScenarios runs every scenario fixture and compares its
// stored chain against the checked-in golden snapshot. A diff here
// means receipt hashing or canonical serialization changed, which
// invalidates every previously issued receipt.
func TestGoldenScenarios(t *testing.T) {
	entries, err := os.ReadDir("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata/scenarios", entry.Name()))
			require.NoError(t, err)

			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestGoldenScenariosPass(t *testing.T) {
	for _, name := range []string{"basic_chain", "tamper_detection", "broken_link"} {
		t.Run(name, func(t *testing.T) {
			result, err := Run(loadFixture(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestChainSnapshot_OmitsDatetime(t *testing.T) {
	result, err := Run(loadFixture(t, "basic_chain"))
	require.NoError(t, err)

	snapshot := ChainSnapshot{
		ScenarioName: "basic_chain",
		RunToken:     result.RunToken,
		Chain:        result.Chain,
		Stats:        result.Stats,
	}

	data, err := receipt.MarshalCanonical(snapshot.value())
	require.NoError(t, err)

	s := string(data)
	assert.NotContains(t, s, "datetime")
	assert.Contains(t, s, `"scenario_name":"basic_chain"`)
	assert.Contains(t, s, `"run_token":"golden-basic-chain"`)
	assert.Contains(t, s, `"chain_integrity":100`)
}

func TestChainSnapshot_MatchesFixtureBytes(t *testing.T) {
	result, err := Run(loadFixture(t, "broken_link"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	snapshot := ChainSnapshot{
		ScenarioName: "broken_link",
		RunToken:     result.RunToken,
		Chain:        result.Chain,
		Stats:        result.Stats,
	}
	data, err := receipt.MarshalCanonical(snapshot.value())
	require.NoError(t, err)

	want, err := os.ReadFile(filepath.Join("testdata", "golden", "broken_link.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(data))
}
