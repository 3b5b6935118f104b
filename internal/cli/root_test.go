package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "tecp", cmd.Use)
	assert.Contains(t, cmd.Long, "receipt ledger")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"record", "verify", "chain", "stats"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	policyFlag := cmd.PersistentFlags().Lookup("policy")
	require.NotNil(t, policyFlag)
	assert.Equal(t, "", policyFlag.DefValue)
}

func TestRecordCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	recordCmd, _, err := cmd.Find([]string{"record"})
	require.NoError(t, err)

	for _, name := range []string{"db", "type", "data", "input", "output"} {
		require.NotNil(t, recordCmd.Flags().Lookup(name), "record should have --%s", name)
	}
	assert.Equal(t, "{}", recordCmd.Flags().Lookup("data").DefValue)
}

func TestVerifyCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	verifyCmd, _, err := cmd.Find([]string{"verify"})
	require.NoError(t, err)

	for _, name := range []string{"db", "hash", "verifier"} {
		require.NotNil(t, verifyCmd.Flags().Lookup(name), "verify should have --%s", name)
	}
}

func TestChainCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	chainCmd, _, err := cmd.Find([]string{"chain"})
	require.NoError(t, err)

	for _, name := range []string{"db", "start", "count"} {
		require.NotNil(t, chainCmd.Flags().Lookup(name), "chain should have --%s", name)
	}
	assert.Equal(t, "0", chainCmd.Flags().Lookup("start").DefValue)
}

func TestStatsCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	statsCmd, _, err := cmd.Find([]string{"stats"})
	require.NoError(t, err)

	require.NotNil(t, statsCmd.Flags().Lookup("db"))
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "stats", "--db", "x.db"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
