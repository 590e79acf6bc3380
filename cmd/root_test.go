package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "analyze", "backfill", "runs"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "tracker", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestAnalyzeCommand_Args(t *testing.T) {
	assert.Error(t, analyzeCmd.Args(analyzeCmd, nil))
	assert.NoError(t, analyzeCmd.Args(analyzeCmd, []string{"shot.png"}))
	assert.Error(t, analyzeCmd.Args(analyzeCmd, []string{"a.png", "b.png"}))
}

func TestBackfillCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range backfillCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"migrate", "patch", "reanalyze"} {
		assert.True(t, names[name], "expected backfill subcommand %q not found", name)
	}
}

func TestBackfillCommand_Flags(t *testing.T) {
	dry := backfillCmd.PersistentFlags().Lookup("dry-run")
	require.NotNil(t, dry)
	assert.Equal(t, "false", dry.DefValue)

	field := backfillPatchCmd.Flags().Lookup("field")
	require.NotNil(t, field)
	assert.Contains(t, field.Usage, "miss-situation")
	assert.Contains(t, field.Usage, "character")
	assert.Contains(t, field.Usage, "reasons")

	require.NotNil(t, backfillReanalyzeCmd.Flags().Lookup("note"))
}

func TestRunsCommand_Flags(t *testing.T) {
	limit := runsListCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "50", limit.DefValue)

	require.NotNil(t, runsListCmd.Flags().Lookup("status"))
	require.NotNil(t, runsListCmd.Flags().Lookup("note"))
	assert.Error(t, runsShowCmd.Args(runsShowCmd, nil))
}
