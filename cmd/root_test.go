package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{"score", "gaps", "classify", "import", "migrate", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "compliance-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestScoreCommand_Flags(t *testing.T) {
	for _, name := range []string{"assessment", "section", "answer", "format", "output"} {
		assert.NotNil(t, scoreCmd.Flags().Lookup(name), "score should have --%s flag", name)
	}
	assert.Equal(t, "table", scoreCmd.Flags().Lookup("format").DefValue)
}

func TestGapsCommand_Flags(t *testing.T) {
	flag := gapsCmd.Flags().Lookup("threshold")
	require.NotNil(t, flag, "gaps command should have --threshold flag")
	assert.Equal(t, "-1", flag.DefValue)
}

func TestClassifyCommand_Flags(t *testing.T) {
	for _, name := range []string{"score", "foundational", "section-weight", "format"} {
		assert.NotNil(t, classifyCmd.Flags().Lookup(name), "classify should have --%s flag", name)
	}
}

func TestImportCommand_Flags(t *testing.T) {
	flag := importCmd.Flags().Lookup("file")
	require.NotNil(t, flag, "import command should have --file flag")
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}
