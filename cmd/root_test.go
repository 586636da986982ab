package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"resolve", "topic", "topics", "runs", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "kinderslides", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestResolveCommand_Flags(t *testing.T) {
	for _, name := range []string{"item", "hint", "out"} {
		require.NotNil(t, resolveCmd.Flags().Lookup(name), "resolve should have --%s", name)
	}
	ann := resolveCmd.Flags().Lookup("item").Annotations
	assert.Contains(t, ann, cobra.BashCompOneRequiredFlag)
}

func TestTopicCommand_Flags(t *testing.T) {
	for _, name := range []string{"name", "file", "out-dir"} {
		require.NotNil(t, topicCmd.Flags().Lookup(name), "topic should have --%s", name)
	}
}

func TestRunsCommand_Flags(t *testing.T) {
	flag := runsCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "50", flag.DefValue)

	since := runsStatsCmd.Flags().Lookup("since")
	require.NotNil(t, since)
	assert.Equal(t, "24h0m0s", since.DefValue)

	var sub []string
	for _, c := range runsCmd.Commands() {
		sub = append(sub, c.Name())
	}
	assert.Contains(t, sub, "stats")
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
	assert.NotNil(t, serveCmd.Flags().Lookup("file"))
}
