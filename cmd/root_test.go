package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"migrate", "ingest", "serve", "status", "realm", "export", "users"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRealmSweepRequiresKingdom(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"realm", "sweep"})
	require.NoError(t, err)

	flag := cmd.Flags().Lookup("kingdom")
	require.NotNil(t, flag)
	assert.Equal(t, []string{"true"}, flag.Annotations[cobra.BashCompOneRequiredFlag])
}

func TestUsersCreateDefaults(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"users", "create"})
	require.NoError(t, err)
	assert.Equal(t, "viewer", cmd.Flags().Lookup("role").DefValue)
}
